package conversations

import (
	"errors"
	"net/http"
)

// Domain errors for conversation operations.
var (
	ErrNotFound  = errors.New("conversation not found")
	ErrDuplicate = errors.New("conversation already exists")
	ErrInvalidID = errors.New("invalid conversation id")
)

// MapHTTPStatus maps conversation domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidID) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

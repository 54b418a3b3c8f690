package diagnostics

import (
	"errors"
	"net/http"
)

var (
	// ErrNoImage indicates the multipart request carried no image file.
	ErrNoImage = errors.New("No image uploaded")

	// ErrUnknownModel indicates a request named a model the registry does not hold.
	ErrUnknownModel = errors.New("unknown diagnostic model")

	// ErrUnavailable indicates the inference service could not be reached or
	// returned an unusable response.
	ErrUnavailable = errors.New("inference service unavailable")

	// ErrStore indicates the conversation record could not be read or written.
	ErrStore = errors.New("conversation store failure")
)

// MapHTTPStatus translates diagnostic errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoImage):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownModel):
		return http.StatusNotFound
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrStore):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

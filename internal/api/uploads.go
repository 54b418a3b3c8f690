package api

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/vitalscan/vitalscan/pkg/handlers"
	"github.com/vitalscan/vitalscan/pkg/storage"
)

type uploadsHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newUploadsHandler(store storage.System, logger *slog.Logger) *uploadsHandler {
	return &uploadsHandler{
		store:  store,
		logger: logger.With("handler", "uploads"),
	}
}

func (h *uploadsHandler) serve(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}

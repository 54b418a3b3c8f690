package diagnostics

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/vitalscan/vitalscan/internal/conversations"
	"github.com/vitalscan/vitalscan/internal/identity"
	"github.com/vitalscan/vitalscan/pkg/handlers"
	"github.com/vitalscan/vitalscan/pkg/routes"
)

// PredictResponse is the success body for a diagnostic request.
type PredictResponse struct {
	Report      string                     `json:"report"`
	Label       string                     `json:"label"`
	Confidence  *float64                   `json:"confidence,omitempty"`
	Explanation string                     `json:"explanation,omitempty"`
	Image       string                     `json:"image"`
	Artifact    *conversations.ArtifactRef `json:"gradcam_image,omitempty"`
}

// Handler exposes one prediction endpoint per registered diagnostic model.
type Handler struct {
	sys           System
	registry      *Registry
	resolver      *identity.Resolver
	maxUploadSize int64
	logger        *slog.Logger
}

// NewHandler creates the diagnostics HTTP handler.
func NewHandler(
	sys System,
	registry *Registry,
	resolver *identity.Resolver,
	maxUploadSize int64,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		sys:           sys,
		registry:      registry,
		resolver:      resolver,
		maxUploadSize: maxUploadSize,
		logger:        logger.With("handler", "diagnostics"),
	}
}

// Routes returns one POST route per model under the /predict prefix.
func (h *Handler) Routes() routes.Group {
	group := routes.Group{Prefix: "/predict"}
	for _, model := range h.registry.Models() {
		group.Routes = append(group.Routes, routes.Route{
			Method:  "POST",
			Pattern: "/" + model.Slug,
			Handler: h.predict(model),
		})
	}
	return group
}

// predict builds the handler for one model. Validation happens before any
// store mutation; downstream failures map to the model's generic message.
func (h *Handler) predict(model *Model) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		image, filename, contentType, ok := h.readImage(w, r)
		if !ok {
			return
		}

		resolution := h.resolver.Resolve(r)

		cmd := DiagnoseCommand{
			UserID:      resolution.Subject,
			PartitionID: partitionID(r, model),
			Image:       image,
			Filename:    filename,
			ContentType: contentType,
		}

		analysis, err := h.sys.Diagnose(r.Context(), model, cmd)
		if err != nil {
			h.logger.Error("diagnosis failed",
				"model", model.ID,
				"user", resolution.Subject,
				"error", err,
			)
			handlers.RespondJSON(w, MapHTTPStatus(err), handlers.ErrorResponse{
				Error: model.FailureMessage,
			})
			return
		}

		handlers.RespondJSON(w, http.StatusOK, PredictResponse{
			Report:      analysis.Report,
			Label:       analysis.Result.Label,
			Confidence:  analysis.Result.Confidence,
			Explanation: analysis.Result.Explanation,
			Image:       analysis.Upload,
			Artifact:    analysis.Artifact,
		})
	}
}

// readImage extracts the uploaded image part. A missing or unreadable part is
// rejected with 400 before any side effect.
func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, string, bool) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNoImage)
		return nil, "", "", false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNoImage)
		return nil, "", "", false
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil || len(image) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNoImage)
		return nil, "", "", false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	filename := header.Filename
	if filename == "" {
		filename = "upload.png"
	}

	return image, filename, contentType, true
}

// partitionID returns the conversation thread key: an explicit model_id form
// field or model query parameter wins over the endpoint's fixed model.
func partitionID(r *http.Request, model *Model) string {
	if v := r.FormValue("model_id"); v != "" {
		return v
	}
	if v := r.URL.Query().Get("model"); v != "" {
		return v
	}
	return model.ID
}

package diagnostics

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/vitalscan/vitalscan/internal/conversations"
	"github.com/vitalscan/vitalscan/internal/identity"
	"github.com/vitalscan/vitalscan/pkg/storage"
)

// System defines the public contract for the diagnostic pipeline.
type System interface {
	Handler() *Handler

	// Diagnose runs the full pipeline for one uploaded image: stage the upload,
	// append the inbound turn, invoke inference, normalize, materialize the
	// explanation overlay, render the report, and append the outbound turn.
	Diagnose(ctx context.Context, model *Model, cmd DiagnoseCommand) (*Analysis, error)
}

// DiagnoseCommand carries one diagnostic request through the pipeline.
// PartitionID selects the conversation thread and usually matches the model ID;
// callers may override it to fork threads under the same model.
type DiagnoseCommand struct {
	UserID      string
	PartitionID string
	Image       []byte
	Filename    string
	ContentType string
}

// Analysis is the outcome of a completed pipeline run.
type Analysis struct {
	Report   string
	Result   Result
	Upload   string
	Artifact *conversations.ArtifactRef
}

type service struct {
	logger   *slog.Logger
	registry *Registry
	client   *Client
	store    storage.System
	convos   conversations.System
	resolver *identity.Resolver
	handler  *Handler
}

// New creates the diagnostics system.
func New(
	logger *slog.Logger,
	registry *Registry,
	client *Client,
	store storage.System,
	convos conversations.System,
	resolver *identity.Resolver,
	maxUploadSize int64,
) System {
	s := &service{
		logger:   logger.With("system", "diagnostics"),
		registry: registry,
		client:   client,
		store:    store,
		convos:   convos,
		resolver: resolver,
	}
	s.handler = NewHandler(s, registry, resolver, maxUploadSize, logger)
	return s
}

func (s *service) Handler() *Handler {
	return s.handler
}

func (s *service) Diagnose(ctx context.Context, model *Model, cmd DiagnoseCommand) (*Analysis, error) {
	upload, err := s.stageUpload(ctx, model, cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: stage upload: %v", ErrStore, err)
	}

	userMsg := conversations.NewUserMessage(model.UploadContent, upload)
	if _, err := s.convos.Append(ctx, cmd.UserID, cmd.PartitionID, userMsg); err != nil {
		return nil, fmt.Errorf("%w: append user message: %v", ErrStore, err)
	}

	raw, err := s.client.Invoke(ctx, model.Endpoint, cmd.Image, cmd.Filename, cmd.ContentType)
	if err != nil {
		return nil, err
	}

	result := model.Normalize(raw)
	artifact := s.materialize(ctx, model, result)
	report := model.Render(result)

	analysisMsg := conversations.NewAnalysisMessage(
		report,
		[]string{result.Label},
		result.Confidence,
		artifactRefs(artifact),
	)
	if _, err := s.convos.Append(ctx, cmd.UserID, cmd.PartitionID, analysisMsg); err != nil {
		return nil, fmt.Errorf("%w: append analysis message: %v", ErrStore, err)
	}

	s.logger.Info("diagnosis complete",
		"model", model.ID,
		"user", cmd.UserID,
		"label", result.Label,
	)

	return &Analysis{
		Report:   report,
		Result:   result,
		Upload:   upload,
		Artifact: artifact,
	}, nil
}

// stageUpload makes the inbound image referenceable from the conversation,
// either as a stored blob URI or an inline data URI per model policy.
func (s *service) stageUpload(ctx context.Context, model *Model, cmd DiagnoseCommand) (string, error) {
	if model.InlineUpload {
		return dataURI(cmd.ContentType, cmd.Image), nil
	}

	key := fmt.Sprintf("%d-%s", time.Now().UnixNano(), sanitizeFilename(cmd.Filename))
	if err := s.store.Upload(ctx, key, bytes.NewReader(cmd.Image), cmd.ContentType); err != nil {
		return "", err
	}

	return "/uploads/" + key, nil
}

// materialize turns the explanation overlay into a referenceable artifact.
// A failed overlay write degrades the report rather than failing the request.
func (s *service) materialize(ctx context.Context, model *Model, res Result) *conversations.ArtifactRef {
	if !res.HasArtifact() {
		return nil
	}

	if model.InlineArtifact {
		return &conversations.ArtifactRef{
			Label: res.Label,
			Src:   "data:image/png;base64," + res.ArtifactB64,
		}
	}

	key := fmt.Sprintf("%d-gradcam.png", time.Now().UnixNano())
	if err := s.store.Upload(ctx, key, bytes.NewReader(res.Artifact), "image/png"); err != nil {
		s.logger.Warn("overlay write failed, continuing without artifact",
			"model", model.ID,
			"error", err,
		)
		return nil
	}

	return &conversations.ArtifactRef{
		Label: res.Label,
		Src:   "/uploads/" + key,
	}
}

func artifactRefs(ref *conversations.ArtifactRef) []conversations.ArtifactRef {
	if ref == nil {
		return nil
	}
	return []conversations.ArtifactRef{*ref}
}

func dataURI(contentType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "upload"
	}
	return name
}

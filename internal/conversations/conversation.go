// Package conversations implements the threaded diagnostic exchange between one
// caller identity and one diagnostic model. Conversations are append-only message
// logs persisted as whole documents; the newest conversation per (user, model)
// pair is the active one.
package conversations

import (
	"time"

	"github.com/google/uuid"
)

// Message variant tags.
const (
	MessageUser     = "user"
	MessageAnalysis = "analysis"
)

// ArtifactRef points at a visual explanation overlay, either a retrievable
// storage URI or an inline data URI.
type ArtifactRef struct {
	Label string `json:"label"`
	Src   string `json:"src"`
}

// Message is one turn in a conversation. The variant tag is fixed at creation:
// user turns carry the uploaded image reference, analysis turns carry the
// rendered report with labels, optional confidence, and any overlays.
type Message struct {
	Type       string        `json:"type"`
	Content    string        `json:"content"`
	Image      string        `json:"image,omitempty"`
	Labels     []string      `json:"labels,omitempty"`
	Confidence *float64      `json:"confidence,omitempty"`
	Images     []ArtifactRef `json:"images,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// NewUserMessage creates an inbound turn for an uploaded image.
func NewUserMessage(content, image string) Message {
	return Message{
		Type:      MessageUser,
		Content:   content,
		Image:     image,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisMessage creates an outbound turn carrying a rendered report.
func NewAnalysisMessage(content string, labels []string, confidence *float64, images []ArtifactRef) Message {
	if images == nil {
		images = []ArtifactRef{}
	}
	return Message{
		Type:       MessageAnalysis,
		Content:    content,
		Labels:     labels,
		Confidence: confidence,
		Images:     images,
		Timestamp:  time.Now().UTC(),
	}
}

// Conversation is the full exchange between one identity and one diagnostic model.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	ModelID   string    `json:"model_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

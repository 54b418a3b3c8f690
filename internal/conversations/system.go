package conversations

import (
	"context"

	"github.com/google/uuid"

	"github.com/vitalscan/vitalscan/pkg/pagination"
)

// System defines the public contract for conversation domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Conversation], error)

	Find(ctx context.Context, id uuid.UUID) (*Conversation, error)

	// Append adds a message to the active conversation for (userID, modelID),
	// creating the conversation on first use, and durably saves the whole
	// conversation before returning. Appends for the same key are serialized.
	Append(ctx context.Context, userID, modelID string, msg Message) (*Conversation, error)
}

package conversations

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/vitalscan/vitalscan/pkg/query"
	"github.com/vitalscan/vitalscan/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "conversations", "c").
	Project("id", "ID").
	Project("user_id", "UserID").
	Project("model_id", "ModelID").
	Project("messages", "Messages").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for conversation queries.
// Nil fields are ignored; both use exact matching.
type Filters struct {
	UserID  *string `json:"user_id,omitempty"`
	ModelID *string `json:"model_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("UserID", f.UserID).
		WhereEquals("ModelID", f.ModelID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if u := values.Get("user_id"); u != "" {
		f.UserID = &u
	}

	if m := values.Get("model_id"); m != "" {
		f.ModelID = &m
	}

	return f
}

func scanConversation(s repository.Scanner) (Conversation, error) {
	var (
		c   Conversation
		raw []byte
	)

	if err := s.Scan(
		&c.ID,
		&c.UserID,
		&c.ModelID,
		&raw,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return c, err
	}

	if err := json.Unmarshal(raw, &c.Messages); err != nil {
		return c, fmt.Errorf("unmarshal messages: %w", err)
	}

	return c, nil
}

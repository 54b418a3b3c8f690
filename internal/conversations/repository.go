package conversations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vitalscan/vitalscan/pkg/pagination"
	"github.com/vitalscan/vitalscan/pkg/query"
	"github.com/vitalscan/vitalscan/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
	locks      keyedLocks
}

// New creates a conversation repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "conversations"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Conversation], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "UserID", "ModelID")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count conversations: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	convs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanConversation)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}

	result := pagination.NewPageResult(convs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanConversation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) Append(ctx context.Context, userID, modelID string, msg Message) (*Conversation, error) {
	// Serialize read-modify-write per (user, model) so two concurrent flows
	// cannot both load the same active conversation and drop each other's turn.
	unlock := r.locks.lock(userID + "\x00" + modelID)
	defer unlock()

	conv, err := r.active(ctx, userID, modelID)
	if err != nil {
		return nil, err
	}

	conv.Messages = append(conv.Messages, msg)

	if err := r.save(ctx, conv); err != nil {
		return nil, err
	}

	r.logger.Info(
		"message appended",
		"conversation", conv.ID,
		"user", userID,
		"model", modelID,
		"type", msg.Type,
	)
	return conv, nil
}

// active returns the most recently created conversation for the pair, or a new
// unsaved conversation if none exists. Load alone never persists.
func (r *repo) active(ctx context.Context, userID, modelID string) (*Conversation, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("UserID", userID).
		WhereEquals("ModelID", modelID).
		BuildSingleOrNull()

	c, err := repository.QueryOne(ctx, r.db, q, args, scanConversation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			now := time.Now().UTC()
			return &Conversation{
				ID:        uuid.New(),
				UserID:    userID,
				ModelID:   modelID,
				Messages:  []Message{},
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		}
		return nil, fmt.Errorf("load active conversation: %w", err)
	}

	return &c, nil
}

// save upserts the whole conversation document.
func (r *repo) save(ctx context.Context, conv *Conversation) error {
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	conv.UpdatedAt = time.Now().UTC()

	q := `
		INSERT INTO conversations(id, user_id, model_id, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET messages = EXCLUDED.messages, updated_at = EXCLUDED.updated_at`

	if err := repository.ExecExpectOne(
		ctx, r.db, q,
		conv.ID,
		conv.UserID,
		conv.ModelID,
		messages,
		conv.CreatedAt,
		conv.UpdatedAt,
	); err != nil {
		return fmt.Errorf("save conversation %s: %w", conv.ID, err)
	}

	return nil
}

package conversations_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vitalscan/vitalscan/internal/conversations"
	"github.com/vitalscan/vitalscan/pkg/pagination"
)

type mockSystem struct {
	listFn   func(ctx context.Context, page pagination.PageRequest, filters conversations.Filters) (*pagination.PageResult[conversations.Conversation], error)
	findFn   func(ctx context.Context, id uuid.UUID) (*conversations.Conversation, error)
	appendFn func(ctx context.Context, userID, modelID string, msg conversations.Message) (*conversations.Conversation, error)
}

func (m *mockSystem) Handler() *conversations.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters conversations.Filters) (*pagination.PageResult[conversations.Conversation], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*conversations.Conversation, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Append(ctx context.Context, userID, modelID string, msg conversations.Message) (*conversations.Conversation, error) {
	return m.appendFn(ctx, userID, modelID, msg)
}

func newTestHandler(sys *mockSystem) *conversations.Handler {
	return conversations.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *conversations.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func sampleConversation() conversations.Conversation {
	confidence := 0.87
	return conversations.Conversation{
		ID:      uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		UserID:  "user-42",
		ModelID: "bone_fracture",
		Messages: []conversations.Message{
			{
				Type:      conversations.MessageUser,
				Content:   "Uploaded Bone Fracture X-ray",
				Image:     "/uploads/1-scan.png",
				Timestamp: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
			},
			{
				Type:       conversations.MessageAnalysis,
				Content:    "# report",
				Labels:     []string{"Fracture"},
				Confidence: &confidence,
				Images:     []conversations.ArtifactRef{{Label: "Fracture", Src: "/uploads/2-gradcam.png"}},
				Timestamp:  time.Date(2026, 8, 1, 10, 0, 5, 0, time.UTC),
			},
		},
		CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 8, 1, 10, 0, 5, 0, time.UTC),
	}
}

func TestList(t *testing.T) {
	t.Run("returns page with filters applied", func(t *testing.T) {
		var gotFilters conversations.Filters
		sys := &mockSystem{
			listFn: func(_ context.Context, page pagination.PageRequest, filters conversations.Filters) (*pagination.PageResult[conversations.Conversation], error) {
				gotFilters = filters
				result := pagination.NewPageResult([]conversations.Conversation{sampleConversation()}, 1, page.Page, page.PageSize)
				return &result, nil
			},
		}

		mux := setupMux(newTestHandler(sys))
		req := httptest.NewRequest(http.MethodGet, "/conversations?user_id=user-42&model_id=bone_fracture", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		if gotFilters.UserID == nil || *gotFilters.UserID != "user-42" {
			t.Errorf("user filter = %v", gotFilters.UserID)
		}
		if gotFilters.ModelID == nil || *gotFilters.ModelID != "bone_fracture" {
			t.Errorf("model filter = %v", gotFilters.ModelID)
		}

		var result pagination.PageResult[conversations.Conversation]
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(result.Data) != 1 {
			t.Fatalf("data length = %d, want 1", len(result.Data))
		}
		if len(result.Data[0].Messages) != 2 {
			t.Errorf("messages = %d, want 2", len(result.Data[0].Messages))
		}
	})

	t.Run("store failure returns 500", func(t *testing.T) {
		sys := &mockSystem{
			listFn: func(context.Context, pagination.PageRequest, conversations.Filters) (*pagination.PageResult[conversations.Conversation], error) {
				return nil, context.DeadlineExceeded
			},
		}

		mux := setupMux(newTestHandler(sys))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}

func TestFind(t *testing.T) {
	t.Run("returns conversation", func(t *testing.T) {
		conv := sampleConversation()
		sys := &mockSystem{
			findFn: func(_ context.Context, id uuid.UUID) (*conversations.Conversation, error) {
				if id != conv.ID {
					t.Errorf("id = %s", id)
				}
				return &conv, nil
			},
		}

		mux := setupMux(newTestHandler(sys))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/"+conv.ID.String(), nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		var got conversations.Conversation
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if got.UserID != "user-42" || got.ModelID != "bone_fracture" {
			t.Errorf("got %s/%s", got.UserID, got.ModelID)
		}
	})

	t.Run("invalid id returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/not-a-uuid", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(context.Context, uuid.UUID) (*conversations.Conversation, error) {
				return nil, conversations.ErrNotFound
			},
		}

		mux := setupMux(newTestHandler(sys))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/"+uuid.NewString(), nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

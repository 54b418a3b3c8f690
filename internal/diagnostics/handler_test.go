package diagnostics_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/vitalscan/vitalscan/internal/conversations"
	"github.com/vitalscan/vitalscan/internal/diagnostics"
	"github.com/vitalscan/vitalscan/internal/identity"
	"github.com/vitalscan/vitalscan/pkg/lifecycle"
	"github.com/vitalscan/vitalscan/pkg/pagination"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

type mockStore struct {
	mu      sync.Mutex
	uploads map[string][]byte
}

func newMockStore() *mockStore {
	return &mockStore{uploads: map[string][]byte{}}
}

func (m *mockStore) Start(*lifecycle.Coordinator) error { return nil }

func (m *mockStore) Upload(_ context.Context, key string, reader io.Reader, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.uploads[key] = data
	m.mu.Unlock()
	return nil
}

func (m *mockStore) Download(context.Context, string) (io.ReadCloser, error) {
	return nil, nil
}

func (m *mockStore) Delete(context.Context, string) error { return nil }

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.uploads[key]
	return ok, nil
}

func (m *mockStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

type appendCall struct {
	userID  string
	modelID string
	msg     conversations.Message
}

type mockConversations struct {
	mu      sync.Mutex
	appends []appendCall
}

func (m *mockConversations) Handler() *conversations.Handler { return nil }

func (m *mockConversations) List(context.Context, pagination.PageRequest, conversations.Filters) (*pagination.PageResult[conversations.Conversation], error) {
	return nil, nil
}

func (m *mockConversations) Find(context.Context, uuid.UUID) (*conversations.Conversation, error) {
	return nil, nil
}

func (m *mockConversations) Append(_ context.Context, userID, modelID string, msg conversations.Message) (*conversations.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends = append(m.appends, appendCall{userID: userID, modelID: modelID, msg: msg})
	return &conversations.Conversation{UserID: userID, ModelID: modelID}, nil
}

func (m *mockConversations) calls() []appendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]appendCall(nil), m.appends...)
}

type harness struct {
	mux    *http.ServeMux
	store  *mockStore
	convos *mockConversations
}

func newHarness(t *testing.T, inferenceURL string) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &diagnostics.Config{
		BoneFracture: inferenceURL,
		ECG:          inferenceURL,
		BrainMRI:     inferenceURL,
		ChestXray:    inferenceURL,
	}
	registry := diagnostics.NewRegistry(cfg)

	resolver, err := identity.New(&identity.Config{
		Mode:         identity.ModeHMAC,
		Cookie:       "token",
		Secret:       testSecret,
		SubjectClaim: "userId",
		Anonymous:    "guest_user",
	}, logger)
	if err != nil {
		t.Fatalf("create resolver: %v", err)
	}

	store := newMockStore()
	convos := &mockConversations{}

	sys := diagnostics.New(
		logger,
		registry,
		diagnostics.NewClient(logger),
		store,
		convos,
		resolver,
		50*1024*1024,
	)

	mux := http.NewServeMux()
	group := sys.Handler().Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}

	return &harness{mux: mux, store: store, convos: convos}
}

func inferenceServer(t *testing.T, body map[string]any) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("inference request not multipart: %v", err)
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("inference request missing image part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func predictRequest(t *testing.T, path string, image []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("image", "scan.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(image); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	form.Close()

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	return req
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestPredictBoneFracture(t *testing.T) {
	overlay := base64.StdEncoding.EncodeToString([]byte("overlay-bytes"))
	srv := inferenceServer(t, map[string]any{
		"label":         "Fracture",
		"probability":   0.87,
		"gradcam_image": overlay,
	})
	h := newHarness(t, srv.URL)

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, predictRequest(t, "/predict/bone", []byte("xray")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp diagnostics.PredictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if !strings.Contains(resp.Report, "Fracture Detected") || !strings.Contains(resp.Report, "87.00%") {
		t.Errorf("unexpected report: %q", resp.Report)
	}
	if resp.Label != "Fracture" {
		t.Errorf("label = %q", resp.Label)
	}
	if !strings.HasPrefix(resp.Image, "/uploads/") {
		t.Errorf("upload reference = %q, want stored path", resp.Image)
	}
	if resp.Artifact == nil || !strings.HasPrefix(resp.Artifact.Src, "/uploads/") {
		t.Errorf("artifact = %+v, want stored path", resp.Artifact)
	}
	if resp.Artifact != nil && resp.Artifact.Label != "Fracture" {
		t.Errorf("artifact label = %q", resp.Artifact.Label)
	}

	calls := h.convos.calls()
	if len(calls) != 2 {
		t.Fatalf("append calls = %d, want 2", len(calls))
	}
	if calls[0].msg.Type != conversations.MessageUser || calls[1].msg.Type != conversations.MessageAnalysis {
		t.Errorf("unexpected message order: %s, %s", calls[0].msg.Type, calls[1].msg.Type)
	}
	if calls[0].userID != "guest_user" {
		t.Errorf("userID = %q, want guest_user", calls[0].userID)
	}
	if calls[0].modelID != diagnostics.ModelBoneFracture {
		t.Errorf("modelID = %q", calls[0].modelID)
	}

	// upload plus overlay
	if h.store.count() != 2 {
		t.Errorf("stored blobs = %d, want 2", h.store.count())
	}
}

func TestPredictArtifactKeysDistinct(t *testing.T) {
	overlay := base64.StdEncoding.EncodeToString([]byte("overlay-bytes"))
	srv := inferenceServer(t, map[string]any{
		"label":         "Fracture",
		"probability":   0.5,
		"gradcam_image": overlay,
	})
	h := newHarness(t, srv.URL)

	srcs := map[string]bool{}
	for range 2 {
		rec := httptest.NewRecorder()
		h.mux.ServeHTTP(rec, predictRequest(t, "/predict/bone", []byte("xray")))

		var resp diagnostics.PredictResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Artifact == nil {
			t.Fatal("expected artifact")
		}
		srcs[resp.Artifact.Src] = true
	}

	if len(srcs) != 2 {
		t.Errorf("artifact references collide: %v", srcs)
	}
}

func TestPredictECGInlineArtifacts(t *testing.T) {
	overlay := base64.StdEncoding.EncodeToString([]byte("overlay-bytes"))
	srv := inferenceServer(t, map[string]any{
		"predicted_class": "Normal",
		"explanation":     "Sinus rhythm.",
		"gradcam_image":   overlay,
	})
	h := newHarness(t, srv.URL)

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, predictRequest(t, "/predict/ecg", []byte("trace")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp diagnostics.PredictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if !strings.HasPrefix(resp.Image, "data:") {
		t.Errorf("upload reference = %q, want data URI", resp.Image)
	}
	if resp.Artifact == nil || !strings.HasPrefix(resp.Artifact.Src, "data:image/png;base64,") {
		t.Errorf("artifact = %+v, want inline data URI", resp.Artifact)
	}
	if resp.Explanation != "Sinus rhythm." {
		t.Errorf("explanation = %q", resp.Explanation)
	}

	if h.store.count() != 0 {
		t.Errorf("stored blobs = %d, want 0 for inline model", h.store.count())
	}
}

func TestPredictNoImage(t *testing.T) {
	srv := inferenceServer(t, map[string]any{})
	h := newHarness(t, srv.URL)

	req := httptest.NewRequest(http.MethodPost, "/predict/bone", strings.NewReader(""))
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "No image uploaded" {
		t.Errorf("error = %q, want No image uploaded", body["error"])
	}

	if len(h.convos.calls()) != 0 {
		t.Error("conversation mutated on rejected request")
	}
	if h.store.count() != 0 {
		t.Error("storage mutated on rejected request")
	}
}

func TestPredictInferenceUnavailable(t *testing.T) {
	srv := inferenceServer(t, map[string]any{})
	url := srv.URL
	srv.Close()

	h := newHarness(t, url)

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, predictRequest(t, "/predict/bone", []byte("xray")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Error processing bone fracture X-ray" {
		t.Errorf("error = %q, want generic failure message", body["error"])
	}

	calls := h.convos.calls()
	if len(calls) != 1 || calls[0].msg.Type != conversations.MessageUser {
		t.Errorf("append calls = %+v, want inbound turn only", calls)
	}
}

func TestPredictIdentity(t *testing.T) {
	srv := inferenceServer(t, map[string]any{
		"label":       "Normal",
		"probability": 0.1,
	})

	t.Run("valid token", func(t *testing.T) {
		h := newHarness(t, srv.URL)

		req := predictRequest(t, "/predict/bone", []byte("xray"))
		req.AddCookie(&http.Cookie{
			Name:  "token",
			Value: signToken(t, testSecret, jwt.MapClaims{"userId": "user-42"}),
		})

		rec := httptest.NewRecorder()
		h.mux.ServeHTTP(rec, req)

		calls := h.convos.calls()
		if len(calls) == 0 || calls[0].userID != "user-42" {
			t.Errorf("append calls = %+v, want user-42", calls)
		}
	})

	t.Run("invalid token falls back to guest", func(t *testing.T) {
		h := newHarness(t, srv.URL)

		req := predictRequest(t, "/predict/bone", []byte("xray"))
		req.AddCookie(&http.Cookie{Name: "token", Value: "not-a-jwt"})

		rec := httptest.NewRecorder()
		h.mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 despite bad credential", rec.Code)
		}

		calls := h.convos.calls()
		if len(calls) == 0 || calls[0].userID != "guest_user" {
			t.Errorf("append calls = %+v, want guest_user", calls)
		}
	})

	t.Run("model query override partitions thread", func(t *testing.T) {
		h := newHarness(t, srv.URL)

		req := predictRequest(t, "/predict/bone?model=bone_followup", []byte("xray"))

		rec := httptest.NewRecorder()
		h.mux.ServeHTTP(rec, req)

		calls := h.convos.calls()
		if len(calls) == 0 || calls[0].modelID != "bone_followup" {
			t.Errorf("append calls = %+v, want bone_followup partition", calls)
		}
	})
}

package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/vitalscan/vitalscan/pkg/lifecycle"
	"github.com/vitalscan/vitalscan/pkg/storage"
)

func newLocalStore(t *testing.T) storage.System {
	t.Helper()

	cfg := &storage.Config{
		Provider: storage.ProviderLocal,
		Path:     filepath.Join(t.TempDir(), "uploads"),
	}

	store, err := storage.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}

	lc := lifecycle.New()
	if err := store.Start(lc); err != nil {
		t.Fatalf("start storage: %v", err)
	}
	lc.WaitForStartup()

	return store
}

func TestLocalStorage(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	t.Run("upload and download round trip", func(t *testing.T) {
		content := []byte("overlay bytes")
		if err := store.Upload(ctx, "123-gradcam.png", bytes.NewReader(content), "image/png"); err != nil {
			t.Fatalf("upload: %v", err)
		}

		body, err := store.Download(ctx, "123-gradcam.png")
		if err != nil {
			t.Fatalf("download: %v", err)
		}
		defer body.Close()

		got, err := io.ReadAll(body)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("downloaded %q, want %q", got, content)
		}
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := store.Exists(ctx, "123-gradcam.png")
		if err != nil {
			t.Fatalf("exists: %v", err)
		}
		if !ok {
			t.Error("expected blob to exist")
		}

		ok, err = store.Exists(ctx, "missing.png")
		if err != nil {
			t.Fatalf("exists: %v", err)
		}
		if ok {
			t.Error("expected blob to be absent")
		}
	})

	t.Run("missing blob maps to not found", func(t *testing.T) {
		if _, err := store.Download(ctx, "missing.png"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("download error = %v, want ErrNotFound", err)
		}
		if err := store.Delete(ctx, "missing.png"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.Upload(ctx, "temp.png", bytes.NewReader([]byte("x")), "image/png"); err != nil {
			t.Fatalf("upload: %v", err)
		}
		if err := store.Delete(ctx, "temp.png"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		ok, _ := store.Exists(ctx, "temp.png")
		if ok {
			t.Error("blob still exists after delete")
		}
	})

	t.Run("traversal keys rejected", func(t *testing.T) {
		if err := store.Upload(ctx, "../escape.png", bytes.NewReader([]byte("x")), "image/png"); !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("upload error = %v, want ErrInvalidKey", err)
		}
		if _, err := store.Download(ctx, "../escape.png"); !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("download error = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		if err := store.Upload(ctx, "", bytes.NewReader([]byte("x")), "image/png"); !errors.Is(err, storage.ErrEmptyKey) {
			t.Errorf("upload error = %v, want ErrEmptyKey", err)
		}
	})
}

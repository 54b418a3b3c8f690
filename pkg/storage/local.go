package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vitalscan/vitalscan/pkg/lifecycle"
)

type local struct {
	root   string
	logger *slog.Logger
}

func newLocal(cfg *Config, logger *slog.Logger) (System, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("local storage path required")
	}

	return &local{
		root:   cfg.Path,
		logger: logger.With("system", "storage", "provider", "local"),
	}, nil
}

func (l *local) Start(lc *lifecycle.Coordinator) error {
	l.logger.Info("starting storage system")

	lc.OnStartup(func() {
		if err := os.MkdirAll(l.root, 0o755); err != nil {
			l.logger.Error("storage directory initialization failed", "error", err)
			return
		}
		l.logger.Info("storage directory ready", "path", l.root)
	})

	return nil
}

func (l *local) Upload(_ context.Context, key string, reader io.Reader, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	target := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create blob directory %s: %w", key, err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create blob %s: %w", key, err)
	}

	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		os.Remove(target)
		return fmt.Errorf("write blob %s: %w", key, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close blob %s: %w", key, err)
	}

	return nil
}

func (l *local) Download(_ context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download blob %s: %w", key, err)
	}

	return f, nil
}

func (l *local) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(l.root, filepath.FromSlash(key))); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete blob %s: %w", key, err)
	}

	return nil
}

func (l *local) Exists(_ context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	_, err := os.Stat(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("check blob existence %s: %w", key, err)
	}

	return true, nil
}

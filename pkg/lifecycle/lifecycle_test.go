package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/vitalscan/vitalscan/pkg/lifecycle"
)

func TestStartup(t *testing.T) {
	lc := lifecycle.New()

	var ran atomic.Bool
	lc.OnStartup(func() {
		ran.Store(true)
	})

	lc.WaitForStartup()

	if !ran.Load() {
		t.Error("startup hook did not run")
	}
	if !lc.Ready() {
		t.Error("coordinator not ready after startup")
	}
}

func TestShutdown(t *testing.T) {
	t.Run("hooks complete before return", func(t *testing.T) {
		lc := lifecycle.New()

		var cleaned atomic.Bool
		lc.OnShutdown(func() {
			<-lc.Context().Done()
			cleaned.Store(true)
		})

		if err := lc.Shutdown(time.Second); err != nil {
			t.Fatalf("shutdown: %v", err)
		}
		if !cleaned.Load() {
			t.Error("shutdown hook did not complete")
		}
	})

	t.Run("blocked hook times out", func(t *testing.T) {
		lc := lifecycle.New()

		release := make(chan struct{})
		lc.OnShutdown(func() {
			<-release
		})

		if err := lc.Shutdown(10 * time.Millisecond); err == nil {
			t.Error("expected timeout error")
		}
		close(release)
	})

	t.Run("context cancelled on shutdown", func(t *testing.T) {
		lc := lifecycle.New()
		lc.Shutdown(time.Second)

		select {
		case <-lc.Context().Done():
		default:
			t.Error("context not cancelled after shutdown")
		}
	})
}

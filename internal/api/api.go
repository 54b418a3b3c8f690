// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/vitalscan/vitalscan/internal/config"
	"github.com/vitalscan/vitalscan/internal/infrastructure"
	"github.com/vitalscan/vitalscan/pkg/middleware"
	"github.com/vitalscan/vitalscan/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, err
	}
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	return m, nil
}

// NewUploadsModule creates the module serving stored uploads and explanation
// overlays at the path their conversation references point to.
func NewUploadsModule(infra *infrastructure.Infrastructure) *module.Module {
	mux := http.NewServeMux()
	handler := newUploadsHandler(infra.Storage, infra.Logger)
	mux.HandleFunc("GET /{key...}", handler.serve)

	m := module.New("/uploads", mux)
	m.Use(middleware.Logger(infra.Logger))

	return m
}

package api

import (
	"fmt"

	"github.com/vitalscan/vitalscan/internal/config"
	"github.com/vitalscan/vitalscan/internal/diagnostics"
	"github.com/vitalscan/vitalscan/internal/identity"
	"github.com/vitalscan/vitalscan/internal/infrastructure"
	"github.com/vitalscan/vitalscan/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration and the
// request identity resolver.
type Runtime struct {
	*infrastructure.Infrastructure
	Resolver      *identity.Resolver
	Pagination    pagination.Config
	Inference     diagnostics.Config
	MaxUploadSize int64
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	logger := infra.Logger.With("module", "api")

	resolver, err := identity.New(&cfg.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("identity resolver init failed: %w", err)
	}

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
		},
		Resolver:      resolver,
		Pagination:    cfg.API.Pagination,
		Inference:     cfg.Inference,
		MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
	}, nil
}

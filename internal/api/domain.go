package api

import (
	"github.com/vitalscan/vitalscan/internal/conversations"
	"github.com/vitalscan/vitalscan/internal/diagnostics"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Conversations conversations.System
	Diagnostics   diagnostics.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	conversationsSystem := conversations.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	registry := diagnostics.NewRegistry(&runtime.Inference)
	client := diagnostics.NewClient(runtime.Logger)

	diagnosticsSystem := diagnostics.New(
		runtime.Logger,
		registry,
		client,
		runtime.Storage,
		conversationsSystem,
		runtime.Resolver,
		runtime.MaxUploadSize,
	)

	return &Domain{
		Conversations: conversationsSystem,
		Diagnostics:   diagnosticsSystem,
	}
}

package api

import (
	"net/http"

	"github.com/vitalscan/vitalscan/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(
		mux,
		domain.Diagnostics.Handler().Routes(),
		domain.Conversations.Handler().Routes(),
	)
}

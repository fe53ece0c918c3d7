package api

import (
	"net/http"

	"github.com/JaimeStill/medsign/internal/config"
	"github.com/JaimeStill/medsign/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	routes.Register(
		mux,
		domain.Documents.Handler(cfg.API.MaxBodySizeBytes()).Routes(),
	)
}

package api

import (
	"github.com/JaimeStill/medsign/internal/config"
	"github.com/JaimeStill/medsign/internal/infrastructure"
	"github.com/JaimeStill/medsign/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Documents  *config.DocumentsConfig
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle:  infra.Lifecycle,
			Logger:     infra.Logger.With("module", "api"),
			Database:   infra.Database,
			Storage:    infra.Storage,
			Compositor: infra.Compositor,
			Signer:     infra.Signer,
			Overlay:    infra.Overlay,
		},
		Pagination: cfg.API.Pagination,
		Documents:  &cfg.Documents,
	}
}

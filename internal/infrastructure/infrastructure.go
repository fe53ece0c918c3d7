// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, database, storage, and the
// document composition stack) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/medsign/internal/config"
	"github.com/JaimeStill/medsign/pkg/compositor"
	"github.com/JaimeStill/medsign/pkg/database"
	"github.com/JaimeStill/medsign/pkg/lifecycle"
	"github.com/JaimeStill/medsign/pkg/overlay"
	"github.com/JaimeStill/medsign/pkg/signing"
	"github.com/JaimeStill/medsign/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle  *lifecycle.Coordinator
	Logger     *slog.Logger
	Database   database.System
	Storage    storage.System
	Compositor *compositor.Compositor
	Signer     signing.Signer
	Overlay    *overlay.Composer
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	// pdfcpu configurations are built from its compiled defaults rather
	// than a config.yml in the user's config directory.
	api.DisableConfigDir()

	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle:  lc,
		Logger:     logger,
		Database:   db,
		Storage:    store,
		Compositor: compositor.New(&cfg.Letterhead, logger),
		Signer:     signing.New(&cfg.Signing, logger),
		Overlay:    overlay.New(logger),
	}, nil
}

// Start registers database and storage with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}

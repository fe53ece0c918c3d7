// Package config loads the service configuration from a base TOML file, an
// optional environment overlay, and MEDSIGN_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/medsign/pkg/compositor"
	"github.com/JaimeStill/medsign/pkg/database"
	"github.com/JaimeStill/medsign/pkg/signing"
	"github.com/JaimeStill/medsign/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvMedsignEnv             = "MEDSIGN_ENV"
	EnvMedsignShutdownTimeout = "MEDSIGN_SHUTDOWN_TIMEOUT"
	EnvMedsignVersion         = "MEDSIGN_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "MEDSIGN_DB_HOST",
	Port:            "MEDSIGN_DB_PORT",
	Name:            "MEDSIGN_DB_NAME",
	User:            "MEDSIGN_DB_USER",
	Password:        "MEDSIGN_DB_PASSWORD",
	SSLMode:         "MEDSIGN_DB_SSL_MODE",
	MaxOpenConns:    "MEDSIGN_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "MEDSIGN_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "MEDSIGN_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "MEDSIGN_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "MEDSIGN_STORAGE_PROVIDER",
	Root:             "MEDSIGN_STORAGE_ROOT",
	ContainerName:    "MEDSIGN_STORAGE_CONTAINER_NAME",
	ConnectionString: "MEDSIGN_STORAGE_CONNECTION_STRING",
	ServiceURL:       "MEDSIGN_STORAGE_SERVICE_URL",
}

var letterheadEnv = &compositor.Env{
	PDFMode:     "MEDSIGN_LETTERHEAD_PDF_MODE",
	RasterDPI:   "MEDSIGN_LETTERHEAD_RASTER_DPI",
	JPEGQuality: "MEDSIGN_LETTERHEAD_JPEG_QUALITY",
}

var signingEnv = &signing.Env{
	Mode:     "MEDSIGN_SIGNING_MODE",
	Command:  "MEDSIGN_SIGNING_COMMAND",
	Args:     "MEDSIGN_SIGNING_ARGS",
	Timeout:  "MEDSIGN_SIGNING_TIMEOUT",
	WorkRoot: "MEDSIGN_SIGNING_WORK_ROOT",
	Location: "MEDSIGN_SIGNING_LOCATION",
	Reason:   "MEDSIGN_SIGNING_REASON",
}

// Config is the root configuration for the medsign service.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Database        database.Config   `toml:"database"`
	Storage         storage.Config    `toml:"storage"`
	API             APIConfig         `toml:"api"`
	Documents       DocumentsConfig   `toml:"documents"`
	Letterhead      compositor.Config `toml:"letterhead"`
	Signing         signing.Config    `toml:"signing"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the MEDSIGN_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvMedsignEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Documents.Merge(&overlay.Documents)
	c.Letterhead.Merge(&overlay.Letterhead)
	c.Signing.Merge(&overlay.Signing)
}

// Finalize applies defaults, environment overrides, and validation to every section.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Documents.Finalize(); err != nil {
		return fmt.Errorf("documents: %w", err)
	}
	if err := c.Letterhead.Finalize(letterheadEnv); err != nil {
		return fmt.Errorf("letterhead: %w", err)
	}
	if err := c.Signing.Finalize(signingEnv); err != nil {
		return fmt.Errorf("signing: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvMedsignShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvMedsignVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvMedsignEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

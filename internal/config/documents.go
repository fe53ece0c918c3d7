package config

import (
	"fmt"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JaimeStill/medsign/pkg/layout"
)

const (
	EnvDocumentsPublicBaseURL = "MEDSIGN_DOCUMENTS_PUBLIC_BASE_URL"
	EnvDocumentsTimezone      = "MEDSIGN_DOCUMENTS_TIMEZONE"
	EnvDocumentsWorkspaceRoot = "MEDSIGN_DOCUMENTS_WORKSPACE_ROOT"

	// Paper defaults are read per document tag, e.g. DEFAULT_PAPER_RECEITA=A5.
	// The prefixed form wins when both are set.
	EnvDefaultPaperPrefix        = "DEFAULT_PAPER_"
	EnvMedsignDefaultPaperPrefix = "MEDSIGN_DEFAULT_PAPER_"
)

// DocumentsConfig holds settings for the issuing pipeline.
type DocumentsConfig struct {
	// PublicBaseURL prefixes verification and file links. When empty, links
	// are derived from the incoming request.
	PublicBaseURL string `toml:"public_base_url"`
	Timezone      string `toml:"timezone"`
	// WorkspaceRoot holds the per-request scratch directories.
	WorkspaceRoot string `toml:"workspace_root"`
	// DefaultPaper maps a document tag (ATESTADO, RECEITA, ...) to A4 or A5.
	DefaultPaper map[string]string `toml:"default_paper"`

	location *time.Location
}

// Location returns the parsed Timezone.
func (c *DocumentsConfig) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Paper returns the configured default size for tag, or A4.
func (c *DocumentsConfig) Paper(tag string) layout.Size {
	if size, ok := layout.ParseSize(c.DefaultPaper[strings.ToUpper(tag)]); ok {
		return size
	}
	return layout.A4
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *DocumentsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Paper defaults merge per tag.
func (c *DocumentsConfig) Merge(overlay *DocumentsConfig) {
	if overlay.PublicBaseURL != "" {
		c.PublicBaseURL = overlay.PublicBaseURL
	}
	if overlay.Timezone != "" {
		c.Timezone = overlay.Timezone
	}
	if overlay.WorkspaceRoot != "" {
		c.WorkspaceRoot = overlay.WorkspaceRoot
	}
	if len(overlay.DefaultPaper) > 0 {
		if c.DefaultPaper == nil {
			c.DefaultPaper = make(map[string]string, len(overlay.DefaultPaper))
		}
		maps.Copy(c.DefaultPaper, overlay.DefaultPaper)
	}
}

func (c *DocumentsConfig) loadDefaults() {
	if c.Timezone == "" {
		c.Timezone = "America/Sao_Paulo"
	}
	if c.WorkspaceRoot == "" {
		c.WorkspaceRoot = filepath.Join(os.TempDir(), "medsign")
	}
	if c.DefaultPaper == nil {
		c.DefaultPaper = make(map[string]string)
	}
}

func (c *DocumentsConfig) loadEnv() {
	if v := os.Getenv(EnvDocumentsPublicBaseURL); v != "" {
		c.PublicBaseURL = v
	}
	if v := os.Getenv(EnvDocumentsTimezone); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv(EnvDocumentsWorkspaceRoot); v != "" {
		c.WorkspaceRoot = v
	}

	for _, prefix := range []string{EnvDefaultPaperPrefix, EnvMedsignDefaultPaperPrefix} {
		for _, kv := range os.Environ() {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || !strings.HasPrefix(key, prefix) || value == "" {
				continue
			}
			c.DefaultPaper[strings.TrimPrefix(key, prefix)] = value
		}
	}
}

func (c *DocumentsConfig) validate() error {
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")
	if c.PublicBaseURL != "" {
		u, err := url.Parse(c.PublicBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid public_base_url: %q", c.PublicBaseURL)
		}
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	c.location = loc

	normalized := make(map[string]string, len(c.DefaultPaper))
	for tag, value := range c.DefaultPaper {
		size, ok := layout.ParseSize(value)
		if !ok {
			return fmt.Errorf("invalid default_paper for %s: %q", tag, value)
		}
		normalized[strings.ToUpper(tag)] = string(size)
	}
	c.DefaultPaper = normalized
	return nil
}

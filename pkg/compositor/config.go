package compositor

import (
	"fmt"
	"os"
	"strconv"
)

// Config controls how letterheads are turned into page backgrounds.
type Config struct {
	// PDFMode is "merge" to import PDF letterheads as vector templates or
	// "raster" to render their first page to an image.
	PDFMode     string `toml:"pdf_mode"`
	RasterDPI   int    `toml:"raster_dpi"`
	JPEGQuality int    `toml:"jpeg_quality"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	PDFMode     string
	RasterDPI   string
	JPEGQuality string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.PDFMode != "" {
		c.PDFMode = overlay.PDFMode
	}
	if overlay.RasterDPI != 0 {
		c.RasterDPI = overlay.RasterDPI
	}
	if overlay.JPEGQuality != 0 {
		c.JPEGQuality = overlay.JPEGQuality
	}
}

func (c *Config) loadDefaults() {
	if c.PDFMode == "" {
		c.PDFMode = string(ModeMerge)
	}
	if c.RasterDPI == 0 {
		c.RasterDPI = 150
	}
	if c.JPEGQuality == 0 {
		c.JPEGQuality = 90
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.PDFMode != "" {
		if v := os.Getenv(env.PDFMode); v != "" {
			c.PDFMode = v
		}
	}
	if env.RasterDPI != "" {
		if v := os.Getenv(env.RasterDPI); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.RasterDPI = n
			}
		}
	}
	if env.JPEGQuality != "" {
		if v := os.Getenv(env.JPEGQuality); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.JPEGQuality = n
			}
		}
	}
}

func (c *Config) validate() error {
	switch Mode(c.PDFMode) {
	case ModeMerge, ModeRaster:
	default:
		return fmt.Errorf("invalid pdf_mode: %q", c.PDFMode)
	}
	if c.RasterDPI < 72 || c.RasterDPI > 600 {
		return fmt.Errorf("raster_dpi must be between 72 and 600: %d", c.RasterDPI)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100: %d", c.JPEGQuality)
	}
	return nil
}

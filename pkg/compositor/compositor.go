// Package compositor turns letterhead files into page backgrounds for the
// layout engine. Raster letterheads are resized in memory and drawn full-bleed.
// PDF letterheads are either imported as a vector template scaled to the page
// or rendered to an image first, depending on configuration.
package compositor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/JaimeStill/medsign/pkg/layout"
)

// Mode selects how PDF letterheads are composited.
type Mode string

const (
	ModeMerge  Mode = "merge"
	ModeRaster Mode = "raster"
)

// Compositor resolves letterheads into layout backgrounds.
type Compositor struct {
	mode    Mode
	dpi     int
	quality int
	logger  *slog.Logger
}

// New creates a Compositor from a finalized Config.
func New(cfg *Config, logger *slog.Logger) *Compositor {
	return &Compositor{
		mode:    Mode(cfg.PDFMode),
		dpi:     cfg.RasterDPI,
		quality: cfg.JPEGQuality,
		logger:  logger.With("system", "compositor"),
	}
}

// Background resolves the letterhead at path for pages of spec. Intermediate
// files are written under workdir. An empty path yields a nil Background.
func (c *Compositor) Background(
	ctx context.Context,
	path, workdir string,
	spec layout.PageSpec,
) (layout.Background, error) {
	if path == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLetterheadMissing, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".jpg", ".jpeg":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLetterheadMissing, err)
		}
		return c.raster(data, spec)
	case ".pdf":
		if c.mode == ModeRaster {
			data, err := c.rasterizePDF(path)
			if err != nil {
				return nil, err
			}
			return c.raster(data, spec)
		}
		return c.vector(path, workdir)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

func pdfcpuConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

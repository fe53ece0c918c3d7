package compositor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"

	"github.com/JaimeStill/medsign/pkg/layout"
)

const normalizedLetterhead = "letterhead-normalized.pdf"

// pdfBackground draws the first page of a PDF letterhead as an imported
// template, stretched independently on each axis to cover the page.
type pdfBackground struct {
	path     string
	importer *gofpdi.Importer
	tpl      int
}

// vector validates the letterhead and writes a copy whose first page is upright.
func (c *Compositor) vector(path, workdir string) (layout.Background, error) {
	conf := pdfcpuConfig()

	if err := api.ValidateFile(path, conf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLetterhead, err)
	}

	rotation, err := firstPageRotation(path, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLetterhead, err)
	}

	// The importer reads classic cross-reference tables only, so the first
	// page is always rewritten through pdfcpu before it is imported.
	dst := filepath.Join(workdir, normalizedLetterhead)
	if turn := (360 - rotation) % 360; turn != 0 {
		if err := api.RotateFile(path, dst, turn, []string{"1"}, conf); err != nil {
			return nil, fmt.Errorf("normalize letterhead rotation: %w", err)
		}
		c.logger.Debug("letterhead rotation normalized", "rotation", rotation)
	} else if err := api.OptimizeFile(path, dst, conf); err != nil {
		return nil, fmt.Errorf("rewrite letterhead: %w", err)
	}

	return &pdfBackground{path: dst}, nil
}

func (b *pdfBackground) Prepare(pdf *fpdf.Fpdf, _ layout.PageSpec) error {
	b.importer = gofpdi.NewImporter()
	b.tpl = b.importer.ImportPage(pdf, b.path, 1, "/MediaBox")
	return pdf.Error()
}

func (b *pdfBackground) Draw(pdf *fpdf.Fpdf, spec layout.PageSpec) {
	b.importer.UseImportedTemplate(pdf, b.tpl, 0, 0, spec.Width, spec.Height)
}

// firstPageRotation returns the effective /Rotate of page 1 in [0, 360).
func firstPageRotation(path string, conf *model.Configuration) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return 0, err
	}

	_, _, inherited, err := ctx.PageDict(1, false)
	if err != nil {
		return 0, err
	}
	if inherited == nil {
		return 0, nil
	}

	return ((inherited.Rotate % 360) + 360) % 360, nil
}

// rasterizePDF renders page 1 of a PDF letterhead to PNG through ImageMagick.
func (c *Compositor) rasterizePDF(path string) ([]byte, error) {
	doc, err := document.OpenPDF(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", ErrInvalidLetterhead, err)
	}
	defer doc.Close()

	page, err := doc.ExtractPage(1)
	if err != nil {
		return nil, fmt.Errorf("%w: extract page: %w", ErrInvalidLetterhead, err)
	}

	renderer, err := image.NewImageMagickRenderer(config.ImageConfig{
		Format: "png",
		DPI:    c.dpi,
		Options: map[string]any{
			"background": "white",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	data, err := page.ToImage(renderer, nil)
	if err != nil {
		return nil, fmt.Errorf("render letterhead: %w", err)
	}

	return data, nil
}

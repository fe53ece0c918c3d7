// Package overlay stamps the verification block of a digitally signed
// document: a QR code pointing at the public verification page, the signer's
// name and council registration, an optional handwritten signature image,
// and the legal disclosure lines.
package overlay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/skip2/go-qrcode"

	"github.com/JaimeStill/medsign/pkg/layout"
)

const (
	QRSize    = 60
	QRBottom  = 105
	TextGap   = 14
	LegalBase = 120
	LineGap   = 15

	// MinTextSize is the smallest font size a verification line shrinks to
	// before it is wrapped.
	MinTextSize = 6.0

	// SignatureBottom is the baseline of the signature image above the page bottom.
	SignatureBottom = 150

	LegalNotice = "Assinatura digital válida conforme MP 2.200-2/2001"

	stampDescription = "scalefactor:1 abs, position:bl, offset:0 0, rotation:0, opacity:1"
	overlayFile      = "verification-overlay.pdf"
	stampedSuffix    = ".stamped"
	qrPixels         = 256
)

// ErrCompose wraps failures to build or stamp the overlay.
var ErrCompose = errors.New("compose verification overlay")

// Record describes what the verification block shows.
type Record struct {
	// URL is the public verification address encoded in the QR code.
	URL          string
	Signer       string
	CouncilLabel string
	// Noun completes the notice, e.g. "do atestado".
	Noun string
	// SignatureImage is an optional PNG or JPEG of the handwritten signature.
	SignatureImage string
}

// Header is the signer display line.
func (r Record) Header() string {
	return r.Signer + "    |    " + r.CouncilLabel
}

// Notice is the first disclosure line.
func (r Record) Notice() string {
	return fmt.Sprintf("Para verificar a autenticidade %s, leia o QR code ao lado.", r.Noun)
}

// Composer builds and stamps verification overlays.
type Composer struct {
	logger *slog.Logger
}

// New creates a Composer.
func New(logger *slog.Logger) *Composer {
	return &Composer{logger: logger.With("system", "overlay")}
}

// QRCode encodes url as a PNG QR code.
func QRCode(url string) ([]byte, error) {
	return qrcode.Encode(url, qrcode.Medium, qrPixels)
}

// Page renders the single transparent overlay page for documents of spec.
func (c *Composer) Page(rec Record, spec layout.PageSpec) ([]byte, error) {
	if rec.URL == "" {
		return nil, fmt.Errorf("%w: verification url required", ErrCompose)
	}

	qr, err := QRCode(rec.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: encode qr: %w", ErrCompose, err)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: spec.Width, Ht: spec.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	x := spec.MarginX
	pdf.RegisterImageOptionsReader("qr", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qr))
	pdf.ImageOptions("qr", x, spec.Height-QRBottom-QRSize, QRSize, QRSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	if rec.SignatureImage != "" {
		if err := c.drawSignature(pdf, rec.SignatureImage, spec); err != nil {
			pdf.ClearError()
			c.logger.Warn("signature image skipped", "path", rec.SignatureImage, "error", err)
		}
	}

	headerSize, noticeSize := 11.0, 9.0
	if spec.Small() {
		headerSize, noticeSize = 10, 8
	}

	tx := x + QRSize + TextGap
	lines := fitLines(pdf, tr, spec.Width-spec.MarginX-tx, []textLine{
		{style: "B", size: headerSize, text: rec.Header()},
		{size: noticeSize, text: rec.Notice()},
		{size: noticeSize, text: LegalNotice},
	})

	// The block grows upward from the legal line.
	y := spec.Height - LegalBase - float64(len(lines)-1)*LineGap
	for _, l := range lines {
		pdf.SetFont(layout.FontFamily, l.style, l.size)
		pdf.Text(tx, y, tr(l.text))
		y += LineGap
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompose, err)
	}
	return buf.Bytes(), nil
}

type textLine struct {
	style string
	size  float64
	text  string
}

// fitLines shrinks each line until it fits width, then wraps any line that
// still overflows at MinTextSize.
func fitLines(pdf *fpdf.Fpdf, tr func(string) string, width float64, lines []textLine) []textLine {
	var out []textLine
	for _, l := range lines {
		pdf.SetFont(layout.FontFamily, l.style, l.size)
		measure := func(s string) float64 { return pdf.GetStringWidth(tr(s)) }

		for l.size > MinTextSize && measure(l.text) > width {
			l.size = max(l.size-0.5, MinTextSize)
			pdf.SetFontSize(l.size)
		}
		if measure(l.text) <= width {
			out = append(out, l)
			continue
		}

		for _, part := range layout.Wrap(l.text, width, measure) {
			out = append(out, textLine{style: l.style, size: l.size, text: part})
		}
	}
	return out
}

// Compose stamps the overlay onto every page of the PDF at pdfPath, rewriting
// it in place. The overlay page is staged in workdir.
func (c *Composer) Compose(
	ctx context.Context,
	pdfPath, workdir string,
	rec Record,
	spec layout.PageSpec,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	page, err := c.Page(rec, spec)
	if err != nil {
		return err
	}

	overlayPath := filepath.Join(workdir, overlayFile)
	if err := os.WriteFile(overlayPath, page, 0o600); err != nil {
		return fmt.Errorf("%w: write overlay: %w", ErrCompose, err)
	}
	defer os.Remove(overlayPath)

	wm, err := api.PDFWatermark(overlayPath, stampDescription, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("%w: load overlay: %w", ErrCompose, err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	stamped := pdfPath + stampedSuffix
	if err := api.AddWatermarksFile(pdfPath, stamped, nil, wm, conf); err != nil {
		os.Remove(stamped)
		return fmt.Errorf("%w: stamp: %w", ErrCompose, err)
	}

	if err := os.Rename(stamped, pdfPath); err != nil {
		os.Remove(stamped)
		return fmt.Errorf("%w: replace document: %w", ErrCompose, err)
	}

	c.logger.Debug("verification overlay stamped", "path", pdfPath, "url", rec.URL)
	return nil
}

package layout

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

var (
	// ErrNoContent indicates Render was called without any copies.
	ErrNoContent = errors.New("document has no content")
	// ErrRender indicates the PDF writer failed.
	ErrRender = errors.New("render document")
)

// Background paints beneath the content of every page.
type Background interface {
	// Prepare registers resources with the document before the first page is added.
	Prepare(pdf *fpdf.Fpdf, spec PageSpec) error
	// Draw paints onto the current page.
	Draw(pdf *fpdf.Fpdf, spec PageSpec)
}

// Options tune a single Render call.
type Options struct {
	Background Background
	// CreatedAt stamps the document metadata. Zero uses the current time.
	CreatedAt time.Time
	Title     string
}

// Result carries the rendered document.
type Result struct {
	PDF   []byte
	Pages int
	// BackgroundErr is set when the background could not be prepared.
	// The document is still rendered, without a background.
	BackgroundErr error
}

type renderer struct {
	pdf  *fpdf.Fpdf
	spec PageSpec
	tr   func(string) string
	bg   Background
	y    float64
}

// Render lays out content on pages of spec.
func Render(spec PageSpec, content Content, opts Options) (*Result, error) {
	if len(content.Copies) == 0 {
		return nil, ErrNoContent
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: spec.Width, Ht: spec.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	if !opts.CreatedAt.IsZero() {
		pdf.SetCreationDate(opts.CreatedAt)
		pdf.SetModificationDate(opts.CreatedAt)
	}
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}

	r := &renderer{
		pdf:  pdf,
		spec: spec,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
	}

	result := &Result{}
	if opts.Background != nil {
		if err := prepare(opts.Background, pdf, spec); err != nil {
			pdf.ClearError()
			result.BackgroundErr = err
		} else {
			r.bg = opts.Background
		}
	}

	for _, c := range content.Copies {
		r.copy(c)
	}

	result.Pages = pdf.PageCount()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	result.PDF = buf.Bytes()

	return result, nil
}

func prepare(bg Background, pdf *fpdf.Fpdf, spec PageSpec) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("prepare background: %v", rec)
		}
	}()

	if err := bg.Prepare(pdf, spec); err != nil {
		return err
	}
	if pdf.Err() {
		return pdf.Error()
	}
	return nil
}

func (r *renderer) copy(c Copy) {
	r.page(c)

	for _, b := range c.Body {
		r.block(c, b)
	}

	if c.Footer != "" {
		r.y += FooterGap
		if r.y > r.floor() {
			r.page(c)
		}
		r.pdf.SetFont(FontFamily, "", FooterSize)
		r.text(r.spec.MarginX, r.y, c.Footer)
	}

	r.rule()
}

// page starts a new page and draws the background, title, and identity lines.
func (r *renderer) page(c Copy) {
	r.pdf.AddPage()
	if r.bg != nil {
		r.bg.Draw(r.pdf, r.spec)
	}

	r.pdf.SetFont(FontFamily, "B", TitleSize)
	r.text(r.spec.MarginX, TitleTop, c.Title)

	r.pdf.SetFont(FontFamily, "", BodySize)
	y := IdentityTop
	for _, entry := range c.identity() {
		for _, line := range Wrap(entry, r.spec.TextWidth(), r.measure) {
			r.text(r.spec.MarginX, y, line)
			y += IdentityGap
		}
	}

	r.y = y + BodyGap
}

func (r *renderer) block(c Copy, b Block) {
	r.y += b.SpaceBefore
	r.pdf.SetFont(FontFamily, b.style(), b.size())

	width := r.spec.TextWidth() - b.Indent
	for _, line := range Wrap(b.Text, width, r.measure) {
		if r.y > r.floor() {
			r.page(c)
			r.pdf.SetFont(FontFamily, b.style(), b.size())
		}
		if line != "" {
			r.text(r.spec.MarginX+b.Indent, r.y, line)
		}
		r.y += b.leading()
	}
}

func (r *renderer) rule() {
	cx := r.spec.Width / 2
	y := r.spec.Height - RuleBottom
	half := r.spec.RuleWidth / 2

	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.SetLineWidth(0.8)
	r.pdf.Line(cx-half, y, cx+half, y)

	r.pdf.SetFont(FontFamily, "", CaptionSize)
	r.text(cx-r.measure(SignatureCaption)/2, y+CaptionOffset, SignatureCaption)
}

func (r *renderer) floor() float64 {
	return r.spec.Height - r.spec.Floor
}

func (r *renderer) measure(s string) float64 {
	return r.pdf.GetStringWidth(r.tr(s))
}

func (r *renderer) text(x, y float64, s string) {
	r.pdf.Text(x, y, r.tr(s))
}

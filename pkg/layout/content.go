package layout

// Typography shared by every document.
const (
	FontFamily = "Helvetica"

	TitleSize   = 14.0
	BodySize    = 11.0
	FooterSize  = 10.0
	CaptionSize = 10.0

	TitleTop      = 60.0
	IdentityTop   = 90.0
	IdentityGap   = 18.0
	BodyGap       = 24.0
	BodyLeading   = 15.0
	FooterGap     = 10.0
	RuleBottom    = 100.0
	CaptionOffset = 12.0

	SignatureCaption = "Assinatura e carimbo do médico"
)

// Block is a run of flowing text drawn with a single font.
// Zero values take the body defaults.
type Block struct {
	Text        string
	Bold        bool
	Size        float64
	Leading     float64
	Indent      float64
	SpaceBefore float64
}

// Copy is one self-contained rendition of a document. A document with several
// copies starts each copy on a fresh page.
type Copy struct {
	Title string
	// Identity lines are drawn in order beneath the title. Empty entries are
	// skipped without leaving a gap.
	Identity []string
	Body     []Block
	Footer   string
}

// Content is the full set of copies rendered into one PDF.
type Content struct {
	Copies []Copy
}

func (b Block) size() float64 {
	if b.Size > 0 {
		return b.Size
	}
	return BodySize
}

func (b Block) leading() float64 {
	if b.Leading > 0 {
		return b.Leading
	}
	return BodyLeading
}

func (b Block) style() string {
	if b.Bold {
		return "B"
	}
	return ""
}

func (c Copy) identity() []string {
	lines := make([]string, 0, len(c.Identity))
	for _, line := range c.Identity {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

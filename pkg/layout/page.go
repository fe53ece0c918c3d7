// Package layout renders document content onto fixed-size PDF pages.
//
// Coordinates follow fpdf: points, origin at the top-left corner, and text
// positioned by its baseline. Content is laid out as a title, a run of identity
// lines, flowing body blocks, an emission footer, and a manual-signature rule.
// Body text that would cross the page floor continues on a new page with the
// background and header redrawn.
package layout

import "strings"

// Size names a supported paper size.
type Size string

const (
	A4 Size = "A4"
	A5 Size = "A5"
)

// PageSpec describes the geometry of a page in points.
type PageSpec struct {
	Size    Size
	Width   float64
	Height  float64
	MarginX float64
	// Floor is the lowest body baseline, measured from the bottom edge. The
	// band below it is kept clear for the signature rule and verification block.
	Floor float64
	// RuleWidth is the length of the manual-signature rule.
	RuleWidth float64
}

var specs = map[Size]PageSpec{
	A4: {Size: A4, Width: 595.28, Height: 841.89, MarginX: 50, Floor: 240, RuleWidth: 320},
	A5: {Size: A5, Width: 419.53, Height: 595.28, MarginX: 25, Floor: 215, RuleWidth: 260},
}

// Spec returns the PageSpec for size, falling back to A4 for unknown sizes.
func Spec(size Size) PageSpec {
	if s, ok := specs[size]; ok {
		return s
	}
	return specs[A4]
}

// ParseSize normalizes a paper size name such as "a5" or " A4 ".
func ParseSize(s string) (Size, bool) {
	size := Size(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := specs[size]
	return size, ok
}

// TextWidth is the horizontal space available between the margins.
func (p PageSpec) TextWidth() float64 {
	return p.Width - 2*p.MarginX
}

// Small reports whether the page uses the compact A5 metrics.
func (p PageSpec) Small() bool {
	return p.Size == A5
}

package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	_ "image/jpeg"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/draw"

	"github.com/JaimeStill/medsign/pkg/layout"
)

const (
	// whiteThreshold is the per-channel level above which an opaque pixel is paper.
	whiteThreshold = 0xF000
	signatureName  = "signature"
)

// SignatureBox returns the maximum signature image size for spec in points.
func SignatureBox(spec layout.PageSpec) (w, h float64) {
	if spec.Small() {
		return 260, 54
	}
	return 330, 75
}

// PrepareSignature trims img to its ink and shrinks it to fit within the
// signature box of spec. Images are never enlarged.
func PrepareSignature(img image.Image, spec layout.PageSpec) image.Image {
	trimmed := trim(img)
	b := trimmed.Bounds()

	maxW, maxH := SignatureBox(spec)
	ratio := math.Min(math.Min(maxW/float64(b.Dx()), maxH/float64(b.Dy())), 1)
	if ratio == 1 {
		return trimmed
	}

	w := max(int(float64(b.Dx())*ratio), 1)
	h := max(int(float64(b.Dy())*ratio), 1)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), trimmed, b, draw.Src, nil)
	return dst
}

func (c *Composer) drawSignature(pdf *fpdf.Fpdf, path string, spec layout.PageSpec) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	img := PrepareSignature(src, spec)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode signature: %w", err)
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	opts := fpdf.ImageOptions{ImageType: "PNG"}

	pdf.RegisterImageOptionsReader(signatureName, opts, &buf)
	pdf.ImageOptions(signatureName, spec.Width/2-w/2, spec.Height-SignatureBottom-h, w, h, false, opts, 0, "")
	return pdf.Error()
}

// trim crops img to the bounding box of pixels that are neither transparent
// nor paper white. A blank image is returned unchanged.
func trim(img image.Image) image.Image {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !ink(img.At(x, y)) {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}

	if maxX < minX {
		return img
	}

	rect := image.Rect(minX, minY, maxX+1, maxY+1)
	dst := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}

func ink(c color.Color) bool {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return false
	}
	if a < 0xFFFF {
		return true
	}
	return r < whiteThreshold || g < whiteThreshold || b < whiteThreshold
}

package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	_ "image/png"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/draw"

	"github.com/JaimeStill/medsign/pkg/layout"
)

const rasterImageName = "letterhead"

type rasterBackground struct {
	data []byte
}

// raster decodes a PNG or JPEG letterhead, flattens it onto white, and scales
// it to the page at the configured resolution.
func (c *Compositor) raster(data []byte, spec layout.PageSpec) (layout.Background, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %w", ErrInvalidLetterhead, err)
	}

	w := pixels(spec.Width, c.dpi)
	h := pixels(spec.Height, c.dpi)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("encode letterhead: %w", err)
	}

	c.logger.Debug("letterhead rasterized", "width", w, "height", h, "bytes", buf.Len())
	return &rasterBackground{data: buf.Bytes()}, nil
}

func (b *rasterBackground) Prepare(pdf *fpdf.Fpdf, _ layout.PageSpec) error {
	pdf.RegisterImageOptionsReader(
		rasterImageName,
		fpdf.ImageOptions{ImageType: "JPG"},
		bytes.NewReader(b.data),
	)
	return pdf.Error()
}

func (b *rasterBackground) Draw(pdf *fpdf.Fpdf, spec layout.PageSpec) {
	pdf.ImageOptions(
		rasterImageName,
		0, 0,
		spec.Width, spec.Height,
		false,
		fpdf.ImageOptions{ImageType: "JPG"},
		0, "",
	)
}

func pixels(points float64, dpi int) int {
	return max(int(math.Round(points*float64(dpi)/72)), 1)
}

package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

// DefaultScale is the factor applied to the SVG's own size.
const DefaultScale = 1.8

// maxRasterSide keeps a broken viewBox from allocating gigabytes.
const maxRasterSide = 16384

// RasterizeSVG draws svg at scale onto a white background and returns PNG
// bytes. Shapes go through oksvg, text is drawn with the Go fonts, so
// glyph shapes differ from the font PlantUML measured with.
func RasterizeSVG(svg []byte, scale float64) ([]byte, error) {
	img, err := rasterizeSVG(svg, scale)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rasterizeSVG(svg []byte, scale float64) (*image.RGBA, error) {
	if scale <= 0 {
		scale = DefaultScale
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("svg has no size: %w", ErrNoImage)
	}

	outW := int(math.Ceil(w * scale))
	outH := int(math.Ceil(h * scale))
	if outW > maxRasterSide || outH > maxRasterSide {
		return nil, fmt.Errorf("svg too large to rasterize: %dx%d", outW, outH)
	}

	icon.SetTarget(0, 0, float64(outW), float64(outH))

	img := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(outW, outH, img, img.Bounds())
	raster := rasterx.NewDasher(outW, outH, scanner)
	icon.Draw(raster, 1.0)

	t := viewTransform{
		x:  icon.ViewBox.X,
		y:  icon.ViewBox.Y,
		sx: float64(outW) / w,
		sy: float64(outH) / h,
	}
	if err := drawSVGText(img, svg, t); err != nil {
		return nil, fmt.Errorf("draw svg text: %w", err)
	}
	return img, nil
}

func isSVG(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg")) || bytes.HasPrefix(bytes.TrimSpace(head), []byte("<?xml"))
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func isPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngMagic)
}

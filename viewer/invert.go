package viewer

import (
	"image"

	"golang.org/x/image/draw"
)

// InvertColors returns a copy of src with the red, green and blue channels
// inverted. Alpha is kept and src is never modified.
func InvertColors(src image.Image) *image.NRGBA {
	if src == nil {
		return nil
	}

	b := src.Bounds()
	dst := image.NewNRGBA(b)
	if n, ok := src.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			copy(dst.Pix[dst.PixOffset(b.Min.X, y):dst.PixOffset(b.Max.X, y)],
				n.Pix[n.PixOffset(b.Min.X, y):n.PixOffset(b.Max.X, y)])
		}
	} else {
		draw.Draw(dst, b, src, b.Min, draw.Src)
	}

	for i := 0; i+3 < len(dst.Pix); i += 4 {
		dst.Pix[i] = 255 - dst.Pix[i]
		dst.Pix[i+1] = 255 - dst.Pix[i+1]
		dst.Pix[i+2] = 255 - dst.Pix[i+2]
	}
	return dst
}

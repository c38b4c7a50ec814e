package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

const halfBlackSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10" viewBox="0 0 10 10">
<rect x="0" y="0" width="5" height="10" fill="#000000"/>
</svg>`

func TestRasterizeSVG(t *testing.T) {
	data, err := RasterizeSVG([]byte(halfBlackSVG), 2)
	if err != nil {
		t.Fatalf("RasterizeSVG failed: %v", err)
	}
	if !isPNG(data) {
		t.Fatal("Expected PNG output")
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("Expected 20x20 at scale 2, got %dx%d", b.Dx(), b.Dy())
	}

	black := color.NRGBAModel.Convert(img.At(3, 10)).(color.NRGBA)
	if black.R > 10 || black.A != 255 {
		t.Errorf("Expected black fill, got %v", black)
	}
	white := color.NRGBAModel.Convert(img.At(16, 18)).(color.NRGBA)
	if white != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("Expected white background, got %v", white)
	}
}

func darkPixels(img image.Image, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if c.Y < 128 {
				n++
			}
		}
	}
	return n
}

func TestRasterizeSVG_DrawsText(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 60"><text x="10" y="40" font-size="30" fill="#000">Alice</text></svg>`

	data, err := RasterizeSVG([]byte(svg), 1.8)
	if err != nil {
		t.Fatalf("RasterizeSVG failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 360 || b.Dy() != 108 {
		t.Fatalf("Expected 360x108, got %dx%d", b.Dx(), b.Dy())
	}

	// glyphs sit right of x=18 and above the baseline at y=72
	if n := darkPixels(img, image.Rect(18, 20, 360, 73)); n == 0 {
		t.Error("Expected the label to be drawn")
	}
	if n := darkPixels(img, image.Rect(0, 0, 16, 108)); n != 0 {
		t.Errorf("Expected nothing left of the text origin, got %d dark pixels", n)
	}
}

func TestRasterizeSVG_TextStyles(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 40">
<g fill="#ff0000" font-size="20">
<text x="50" y="30" text-anchor="middle">Bob</text>
</g>
<text x="0" y="30" fill="none">hidden</text>
</svg>`

	img, err := rasterizeSVG([]byte(svg), 1)
	if err != nil {
		t.Fatalf("rasterizeSVG failed: %v", err)
	}

	var red, left, right int
	for y := 0; y < 40; y++ {
		for x := 0; x < 100; x++ {
			c := img.RGBAAt(x, y)
			if c.R > 200 && c.G < 100 && c.B < 100 {
				red++
				if x < 50 {
					left++
				} else {
					right++
				}
			}
			if c.R < 100 && c.G < 100 && c.B < 100 {
				t.Fatalf("Expected text with fill none to be skipped, dark pixel at %d,%d", x, y)
			}
		}
	}
	if red == 0 {
		t.Fatal("Expected fill inherited from the group")
	}
	if left == 0 || right == 0 {
		t.Errorf("Expected middle anchored text on both sides of x=50, got %d left and %d right", left, right)
	}
}

func TestParseTextRuns(t *testing.T) {
	svg := `<svg><text x="5" y="10" font-weight="bold" style="font-size:12px">a &amp; b<tspan x="7" dy="4">c</tspan></text></svg>`

	runs, err := parseTextRuns([]byte(svg))
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %+v", runs)
	}
	if r := runs[0]; r.text != "a & b" || r.x != 5 || r.y != 10 || !r.style.bold || r.style.size != 12 {
		t.Errorf("Unexpected first run %+v", r)
	}
	if r := runs[1]; r.text != "c" || r.x != 7 || r.y != 14 || !r.style.bold {
		t.Errorf("Unexpected tspan run %+v", r)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.Color
		ok   bool
	}{
		{"#000", color.RGBA{A: 255}, true},
		{"#1A2b3C", color.RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 255}, true},
		{"Blue", color.RGBA{B: 255, A: 255}, true},
		{"none", nil, false},
		{"", nil, false},
	}
	for _, tt := range tests {
		got, ok := parseColor(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseColor(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRasterizeSVG_NoSize(t *testing.T) {
	if _, err := RasterizeSVG([]byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), 1); err == nil {
		t.Error("Expected an error for an svg without size")
	}
}

func TestSniffing(t *testing.T) {
	if !isSVG([]byte(halfBlackSVG)) || !isSVG([]byte("<svg></svg>")) {
		t.Error("Expected svg to be detected")
	}
	if isSVG([]byte("hello")) {
		t.Error("Plain text is not svg")
	}
	if !isPNG(testPNG(t, 1, 1)) || isPNG([]byte(halfBlackSVG)) {
		t.Error("PNG detection failed")
	}
}

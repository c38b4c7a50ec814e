package render

import (
	"bytes"
	"encoding/xml"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/colornames"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const defaultFontSize = 16

// textRun is one positioned piece of text from a <text> or <tspan>.
type textRun struct {
	text  string
	x, y  float64
	style textStyle
}

type textStyle struct {
	fill   string
	family string
	size   float64
	bold   bool
	italic bool
	anchor string
}

// viewTransform maps user units of the viewBox to output pixels.
type viewTransform struct {
	x, y   float64
	sx, sy float64
}

func (t viewTransform) point(x, y float64) (float64, float64) {
	return (x - t.x) * t.sx, (y - t.y) * t.sy
}

// drawSVGText draws the <text> elements of svg onto img. oksvg only
// handles shapes, so labels are laid over its output with the Go fonts.
func drawSVGText(img *image.RGBA, svg []byte, t viewTransform) error {
	runs, err := parseTextRuns(svg)
	if err != nil {
		return err
	}

	faces := newFaceCache()
	defer faces.close()

	for _, r := range runs {
		c, ok := parseColor(r.style.fill)
		if !ok {
			continue
		}
		face, err := faces.get(r.style, r.style.size*t.sy)
		if err != nil {
			return err
		}

		x, y := t.point(r.x, r.y)
		switch r.style.anchor {
		case "middle":
			x -= float64(font.MeasureString(face, r.text)) / 64 / 2
		case "end":
			x -= float64(font.MeasureString(face, r.text)) / 64
		}

		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c),
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)},
		}
		d.DrawString(r.text)
	}
	return nil
}

// parseTextRuns walks svg and collects every text run together with the
// presentation attributes inherited from enclosing groups.
func parseTextRuns(svg []byte) ([]textRun, error) {
	dec := xml.NewDecoder(bytes.NewReader(svg))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var (
		runs   []textRun
		styles = []textStyle{{fill: "#000000", family: "sans-serif", size: defaultFontSize}}
		// open text and tspan elements, innermost last
		cursor []textRun
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// keep what was read before a malformed tail
			if len(runs) > 0 {
				break
			}
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			st := applyStyle(styles[len(styles)-1], el.Attr)
			styles = append(styles, st)

			name := el.Name.Local
			if name != "text" && !(name == "tspan" && len(cursor) > 0) {
				continue
			}

			run := textRun{style: st}
			if len(cursor) > 0 {
				parent := cursor[len(cursor)-1]
				run.x, run.y = parent.x, parent.y
			}
			if x, ok := floatAttr(el.Attr, "x"); ok {
				run.x = x
			}
			if y, ok := floatAttr(el.Attr, "y"); ok {
				run.y = y
			}
			if dx, ok := floatAttr(el.Attr, "dx"); ok {
				run.x += dx
			}
			if dy, ok := floatAttr(el.Attr, "dy"); ok {
				run.y += dy
			}
			cursor = append(cursor, run)

		case xml.CharData:
			if len(cursor) == 0 {
				continue
			}
			s := strings.Join(strings.Fields(string(el)), " ")
			if s == "" {
				continue
			}
			r := cursor[len(cursor)-1]
			r.text = s
			runs = append(runs, r)

		case xml.EndElement:
			if len(styles) > 1 {
				styles = styles[:len(styles)-1]
			}
			name := el.Name.Local
			if len(cursor) > 0 && (name == "text" || name == "tspan") {
				cursor = cursor[:len(cursor)-1]
			}
		}
	}
	return runs, nil
}

func applyStyle(st textStyle, attrs []xml.Attr) textStyle {
	set := func(k, v string) {
		v = strings.TrimSpace(v)
		switch k {
		case "fill":
			st.fill = v
		case "font-family":
			st.family = v
		case "font-size":
			if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil && f > 0 {
				st.size = f
			}
		case "font-weight":
			n, err := strconv.Atoi(v)
			st.bold = v == "bold" || v == "bolder" || err == nil && n >= 600
		case "font-style":
			st.italic = v == "italic" || v == "oblique"
		case "text-anchor":
			st.anchor = v
		}
	}
	for _, a := range attrs {
		if a.Name.Local == "style" {
			for _, decl := range strings.Split(a.Value, ";") {
				if k, v, ok := strings.Cut(decl, ":"); ok {
					set(strings.TrimSpace(k), v)
				}
			}
			continue
		}
		set(a.Name.Local, a.Value)
	}
	return st
}

func floatAttr(attrs []xml.Attr, name string) (float64, bool) {
	for _, a := range attrs {
		if a.Name.Local != name {
			continue
		}
		// lists of positions use only the first entry
		v := strings.Fields(strings.ReplaceAll(a.Value, ",", " "))
		if len(v) == 0 {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSuffix(v[0], "px"), 64)
		return f, err == nil
	}
	return 0, false
}

// parseColor understands #rgb, #rrggbb and the SVG color keywords.
func parseColor(s string) (color.Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || s == "none" || s == "transparent":
		return nil, false
	case strings.HasPrefix(s, "#"):
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 && len(hex) != 8 {
			return color.Black, true
		}
		v, err := strconv.ParseUint(hex[:6], 16, 32)
		if err != nil {
			return color.Black, true
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
	}
	if c, ok := colornames.Map[s]; ok {
		return c, true
	}
	return color.Black, true
}

var (
	fontsOnce sync.Once
	fonts     map[string]*opentype.Font
	fontsErr  error
)

func loadFonts() (map[string]*opentype.Font, error) {
	fontsOnce.Do(func() {
		src := map[string][]byte{
			"regular":    goregular.TTF,
			"bold":       gobold.TTF,
			"italic":     goitalic.TTF,
			"bolditalic": gobolditalic.TTF,
			"mono":       gomono.TTF,
		}
		fonts = make(map[string]*opentype.Font, len(src))
		for k, ttf := range src {
			f, err := opentype.Parse(ttf)
			if err != nil {
				fontsErr = err
				return
			}
			fonts[k] = f
		}
	})
	return fonts, fontsErr
}

func fontKey(st textStyle) string {
	family := strings.ToLower(st.family)
	if strings.Contains(family, "mono") || strings.Contains(family, "courier") {
		return "mono"
	}
	switch {
	case st.bold && st.italic:
		return "bolditalic"
	case st.bold:
		return "bold"
	case st.italic:
		return "italic"
	}
	return "regular"
}

type faceKey struct {
	font string
	size fixed.Int26_6
}

type faceCache struct {
	faces map[faceKey]font.Face
}

func newFaceCache() *faceCache {
	return &faceCache{faces: make(map[faceKey]font.Face)}
}

func (c *faceCache) get(st textStyle, size float64) (font.Face, error) {
	k := faceKey{font: fontKey(st), size: fixed.Int26_6(size * 64)}
	if f, ok := c.faces[k]; ok {
		return f, nil
	}

	all, err := loadFonts()
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(all[k.font], &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	c.faces[k] = face
	return face, nil
}

func (c *faceCache) close() {
	for _, f := range c.faces {
		f.Close()
	}
}

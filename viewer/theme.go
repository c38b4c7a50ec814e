package viewer

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// Theme selects the panel background and whether freshly loaded images
// are shown inverted.
type Theme int

const (
	Dark Theme = iota
	Light
)

const lastThemeKey = "umlview:lastTheme"

func (t Theme) String() string {
	if t == Light {
		return "light"
	}
	return "dark"
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

func (t Theme) background() color.Color {
	if t == Light {
		return color.White
	}
	return color.NRGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}
}

// ThemeFromVariant maps the running fyne theme variant to a Theme.
func ThemeFromVariant(v fyne.ThemeVariant) Theme {
	if v == theme.VariantLight {
		return Light
	}
	return Dark
}

// LoadTheme reads the persisted theme, falling back to def.
func LoadTheme(def Theme) Theme {
	app := fyne.CurrentApp()
	if app == nil {
		return def
	}
	return Theme(app.Preferences().IntWithFallback(lastThemeKey, int(def)))
}

// SaveTheme persists t as the last used theme.
func SaveTheme(t Theme) {
	if app := fyne.CurrentApp(); app != nil {
		app.Preferences().SetInt(lastThemeKey, int(t))
	}
}

package viewer

import (
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// fyneNotch is the scroll delta fyne reports for one mouse wheel notch.
const fyneNotch = 40

func isZoomModifierActive() bool {
	app := fyne.CurrentApp()
	if app == nil {
		return false
	}
	d, ok := app.Driver().(desktop.Driver)
	if !ok {
		return false
	}

	mods := d.CurrentKeyModifiers()
	if mods&fyne.KeyModifierControl != 0 {
		return true
	}
	// Support Command+scroll on macOS (and Control elsewhere) by honoring the platform shortcut modifier.
	return mods&fyne.KeyModifierShortcutDefault != 0
}

// wheelDelta converts a fyne scroll delta to 120-per-notch units.
// It returns false for deltas that cannot be used.
func wheelDelta(dy float32) (float64, bool) {
	if dy == 0 || math.IsNaN(float64(dy)) || math.IsInf(float64(dy), 0) {
		return 0, false
	}
	return float64(dy) * wheelNotch / fyneNotch, true
}

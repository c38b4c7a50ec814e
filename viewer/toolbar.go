package viewer

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// NewToolbar builds the action bar for p. name supplies the file name used
// for copies and as the default save name.
func NewToolbar(p *ImagePanel, parent fyne.Window, name func() string) *widget.Toolbar {
	return widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentCopyIcon(), func() {
			p.Copy(name())
		}),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			p.SaveAs(parent, name())
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ColorPaletteIcon(), p.ReverseColors),
		widget.NewToolbarAction(theme.VisibilityIcon(), p.ToggleTheme),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() {
			p.Zoom(p.ZoomFactor()/1.25, false, false)
		}),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() {
			p.Zoom(p.ZoomFactor()*1.25, false, false)
		}),
		widget.NewToolbarAction(theme.ZoomFitIcon(), p.DoZoomToFit),
		widget.NewToolbarAction(theme.ViewRestoreIcon(), p.ActualSize),
	)
}

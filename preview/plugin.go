// Package preview shows PlantUML files in an ImagePanel.
package preview

import (
	"fmt"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"

	"github.com/alexballas/umlview/render"
	"github.com/alexballas/umlview/viewer"
)

var extensions = map[string]bool{
	".pu":       true,
	".puml":     true,
	".plantuml": true,
	".wsd":      true,
	".iuml":     true,
}

// CanHandle reports whether path looks like a PlantUML document.
func CanHandle(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Loader queues the rendering of a file. *render.Manager implements it.
type Loader interface {
	Load(path string, callback func(render.Result))
}

// Plugin renders one file at a time into its context.
type Plugin struct {
	// Parent is used for dialogs opened from the toolbar.
	Parent fyne.Window
	// Watch re-renders the file when it changes on disk.
	Watch            bool
	ZoomWithModifier bool
	// Configure is applied to every new panel before rendering starts.
	Configure func(*viewer.ImagePanel)

	loader  Loader
	path    string
	ctx     *Context
	panel   *viewer.ImagePanel
	watcher *watcher
	gen     uint64
}

func New(loader Loader, parent fyne.Window) *Plugin {
	return &Plugin{loader: loader, Parent: parent}
}

func (p *Plugin) CanHandle(path string) bool {
	return CanHandle(path)
}

// Prepare sizes the host window before the content exists.
func (p *Plugin) Prepare(path string, ctx *Context) {
	ctx.SetPreferredSizeFit(fyne.NewSize(1200, 800), 0.9)
}

// View shows path in ctx. Rendering runs in the background and the result
// is applied on the UI goroutine.
func (p *Plugin) View(path string, ctx *Context) {
	p.Cleanup()

	p.path, p.ctx = path, ctx
	p.panel = viewer.NewImagePanel(ctx.Theme)
	p.panel.ZoomWithModifier = p.ZoomWithModifier
	if p.Configure != nil {
		p.Configure(p.panel)
	}

	toolbar := viewer.NewToolbar(p.panel, p.Parent, func() string { return p.path })
	ctx.SetContent(container.NewBorder(toolbar, nil, nil, nil, p.panel))
	ctx.SetTitle(filepath.Base(path))
	ctx.SetBusy(true)

	p.render(false)

	if p.Watch {
		w, err := watchFile(path, func() { p.render(true) })
		if err != nil {
			fyne.LogError("Failed to watch "+path, err)
			return
		}
		p.watcher = w
	}
}

// Panel returns the panel of the current view, nil after Cleanup.
func (p *Plugin) Panel() *viewer.ImagePanel {
	return p.panel
}

func (p *Plugin) render(keepZoom bool) {
	if p.panel == nil {
		return
	}
	p.gen++
	gen := p.gen
	p.loader.Load(p.path, func(res render.Result) {
		fyne.Do(func() {
			p.apply(gen, res, keepZoom)
		})
	})
}

func (p *Plugin) apply(gen uint64, res render.Result, keepZoom bool) {
	// the view was closed or a newer render is on its way
	if gen != p.gen || p.panel == nil {
		return
	}
	name := filepath.Base(p.path)
	p.ctx.SetBusy(false)

	if res.Err != nil {
		fyne.LogError("Failed to render "+p.path, res.Err)
		p.panel.ShowError(res.Err)
		p.ctx.SetTitle(name)
		return
	}

	p.panel.SetImage(res.Image)
	if !keepZoom {
		p.panel.DoZoomToFit()
	}

	b := res.Image.Bounds()
	p.ctx.SetTitle(fmt.Sprintf("%d×%d: %s", b.Dx(), b.Dy(), name))
}

// Cleanup releases the current view. Renders still in flight are dropped
// when they complete.
func (p *Plugin) Cleanup() {
	p.gen++
	if p.watcher != nil {
		p.watcher.Close()
		p.watcher = nil
	}
	if p.panel != nil {
		p.panel.Dispose()
		p.panel = nil
	}
	p.ctx = nil
}

package main

import (
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/cobra"

	"github.com/alexballas/umlview/cmd/umlview/internal/config"
	"github.com/alexballas/umlview/preview"
	"github.com/alexballas/umlview/render"
	"github.com/alexballas/umlview/viewer"
)

// loadConfig reads the config file and applies the flags that were set.
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	path := f.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	set := cmd.Flags().Changed
	if set("renderer") {
		cfg.Renderer = f.renderer
	}
	if set("server") {
		cfg.Server = f.server
	}
	if set("jar") {
		cfg.Jar = f.jar
	}
	if set("java") {
		cfg.Java = f.java
	}
	if set("format") {
		cfg.Format = f.format
	}
	if set("watch") {
		cfg.Watch = f.watch
	}
	if set("zoom-with-modifier") {
		cfg.Viewer.ZoomWithModifier = f.zoomWithModifier
	}
	if set("no-cache") {
		cfg.NoCache = f.noCache
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if !preview.CanHandle(path) {
		return fmt.Errorf("%s is not a PlantUML file", path)
	}
	return nil
}

func run(cfg *config.Config, path string) error {
	a := app.NewWithID("io.github.alexballas.umlview")
	w := a.NewWindow("umlview")

	opts := cfg.RenderOptions().WithPreferences(a.Preferences())
	r, err := render.Select(opts)
	if err != nil {
		return err
	}
	opts.SavePreferences(a.Preferences())

	cacheDir := cfg.CacheDir
	if cfg.NoCache {
		cacheDir = ""
	}
	m := render.NewManager(r, cacheDir, cfg.Workers)
	defer m.Close()

	p := preview.New(m, w)
	p.Watch = cfg.Watch
	p.ZoomWithModifier = cfg.Viewer.ZoomWithModifier
	p.Configure = func(panel *viewer.ImagePanel) {
		configurePanel(panel, cfg.Viewer)
	}

	h := &host{app: a, win: w, plugin: p}
	w.SetOnClosed(p.Cleanup)
	w.SetContent(h.placeholder())

	if path != "" {
		h.open(path)
	} else {
		w.Resize(fyne.NewSize(640, 480))
		h.choose()
	}

	w.ShowAndRun()
	return nil
}

func configurePanel(panel *viewer.ImagePanel, vc config.ViewerConfig) {
	panel.ShowZoomLevelInfo = vc.ShowZoomLevel
	if vc.Interpolation == "nearest" {
		panel.RenderMode = viewer.NearestNeighbor
	}
	if vc.MinZoom > 0 && vc.MaxZoom > 0 {
		panel.SetZoomBounds(vc.MinZoom, vc.MaxZoom)
	}
}

// host is the window side of a preview.Context.
type host struct {
	app     fyne.App
	win     fyne.Window
	plugin  *preview.Plugin
	content fyne.CanvasObject
}

func (h *host) open(path string) {
	ctx := &preview.Context{
		Theme:     viewer.ThemeFromVariant(h.app.Settings().ThemeVariant()),
		OnChanged: h.update,
	}
	h.plugin.Prepare(path, ctx)
	h.plugin.View(path, ctx)
}

func (h *host) update(ctx *preview.Context) {
	title := ctx.Title
	if ctx.Busy {
		title += " (rendering…)"
	}
	h.win.SetTitle(title)

	if ctx.Content != nil && ctx.Content != h.content {
		h.content = ctx.Content
		h.win.SetContent(ctx.Content)
	}
	if !ctx.PreferredSize.IsZero() && h.win.Canvas().Size().IsZero() {
		h.win.Resize(ctx.PreferredSize)
	}
}

func (h *host) choose() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, h.win)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		if err := checkFile(path); err != nil {
			dialog.ShowError(err, h.win)
			return
		}
		h.open(path)
	}, h.win)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".pu", ".puml", ".plantuml", ".wsd", ".iuml"}))
	d.Show()
}

func (h *host) placeholder() fyne.CanvasObject {
	open := widget.NewButtonWithIcon("Open diagram…", theme.FolderOpenIcon(), h.choose)
	return container.NewCenter(open)
}

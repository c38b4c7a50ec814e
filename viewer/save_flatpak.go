//go:build flatpak && !windows && !android && !ios && !wasm && !js

package viewer

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver"
	"fyne.io/fyne/v2/lang"
	"fyne.io/fyne/v2/storage"

	"github.com/rymdport/portal"
	"github.com/rymdport/portal/filechooser"
)

func saveOSOverride(p *ImagePanel, parent fyne.Window, fileName string) bool {
	options := &filechooser.SaveFileOptions{
		AcceptLabel: lang.L("Save"),
		CurrentName: fileName,
		Filters: []*filechooser.Filter{{
			Name:  "PNG",
			Rules: []filechooser.Rule{{Type: filechooser.GlobPattern, Pattern: "*.png"}},
		}},
	}
	options.CurrentFilter = options.Filters[0]
	windowHandle := windowHandleForPortal(parent)

	go func() {
		uris, err := filechooser.SaveFile(windowHandle, lang.L("Save File"), options)
		if err != nil {
			fyne.LogError("Failed to choose save location", err)
			return
		}
		if len(uris) == 0 {
			return
		}

		uri, err := storage.ParseURI(uris[0])
		if err != nil {
			fyne.LogError("Failed to parse save location", err)
			return
		}

		writer, err := storage.Writer(uri)
		fyne.Do(func() {
			if err != nil {
				fyne.LogError("Failed to open save location", err)
				return
			}
			p.writeTo(writer)
		})
	}()
	return true
}

func windowHandleForPortal(window fyne.Window) string {
	native, ok := window.(driver.NativeWindow)
	if !ok {
		return ""
	}

	windowHandle := ""
	native.RunNative(func(context any) {
		if x11, ok := context.(driver.X11WindowContext); ok {
			windowHandle = portal.FormatX11WindowHandle(x11.WindowHandle)
		}
	})
	return windowHandle
}

package viewer

import (
	"bytes"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"golang.design/x/clipboard"
)

// ErrNoImage is returned by actions that need a loaded image.
var ErrNoImage = errors.New("no image loaded")

// WritePNG encodes the displayed image, including any inversion applied.
func (p *ImagePanel) WritePNG(w io.Writer) error {
	if p.source == nil {
		return ErrNoImage
	}
	return png.Encode(w, p.source)
}

// staleCopyAge is how long fallback clipboard files are kept around.
const staleCopyAge = 24 * time.Hour

var clipboardInit = sync.OnceValue(clipboard.Init)

// writeClipboardImage puts PNG data on the system clipboard.
var writeClipboardImage = func(data []byte) error {
	if err := clipboardInit(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}

// Copy places the image on the clipboard as PNG data. Where the system
// clipboard is unavailable a temporary PNG is written and its URI copied.
// Failures are logged and otherwise ignored.
func (p *ImagePanel) Copy(name string) {
	if p.source == nil {
		return
	}

	if err := p.copyToClipboard(name); err != nil {
		fyne.LogError("Failed to copy image", err)
	}
}

func (p *ImagePanel) copyToClipboard(name string) error {
	var buf bytes.Buffer
	if err := p.WritePNG(&buf); err != nil {
		return err
	}

	err := writeClipboardImage(buf.Bytes())
	if err == nil {
		return nil
	}
	fyne.LogError("Image clipboard unavailable, copying a file URI instead", err)
	return p.copyFileURI(name, buf.Bytes())
}

func (p *ImagePanel) copyFileURI(name string, data []byte) error {
	dir := filepath.Join(os.TempDir(), "umlview")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	removeStaleCopies(dir, time.Now().Add(-staleCopyAge))
	if p.copyFile != "" {
		os.Remove(p.copyFile)
		p.copyFile = ""
	}

	f, err := os.CreateTemp(dir, pngBaseName(name)+"-*.png")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}

	p.copyFile = f.Name()
	fyne.CurrentApp().Clipboard().SetContent(storage.NewFileURI(f.Name()).String())
	return nil
}

// removeStaleCopies deletes clipboard files last written before cutoff.
func removeStaleCopies(dir string, cutoff time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".png" {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		os.Remove(filepath.Join(dir, e.Name()))
	}
}

// SaveAs asks for a destination and writes the image there as PNG.
// Failures are logged and otherwise ignored.
func (p *ImagePanel) SaveAs(parent fyne.Window, name string) {
	if p.source == nil {
		return
	}

	fileName := pngBaseName(name) + ".png"
	if saveOSOverride(p, parent, fileName) {
		return
	}

	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			fyne.LogError("Failed to choose save location", err)
			return
		}
		if writer == nil {
			return
		}
		p.writeTo(writer)
	}, parent)
	d.SetFileName(fileName)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".png"}))
	d.Show()
}

func (p *ImagePanel) writeTo(writer fyne.URIWriteCloser) {
	err := p.WritePNG(writer)
	if cerr := writer.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fyne.LogError("Failed to save image", err)
	}
}

func pngBaseName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "diagram"
	}
	return base
}

package preview

import (
	"path/filepath"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/alexballas/umlview/viewer"
)

// reloadDelay collapses the burst of events an editor save produces.
const reloadDelay = 150 * time.Millisecond

type watcher struct {
	fs     *fsnotify.Watcher
	reload *viewer.Debouncer
	done   chan struct{}
	once   sync.Once
}

// watchFile calls onChange on the UI goroutine after path was written or
// replaced. The directory is watched so that saves through rename are seen.
func watchFile(path string, onChange func()) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &watcher{
		fs:     fw,
		reload: viewer.NewDebouncer(reloadDelay, onChange),
		done:   make(chan struct{}),
	}
	go w.loop(filepath.Clean(abs))
	return w, nil
}

func (w *watcher) loop(target string) {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.reload.Trigger()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			fyne.LogError("File watcher error", err)
		case <-w.done:
			return
		}
	}
}

func (w *watcher) Close() {
	w.once.Do(func() {
		close(w.done)
		w.reload.Stop()
		w.fs.Close()
	})
}

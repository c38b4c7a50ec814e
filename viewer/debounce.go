package viewer

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
)

// ZoomChangedDelay is the quiet period before OnZoomChanged fires.
const ZoomChangedDelay = 500 * time.Millisecond

// Debouncer runs fn once a burst of Trigger calls has been quiet for Delay.
// Only the most recently scheduled timer fires.
type Debouncer struct {
	Delay time.Duration
	// Dispatch hands fn to the goroutine that owns the observers.
	// It defaults to fyne.Do.
	Dispatch func(func())

	fn    func()
	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{Delay: delay, fn: fn}
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.Delay, func() {
		d.mu.Lock()
		latest := seq == d.seq
		d.mu.Unlock()
		// a timer that lost the race with Stop must not fire
		if !latest {
			return
		}
		d.dispatch(d.fn)
	})
}

// Stop cancels the pending call, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) dispatch(fn func()) {
	if fn == nil {
		return
	}
	if d.Dispatch != nil {
		d.Dispatch(fn)
		return
	}
	fyne.Do(fn)
}

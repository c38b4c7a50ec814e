package preview

import (
	"fyne.io/fyne/v2"

	"github.com/alexballas/umlview/viewer"
)

// Context is the host side of a preview: the window chrome a plugin may
// drive. It is only touched from the fyne UI goroutine.
type Context struct {
	Title         string
	Busy          bool
	Theme         viewer.Theme
	Content       fyne.CanvasObject
	PreferredSize fyne.Size
	FitRatio      float64

	// OnChanged is called after any field was changed through a setter.
	OnChanged func(*Context)
}

func (c *Context) SetTitle(title string) {
	c.Title = title
	c.changed()
}

func (c *Context) SetBusy(busy bool) {
	c.Busy = busy
	c.changed()
}

func (c *Context) SetContent(obj fyne.CanvasObject) {
	c.Content = obj
	c.changed()
}

// SetPreferredSizeFit asks for size, scaled down to ratio of the screen
// when it does not fit.
func (c *Context) SetPreferredSizeFit(size fyne.Size, ratio float64) {
	c.PreferredSize = size
	c.FitRatio = ratio
	c.changed()
}

func (c *Context) changed() {
	if c.OnChanged != nil {
		c.OnChanged(c)
	}
}

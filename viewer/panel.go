package viewer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/draw"
)

const zoomInfoDuration = 1200 * time.Millisecond

// RenderMode selects the interpolation used when the image is scaled.
type RenderMode int

const (
	// Linear blends neighbouring pixels, smoother.
	Linear RenderMode = iota
	// NearestNeighbor uses the nearest pixel, fast but can be blocky.
	NearestNeighbor
)

// Listener observes state transitions of an ImagePanel.
type Listener func(State)

// ImagePanel displays a bitmap with zoom-to-fit, anchored zoom, drag and
// inertial panning. It must only be used from the fyne UI goroutine.
type ImagePanel struct {
	widget.BaseWidget

	// ZoomWithModifier makes the plain wheel scroll vertically; zooming
	// then needs Control (or Command on macOS) held.
	ZoomWithModifier  bool
	ShowZoomLevelInfo bool
	RenderMode        RenderMode

	// OnZoomChanged fires once a burst of zoom changes has settled.
	OnZoomChanged func()
	// OnScrolled reports wheel deltas used for scrolling instead of zoom.
	OnScrolled func(delta int)

	state      State
	theme      Theme
	source     image.Image
	sourceSet  bool
	pointer    fyne.Position
	hasPointer bool
	zoomSet    bool
	disposed   bool
	copyFile   string

	listeners    []Listener
	zoomChanged  *Debouncer
	zoomInfoHide *time.Timer
	inertia      *fyne.Animation
	lastDrag     time.Time
	dragVelocity fyne.Delta

	raster      *canvas.Raster
	zoomInfo    *canvas.Text
	zoomInfoBg  *canvas.Rectangle
	message     *widget.Label
	messageShow bool
}

// NewImagePanel creates an empty panel using t until a persisted theme is
// read on the first image assignment.
func NewImagePanel(t Theme) *ImagePanel {
	p := &ImagePanel{
		ShowZoomLevelInfo: true,
		state:             NewState(),
		theme:             t,
		zoomInfo:          canvas.NewText("", color.White),
		zoomInfoBg:        canvas.NewRectangle(color.NRGBA{A: 0xa0}),
		message:           widget.NewLabel(""),
	}
	p.zoomChanged = NewDebouncer(ZoomChangedDelay, func() {
		if p.OnZoomChanged != nil && !p.disposed {
			p.OnZoomChanged()
		}
	})
	p.raster = canvas.NewRaster(p.draw)
	p.zoomInfo.TextSize = theme.TextSize() * 1.6
	p.zoomInfo.Alignment = fyne.TextAlignCenter
	p.zoomInfoBg.CornerRadius = theme.InputRadiusSize()
	p.zoomInfo.Hide()
	p.zoomInfoBg.Hide()
	p.message.Alignment = fyne.TextAlignCenter
	p.message.Wrapping = fyne.TextWrapWord
	p.message.Hide()
	p.ExtendBaseWidget(p)
	return p
}

func (p *ImagePanel) CreateRenderer() fyne.WidgetRenderer {
	return &imagePanelRenderer{p: p}
}

// SetImage replaces the displayed bitmap. The first bitmap assigned is
// shown inverted when the persisted theme is Dark.
func (p *ImagePanel) SetImage(img image.Image) {
	if p.disposed {
		return
	}
	if img == nil {
		p.source = nil
		p.state.ImageSize = fyne.Size{}
		p.state.RecomputeFit()
		p.refreshView()
		return
	}

	if !p.sourceSet {
		p.sourceSet = true
		p.theme = LoadTheme(p.theme)
		if p.theme == Dark {
			img = InvertColors(img)
		}
	}

	b := img.Bounds()
	p.source = img
	p.state.ImageSize = fyne.NewSize(float32(b.Dx()), float32(b.Dy()))
	p.hideMessage()
	p.refit()
}

// Image returns the bitmap currently displayed.
func (p *ImagePanel) Image() image.Image {
	return p.source
}

// State returns a copy of the zoom/pan state.
func (p *ImagePanel) State() State {
	return p.state
}

func (p *ImagePanel) ZoomFactor() float64 {
	return p.state.Zoom
}

func (p *ImagePanel) ZoomToFitFactor() float64 {
	return p.state.FitFactor
}

func (p *ImagePanel) IsZoomToFit() bool {
	return p.state.ZoomToFit
}

// SetZoomBounds changes the allowed zoom range.
func (p *ImagePanel) SetZoomBounds(lo, hi float64) {
	if lo <= 0 || hi < lo {
		return
	}
	p.state.MinZoom, p.state.MaxZoom = lo, hi
}

// Zoom scales the image to factor, see State.ApplyZoom.
func (p *ImagePanel) Zoom(factor float64, suppressNotify, isFit bool) {
	if p.disposed {
		return
	}
	res := p.state.ApplyZoom(factor, p.pointerOrCenter(), isFit)
	p.afterZoom(res, suppressNotify)
}

// DoZoomToFit shows the whole image and tracks the viewport size until the
// next manual zoom.
func (p *ImagePanel) DoZoomToFit() {
	p.state.RecomputeFit()
	p.Zoom(p.state.FitFactor, false, true)
}

// ActualSize shows the image at 100%.
func (p *ImagePanel) ActualSize() {
	if p.disposed {
		return
	}
	res := p.state.SetZoom(1, p.pointerOrCenter())
	p.afterZoom(res, false)
}

// ResetZoom returns to 100% without notifying OnZoomChanged.
func (p *ImagePanel) ResetZoom() {
	p.state.FitFactor = 1
	p.Zoom(1, true, p.state.ZoomToFit)
}

func (p *ImagePanel) afterZoom(res ZoomResult, suppressNotify bool) {
	if !res.Applied {
		return
	}
	p.showZoomLevel()
	p.refreshView()
	p.notify()
	if !suppressNotify {
		p.zoomChanged.Trigger()
	}
}

func (p *ImagePanel) refit() {
	p.state.RecomputeFit()
	if p.state.ZoomToFit {
		p.Zoom(p.state.FitFactor, false, true)
		return
	}
	p.state.ScrollTo(p.state.Offset)
	p.refreshView()
	p.notify()
}

// Resize tracks the viewport size and keeps fit mode fitted.
func (p *ImagePanel) Resize(size fyne.Size) {
	p.BaseWidget.Resize(size)
	if p.state.Viewport == size {
		return
	}
	p.state.Viewport = size
	p.refit()
}

func (p *ImagePanel) pointerOrCenter() fyne.Position {
	if p.hasPointer {
		return p.pointer
	}
	return fyne.NewPos(p.state.Viewport.Width/2, p.state.Viewport.Height/2)
}

// ScrollPosition returns the current pan offset.
func (p *ImagePanel) ScrollPosition() fyne.Position {
	return p.state.Offset
}

func (p *ImagePanel) SetScrollPosition(pos fyne.Position) {
	if p.state.ScrollTo(pos) {
		p.refreshView()
		p.notify()
	}
}

// ScrollSize returns the scrollable extent on each axis.
func (p *ImagePanel) ScrollSize() fyne.Size {
	return p.state.ScrollExtent()
}

func (p *ImagePanel) ScrollToTop() {
	if p.state.ScrollToTop() {
		p.refreshView()
		p.notify()
	}
}

func (p *ImagePanel) ScrollToBottom() {
	if p.state.ScrollToBottom() {
		p.refreshView()
		p.notify()
	}
}

// Subscribe registers l for every state transition. The returned func
// removes it again.
func (p *ImagePanel) Subscribe(l Listener) func() {
	p.listeners = append(p.listeners, l)
	idx := len(p.listeners) - 1
	return func() {
		if idx < len(p.listeners) {
			p.listeners[idx] = nil
		}
	}
}

func (p *ImagePanel) notify() {
	for _, l := range p.listeners {
		if l != nil {
			l(p.state)
		}
	}
}

// Scrolled zooms around the cursor, or scrolls when ZoomWithModifier is
// set and no zoom modifier is held.
func (p *ImagePanel) Scrolled(ev *fyne.ScrollEvent) {
	delta, ok := wheelDelta(ev.Scrolled.DY)
	if !ok {
		return
	}

	if p.ZoomWithModifier && !isZoomModifierActive() {
		if p.state.ScrollBy(fyne.NewDelta(0, -ev.Scrolled.DY)) {
			p.refreshView()
			p.notify()
		}
		if p.OnScrolled != nil {
			p.OnScrolled(int(delta))
		}
		return
	}

	p.pointer, p.hasPointer = ev.Position, true
	p.Zoom(p.state.WheelFactor(delta), false, false)
}

func (p *ImagePanel) MouseIn(ev *desktop.MouseEvent) {
	p.pointer, p.hasPointer = ev.Position, true
}

func (p *ImagePanel) MouseMoved(ev *desktop.MouseEvent) {
	p.pointer, p.hasPointer = ev.Position, true
	if p.state.Dragging() && ev.Button&desktop.MouseButtonPrimary == 0 {
		p.state.DragTo(ev.Position, false)
	}
}

func (p *ImagePanel) MouseOut() {
	p.hasPointer = false
}

func (p *ImagePanel) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	p.stopInertia()
	p.state.BeginDrag(ev.Position)
}

func (p *ImagePanel) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button == desktop.MouseButtonPrimary {
		p.state.EndDrag()
	}
}

func (p *ImagePanel) Dragged(ev *fyne.DragEvent) {
	p.pointer, p.hasPointer = ev.Position, true
	if !p.state.Dragging() {
		// touch drivers deliver no MouseDown
		p.stopInertia()
		p.state.BeginDrag(ev.Position.Subtract(ev.Dragged))
	}

	now := time.Now()
	if ms := float32(now.Sub(p.lastDrag).Milliseconds()); !p.lastDrag.IsZero() && ms > 0 {
		p.dragVelocity = fyne.NewDelta(ev.Dragged.DX/ms, ev.Dragged.DY/ms)
	}
	p.lastDrag = now

	if p.state.DragTo(ev.Position, true) {
		p.refreshView()
		p.notify()
	}
}

func (p *ImagePanel) DragEnd() {
	p.state.EndDrag()
	v := p.dragVelocity
	p.dragVelocity, p.lastDrag = fyne.Delta{}, time.Time{}
	if fyne.CurrentDevice().IsMobile() {
		p.Inertia(v)
	}
}

func (p *ImagePanel) DoubleTapped(*fyne.PointEvent) {
	p.DoZoomToFit()
}

// Manipulate applies one pinch/pan step: scale multiplies the zoom and
// translation moves the image with the fingers.
func (p *ImagePanel) Manipulate(scale float32, translation fyne.Delta) {
	p.Zoom(p.state.PinchFactor(float64(scale)), false, false)
	if p.state.ScrollBy(fyne.NewDelta(-translation.DX, -translation.DY)) {
		p.refreshView()
		p.notify()
	}
}

// Inertia keeps panning after a gesture is released at velocity v (px/ms)
// and decelerates to a stop.
func (p *ImagePanel) Inertia(v fyne.Delta) {
	p.stopInertia()
	total := InertiaDuration(v)
	if total <= 0 || p.disposed {
		return
	}

	start := p.state.Offset
	p.inertia = fyne.NewAnimation(time.Duration(total*float64(time.Millisecond)), func(progress float32) {
		d := InertiaDisplacement(v, float64(progress)*total)
		if p.state.ScrollTo(fyne.NewPos(start.X-d.DX, start.Y-d.DY)) {
			p.refreshView()
			p.notify()
		}
	})
	p.inertia.Curve = fyne.AnimationLinear
	p.inertia.Start()
}

func (p *ImagePanel) stopInertia() {
	if p.inertia != nil {
		p.inertia.Stop()
		p.inertia = nil
	}
}

// Theme returns the active theme.
func (p *ImagePanel) Theme() Theme {
	return p.theme
}

func (p *ImagePanel) SetTheme(t Theme) {
	p.theme = t
	p.refreshView()
}

// ToggleTheme switches the background and remembers the choice.
func (p *ImagePanel) ToggleTheme() {
	p.SetTheme(p.theme.Toggle())
	SaveTheme(p.theme)
}

// ReverseColors inverts the displayed image.
func (p *ImagePanel) ReverseColors() {
	if p.source == nil {
		return
	}
	p.source = InvertColors(p.source)
	p.refreshView()
}

// ShowMessage replaces the image area with a status text.
func (p *ImagePanel) ShowMessage(text string) {
	p.message.SetText(text)
	p.message.Show()
	p.messageShow = true
	p.Refresh()
}

// ShowError switches the panel to its failed state.
func (p *ImagePanel) ShowError(err error) {
	p.ShowMessage(fmt.Sprintf("Failed to render: %v", err))
}

func (p *ImagePanel) hideMessage() {
	if !p.messageShow {
		return
	}
	p.messageShow = false
	p.message.Hide()
	p.Refresh()
}

func (p *ImagePanel) showZoomLevel() {
	if !p.zoomSet {
		p.zoomSet = true
		return
	}
	if !p.ShowZoomLevelInfo {
		return
	}

	p.zoomInfo.Text = fmt.Sprintf("%.0f%%", p.state.Zoom*100)
	p.zoomInfo.Show()
	p.zoomInfoBg.Show()
	p.Refresh()

	if p.zoomInfoHide != nil {
		p.zoomInfoHide.Stop()
	}
	p.zoomInfoHide = time.AfterFunc(zoomInfoDuration, func() {
		fyne.Do(func() {
			p.zoomInfo.Hide()
			p.zoomInfoBg.Hide()
			p.Refresh()
		})
	})
}

// Dispose releases the image and stops pending timers and animations.
func (p *ImagePanel) Dispose() {
	p.disposed = true
	p.source = nil
	p.state.ImageSize = fyne.Size{}
	p.state.EndDrag()
	p.listeners = nil
	p.zoomChanged.Stop()
	p.stopInertia()
	if p.zoomInfoHide != nil {
		p.zoomInfoHide.Stop()
	}
}

func (p *ImagePanel) refreshView() {
	if p.raster != nil {
		canvas.Refresh(p.raster)
	}
}

func (p *ImagePanel) interpolator() draw.Interpolator {
	if p.RenderMode == NearestNeighbor {
		return draw.NearestNeighbor
	}
	return draw.ApproxBiLinear
}

// draw renders the visible part of the image into a w*h pixel buffer.
func (p *ImagePanel) draw(w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(p.theme.background()), image.Point{}, draw.Src)

	src := p.source
	vp := p.state.Viewport
	if src == nil || w <= 0 || h <= 0 || vp.Width <= 0 || vp.Height <= 0 {
		return dst
	}

	sx := float64(w) / float64(vp.Width)
	sy := float64(h) / float64(vp.Height)
	o := p.state.ContentOrigin()
	c := p.state.ContentSize()
	r := image.Rect(
		int(math.Round(float64(o.X)*sx)),
		int(math.Round(float64(o.Y)*sy)),
		int(math.Round(float64(o.X+c.Width)*sx)),
		int(math.Round(float64(o.Y+c.Height)*sy)),
	)
	if r.Empty() {
		return dst
	}

	p.interpolator().Scale(dst, r, src, src.Bounds(), draw.Over, nil)
	return dst
}

var _ fyne.Widget = (*ImagePanel)(nil)
var _ fyne.Scrollable = (*ImagePanel)(nil)
var _ fyne.Draggable = (*ImagePanel)(nil)
var _ fyne.DoubleTappable = (*ImagePanel)(nil)
var _ desktop.Mouseable = (*ImagePanel)(nil)
var _ desktop.Hoverable = (*ImagePanel)(nil)

type imagePanelRenderer struct {
	p *ImagePanel
}

func (r *imagePanelRenderer) Layout(size fyne.Size) {
	p := r.p
	p.raster.Resize(size)
	p.raster.Move(fyne.NewPos(0, 0))

	pad := theme.Padding()
	ts := p.zoomInfo.MinSize()
	bg := fyne.NewSize(ts.Width+pad*4, ts.Height+pad*2)
	bgPos := fyne.NewPos((size.Width-bg.Width)/2, (size.Height-bg.Height)/2)
	p.zoomInfoBg.Resize(bg)
	p.zoomInfoBg.Move(bgPos)
	p.zoomInfo.Resize(ts)
	p.zoomInfo.Move(bgPos.AddXY(pad*2, pad))

	msg := fyne.NewSize(fyne.Min(size.Width, fyne.Max(p.message.MinSize().Width, size.Width*0.8)), p.message.MinSize().Height)
	p.message.Resize(msg)
	p.message.Move(fyne.NewPos((size.Width-msg.Width)/2, (size.Height-msg.Height)/2))
}

func (r *imagePanelRenderer) MinSize() fyne.Size {
	return fyne.NewSize(64, 64)
}

func (r *imagePanelRenderer) Refresh() {
	r.Layout(r.p.Size())
	canvas.Refresh(r.p.raster)
	r.p.zoomInfo.Refresh()
	r.p.zoomInfoBg.Refresh()
	r.p.message.Refresh()
}

func (r *imagePanelRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.p.raster, r.p.zoomInfoBg, r.p.zoomInfo, r.p.message}
}

func (r *imagePanelRenderer) Destroy() {}

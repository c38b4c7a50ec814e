package viewer

import (
	"math"

	"fyne.io/fyne/v2"
)

const (
	defaultMinZoom = 0.1
	defaultMaxZoom = 3.0

	// wheelNotch is one wheel notch in the WHEEL_DELTA convention.
	wheelNotch = 120.0
	wheelStep  = 0.1

	// inertiaDeceleration is expressed in px/ms².
	inertiaDeceleration = 10.0 * 96.0 / (1000.0 * 1000.0)
)

// State is the complete zoom/pan state of an ImagePanel. All methods are
// pure transitions over the struct so they can be exercised without a
// drawing surface.
type State struct {
	// ImageSize is the natural pixel size of the current bitmap. A zero
	// size means no image is loaded.
	ImageSize fyne.Size
	// Viewport is the size of the visible area.
	Viewport fyne.Size

	Zoom      float64
	FitFactor float64
	ZoomToFit bool
	MinZoom   float64
	MaxZoom   float64

	// Offset is the scroll offset into the scaled image.
	Offset fyne.Position

	dragAnchor *fyne.Position
}

// ZoomResult describes what a call to ApplyZoom did.
type ZoomResult struct {
	Applied bool
	Changed bool
	Zoom    float64
}

// NewState returns the state of a freshly constructed panel.
func NewState() State {
	return State{
		Zoom:      1,
		FitFactor: 1,
		ZoomToFit: true,
		MinZoom:   defaultMinZoom,
		MaxZoom:   defaultMaxZoom,
	}
}

// HasImage reports whether a non-empty image is loaded.
func (s *State) HasImage() bool {
	return s.ImageSize.Width > 0 && s.ImageSize.Height > 0
}

// RecomputeFit updates FitFactor from the image and viewport sizes. The
// result is deliberately not clamped to the zoom bounds.
func (s *State) RecomputeFit() float64 {
	if !s.HasImage() || s.Viewport.Width <= 0 || s.Viewport.Height <= 0 {
		s.FitFactor = 1
		return s.FitFactor
	}

	s.FitFactor = math.Min(
		float64(s.Viewport.Width)/float64(s.ImageSize.Width),
		float64(s.Viewport.Height)/float64(s.ImageSize.Height),
	)
	return s.FitFactor
}

type zoomMode int

const (
	zoomSnap zoomMode = iota
	zoomFit
	zoomExact
)

// snapTarget stops a continuous zoom at the fit factor and at 100%.
func (s *State) snapTarget(target float64) float64 {
	cur, fit := s.Zoom, s.FitFactor

	switch {
	case cur < fit && target > fit, cur > fit && target < fit:
		s.ZoomToFit = true
		return fit
	case cur < 1 && target > 1, cur > 1 && target < 1:
		s.ZoomToFit = false
		return 1
	default:
		s.ZoomToFit = false
		return target
	}
}

func (s *State) clampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return s.Zoom
	}
	return math.Min(math.Max(z, s.MinZoom), s.MaxZoom)
}

// ApplyZoom moves to target, snapping at the landmarks and keeping an
// anchor stationary on screen. pointer is the cursor position in viewport
// coordinates; it anchors the zoom unless ZoomToFit is set, in which case
// the image center is kept in the middle of the viewport.
//
// With isFit the target is taken as the fit factor itself and lands there
// directly, without stopping at 100% on the way.
func (s *State) ApplyZoom(target float64, pointer fyne.Position, isFit bool) ZoomResult {
	if isFit {
		return s.apply(target, pointer, zoomFit)
	}
	return s.apply(target, pointer, zoomSnap)
}

// SetZoom moves to target without landmark snapping and leaves fit mode.
func (s *State) SetZoom(target float64, pointer fyne.Position) ZoomResult {
	return s.apply(target, pointer, zoomExact)
}

func (s *State) apply(target float64, pointer fyne.Position, mode zoomMode) ZoomResult {
	if !s.HasImage() {
		return ZoomResult{Zoom: s.Zoom}
	}

	before := *s
	switch mode {
	case zoomFit:
		// the target already is the fit landmark
		s.ZoomToFit = true
	case zoomExact:
		s.ZoomToFit = false
	default:
		target = s.snapTarget(target)
	}
	target = s.clampZoom(target)

	var anchor fyne.Position
	screen := pointer
	if s.ZoomToFit {
		anchor = fyne.NewPos(s.ImageSize.Width/2, s.ImageSize.Height/2)
		screen = fyne.NewPos(s.Viewport.Width/2, s.Viewport.Height/2)
	} else {
		anchor = s.ContentPointAt(pointer)
	}

	s.Zoom = target
	// scrolled to origin, the anchor sits at anchor*zoom, so the offset
	// that brings it back under the screen point is the difference
	s.Offset = s.clampOffset(fyne.NewPos(
		float32(float64(anchor.X)*target)-screen.X,
		float32(float64(anchor.Y)*target)-screen.Y,
	))

	return ZoomResult{
		Applied: true,
		Changed: before.Zoom != s.Zoom || before.Offset != s.Offset || before.ZoomToFit != s.ZoomToFit,
		Zoom:    s.Zoom,
	}
}

// ContentSize is the size of the image at the current zoom.
func (s *State) ContentSize() fyne.Size {
	return fyne.NewSize(
		float32(float64(s.ImageSize.Width)*s.Zoom),
		float32(float64(s.ImageSize.Height)*s.Zoom),
	)
}

// ScrollExtent is the largest offset allowed on each axis.
func (s *State) ScrollExtent() fyne.Size {
	c := s.ContentSize()
	return fyne.NewSize(
		fyne.Max(0, c.Width-s.Viewport.Width),
		fyne.Max(0, c.Height-s.Viewport.Height),
	)
}

// ContentOrigin returns where the top left corner of the scaled image is
// drawn in viewport coordinates. Axes where the image is smaller than the
// viewport are centered.
func (s *State) ContentOrigin() fyne.Position {
	c := s.ContentSize()
	origin := fyne.NewPos(-s.Offset.X, -s.Offset.Y)
	if c.Width < s.Viewport.Width {
		origin.X = (s.Viewport.Width - c.Width) / 2
	}
	if c.Height < s.Viewport.Height {
		origin.Y = (s.Viewport.Height - c.Height) / 2
	}
	return origin
}

// ContentPointAt maps a viewport position to image pixel coordinates.
func (s *State) ContentPointAt(p fyne.Position) fyne.Position {
	if s.Zoom <= 0 {
		return fyne.Position{}
	}
	o := s.ContentOrigin()
	return fyne.NewPos(
		float32(float64(p.X-o.X)/s.Zoom),
		float32(float64(p.Y-o.Y)/s.Zoom),
	)
}

// ScreenPointOf maps image pixel coordinates to a viewport position.
func (s *State) ScreenPointOf(p fyne.Position) fyne.Position {
	o := s.ContentOrigin()
	return fyne.NewPos(
		o.X+float32(float64(p.X)*s.Zoom),
		o.Y+float32(float64(p.Y)*s.Zoom),
	)
}

func (s *State) clampOffset(p fyne.Position) fyne.Position {
	ext := s.ScrollExtent()
	return fyne.NewPos(
		fyne.Min(fyne.Max(p.X, 0), ext.Width),
		fyne.Min(fyne.Max(p.Y, 0), ext.Height),
	)
}

// ScrollTo sets the offset, clamped to the scrollable extent.
func (s *State) ScrollTo(p fyne.Position) bool {
	next := s.clampOffset(p)
	if next == s.Offset {
		return false
	}
	s.Offset = next
	return true
}

// ScrollBy moves the offset by d.
func (s *State) ScrollBy(d fyne.Delta) bool {
	return s.ScrollTo(s.Offset.AddXY(d.DX, d.DY))
}

func (s *State) ScrollToTop() bool {
	return s.ScrollTo(fyne.NewPos(s.Offset.X, 0))
}

func (s *State) ScrollToBottom() bool {
	return s.ScrollTo(fyne.NewPos(s.Offset.X, s.ScrollExtent().Height))
}

// BeginDrag records the content-space anchor for a drag starting at p.
func (s *State) BeginDrag(p fyne.Position) {
	anchor := p.Add(s.Offset)
	s.dragAnchor = &anchor
}

// DragTo keeps the drag anchor under p. A released button ends the drag.
func (s *State) DragTo(p fyne.Position, held bool) bool {
	if s.dragAnchor == nil {
		return false
	}
	if !held {
		s.EndDrag()
		return false
	}
	return s.ScrollTo(s.dragAnchor.Subtract(p))
}

func (s *State) EndDrag() {
	s.dragAnchor = nil
}

// Dragging reports whether a drag anchor is held.
func (s *State) Dragging() bool {
	return s.dragAnchor != nil
}

// WheelFactor is the zoom requested by a wheel delta in 120-per-notch
// units: every notch changes the scale by 10% of the current scale.
func (s *State) WheelFactor(delta float64) float64 {
	return s.Zoom + s.Zoom*delta/wheelNotch*wheelStep
}

// PinchFactor is the zoom requested by a manipulation scale delta.
func (s *State) PinchFactor(scale float64) float64 {
	return s.Zoom + s.Zoom*(scale-1)
}

// InertiaDuration is how long a release at velocity v (px/ms) coasts.
func InertiaDuration(v fyne.Delta) float64 {
	speed := math.Hypot(float64(v.DX), float64(v.DY))
	return speed / inertiaDeceleration
}

// InertiaDisplacement is the distance travelled after elapsed ms when
// decelerating uniformly from v.
func InertiaDisplacement(v fyne.Delta, elapsed float64) fyne.Delta {
	speed := math.Hypot(float64(v.DX), float64(v.DY))
	if speed == 0 {
		return fyne.Delta{}
	}
	elapsed = math.Min(math.Max(elapsed, 0), speed/inertiaDeceleration)
	dist := speed*elapsed - inertiaDeceleration*elapsed*elapsed/2
	return fyne.NewDelta(
		float32(dist*float64(v.DX)/speed),
		float32(dist*float64(v.DY)/speed),
	)
}

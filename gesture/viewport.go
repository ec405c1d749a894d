package gesture

import (
	"math"
	"time"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/geometry"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMinScale = 0.25
	DefaultMaxScale = 3.0
	ZoomStep        = 0.25

	// Inertial panning decays the release velocity by Friction every Frame and
	// stops once it drops below StopVelocity pixels per frame.
	Friction     = 0.92
	Frame        = 16 * time.Millisecond
	StopVelocity = 0.05

	wheelSensitivity = 0.0015
)

// Viewport owns the zoom scale and scroll offset of a board view and the pan
// and pinch gestures that change them.
type Viewport struct {
	arb      *Arbiter
	min, max float64

	scale  float64
	scroll core.Position

	pinch    *pinch
	pan      *pan
	velocity core.Position
}

type pinch struct {
	startDist  float64
	startScale float64
	mid        core.Position
}

type pan struct {
	last     core.Position
	lastAt   time.Time
	velocity core.Position
}

// NewViewport creates a viewport at scale 1. Invalid bounds fall back to the
// defaults.
func NewViewport(arb *Arbiter, min, max float64) *Viewport {
	if !(min > 0) || !geometry.Finite(min) {
		min = DefaultMinScale
	}
	if !(max >= min) || !geometry.Finite(max) {
		max = DefaultMaxScale
	}
	if arb == nil {
		arb = &Arbiter{}
	}
	return &Viewport{arb: arb, min: min, max: max, scale: 1}
}

func (v *Viewport) Scale() float64        { return v.scale }
func (v *Viewport) Scroll() core.Position { return v.scroll }
func (v *Viewport) Bounds() (min, max float64) {
	return v.min, v.max
}

// ToContent converts a viewport point to content space.
func (v *Viewport) ToContent(screen core.Position) core.Position {
	return geometry.ScreenToContent(screen, v.scale, v.scroll)
}

func (v *Viewport) ToScreen(content core.Position) core.Position {
	return geometry.ContentToScreen(content, v.scale, v.scroll)
}

// SetScale zooms to s, clamped to the viewport bounds, keeping the content
// point under anchor fixed on screen.
func (v *Viewport) SetScale(s float64, anchor core.Position) float64 {
	if !geometry.Finite(s) {
		return v.scale
	}
	next := geometry.Clamp(s, v.min, v.max)
	if next == v.scale {
		return v.scale
	}
	v.scroll = clampScroll(geometry.AnchorScroll(anchor, v.scale, next, v.scroll))
	v.scale = next
	return v.scale
}

func (v *Viewport) ZoomIn(anchor core.Position) float64 {
	return v.SetScale(v.scale+ZoomStep, anchor)
}

func (v *Viewport) ZoomOut(anchor core.Position) float64 {
	return v.SetScale(v.scale-ZoomStep, anchor)
}

// Wheel zooms by a mouse wheel delta. Negative deltaY zooms in.
func (v *Viewport) Wheel(deltaY float64, anchor core.Position) float64 {
	if !geometry.Finite(deltaY) {
		return v.scale
	}
	return v.SetScale(v.scale*math.Exp(-deltaY*wheelSensitivity), anchor)
}

// Reset returns to scale 1 with the viewport at the origin.
func (v *Viewport) Reset() {
	v.scale = 1
	v.scroll = core.Position{}
	v.velocity = core.Position{}
}

// SetScroll moves the viewport directly, clamped to non-negative offsets.
func (v *Viewport) SetScroll(p core.Position) {
	if !geometry.Finite(p.X) || !geometry.Finite(p.Y) {
		return
	}
	v.scroll = clampScroll(p)
}

// BeginPinch starts a two-finger zoom. A pinch ends any item drag first, so
// the caller cancels the drag before calling.
func (v *Viewport) BeginPinch(a, b core.Position) bool {
	d := geometry.Distance(a, b)
	if d <= 0 || v.pinch != nil {
		return false
	}
	if v.pan == nil && !v.arb.TryBeginPan() {
		return false
	}
	v.pan = nil
	v.velocity = core.Position{}
	v.pinch = &pinch{startDist: d, startScale: v.scale, mid: geometry.Midpoint(a, b)}
	return true
}

// UpdatePinch rescales by the ratio of the current to the initial finger
// distance, anchored at the midpoint of the two touches.
func (v *Viewport) UpdatePinch(a, b core.Position) float64 {
	p := v.pinch
	if p == nil {
		return v.scale
	}
	d := geometry.Distance(a, b)
	if d <= 0 {
		return v.scale
	}
	p.mid = geometry.Midpoint(a, b)
	return v.SetScale(p.startScale*d/p.startDist, p.mid)
}

func (v *Viewport) EndPinch() {
	if v.pinch == nil {
		return
	}
	v.pinch = nil
	v.arb.EndPan()
	logrus.WithField("scale", v.scale).Debug("Pinch finished")
}

func (v *Viewport) Pinching() bool { return v.pinch != nil }

// BeginPan starts dragging the canvas. It is refused while an item drag owns
// the interaction.
func (v *Viewport) BeginPan(screen core.Position, at time.Time) bool {
	if v.pan != nil || v.pinch != nil {
		return false
	}
	if !v.arb.TryBeginPan() {
		return false
	}
	v.velocity = core.Position{}
	v.pan = &pan{last: screen, lastAt: at}
	return true
}

// MovePan scrolls opposite to the pointer movement and tracks its velocity in
// pixels per frame.
func (v *Viewport) MovePan(screen core.Position, at time.Time) {
	p := v.pan
	if p == nil {
		return
	}
	delta := geometry.Sub(screen, p.last)
	v.scroll = clampScroll(geometry.Sub(v.scroll, delta))
	if dt := at.Sub(p.lastAt); dt > 0 {
		frames := float64(dt) / float64(Frame)
		p.velocity = core.Position{X: delta.X / frames, Y: delta.Y / frames}
	}
	p.last = screen
	p.lastAt = at
}

// EndPan releases the pan and hands its last velocity to inertia.
func (v *Viewport) EndPan() {
	p := v.pan
	if p == nil {
		return
	}
	v.pan = nil
	v.arb.EndPan()
	v.velocity = p.velocity
	if !v.Coasting() {
		v.velocity = core.Position{}
	}
}

func (v *Viewport) Panning() bool { return v.pan != nil }

// Coasting reports whether inertial motion is still running.
func (v *Viewport) Coasting() bool {
	return math.Hypot(v.velocity.X, v.velocity.Y) >= StopVelocity
}

// Step advances inertia by one frame and reports whether it should keep
// running.
func (v *Viewport) Step() bool {
	if !v.Coasting() {
		v.velocity = core.Position{}
		return false
	}
	v.scroll = clampScroll(geometry.Sub(v.scroll, v.velocity))
	v.velocity = core.Position{X: v.velocity.X * Friction, Y: v.velocity.Y * Friction}
	if !v.Coasting() {
		v.velocity = core.Position{}
		return false
	}
	return true
}

// StopInertia halts coasting, for example when a new pointer goes down.
func (v *Viewport) StopInertia() { v.velocity = core.Position{} }

func clampScroll(p core.Position) core.Position {
	return geometry.ClampPosition(p)
}

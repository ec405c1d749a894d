package geometry

import (
	"math"

	"github.com/neti77/anotequest-v1-sub000/core"
)

// ScreenToContent converts a viewport point to content space. scroll is the
// viewport offset in screen pixels of the scaled surface.
func ScreenToContent(screen core.Position, scale float64, scroll core.Position) core.Position {
	if !validScale(scale) {
		scale = 1
	}
	return core.Position{
		X: (screen.X + scroll.X) / scale,
		Y: (screen.Y + scroll.Y) / scale,
	}
}

// ContentToScreen is the inverse of ScreenToContent.
func ContentToScreen(content core.Position, scale float64, scroll core.Position) core.Position {
	if !validScale(scale) {
		scale = 1
	}
	return core.Position{
		X: content.X*scale - scroll.X,
		Y: content.Y*scale - scroll.Y,
	}
}

// ScaleDelta converts a raw pointer translation into content units.
func ScaleDelta(d core.Position, scale float64) core.Position {
	if !validScale(scale) {
		return d
	}
	return core.Position{X: d.X / scale, Y: d.Y / scale}
}

// AnchorScroll returns the scroll offset that keeps the content point under
// anchor (screen space) fixed when the scale changes from oldScale to newScale.
func AnchorScroll(anchor core.Position, oldScale, newScale float64, scroll core.Position) core.Position {
	c := ScreenToContent(anchor, oldScale, scroll)
	return core.Position{
		X: c.X*newScale - anchor.X,
		Y: c.Y*newScale - anchor.Y,
	}
}

func validScale(s float64) bool {
	return s > 0 && Finite(s)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ClampPosition keeps committed coordinates non-negative.
func ClampPosition(p core.Position) core.Position {
	return core.Position{X: math.Max(0, p.X), Y: math.Max(0, p.Y)}
}

// SanitizePosition replaces a malformed position with fallback.
func SanitizePosition(p core.Position, fallback core.Position) core.Position {
	if !Finite(p.X) || !Finite(p.Y) {
		return fallback
	}
	return ClampPosition(p)
}

// SanitizeSize replaces a missing or malformed size with fallback.
func SanitizeSize(s *core.Size, fallback core.Size) core.Size {
	if s == nil || !Finite(s.Width) || !Finite(s.Height) || s.Width <= 0 || s.Height <= 0 {
		return fallback
	}
	return *s
}

// ClampSize enforces a minimum size.
func ClampSize(s core.Size, min core.Size) core.Size {
	return core.Size{Width: math.Max(s.Width, min.Width), Height: math.Max(s.Height, min.Height)}
}

// Snap rounds both coordinates to the nearest multiple of grid.
func Snap(p core.Position, grid float64) core.Position {
	if grid <= 0 {
		return p
	}
	return core.Position{X: math.Round(p.X/grid) * grid, Y: math.Round(p.Y/grid) * grid}
}

func Add(a, b core.Position) core.Position { return core.Position{X: a.X + b.X, Y: a.Y + b.Y} }
func Sub(a, b core.Position) core.Position { return core.Position{X: a.X - b.X, Y: a.Y - b.Y} }

func Distance(a, b core.Position) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func Midpoint(a, b core.Position) core.Position {
	return core.Position{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Rotate turns v by angle radians around the origin.
func Rotate(v core.Position, angle float64) core.Position {
	sin, cos := math.Sincos(angle)
	return core.Position{X: v.X*cos - v.Y*sin, Y: v.X*sin + v.Y*cos}
}

// QuadraticControl returns the control point of the curve drawn between two
// connected items: the midpoint lifted by min(|dx|,|dy|)*0.3.
func QuadraticControl(from, to core.Position) core.Position {
	mid := Midpoint(from, to)
	curvature := math.Min(math.Abs(to.X-from.X), math.Abs(to.Y-from.Y)) * 0.3
	return core.Position{X: mid.X, Y: mid.Y - curvature}
}

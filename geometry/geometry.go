// Package geometry holds the pure coordinate math shared by drag, resize,
// zoom, selection and drawing.
package geometry

import (
	"math"

	"github.com/neti77/anotequest-v1-sub000/core"
)

// Rect is an axis-aligned box. Width and Height are never negative once
// built with RectFromPoints or ItemRect.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// RectFromPoints builds the normalized box spanned by two corners.
func RectFromPoints(a, b core.Position) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}

// ItemRect is the box covered by an item at pos with size s.
func ItemRect(pos core.Position, s core.Size) Rect {
	return Rect{X: pos.X, Y: pos.Y, Width: s.Width, Height: s.Height}
}

// Intersects is the "not disjoint" overlap test: two boxes intersect unless
// one lies entirely to one side of the other on either axis.
func (r Rect) Intersects(o Rect) bool {
	return !(r.Right() < o.X || o.Right() < r.X || r.Bottom() < o.Y || o.Bottom() < r.Y)
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p core.Position) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Union returns the smallest box covering both.
func (r Rect) Union(o Rect) Rect {
	x := math.Min(r.X, o.X)
	y := math.Min(r.Y, o.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  math.Max(r.Right(), o.Right()) - x,
		Height: math.Max(r.Bottom(), o.Bottom()) - y,
	}
}

// PathBounds returns the bounding box of a point path.
func PathBounds(path []core.Position) (Rect, bool) {
	if len(path) == 0 {
		return Rect{}, false
	}
	minX, minY := path[0].X, path[0].Y
	maxX, maxY := minX, minY
	for _, p := range path[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// Center of the box.
func (r Rect) Center() core.Position {
	return core.Position{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

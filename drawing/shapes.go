package drawing

import (
	"math"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/geometry"
)

const (
	ArrowAngle    = 25 * math.Pi / 180
	EllipsePoints = 32
)

func Line(start, end core.Position) []core.Position {
	return []core.Position{start, end}
}

// ArrowHeadLength is the barb length for a brush width.
func ArrowHeadLength(width float64) float64 {
	return 12 + 2*width
}

// Arrow returns a polyline shaft with two barbs at the end point:
// [start, end, leftBarb, end, rightBarb].
func Arrow(start, end core.Position, width float64) []core.Position {
	d := geometry.Sub(end, start)
	n := math.Hypot(d.X, d.Y)
	if n == 0 {
		return Line(start, end)
	}
	back := core.Position{X: -d.X / n * ArrowHeadLength(width), Y: -d.Y / n * ArrowHeadLength(width)}
	left := geometry.Add(end, geometry.Rotate(back, ArrowAngle))
	right := geometry.Add(end, geometry.Rotate(back, -ArrowAngle))
	return []core.Position{start, end, left, end, right}
}

// Ellipse returns a polygon inscribed in the box spanned by start and end.
func Ellipse(start, end core.Position) []core.Position {
	c := geometry.Midpoint(start, end)
	rx := math.Abs(end.X-start.X) / 2
	ry := math.Abs(end.Y-start.Y) / 2
	out := make([]core.Position, 0, EllipsePoints)
	for i := 0; i < EllipsePoints; i++ {
		a := 2 * math.Pi * float64(i) / EllipsePoints
		sin, cos := math.Sincos(a)
		out = append(out, core.Position{X: c.X + rx*cos, Y: c.Y + ry*sin})
	}
	return out
}

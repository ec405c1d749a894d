// Package drawing turns pointer samples captured in content space into
// finished strokes: freehand paths, erasers and synthesized shapes.
package drawing

import (
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/geometry"
)

// EraserFactor widens eraser strokes relative to the brush.
const EraserFactor = 3

// Brush is the pen state applied to the next stroke.
type Brush struct {
	Tool   core.StrokeTool `json:"tool"`
	Color  string          `json:"color"`
	Width  float64         `json:"width"`
	Eraser bool            `json:"eraser"`
}

// DefaultBrush is a freehand blue pen of width 3.
func DefaultBrush() Brush {
	return Brush{Tool: core.ToolFreehand, Color: core.DefaultStrokeColor, Width: core.DefaultBrushWidth}
}

// Engine records one stroke at a time.
type Engine struct {
	brush   Brush
	drawing bool
	path    []core.Position
	start   core.Position
	end     core.Position
}

func NewEngine() *Engine {
	return &Engine{brush: DefaultBrush()}
}

func (e *Engine) Brush() Brush { return e.brush }

// SetBrush replaces the pen. Unknown tools fall back to freehand and a
// non-positive width to the default.
func (e *Engine) SetBrush(b Brush) {
	if !b.Tool.Valid() {
		b.Tool = core.ToolFreehand
	}
	if !(b.Width > 0) || !geometry.Finite(b.Width) {
		b.Width = core.DefaultBrushWidth
	}
	if b.Color == "" {
		b.Color = core.DefaultStrokeColor
	}
	e.brush = b
}

func (e *Engine) Drawing() bool { return e.drawing }

// Begin starts a stroke at p.
func (e *Engine) Begin(p core.Position) {
	if !finite(p) {
		return
	}
	e.drawing = true
	e.start, e.end = p, p
	e.path = []core.Position{p}
}

// Sample extends the stroke. Shape tools only track the latest point.
func (e *Engine) Sample(p core.Position) {
	if !e.drawing || !finite(p) {
		return
	}
	e.end = p
	if e.shape() {
		return
	}
	e.path = append(e.path, p)
}

// Preview returns the path the stroke would commit right now.
func (e *Engine) Preview() []core.Position {
	if !e.drawing {
		return nil
	}
	return e.points()
}

// End finishes the stroke. It returns false when the stroke has fewer than
// two points, in which case nothing should be committed.
func (e *Engine) End() (core.Stroke, bool) {
	if !e.drawing {
		return core.Stroke{}, false
	}
	path := e.points()
	e.Cancel()
	if len(path) < 2 {
		return core.Stroke{}, false
	}
	s := core.Stroke{
		Path:       path,
		Color:      e.brush.Color,
		BrushWidth: e.brush.Width,
		Tool:       e.brush.Tool,
		IsEraser:   e.brush.Eraser,
	}
	if s.IsEraser {
		s.BrushWidth = e.brush.Width * EraserFactor
		s.Tool = core.ToolFreehand
	}
	return s, true
}

// Cancel drops the stroke in progress.
func (e *Engine) Cancel() {
	e.drawing = false
	e.path = nil
}

func (e *Engine) shape() bool {
	return !e.brush.Eraser && e.brush.Tool != core.ToolFreehand
}

func (e *Engine) points() []core.Position {
	if !e.shape() {
		out := make([]core.Position, len(e.path))
		copy(out, e.path)
		return out
	}
	if e.start == e.end {
		return []core.Position{e.start}
	}
	switch e.brush.Tool {
	case core.ToolLine:
		return Line(e.start, e.end)
	case core.ToolArrow:
		return Arrow(e.start, e.end, e.brush.Width)
	case core.ToolEllipse:
		return Ellipse(e.start, e.end)
	}
	return nil
}

func finite(p core.Position) bool {
	return geometry.Finite(p.X) && geometry.Finite(p.Y)
}

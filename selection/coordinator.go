package selection

import (
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/geometry"
	"github.com/sirupsen/logrus"
)

// MinBoxSize is the content-space size below which a selection box counts as
// a click.
const MinBoxSize = 10

type (
	// Candidate is an item that a selection box may capture.
	Candidate struct {
		Ref    core.Ref
		Bounds geometry.Rect
	}

	// Projector converts screen points to content space.
	Projector interface {
		ToContent(screen core.Position) core.Position
	}

	// Mover is the live item store a multi-drag moves members through.
	Mover interface {
		Get(ref core.Ref) (core.Item, bool)
		Nudge(ref core.Ref, pos core.Position) bool
	}

	// Coordinator owns the selection set, the selection box gesture and the
	// multi-drag gesture of one board session.
	Coordinator struct {
		set     *Set
		mode    bool
		minBox  float64
		box     *box
		dragRun *multiDrag
	}

	box struct {
		start   core.Position
		current core.Position
	}

	multiDrag struct {
		anchor core.Ref
		last   core.Position
		moved  map[core.Ref]struct{}
	}
)

func NewCoordinator() *Coordinator {
	return &Coordinator{set: NewSet(), minBox: MinBoxSize}
}

func (c *Coordinator) Set() *Set { return c.set }

func (c *Coordinator) SelectMode() bool { return c.mode }

// SetSelectMode toggles select mode. Turning it off clears the selection.
func (c *Coordinator) SetSelectMode(on bool) {
	c.mode = on
	if !on {
		c.box = nil
		c.set.Clear()
	}
}

// BeginBox starts a selection box. It is refused outside select mode or when
// the pointer went down on an item.
func (c *Coordinator) BeginBox(screen core.Position, onItem bool, p Projector) bool {
	if !c.mode || onItem || c.dragRun != nil {
		return false
	}
	pt := p.ToContent(screen)
	c.box = &box{start: pt, current: pt}
	return true
}

func (c *Coordinator) UpdateBox(screen core.Position, p Projector) {
	if c.box == nil {
		return
	}
	c.box.current = p.ToContent(screen)
}

// Box returns the in-progress selection rectangle in content space.
func (c *Coordinator) Box() (geometry.Rect, bool) {
	if c.box == nil {
		return geometry.Rect{}, false
	}
	return geometry.RectFromPoints(c.box.start, c.box.current), true
}

// EndBox finishes the box gesture and selects every candidate whose bounds
// intersect the box. A box smaller than the minimum in both dimensions is a
// click: the selection is cleared.
func (c *Coordinator) EndBox(screen core.Position, p Projector, candidates []Candidate) []core.Ref {
	if c.box == nil {
		return nil
	}
	c.box.current = p.ToContent(screen)
	rect := geometry.RectFromPoints(c.box.start, c.box.current)
	c.box = nil

	return c.SelectRect(rect, candidates)
}

// SelectRect replaces the selection with the candidates intersecting rect.
func (c *Coordinator) SelectRect(rect geometry.Rect, candidates []Candidate) []core.Ref {
	if rect.Width < c.minBox && rect.Height < c.minBox {
		c.set.Clear()
		return nil
	}
	var hits []core.Ref
	for _, cand := range candidates {
		if rect.Intersects(cand.Bounds) {
			hits = append(hits, cand.Ref)
		}
	}
	c.set.Replace(hits)
	logrus.WithField("selected", len(hits)).Debug("Selection box applied")
	return hits
}

// Cancel aborts any box and clears the selection.
func (c *Coordinator) Cancel() {
	c.box = nil
	c.dragRun = nil
	c.set.Clear()
}

// BeginMultiDrag starts propagating the anchor's movement to the other
// selected items. It only applies when the anchor is selected along with at
// least one other item.
func (c *Coordinator) BeginMultiDrag(anchor core.Ref, anchorPos core.Position) bool {
	if c.set.Len() < 2 || !c.set.Has(anchor) {
		return false
	}
	c.dragRun = &multiDrag{anchor: anchor, last: anchorPos, moved: map[core.Ref]struct{}{}}
	return true
}

func (c *Coordinator) MultiDragging() bool { return c.dragRun != nil }

// DragFrame applies the anchor's delta since the previous frame to every
// other selected member and returns that delta. Members that no longer exist
// are pruned.
func (c *Coordinator) DragFrame(anchorPos core.Position, m Mover) core.Position {
	d := c.dragRun
	if d == nil {
		return core.Position{}
	}
	delta := geometry.Sub(anchorPos, d.last)
	d.last = anchorPos
	if delta == (core.Position{}) {
		return delta
	}

	var gone []core.Ref
	for _, ref := range c.set.order {
		if ref == d.anchor {
			continue
		}
		it, ok := m.Get(ref)
		if !ok {
			gone = append(gone, ref)
			continue
		}
		m.Nudge(ref, geometry.Add(it.Position, delta))
		d.moved[ref] = struct{}{}
	}
	c.set.Prune(gone)
	return delta
}

// EndMultiDrag finishes the gesture and returns the members it moved, which
// the caller commits together with the anchor.
func (c *Coordinator) EndMultiDrag() []core.Ref {
	d := c.dragRun
	c.dragRun = nil
	if d == nil {
		return nil
	}
	var out []core.Ref
	for _, ref := range c.set.order {
		if _, ok := d.moved[ref]; ok {
			out = append(out, ref)
		}
	}
	return out
}

// CancelMultiDrag drops the gesture. The caller reverts the live state.
func (c *Coordinator) CancelMultiDrag() {
	c.dragRun = nil
}

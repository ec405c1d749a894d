package gesture

import (
	"math"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/geometry"
	"github.com/neti77/anotequest-v1-sub000/selection"
	"github.com/sirupsen/logrus"
)

const (
	// DeadZone is the screen distance a pointer must travel before a drag
	// activates.
	DeadZone = 5

	EdgeTop  = 40
	EdgeSide = 20
)

// DragPolicy says where on an item a drag may start.
type DragPolicy int

const (
	DragAnywhere DragPolicy = iota
	DragEdgeOnly
)

// PolicyFor returns the drag policy of an item type. Types with interactive
// interiors drag from their edge zone only.
func PolicyFor(t core.ItemType) DragPolicy {
	switch t {
	case core.TypeImage, core.TypeSticker:
		return DragAnywhere
	}
	return DragEdgeOnly
}

// InDragZone reports whether local (content units, relative to the item's
// top-left corner) may start a drag on an item of type t and size s.
func InDragZone(t core.ItemType, local core.Position, s core.Size) bool {
	if local.X < 0 || local.Y < 0 || local.X > s.Width || local.Y > s.Height {
		return false
	}
	if PolicyFor(t) == DragAnywhere {
		return true
	}
	return local.Y <= EdgeTop || local.X <= EdgeSide || local.X >= s.Width-EdgeSide
}

// TrashZone supplies the trash control's rectangle in absolute screen space.
type TrashZone func() (geometry.Rect, bool)

// Drag moves one item, and through the selection coordinator every other
// selected item, with scale-compensated pointer translation.
type Drag struct {
	items  Items
	scaler Scaler
	arb    *Arbiter
	multi  *selection.Coordinator
	trash  TrashZone
	Snap   float64

	state     State
	ref       core.Ref
	start     core.Position
	activated bool
}

// NewDrag builds a drag controller. multi and trash may be nil.
func NewDrag(items Items, scaler Scaler, arb *Arbiter, multi *selection.Coordinator, trash TrashZone) *Drag {
	return &Drag{items: items, scaler: scaler, arb: arb, multi: multi, trash: trash}
}

func (d *Drag) State() State     { return d.state }
func (d *Drag) Target() core.Ref { return d.ref }

// Begin starts a drag on ref at local, the pointer position relative to the
// item in content units. It refuses when the point is outside the item's drag
// zone, the item is gone, or a pan owns the interaction.
func (d *Drag) Begin(ref core.Ref, local core.Position) bool {
	if d.state == Active {
		return false
	}
	it, ok := d.items.Get(ref)
	if !ok {
		return false
	}
	if !InDragZone(it.Type, local, it.SizeOf()) {
		return false
	}
	if !d.arb.TryBeginDrag() {
		logrus.WithField("item_id", ref.ID).Debug("Drag refused: interaction owned by pan")
		return false
	}
	d.state = Active
	d.ref = ref
	d.start = it.Position
	d.activated = false
	return true
}

// Move applies translation, the cumulative screen-space pointer offset since
// Begin. Frames inside the dead zone are ignored until the drag activates.
func (d *Drag) Move(translation core.Position) {
	if d.state != Active {
		return
	}
	if !d.activated {
		if math.Hypot(translation.X, translation.Y) < DeadZone {
			return
		}
		d.activated = true
		if d.multi != nil {
			d.multi.BeginMultiDrag(d.ref, d.start)
		}
	}
	pos := d.position(translation)
	if !d.items.Nudge(d.ref, pos) {
		return
	}
	if d.multi != nil && d.multi.MultiDragging() {
		d.multi.DragFrame(pos, d.items)
	}
}

// End releases the drag at release, the absolute screen point. A release over
// the trash zone soft-deletes the item instead of moving it.
func (d *Drag) End(translation, release core.Position) Outcome {
	if d.state != Active {
		return OutcomeNone
	}
	defer d.finish(Committed)

	if !d.activated {
		return OutcomeClick
	}
	if _, ok := d.items.Get(d.ref); !ok {
		d.abort()
		return OutcomeGone
	}
	if d.trash != nil {
		if zone, ok := d.trash(); ok && zone.Contains(release) {
			d.abort()
			d.items.SoftDelete(d.ref)
			return OutcomeDeleted
		}
	}

	final := geometry.ClampPosition(d.position(translation))
	if d.Snap > 0 {
		final = geometry.Snap(final, d.Snap)
	}
	d.items.Nudge(d.ref, final)
	refs := []core.Ref{d.ref}
	if d.multi != nil && d.multi.MultiDragging() {
		d.multi.DragFrame(final, d.items)
		refs = append(refs, d.multi.EndMultiDrag()...)
	}
	d.items.CommitLive(refs...)
	return OutcomeMoved
}

// Cancel aborts the gesture and reverts to the last committed state.
func (d *Drag) Cancel() Outcome {
	if d.state != Active {
		return OutcomeNone
	}
	d.abort()
	d.finish(Cancelled)
	return OutcomeCancelled
}

func (d *Drag) abort() {
	if d.multi != nil {
		d.multi.CancelMultiDrag()
	}
	d.items.Revert()
}

func (d *Drag) finish(s State) {
	d.state = s
	d.activated = false
	d.arb.EndDrag()
}

func (d *Drag) position(translation core.Position) core.Position {
	return geometry.Add(d.start, geometry.ScaleDelta(translation, d.scaler.Scale()))
}

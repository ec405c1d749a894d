package gesture

import (
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/geometry"
)

// Resize grows or shrinks one item from its bottom-right handle. Sizes never
// go below the item type's minimum.
type Resize struct {
	items  Items
	scaler Scaler
	arb    *Arbiter

	state State
	ref   core.Ref
	start core.Size
	min   core.Size
}

func NewResize(items Items, scaler Scaler, arb *Arbiter) *Resize {
	return &Resize{items: items, scaler: scaler, arb: arb}
}

func (r *Resize) State() State { return r.state }

func (r *Resize) Begin(ref core.Ref) bool {
	if r.state == Active {
		return false
	}
	it, ok := r.items.Get(ref)
	if !ok {
		return false
	}
	if !r.arb.TryBeginDrag() {
		return false
	}
	r.state = Active
	r.ref = ref
	r.start = it.SizeOf()
	r.min = core.MinSize(it.Type)
	return true
}

// Move applies the cumulative screen-space handle offset since Begin.
func (r *Resize) Move(translation core.Position) {
	if r.state != Active {
		return
	}
	r.items.Stretch(r.ref, r.size(translation))
}

func (r *Resize) End(translation core.Position) Outcome {
	if r.state != Active {
		return OutcomeNone
	}
	defer r.finish(Committed)
	if _, ok := r.items.Get(r.ref); !ok {
		r.items.Revert()
		return OutcomeGone
	}
	r.items.Stretch(r.ref, r.size(translation))
	r.items.CommitLive(r.ref)
	return OutcomeResized
}

func (r *Resize) Cancel() Outcome {
	if r.state != Active {
		return OutcomeNone
	}
	r.items.Revert()
	r.finish(Cancelled)
	return OutcomeCancelled
}

func (r *Resize) finish(s State) {
	r.state = s
	r.arb.EndDrag()
}

func (r *Resize) size(translation core.Position) core.Size {
	d := geometry.ScaleDelta(translation, r.scaler.Scale())
	next := core.Size{Width: r.start.Width + d.X, Height: r.start.Height + d.Y}
	return geometry.ClampSize(next, r.min)
}

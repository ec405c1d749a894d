package gesture

// Arbiter holds the shared "item is being dragged" flag that keeps item
// drags and canvas pans mutually exclusive.
type Arbiter struct {
	dragging bool
	panning  bool
}

// TryBeginDrag claims the interaction for an item drag or resize.
func (a *Arbiter) TryBeginDrag() bool {
	if a.dragging || a.panning {
		return false
	}
	a.dragging = true
	return true
}

func (a *Arbiter) EndDrag() { a.dragging = false }

// TryBeginPan claims the interaction for a canvas pan or pinch.
func (a *Arbiter) TryBeginPan() bool {
	if a.dragging || a.panning {
		return false
	}
	a.panning = true
	return true
}

func (a *Arbiter) EndPan() { a.panning = false }

func (a *Arbiter) Dragging() bool { return a.dragging }
func (a *Arbiter) Panning() bool  { return a.panning }

// CanSelectBox reports whether a selection box gesture may start.
func (a *Arbiter) CanSelectBox() bool {
	return !a.dragging && !a.panning
}

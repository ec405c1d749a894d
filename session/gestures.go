package session

import (
	"context"
	"time"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/geometry"
	"github.com/neti77/anotequest-v1-sub000/gesture"
	"github.com/neti77/anotequest-v1-sub000/selection"
	"github.com/sirupsen/logrus"
)

// BeginDrag starts dragging ref from the screen point. Items outside the
// active folder cannot be dragged.
func (s *Session) BeginDrag(ref core.Ref, screen core.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.board.Get(ref)
	if !ok || !core.InFolder(it.FolderID, s.board.ActiveFolder()) {
		return false
	}
	if s.resize.State() == gesture.Active || s.pen.Drawing() {
		return false
	}
	s.view.StopInertia()
	local := geometry.Sub(s.view.ToContent(screen), it.Position)
	return s.drag.Begin(ref, local)
}

// MoveDrag takes the cumulative screen translation since BeginDrag.
func (s *Session) MoveDrag(translation core.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Move(translation)
}

// EndDrag releases the drag at the absolute screen point release.
func (s *Session) EndDrag(translation, release core.Position) gesture.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.drag.End(translation, release)
	s.runDeferred()
	return out
}

func (s *Session) BeginResize(ref core.Ref) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.board.Get(ref)
	if !ok || !core.InFolder(it.FolderID, s.board.ActiveFolder()) {
		return false
	}
	if s.drag.State() == gesture.Active || s.pen.Drawing() {
		return false
	}
	return s.resize.Begin(ref)
}

func (s *Session) MoveResize(translation core.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resize.Move(translation)
}

func (s *Session) EndResize(translation core.Position) gesture.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.resize.End(translation)
	s.runDeferred()
	return out
}

// Cancel is the Escape signal: it aborts every gesture in flight, reverts
// uncommitted changes and clears the selection and any selection box.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelGestures()
	s.sel.Cancel()
	s.runDeferred()
}

func (s *Session) cancelGestures() {
	s.drag.Cancel()
	s.resize.Cancel()
	s.pen.Cancel()
	s.inkTarget = ""
	if s.view.Pinching() {
		s.view.EndPinch()
	}
}

// SetSelectMode toggles box selection. Leaving the mode clears the
// selection.
func (s *Session) SetSelectMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.SetSelectMode(on)
}

func (s *Session) SelectMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.SelectMode()
}

// Select replaces the selection with the refs that currently exist.
func (s *Session) Select(refs ...core.Ref) []core.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	var live []core.Ref
	for _, ref := range refs {
		if _, ok := s.board.Get(ref); ok {
			live = append(live, ref)
		}
	}
	s.sel.Set().Replace(live)
	return s.sel.Set().Refs()
}

// Toggle adds ref to the selection or removes it.
func (s *Session) Toggle(ref core.Ref) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.sel.Set()
	if set.Remove(ref) {
		return false
	}
	if _, ok := s.board.Get(ref); !ok {
		return false
	}
	set.Add(ref)
	return true
}

func (s *Session) Selection() []core.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Set().Refs()
}

func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Set().Clear()
}

// DeleteSelection moves every selected item to the trash.
func (s *Session) DeleteSelection() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ref := range s.sel.Set().Refs() {
		if _, ok := s.board.SoftDelete(ref); ok {
			n++
		}
	}
	return n
}

// BeginBox starts a selection box at screen. onItem reports whether the
// pointer went down on an item, which never starts a box.
func (s *Session) BeginBox(screen core.Position, onItem bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.arb.CanSelectBox() {
		return false
	}
	return s.sel.BeginBox(screen, onItem, s.view)
}

func (s *Session) UpdateBox(screen core.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.UpdateBox(screen, s.view)
}

// Box returns the active selection box in content space.
func (s *Session) Box() (geometry.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Box()
}

// EndBox selects every visible item the box intersects.
func (s *Session) EndBox(screen core.Position) []core.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.EndBox(screen, s.view, s.candidates())
}

func (s *Session) candidates() []selection.Candidate {
	var out []selection.Candidate
	for _, t := range core.ItemTypes {
		for _, it := range s.board.Visible(t) {
			out = append(out, selection.Candidate{
				Ref:    it.Ref(),
				Bounds: geometry.ItemRect(it.Position, it.SizeOf()),
			})
		}
	}
	return out
}

func (s *Session) View() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewState()
}

func (s *Session) viewState() ViewState {
	min, max := s.view.Bounds()
	return ViewState{
		Scale:    s.view.Scale(),
		Scroll:   s.view.Scroll(),
		MinScale: min,
		MaxScale: max,
		Extent:   s.board.Extent(),
		Coasting: s.view.Coasting(),
	}
}

// Zoom steps the scale by n increments, negative to zoom out, keeping the
// screen anchor fixed.
func (s *Session) Zoom(n int, anchor core.Position) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ; n > 0; n-- {
		s.view.ZoomIn(anchor)
	}
	for ; n < 0; n++ {
		s.view.ZoomOut(anchor)
	}
	return s.viewState()
}

func (s *Session) SetZoom(scale float64, anchor core.Position) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SetScale(scale, anchor)
	return s.viewState()
}

func (s *Session) Wheel(deltaY float64, anchor core.Position) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Wheel(deltaY, anchor)
	return s.viewState()
}

func (s *Session) ResetView() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Reset()
	return s.viewState()
}

func (s *Session) SetScroll(p core.Position) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SetScroll(p)
	return s.viewState()
}

// BeginPan starts panning the canvas. It is refused while an item drag or
// resize owns the interaction.
func (s *Session) BeginPan(screen core.Position, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.BeginPan(screen, at)
}

func (s *Session) MovePan(screen core.Position, at time.Time) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.MovePan(screen, at)
	return s.viewState()
}

// EndPan releases the pan and reports whether inertia will continue it.
func (s *Session) EndPan() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.EndPan()
	return s.view.Coasting()
}

// Coast runs inertial scrolling frame by frame until it settles, ctx ends or
// another gesture stops it. onFrame runs without the session locked.
func (s *Session) Coast(ctx context.Context, onFrame func(ViewState)) {
	ticker := time.NewTicker(gesture.Frame)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.view.StopInertia()
			s.mu.Unlock()
			return
		case <-ticker.C:
			s.mu.Lock()
			more := s.view.Step()
			vs := s.viewState()
			s.mu.Unlock()
			if onFrame != nil {
				onFrame(vs)
			}
			if !more {
				return
			}
		}
	}
}

// BeginPinch starts a two-finger zoom. The second finger cancels any item
// gesture in progress.
func (s *Session) BeginPinch(a, b core.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag.State() == gesture.Active || s.resize.State() == gesture.Active {
		logrus.WithField("board_id", s.boardID).Debug("Pinch cancels item gesture")
		s.drag.Cancel()
		s.resize.Cancel()
	}
	s.pen.Cancel()
	s.inkTarget = ""
	s.view.StopInertia()
	return s.view.BeginPinch(a, b)
}

func (s *Session) UpdatePinch(a, b core.Position) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.UpdatePinch(a, b)
	return s.viewState()
}

func (s *Session) EndPinch() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.EndPinch()
	s.runDeferred()
	return s.viewState()
}

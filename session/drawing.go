package session

import (
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/drawing"
	"github.com/neti77/anotequest-v1-sub000/gesture"
	"github.com/sirupsen/logrus"
)

func (s *Session) Brush() drawing.Brush {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pen.Brush()
}

func (s *Session) SetBrush(b drawing.Brush) drawing.Brush {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pen.SetBrush(b)
	return s.pen.Brush()
}

// BeginStroke starts a board stroke at a screen point.
func (s *Session) BeginStroke(screen core.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.canDraw() {
		return false
	}
	s.inkTarget = ""
	s.pen.Begin(s.view.ToContent(screen))
	return s.pen.Drawing()
}

// BeginInk starts a stroke on the ink layer of note sticker id. Points are
// local to the sticker and unaffected by the board zoom.
func (s *Session) BeginInk(id string, local core.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.canDraw() {
		return false
	}
	if _, ok := s.board.Get(core.Ref{Type: core.TypeNoteSticker, ID: id}); !ok {
		return false
	}
	s.inkTarget = id
	s.pen.Begin(local)
	return s.pen.Drawing()
}

func (s *Session) canDraw() bool {
	return !s.pen.Drawing() &&
		s.drag.State() != gesture.Active &&
		s.resize.State() != gesture.Active &&
		!s.view.Panning() && !s.view.Pinching()
}

// SampleStroke extends the stroke in progress. Board strokes take screen
// points, ink strokes local ones.
func (s *Session) SampleStroke(p core.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inkTarget == "" {
		p = s.view.ToContent(p)
	}
	s.pen.Sample(p)
}

func (s *Session) StrokePreview() []core.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pen.Preview()
}

// EndStroke commits the stroke in progress. Strokes with fewer than two
// points are dropped.
func (s *Session) EndStroke() (core.Stroke, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.inkTarget
	s.inkTarget = ""
	st, ok := s.pen.End()
	if !ok {
		return core.Stroke{}, false
	}
	if target != "" {
		return st, s.board.AppendInk(target, st)
	}
	out, err := s.board.AddStroke(st)
	if err != nil {
		logrus.WithFields(logrus.Fields{"board_id": s.boardID, "error": err}).Warn("Failed to add stroke")
		return core.Stroke{}, false
	}
	return out, true
}

package board

import (
	"fmt"

	"github.com/neti77/anotequest-v1-sub000/core"
)

// AddStroke commits a finished drawing stroke. Strokes need at least two
// finite points.
func (b *Board) AddStroke(s core.Stroke) (core.Stroke, error) {
	s = sanitizeStroke(s)
	if len(s.Path) < 2 {
		return core.Stroke{}, fmt.Errorf("stroke needs at least 2 finite points, got %d", len(s.Path))
	}
	if s.ID == "" {
		s.ID = b.opts.NewID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = b.opts.Now()
	}
	if b.active != nil {
		v := *b.active
		s.FolderID = &v
	}
	b.commit(func(c *change) bool {
		b.state.Drawings = append(b.state.Drawings, s)
		c.touchDrawings()
		return true
	})
	return s.Clone(), nil
}

// RemoveStroke deletes a stroke permanently. Strokes do not go to the trash.
func (b *Board) RemoveStroke(id string) bool {
	return b.commit(func(c *change) bool {
		for i, d := range b.state.Drawings {
			if d.ID == id {
				b.state.Drawings = append(b.state.Drawings[:i:i], b.state.Drawings[i+1:]...)
				c.touchDrawings()
				return true
			}
		}
		return false
	})
}

// ClearDrawings removes every stroke in the active folder scope.
func (b *Board) ClearDrawings() int {
	removed := 0
	b.commit(func(c *change) bool {
		kept := make([]core.Stroke, 0, len(b.state.Drawings))
		for _, d := range b.state.Drawings {
			if core.InFolder(d.FolderID, b.active) {
				removed++
				continue
			}
			kept = append(kept, d)
		}
		if removed == 0 {
			return false
		}
		b.state.Drawings = kept
		c.touchDrawings()
		return true
	})
	return removed
}

func (b *Board) Drawings() []core.Stroke {
	return b.state.Clone().Drawings
}

// AppendInk adds a stroke to a note sticker's own ink layer.
func (b *Board) AppendInk(id string, s core.Stroke) bool {
	s = sanitizeStroke(s)
	if len(s.Path) < 2 {
		return false
	}
	if s.ID == "" {
		s.ID = b.opts.NewID()
	}
	ref := core.Ref{Type: core.TypeNoteSticker, ID: id}
	return b.commit(func(c *change) bool {
		i := b.state.Find(ref)
		if i < 0 {
			return false
		}
		it := &b.state.Items[ref.Type][i]
		it.Ink = append(it.Ink, s)
		c.touchType(ref.Type)
		return true
	})
}

// ClearInk empties a note sticker's ink layer.
func (b *Board) ClearInk(id string) bool {
	ref := core.Ref{Type: core.TypeNoteSticker, ID: id}
	return b.commit(func(c *change) bool {
		i := b.state.Find(ref)
		if i < 0 || len(b.state.Items[ref.Type][i].Ink) == 0 {
			return false
		}
		b.state.Items[ref.Type][i].Ink = []core.Stroke{}
		c.touchType(ref.Type)
		return true
	})
}

package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/geometry"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// AddFailure is the structured rejection returned by Add. It is a value,
// not an error: callers decide how to surface it.
type AddFailure struct {
	Reason string        `json:"error"`
	Type   core.ItemType `json:"type"`
	Limit  int           `json:"limit,omitempty"`
}

func (f *AddFailure) String() string { return f.Reason }

var (
	noteOrigin        = core.Position{X: 200, Y: 160}
	noteStickerOrigin = core.Position{X: 220, Y: 200}
	loadFallback      = core.Position{X: 100, Y: 100}
)

const (
	nearOffset   = 40
	randomOrigin = 150
	randomSpan   = 200
)

// Add creates an item of type t from patch, filling defaults and scoping it
// to the active folder.
func (b *Board) Add(t core.ItemType, patch core.ItemPatch) (core.Item, *AddFailure) {
	if !t.Valid() {
		return core.Item{}, &AddFailure{Reason: fmt.Sprintf("unknown item type %q", t), Type: t}
	}
	if f := b.checkCapacity(t); f != nil {
		logrus.WithFields(logrus.Fields{"type": t, "limit": f.Limit}).Info("Item rejected by capacity policy")
		return core.Item{}, f
	}

	it := core.Item{
		ID:        b.opts.NewID(),
		Type:      t,
		CreatedAt: b.opts.Now(),
		Color:     core.DefaultColor(t),
	}
	switch t {
	case core.TypeNote:
		it.Title = "New Note"
		it.Images = []string{}
	case core.TypeNoteSticker:
		it.Ink = []core.Stroke{}
	}
	patch.ClearFolder = false
	patch.FolderID = nil
	patch.Apply(&it)

	if patch.Position == nil {
		it.Position = b.defaultPosition(t)
	}
	it.Position = geometry.SanitizePosition(it.Position, b.defaultPosition(t))
	size := geometry.SanitizeSize(it.Size, core.DefaultSize(t))
	it.Size = &size
	if b.active != nil {
		folder := *b.active
		it.FolderID = &folder
	}

	b.commit(func(c *change) bool {
		b.state.Items[t] = append(b.state.Items[t], it)
		c.touchType(t)
		return true
	})

	logrus.WithFields(logrus.Fields{"type": t, "item_id": it.ID}).Debug("Item added")
	return it.Clone(), nil
}

func (b *Board) checkCapacity(t core.ItemType) *AddFailure {
	if t != core.TypeNote || b.opts.Premium || b.opts.FreeTierLimit < 0 {
		return nil
	}
	if len(b.state.Items[t]) >= b.opts.FreeTierLimit {
		return &AddFailure{
			Reason: fmt.Sprintf("Free tier limited to %d notes!", b.opts.FreeTierLimit),
			Type:   t,
			Limit:  b.opts.FreeTierLimit,
		}
	}
	return nil
}

// SetPremium lifts or restores the capacity policy.
func (b *Board) SetPremium(premium bool) {
	b.opts.Premium = premium
}

func (b *Board) defaultPosition(t core.ItemType) core.Position {
	items := b.state.Items[t]
	if n := len(items); n > 0 {
		last := items[n-1].Position
		return core.Position{X: last.X + nearOffset, Y: last.Y + nearOffset}
	}
	switch t {
	case core.TypeNote:
		return noteOrigin
	case core.TypeNoteSticker:
		return noteStickerOrigin
	}
	return core.Position{
		X: randomOrigin + b.opts.Rand.Float64()*randomSpan,
		Y: randomOrigin + b.opts.Rand.Float64()*randomSpan,
	}
}

// Update merges patch into the item. It is a no-op when the item is gone.
func (b *Board) Update(ref core.Ref, patch core.ItemPatch) bool {
	if patch.Empty() {
		return false
	}
	return b.commit(func(c *change) bool {
		i := b.state.Find(ref)
		if i < 0 {
			logrus.WithFields(logrus.Fields{"type": ref.Type, "item_id": ref.ID}).Debug("Update skipped: item not found")
			return false
		}
		it := &b.state.Items[ref.Type][i]
		patch.Apply(it)
		it.Position = geometry.SanitizePosition(it.Position, loadFallback)
		if it.Size != nil {
			size := geometry.SanitizeSize(it.Size, core.DefaultSize(it.Type))
			it.Size = &size
		}
		c.touchType(ref.Type)
		return true
	})
}

// UpdateMany commits several position/size updates as one undo step.
func (b *Board) UpdateMany(patches map[core.Ref]core.ItemPatch) bool {
	return b.commit(func(c *change) bool {
		changed := false
		for ref, patch := range patches {
			i := b.state.Find(ref)
			if i < 0 || patch.Empty() {
				continue
			}
			it := &b.state.Items[ref.Type][i]
			patch.Apply(it)
			it.Position = geometry.SanitizePosition(it.Position, loadFallback)
			c.touchType(ref.Type)
			changed = true
		}
		return changed
	})
}

// Nudge moves an item in the live state without committing. Revert or a later
// commit settles the value.
func (b *Board) Nudge(ref core.Ref, pos core.Position) bool {
	i := b.state.Find(ref)
	if i < 0 {
		return false
	}
	b.state.Items[ref.Type][i].Position = pos
	b.markLive(ref)
	return true
}

// Stretch resizes an item in the live state without committing.
func (b *Board) Stretch(ref core.Ref, s core.Size) bool {
	i := b.state.Find(ref)
	if i < 0 {
		return false
	}
	b.state.Items[ref.Type][i].Size = &s
	b.markLive(ref)
	return true
}

// CommitLive records the current live state of the given refs as one
// committed mutation. It is used to settle gestures built from Nudge calls.
func (b *Board) CommitLive(refs ...core.Ref) bool {
	settled := make(map[core.Ref]liveEdit, len(refs))
	for _, ref := range refs {
		if i := b.state.Find(ref); i >= 0 {
			e := liveOf(b.state.Items[ref.Type][i])
			e.pos = geometry.ClampPosition(e.pos)
			settled[ref] = e
		}
		delete(b.live, ref)
	}
	return b.commit(func(c *change) bool {
		changed := false
		for _, ref := range refs {
			e, ok := settled[ref]
			i := b.state.Find(ref)
			if !ok || i < 0 {
				continue
			}
			it := &b.state.Items[ref.Type][i]
			if it.Position == e.pos && sameSize(it.Size, e.size) {
				continue
			}
			it.Position = e.pos
			it.Size = e.size
			c.touchType(ref.Type)
			changed = true
		}
		return changed
	})
}

func sameSize(a, b *core.Size) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Duplicate copies an item with a new id offset from the original.
func (b *Board) Duplicate(ref core.Ref) (core.Item, bool) {
	src, ok := b.Get(ref)
	if !ok {
		return core.Item{}, false
	}
	if f := b.checkCapacity(ref.Type); f != nil {
		return core.Item{}, false
	}
	dup := src.Clone()
	dup.ID = b.opts.NewID()
	dup.CreatedAt = b.opts.Now()
	dup.Position = core.Position{X: src.Position.X + duplicateOffset, Y: src.Position.Y + duplicateOffset}

	b.commit(func(c *change) bool {
		b.state.Items[ref.Type] = append(b.state.Items[ref.Type], dup)
		c.touchType(ref.Type)
		return true
	})
	return dup.Clone(), true
}

// Search returns visible notes whose title or content contains query,
// ignoring case. An empty query returns every visible note.
func (b *Board) Search(query string) []core.Item {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []core.Item
	for _, it := range b.Visible(core.TypeNote) {
		if q == "" || strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Content), q) {
			out = append(out, it)
		}
	}
	return out
}

func sanitizeItem(it core.Item) core.Item {
	it = it.Clone()
	it.Position = geometry.SanitizePosition(it.Position, loadFallback)
	size := geometry.SanitizeSize(it.Size, core.DefaultSize(it.Type))
	it.Size = &size
	if it.CreatedAt.IsZero() {
		it.CreatedAt = ulidTime(it.ID)
	}
	for i := range it.Ink {
		it.Ink[i] = sanitizeStroke(it.Ink[i])
	}
	return it
}

func sanitizeStroke(s core.Stroke) core.Stroke {
	s = s.Clone()
	path := s.Path[:0]
	for _, p := range s.Path {
		if geometry.Finite(p.X) && geometry.Finite(p.Y) {
			path = append(path, p)
		}
	}
	s.Path = path
	if !geometry.Finite(s.BrushWidth) || s.BrushWidth <= 0 {
		s.BrushWidth = core.DefaultBrushWidth
	}
	if !s.Tool.Valid() {
		s.Tool = core.ToolFreehand
	}
	return s
}

// ulidTime recovers the creation time encoded in a ULID id.
func ulidTime(id string) time.Time {
	u, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}

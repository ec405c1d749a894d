package board

import "github.com/neti77/anotequest-v1-sub000/core"

// Collection returns the committed value persisted under key. Uncommitted
// gesture state is never returned.
func (b *Board) Collection(key string) (any, bool) {
	if t, ok := core.ItemTypeForKey(key); ok {
		items := b.committed.Clone().Items[t]
		if items == nil {
			items = []core.Item{}
		}
		return items, true
	}
	switch key {
	case core.KeyDrawings:
		d := b.committed.Clone().Drawings
		if d == nil {
			d = []core.Stroke{}
		}
		return d, true
	case core.KeyConnections:
		c := b.committed.Clone().Connections
		if c == nil {
			c = []core.Connection{}
		}
		return c, true
	case core.KeyFolders:
		return b.Folders(), true
	case core.KeyTrash:
		return b.Trash(), true
	case core.KeyStats:
		return b.Stats(), true
	}
	return nil, false
}

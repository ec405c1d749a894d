package board

import (
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/sirupsen/logrus"
)

// SoftDelete moves an item into the trash. Connections touching the item are
// dropped in the same commit. Missing ids are a no-op.
func (b *Board) SoftDelete(ref core.Ref) (core.TrashEntry, bool) {
	var entry core.TrashEntry
	ok := b.commit(func(c *change) bool {
		i := b.state.Find(ref)
		if i < 0 {
			logrus.WithFields(logrus.Fields{"type": ref.Type, "item_id": ref.ID}).Debug("Delete skipped: item not found")
			return false
		}
		items := b.state.Items[ref.Type]
		entry = core.TrashEntry{
			ID:        b.opts.NewID(),
			Type:      ref.Type,
			Item:      items[i].Clone(),
			DeletedAt: b.opts.Now(),
		}
		b.state.Items[ref.Type] = append(items[:i:i], items[i+1:]...)
		b.trash = append(b.trash, entry)
		c.touchType(ref.Type)
		c.touch(core.KeyTrash)
		if b.dropConnectionsTo(ref) {
			c.touchConnections()
		}
		return true
	})
	if ok {
		logrus.WithFields(logrus.Fields{"type": ref.Type, "item_id": ref.ID, "trash_id": entry.ID}).Info("Item moved to trash")
	}
	return entry.Clone(), ok
}

// Restore puts a trashed item back into its collection and drops the entry.
// If the id is already live again (for example after an undo) only the entry
// is dropped.
func (b *Board) Restore(trashID string) (core.Item, bool) {
	var restored core.Item
	ok := b.commit(func(c *change) bool {
		i := b.trashIndex(trashID)
		if i < 0 {
			return false
		}
		entry := b.trash[i]
		b.trash = append(b.trash[:i:i], b.trash[i+1:]...)
		c.touch(core.KeyTrash)

		restored = entry.Item.Clone()
		restored.Type = entry.Type
		if b.state.Find(restored.Ref()) >= 0 {
			logrus.WithField("item_id", restored.ID).Warn("Restored item already live, dropping trash entry only")
			return true
		}
		if restored.FolderID != nil && !b.hasFolder(*restored.FolderID) {
			restored.FolderID = nil
		}
		b.state.Items[entry.Type] = append(b.state.Items[entry.Type], restored)
		c.touchType(entry.Type)
		return true
	})
	return restored.Clone(), ok
}

// Purge removes a trash entry permanently.
func (b *Board) Purge(trashID string) bool {
	return b.commit(func(c *change) bool {
		i := b.trashIndex(trashID)
		if i < 0 {
			return false
		}
		b.trash = append(b.trash[:i:i], b.trash[i+1:]...)
		c.touch(core.KeyTrash)
		return true
	})
}

// EmptyTrash purges every entry.
func (b *Board) EmptyTrash() int {
	n := len(b.trash)
	b.commit(func(c *change) bool {
		if n == 0 {
			return false
		}
		b.trash = []core.TrashEntry{}
		c.touch(core.KeyTrash)
		return true
	})
	return n
}

// Trash returns a copy of every trash entry, oldest first.
func (b *Board) Trash() []core.TrashEntry {
	out := make([]core.TrashEntry, len(b.trash))
	for i, e := range b.trash {
		out[i] = e.Clone()
	}
	return out
}

func (b *Board) trashIndex(id string) int {
	for i, e := range b.trash {
		if e.ID == id {
			return i
		}
	}
	return -1
}

package board

import (
	"strings"

	"github.com/neti77/anotequest-v1-sub000/core"
)

// Stats summarises the committed board.
func (b *Board) Stats() core.Stats {
	st := core.Stats{ByType: make(map[core.ItemType]int, len(core.ItemTypes))}
	for _, t := range core.ItemTypes {
		n := len(b.committed.Items[t])
		st.ByType[t] = n
		st.TotalItems += n
	}
	st.TotalNotes = st.ByType[core.TypeNote]
	for _, it := range b.committed.Items[core.TypeNote] {
		st.TotalWords += len(strings.Fields(it.Content))
	}
	st.TrashCount = len(b.trash)
	st.StrokeCount = len(b.committed.Drawings)
	return st
}

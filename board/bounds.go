package board

import (
	"math"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/geometry"
)

// RequiredExtent is the canvas size needed to show every visible item and
// stroke plus padding, floored at min. It does not apply the grow-only rule.
func RequiredExtent(st core.BoardState, active *string, padding float64, min core.Size) core.Size {
	var maxX, maxY float64
	for _, t := range core.ItemTypes {
		for _, it := range st.Items[t] {
			if !core.InFolder(it.FolderID, active) {
				continue
			}
			s := geometry.SanitizeSize(it.Size, core.DefaultSize(t))
			maxX = math.Max(maxX, it.Position.X+s.Width)
			maxY = math.Max(maxY, it.Position.Y+s.Height)
		}
	}
	for _, d := range st.Drawings {
		if !core.InFolder(d.FolderID, active) {
			continue
		}
		if r, ok := geometry.PathBounds(d.Path); ok {
			maxX = math.Max(maxX, r.Right())
			maxY = math.Max(maxY, r.Bottom())
		}
	}
	return core.Size{
		Width:  math.Max(min.Width, maxX+padding),
		Height: math.Max(min.Height, maxY+padding),
	}
}

// recomputeBounds grows the extent to cover the live state. The extent never
// shrinks within a session.
func (b *Board) recomputeBounds() {
	req := RequiredExtent(b.state, b.active, b.opts.Padding, b.opts.MinExtent)
	b.extent = core.Size{
		Width:  math.Max(b.extent.Width, req.Width),
		Height: math.Max(b.extent.Height, req.Height),
	}
}

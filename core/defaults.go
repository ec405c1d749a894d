package core

// DefaultSize is the fallback size of an item type when none is stored.
func DefaultSize(t ItemType) Size {
	switch t {
	case TypeNote:
		return Size{Width: 320, Height: 200}
	case TypeSticker:
		return Size{Width: 60, Height: 60}
	case TypeNoteSticker:
		return Size{Width: 200, Height: 160}
	case TypeImage:
		return Size{Width: 300, Height: 200}
	case TypeTable:
		return Size{Width: 400, Height: 200}
	case TypeTodo:
		return Size{Width: 260, Height: 220}
	case TypeSource:
		return Size{Width: 220, Height: 180}
	}
	return Size{Width: 200, Height: 200}
}

// MinSize is the smallest size a resize may produce for an item type.
func MinSize(t ItemType) Size {
	switch t {
	case TypeNote, TypeTodo:
		return Size{Width: 250, Height: 200}
	case TypeTable:
		return Size{Width: 200, Height: 120}
	case TypeSticker:
		return Size{Width: 30, Height: 30}
	case TypeNoteSticker:
		return Size{Width: 120, Height: 100}
	case TypeImage:
		return Size{Width: 100, Height: 80}
	case TypeSource:
		return Size{Width: 200, Height: 140}
	}
	return Size{Width: 30, Height: 30}
}

// DefaultColor is the color a new item of type t receives.
func DefaultColor(t ItemType) string {
	switch t {
	case TypeNote:
		return "#fef08a"
	case TypeNoteSticker:
		return "#fde68a"
	case TypeTodo:
		return "#dbeafe"
	}
	return ""
}

// SizeOf returns the item's size or its type default.
func (it Item) SizeOf() Size {
	if it.Size != nil {
		return *it.Size
	}
	return DefaultSize(it.Type)
}

const (
	DefaultStrokeColor = "#3b82f6"
	DefaultBrushWidth  = 3.0
)

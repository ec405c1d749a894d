package core

import "time"

// ItemType tags the variant of a placed canvas item.
type ItemType string

const (
	TypeNote        ItemType = "note"
	TypeSticker     ItemType = "sticker"
	TypeNoteSticker ItemType = "noteSticker"
	TypeImage       ItemType = "image"
	TypeTable       ItemType = "table"
	TypeTodo        ItemType = "todo"
	TypeSource      ItemType = "source"
)

// ItemTypes lists every item variant in a stable order.
var ItemTypes = []ItemType{
	TypeNote,
	TypeSticker,
	TypeNoteSticker,
	TypeImage,
	TypeTable,
	TypeTodo,
	TypeSource,
}

// Valid reports whether t is a known item variant.
func (t ItemType) Valid() bool {
	for _, known := range ItemTypes {
		if t == known {
			return true
		}
	}
	return false
}

// StrokeTool is the drawing tool that produced a stroke.
type StrokeTool string

const (
	ToolFreehand StrokeTool = "freehand"
	ToolLine     StrokeTool = "line"
	ToolArrow    StrokeTool = "arrow"
	ToolEllipse  StrokeTool = "ellipse"
)

func (t StrokeTool) Valid() bool {
	switch t {
	case ToolFreehand, ToolLine, ToolArrow, ToolEllipse:
		return true
	}
	return false
}

type (
	// Position is a point in content space.
	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	Size struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}

	// Ref identifies one item across all collections.
	Ref struct {
		Type ItemType `json:"type"`
		ID   string   `json:"id"`
	}

	TodoEntry struct {
		ID   string `json:"id"`
		Text string `json:"text"`
		Done bool   `json:"done"`
	}

	// Item is a placed canvas object. Common fields are always set;
	// the payload fields that apply depend on Type.
	Item struct {
		ID        string    `json:"id"`
		Type      ItemType  `json:"type"`
		Position  Position  `json:"position"`
		Size      *Size     `json:"size,omitempty"`
		FolderID  *string   `json:"folderId"`
		CreatedAt time.Time `json:"createdAt"`

		Title   string `json:"title,omitempty"`
		Content string `json:"content,omitempty"`
		Color   string `json:"color,omitempty"`

		// sticker
		Emoji    string  `json:"emoji,omitempty"`
		Rotation float64 `json:"rotation,omitempty"`

		// table
		Cells [][]string `json:"cells,omitempty"`

		// todo
		Todos []TodoEntry `json:"todos,omitempty"`

		// image, and note attachments
		ImageRef string   `json:"imageRef,omitempty"`
		Images   []string `json:"images,omitempty"`

		// noteSticker
		Ink []Stroke `json:"paths,omitempty"`

		// source
		URL          string `json:"url,omitempty"`
		PreviewImage string `json:"previewImage,omitempty"`
		Description  string `json:"description,omitempty"`
		Provider     string `json:"provider,omitempty"`
	}

	// Stroke is one free-form drawing or synthesized shape path.
	Stroke struct {
		ID         string     `json:"id"`
		Path       []Position `json:"path"`
		Color      string     `json:"color"`
		BrushWidth float64    `json:"brushSize"`
		IsEraser   bool       `json:"isEraser"`
		Tool       StrokeTool `json:"tool"`
		FolderID   *string    `json:"folderId"`
		CreatedAt  time.Time  `json:"createdAt"`
	}

	// Connection links two items with a curved line.
	Connection struct {
		ID       string  `json:"id"`
		From     Ref     `json:"from"`
		To       Ref     `json:"to"`
		Color    string  `json:"color,omitempty"`
		FolderID *string `json:"folderId"`
	}

	Folder struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Color     string    `json:"color,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// TrashEntry keeps a full copy of a soft-deleted item.
	TrashEntry struct {
		ID        string    `json:"id"`
		Type      ItemType  `json:"type"`
		Item      Item      `json:"item"`
		DeletedAt time.Time `json:"deletedAt"`
	}
)

func (it Item) Ref() Ref {
	return Ref{Type: it.Type, ID: it.ID}
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	out := it
	if it.Size != nil {
		s := *it.Size
		out.Size = &s
	}
	out.FolderID = cloneString(it.FolderID)
	if it.Cells != nil {
		out.Cells = make([][]string, len(it.Cells))
		for i, row := range it.Cells {
			out.Cells[i] = cloneSlice(row)
		}
	}
	out.Todos = cloneSlice(it.Todos)
	out.Images = cloneSlice(it.Images)
	if it.Ink != nil {
		out.Ink = make([]Stroke, len(it.Ink))
		for i, s := range it.Ink {
			out.Ink[i] = s.Clone()
		}
	}
	return out
}

func (s Stroke) Clone() Stroke {
	out := s
	out.Path = cloneSlice(s.Path)
	out.FolderID = cloneString(s.FolderID)
	return out
}

func (c Connection) Clone() Connection {
	out := c
	out.FolderID = cloneString(c.FolderID)
	return out
}

func (e TrashEntry) Clone() TrashEntry {
	out := e
	out.Item = e.Item.Clone()
	return out
}

// InFolder reports whether an entity with folderID belongs to the folder
// scope active. A nil active folder is the root scope.
func InFolder(folderID, active *string) bool {
	if active == nil {
		return folderID == nil
	}
	return folderID != nil && *folderID == *active
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

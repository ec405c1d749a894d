package core

// ItemPatch carries a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Position    *Position   `json:"position,omitempty"`
	Size        *Size       `json:"size,omitempty"`
	FolderID    *string     `json:"folderId,omitempty"`
	ClearFolder bool        `json:"clearFolder,omitempty"`
	Title       *string     `json:"title,omitempty"`
	Content     *string     `json:"content,omitempty"`
	Color       *string     `json:"color,omitempty"`
	Emoji       *string     `json:"emoji,omitempty"`
	Rotation    *float64    `json:"rotation,omitempty"`
	Cells       [][]string  `json:"cells,omitempty"`
	Todos       []TodoEntry `json:"todos,omitempty"`
	ImageRef    *string     `json:"imageRef,omitempty"`
	Images      []string    `json:"images,omitempty"`
	Ink         []Stroke    `json:"paths,omitempty"`

	URL          *string `json:"url,omitempty"`
	PreviewImage *string `json:"previewImage,omitempty"`
	Description  *string `json:"description,omitempty"`
	Provider     *string `json:"provider,omitempty"`
}

// Apply merges the patch into it. Slices are copied so the patch can be reused.
func (p ItemPatch) Apply(it *Item) {
	if p.Position != nil {
		it.Position = *p.Position
	}
	if p.Size != nil {
		s := *p.Size
		it.Size = &s
	}
	if p.ClearFolder {
		it.FolderID = nil
	} else if p.FolderID != nil {
		it.FolderID = cloneString(p.FolderID)
	}
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Content != nil {
		it.Content = *p.Content
	}
	if p.Color != nil {
		it.Color = *p.Color
	}
	if p.Emoji != nil {
		it.Emoji = *p.Emoji
	}
	if p.Rotation != nil {
		it.Rotation = *p.Rotation
	}
	if p.Cells != nil {
		it.Cells = Item{Cells: p.Cells}.Clone().Cells
	}
	if p.Todos != nil {
		it.Todos = cloneSlice(p.Todos)
	}
	if p.ImageRef != nil {
		it.ImageRef = *p.ImageRef
	}
	if p.Images != nil {
		it.Images = cloneSlice(p.Images)
	}
	if p.Ink != nil {
		it.Ink = Item{Ink: p.Ink}.Clone().Ink
	}
	if p.URL != nil {
		it.URL = *p.URL
	}
	if p.PreviewImage != nil {
		it.PreviewImage = *p.PreviewImage
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Provider != nil {
		it.Provider = *p.Provider
	}
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Position == nil && p.Size == nil && p.FolderID == nil && !p.ClearFolder &&
		p.Title == nil && p.Content == nil && p.Color == nil && p.Emoji == nil &&
		p.Rotation == nil && p.Cells == nil && p.Todos == nil && p.ImageRef == nil &&
		p.Images == nil && p.Ink == nil && p.URL == nil && p.PreviewImage == nil &&
		p.Description == nil && p.Provider == nil
}

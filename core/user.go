package core

type (
	// Preferences are the per-user shell settings persisted next to the board.
	Preferences struct {
		Username string `json:"username"`
		Theme    string `json:"theme,omitempty"`
		Premium  bool   `json:"premium"`
	}

	// Stats summarises board contents.
	Stats struct {
		TotalItems  int              `json:"totalItems"`
		TotalNotes  int              `json:"totalNotes"`
		TotalWords  int              `json:"totalWords"`
		TrashCount  int              `json:"trashCount"`
		StrokeCount int              `json:"strokeCount"`
		ByType      map[ItemType]int `json:"byType"`
	}
)

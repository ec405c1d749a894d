package core

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned, possibly wrapped, by stores for absent keys.
var ErrNotFound = errors.New("collection not found")

type (
	// BoardState is every undoable board collection at one committed instant.
	BoardState struct {
		Items       map[ItemType][]Item `json:"items"`
		Drawings    []Stroke            `json:"drawings"`
		Connections []Connection        `json:"connections"`
	}

	// CollectionStore persists opaque collection payloads by key.
	// Load returns an error wrapping ErrNotFound when the key is absent.
	CollectionStore interface {
		Load(ctx context.Context, key string) ([]byte, error)
		Save(ctx context.Context, key string, data []byte) error
	}

	// KeyLister is implemented by stores that can enumerate their keys.
	KeyLister interface {
		Keys(ctx context.Context) ([]string, error)
	}
)

// NewBoardState returns an empty state with a collection for every item type.
func NewBoardState() BoardState {
	st := BoardState{Items: make(map[ItemType][]Item, len(ItemTypes))}
	for _, t := range ItemTypes {
		st.Items[t] = []Item{}
	}
	st.Drawings = []Stroke{}
	st.Connections = []Connection{}
	return st
}

// Clone deep-copies the state.
func (s BoardState) Clone() BoardState {
	out := BoardState{Items: make(map[ItemType][]Item, len(s.Items))}
	for t, items := range s.Items {
		if items == nil {
			out.Items[t] = nil
			continue
		}
		cp := make([]Item, len(items))
		for i, it := range items {
			cp[i] = it.Clone()
		}
		out.Items[t] = cp
	}
	if s.Drawings != nil {
		out.Drawings = make([]Stroke, len(s.Drawings))
		for i, d := range s.Drawings {
			out.Drawings[i] = d.Clone()
		}
	}
	if s.Connections != nil {
		out.Connections = make([]Connection, len(s.Connections))
		for i, c := range s.Connections {
			out.Connections[i] = c.Clone()
		}
	}
	return out
}

// Find returns the index of the item referenced, or -1.
func (s BoardState) Find(ref Ref) int {
	for i, it := range s.Items[ref.Type] {
		if it.ID == ref.ID {
			return i
		}
	}
	return -1
}

// Collection keys. They are stable across releases.
const (
	KeyPrefix       = "anotequest_"
	KeyNotes        = KeyPrefix + "notes"
	KeyStickers     = KeyPrefix + "stickers"
	KeyNoteStickers = KeyPrefix + "note_stickers"
	KeyImages       = KeyPrefix + "images"
	KeyTables       = KeyPrefix + "tables"
	KeyTodos        = KeyPrefix + "todos"
	KeySources      = KeyPrefix + "sources"
	KeyDrawings     = KeyPrefix + "drawings"
	KeyConnections  = KeyPrefix + "connections"
	KeyFolders      = KeyPrefix + "folders"
	KeyTrash        = KeyPrefix + "trash"
	KeyStats        = KeyPrefix + "stats"
	KeyPreferences  = KeyPrefix + "preferences"
)

var itemKeys = map[ItemType]string{
	TypeNote:        KeyNotes,
	TypeSticker:     KeyStickers,
	TypeNoteSticker: KeyNoteStickers,
	TypeImage:       KeyImages,
	TypeTable:       KeyTables,
	TypeTodo:        KeyTodos,
	TypeSource:      KeySources,
}

// CollectionKey returns the storage key of an item collection.
func CollectionKey(t ItemType) string {
	return itemKeys[t]
}

// ItemTypeForKey is the inverse of CollectionKey.
func ItemTypeForKey(key string) (ItemType, bool) {
	for t, k := range itemKeys {
		if k == key {
			return t, true
		}
	}
	return "", false
}

// AllKeys lists every collection key the board persists.
func AllKeys() []string {
	keys := make([]string, 0, len(ItemTypes)+6)
	for _, t := range ItemTypes {
		keys = append(keys, CollectionKey(t))
	}
	return append(keys, KeyDrawings, KeyConnections, KeyFolders, KeyTrash, KeyStats, KeyPreferences)
}

// ValidKey reports whether key is safe to use as a storage name.
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, `/\`)
}

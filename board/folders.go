package board

import (
	"fmt"
	"strings"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/sirupsen/logrus"
)

// AddFolder creates a folder.
func (b *Board) AddFolder(name, color string) (core.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Folder{}, fmt.Errorf("folder name cannot be empty")
	}
	f := core.Folder{ID: b.opts.NewID(), Name: name, Color: color, CreatedAt: b.opts.Now()}
	b.commit(func(c *change) bool {
		b.folders = append(b.folders, f)
		c.touch(core.KeyFolders)
		return true
	})
	return f, nil
}

// RenameFolder changes a folder's name.
func (b *Board) RenameFolder(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("folder name cannot be empty")
	}
	found := false
	b.commit(func(c *change) bool {
		for i := range b.folders {
			if b.folders[i].ID == id {
				b.folders[i].Name = name
				found = true
				c.touch(core.KeyFolders)
				return true
			}
		}
		return false
	})
	if !found {
		return fmt.Errorf("folder with id %s not found", id)
	}
	return nil
}

// DeleteFolder removes a folder and moves every member back to the root.
// Members are never deleted. The active folder resets to root if it was the
// one removed.
func (b *Board) DeleteFolder(id string) bool {
	ok := b.commit(func(c *change) bool {
		idx := -1
		for i, f := range b.folders {
			if f.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return false
		}
		b.folders = append(b.folders[:idx:idx], b.folders[idx+1:]...)
		c.touch(core.KeyFolders)

		for _, t := range core.ItemTypes {
			for i := range b.state.Items[t] {
				if inFolder(b.state.Items[t][i].FolderID, id) {
					b.state.Items[t][i].FolderID = nil
					c.touchType(t)
				}
			}
		}
		for i := range b.state.Drawings {
			if inFolder(b.state.Drawings[i].FolderID, id) {
				b.state.Drawings[i].FolderID = nil
				c.touchDrawings()
			}
		}
		for i := range b.state.Connections {
			if inFolder(b.state.Connections[i].FolderID, id) {
				b.state.Connections[i].FolderID = nil
				c.touchConnections()
			}
		}
		for i := range b.trash {
			if inFolder(b.trash[i].Item.FolderID, id) {
				b.trash[i].Item.FolderID = nil
				c.touch(core.KeyTrash)
			}
		}
		if inFolder(b.active, id) {
			b.active = nil
		}
		return true
	})
	if ok {
		logrus.WithField("folder_id", id).Info("Folder deleted, members moved to root")
	}
	return ok
}

// SetActiveFolder scopes new items, bounds and selection to a folder. A nil
// id selects the root.
func (b *Board) SetActiveFolder(id *string) error {
	if id != nil && !b.hasFolder(*id) {
		return fmt.Errorf("folder with id %s not found", *id)
	}
	if id == nil {
		b.active = nil
	} else {
		v := *id
		b.active = &v
	}
	b.recomputeBounds()
	return nil
}

// ActiveFolder returns the active folder id, nil for root.
func (b *Board) ActiveFolder() *string {
	if b.active == nil {
		return nil
	}
	v := *b.active
	return &v
}

func (b *Board) Folders() []core.Folder {
	return append([]core.Folder{}, b.folders...)
}

func (b *Board) hasFolder(id string) bool {
	for _, f := range b.folders {
		if f.ID == id {
			return true
		}
	}
	return false
}

func inFolder(folderID *string, id string) bool {
	return folderID != nil && *folderID == id
}

// orphansToRoot moves members of folders that no longer exist to the root so
// they stay reachable. It reports how many members moved.
func (b *Board) orphansToRoot(st *core.BoardState) int {
	dangling := func(id *string) bool { return id != nil && !b.hasFolder(*id) }
	n := 0
	for _, t := range core.ItemTypes {
		for i := range st.Items[t] {
			if dangling(st.Items[t][i].FolderID) {
				st.Items[t][i].FolderID = nil
				n++
			}
		}
	}
	for i := range st.Drawings {
		if dangling(st.Drawings[i].FolderID) {
			st.Drawings[i].FolderID = nil
			n++
		}
	}
	for i := range st.Connections {
		if dangling(st.Connections[i].FolderID) {
			st.Connections[i].FolderID = nil
			n++
		}
	}
	return n
}

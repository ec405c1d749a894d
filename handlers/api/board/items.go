package board

import (
	"net/http"

	"github.com/go-chi/render"
	engine "github.com/neti77/anotequest-v1-sub000/board"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/session"
	"github.com/sirupsen/logrus"
)

// HandleListItems lists visible items. ?type= narrows to one collection and
// ?q= searches notes by title and content.
func HandleListItems(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		q := r.URL.Query()
		t := core.ItemType(q.Get("type"))
		if t != "" && !t.Valid() {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Unknown item type"})
			return
		}

		items := []core.Item{}
		s.Do(func(b *engine.Board) {
			if _, search := q["q"]; search {
				items = append(items, b.Search(q.Get("q"))...)
				return
			}
			for _, it := range core.ItemTypes {
				if t == "" || t == it {
					items = append(items, b.Visible(it)...)
				}
			}
		})
		render.JSON(w, r, items)
	}
}

// HandleAddItem creates an item from a partial body. A capacity rejection
// answers 403 with the failure.
func HandleAddItem(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		ref, ok := itemRef(w, r)
		if !ok {
			return
		}
		var patch core.ItemPatch
		if r.ContentLength != 0 && !decode(w, r, &patch) {
			return
		}

		it, fail := s.Add(ref.Type, patch)
		if fail != nil {
			logrus.WithFields(logrus.Fields{"type": ref.Type, "reason": fail.Reason}).Info("Item rejected")
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, fail)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, it)
	}
}

func HandleGetItem(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		ref, ok := itemRef(w, r)
		if !ok {
			return
		}
		var it core.Item
		var found bool
		s.Do(func(b *engine.Board) { it, found = b.Get(ref) })
		if !found {
			notFound(w, r, "Item")
			return
		}
		render.JSON(w, r, it)
	}
}

// HandleUpdateItem merges a partial body into the item.
func HandleUpdateItem(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		ref, ok := itemRef(w, r)
		if !ok {
			return
		}
		var patch core.ItemPatch
		if !decode(w, r, &patch) {
			return
		}

		var found bool
		s.Do(func(b *engine.Board) { _, found = b.Get(ref) })
		if !found {
			notFound(w, r, "Item")
			return
		}
		s.Update(ref, patch)

		var it core.Item
		s.Do(func(b *engine.Board) { it, _ = b.Get(ref) })
		render.JSON(w, r, it)
	}
}

// HandleDeleteItem moves the item to the trash.
func HandleDeleteItem(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		ref, ok := itemRef(w, r)
		if !ok {
			return
		}
		var entry core.TrashEntry
		var deleted bool
		s.Do(func(b *engine.Board) { entry, deleted = b.SoftDelete(ref) })
		if !deleted {
			notFound(w, r, "Item")
			return
		}
		render.JSON(w, r, entry)
	}
}

func HandleDuplicateItem(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		ref, ok := itemRef(w, r)
		if !ok {
			return
		}
		var dup core.Item
		var done, exists bool
		s.Do(func(b *engine.Board) {
			_, exists = b.Get(ref)
			if exists {
				dup, done = b.Duplicate(ref)
			}
		})
		switch {
		case !exists:
			notFound(w, r, "Item")
		case !done:
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, map[string]string{"error": "Item limit reached"})
		default:
			render.Status(r, http.StatusCreated)
			render.JSON(w, r, dup)
		}
	}
}

// HandleClearInk empties the ink layer of a note sticker.
func HandleClearInk(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		ref, ok := itemRef(w, r)
		if !ok {
			return
		}
		if ref.Type != core.TypeNoteSticker {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Only note stickers carry ink"})
			return
		}
		var found bool
		s.Do(func(b *engine.Board) {
			_, found = b.Get(ref)
			if found {
				b.ClearInk(ref.ID)
			}
		})
		if !found {
			notFound(w, r, "Item")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type SelectionRequest struct {
	Refs       []core.Ref `json:"refs"`
	SelectMode *bool      `json:"selectMode,omitempty"`
}

type SelectionResponse struct {
	Refs       []core.Ref `json:"refs"`
	SelectMode bool       `json:"selectMode"`
}

func selectionOf(s *session.Session) SelectionResponse {
	refs := s.Selection()
	if refs == nil {
		refs = []core.Ref{}
	}
	return SelectionResponse{Refs: refs, SelectMode: s.SelectMode()}
}

func HandleGetSelection(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		render.JSON(w, r, selectionOf(s))
	}
}

// HandleSetSelection replaces the selection. Refs that do not exist are
// dropped.
func HandleSetSelection(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var req SelectionRequest
		if !decode(w, r, &req) {
			return
		}
		if req.SelectMode != nil {
			s.SetSelectMode(*req.SelectMode)
		}
		s.Select(req.Refs...)
		render.JSON(w, r, selectionOf(s))
	}
}

// HandleClearSelection empties the selection without touching the items.
func HandleClearSelection(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		s.ClearSelection()
		render.JSON(w, r, selectionOf(s))
	}
}

// HandleTrashSelection moves every selected item to the trash.
func HandleTrashSelection(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		render.JSON(w, r, map[string]int{"deleted": s.DeleteSelection()})
	}
}

package board

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	engine "github.com/neti77/anotequest-v1-sub000/board"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/geometry"
)

func HandleListTrash(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var entries []core.TrashEntry
		s.Do(func(b *engine.Board) { entries = b.Trash() })
		if entries == nil {
			entries = []core.TrashEntry{}
		}
		render.JSON(w, r, entries)
	}
}

// HandleRestore puts a trashed item back on the board.
func HandleRestore(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		var it core.Item
		var restored bool
		s.Do(func(b *engine.Board) { it, restored = b.Restore(id) })
		if !restored {
			notFound(w, r, "Trash entry")
			return
		}
		render.JSON(w, r, it)
	}
}

// HandlePurge deletes a trash entry permanently.
func HandlePurge(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		var purged bool
		s.Do(func(b *engine.Board) { purged = b.Purge(id) })
		if !purged {
			notFound(w, r, "Trash entry")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleEmptyTrash(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var n int
		s.Do(func(b *engine.Board) { n = b.EmptyTrash() })
		render.JSON(w, r, map[string]int{"purged": n})
	}
}

// TrashZoneRequest is the screen rectangle of the shell's trash target. A
// null rect removes the target.
type TrashZoneRequest struct {
	Rect *geometry.Rect `json:"rect"`
}

func HandleSetTrashZone(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var req TrashZoneRequest
		if !decode(w, r, &req) {
			return
		}
		if req.Rect != nil && (req.Rect.Width <= 0 || req.Rect.Height <= 0) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Trash zone must have a positive size"})
			return
		}
		s.SetTrashZone(req.Rect)
		w.WriteHeader(http.StatusNoContent)
	}
}

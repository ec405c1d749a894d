// Package board serves the board engine of the signed-in user over HTTP.
package board

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	engine "github.com/neti77/anotequest-v1-sub000/board"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/handlers/auth"
	"github.com/neti77/anotequest-v1-sub000/middleware"
	"github.com/neti77/anotequest-v1-sub000/session"
	"github.com/sirupsen/logrus"
)

// Sessions resolves the session of a board id.
type Sessions interface {
	Get(ctx context.Context, boardID string) (*session.Session, error)
}

// Routes mounts every board endpoint. The caller installs the auth
// middleware that provides the claims.
func Routes(sessions Sessions) chi.Router {
	r := chi.NewRouter()
	r.Get("/", HandleGetState(sessions))
	r.Get("/stats", HandleGetStats(sessions))
	r.Get("/extent", HandleGetExtent(sessions))

	r.Route("/items", func(r chi.Router) {
		r.Get("/", HandleListItems(sessions))
		r.Route("/{type}", func(r chi.Router) {
			r.Post("/", HandleAddItem(sessions))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", HandleGetItem(sessions))
				r.Patch("/", HandleUpdateItem(sessions))
				r.Delete("/", HandleDeleteItem(sessions))
				r.Post("/duplicate", HandleDuplicateItem(sessions))
				r.Delete("/ink", HandleClearInk(sessions))
			})
		})
	})

	r.Route("/trash", func(r chi.Router) {
		r.Get("/", HandleListTrash(sessions))
		r.Delete("/", HandleEmptyTrash(sessions))
		r.Post("/{id}/restore", HandleRestore(sessions))
		r.Delete("/{id}", HandlePurge(sessions))
	})
	r.Put("/trash-zone", HandleSetTrashZone(sessions))

	r.Route("/folders", func(r chi.Router) {
		r.Get("/", HandleListFolders(sessions))
		r.Post("/", HandleAddFolder(sessions))
		r.Put("/active", HandleSetActiveFolder(sessions))
		r.Patch("/{id}", HandleRenameFolder(sessions))
		r.Delete("/{id}", HandleDeleteFolder(sessions))
	})

	r.Route("/history", func(r chi.Router) {
		r.Get("/", HandleGetHistory(sessions))
		r.Post("/undo", HandleUndo(sessions))
		r.Post("/redo", HandleRedo(sessions))
	})

	r.Route("/drawings", func(r chi.Router) {
		r.Get("/", HandleListDrawings(sessions))
		r.Post("/", HandleAddDrawing(sessions))
		r.Delete("/", HandleClearDrawings(sessions))
		r.Delete("/{id}", HandleDeleteDrawing(sessions))
	})

	r.Route("/connections", func(r chi.Router) {
		r.Get("/", HandleListConnections(sessions))
		r.Post("/", HandleConnect(sessions))
		r.Delete("/{id}", HandleDisconnect(sessions))
	})

	r.Route("/selection", func(r chi.Router) {
		r.Get("/", HandleGetSelection(sessions))
		r.Put("/", HandleSetSelection(sessions))
		r.Delete("/", HandleClearSelection(sessions))
		r.Post("/trash", HandleTrashSelection(sessions))
	})

	r.Get("/view", HandleGetView(sessions))
	r.Put("/view", HandleSetView(sessions))
	r.Get("/preferences", HandleGetPreferences(sessions))
	r.Put("/preferences", HandleSetPreferences(sessions))
	return r
}

// boardSession resolves the session of the caller. It writes the error
// response itself and returns false when the request cannot proceed.
func boardSession(w http.ResponseWriter, r *http.Request, sessions Sessions) (*session.Session, bool) {
	claims, ok := r.Context().Value(middleware.ClaimsContextKey).(*auth.AppClaims)
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]string{"error": "User claims not found"})
		return nil, false
	}
	s, err := sessions.Get(r.Context(), claims.Subject)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"error":  err,
			"userID": claims.Subject,
		}).Error("Failed to open board")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "Failed to open board"})
		return nil, false
	}
	return s, true
}

func itemRef(w http.ResponseWriter, r *http.Request) (core.Ref, bool) {
	t := core.ItemType(chi.URLParam(r, "type"))
	if !t.Valid() {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "Unknown item type"})
		return core.Ref{}, false
	}
	return core.Ref{Type: t, ID: chi.URLParam(r, "id")}, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logrus.WithField("error", err).Debug("Failed to decode request")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "Invalid request body"})
		return false
	}
	return true
}

func notFound(w http.ResponseWriter, r *http.Request, what string) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, map[string]string{"error": what + " not found"})
}

// HandleGetState returns the full live board.
func HandleGetState(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var st core.BoardState
		s.Do(func(b *engine.Board) { st = b.State() })
		render.JSON(w, r, st)
	}
}

func HandleGetStats(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var stats core.Stats
		s.Do(func(b *engine.Board) { stats = b.Stats() })
		render.JSON(w, r, stats)
	}
}

func HandleGetExtent(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var ext core.Size
		s.Do(func(b *engine.Board) { ext = b.Extent() })
		render.JSON(w, r, ext)
	}
}

type HistoryResponse struct {
	Cursor  int  `json:"cursor"`
	Length  int  `json:"length"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

func historyOf(s *session.Session) HistoryResponse {
	var h HistoryResponse
	s.Do(func(b *engine.Board) {
		h.Cursor, h.Length = b.HistoryInfo()
		h.CanUndo = b.CanUndo()
		h.CanRedo = b.CanRedo()
	})
	return h
}

func HandleGetHistory(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		render.JSON(w, r, historyOf(s))
	}
}

// HandleUndo steps back one snapshot. Undo at the start of history is a
// no-op and still answers 200.
func HandleUndo(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		s.Undo()
		render.JSON(w, r, historyOf(s))
	}
}

func HandleRedo(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		s.Redo()
		render.JSON(w, r, historyOf(s))
	}
}

func HandleGetPreferences(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		render.JSON(w, r, s.Preferences())
	}
}

func HandleSetPreferences(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var p core.Preferences
		if !decode(w, r, &p) {
			return
		}
		s.SetPreferences(p)
		render.JSON(w, r, p)
	}
}

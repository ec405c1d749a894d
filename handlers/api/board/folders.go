package board

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	engine "github.com/neti77/anotequest-v1-sub000/board"
	"github.com/neti77/anotequest-v1-sub000/core"
)

type (
	FolderRequest struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}

	// ActiveFolderRequest selects a folder; a null id selects the root.
	ActiveFolderRequest struct {
		ID *string `json:"id"`
	}

	FoldersResponse struct {
		Folders []core.Folder `json:"folders"`
		Active  *string       `json:"active"`
	}
)

func HandleListFolders(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var resp FoldersResponse
		s.Do(func(b *engine.Board) {
			resp.Folders = b.Folders()
			resp.Active = b.ActiveFolder()
		})
		if resp.Folders == nil {
			resp.Folders = []core.Folder{}
		}
		render.JSON(w, r, resp)
	}
}

func HandleAddFolder(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var req FolderRequest
		if !decode(w, r, &req) {
			return
		}
		var f core.Folder
		var err error
		s.Do(func(b *engine.Board) { f, err = b.AddFolder(req.Name, req.Color) })
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, f)
	}
}

func HandleRenameFolder(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		var req FolderRequest
		if !decode(w, r, &req) {
			return
		}
		var err error
		var exists bool
		s.Do(func(b *engine.Board) {
			for _, f := range b.Folders() {
				if f.ID == id {
					exists = true
				}
			}
			if exists {
				err = b.RenameFolder(id, req.Name)
			}
		})
		if !exists {
			notFound(w, r, "Folder")
			return
		}
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleDeleteFolder removes a folder. Its members move to the root.
func HandleDeleteFolder(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		var deleted bool
		s.Do(func(b *engine.Board) { deleted = b.DeleteFolder(id) })
		if !deleted {
			notFound(w, r, "Folder")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleSetActiveFolder(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var req ActiveFolderRequest
		if !decode(w, r, &req) {
			return
		}
		var err error
		s.Do(func(b *engine.Board) { err = b.SetActiveFolder(req.ID) })
		if err != nil {
			notFound(w, r, "Folder")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

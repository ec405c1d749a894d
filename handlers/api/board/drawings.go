package board

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	engine "github.com/neti77/anotequest-v1-sub000/board"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/drawing"
	"github.com/sirupsen/logrus"
)

type (
	// DrawingRequest adds a finished stroke. Either Path or an SVG path in
	// D is required; Brush defaults to the session brush.
	DrawingRequest struct {
		Path  []core.Position `json:"path,omitempty"`
		D     string          `json:"d,omitempty"`
		Brush *drawing.Brush  `json:"brush,omitempty"`
		// NoteSticker targets the ink layer of a note sticker instead of the
		// board.
		NoteSticker string `json:"noteSticker,omitempty"`
	}

	StrokeResponse struct {
		core.Stroke
		SVG string `json:"svg"`
	}
)

func HandleListDrawings(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var strokes []core.Stroke
		s.Do(func(b *engine.Board) { strokes = b.Drawings() })
		out := make([]StrokeResponse, 0, len(strokes))
		for _, st := range strokes {
			out = append(out, StrokeResponse{Stroke: st, SVG: drawing.PathData(st.Path)})
		}
		render.JSON(w, r, out)
	}
}

// HandleAddDrawing commits a stroke drawn by the shell.
func HandleAddDrawing(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var req DrawingRequest
		if !decode(w, r, &req) {
			return
		}
		brush := s.Brush()
		if req.Brush != nil {
			brush = *req.Brush
		}

		var st core.Stroke
		if req.D != "" {
			parsed, err := drawing.StrokeFromPath(req.D, brush)
			if err != nil {
				logrus.WithField("error", err).Debug("Failed to parse svg path")
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, map[string]string{"error": "Invalid path data"})
				return
			}
			st = parsed
		} else {
			st = core.Stroke{Path: req.Path, Color: brush.Color, BrushWidth: brush.Width, Tool: brush.Tool, IsEraser: brush.Eraser}
			if st.IsEraser {
				st.BrushWidth *= drawing.EraserFactor
				st.Tool = core.ToolFreehand
			}
		}

		if req.NoteSticker != "" {
			var appended bool
			s.Do(func(b *engine.Board) { appended = b.AppendInk(req.NoteSticker, st) })
			if !appended {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, map[string]string{"error": "Stroke not added to note sticker"})
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		var out core.Stroke
		var err error
		s.Do(func(b *engine.Board) { out, err = b.AddStroke(st) })
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, StrokeResponse{Stroke: out, SVG: drawing.PathData(out.Path)})
	}
}

func HandleDeleteDrawing(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		var removed bool
		s.Do(func(b *engine.Board) { removed = b.RemoveStroke(id) })
		if !removed {
			notFound(w, r, "Stroke")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleClearDrawings(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var n int
		s.Do(func(b *engine.Board) { n = b.ClearDrawings() })
		render.JSON(w, r, map[string]int{"cleared": n})
	}
}

type ConnectRequest struct {
	From  core.Ref `json:"from"`
	To    core.Ref `json:"to"`
	Color string   `json:"color"`
}

type ConnectionsResponse struct {
	Connections []core.Connection `json:"connections"`
	Curves      []engine.Curve    `json:"curves"`
}

func HandleListConnections(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		resp := ConnectionsResponse{Connections: []core.Connection{}, Curves: []engine.Curve{}}
		s.Do(func(b *engine.Board) {
			resp.Connections = append(resp.Connections, b.Connections()...)
			resp.Curves = append(resp.Curves, b.Curves()...)
		})
		render.JSON(w, r, resp)
	}
}

func HandleConnect(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var req ConnectRequest
		if !decode(w, r, &req) {
			return
		}
		var conn core.Connection
		var err error
		s.Do(func(b *engine.Board) { conn, err = b.Connect(req.From, req.To, req.Color) })
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, conn)
	}
}

func HandleDisconnect(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		var removed bool
		s.Do(func(b *engine.Board) { removed = b.Disconnect(id) })
		if !removed {
			notFound(w, r, "Connection")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

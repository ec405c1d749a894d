package board

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/drawing"
)

// ViewRequest adjusts the viewport. Fields apply in order: reset, scale or
// zoom steps, wheel, then scroll.
type ViewRequest struct {
	Reset  bool           `json:"reset,omitempty"`
	Scale  *float64       `json:"scale,omitempty"`
	Steps  int            `json:"steps,omitempty"`
	WheelY *float64       `json:"wheelDeltaY,omitempty"`
	Anchor core.Position  `json:"anchor"`
	Scroll *core.Position `json:"scroll,omitempty"`
	Brush  *drawing.Brush `json:"brush,omitempty"`
}

func HandleGetView(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		render.JSON(w, r, s.View())
	}
}

func HandleSetView(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := boardSession(w, r, sessions)
		if !ok {
			return
		}
		var req ViewRequest
		if !decode(w, r, &req) {
			return
		}
		if req.Reset {
			s.ResetView()
		}
		if req.Scale != nil {
			s.SetZoom(*req.Scale, req.Anchor)
		}
		if req.Steps != 0 {
			s.Zoom(req.Steps, req.Anchor)
		}
		if req.WheelY != nil {
			s.Wheel(*req.WheelY, req.Anchor)
		}
		if req.Scroll != nil {
			s.SetScroll(*req.Scroll)
		}
		if req.Brush != nil {
			s.SetBrush(*req.Brush)
		}
		render.JSON(w, r, s.View())
	}
}

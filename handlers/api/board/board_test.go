package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	engine "github.com/neti77/anotequest-v1-sub000/board"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/handlers/auth"
	"github.com/neti77/anotequest-v1-sub000/middleware"
	"github.com/neti77/anotequest-v1-sub000/session"
)

// mockSessions serves one in-memory session and can inject open failures.
type mockSessions struct {
	s      *session.Session
	getErr error
}

func newMockSessions(opts session.Options) *mockSessions {
	return &mockSessions{s: session.New(auth.LocalSubject, nil, opts)}
}

func (m *mockSessions) Get(ctx context.Context, boardID string) (*session.Session, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.s, nil
}

// serve routes a request through the full router with local claims.
func serve(sessions Sessions, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req = req.WithContext(context.WithValue(req.Context(), middleware.ClaimsContextKey, auth.LocalClaims()))
	rec := httptest.NewRecorder()
	Routes(sessions).ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestHandleAddItem(t *testing.T) {
	sessions := newMockSessions(session.Options{})

	rec := serve(sessions, http.MethodPost, "/items/note", map[string]any{"title": "Hello"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusCreated)
	}
	var it core.Item
	decodeBody(t, rec, &it)
	if it.ID == "" || it.Title != "Hello" || it.Type != core.TypeNote {
		t.Errorf("item = %+v", it)
	}

	rec = serve(sessions, http.MethodPost, "/items/sticker", nil)
	if rec.Code != http.StatusCreated {
		t.Errorf("empty body: got %d, want %d", rec.Code, http.StatusCreated)
	}

	rec = serve(sessions, http.MethodPost, "/items/widget", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown type: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleAddItem_CapacityFailure(t *testing.T) {
	sessions := newMockSessions(session.Options{Board: engine.Options{FreeTierLimit: 1}})
	serve(sessions, http.MethodPost, "/items/note", map[string]any{})

	rec := serve(sessions, http.MethodPost, "/items/note", map[string]any{})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusForbidden)
	}
	var fail engine.AddFailure
	decodeBody(t, rec, &fail)
	if fail.Limit != 1 || fail.Type != core.TypeNote || fail.Reason == "" {
		t.Errorf("failure = %+v", fail)
	}

	serve(sessions, http.MethodPut, "/preferences", core.Preferences{Username: "ada", Premium: true})
	if rec := serve(sessions, http.MethodPost, "/items/note", map[string]any{}); rec.Code != http.StatusCreated {
		t.Errorf("premium add: got %d, want %d", rec.Code, http.StatusCreated)
	}
}

func TestItemLifecycle(t *testing.T) {
	sessions := newMockSessions(session.Options{})
	rec := serve(sessions, http.MethodPost, "/items/todo", map[string]any{"position": map[string]float64{"x": 10, "y": 20}})
	var it core.Item
	decodeBody(t, rec, &it)
	path := "/items/todo/" + it.ID

	rec = serve(sessions, http.MethodPatch, path, map[string]any{"title": "Groceries"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got %d", rec.Code)
	}
	var updated core.Item
	decodeBody(t, rec, &updated)
	if updated.Title != "Groceries" || updated.Position != (core.Position{X: 10, Y: 20}) {
		t.Errorf("updated = %+v", updated)
	}

	if rec := serve(sessions, http.MethodPost, path+"/duplicate", nil); rec.Code != http.StatusCreated {
		t.Errorf("duplicate: got %d", rec.Code)
	}

	rec = serve(sessions, http.MethodDelete, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: got %d", rec.Code)
	}
	var entry core.TrashEntry
	decodeBody(t, rec, &entry)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"get deleted", http.MethodGet, path, http.StatusNotFound},
		{"update deleted", http.MethodPatch, path, http.StatusNotFound},
		{"delete twice", http.MethodDelete, path, http.StatusNotFound},
		{"restore", http.MethodPost, "/trash/" + entry.ID + "/restore", http.StatusOK},
		{"get restored", http.MethodGet, path, http.StatusOK},
		{"restore again", http.MethodPost, "/trash/" + entry.ID + "/restore", http.StatusNotFound},
		{"purge missing", http.MethodDelete, "/trash/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body any
			if tt.method == http.MethodPatch {
				body = map[string]any{"title": "x"}
			}
			if rec := serve(sessions, tt.method, tt.path, body); rec.Code != tt.want {
				t.Errorf("Status code mismatch: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleUndoRedo(t *testing.T) {
	sessions := newMockSessions(session.Options{})
	serve(sessions, http.MethodPost, "/items/note", map[string]any{})
	serve(sessions, http.MethodPost, "/items/note", map[string]any{})

	rec := serve(sessions, http.MethodPost, "/history/undo", nil)
	var h HistoryResponse
	decodeBody(t, rec, &h)
	if !h.CanRedo || !h.CanUndo || h.Cursor != 1 {
		t.Errorf("history after undo = %+v", h)
	}

	var items []core.Item
	decodeBody(t, serve(sessions, http.MethodGet, "/items?type=note", nil), &items)
	if len(items) != 1 {
		t.Errorf("notes after undo = %d, want 1", len(items))
	}

	decodeBody(t, serve(sessions, http.MethodPost, "/history/redo", nil), &h)
	if h.CanRedo {
		t.Errorf("history after redo = %+v", h)
	}
}

func TestHandleListItems_Search(t *testing.T) {
	sessions := newMockSessions(session.Options{})
	serve(sessions, http.MethodPost, "/items/note", map[string]any{"title": "Shopping list"})
	serve(sessions, http.MethodPost, "/items/note", map[string]any{"title": "Ideas", "content": "buy a lamp"})
	serve(sessions, http.MethodPost, "/items/sticker", map[string]any{})

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?type=note", 2},
		{"?q=shop", 1},
		{"?q=LAMP", 1},
		{"?q=", 2},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var items []core.Item
			decodeBody(t, serve(sessions, http.MethodGet, "/items"+tt.query, nil), &items)
			if len(items) != tt.want {
				t.Errorf("items = %d, want %d", len(items), tt.want)
			}
		})
	}
}

func TestFolders(t *testing.T) {
	sessions := newMockSessions(session.Options{})
	rec := serve(sessions, http.MethodPost, "/folders", FolderRequest{Name: "Work"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add folder: got %d", rec.Code)
	}
	var f core.Folder
	decodeBody(t, rec, &f)

	if rec := serve(sessions, http.MethodPost, "/folders", FolderRequest{Name: " "}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank folder: got %d", rec.Code)
	}
	if rec := serve(sessions, http.MethodPut, "/folders/active", ActiveFolderRequest{ID: &f.ID}); rec.Code != http.StatusNoContent {
		t.Fatalf("activate: got %d", rec.Code)
	}
	missing := "missing"
	if rec := serve(sessions, http.MethodPut, "/folders/active", ActiveFolderRequest{ID: &missing}); rec.Code != http.StatusNotFound {
		t.Errorf("activate missing: got %d", rec.Code)
	}

	var it core.Item
	decodeBody(t, serve(sessions, http.MethodPost, "/items/note", map[string]any{}), &it)
	if it.FolderID == nil || *it.FolderID != f.ID {
		t.Errorf("note folder = %v, want %s", it.FolderID, f.ID)
	}

	if rec := serve(sessions, http.MethodPatch, "/folders/"+f.ID, FolderRequest{Name: "Home"}); rec.Code != http.StatusNoContent {
		t.Errorf("rename: got %d", rec.Code)
	}
	if rec := serve(sessions, http.MethodPatch, "/folders/missing", FolderRequest{Name: "Home"}); rec.Code != http.StatusNotFound {
		t.Errorf("rename missing: got %d", rec.Code)
	}
	if rec := serve(sessions, http.MethodDelete, "/folders/"+f.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete folder: got %d", rec.Code)
	}

	var got core.Item
	decodeBody(t, serve(sessions, http.MethodGet, "/items/note/"+it.ID, nil), &got)
	if got.FolderID != nil {
		t.Errorf("member not moved to root: %v", *got.FolderID)
	}
	var list FoldersResponse
	decodeBody(t, serve(sessions, http.MethodGet, "/folders", nil), &list)
	if len(list.Folders) != 0 || list.Active != nil {
		t.Errorf("folders = %+v", list)
	}
}

func TestDrawings(t *testing.T) {
	sessions := newMockSessions(session.Options{})

	rec := serve(sessions, http.MethodPost, "/drawings", DrawingRequest{D: "M 0 0 L 10 10 L 20 0"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("svg stroke: got %d", rec.Code)
	}
	var st StrokeResponse
	decodeBody(t, rec, &st)
	if len(st.Path) != 3 || st.SVG != "M 0 0 L 10 10 L 20 0" {
		t.Errorf("stroke = %+v", st)
	}

	tests := []struct {
		name string
		req  DrawingRequest
		want int
	}{
		{"single point", DrawingRequest{Path: []core.Position{{X: 1, Y: 1}}}, http.StatusBadRequest},
		{"bad svg", DrawingRequest{D: "garbage"}, http.StatusBadRequest},
		{"points", DrawingRequest{Path: []core.Position{{X: 1, Y: 1}, {X: 2, Y: 2}}}, http.StatusCreated},
		{"missing sticker", DrawingRequest{Path: []core.Position{{X: 1, Y: 1}, {X: 2, Y: 2}}, NoteSticker: "nope"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serve(sessions, http.MethodPost, "/drawings", tt.req); rec.Code != tt.want {
				t.Errorf("Status code mismatch: got %d, want %d", rec.Code, tt.want)
			}
		})
	}

	if rec := serve(sessions, http.MethodDelete, "/drawings/"+st.ID, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete stroke: got %d", rec.Code)
	}
	var cleared map[string]int
	decodeBody(t, serve(sessions, http.MethodDelete, "/drawings", nil), &cleared)
	if cleared["cleared"] != 1 {
		t.Errorf("cleared = %v, want 1", cleared)
	}
}

func TestConnections(t *testing.T) {
	sessions := newMockSessions(session.Options{})
	var a, b core.Item
	decodeBody(t, serve(sessions, http.MethodPost, "/items/note", map[string]any{"position": map[string]float64{"x": 0, "y": 0}}), &a)
	decodeBody(t, serve(sessions, http.MethodPost, "/items/note", map[string]any{"position": map[string]float64{"x": 600, "y": 0}}), &b)

	rec := serve(sessions, http.MethodPost, "/connections", ConnectRequest{From: a.Ref(), To: b.Ref()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("connect: got %d", rec.Code)
	}
	if rec := serve(sessions, http.MethodPost, "/connections", ConnectRequest{From: a.Ref(), To: a.Ref()}); rec.Code != http.StatusBadRequest {
		t.Errorf("self connect: got %d", rec.Code)
	}

	var list ConnectionsResponse
	decodeBody(t, serve(sessions, http.MethodGet, "/connections", nil), &list)
	if len(list.Connections) != 1 || len(list.Curves) != 1 {
		t.Fatalf("connections = %+v", list)
	}

	serve(sessions, http.MethodDelete, "/items/note/"+b.ID, nil)
	decodeBody(t, serve(sessions, http.MethodGet, "/connections", nil), &list)
	if len(list.Connections) != 0 {
		t.Errorf("connection to a deleted item survived: %+v", list.Connections)
	}
}

func TestViewAndTrashZone(t *testing.T) {
	sessions := newMockSessions(session.Options{})

	scale := 5.0
	var v session.ViewState
	decodeBody(t, serve(sessions, http.MethodPut, "/view", ViewRequest{Scale: &scale}), &v)
	if v.Scale != 3 {
		t.Errorf("scale = %v, want clamp to 3", v.Scale)
	}
	decodeBody(t, serve(sessions, http.MethodPut, "/view", ViewRequest{Reset: true, Steps: -1}), &v)
	if v.Scale != 0.75 {
		t.Errorf("scale = %v, want 0.75", v.Scale)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"set", `{"rect":{"x":0,"y":0,"width":80,"height":80}}`, http.StatusNoContent},
		{"clear", `{"rect":null}`, http.StatusNoContent},
		{"zero size", `{"rect":{"x":0,"y":0,"width":0,"height":80}}`, http.StatusBadRequest},
		{"invalid", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/trash-zone", bytes.NewReader([]byte(tt.body)))
			req = req.WithContext(context.WithValue(req.Context(), middleware.ClaimsContextKey, auth.LocalClaims()))
			rec := httptest.NewRecorder()
			HandleSetTrashZone(sessions)(rec, req)
			if rec.Code != tt.want {
				t.Errorf("Status code mismatch: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSelectionEndpoints(t *testing.T) {
	sessions := newMockSessions(session.Options{})
	var a core.Item
	decodeBody(t, serve(sessions, http.MethodPost, "/items/note", map[string]any{}), &a)

	ghost := core.Ref{Type: core.TypeNote, ID: "ghost"}
	var sel SelectionResponse
	decodeBody(t, serve(sessions, http.MethodPut, "/selection", SelectionRequest{Refs: []core.Ref{a.Ref(), ghost}}), &sel)
	if len(sel.Refs) != 1 || sel.Refs[0] != a.Ref() {
		t.Errorf("selection = %+v", sel)
	}

	decodeBody(t, serve(sessions, http.MethodDelete, "/selection", nil), &sel)
	if len(sel.Refs) != 0 {
		t.Errorf("selection after clear = %+v", sel)
	}
	if rec := serve(sessions, http.MethodGet, "/items/note/"+a.ID, nil); rec.Code != http.StatusOK {
		t.Errorf("clearing the selection removed the item: status %d", rec.Code)
	}
	var trash []core.TrashEntry
	decodeBody(t, serve(sessions, http.MethodGet, "/trash", nil), &trash)
	if len(trash) != 0 {
		t.Errorf("trash after clear = %d entries, want 0", len(trash))
	}

	decodeBody(t, serve(sessions, http.MethodPut, "/selection", SelectionRequest{Refs: []core.Ref{a.Ref()}}), &sel)
	var deleted map[string]int
	decodeBody(t, serve(sessions, http.MethodPost, "/selection/trash", nil), &deleted)
	if deleted["deleted"] != 1 {
		t.Errorf("deleted = %v", deleted)
	}
	decodeBody(t, serve(sessions, http.MethodGet, "/selection", nil), &sel)
	if len(sel.Refs) != 0 {
		t.Errorf("selection after trash = %+v", sel)
	}
}

func TestHandlers_Errors(t *testing.T) {
	t.Run("no claims", func(t *testing.T) {
		sessions := newMockSessions(session.Options{})
		req := httptest.NewRequest(http.MethodGet, "/stats", http.NoBody)
		rec := httptest.NewRecorder()
		HandleGetStats(sessions)(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("open failure", func(t *testing.T) {
		sessions := newMockSessions(session.Options{})
		sessions.getErr = fmt.Errorf("store unavailable")
		if rec := serve(sessions, http.MethodGet, "/", nil); rec.Code != http.StatusInternalServerError {
			t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusInternalServerError)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		sessions := newMockSessions(session.Options{})
		req := httptest.NewRequest(http.MethodPatch, "/items/note/x", bytes.NewReader([]byte("invalid json")))
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("type", "note")
		rctx.URLParams.Add("id", "x")
		ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
		req = req.WithContext(context.WithValue(ctx, middleware.ClaimsContextKey, auth.LocalClaims()))
		rec := httptest.NewRecorder()
		HandleUpdateItem(sessions)(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestHandleGetStats(t *testing.T) {
	sessions := newMockSessions(session.Options{})
	serve(sessions, http.MethodPost, "/items/note", map[string]any{"content": "one two three"})

	var stats core.Stats
	decodeBody(t, serve(sessions, http.MethodGet, "/stats", nil), &stats)
	if stats.TotalNotes != 1 || stats.TotalItems != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

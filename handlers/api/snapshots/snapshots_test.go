package snapshots

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/neti77/anotequest-v1-sub000/board"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/handlers/auth"
	"github.com/neti77/anotequest-v1-sub000/middleware"
	"github.com/neti77/anotequest-v1-sub000/session"
	"github.com/neti77/anotequest-v1-sub000/stores/memory"
)

// Mock snapshot store for testing
type mockSnapshotStore struct {
	snapshots map[string]*Snapshot
	createErr error
	listErr   error
	getErr    error
}

func newMockSnapshotStore() *mockSnapshotStore {
	return &mockSnapshotStore{snapshots: make(map[string]*Snapshot)}
}

func (m *mockSnapshotStore) CreateSnapshot(ctx context.Context, boardID string, snap Snapshot) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.snapshots[boardID+"/"+snap.ID] = &snap
	return nil
}

func (m *mockSnapshotStore) ListSnapshots(ctx context.Context, boardID string) ([]Meta, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []Meta
	for key, snap := range m.snapshots {
		if strings.HasPrefix(key, boardID+"/") {
			out = append(out, snap.Meta)
		}
	}
	return out, nil
}

func (m *mockSnapshotStore) GetSnapshot(ctx context.Context, boardID, id string) (*Snapshot, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	snap, exists := m.snapshots[boardID+"/"+id]
	if !exists {
		return nil, fmt.Errorf("snapshot with id %s not found", id)
	}
	return snap, nil
}

func newRequest(method, target string, body []byte, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.ClaimsContextKey, auth.LocalClaims())
	return req.WithContext(ctx)
}

func addNote(t *testing.T, sessions *session.Manager, title string) {
	t.Helper()
	s, err := sessions.Get(context.Background(), auth.LocalSubject)
	if err != nil {
		t.Fatal(err)
	}
	if _, fail := s.Add(core.TypeNote, core.ItemPatch{Title: &title}); fail != nil {
		t.Fatal(fail)
	}
}

func noteCount(t *testing.T, sessions *session.Manager) int {
	t.Helper()
	s, _ := sessions.Get(context.Background(), auth.LocalSubject)
	var n int
	s.Do(func(b *board.Board) { n = len(b.Items(core.TypeNote)) })
	return n
}

func TestHandleCreateSnapshot_Success(t *testing.T) {
	store := newMockSnapshotStore()
	sessions := session.NewManager(nil, session.Options{})
	addNote(t, sessions, "first")

	body, _ := json.Marshal(CreateSnapshotRequest{Name: "Test Snapshot", Description: "Test Description"})
	rec := httptest.NewRecorder()
	HandleCreateSnapshot(store, sessions)(rec, newRequest(http.MethodPost, "/api/v1/snapshots", body, nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusCreated)
	}
	var response CreateSnapshotResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	snap, ok := store.snapshots[auth.LocalSubject+"/"+response.ID]
	if !ok {
		t.Fatal("snapshot not stored")
	}
	if snap.ItemCount != 1 || snap.Name != "Test Snapshot" {
		t.Errorf("meta = %+v", snap.Meta)
	}
}

func TestHandleCreateSnapshot_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		createErr error
		want      int
	}{
		{"invalid json", "invalid json", nil, http.StatusBadRequest},
		{"store error", `{"name":"x"}`, fmt.Errorf("database error"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockSnapshotStore()
			store.createErr = tt.createErr
			rec := httptest.NewRecorder()
			HandleCreateSnapshot(store, session.NewManager(nil, session.Options{}))(rec, newRequest(http.MethodPost, "/", []byte(tt.body), nil))
			if rec.Code != tt.want {
				t.Errorf("Status code mismatch: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleRestoreSnapshot(t *testing.T) {
	store := newMockSnapshotStore()
	sessions := session.NewManager(nil, session.Options{})
	addNote(t, sessions, "kept")

	rec := httptest.NewRecorder()
	HandleCreateSnapshot(store, sessions)(rec, newRequest(http.MethodPost, "/", []byte(`{"name":"one"}`), nil))
	var created CreateSnapshotResponse
	json.NewDecoder(rec.Body).Decode(&created)

	addNote(t, sessions, "later")
	if n := noteCount(t, sessions); n != 2 {
		t.Fatalf("notes = %d, want 2", n)
	}

	rec = httptest.NewRecorder()
	HandleRestoreSnapshot(store, sessions)(rec, newRequest(http.MethodPost, "/", nil, map[string]string{"snapshotId": created.ID}))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusNoContent)
	}
	if n := noteCount(t, sessions); n != 1 {
		t.Errorf("notes after restore = %d, want 1", n)
	}

	rec = httptest.NewRecorder()
	HandleRestoreSnapshot(store, sessions)(rec, newRequest(http.MethodPost, "/", nil, map[string]string{"snapshotId": "missing"}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleListSnapshots_EmptyBoard(t *testing.T) {
	store := newMockSnapshotStore()
	rec := httptest.NewRecorder()
	HandleListSnapshots(store)(rec, newRequest(http.MethodGet, "/", nil, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %s, want []", rec.Body.String())
	}

	store.listErr = fmt.Errorf("database error")
	rec = httptest.NewRecorder()
	HandleListSnapshots(store)(rec, newRequest(http.MethodGet, "/", nil, nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	sessions := session.NewManager(nil, session.Options{})
	addNote(t, sessions, "exported")

	rec := httptest.NewRecorder()
	HandleExport(sessions)(rec, newRequest(http.MethodGet, "/", nil, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}
	exported := rec.Body.Bytes()

	other := session.NewManager(nil, session.Options{})
	rec = httptest.NewRecorder()
	HandleImport(other)(rec, newRequest(http.MethodPut, "/", exported, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusNoContent)
	}
	if n := noteCount(t, other); n != 1 {
		t.Errorf("imported notes = %d, want 1", n)
	}

	rec = httptest.NewRecorder()
	HandleImport(other)(rec, newRequest(http.MethodPut, "/", []byte(`{}`), nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCollectionSnapshots(t *testing.T) {
	ctx := context.Background()
	cs := NewCollectionSnapshots(memory.NewStore())
	for i, name := range []string{"old", "new"} {
		snap := Snapshot{Meta: Meta{ID: fmt.Sprintf("s%d", i), Name: name, CreatedAt: int64(i)}}
		if err := cs.CreateSnapshot(ctx, "ada", snap); err != nil {
			t.Fatal(err)
		}
	}

	metas, err := cs.ListSnapshots(ctx, "ada")
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 || metas[0].Name != "new" {
		t.Errorf("metas = %+v", metas)
	}
	if got, err := cs.GetSnapshot(ctx, "ada", "s0"); err != nil || got.Name != "old" {
		t.Errorf("GetSnapshot = %+v, %v", got, err)
	}
	if metas, _ := cs.ListSnapshots(ctx, "bob"); len(metas) != 0 {
		t.Errorf("bob sees %d snapshots", len(metas))
	}
}

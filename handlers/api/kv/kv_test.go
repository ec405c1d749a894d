package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/handlers/auth"
	"github.com/neti77/anotequest-v1-sub000/middleware"
)

type mockStore struct {
	data    map[string]map[string][]byte
	loadErr error
	listErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string]map[string][]byte{}}
}

func (m *mockStore) LoadCollection(ctx context.Context, boardID, key string) ([]byte, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	d, ok := m.data[boardID][key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, core.ErrNotFound)
	}
	return d, nil
}

func (m *mockStore) SaveCollection(ctx context.Context, boardID, key string, data []byte) error {
	if m.data[boardID] == nil {
		m.data[boardID] = map[string][]byte{}
	}
	m.data[boardID][key] = data
	return nil
}

func (m *mockStore) ListCollections(ctx context.Context, boardID string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var keys []string
	for k := range m.data[boardID] {
		keys = append(keys, k)
	}
	return keys, nil
}

func request(subject, key string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/kv/"+key, http.NoBody)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("key", key)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if subject != "" {
		claims := &auth.AppClaims{}
		claims.Subject = subject
		ctx = context.WithValue(ctx, middleware.ClaimsContextKey, claims)
	}
	return req.WithContext(ctx)
}

func TestHandleGetCollection(t *testing.T) {
	store := newMockStore()
	store.SaveCollection(context.Background(), "ada", core.KeyNotes, []byte(`[{"id":"n1"}]`))

	tests := []struct {
		name    string
		subject string
		key     string
		loadErr error
		want    int
	}{
		{"found", "ada", core.KeyNotes, nil, http.StatusOK},
		{"other board", "bob", core.KeyNotes, nil, http.StatusNotFound},
		{"missing", "ada", core.KeyTodos, nil, http.StatusNotFound},
		{"no claims", "", core.KeyNotes, nil, http.StatusUnauthorized},
		{"invalid key", "ada", "..", nil, http.StatusBadRequest},
		{"store error", "ada", core.KeyNotes, fmt.Errorf("disk failure"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.loadErr = tt.loadErr
			rec := httptest.NewRecorder()
			HandleGetCollection(store)(rec, request(tt.subject, tt.key))
			if rec.Code != tt.want {
				t.Errorf("Status code mismatch: got %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && rec.Body.String() != `[{"id":"n1"}]` {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
}

func TestHandleListCollections(t *testing.T) {
	store := newMockStore()
	rec := httptest.NewRecorder()
	HandleListCollections(store)(rec, request("ada", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}
	var keys []string
	if err := json.NewDecoder(rec.Body).Decode(&keys); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if keys == nil || len(keys) != 0 {
		t.Errorf("keys = %v, want empty list", keys)
	}

	store.listErr = fmt.Errorf("database error")
	rec = httptest.NewRecorder()
	HandleListCollections(store)(rec, request("ada", ""))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

package snapshots

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/handlers/auth"
	"github.com/neti77/anotequest-v1-sub000/middleware"
	"github.com/neti77/anotequest-v1-sub000/session"
	"github.com/neti77/anotequest-v1-sub000/stores"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// keyPrefix namespaces snapshot collections away from the live board keys.
const keyPrefix = core.KeyPrefix + "snapshot_"

type (
	CreateSnapshotRequest struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	CreateSnapshotResponse struct {
		ID string `json:"id"`
	}

	Meta struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		CreatedBy   string `json:"created_by"`
		CreatedAt   int64  `json:"created_at"`
		ItemCount   int    `json:"item_count"`
	}

	Snapshot struct {
		Meta
		Board session.Export `json:"board"`
	}

	SnapshotStore interface {
		CreateSnapshot(ctx context.Context, boardID string, snap Snapshot) error
		ListSnapshots(ctx context.Context, boardID string) ([]Meta, error)
		GetSnapshot(ctx context.Context, boardID, id string) (*Snapshot, error)
	}

	Sessions interface {
		Get(ctx context.Context, boardID string) (*session.Session, error)
	}
)

// CollectionSnapshots keeps each snapshot as one collection of the board.
type CollectionSnapshots struct {
	store stores.Store
}

func NewCollectionSnapshots(store stores.Store) *CollectionSnapshots {
	return &CollectionSnapshots{store: store}
}

func (c *CollectionSnapshots) CreateSnapshot(ctx context.Context, boardID string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return c.store.SaveCollection(ctx, boardID, keyPrefix+snap.ID, data)
}

func (c *CollectionSnapshots) ListSnapshots(ctx context.Context, boardID string) ([]Meta, error) {
	keys, err := c.store.ListCollections(ctx, boardID)
	if err != nil {
		return nil, err
	}
	metas := []Meta{}
	for _, key := range keys {
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		snap, err := c.GetSnapshot(ctx, boardID, strings.TrimPrefix(key, keyPrefix))
		if err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err}).Warn("Skipping unreadable snapshot")
			continue
		}
		metas = append(metas, snap.Meta)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].CreatedAt > metas[j].CreatedAt })
	return metas, nil
}

func (c *CollectionSnapshots) GetSnapshot(ctx context.Context, boardID, id string) (*Snapshot, error) {
	data, err := c.store.LoadCollection(ctx, boardID, keyPrefix+id)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return &snap, nil
}

func subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := r.Context().Value(middleware.ClaimsContextKey).(*auth.AppClaims)
	if !ok {
		http.Error(w, "User claims not found", http.StatusUnauthorized)
		return "", false
	}
	return claims.Subject, true
}

func open(w http.ResponseWriter, r *http.Request, sessions Sessions) (*session.Session, bool) {
	boardID, ok := subject(w, r)
	if !ok {
		return nil, false
	}
	s, err := sessions.Get(r.Context(), boardID)
	if err != nil {
		logrus.WithField("error", err).Error("Failed to open board")
		http.Error(w, "Failed to open board", http.StatusInternalServerError)
		return nil, false
	}
	return s, true
}

func itemCount(st core.BoardState) int {
	n := 0
	for _, items := range st.Items {
		n += len(items)
	}
	return n
}

// HandleCreateSnapshot saves the committed board under a name.
func HandleCreateSnapshot(store SnapshotStore, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := open(w, r, sessions)
		if !ok {
			return
		}

		var req CreateSnapshotRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		board := s.Export()
		snap := Snapshot{
			Meta: Meta{
				ID:          ulid.Make().String(),
				Name:        req.Name,
				Description: req.Description,
				CreatedBy:   board.Preferences.Username,
				CreatedAt:   time.Now().Unix(),
				ItemCount:   itemCount(board.State),
			},
			Board: board,
		}
		if snap.Name == "" {
			snap.Name = time.Unix(snap.CreatedAt, 0).UTC().Format(time.RFC3339)
		}

		if err := store.CreateSnapshot(r.Context(), s.BoardID(), snap); err != nil {
			logrus.WithField("error", err).Error("Failed to create snapshot")
			http.Error(w, "Failed to create snapshot", http.StatusInternalServerError)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateSnapshotResponse{ID: snap.ID})
	}
}

// HandleListSnapshots lists the snapshots of the board, newest first.
func HandleListSnapshots(store SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boardID, ok := subject(w, r)
		if !ok {
			return
		}

		snapshots, err := store.ListSnapshots(r.Context(), boardID)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list snapshots")
			http.Error(w, "Failed to list snapshots", http.StatusInternalServerError)
			return
		}

		if snapshots == nil {
			snapshots = []Meta{}
		}

		render.JSON(w, r, snapshots)
	}
}

// HandleGetSnapshot retrieves a specific snapshot
func HandleGetSnapshot(store SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boardID, ok := subject(w, r)
		if !ok {
			return
		}
		snapshotID := chi.URLParam(r, "snapshotId")

		snapshot, err := store.GetSnapshot(r.Context(), boardID, snapshotID)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to get snapshot")
			http.Error(w, "Snapshot not found", http.StatusNotFound)
			return
		}

		render.JSON(w, r, snapshot)
	}
}

// HandleRestoreSnapshot replaces the board with a snapshot. History restarts
// at the restored state.
func HandleRestoreSnapshot(store SnapshotStore, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := open(w, r, sessions)
		if !ok {
			return
		}
		snapshotID := chi.URLParam(r, "snapshotId")

		snapshot, err := store.GetSnapshot(r.Context(), s.BoardID(), snapshotID)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to get snapshot")
			http.Error(w, "Snapshot not found", http.StatusNotFound)
			return
		}

		s.Import(snapshot.Board)
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleExport returns the committed board as one document.
func HandleExport(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := open(w, r, sessions)
		if !ok {
			return
		}
		render.JSON(w, r, s.Export())
	}
}

// HandleImport replaces the board with an exported document.
func HandleImport(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := open(w, r, sessions)
		if !ok {
			return
		}

		var doc session.Export
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if doc.State.Items == nil {
			http.Error(w, "Board state is required", http.StatusBadRequest)
			return
		}

		s.Import(doc)
		w.WriteHeader(http.StatusNoContent)
	}
}

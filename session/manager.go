package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/persist"
	"github.com/neti77/anotequest-v1-sub000/stores"
	"github.com/sirupsen/logrus"
)

// Manager opens one session per board id on first use.
type Manager struct {
	store stores.Store
	opts  Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a manager backed by store. A nil store keeps boards in
// memory only.
func NewManager(store stores.Store, opts Options) *Manager {
	return &Manager{store: store, opts: opts, sessions: make(map[string]*Session)}
}

// Get returns the session of boardID, loading it from the store the first
// time.
func (m *Manager) Get(ctx context.Context, boardID string) (*Session, error) {
	if !core.ValidKey(boardID) {
		return nil, fmt.Errorf("invalid board id %q", boardID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[boardID]; ok {
		return s, nil
	}

	var gw *persist.Gateway
	if m.store != nil {
		gw = persist.NewGateway(stores.ForBoard(m.store, boardID))
	}
	s := New(boardID, gw, m.opts)
	s.Load(ctx)
	m.sessions[boardID] = s
	logrus.WithFields(logrus.Fields{"board_id": boardID, "session_id": s.ID()}).Info("Board session opened")
	return s, nil
}

// Boards lists the ids of open sessions.
func (m *Manager) Boards() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FlushAll writes every pending collection of every open board.
func (m *Manager) FlushAll(ctx context.Context) error {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range open {
		if err := s.Flush(ctx); err != nil {
			logrus.WithFields(logrus.Fields{"board_id": s.BoardID(), "error": err}).Error("Failed to flush board")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/sirupsen/logrus"
)

// memStore keeps collections per board in process memory. Data is lost on
// restart.
type memStore struct {
	mu sync.RWMutex
	// boards maps a board id to its collections keyed by collection key.
	boards map[string]map[string][]byte
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{boards: make(map[string]map[string][]byte)}
}

func (s *memStore) LoadCollection(ctx context.Context, boardID, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithFields(logrus.Fields{"board_id": boardID, "key": key})
	data, ok := s.boards[boardID][key]
	if !ok {
		log.Debug("Collection not found")
		return nil, fmt.Errorf("collection %s of board %s: %w", key, boardID, core.ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	log.Debug("Collection retrieved successfully")
	return out, nil
}

func (s *memStore) SaveCollection(ctx context.Context, boardID, key string, data []byte) error {
	if boardID == "" {
		return fmt.Errorf("board id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, ok := s.boards[boardID]
	if !ok {
		cols = make(map[string][]byte)
		s.boards[boardID] = cols
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	cols[key] = cp

	logrus.WithFields(logrus.Fields{
		"board_id":    boardID,
		"key":         key,
		"data_length": len(data),
	}).Debug("Collection saved successfully")
	return nil
}

func (s *memStore) ListCollections(ctx context.Context, boardID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.boards[boardID]))
	for k := range s.boards[boardID] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

package filesystem

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/sirupsen/logrus"
)

const ext = ".json"

// fsStore writes one JSON file per collection under basePath/<board>/.
type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based store.
func NewStore(basePath string) *fsStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Fatalf("failed to create base directory: %v", err)
	}
	return &fsStore{basePath: basePath}
}

func (s *fsStore) boardPath(boardID string) string {
	return filepath.Join(s.basePath, boardID)
}

// collectionPath resolves the file of a collection and rejects any name that
// would escape the board directory.
func (s *fsStore) collectionPath(boardID, key string) (string, error) {
	if !core.ValidKey(boardID) || !core.ValidKey(key) {
		return "", fmt.Errorf("invalid path: access denied")
	}
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	absFile, err := filepath.Abs(filepath.Join(s.boardPath(boardID), key+ext))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absFile, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path: access denied")
	}
	return absFile, nil
}

func (s *fsStore) LoadCollection(ctx context.Context, boardID, key string) ([]byte, error) {
	filePath, err := s.collectionPath(boardID, key)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"board_id": boardID, "key": key, "path": filePath})

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("Collection file not found")
			return nil, fmt.Errorf("collection %s of board %s: %w", key, boardID, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to read collection file")
		return nil, err
	}

	log.Debug("Collection retrieved successfully")
	return data, nil
}

func (s *fsStore) SaveCollection(ctx context.Context, boardID, key string, data []byte) error {
	filePath, err := s.collectionPath(boardID, key)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"board_id": boardID, "key": key, "path": filePath})

	if err := os.MkdirAll(s.boardPath(boardID), 0755); err != nil {
		log.WithError(err).Error("Failed to create board directory")
		return err
	}

	// Write a sibling file and rename it into place.
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write collection file")
		return err
	}
	if err := os.Rename(tmp, filePath); err != nil {
		log.WithError(err).Error("Failed to replace collection file")
		return err
	}

	log.Debug("Collection saved successfully")
	return nil
}

func (s *fsStore) ListCollections(ctx context.Context, boardID string) ([]string, error) {
	if !core.ValidKey(boardID) {
		return nil, fmt.Errorf("invalid path: access denied")
	}
	log := logrus.WithField("board_id", boardID)

	files, err := os.ReadDir(s.boardPath(boardID))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		log.WithError(err).Error("Failed to read board directory")
		return nil, err
	}

	keys := make([]string, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ext) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(f.Name(), ext))
	}
	sort.Strings(keys)
	return keys, nil
}

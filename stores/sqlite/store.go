package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	tableStmt := `
	CREATE TABLE IF NOT EXISTS collections (
		board_id TEXT NOT NULL,
		key TEXT NOT NULL,
		data BLOB,
		updated_at DATETIME,
		PRIMARY KEY (board_id, key)
	);`
	if _, err = db.Exec(tableStmt); err != nil {
		log.Fatalf("failed to create collections table: %v", err)
	}

	return &sqliteStore{db}
}

func (s *sqliteStore) LoadCollection(ctx context.Context, boardID, key string) ([]byte, error) {
	log := logrus.WithFields(logrus.Fields{"board_id": boardID, "key": key})
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM collections WHERE board_id = ? AND key = ?", boardID, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("Collection not found")
			return nil, fmt.Errorf("collection %s of board %s: %w", key, boardID, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve collection")
		return nil, err
	}
	log.Debug("Collection retrieved successfully")
	return data, nil
}

func (s *sqliteStore) SaveCollection(ctx context.Context, boardID, key string, data []byte) error {
	log := logrus.WithFields(logrus.Fields{
		"board_id":    boardID,
		"key":         key,
		"data_length": len(data),
	})
	if boardID == "" || key == "" {
		return fmt.Errorf("board id and key cannot be empty")
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO collections (board_id, key, data, updated_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(board_id, key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		boardID, key, data, time.Now().UTC())
	if err != nil {
		log.WithError(err).Error("Failed to save collection")
		return err
	}
	log.Debug("Collection saved successfully")
	return nil
}

func (s *sqliteStore) ListCollections(ctx context.Context, boardID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM collections WHERE board_id = ? ORDER BY key", boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

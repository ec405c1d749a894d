package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// redisStore keeps every board in one hash whose fields are collection keys.
type redisStore struct {
	client *redis.Client
}

// NewStore connects to redis at addr.
func NewStore(addr, password string) *redisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis at %s: %v", addr, err)
	}
	return &redisStore{client: client}
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *redis.Client) *redisStore {
	return &redisStore{client: client}
}

func boardKey(boardID string) string {
	return "anotequest:board:" + boardID
}

func (s *redisStore) LoadCollection(ctx context.Context, boardID, key string) ([]byte, error) {
	data, err := s.client.HGet(ctx, boardKey(boardID), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("collection %s of board %s: %w", key, boardID, core.ErrNotFound)
		}
		logrus.WithFields(logrus.Fields{"board_id": boardID, "key": key}).WithError(err).Error("Failed to retrieve collection")
		return nil, err
	}
	return data, nil
}

func (s *redisStore) SaveCollection(ctx context.Context, boardID, key string, data []byte) error {
	if boardID == "" || key == "" {
		return fmt.Errorf("board id and key cannot be empty")
	}
	if err := s.client.HSet(ctx, boardKey(boardID), key, data).Err(); err != nil {
		logrus.WithFields(logrus.Fields{"board_id": boardID, "key": key}).WithError(err).Error("Failed to save collection")
		return err
	}
	return nil
}

func (s *redisStore) ListCollections(ctx context.Context, boardID string) ([]string, error) {
	keys, err := s.client.HKeys(ctx, boardKey(boardID)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

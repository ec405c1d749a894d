package redis

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/redis/go-redis/v9"
)

func TestBoardKey(t *testing.T) {
	if got := boardKey("abc"); got != "anotequest:board:abc" {
		t.Errorf("boardKey() = %q", got)
	}
}

// Runs only against a live redis.
func TestStore_Live(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	store := NewStoreWithClient(client)
	defer store.Close()
	ctx := context.Background()
	board := "test-board"
	client.Del(ctx, boardKey(board))

	if _, err := store.LoadCollection(ctx, board, core.KeyNotes); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	store.SaveCollection(ctx, board, core.KeyTrash, []byte("[]"))
	store.SaveCollection(ctx, board, core.KeyNotes, []byte(`[{"id":"a"}]`))

	got, err := store.LoadCollection(ctx, board, core.KeyNotes)
	if err != nil || string(got) != `[{"id":"a"}]` {
		t.Errorf("LoadCollection() = %s, %v", got, err)
	}
	keys, _ := store.ListCollections(ctx, board)
	if !reflect.DeepEqual(keys, []string{core.KeyNotes, core.KeyTrash}) {
		t.Errorf("ListCollections() = %v", keys)
	}
}

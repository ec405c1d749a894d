package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/neti77/anotequest-v1-sub000/core"
)

func setupTestDB(t *testing.T) *sqliteStore {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := NewStore(dbPath)
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("NewStore() did not create database file")
	}
	var tableName string
	err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='collections'").Scan(&tableName)
	if err != nil {
		t.Fatalf("collections table not created: %v", err)
	}
}

func TestSaveCollection_Upsert(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	if err := store.SaveCollection(ctx, "board", core.KeyNotes, []byte(`[1]`)); err != nil {
		t.Fatalf("SaveCollection() error = %v", err)
	}
	if err := store.SaveCollection(ctx, "board", core.KeyNotes, []byte(`[1,2]`)); err != nil {
		t.Fatalf("SaveCollection() second write error = %v", err)
	}

	got, err := store.LoadCollection(ctx, "board", core.KeyNotes)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[1,2]` {
		t.Errorf("LoadCollection() = %s", got)
	}

	var count int
	store.db.QueryRow("SELECT COUNT(*) FROM collections").Scan(&count)
	if count != 1 {
		t.Errorf("rows = %d, want 1", count)
	}
}

func TestLoadCollection_NotFound(t *testing.T) {
	store := setupTestDB(t)
	_, err := store.LoadCollection(context.Background(), "board", core.KeyTrash)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListCollections(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	store.SaveCollection(ctx, "a", core.KeyTrash, []byte("[]"))
	store.SaveCollection(ctx, "a", core.KeyNotes, []byte("[]"))
	store.SaveCollection(ctx, "b", core.KeyImages, []byte("[]"))

	keys, err := store.ListCollections(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(keys, []string{core.KeyNotes, core.KeyTrash}) {
		t.Errorf("ListCollections() = %v", keys)
	}
}

func TestSQLInjection(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	evil := "board'; DROP TABLE collections; --"

	if err := store.SaveCollection(ctx, evil, core.KeyNotes, []byte("[]")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.LoadCollection(ctx, evil, core.KeyNotes); err != nil {
		t.Errorf("LoadCollection() error = %v", err)
	}
}

func TestDatabasePersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	first := NewStore(dbPath)
	if err := first.SaveCollection(ctx, "board", core.KeyFolders, []byte(`[{"id":"f"}]`)); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second := NewStore(dbPath)
	defer second.Close()
	got, err := second.LoadCollection(ctx, "board", core.KeyFolders)
	if err != nil || string(got) != `[{"id":"f"}]` {
		t.Errorf("after reopen LoadCollection() = %s, %v", got, err)
	}
}

func TestConcurrentCollectionOperations(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	numWorkers := 10
	var wg sync.WaitGroup
	errs := make(chan error, numWorkers)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", index)
			if err := store.SaveCollection(ctx, "board", key, []byte("[]")); err != nil {
				errs <- err
				return
			}
			if _, err := store.LoadCollection(ctx, "board", key); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent operation failed: %v", err)
	}
}

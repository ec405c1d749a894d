package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/neti77/anotequest-v1-sub000/core"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable", TimeZone: "UTC"}
	want := "host=db port=5432 user=u password=p dbname=n sslmode=disable TimeZone=UTC"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q", got)
	}
}

func TestCollectionTableName(t *testing.T) {
	if (Collection{}).TableName() != "board_collections" {
		t.Error("unexpected table name")
	}
}

// Runs only against a live database.
func TestStore_Live(t *testing.T) {
	host := os.Getenv("TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("TEST_POSTGRES_HOST not set")
	}
	store := NewStore(Config{
		Host: host, Port: "5432", User: "postgres", Password: os.Getenv("TEST_POSTGRES_PASSWORD"),
		DBName: "postgres", SSLMode: "disable", TimeZone: "UTC",
	})
	ctx := context.Background()

	if _, err := store.LoadCollection(ctx, "test-board", "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if err := store.SaveCollection(ctx, "test-board", core.KeyNotes, []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveCollection(ctx, "test-board", core.KeyNotes, []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatal(err)
	}
	got, err := store.LoadCollection(ctx, "test-board", core.KeyNotes)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 {
		t.Error("empty payload")
	}
}

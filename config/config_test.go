package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "")
	t.Setenv("BOARD_CONFIG_FILE", "")
	cfg := Load()

	if cfg.Storage.Type != "memory" {
		t.Errorf("Storage.Type = %q, want memory", cfg.Storage.Type)
	}
	if !reflect.DeepEqual(cfg.Board, DefaultBoard()) {
		t.Errorf("Board = %+v, want defaults", cfg.Board)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("BOARD_CONFIG_FILE", "")
	t.Setenv("STORAGE_TYPE", "sqlite")
	t.Setenv("HISTORY_DEPTH", "20")
	t.Setenv("ZOOM_MAX", "4")
	t.Setenv("SAVE_DEBOUNCE", "250")
	t.Setenv("AUTH_REQUIRED", "yes")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, http://b.test")
	cfg := Load()

	if cfg.Storage.Type != "sqlite" || cfg.Board.HistoryDepth != 20 || cfg.Board.ZoomMax != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Board.SaveDebounce != 250*time.Millisecond {
		t.Errorf("SaveDebounce = %v", cfg.Board.SaveDebounce)
	}
	if !cfg.Auth.Required {
		t.Error("AUTH_REQUIRED=yes not honoured")
	}
	if !reflect.DeepEqual(cfg.Server.CORSOrigins, []string{"http://a.test", "http://b.test"}) {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoad_InvalidLimitsFallBack(t *testing.T) {
	t.Setenv("BOARD_CONFIG_FILE", "")
	t.Setenv("ZOOM_MIN", "5")
	t.Setenv("ZOOM_MAX", "1")
	cfg := Load()
	if !reflect.DeepEqual(cfg.Board, DefaultBoard()) {
		t.Errorf("Board = %+v, want defaults", cfg.Board)
	}
}

func TestBoardConfig_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	data := "history_depth: 10\nsave_debounce: 1s\nzoom_max: 2\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	b := DefaultBoard()
	if err := b.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if b.HistoryDepth != 10 || b.SaveDebounce != time.Second || b.ZoomMax != 2 {
		t.Errorf("overlay = %+v", b)
	}
	if b.ZoomMin != 0.25 || b.FreeTierLimit != 100 {
		t.Errorf("absent keys changed: %+v", b)
	}

	if err := b.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile() on a missing file should fail")
	}
}

func TestBoardConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BoardConfig)
		wantErr bool
	}{
		{"defaults", func(*BoardConfig) {}, false},
		{"zero depth", func(b *BoardConfig) { b.HistoryDepth = 0 }, true},
		{"inverted zoom", func(b *BoardConfig) { b.ZoomMin, b.ZoomMax = 2, 1 }, true},
		{"negative padding", func(b *BoardConfig) { b.Padding = -1 }, true},
		{"negative debounce", func(b *BoardConfig) { b.SaveDebounce = -time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := DefaultBoard()
			tt.mutate(&b)
			if err := b.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

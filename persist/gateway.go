// Package persist loads and saves board collections through a
// core.CollectionStore and debounces writes per collection key.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neti77/anotequest-v1-sub000/board"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/sirupsen/logrus"
)

// Gateway encodes collections as JSON.
type Gateway struct {
	store core.CollectionStore
}

func NewGateway(store core.CollectionStore) *Gateway {
	return &Gateway{store: store}
}

// Load decodes the collection under key into v and reports whether it was
// present and readable. Absent or unparseable data leaves v untouched and is
// only logged.
func (g *Gateway) Load(ctx context.Context, key string, v any) bool {
	log := logrus.WithField("key", key)
	data, err := g.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Debug("Collection absent, using empty value")
		} else {
			log.WithField("error", err).Warn("Failed to load collection, using empty value")
		}
		return false
	}
	if len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.WithField("error", err).Warn("Failed to decode collection, using empty value")
		return false
	}
	return true
}

func (g *Gateway) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := g.store.Save(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// LoadBoard reads every board collection. Missing collections load empty.
func (g *Gateway) LoadBoard(ctx context.Context) board.Snapshot {
	snap := board.Snapshot{State: core.NewBoardState()}
	for _, t := range core.ItemTypes {
		var items []core.Item
		if g.Load(ctx, core.CollectionKey(t), &items) {
			snap.State.Items[t] = items
		}
	}
	var drawings []core.Stroke
	if g.Load(ctx, core.KeyDrawings, &drawings) {
		snap.State.Drawings = drawings
	}
	var conns []core.Connection
	if g.Load(ctx, core.KeyConnections, &conns) {
		snap.State.Connections = conns
	}
	g.Load(ctx, core.KeyFolders, &snap.Folders)
	g.Load(ctx, core.KeyTrash, &snap.Trash)
	return snap
}

// LoadPreferences reads the user preferences. Absent preferences are zero.
func (g *Gateway) LoadPreferences(ctx context.Context) core.Preferences {
	var p core.Preferences
	g.Load(ctx, core.KeyPreferences, &p)
	return p
}

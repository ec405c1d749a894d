// Package board owns the live item collections of one canvas and routes
// every mutation through a single commit path that recomputes the canvas
// extent and records an undo snapshot.
package board

import (
	"math/rand"
	"time"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/history"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const (
	DefaultFreeTierLimit = 100
	DefaultPadding       = 400
	DefaultMinExtent     = 4000
	duplicateOffset      = 40
)

type (
	// Options configures a Board. Zero values select the defaults.
	Options struct {
		HistoryDepth  int
		FreeTierLimit int
		Premium       bool
		MinExtent     core.Size
		Padding       float64

		Now   func() time.Time
		NewID func() string
		Rand  *rand.Rand
	}

	// Change describes one committed mutation to subscribers.
	Change struct {
		Keys    []string
		Removed []core.Ref
	}

	// Board is the item registry of one canvas session. It is not safe for
	// concurrent use; session.Session serializes access.
	Board struct {
		opts Options

		state     core.BoardState
		committed core.BoardState
		folders   []core.Folder
		trash     []core.TrashEntry
		active    *string
		extent    core.Size

		// live holds the refs whose position or size in state is an
		// uncommitted gesture value.
		live map[core.Ref]struct{}

		history     *history.Manager[core.BoardState]
		subscribers []func(Change)
	}
)

// New returns an empty board.
func New(opts Options) *Board {
	if opts.FreeTierLimit == 0 {
		opts.FreeTierLimit = DefaultFreeTierLimit
	}
	if opts.MinExtent.Width <= 0 {
		opts.MinExtent.Width = DefaultMinExtent
	}
	if opts.MinExtent.Height <= 0 {
		opts.MinExtent.Height = DefaultMinExtent
	}
	if opts.Padding <= 0 {
		opts.Padding = DefaultPadding
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return ulid.Make().String() }
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	b := &Board{
		opts:    opts,
		state:   core.NewBoardState(),
		folders: []core.Folder{},
		trash:   []core.TrashEntry{},
		extent:  opts.MinExtent,
		history: history.New(opts.HistoryDepth, core.BoardState.Clone),
	}
	b.committed = b.state.Clone()
	b.history.Push(b.state)
	return b
}

// Subscribe registers fn to run after every committed mutation.
func (b *Board) Subscribe(fn func(Change)) {
	b.subscribers = append(b.subscribers, fn)
}

// Snapshot is the full persisted content of a board.
type Snapshot struct {
	State   core.BoardState
	Folders []core.Folder
	Trash   []core.TrashEntry
}

// Load replaces the board content, sanitizing malformed geometry, and resets
// history to the loaded state.
func (b *Board) Load(snap Snapshot) {
	st := core.NewBoardState()
	for _, t := range core.ItemTypes {
		items := snap.State.Items[t]
		seen := make(map[string]bool, len(items))
		for _, it := range items {
			if it.ID == "" {
				it.ID = b.opts.NewID()
				logrus.WithFields(logrus.Fields{"type": t, "item_id": it.ID}).Warn("Assigned id to item without one")
			}
			if seen[it.ID] {
				logrus.WithFields(logrus.Fields{"type": t, "item_id": it.ID}).Warn("Dropping item with duplicate id")
				continue
			}
			seen[it.ID] = true
			it.Type = t
			st.Items[t] = append(st.Items[t], sanitizeItem(it))
		}
	}
	for _, s := range snap.State.Drawings {
		if s.ID == "" {
			s.ID = b.opts.NewID()
		}
		st.Drawings = append(st.Drawings, sanitizeStroke(s))
	}
	for _, c := range snap.State.Connections {
		st.Connections = append(st.Connections, c.Clone())
	}

	b.folders = append([]core.Folder{}, snap.Folders...)
	if n := b.orphansToRoot(&st); n > 0 {
		logrus.WithField("count", n).Warn("Moved members of missing folders to root")
	}
	b.state = st
	b.committed = st.Clone()
	b.live = nil
	b.trash = make([]core.TrashEntry, 0, len(snap.Trash))
	for _, e := range snap.Trash {
		b.trash = append(b.trash, e.Clone())
	}
	if b.active != nil && !b.hasFolder(*b.active) {
		b.active = nil
	}
	b.extent = b.opts.MinExtent
	b.recomputeBounds()
	b.history.Reset(b.state)

	logrus.WithFields(logrus.Fields{
		"items":    b.itemCount(),
		"drawings": len(st.Drawings),
		"trash":    len(b.trash),
	}).Info("Board loaded successfully")
}

// change accumulates what one mutation touched.
type change struct {
	keys     map[string]struct{}
	undoable bool
}

func (c *change) touch(keys ...string) {
	for _, k := range keys {
		c.keys[k] = struct{}{}
	}
}

func (c *change) touchType(t core.ItemType) {
	c.touch(core.CollectionKey(t), core.KeyStats)
	c.undoable = true
}

func (c *change) touchDrawings() {
	c.touch(core.KeyDrawings, core.KeyStats)
	c.undoable = true
}

func (c *change) touchConnections() {
	c.touch(core.KeyConnections)
	c.undoable = true
}

// commit is the single mutation entry point. fn mutates b.state (and folders
// or trash) and reports whether anything changed; a false return is a no-op.
func (b *Board) commit(fn func(c *change) bool) bool {
	if b.history.Applying() {
		logrus.Warn("Ignoring board mutation while a snapshot is being applied")
		return false
	}
	overlay := b.takeLive()
	c := &change{keys: map[string]struct{}{}}
	if !fn(c) {
		b.restoreLive(overlay)
		return false
	}
	b.recomputeBounds()
	if c.undoable {
		b.history.Push(b.state)
	}
	b.publish(c.keys)
	b.restoreLive(overlay)
	return true
}

// liveEdit is the uncommitted gesture value of one item.
type liveEdit struct {
	pos  core.Position
	size *core.Size
}

func liveOf(it core.Item) liveEdit {
	e := liveEdit{pos: it.Position}
	if it.Size != nil {
		s := *it.Size
		e.size = &s
	}
	return e
}

// takeLive lifts the gesture values out of the live state so a mutation runs
// against the committed state only.
func (b *Board) takeLive() map[core.Ref]liveEdit {
	if len(b.live) == 0 {
		return nil
	}
	overlay := make(map[core.Ref]liveEdit, len(b.live))
	for ref := range b.live {
		if i := b.state.Find(ref); i >= 0 {
			overlay[ref] = liveOf(b.state.Items[ref.Type][i])
		}
	}
	b.state = b.committed.Clone()
	b.live = nil
	return overlay
}

// restoreLive puts gesture values back on the items that still exist.
func (b *Board) restoreLive(overlay map[core.Ref]liveEdit) {
	for ref, e := range overlay {
		i := b.state.Find(ref)
		if i < 0 {
			continue
		}
		it := &b.state.Items[ref.Type][i]
		it.Position = e.pos
		it.Size = e.size
		b.markLive(ref)
	}
}

func (b *Board) markLive(ref core.Ref) {
	if b.live == nil {
		b.live = make(map[core.Ref]struct{})
	}
	b.live[ref] = struct{}{}
}

// publish promotes the live state to committed and notifies subscribers.
func (b *Board) publish(keys map[string]struct{}) {
	removed := removedRefs(b.committed, b.state)
	b.committed = b.state.Clone()

	ch := Change{Keys: make([]string, 0, len(keys)), Removed: removed}
	for _, k := range core.AllKeys() {
		if _, ok := keys[k]; ok {
			ch.Keys = append(ch.Keys, k)
		}
	}
	for _, fn := range b.subscribers {
		fn(ch)
	}
}

func removedRefs(before, after core.BoardState) []core.Ref {
	var out []core.Ref
	for _, t := range core.ItemTypes {
		live := make(map[string]bool, len(after.Items[t]))
		for _, it := range after.Items[t] {
			live[it.ID] = true
		}
		for _, it := range before.Items[t] {
			if !live[it.ID] {
				out = append(out, it.Ref())
			}
		}
	}
	return out
}

// Undo restores the previous committed snapshot across every collection.
func (b *Board) Undo() bool {
	return b.history.Undo(b.applySnapshot)
}

// Redo reapplies the next snapshot.
func (b *Board) Redo() bool {
	return b.history.Redo(b.applySnapshot)
}

func (b *Board) applySnapshot(st core.BoardState) {
	b.state = st
	b.live = nil
	if n := b.orphansToRoot(&b.state); n > 0 {
		logrus.WithField("count", n).Debug("Snapshot members of deleted folders moved to root")
	}
	b.recomputeBounds()
	keys := map[string]struct{}{core.KeyDrawings: {}, core.KeyConnections: {}, core.KeyStats: {}}
	for _, t := range core.ItemTypes {
		keys[core.CollectionKey(t)] = struct{}{}
	}
	b.publish(keys)
}

func (b *Board) CanUndo() bool { return b.history.CanUndo() }
func (b *Board) CanRedo() bool { return b.history.CanRedo() }

// HistoryInfo reports the cursor and snapshot count.
func (b *Board) HistoryInfo() (cursor, length int) {
	return b.history.Cursor(), b.history.Len()
}

// Revert drops every uncommitted change made through Nudge or Resize.
func (b *Board) Revert() {
	b.state = b.committed.Clone()
	b.live = nil
}

// State returns a deep copy of the live state, uncommitted changes included.
func (b *Board) State() core.BoardState {
	return b.state.Clone()
}

// Committed returns a deep copy of the last committed state.
func (b *Board) Committed() core.BoardState {
	return b.committed.Clone()
}

// Items returns a copy of the live collection of type t.
func (b *Board) Items(t core.ItemType) []core.Item {
	return b.state.Clone().Items[t]
}

// Visible returns the live items of type t in the active folder scope.
func (b *Board) Visible(t core.ItemType) []core.Item {
	var out []core.Item
	for _, it := range b.state.Items[t] {
		if core.InFolder(it.FolderID, b.active) {
			out = append(out, it.Clone())
		}
	}
	return out
}

// Get looks up an item in the live state.
func (b *Board) Get(ref core.Ref) (core.Item, bool) {
	i := b.state.Find(ref)
	if i < 0 {
		return core.Item{}, false
	}
	return b.state.Items[ref.Type][i].Clone(), true
}

func (b *Board) Extent() core.Size { return b.extent }

func (b *Board) itemCount() int {
	n := 0
	for _, items := range b.state.Items {
		n += len(items)
	}
	return n
}

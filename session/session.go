// Package session serializes every board interaction of one canvas. A
// Session owns the board, its selection, the active gestures and the
// viewport, and feeds committed changes to the persistence writer.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neti77/anotequest-v1-sub000/board"
	"github.com/neti77/anotequest-v1-sub000/config"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/drawing"
	"github.com/neti77/anotequest-v1-sub000/geometry"
	"github.com/neti77/anotequest-v1-sub000/gesture"
	"github.com/neti77/anotequest-v1-sub000/linkpreview"
	"github.com/neti77/anotequest-v1-sub000/persist"
	"github.com/neti77/anotequest-v1-sub000/selection"
	"github.com/sirupsen/logrus"
)

// Options configures every session a Manager opens.
type Options struct {
	Board     board.Options
	ZoomMin   float64
	ZoomMax   float64
	GridSnap  float64
	SaveDelay time.Duration
	// Previews fetches link previews for source items. Nil limits previews
	// to what can be detected from the URL itself.
	Previews       *linkpreview.Fetcher
	PreviewTimeout time.Duration
}

// OptionsFromConfig maps the board engine settings onto session options.
func OptionsFromConfig(cfg config.Config) Options {
	b := cfg.Board
	opts := Options{
		Board: board.Options{
			HistoryDepth:  b.HistoryDepth,
			FreeTierLimit: b.FreeTierLimit,
			MinExtent:     core.Size{Width: b.MinExtent, Height: b.MinExtent},
			Padding:       b.Padding,
		},
		ZoomMin:        b.ZoomMin,
		ZoomMax:        b.ZoomMax,
		GridSnap:       b.GridSnap,
		SaveDelay:      b.SaveDebounce,
		PreviewTimeout: cfg.LinkPreview.Timeout,
	}
	if cfg.LinkPreview.Enabled {
		opts.Previews = linkpreview.NewFetcher(cfg.LinkPreview.Timeout)
	}
	return opts
}

// ViewState is the viewport as the shell renders it.
type ViewState struct {
	Scale    float64       `json:"scale"`
	Scroll   core.Position `json:"scroll"`
	MinScale float64       `json:"minScale"`
	MaxScale float64       `json:"maxScale"`
	Extent   core.Size     `json:"extent"`
	Coasting bool          `json:"coasting"`
}

// Session is the single serialized owner of one board. Callbacks registered
// with OnChange run with the session locked and must not call back into it.
type Session struct {
	id      string
	boardID string
	opts    Options
	gw      *persist.Gateway

	mu        sync.Mutex
	board     *board.Board
	sel       *selection.Coordinator
	arb       *gesture.Arbiter
	view      *gesture.Viewport
	drag      *gesture.Drag
	resize    *gesture.Resize
	pen       *drawing.Engine
	inkTarget string
	prefs     core.Preferences
	trashZone *geometry.Rect
	deferred  []func()
	listeners []func(board.Change)

	writer   *persist.Writer
	previews sync.WaitGroup
}

// New creates a session for boardID. A nil gateway disables persistence.
func New(boardID string, gw *persist.Gateway, opts Options) *Session {
	s := &Session{
		id:      uuid.NewString(),
		boardID: boardID,
		opts:    opts,
		gw:      gw,
		board:   board.New(opts.Board),
		sel:     selection.NewCoordinator(),
		arb:     &gesture.Arbiter{},
		pen:     drawing.NewEngine(),
	}
	s.view = gesture.NewViewport(s.arb, opts.ZoomMin, opts.ZoomMax)
	s.drag = gesture.NewDrag(s.board, s.view, s.arb, s.sel, s.trashRect)
	s.drag.Snap = opts.GridSnap
	s.resize = gesture.NewResize(s.board, s.view, s.arb)
	if gw != nil {
		s.writer = persist.NewWriter(gw, opts.SaveDelay, s.collection)
	}
	s.board.Subscribe(s.onChange)
	return s
}

func (s *Session) ID() string      { return s.id }
func (s *Session) BoardID() string { return s.boardID }

// Load replaces the board with the persisted collections and preferences.
func (s *Session) Load(ctx context.Context) {
	if s.gw == nil {
		return
	}
	snap := s.gw.LoadBoard(ctx)
	prefs := s.gw.LoadPreferences(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelGestures()
	s.board.Load(snap)
	s.sel.Cancel()
	s.prefs = prefs
	s.board.SetPremium(prefs.Premium)
}

// OnChange registers fn to run after every committed board change.
func (s *Session) OnChange(fn func(board.Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) onChange(ch board.Change) {
	if n := s.sel.Set().Prune(ch.Removed); n > 0 {
		logrus.WithFields(logrus.Fields{"board_id": s.boardID, "pruned": n}).Debug("Selection pruned")
	}
	if s.writer != nil {
		s.writer.MarkDirty(ch.Keys...)
	}
	for _, fn := range s.listeners {
		fn(ch)
	}
}

// collection feeds the writer. It runs on debounce goroutines, never with
// the session locked.
func (s *Session) collection(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == core.KeyPreferences {
		return s.prefs, true
	}
	return s.board.Collection(key)
}

// Do runs fn with exclusive access to the board. fn must not retain b.
func (s *Session) Do(fn func(b *board.Board)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.board)
	s.runDeferred()
}

// Add creates an item. Source URLs are normalized and their preview is
// resolved in the background.
func (s *Session) Add(t core.ItemType, patch core.ItemPatch) (core.Item, *board.AddFailure) {
	normalizeURL(&patch)
	s.mu.Lock()
	it, fail := s.board.Add(t, patch)
	s.mu.Unlock()
	if fail == nil && t == core.TypeSource && it.URL != "" {
		s.schedulePreview(it.Ref(), it.URL)
	}
	return it, fail
}

// Update merges patch into the item. A changed source URL triggers a new
// preview.
func (s *Session) Update(ref core.Ref, patch core.ItemPatch) bool {
	normalizeURL(&patch)
	s.mu.Lock()
	before, _ := s.board.Get(ref)
	ok := s.board.Update(ref, patch)
	s.mu.Unlock()
	if ok && ref.Type == core.TypeSource && patch.URL != nil && *patch.URL != before.URL && *patch.URL != "" {
		s.schedulePreview(ref, *patch.URL)
	}
	return ok
}

func normalizeURL(patch *core.ItemPatch) {
	if patch.URL == nil {
		return
	}
	if href, ok := linkpreview.Normalize(*patch.URL); ok {
		patch.URL = &href
	}
}

// Undo cancels any gesture in flight, then steps history back.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelGestures()
	ok := s.board.Undo()
	s.runDeferred()
	return ok
}

func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelGestures()
	ok := s.board.Redo()
	s.runDeferred()
	return ok
}

func (s *Session) Preferences() core.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// SetPreferences stores p and applies its premium flag to the capacity
// policy.
func (s *Session) SetPreferences(p core.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = p
	s.board.SetPremium(p.Premium)
	if s.writer != nil {
		s.writer.MarkDirty(core.KeyPreferences)
	}
}

// SetTrashZone sets the screen-space drop target for deleting by drag. A nil
// rect removes it.
func (s *Session) SetTrashZone(r *geometry.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r == nil {
		s.trashZone = nil
		return
	}
	cp := *r
	s.trashZone = &cp
}

func (s *Session) trashRect() (geometry.Rect, bool) {
	if s.trashZone == nil {
		return geometry.Rect{}, false
	}
	return *s.trashZone, true
}

// Flush waits for pending previews and writes every dirty collection. It
// must not be called from an OnChange callback.
func (s *Session) Flush(ctx context.Context) error {
	s.previews.Wait()
	if s.writer == nil {
		return nil
	}
	return s.writer.Flush(ctx)
}

// Pending lists collections waiting for their debounced write.
func (s *Session) Pending() []string {
	if s.writer == nil {
		return nil
	}
	return s.writer.Pending()
}

// runDeferred applies work postponed while a gesture held live state.
func (s *Session) runDeferred() {
	if s.arb.Dragging() || len(s.deferred) == 0 {
		return
	}
	work := s.deferred
	s.deferred = nil
	for _, fn := range work {
		fn()
	}
}

// Export is the full content of a board with its preferences.
type Export struct {
	State       core.BoardState   `json:"state"`
	Folders     []core.Folder     `json:"folders"`
	Trash       []core.TrashEntry `json:"trash"`
	Preferences core.Preferences  `json:"preferences"`
}

// Export returns the committed board.
func (s *Session) Export() Export {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := Export{
		State:       s.board.Committed(),
		Folders:     s.board.Folders(),
		Trash:       s.board.Trash(),
		Preferences: s.prefs,
	}
	if e.Folders == nil {
		e.Folders = []core.Folder{}
	}
	if e.Trash == nil {
		e.Trash = []core.TrashEntry{}
	}
	return e
}

// Import replaces the board with e, resets history and schedules every
// collection for writing.
func (s *Session) Import(e Export) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelGestures()
	s.board.Load(board.Snapshot{State: e.State, Folders: e.Folders, Trash: e.Trash})
	s.sel.Cancel()
	s.prefs = e.Preferences
	s.board.SetPremium(e.Preferences.Premium)

	ch := board.Change{Keys: core.AllKeys()}
	if s.writer != nil {
		s.writer.MarkDirty(ch.Keys...)
	}
	for _, fn := range s.listeners {
		fn(ch)
	}
	logrus.WithField("board_id", s.boardID).Info("Board imported")
}

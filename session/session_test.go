package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/neti77/anotequest-v1-sub000/board"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/drawing"
	"github.com/neti77/anotequest-v1-sub000/geometry"
	"github.com/neti77/anotequest-v1-sub000/gesture"
	"github.com/neti77/anotequest-v1-sub000/linkpreview"
	"github.com/neti77/anotequest-v1-sub000/stores/memory"
)

func pos(x, y float64) *core.Position { return &core.Position{X: x, Y: y} }
func str(s string) *string             { return &s }

func addNote(t *testing.T, s *Session, x, y float64) core.Item {
	t.Helper()
	it, fail := s.Add(core.TypeNote, core.ItemPatch{Position: pos(x, y)})
	if fail != nil {
		t.Fatalf("add note: %s", fail)
	}
	return it
}

func get(t *testing.T, s *Session, ref core.Ref) core.Item {
	t.Helper()
	var it core.Item
	var ok bool
	s.Do(func(b *board.Board) { it, ok = b.Get(ref) })
	if !ok {
		t.Fatalf("item %s missing", ref.ID)
	}
	return it
}

func TestSelectionDragMovesTogether(t *testing.T) {
	s := New("test", nil, Options{})
	a := addNote(t, s, 100, 100)
	b := addNote(t, s, 500, 500)

	s.SetSelectMode(true)
	if !s.BeginBox(core.Position{X: 50, Y: 50}, false) {
		t.Fatal("box refused")
	}
	if got := s.EndBox(core.Position{X: 900, Y: 900}); len(got) != 2 {
		t.Fatalf("selected %d items, want 2", len(got))
	}

	if !s.BeginDrag(a.Ref(), core.Position{X: 110, Y: 110}) {
		t.Fatal("drag refused")
	}
	s.MoveDrag(core.Position{X: 10, Y: 5})
	s.MoveDrag(core.Position{X: 20, Y: 15})
	if out := s.EndDrag(core.Position{X: 20, Y: 15}, core.Position{X: 130, Y: 125}); out != gesture.OutcomeMoved {
		t.Fatalf("outcome = %q", out)
	}

	if p := get(t, s, a.Ref()).Position; p != (core.Position{X: 120, Y: 115}) {
		t.Errorf("A at %v", p)
	}
	if p := get(t, s, b.Ref()).Position; p != (core.Position{X: 520, Y: 515}) {
		t.Errorf("B at %v", p)
	}

	if !s.Undo() {
		t.Fatal("undo refused")
	}
	if p := get(t, s, a.Ref()).Position; p != (core.Position{X: 100, Y: 100}) {
		t.Errorf("A after undo at %v", p)
	}
	if p := get(t, s, b.Ref()).Position; p != (core.Position{X: 500, Y: 500}) {
		t.Errorf("B after undo at %v", p)
	}
}

func TestDropOnTrashPrunesSelection(t *testing.T) {
	s := New("test", nil, Options{})
	a := addNote(t, s, 300, 300)
	s.Select(a.Ref())
	s.SetTrashZone(&geometry.Rect{X: 0, Y: 0, Width: 100, Height: 100})

	if !s.BeginDrag(a.Ref(), core.Position{X: 310, Y: 310}) {
		t.Fatal("drag refused")
	}
	s.MoveDrag(core.Position{X: -250, Y: -250})
	if out := s.EndDrag(core.Position{X: -250, Y: -250}, core.Position{X: 50, Y: 50}); out != gesture.OutcomeDeleted {
		t.Fatalf("outcome = %q", out)
	}
	if n := len(s.Selection()); n != 0 {
		t.Errorf("selection has %d refs after delete", n)
	}
	var trash []core.TrashEntry
	s.Do(func(b *board.Board) { trash = b.Trash() })
	if len(trash) != 1 || trash[0].Item.Position != (core.Position{X: 300, Y: 300}) {
		t.Errorf("trash = %+v", trash)
	}
}

func TestPinchCancelsDrag(t *testing.T) {
	s := New("test", nil, Options{})
	a := addNote(t, s, 100, 100)
	s.BeginDrag(a.Ref(), core.Position{X: 110, Y: 110})
	s.MoveDrag(core.Position{X: 40, Y: 0})

	if !s.BeginPinch(core.Position{X: 0, Y: 0}, core.Position{X: 100, Y: 0}) {
		t.Fatal("pinch refused")
	}
	if p := get(t, s, a.Ref()).Position; p != (core.Position{X: 100, Y: 100}) {
		t.Errorf("drag not reverted: %v", p)
	}
	s.UpdatePinch(core.Position{X: 0, Y: 0}, core.Position{X: 200, Y: 0})
	if v := s.EndPinch(); v.Scale != 2 {
		t.Errorf("scale = %v, want 2", v.Scale)
	}
	if !s.BeginPan(core.Position{}, time.Now()) {
		t.Error("pan flag left set after pinch ends")
	}
}

func TestPanRefusedDuringDrag(t *testing.T) {
	s := New("test", nil, Options{})
	a := addNote(t, s, 100, 100)
	s.BeginDrag(a.Ref(), core.Position{X: 110, Y: 110})
	if s.BeginPan(core.Position{}, time.Now()) {
		t.Fatal("pan accepted during drag")
	}
	s.Cancel()
	if !s.BeginPan(core.Position{}, time.Now()) {
		t.Fatal("pan refused after cancel")
	}
	if s.BeginBox(core.Position{}, false) {
		t.Error("box accepted during pan")
	}
}

func TestArrowStroke(t *testing.T) {
	s := New("test", nil, Options{})
	s.SetBrush(drawing.Brush{Tool: core.ToolArrow, Width: 4})
	if !s.BeginStroke(core.Position{X: 0, Y: 0}) {
		t.Fatal("stroke refused")
	}
	s.SampleStroke(core.Position{X: 50, Y: 10})
	s.SampleStroke(core.Position{X: 100, Y: 0})
	st, ok := s.EndStroke()
	if !ok {
		t.Fatal("stroke dropped")
	}
	if len(st.Path) != 5 || st.Path[1] != (core.Position{X: 100, Y: 0}) {
		t.Errorf("path = %v", st.Path)
	}
	var n int
	s.Do(func(b *board.Board) { n = len(b.Drawings()) })
	if n != 1 {
		t.Errorf("drawings = %d, want 1", n)
	}
}

func TestInkStrokeUsesLocalPoints(t *testing.T) {
	s := New("test", nil, Options{})
	it, fail := s.Add(core.TypeNoteSticker, core.ItemPatch{Position: pos(400, 400)})
	if fail != nil {
		t.Fatal(fail)
	}
	s.SetZoom(2, core.Position{})
	if !s.BeginInk(it.ID, core.Position{X: 5, Y: 5}) {
		t.Fatal("ink refused")
	}
	s.SampleStroke(core.Position{X: 25, Y: 5})
	if _, ok := s.EndStroke(); !ok {
		t.Fatal("ink dropped")
	}
	ink := get(t, s, it.Ref()).Ink
	if len(ink) != 1 || ink[0].Path[1] != (core.Position{X: 25, Y: 5}) {
		t.Errorf("ink = %+v", ink)
	}
	if s.BeginInk("missing", core.Position{}) {
		t.Error("ink accepted for missing sticker")
	}
}

func TestSourcePreviewDetected(t *testing.T) {
	s := New("test", nil, Options{})
	it, fail := s.Add(core.TypeSource, core.ItemPatch{URL: str("youtu.be/dQw4w9WgXcQ")})
	if fail != nil {
		t.Fatal(fail)
	}
	got := get(t, s, it.Ref())
	if got.URL != "https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("url = %q", got.URL)
	}
	if got.PreviewImage != "https://img.youtube.com/vi/dQw4w9WgXcQ/mqdefault.jpg" || got.Provider != linkpreview.ProviderYouTube {
		t.Errorf("preview = %q provider = %q", got.PreviewImage, got.Provider)
	}
}

func TestSourcePreviewFetchedKeepsTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head>
<meta property="og:title" content="Page">
<meta property="og:description" content="About the page">
<meta property="og:image" content="/cover.png">
</head><body></body></html>`)
	}))
	defer srv.Close()

	s := New("test", nil, Options{Previews: linkpreview.NewFetcherWithClient(srv.Client())})
	it, fail := s.Add(core.TypeSource, core.ItemPatch{URL: str(srv.URL + "/post"), Title: str("Mine")})
	if fail != nil {
		t.Fatal(fail)
	}
	s.WaitPreviews()

	got := get(t, s, it.Ref())
	if got.Title != "Mine" {
		t.Errorf("title overwritten: %q", got.Title)
	}
	if got.Description != "About the page" {
		t.Errorf("description = %q", got.Description)
	}
	if got.PreviewImage != srv.URL+"/cover.png" {
		t.Errorf("image = %q", got.PreviewImage)
	}
}

func TestPreviewDeferredDuringDrag(t *testing.T) {
	s := New("test", nil, Options{})
	a := addNote(t, s, 100, 100)
	src, _ := s.Add(core.TypeSource, core.ItemPatch{Position: pos(600, 600)})
	s.Do(func(b *board.Board) { b.Update(src.Ref(), core.ItemPatch{URL: str("https://example.com")}) })

	s.BeginDrag(a.Ref(), core.Position{X: 110, Y: 110})
	s.MoveDrag(core.Position{X: 50, Y: 0})
	s.applyPreview(src.Ref(), "https://example.com", linkpreview.Preview{Provider: "web", Image: "https://example.com/i.png"})

	var committed core.BoardState
	s.Do(func(b *board.Board) { committed = b.Committed() })
	if i := committed.Find(a.Ref()); committed.Items[core.TypeNote][i].Position.X != 100 {
		t.Error("preview committed the in-flight drag")
	}

	s.EndDrag(core.Position{X: 50, Y: 0}, core.Position{X: 160, Y: 110})
	if got := get(t, s, src.Ref()); got.PreviewImage != "https://example.com/i.png" {
		t.Errorf("deferred preview not applied: %q", got.PreviewImage)
	}
}

func TestUndoDuringDragReverts(t *testing.T) {
	s := New("test", nil, Options{})
	a := addNote(t, s, 100, 100)
	s.BeginDrag(a.Ref(), core.Position{X: 110, Y: 110})
	s.MoveDrag(core.Position{X: 50, Y: 0})
	s.Undo()
	var n int
	s.Do(func(b *board.Board) { n = len(b.Items(core.TypeNote)) })
	if n != 0 {
		t.Errorf("notes after undo = %d, want 0", n)
	}
	if !s.BeginPan(core.Position{}, time.Now()) {
		t.Error("drag flag left set after undo")
	}
}

func TestCancelClearsSelection(t *testing.T) {
	s := New("test", nil, Options{})
	a := addNote(t, s, 100, 100)
	b := addNote(t, s, 500, 500)

	s.Select(a.Ref(), b.Ref())
	s.Update(a.Ref(), core.ItemPatch{Content: str("x")})
	s.Undo()
	if got := s.Selection(); len(got) != 2 {
		t.Fatalf("undo changed selection to %v", got)
	}

	s.SetSelectMode(true)
	if !s.BeginBox(core.Position{X: 50, Y: 50}, false) {
		t.Fatal("box refused")
	}
	s.UpdateBox(core.Position{X: 300, Y: 300})
	s.Cancel()
	if got := s.Selection(); len(got) != 0 {
		t.Errorf("selection after cancel = %v, want empty", got)
	}
	if _, ok := s.Box(); ok {
		t.Error("selection box survived cancel")
	}
	if !s.SelectMode() {
		t.Error("cancel should not leave select mode")
	}
}

func TestUpdateDuringDragKeepsCommittedPosition(t *testing.T) {
	s := New("test", nil, Options{})
	a := addNote(t, s, 100, 100)
	b := addNote(t, s, 600, 600)

	if !s.BeginDrag(a.Ref(), core.Position{X: 110, Y: 110}) {
		t.Fatal("drag refused")
	}
	s.MoveDrag(core.Position{X: 300, Y: 300})
	if !s.Update(b.Ref(), core.ItemPatch{Content: str("typed")}) {
		t.Fatal("update refused")
	}
	var committed core.Position
	s.Do(func(bd *board.Board) { committed = bd.Committed().Items[core.TypeNote][0].Position })
	if committed != (core.Position{X: 100, Y: 100}) {
		t.Errorf("committed drag position = %+v, want {100 100}", committed)
	}
	if got := get(t, s, a.Ref()).Position; got != (core.Position{X: 400, Y: 400}) {
		t.Errorf("live drag position = %+v, want {400 400}", got)
	}

	s.Cancel()
	if got := get(t, s, a.Ref()).Position; got != (core.Position{X: 100, Y: 100}) {
		t.Errorf("position after cancel = %+v, want {100 100}", got)
	}
	if got := get(t, s, b.Ref()).Content; got != "typed" {
		t.Errorf("update lost by cancel: %q", got)
	}
}

func TestManagerPersistsBoards(t *testing.T) {
	store := memory.NewStore()
	opts := Options{SaveDelay: 10 * time.Millisecond}
	ctx := context.Background()

	m := NewManager(store, opts)
	s, err := m.Get(ctx, "board-1")
	if err != nil {
		t.Fatal(err)
	}
	addNote(t, s, 100, 100)
	s.SetPreferences(core.Preferences{Username: "ada", Premium: true})
	if err := m.FlushAll(ctx); err != nil {
		t.Fatal(err)
	}

	again, _ := m.Get(ctx, "board-1")
	if again != s {
		t.Error("manager opened a second session for the same board")
	}

	m2 := NewManager(store, opts)
	s2, err := m2.Get(ctx, "board-1")
	if err != nil {
		t.Fatal(err)
	}
	var n int
	s2.Do(func(b *board.Board) { n = len(b.Items(core.TypeNote)) })
	if n != 1 {
		t.Errorf("reloaded notes = %d, want 1", n)
	}
	if p := s2.Preferences(); p.Username != "ada" || !p.Premium {
		t.Errorf("preferences = %+v", p)
	}

	other, _ := m2.Get(ctx, "board-2")
	other.Do(func(b *board.Board) { n = len(b.Items(core.TypeNote)) })
	if n != 0 {
		t.Errorf("board-2 sees %d notes", n)
	}

	if _, err := m.Get(ctx, "../etc"); err == nil {
		t.Error("expected error for invalid board id")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New("test", nil, Options{Board: board.Options{Premium: true}})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			it, fail := s.Add(core.TypeSticker, core.ItemPatch{Position: pos(float64(i*10), 0)})
			if fail != nil {
				return
			}
			s.Update(it.Ref(), core.ItemPatch{Emoji: str("*")})
			s.View()
			s.Selection()
		}(i)
	}
	wg.Wait()
	var n int
	s.Do(func(b *board.Board) { n = len(b.Items(core.TypeSticker)) })
	if n != 20 {
		t.Errorf("stickers = %d, want 20", n)
	}
}

package session

import (
	"context"
	"time"

	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/linkpreview"
	"github.com/sirupsen/logrus"
)

const defaultPreviewTimeout = 5 * time.Second

// schedulePreview resolves the preview of href for ref. Without a fetcher
// only URL detection runs, synchronously.
func (s *Session) schedulePreview(ref core.Ref, href string) {
	if s.opts.Previews == nil {
		s.applyPreview(ref, href, linkpreview.Detect(href))
		return
	}
	timeout := s.opts.PreviewTimeout
	if timeout <= 0 {
		timeout = defaultPreviewTimeout
	}
	s.previews.Add(1)
	go func() {
		defer s.previews.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		p, err := s.opts.Previews.Fetch(ctx, href)
		if err != nil {
			logrus.WithFields(logrus.Fields{"item_id": ref.ID, "url": href, "error": err}).Debug("Link preview incomplete")
		}
		s.applyPreview(ref, href, p)
	}()
}

// applyPreview fills the preview fields of a source item. Title and
// description are only set when empty. It is a no-op when the item is gone
// or its URL changed meanwhile.
func (s *Session) applyPreview(ref core.Ref, href string, p linkpreview.Preview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	apply := func() {
		it, ok := s.board.Get(ref)
		if !ok || it.URL != href {
			return
		}
		patch := previewPatch(it, p)
		if patch.Empty() {
			return
		}
		s.board.Update(ref, patch)
		logrus.WithFields(logrus.Fields{"item_id": ref.ID, "provider": p.Provider}).Debug("Link preview applied")
	}
	if s.arb.Dragging() {
		s.deferred = append(s.deferred, apply)
		return
	}
	apply()
}

func previewPatch(it core.Item, p linkpreview.Preview) core.ItemPatch {
	var patch core.ItemPatch
	if p.Provider != "" && p.Provider != it.Provider {
		patch.Provider = &p.Provider
	}
	if p.Image != "" && p.Image != it.PreviewImage {
		patch.PreviewImage = &p.Image
	}
	if it.Title == "" && p.Title != "" {
		patch.Title = &p.Title
	}
	if it.Description == "" && p.Description != "" {
		patch.Description = &p.Description
	}
	return patch
}

// WaitPreviews blocks until every background preview fetch has been applied.
func (s *Session) WaitPreviews() {
	s.previews.Wait()
}

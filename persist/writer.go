package persist

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/sirupsen/logrus"
)

const (
	DefaultDelay = 500 * time.Millisecond
	writeTimeout = 10 * time.Second
)

// Source returns the current committed value of a collection.
type Source func(key string) (any, bool)

// Writer coalesces bursts of changes into one write per collection key.
// Keys are written independently; a failed write is logged and left for the
// next change to reconcile.
type Writer struct {
	gw     *Gateway
	delay  time.Duration
	source Source

	mu         sync.Mutex
	debouncers map[string]func(func())
	pending    map[string]struct{}
	inflight   sync.WaitGroup
}

func NewWriter(gw *Gateway, delay time.Duration, source Source) *Writer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Writer{
		gw:         gw,
		delay:      delay,
		source:     source,
		debouncers: make(map[string]func(func())),
		pending:    make(map[string]struct{}),
	}
}

// MarkDirty schedules keys for writing after the quiet period.
func (w *Writer) MarkDirty(keys ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, key := range keys {
		w.pending[key] = struct{}{}
		d, ok := w.debouncers[key]
		if !ok {
			d = debounce.New(w.delay)
			w.debouncers[key] = d
		}
		k := key
		d(func() { w.fire(k) })
	}
}

// Pending lists keys waiting to be written.
func (w *Writer) Pending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	keys := make([]string, 0, len(w.pending))
	for k := range w.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (w *Writer) take(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.pending[key]; !ok {
		return false
	}
	delete(w.pending, key)
	w.inflight.Add(1)
	return true
}

func (w *Writer) fire(key string) {
	if !w.take(key) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := w.write(ctx, key); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err}).Error("Failed to save collection")
	}
}

func (w *Writer) write(ctx context.Context, key string) error {
	defer w.inflight.Done()
	v, ok := w.source(key)
	if !ok {
		logrus.WithField("key", key).Debug("No source for collection, skipping write")
		return nil
	}
	if err := w.gw.Save(ctx, key, v); err != nil {
		return err
	}
	logrus.WithField("key", key).Debug("Collection saved successfully")
	return nil
}

// Flush writes every pending key now and waits for writes already running.
func (w *Writer) Flush(ctx context.Context) error {
	var errs []error
	for _, key := range w.Pending() {
		if !w.take(key) {
			continue
		}
		if err := w.write(ctx, key); err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err}).Error("Failed to save collection")
			errs = append(errs, err)
		}
	}
	w.inflight.Wait()
	return errors.Join(errs...)
}

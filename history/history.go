// Package history implements a bounded undo/redo snapshot stack.
package history

import "github.com/sirupsen/logrus"

// DefaultDepth is the number of snapshots kept when no depth is configured.
const DefaultDepth = 50

// Manager stores snapshots in order with a cursor. The cursor is -1 when
// empty and otherwise points at the snapshot matching the live state.
type Manager[T any] struct {
	snapshots []T
	cursor    int
	depth     int
	clone     func(T) T
	applying  bool
}

// New returns a manager keeping at most depth snapshots. clone must deep-copy
// a snapshot; it is applied on every push and every read.
func New[T any](depth int, clone func(T) T) *Manager[T] {
	if depth < 1 {
		depth = DefaultDepth
	}
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Manager[T]{cursor: -1, depth: depth, clone: clone}
}

// Push records a committed state. The redo branch is discarded and the oldest
// snapshot evicted once the depth is exceeded. Push is ignored while a
// snapshot is being applied.
func (m *Manager[T]) Push(state T) bool {
	if m.applying {
		logrus.Debug("History push suppressed while applying snapshot")
		return false
	}

	m.snapshots = append(m.snapshots[:m.cursor+1], m.clone(state))
	if len(m.snapshots) > m.depth {
		evicted := len(m.snapshots) - m.depth
		m.snapshots = append(m.snapshots[:0], m.snapshots[evicted:]...)
	}
	m.cursor = min(len(m.snapshots)-1, m.depth-1)
	return true
}

// Undo moves the cursor back and hands the snapshot to apply. apply runs with
// pushes suppressed.
func (m *Manager[T]) Undo(apply func(T)) bool {
	if m.cursor <= 0 {
		return false
	}
	m.cursor--
	m.run(apply)
	return true
}

// Redo moves the cursor forward and hands the snapshot to apply.
func (m *Manager[T]) Redo(apply func(T)) bool {
	if m.cursor >= len(m.snapshots)-1 {
		return false
	}
	m.cursor++
	m.run(apply)
	return true
}

func (m *Manager[T]) run(apply func(T)) {
	if apply == nil {
		return
	}
	m.applying = true
	defer func() { m.applying = false }()
	apply(m.clone(m.snapshots[m.cursor]))
}

// Current returns a copy of the snapshot under the cursor.
func (m *Manager[T]) Current() (T, bool) {
	var zero T
	if m.cursor < 0 {
		return zero, false
	}
	return m.clone(m.snapshots[m.cursor]), true
}

// Reset drops every snapshot and starts over from state.
func (m *Manager[T]) Reset(state T) {
	m.snapshots = m.snapshots[:0]
	m.cursor = -1
	m.applying = false
	m.Push(state)
}

func (m *Manager[T]) CanUndo() bool { return m.cursor > 0 }
func (m *Manager[T]) CanRedo() bool { return m.cursor < len(m.snapshots)-1 }
func (m *Manager[T]) Len() int      { return len(m.snapshots) }
func (m *Manager[T]) Cursor() int   { return m.cursor }
func (m *Manager[T]) Depth() int    { return m.depth }
func (m *Manager[T]) Applying() bool {
	return m.applying
}

// Package selection implements rectangle selection and rigid multi-item drag.
package selection

import "github.com/neti77/anotequest-v1-sub000/core"

// Set is an insertion-ordered set of item refs.
type Set struct {
	refs  map[core.Ref]struct{}
	order []core.Ref
}

func NewSet() *Set {
	return &Set{refs: make(map[core.Ref]struct{})}
}

func (s *Set) Add(ref core.Ref) {
	if _, ok := s.refs[ref]; ok {
		return
	}
	s.refs[ref] = struct{}{}
	s.order = append(s.order, ref)
}

func (s *Set) Remove(ref core.Ref) bool {
	if _, ok := s.refs[ref]; !ok {
		return false
	}
	delete(s.refs, ref)
	for i, r := range s.order {
		if r == ref {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Set) Has(ref core.Ref) bool {
	_, ok := s.refs[ref]
	return ok
}

func (s *Set) Len() int { return len(s.order) }

// Refs returns the members in insertion order.
func (s *Set) Refs() []core.Ref {
	return append([]core.Ref{}, s.order...)
}

func (s *Set) Clear() {
	s.refs = make(map[core.Ref]struct{})
	s.order = nil
}

// Replace swaps the whole membership.
func (s *Set) Replace(refs []core.Ref) {
	s.Clear()
	for _, r := range refs {
		s.Add(r)
	}
}

// Prune drops refs to items that no longer exist. It returns how many were
// removed.
func (s *Set) Prune(removed []core.Ref) int {
	n := 0
	for _, r := range removed {
		if s.Remove(r) {
			n++
		}
	}
	return n
}

// Retain keeps only members for which live reports true.
func (s *Set) Retain(live func(core.Ref) bool) int {
	var gone []core.Ref
	for _, r := range s.order {
		if !live(r) {
			gone = append(gone, r)
		}
	}
	return s.Prune(gone)
}

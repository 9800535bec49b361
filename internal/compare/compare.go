// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package compare tracks the events selected for side-by-side comparison and
// builds the comparison table.
package compare

import "slices"

// MinSelection is the number of selected events that activates comparison.
const MinSelection = 2

// Set is an insertion-ordered set of event ids. It is independent of the
// filter criteria. Not safe for concurrent use.
type Set struct {
	ids   []int64
	index map[int64]struct{}
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{index: make(map[int64]struct{})}
}

// Toggle adds id when included is true and removes it otherwise. It reports
// whether the set changed.
func (s *Set) Toggle(id int64, included bool) bool {
	_, present := s.index[id]
	switch {
	case included && !present:
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
		return true
	case !included && present:
		delete(s.index, id)
		s.ids = slices.DeleteFunc(s.ids, func(v int64) bool { return v == id })
		return true
	}
	return false
}

// SelectAll adds every id not already selected. It reports whether the set changed.
func (s *Set) SelectAll(ids []int64) bool {
	changed := false
	for _, id := range ids {
		if s.Toggle(id, true) {
			changed = true
		}
	}
	return changed
}

// Clear empties the set. It reports whether the set changed.
func (s *Set) Clear() bool {
	if len(s.ids) == 0 {
		return false
	}
	s.ids = nil
	clear(s.index)
	return true
}

// Size returns the number of selected ids.
func (s *Set) Size() int { return len(s.ids) }

// Contains reports whether id is selected.
func (s *Set) Contains(id int64) bool {
	_, ok := s.index[id]
	return ok
}

// IDs returns the selected ids in selection order.
func (s *Set) IDs() []int64 { return slices.Clone(s.ids) }

// Active reports whether enough events are selected to compare.
func (s *Set) Active() bool { return len(s.ids) >= MinSelection }

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store holds the canonical in-memory event collection of a
// dashboard session.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/olegiv/cardwatch/internal/model"
)

// ErrImmutableField is returned when a patch tries to change the event id.
var ErrImmutableField = errors.New("field cannot be patched")

// Snapshot is a consistent view of the collection at one generation.
type Snapshot struct {
	Events     []model.Event
	Generation uint64
}

// Store is the single owner of a session's events. Lookups by id are O(1).
// Every mutation bumps the generation, which invalidates memoized aggregates.
type Store struct {
	mu     sync.RWMutex
	events []model.Event
	byID   map[int64]int
	gen    uint64
}

// New creates an empty store.
func New() *Store {
	return &Store{byID: make(map[int64]int)}
}

// ReplaceAll swaps in a new collection. The index is built before the swap so
// readers never observe a partially loaded set. Duplicate ids keep their first
// occurrence; the number of dropped duplicates is returned.
func (s *Store) ReplaceAll(events []model.Event) int {
	next := make([]model.Event, 0, len(events))
	index := make(map[int64]int, len(events))
	dropped := 0
	for _, e := range events {
		if _, dup := index[e.ID]; dup {
			dropped++
			continue
		}
		index[e.ID] = len(next)
		next = append(next, e)
	}

	s.mu.Lock()
	s.events = next
	s.byID = index
	s.gen++
	s.mu.Unlock()

	return dropped
}

// Get returns a copy of the event with the given id.
func (s *Store) Get(id int64) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return model.Event{}, false
	}
	return s.events[i], true
}

// ApplyPatch merges JSON-named fields into the event with the given id.
// An unknown id is a silent no-op and returns false. A value that does not
// fit the field's type returns an error and leaves the event unchanged.
func (s *Store) ApplyPatch(id int64, fields map[string]any) (bool, error) {
	if _, ok := fields["id"]; ok {
		return false, fmt.Errorf("patching id: %w", ErrImmutableField)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return false, nil
	}

	patched, err := mergeFields(s.events[i], fields)
	if err != nil {
		return false, fmt.Errorf("patching event %d: %w", id, err)
	}

	// Copy on write so snapshots handed out earlier stay untouched.
	next := make([]model.Event, len(s.events))
	copy(next, s.events)
	next[i] = patched
	s.events = next
	s.gen++
	return true, nil
}

// All returns the events in load order. The slice is shared with other
// readers and must not be modified.
func (s *Store) All() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events
}

// Snapshot returns the events together with the generation they belong to.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Events: s.events, Generation: s.gen}
}

// Len returns the number of loaded events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Generation returns the mutation counter.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func mergeFields(e model.Event, fields map[string]any) (model.Event, error) {
	base, err := json.Marshal(e)
	if err != nil {
		return e, fmt.Errorf("encoding event: %w", err)
	}
	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(base, &merged); err != nil {
		return e, fmt.Errorf("decoding event: %w", err)
	}
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return e, fmt.Errorf("encoding field %q: %w", k, err)
		}
		merged[k] = raw
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return e, fmt.Errorf("encoding patched event: %w", err)
	}
	var out model.Event
	if err := json.Unmarshal(data, &out); err != nil {
		return e, fmt.Errorf("decoding patched event: %w", err)
	}
	return out, nil
}

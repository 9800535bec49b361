// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"sync"
	"time"
)

// DefaultFeedSize is the number of notifications a Feed retains.
const DefaultFeedSize = 200

// Notification levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notification categories.
const (
	CategoryPipeline = "pipeline"
	CategoryBackend  = "backend"
	CategoryEdit     = "edit"
	CategoryCache    = "cache"
	CategorySession  = "session"
	CategorySystem   = "system"
)

// Notification is one entry of the user-visible notification feed.
type Notification struct {
	ID       uint64            `json:"id"`
	Level    string            `json:"level"`
	Category string            `json:"category"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Time     time.Time         `json:"time"`
}

// Feed is a bounded in-memory ring of notifications with monotonically
// increasing ids. It is safe for concurrent use.
type Feed struct {
	mu    sync.RWMutex
	buf   []Notification
	start int
	n     int
	seq   uint64
}

// NewFeed creates a feed retaining at most size notifications.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{buf: make([]Notification, size)}
}

// Push appends a notification, evicting the oldest when full, and returns
// its assigned id.
func (f *Feed) Push(n Notification) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	n.ID = f.seq
	if n.Time.IsZero() {
		n.Time = time.Now()
	}
	if f.n < len(f.buf) {
		f.buf[(f.start+f.n)%len(f.buf)] = n
		f.n++
	} else {
		f.buf[f.start] = n
		f.start = (f.start + 1) % len(f.buf)
	}
	return n.ID
}

// Notify is a shorthand for pushing a plain message.
func (f *Feed) Notify(level, category, message string) uint64 {
	return f.Push(Notification{Level: level, Category: category, Message: message})
}

// Since returns the retained notifications with id greater than after,
// oldest first.
func (f *Feed) Since(after uint64) []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Notification, 0, f.n)
	for i := 0; i < f.n; i++ {
		n := f.buf[(f.start+i)%len(f.buf)]
		if n.ID > after {
			out = append(out, n)
		}
	}
	return out
}

// Last returns the id of the newest notification, 0 when none was pushed.
func (f *Feed) Last() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.seq
}

// Len returns the number of retained notifications.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.n
}

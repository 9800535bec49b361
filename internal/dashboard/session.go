// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/cardwatch/internal/aggregate"
	"github.com/olegiv/cardwatch/internal/cache"
	"github.com/olegiv/cardwatch/internal/predicate"
)

// ErrSessionNotFound is returned for an unknown or expired session id.
var ErrSessionNotFound = errors.New("dashboard: session not found")

// DefaultIdleTimeout is how long an untouched session is kept.
const DefaultIdleTimeout = 30 * time.Minute

// ViewBuffer is a Renderer keeping the latest result of every view.
type ViewBuffer struct {
	mu    sync.RWMutex
	views map[string]ViewResult
}

// NewViewBuffer creates an empty buffer.
func NewViewBuffer() *ViewBuffer {
	return &ViewBuffer{views: make(map[string]ViewResult)}
}

// Render stores v, replacing the previous result of the same view.
func (b *ViewBuffer) Render(v ViewResult) {
	b.mu.Lock()
	b.views[v.Name] = v
	b.mu.Unlock()
}

// Get returns the latest result of one view.
func (b *ViewBuffer) Get(name string) (ViewResult, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.views[name]
	return v, ok
}

// Since returns the views rendered after revision rev, oldest first.
func (b *ViewBuffer) Since(rev uint64) []ViewResult {
	b.mu.RLock()
	out := make([]ViewResult, 0, len(b.views))
	for _, v := range b.views {
		if v.Revision > rev {
			out = append(out, v)
		}
	}
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Revision < out[j].Revision })
	return out
}

// Session is one dashboard session: a coordinator and the buffer it renders
// into. All access goes through Do, which serializes callers.
type Session struct {
	ID        string
	CreatedAt time.Time

	coord *Coordinator
	buf   *ViewBuffer

	mu       sync.Mutex
	lastSeen time.Time
	seenMu   sync.Mutex
}

// Do runs fn with exclusive access to the session's coordinator.
func (s *Session) Do(fn func(c *Coordinator)) {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.coord)
}

// Views returns the views rendered after revision since.
func (s *Session) Views(since uint64) []ViewResult {
	s.touch()
	return s.buf.Since(since)
}

// View returns the latest result of one view.
func (s *Session) View(name string) (ViewResult, bool) {
	s.touch()
	return s.buf.Get(name)
}

// Revision returns the newest rendered revision.
func (s *Session) Revision() uint64 {
	return s.coord.Revision()
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.seenMu.Lock()
	s.lastSeen = time.Now()
	s.seenMu.Unlock()
}

// SessionOptions configures a session registry.
type SessionOptions struct {
	Issuers     predicate.Issuers
	PageSize    int
	IdleTimeout time.Duration
	// Cache backs the per-session aggregate memo. Nil disables memoization.
	Cache   cache.Cache
	MemoTTL time.Duration
	Logger  *slog.Logger
	// Clock supplies the coordinator clock. Defaults to time.Now.
	Clock func() time.Time
}

// Sessions is the registry of live sessions keyed by uuid.
type Sessions struct {
	opts SessionOptions

	mu    sync.RWMutex
	items map[string]*Session
}

// NewSessions creates an empty registry.
func NewSessions(opts SessionOptions) *Sessions {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.MemoTTL <= 0 {
		opts.MemoTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Issuers.Own == "" {
		opts.Issuers = predicate.DefaultIssuers()
	}
	return &Sessions{opts: opts, items: make(map[string]*Session)}
}

// Create starts a session and renders it from the snapshot returned by
// latest, which may be nil when no backend load has completed yet. The
// session is registered before latest is read, so a snapshot published
// meanwhile is either read here or broadcast to the session afterwards.
func (m *Sessions) Create(latest func() *Snapshot) *Session {
	id := uuid.NewString()
	var memo *aggregate.Memo
	if m.opts.Cache != nil {
		memo = aggregate.NewMemo(m.opts.Cache, id, m.opts.MemoTTL)
	}
	buf := NewViewBuffer()
	now := m.opts.Clock()
	s := &Session{
		ID:        id,
		CreatedAt: now,
		buf:       buf,
		lastSeen:  time.Now(),
		coord: NewCoordinator(buf, Options{
			Issuers:  m.opts.Issuers,
			PageSize: m.opts.PageSize,
			Memo:     memo,
			Logger:   m.opts.Logger.With("session", id),
			Now:      now,
		}),
	}

	s.mu.Lock()
	m.mu.Lock()
	m.items[id] = s
	m.mu.Unlock()
	if snap := latest(); snap != nil {
		s.coord.Load(snap)
	} else {
		s.coord.RenderAll()
	}
	s.mu.Unlock()

	m.opts.Logger.Debug("session created", "session", id)
	return s
}

// Get returns a live session.
func (m *Sessions) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	m.mu.RLock()
	s, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close tears down a session. It reports whether the session existed.
func (m *Sessions) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.items[id]
	delete(m.items, id)
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.Do(func(c *Coordinator) { c.Invalidate() })
	m.opts.Logger.Debug("session closed", "session", id)
	return true
}

// Len returns the number of live sessions.
func (m *Sessions) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Sessions) all() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.items))
	for _, s := range m.items {
		out = append(out, s)
	}
	return out
}

// Broadcast loads snap into every session.
func (m *Sessions) Broadcast(snap *Snapshot) {
	for _, s := range m.all() {
		s.mu.Lock()
		s.coord.Load(snap)
		s.mu.Unlock()
	}
}

// BroadcastFeeds replaces the analytics feeds of every session.
func (m *Sessions) BroadcastFeeds(f *Feeds) {
	for _, s := range m.all() {
		s.mu.Lock()
		s.coord.SetFeeds(f)
		s.mu.Unlock()
	}
}

// Tick advances every session clock to now.
func (m *Sessions) Tick(now time.Time) {
	for _, s := range m.all() {
		s.mu.Lock()
		s.coord.Tick(now)
		s.mu.Unlock()
	}
}

// Sweep closes sessions idle for longer than the idle timeout and returns
// how many were closed.
func (m *Sessions) Sweep(now time.Time) int {
	n := 0
	for _, s := range m.all() {
		if now.Sub(s.LastSeen()) > m.opts.IdleTimeout {
			if m.Close(s.ID) {
				n++
			}
		}
	}
	if n > 0 {
		m.opts.Logger.Info("idle sessions expired", "count", n, "remaining", m.Len())
	}
	return n
}

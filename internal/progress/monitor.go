// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package progress

import (
	"context"
	"sort"
	"sync"
)

// Monitor keeps at most one active poller per job type.
type Monitor struct {
	fetch Fetcher
	opts  Options

	startMu sync.Mutex // serializes Start so replacement is stop-then-start
	mu      sync.Mutex
	pollers map[string]*Poller
}

// NewMonitor creates a monitor whose pollers share fetch and opts.
func NewMonitor(fetch Fetcher, opts Options) *Monitor {
	return &Monitor{
		fetch:   fetch,
		opts:    opts.withDefaults(),
		pollers: make(map[string]*Poller),
	}
}

// Start begins polling for job, first stopping any poller already running
// for that job type.
func (m *Monitor) Start(ctx context.Context, job string) *Poller {
	m.startMu.Lock()
	defer m.startMu.Unlock()

	m.mu.Lock()
	prev := m.pollers[job]
	p := NewPoller(job, m.fetch, m.opts)
	m.pollers[job] = p
	m.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	p.Start(ctx)
	return p
}

// Stop cancels the poller for job. It reports whether one was registered.
func (m *Monitor) Stop(job string) bool {
	m.mu.Lock()
	p, ok := m.pollers[job]
	delete(m.pollers, job)
	m.mu.Unlock()

	if ok {
		p.Stop()
	}
	return ok
}

// StopAll cancels every poller.
func (m *Monitor) StopAll() {
	m.mu.Lock()
	pollers := m.pollers
	m.pollers = make(map[string]*Poller)
	m.mu.Unlock()

	for _, p := range pollers {
		p.Stop()
	}
}

// Get returns the poller registered for job.
func (m *Monitor) Get(job string) (*Poller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pollers[job]
	return p, ok
}

// Active counts pollers still polling.
func (m *Monitor) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.pollers {
		if p.State() == StatePolling {
			n++
		}
	}
	return n
}

// Statuses returns a snapshot of every registered poller, sorted by job.
func (m *Monitor) Statuses() []Status {
	m.mu.Lock()
	pollers := make([]*Poller, 0, len(m.pollers))
	for _, p := range m.pollers {
		pollers = append(pollers, p)
	}
	m.mu.Unlock()

	out := make([]Status, 0, len(pollers))
	for _, p := range pollers {
		out = append(out, p.Status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}

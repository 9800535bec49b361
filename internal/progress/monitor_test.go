// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/cardwatch/internal/model"
)

func TestMonitorStartReplacesPrevious(t *testing.T) {
	m := NewMonitor(&script{steps: []step{running()}}, fastOpts())
	defer m.StopAll()

	first := m.Start(context.Background(), JobFull)
	second := m.Start(context.Background(), JobFull)

	waitDone(t, first)
	assert.ErrorIs(t, first.Err(), ErrStopped)
	assert.Equal(t, StatePolling, second.State())

	got, ok := m.Get(JobFull)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, m.Active())
}

func TestMonitorIndependentJobs(t *testing.T) {
	m := NewMonitor(&script{steps: []step{running()}}, fastOpts())
	defer m.StopAll()

	m.Start(context.Background(), JobFull)
	m.Start(context.Background(), JobIngest)
	m.Start(context.Background(), JobExtract)
	assert.Equal(t, 3, m.Active())

	assert.True(t, m.Stop(JobIngest))
	assert.False(t, m.Stop(JobIngest))
	assert.Equal(t, 2, m.Active())

	st := m.Statuses()
	require.Len(t, st, 2)
	assert.Equal(t, JobExtract, st[0].Job)
	assert.Equal(t, JobFull, st[1].Job)
}

func TestMonitorStopAll(t *testing.T) {
	m := NewMonitor(&script{steps: []step{running()}}, fastOpts())
	a := m.Start(context.Background(), JobFull)
	b := m.Start(context.Background(), JobExtract)

	m.StopAll()

	for _, p := range []*Poller{a, b} {
		select {
		case <-p.Done():
		case <-time.After(time.Second):
			t.Fatal("poller still running after StopAll")
		}
	}
	assert.Zero(t, m.Active())
	assert.Empty(t, m.Statuses())
}

func TestMonitorContextCancel(t *testing.T) {
	m := NewMonitor(&script{steps: []step{running()}}, fastOpts())
	ctx, cancel := context.WithCancel(context.Background())
	p := m.Start(ctx, JobFull)
	cancel()

	waitDone(t, p)
	assert.Equal(t, StateFailed, p.State())
	assert.ErrorIs(t, p.Err(), ErrStopped)
}

// gate blocks every fetch, ignoring cancellation, until release is closed.
type gate struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) Progress(context.Context) (*model.PipelineProgress, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return running().p, nil
}

func TestMonitorConcurrentStartsKeepOneLoop(t *testing.T) {
	g := newGate()
	m := NewMonitor(g, fastOpts())
	defer m.StopAll()

	first := m.Start(context.Background(), JobFull)
	<-g.entered

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		starts []*Poller
	)
	start := func() {
		defer wg.Done()
		p := m.Start(context.Background(), JobFull)
		mu.Lock()
		starts = append(starts, p)
		mu.Unlock()
	}
	wg.Add(2)
	go start()
	time.Sleep(20 * time.Millisecond) // first replacement is stuck stopping the blocked poller
	go start()
	time.Sleep(20 * time.Millisecond)
	close(g.release)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return")
	}

	waitDone(t, first)
	registered, ok := m.Get(JobFull)
	require.True(t, ok)

	require.Len(t, starts, 2)
	for _, p := range starts {
		if p == registered {
			assert.Equal(t, StatePolling, p.State())
			continue
		}
		waitDone(t, p)
		assert.ErrorIs(t, p.Err(), ErrStopped)
	}
	assert.Equal(t, 1, m.Active())
}

func TestMonitorStopDuringStart(t *testing.T) {
	g := newGate()
	m := NewMonitor(g, fastOpts())

	m.Start(context.Background(), JobFull)
	<-g.entered

	replaced := make(chan *Poller, 1)
	go func() { replaced <- m.Start(context.Background(), JobFull) }()
	time.Sleep(20 * time.Millisecond)

	// the replacement is registered but not started yet
	assert.True(t, m.Stop(JobFull))
	close(g.release)

	var p *Poller
	select {
	case p = <-replaced:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return")
	}
	waitDone(t, p)
	assert.ErrorIs(t, p.Err(), ErrStopped)
	assert.Zero(t, m.Active())
}

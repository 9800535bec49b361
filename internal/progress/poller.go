// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package progress polls the backend pipeline progress for long-running jobs.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/olegiv/cardwatch/internal/model"
)

// Poller defaults.
const (
	DefaultInterval  = 800 * time.Millisecond
	DefaultMaxErrors = 3
	DefaultGrace     = 5
)

// Job types tracked by a Monitor.
const (
	JobFull    = "full"
	JobIngest  = "ingest"
	JobExtract = "extract"
)

// ErrStopped is the result error of a poller stopped before it finished.
var ErrStopped = errors.New("progress: polling stopped")

// State is the lifecycle state of a Poller.
type State int

// Poller states.
const (
	StateIdle State = iota
	StatePolling
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether s is completed or failed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Fetcher returns the current pipeline progress.
type Fetcher interface {
	Progress(ctx context.Context) (*model.PipelineProgress, error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context) (*model.PipelineProgress, error)

// Progress calls f.
func (f FetchFunc) Progress(ctx context.Context) (*model.PipelineProgress, error) {
	return f(ctx)
}

// Options configures a Poller.
type Options struct {
	// Interval between progress requests.
	Interval time.Duration
	// MaxErrors is the number of consecutive fetch errors that fail the poll.
	MaxErrors int
	// Grace is the number of polls after which a job never seen running
	// counts as already finished.
	Grace int
	// OnUpdate is called after every successful fetch.
	OnUpdate func(job string, p *model.PipelineProgress)
	// OnFinish is called once when the poller reaches a terminal state.
	OnFinish func(job string, st Status)
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.MaxErrors <= 0 {
		o.MaxErrors = DefaultMaxErrors
	}
	if o.Grace <= 0 {
		o.Grace = DefaultGrace
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Status is a point-in-time view of a Poller.
type Status struct {
	Job       string                  `json:"job"`
	State     State                   `json:"state"`
	Progress  *model.PipelineProgress `json:"progress,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Polls     int                     `json:"polls"`
	StartedAt time.Time               `json:"started_at"`
}

// Poller re-issues a progress request on a fixed interval until the job
// completes, fails or the poller is stopped.
type Poller struct {
	job   string
	fetch Fetcher
	opts  Options

	mu        sync.Mutex
	state     State
	last      *model.PipelineProgress
	err       error
	polls     int
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	// completion tracking
	seenRunning  bool
	baseline     bool
	baseFinished string
	baseError    string
	errStreak    int
}

// NewPoller creates an idle poller for job.
func NewPoller(job string, fetch Fetcher, opts Options) *Poller {
	return &Poller{
		job:   job,
		fetch: fetch,
		opts:  opts.withDefaults(),
		done:  make(chan struct{}),
	}
}

// Job returns the job type being polled.
func (p *Poller) Job() string { return p.job }

// Start launches the polling loop. It is a no-op unless the poller is idle.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle || p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state = StatePolling
	p.startedAt = time.Now()

	p.opts.Logger.Debug("progress polling started", "job", p.job, "interval", p.opts.Interval)
	go p.run(ctx)
}

// Stop cancels the polling loop and waits for it to exit. A poller stopped
// while polling, or before it was started, ends in the failed state with
// ErrStopped, and a later Start is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	if cancel == nil {
		if p.state == StateIdle {
			p.state = StateFailed
			p.err = ErrStopped
			close(p.done)
		}
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	cancel()
	<-p.done
}

// Done is closed when the polling loop has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// State returns the current lifecycle state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the failure cause once the poller has failed.
func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Status returns a snapshot of the poller.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Status{
		Job:       p.job,
		State:     p.state,
		Progress:  p.last,
		Polls:     p.polls,
		StartedAt: p.startedAt,
	}
	if p.err != nil {
		st.Error = p.err.Error()
	}
	return st
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		if p.poll(ctx) {
			return
		}
		select {
		case <-ctx.Done():
			p.finish(StateFailed, ErrStopped)
			return
		case <-ticker.C:
		}
	}
}

// poll performs one fetch and reports whether the poller reached a
// terminal state.
func (p *Poller) poll(ctx context.Context) bool {
	prog, err := p.fetch.Progress(ctx)
	if ctx.Err() != nil {
		p.finish(StateFailed, ErrStopped)
		return true
	}

	p.mu.Lock()
	p.polls++
	if err != nil {
		p.errStreak++
		streak := p.errStreak
		p.mu.Unlock()
		p.opts.Logger.Debug("progress fetch failed", "job", p.job, "streak", streak, "error", err)
		if streak >= p.opts.MaxErrors {
			p.finish(StateFailed, fmt.Errorf("progress: %d consecutive fetch errors: %w", streak, err))
			return true
		}
		return false
	}
	p.errStreak = 0
	p.last = prog
	next, cause := p.evaluate(prog)
	p.mu.Unlock()

	if p.opts.OnUpdate != nil {
		p.opts.OnUpdate(p.job, prog)
	}
	if next.Terminal() {
		p.finish(next, cause)
		return true
	}
	return false
}

// evaluate applies the completion rules to a fetched record. Callers hold mu.
func (p *Poller) evaluate(prog *model.PipelineProgress) (State, error) {
	if !p.baseline {
		p.baseline = true
		p.baseFinished = prog.LastFinished
		p.baseError = prog.Error
	}
	if prog.Running {
		p.seenRunning = true
		return StatePolling, nil
	}
	if prog.Error != "" && (p.seenRunning || prog.Error != p.baseError) {
		return StateFailed, errors.New(prog.Error)
	}
	switch {
	case p.seenRunning:
		return StateCompleted, nil
	case prog.LastFinished != "" && prog.LastFinished != p.baseFinished:
		return StateCompleted, nil
	case p.polls >= p.opts.Grace:
		return StateCompleted, nil
	}
	return StatePolling, nil
}

func (p *Poller) finish(state State, err error) {
	p.mu.Lock()
	if p.state.Terminal() {
		p.mu.Unlock()
		return
	}
	p.state = state
	p.err = err
	st := Status{Job: p.job, State: state, Progress: p.last, Polls: p.polls, StartedAt: p.startedAt}
	if err != nil {
		st.Error = err.Error()
	}
	p.mu.Unlock()

	if state == StateFailed && !errors.Is(err, ErrStopped) {
		p.opts.Logger.Warn("pipeline job failed", "job", p.job, "error", err)
	} else {
		p.opts.Logger.Info("progress polling finished", "job", p.job, "state", state.String(), "polls", st.Polls)
	}
	if p.opts.OnFinish != nil {
		p.opts.OnFinish(p.job, st)
	}
}

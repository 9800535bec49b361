// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic dashboard jobs: backend reloads, idle
// session expiry and the day-rollover clock tick.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Built-in job names.
const (
	JobRefresh = "refresh"
	JobSweep   = "session-sweep"
	JobClock   = "clock-tick"
)

// DefaultJobTimeout bounds a single run of a job.
const DefaultJobTimeout = 2 * time.Minute

// JobFunc is the body of a scheduled job.
type JobFunc func(ctx context.Context) error

// Scheduler wraps a cron instance and its job registry.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	logger   *slog.Logger
	timeout  time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a new scheduler instance. loc is the time zone schedules are
// evaluated in; nil selects the local zone.
func New(logger *slog.Logger, loc *time.Location) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		registry: NewRegistry(logger),
		logger:   logger,
		timeout:  DefaultJobTimeout,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Registry returns the job registry.
func (s *Scheduler) Registry() *Registry { return s.registry }

// Add schedules fn under name. When triggerable, the job can also be run on
// demand through the registry.
func (s *Scheduler) Add(name, description, schedule string, triggerable bool, fn JobFunc) error {
	if err := ValidateSchedule(schedule); err != nil {
		return fmt.Errorf("scheduling %s: %w", name, err)
	}

	run := func() error { return s.run(name, fn) }
	jobFunc := func() { _ = run() }

	id, err := s.cron.AddFunc(schedule, jobFunc)
	if err != nil {
		return fmt.Errorf("scheduling %s: %w", name, err)
	}

	var trigger func() error
	if triggerable {
		trigger = run
	}
	s.registry.Register(name, description, schedule, s.cron, id, jobFunc, trigger)
	return nil
}

// run executes one job with a timeout and records the outcome.
func (s *Scheduler) run(name string, fn JobFunc) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	s.registry.record(name, err)
	if err != nil {
		s.logger.Error("scheduled job failed", "job", name, "error", err, "duration", time.Since(start))
		return err
	}
	s.logger.Debug("scheduled job completed", "job", name, "duration", time.Since(start))
	return nil
}

// Start begins running the scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop gracefully stops the scheduler, cancelling running jobs and waiting
// for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

// Registry errors.
var (
	ErrJobNotFound     = errors.New("scheduler: job not found")
	ErrTriggerDisabled = errors.New("scheduler: manual trigger not available")
	ErrTriggerLimited  = errors.New("scheduler: job was triggered too recently")
)

// triggerInterval is the minimum spacing of manual triggers per job.
const triggerInterval = 10 * time.Second

// registeredJob holds metadata about a registered cron job.
type registeredJob struct {
	name            string
	description     string
	defaultSchedule string
	schedule        string // effective schedule
	cronInstance    *cron.Cron
	entryID         cron.EntryID
	jobFunc         func()
	triggerFunc     func() error // nil if manual trigger not allowed
	limiter         *rate.Limiter

	lastErr  string
	runs     int64
	failures int64
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DefaultSchedule string    `json:"default_schedule"`
	Schedule        string    `json:"schedule"`
	IsOverridden    bool      `json:"is_overridden"`
	LastRun         time.Time `json:"last_run"`
	NextRun         time.Time `json:"next_run"`
	CanTrigger      bool      `json:"can_trigger"`
	Runs            int64     `json:"runs"`
	Failures        int64     `json:"failures"`
	LastError       string    `json:"last_error,omitempty"`
}

// Registry keeps every scheduled job by name.
type Registry struct {
	logger *slog.Logger
	mu     sync.RWMutex
	jobs   map[string]*registeredJob
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger: logger,
		jobs:   make(map[string]*registeredJob),
	}
}

// Register records a job in the registry after it has been added to a cron instance.
func (r *Registry) Register(name, description, schedule string, cronInst *cron.Cron, entryID cron.EntryID, jobFunc func(), triggerFunc func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[name] = &registeredJob{
		name:            name,
		description:     description,
		defaultSchedule: schedule,
		schedule:        schedule,
		cronInstance:    cronInst,
		entryID:         entryID,
		jobFunc:         jobFunc,
		triggerFunc:     triggerFunc,
		limiter:         rate.NewLimiter(rate.Every(triggerInterval), 1),
	}

	r.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
}

// record stores the outcome of one run.
func (r *Registry) record(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[name]
	if !ok {
		return
	}
	job.runs++
	if err != nil {
		job.failures++
		job.lastErr = err.Error()
		return
	}
	job.lastErr = ""
}

// List returns all registered jobs sorted by name.
func (r *Registry) List() []JobInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]JobInfo, 0, len(r.jobs))
	for _, job := range r.jobs {
		info := JobInfo{
			Name:            job.name,
			Description:     job.description,
			DefaultSchedule: job.defaultSchedule,
			Schedule:        job.schedule,
			IsOverridden:    job.schedule != job.defaultSchedule,
			CanTrigger:      job.triggerFunc != nil,
			Runs:            job.runs,
			Failures:        job.failures,
			LastError:       job.lastErr,
		}

		if job.cronInstance != nil {
			entry := job.cronInstance.Entry(job.entryID)
			info.NextRun = entry.Next
			info.LastRun = entry.Prev
		}

		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// TriggerNow manually executes a job immediately. Triggers of the same job
// are limited to one per ten seconds.
func (r *Registry) TriggerNow(name string) error {
	r.mu.RLock()
	job, ok := r.jobs[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if job.triggerFunc == nil {
		return fmt.Errorf("%w: %s", ErrTriggerDisabled, name)
	}
	if !job.limiter.Allow() {
		return fmt.Errorf("%w: %s", ErrTriggerLimited, name)
	}

	r.logger.Info("manually triggering job", "name", name)
	return job.triggerFunc()
}

// UpdateSchedule changes the schedule for a job. Removes the old cron entry
// and adds a new one with the updated schedule.
func (r *Registry) UpdateSchedule(name, newSchedule string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	if job.cronInstance == nil || job.jobFunc == nil {
		return fmt.Errorf("job cannot be rescheduled: %s", name)
	}

	if err := ValidateSchedule(newSchedule); err != nil {
		return err
	}

	// Remove old entry and add new one
	job.cronInstance.Remove(job.entryID)
	newEntryID, err := job.cronInstance.AddFunc(newSchedule, job.jobFunc)
	if err != nil {
		// Re-add with old schedule on failure
		fallbackID, fallbackErr := job.cronInstance.AddFunc(job.schedule, job.jobFunc)
		if fallbackErr != nil {
			return fmt.Errorf("critical: failed to restore schedule after update failure: %w (original: %w)", fallbackErr, err)
		}
		job.entryID = fallbackID
		return fmt.Errorf("failed to apply new schedule: %w", err)
	}

	job.entryID = newEntryID
	job.schedule = newSchedule

	r.logger.Info("updated job schedule", "name", name, "schedule", newSchedule)
	return nil
}

// ResetSchedule restores the default schedule.
func (r *Registry) ResetSchedule(name string) error {
	r.mu.RLock()
	job, ok := r.jobs[name]
	var def string
	if ok {
		def = job.defaultSchedule
	}
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return r.UpdateSchedule(name, def)
}

// Unregister removes a job from the registry and stops its cron entry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[name]
	if !ok {
		return
	}

	if job.cronInstance != nil {
		job.cronInstance.Remove(job.entryID)
	}

	delete(r.jobs, name)
	r.logger.Debug("unregistered scheduled job", "name", name)
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"errors"
	"testing"

	"github.com/robfig/cron/v3"
)

func TestNewRegistry(t *testing.T) {
	logger := testLogger()
	registry := NewRegistry(logger)

	if registry == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if registry.logger != logger {
		t.Error("registry.logger not set correctly")
	}
	if registry.jobs == nil {
		t.Error("registry.jobs should be initialized")
	}
}

func TestRegister(t *testing.T) {
	registry := NewRegistry(testLogger())

	cronInst := cron.New()
	defer cronInst.Stop()

	jobFunc := func() {}
	entryID, err := cronInst.AddFunc("@every 1h", jobFunc)
	if err != nil {
		t.Fatalf("failed to add cron job: %v", err)
	}

	registry.Register(JobSweep, "expire idle sessions", "@every 1h", cronInst, entryID, jobFunc, nil)

	jobs := registry.List()
	if len(jobs) != 1 {
		t.Fatalf("List() returned %d jobs, want 1", len(jobs))
	}
	job := jobs[0]
	if job.Name != JobSweep {
		t.Errorf("Name = %q, want %q", job.Name, JobSweep)
	}
	if job.Schedule != "@every 1h" || job.DefaultSchedule != "@every 1h" {
		t.Errorf("Schedule = %q, DefaultSchedule = %q", job.Schedule, job.DefaultSchedule)
	}
	if job.IsOverridden {
		t.Error("IsOverridden should be false")
	}
	if job.CanTrigger {
		t.Error("CanTrigger should be false when triggerFunc is nil")
	}
}

func TestList_SortedByName(t *testing.T) {
	registry := NewRegistry(testLogger())
	for _, name := range []string{JobSweep, JobClock, JobRefresh} {
		registry.Register(name, "", "@hourly", nil, 0, nil, nil)
	}

	jobs := registry.List()
	want := []string{JobClock, JobRefresh, JobSweep}
	for i, job := range jobs {
		if job.Name != want[i] {
			t.Errorf("jobs[%d] = %q, want %q", i, job.Name, want[i])
		}
	}
}

func TestTriggerNow(t *testing.T) {
	registry := NewRegistry(testLogger())
	calls := 0
	registry.Register(JobRefresh, "", "@hourly", nil, 0, nil, func() error {
		calls++
		return nil
	})
	registry.Register(JobClock, "", "@hourly", nil, 0, nil, nil)

	if err := registry.TriggerNow(JobRefresh); err != nil {
		t.Fatalf("TriggerNow() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	if err := registry.TriggerNow(JobRefresh); !errors.Is(err, ErrTriggerLimited) {
		t.Errorf("second TriggerNow() error = %v, want %v", err, ErrTriggerLimited)
	}
	if calls != 1 {
		t.Errorf("limited trigger ran the job")
	}

	if err := registry.TriggerNow(JobClock); !errors.Is(err, ErrTriggerDisabled) {
		t.Errorf("TriggerNow(clock) error = %v, want %v", err, ErrTriggerDisabled)
	}
	if err := registry.TriggerNow("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("TriggerNow(missing) error = %v, want %v", err, ErrJobNotFound)
	}
}

func TestUpdateSchedule(t *testing.T) {
	registry := NewRegistry(testLogger())
	cronInst := cron.New()
	defer cronInst.Stop()

	jobFunc := func() {}
	entryID, err := cronInst.AddFunc("*/10 * * * *", jobFunc)
	if err != nil {
		t.Fatalf("failed to add cron job: %v", err)
	}
	registry.Register(JobRefresh, "", "*/10 * * * *", cronInst, entryID, jobFunc, nil)

	if err := registry.UpdateSchedule(JobRefresh, "*/5 * * * *"); err != nil {
		t.Fatalf("UpdateSchedule() error = %v", err)
	}
	job := registry.List()[0]
	if job.Schedule != "*/5 * * * *" || !job.IsOverridden {
		t.Errorf("after update: Schedule = %q, IsOverridden = %v", job.Schedule, job.IsOverridden)
	}
	if len(cronInst.Entries()) != 1 {
		t.Errorf("cron has %d entries, want 1", len(cronInst.Entries()))
	}

	if err := registry.UpdateSchedule(JobRefresh, "invalid"); err == nil {
		t.Error("UpdateSchedule() should reject an invalid expression")
	}
	if got := registry.List()[0].Schedule; got != "*/5 * * * *" {
		t.Errorf("schedule changed after rejected update: %q", got)
	}

	if err := registry.ResetSchedule(JobRefresh); err != nil {
		t.Fatalf("ResetSchedule() error = %v", err)
	}
	job = registry.List()[0]
	if job.Schedule != "*/10 * * * *" || job.IsOverridden {
		t.Errorf("after reset: Schedule = %q, IsOverridden = %v", job.Schedule, job.IsOverridden)
	}

	if err := registry.UpdateSchedule("missing", "@hourly"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("UpdateSchedule(missing) error = %v", err)
	}
}

func TestUnregister(t *testing.T) {
	registry := NewRegistry(testLogger())
	cronInst := cron.New()
	defer cronInst.Stop()

	jobFunc := func() {}
	entryID, _ := cronInst.AddFunc("@hourly", jobFunc)
	registry.Register(JobClock, "", "@hourly", cronInst, entryID, jobFunc, nil)

	registry.Unregister(JobClock)
	registry.Unregister(JobClock)

	if len(registry.List()) != 0 {
		t.Error("job still registered")
	}
	if len(cronInst.Entries()) != 0 {
		t.Error("cron entry not removed")
	}
}

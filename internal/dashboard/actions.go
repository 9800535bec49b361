// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olegiv/cardwatch/internal/logging"
	"github.com/olegiv/cardwatch/internal/model"
	"github.com/olegiv/cardwatch/internal/progress"
)

// Action errors.
var (
	ErrUnknownJob    = errors.New("dashboard: unknown pipeline job")
	ErrEmptyEdit     = errors.New("dashboard: manual update has no fields")
	ErrImmutableEdit = errors.New("dashboard: event id cannot be edited")
)

// DefaultExtractLimit is the batch size of an "extract" pipeline job.
const DefaultExtractLimit = 10

// Mutator is the write side of the backend API.
type Mutator interface {
	TriggerPipeline(ctx context.Context, job, company string) (*model.TriggerResult, error)
	ExtractPending(ctx context.Context, limit int) (*model.TriggerResult, error)
	ExtractDetail(ctx context.Context, id int64) (*model.MutationResult, error)
	ManualUpdate(ctx context.Context, id int64, upd model.ManualUpdate) (*model.MutationResult, error)
	ToggleLock(ctx context.Context, id int64) (*model.MutationResult, error)
	EditHistory(ctx context.Context, id int64) ([]model.EditRecord, error)
}

// Actions performs analyst mutations against the backend. Local state is
// only changed after the backend confirms: the confirmed fields are patched
// into every session and then the canonical collection is reloaded.
type Actions struct {
	backend Mutator
	hub     *Hub
	notices *logging.Feed
	logger  *slog.Logger
}

// NewActions creates the action set.
func NewActions(backend Mutator, hub *Hub, notices *logging.Feed, logger *slog.Logger) *Actions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Actions{backend: backend, hub: hub, notices: notices, logger: logger}
}

func (a *Actions) notify(category, msg string) {
	if a.notices != nil {
		a.notices.Notify(logging.LevelInfo, category, msg)
	}
}

// patchAll applies a confirmed patch to every session.
func (a *Actions) patchAll(id int64, fields map[string]any) {
	for _, s := range a.hub.Sessions().all() {
		s.Do(func(c *Coordinator) {
			if _, err := c.ApplyPatch(id, fields); err != nil && !errors.Is(err, ErrDeferred) {
				a.logger.Debug("local patch skipped", "session", s.ID, "event_id", id, "error", err)
			}
		})
	}
}

func (a *Actions) reload(ctx context.Context) {
	if _, err := a.hub.Refresh(ctx); err != nil {
		a.logger.Warn("reload after edit failed", "error", err)
	}
}

// ManualUpdate submits an analyst correction.
func (a *Actions) ManualUpdate(ctx context.Context, id int64, fields map[string]any, reason string) (*model.MutationResult, error) {
	if len(fields) == 0 {
		return nil, ErrEmptyEdit
	}
	if _, ok := fields["id"]; ok {
		return nil, ErrImmutableEdit
	}

	res, err := a.backend.ManualUpdate(ctx, id, model.ManualUpdate{
		Fields: fields,
		Reason: strings.TrimSpace(reason),
	})
	if err != nil {
		a.logger.Warn("manual update failed", "category", logging.CategoryEdit, "event_id", id, "error", err)
		return nil, fmt.Errorf("manual update of event %d: %w", id, err)
	}

	a.patchAll(id, fields)
	a.notify(logging.CategoryEdit, messageOr(res.Message, fmt.Sprintf("이벤트 %d 수정 완료", id)))
	a.reload(ctx)
	return res, nil
}

// ToggleLock flips an event's lock.
func (a *Actions) ToggleLock(ctx context.Context, id int64) (*model.MutationResult, error) {
	res, err := a.backend.ToggleLock(ctx, id)
	if err != nil {
		a.logger.Warn("lock toggle failed", "category", logging.CategoryEdit, "event_id", id, "error", err)
		return nil, fmt.Errorf("toggling lock of event %d: %w", id, err)
	}

	if res.Locked != nil {
		a.patchAll(id, map[string]any{"locked": *res.Locked})
	}
	a.notify(logging.CategoryEdit, messageOr(res.Message, fmt.Sprintf("이벤트 %d 잠금 변경", id)))
	a.reload(ctx)
	return res, nil
}

// History returns an event's manual edit log.
func (a *Actions) History(ctx context.Context, id int64) ([]model.EditRecord, error) {
	recs, err := a.backend.EditHistory(ctx, id)
	if err != nil {
		a.logger.Warn("edit history unavailable", "category", logging.CategoryEdit, "event_id", id, "error", err)
		return nil, fmt.Errorf("loading edit history of event %d: %w", id, err)
	}
	return recs, nil
}

// ExtractDetail re-extracts one event and reloads on success.
func (a *Actions) ExtractDetail(ctx context.Context, id int64) (*model.MutationResult, error) {
	res, err := a.backend.ExtractDetail(ctx, id)
	if err != nil {
		a.logger.Warn("detail extraction failed", "category", logging.CategoryPipeline, "event_id", id, "error", err)
		return nil, fmt.Errorf("extracting event %d: %w", id, err)
	}
	a.notify(logging.CategoryPipeline, messageOr(res.Message, fmt.Sprintf("이벤트 %d 상세 추출 완료", id)))
	a.reload(ctx)
	return res, nil
}

// TriggerPipeline starts a backend job and polls its progress. A job the
// backend reports as not started is not polled.
func (a *Actions) TriggerPipeline(ctx context.Context, job, company string) (*model.TriggerResult, error) {
	var (
		res *model.TriggerResult
		err error
	)
	switch job {
	case progress.JobFull, progress.JobIngest:
		res, err = a.backend.TriggerPipeline(ctx, job, company)
	case progress.JobExtract:
		res, err = a.backend.ExtractPending(ctx, DefaultExtractLimit)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, job)
	}
	if err != nil {
		a.logger.Warn("pipeline trigger failed", "job", job, "error", err)
		return nil, fmt.Errorf("starting %s job: %w", job, err)
	}

	if !res.Started {
		a.notify(logging.CategoryPipeline, messageOr(res.Message, "작업이 이미 실행 중입니다"))
		return res, nil
	}
	a.notify(logging.CategoryPipeline, messageOr(res.Message, "작업 시작: "+job))
	a.hub.StartJob(job)
	return res, nil
}

func messageOr(msg, fallback string) string {
	if msg = strings.TrimSpace(msg); msg != "" {
		return msg
	}
	return fallback
}

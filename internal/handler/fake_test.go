// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/olegiv/cardwatch/internal/model"
)

var (
	kst    = time.FixedZone("KST", 9*60*60)
	refNow = time.Date(2025, 3, 10, 12, 0, 0, 0, kst)
)

// fakeBackend implements dashboard.Backend and dashboard.Mutator in memory.
type fakeBackend struct {
	mu        sync.Mutex
	events    []model.Event
	eventsErr error
	mutateErr error
	started   bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		events: []model.Event{
			{ID: 1, Company: "신한카드", Title: "신한 여행 캐시백", Category: "여행", Status: model.StatusActive},
			{ID: 2, Company: "현대카드", Title: "현대 여행 할인", Category: "여행", Status: model.StatusActive, BenefitValue: "5만원"},
			{ID: 3, Company: "삼성카드", Title: "삼성 쇼핑 적립", Category: "쇼핑", Status: model.StatusEnded},
		},
		started: true,
	}
}

func (f *fakeBackend) setMutateErr(err error) {
	f.mu.Lock()
	f.mutateErr = err
	f.mu.Unlock()
}

func (f *fakeBackend) Progress(context.Context) (*model.PipelineProgress, error) {
	return &model.PipelineProgress{Running: true, Phase: "ingest"}, nil
}

func (f *fakeBackend) Events(context.Context) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return append([]model.Event(nil), f.events...), nil
}

func (f *fakeBackend) Stats(context.Context) (*model.Stats, error) {
	return &model.Stats{TotalEvents: 3}, nil
}

func (f *fakeBackend) CompanyOverview(context.Context) (*model.CompanyOverview, error) {
	return &model.CompanyOverview{}, nil
}

func (f *fakeBackend) BenefitBenchmark(context.Context) (*model.BenefitBenchmark, error) {
	return &model.BenefitBenchmark{}, nil
}

func (f *fakeBackend) StrategyMap(context.Context) (*model.StrategyMap, error) {
	return &model.StrategyMap{}, nil
}

func (f *fakeBackend) Trends(_ context.Context, from, to time.Time) (*model.Trends, error) {
	return &model.Trends{From: from.Format(time.DateOnly), To: to.Format(time.DateOnly)}, nil
}

func (f *fakeBackend) Briefings(_ context.Context, force bool) (*model.Briefings, error) {
	src := "cache"
	if force {
		src = "fresh"
	}
	return &model.Briefings{Items: []model.BriefingItem{{Company: "현대카드", Source: src}}}, nil
}

func (f *fakeBackend) QualitativeComparison(context.Context, bool) (*model.QualitativeComparison, error) {
	return &model.QualitativeComparison{Companies: []string{"현대카드"}}, nil
}

func (f *fakeBackend) ShinhanGap(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (f *fakeBackend) ShinhanGapTrend(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (f *fakeBackend) CompareMatrix(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (f *fakeBackend) TextComparison(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (f *fakeBackend) Intelligence(_ context.Context, id int64) (*model.Intelligence, error) {
	return &model.Intelligence{
		Insight: json.RawMessage(fmt.Sprintf(`{"benefit_level":"높음","marketing_takeaway":"event %d"}`, id)),
	}, nil
}

func (f *fakeBackend) TriggerPipeline(context.Context, string, string) (*model.TriggerResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	return &model.TriggerResult{Started: f.started, Message: "started"}, nil
}

func (f *fakeBackend) ExtractPending(context.Context, int) (*model.TriggerResult, error) {
	return f.TriggerPipeline(context.Background(), "extract", "")
}

func (f *fakeBackend) ExtractDetail(_ context.Context, id int64) (*model.MutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	return &model.MutationResult{Message: fmt.Sprintf("추출 완료 %d", id)}, nil
}

func (f *fakeBackend) ManualUpdate(_ context.Context, id int64, upd model.ManualUpdate) (*model.MutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	for i := range f.events {
		if f.events[i].ID == id {
			if title, ok := upd.Fields["title"].(string); ok {
				f.events[i].Title = title
			}
		}
	}
	return &model.MutationResult{Message: "저장되었습니다"}, nil
}

func (f *fakeBackend) ToggleLock(_ context.Context, id int64) (*model.MutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	locked := false
	for i := range f.events {
		if f.events[i].ID == id {
			f.events[i].Locked = !f.events[i].Locked
			locked = f.events[i].Locked
		}
	}
	return &model.MutationResult{Locked: &locked}, nil
}

func (f *fakeBackend) EditHistory(_ context.Context, id int64) ([]model.EditRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	return []model.EditRecord{{FieldName: "title", NewValue: fmt.Sprint(id), Reason: "오타"}}, nil
}

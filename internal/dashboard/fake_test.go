// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/olegiv/cardwatch/internal/model"
)

var (
	kst    = time.FixedZone("KST", 9*60*60)
	refNow = time.Date(2025, 3, 10, 12, 0, 0, 0, kst)
)

func fixture() []model.Event {
	return []model.Event{
		{ID: 1, Company: "신한카드", Title: "신한 여행 캐시백", Category: "여행", Status: model.StatusActive},
		{ID: 2, Company: "현대카드", Title: "현대 여행 할인", Category: "여행", Status: model.StatusActive, BenefitAmountWon: 50000},
		{ID: 3, Company: "삼성카드", Title: "삼성 쇼핑 적립", Category: "쇼핑", Status: model.StatusEnded},
	}
}

var errBackendDown = errors.New("backend down")

// fakeBackend implements Backend and Mutator in memory.
type fakeBackend struct {
	mu sync.Mutex

	events    []model.Event
	eventsErr error
	failFeeds map[string]bool
	failIntel map[int64]bool
	started   bool
	mutateErr error

	eventsGate chan struct{} // when set, Events blocks until it is closed

	eventCalls int
	intelCalls int
	forced     []string
	triggered  []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		events:    fixture(),
		failFeeds: map[string]bool{},
		failIntel: map[int64]bool{},
		started:   true,
	}
}

func (f *fakeBackend) feedErr(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFeeds[name] {
		return fmt.Errorf("%s: %w", name, errBackendDown)
	}
	return nil
}

func (f *fakeBackend) Progress(context.Context) (*model.PipelineProgress, error) {
	return &model.PipelineProgress{}, nil
}

func (f *fakeBackend) Events(context.Context) ([]model.Event, error) {
	f.mu.Lock()
	f.eventCalls++
	gate := f.eventsGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return append([]model.Event(nil), f.events...), nil
}

func (f *fakeBackend) Stats(context.Context) (*model.Stats, error) {
	if err := f.feedErr(FeedStats); err != nil {
		return nil, err
	}
	return &model.Stats{TotalEvents: 3}, nil
}

func (f *fakeBackend) CompanyOverview(context.Context) (*model.CompanyOverview, error) {
	if err := f.feedErr(FeedOverview); err != nil {
		return nil, err
	}
	return &model.CompanyOverview{Companies: []model.CompanyStat{{Company: "현대카드", CollectedCount: 1}}}, nil
}

func (f *fakeBackend) BenefitBenchmark(context.Context) (*model.BenefitBenchmark, error) {
	if err := f.feedErr(FeedBenchmark); err != nil {
		return nil, err
	}
	return &model.BenefitBenchmark{Companies: map[string]model.BenchmarkRow{"현대카드": {Count: 1}}}, nil
}

func (f *fakeBackend) StrategyMap(context.Context) (*model.StrategyMap, error) {
	if err := f.feedErr(FeedStrategyMap); err != nil {
		return nil, err
	}
	return &model.StrategyMap{Heatmap: map[string]map[string]int{"현대카드": {"신규고객": 1}}}, nil
}

func (f *fakeBackend) Trends(_ context.Context, from, to time.Time) (*model.Trends, error) {
	if err := f.feedErr(FeedTrends); err != nil {
		return nil, err
	}
	return &model.Trends{From: from.Format(time.DateOnly), To: to.Format(time.DateOnly)}, nil
}

func (f *fakeBackend) Briefings(_ context.Context, force bool) (*model.Briefings, error) {
	if err := f.feedErr(FeedBriefings); err != nil {
		return nil, err
	}
	src := "cache"
	if force {
		f.mu.Lock()
		f.forced = append(f.forced, FeedBriefings)
		f.mu.Unlock()
		src = "fresh"
	}
	return &model.Briefings{Items: []model.BriefingItem{{Company: "현대카드", Source: src}}}, nil
}

func (f *fakeBackend) QualitativeComparison(_ context.Context, force bool) (*model.QualitativeComparison, error) {
	if err := f.feedErr(FeedQualitative); err != nil {
		return nil, err
	}
	if force {
		f.mu.Lock()
		f.forced = append(f.forced, FeedQualitative)
		f.mu.Unlock()
	}
	return &model.QualitativeComparison{Companies: []string{"현대카드"}}, nil
}

func (f *fakeBackend) raw(name string) (json.RawMessage, error) {
	if err := f.feedErr(name); err != nil {
		return nil, err
	}
	return json.RawMessage(`{"feed":"` + name + `"}`), nil
}

func (f *fakeBackend) ShinhanGap(context.Context) (json.RawMessage, error) { return f.raw(FeedGap) }

func (f *fakeBackend) ShinhanGapTrend(context.Context) (json.RawMessage, error) {
	return f.raw(FeedGapTrend)
}

func (f *fakeBackend) CompareMatrix(context.Context) (json.RawMessage, error) {
	return f.raw(FeedCompareMatrix)
}

func (f *fakeBackend) TextComparison(context.Context) (json.RawMessage, error) {
	return f.raw(FeedTextComparison)
}

func (f *fakeBackend) Intelligence(_ context.Context, id int64) (*model.Intelligence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intelCalls++
	if f.failIntel[id] {
		return nil, errBackendDown
	}
	return &model.Intelligence{
		Insight: json.RawMessage(`{"benefit_level":"높음","marketing_takeaway":"event ` + fmt.Sprint(id) + `"}`),
	}, nil
}

func (f *fakeBackend) TriggerPipeline(_ context.Context, job, _ string) (*model.TriggerResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	f.triggered = append(f.triggered, job)
	return &model.TriggerResult{Started: f.started}, nil
}

func (f *fakeBackend) ExtractPending(_ context.Context, _ int) (*model.TriggerResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	f.triggered = append(f.triggered, "extract")
	return &model.TriggerResult{Started: true}, nil
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
	return []model.EditRecord{{FieldName: "title", NewValue: fmt.Sprint(id)}}, nil
}

func noSnapshot() *Snapshot { return nil }

func snapshotOf(s *Snapshot) func() *Snapshot {
	return func() *Snapshot { return s }
}

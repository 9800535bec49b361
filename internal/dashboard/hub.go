// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olegiv/cardwatch/internal/cache"
	"github.com/olegiv/cardwatch/internal/logging"
	"github.com/olegiv/cardwatch/internal/model"
	"github.com/olegiv/cardwatch/internal/progress"
)

// ErrUnknownFeed is returned by ForceFeed for a feed that cannot be forced.
var ErrUnknownFeed = errors.New("dashboard: feed does not support forced refresh")

// Backend is the read side of the backend API.
type Backend interface {
	progress.Fetcher

	Events(ctx context.Context) ([]model.Event, error)
	Stats(ctx context.Context) (*model.Stats, error)
	CompanyOverview(ctx context.Context) (*model.CompanyOverview, error)
	BenefitBenchmark(ctx context.Context) (*model.BenefitBenchmark, error)
	StrategyMap(ctx context.Context) (*model.StrategyMap, error)
	Trends(ctx context.Context, from, to time.Time) (*model.Trends, error)
	Briefings(ctx context.Context, force bool) (*model.Briefings, error)
	QualitativeComparison(ctx context.Context, force bool) (*model.QualitativeComparison, error)
	ShinhanGap(ctx context.Context) (json.RawMessage, error)
	ShinhanGapTrend(ctx context.Context) (json.RawMessage, error)
	CompareMatrix(ctx context.Context) (json.RawMessage, error)
	TextComparison(ctx context.Context) (json.RawMessage, error)
	Intelligence(ctx context.Context, id int64) (*model.Intelligence, error)
}

// HubOptions configures a Hub.
type HubOptions struct {
	// Cache keeps the last snapshot and fetched event details. Nil disables
	// caching.
	Cache       cache.Cache
	SnapshotTTL time.Duration
	DetailTTL   time.Duration
	// TrendsDays is the trends window ending today.
	TrendsDays int
	// DetailConcurrency bounds concurrent intelligence requests.
	DetailConcurrency int
	PollInterval      time.Duration
	Notices           *logging.Feed
	Logger            *slog.Logger
	Clock             func() time.Time
}

// Hub loads the backend feeds, keeps the latest snapshot and pushes it to
// every session. It owns the pipeline progress monitor.
type Hub struct {
	backend  Backend
	sessions *Sessions
	opts     HubOptions
	logger   *slog.Logger
	monitor  *progress.Monitor

	snapshots *cache.TypedCache[Snapshot]
	details   *cache.TypedCache[model.Intelligence]

	refreshMu sync.Mutex
	mu        sync.RWMutex
	latest    *Snapshot
	ctx       context.Context
}

// NewHub creates a hub publishing into sessions.
func NewHub(b Backend, sessions *Sessions, opts HubOptions) *Hub {
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = 24 * time.Hour
	}
	if opts.DetailTTL <= 0 {
		opts.DetailTTL = 30 * time.Minute
	}
	if opts.TrendsDays <= 0 {
		opts.TrendsDays = 90
	}
	if opts.DetailConcurrency <= 0 {
		opts.DetailConcurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	h := &Hub{
		backend:  b,
		sessions: sessions,
		opts:     opts,
		logger:   opts.Logger,
		ctx:      context.Background(),
	}
	if opts.Cache != nil {
		h.snapshots = cache.NewTypedCache[Snapshot](opts.Cache, "snapshot:", opts.SnapshotTTL)
		h.details = cache.NewTypedCache[model.Intelligence](opts.Cache, "intel:", opts.DetailTTL)
	}
	h.monitor = progress.NewMonitor(b, progress.Options{
		Interval: opts.PollInterval,
		OnFinish: h.jobFinished,
		Logger:   opts.Logger,
	})
	return h
}

// Start binds background work (job polling, post-job reloads) to ctx.
func (h *Hub) Start(ctx context.Context) {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()
}

// Close stops every progress poller.
func (h *Hub) Close() {
	h.monitor.StopAll()
}

// Monitor returns the pipeline progress monitor.
func (h *Hub) Monitor() *progress.Monitor { return h.monitor }

// Sessions returns the session registry the hub publishes into.
func (h *Hub) Sessions() *Sessions { return h.sessions }

func (h *Hub) baseContext() context.Context {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ctx
}

// Latest returns the last published snapshot, nil before the first load.
func (h *Hub) Latest() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

func (h *Hub) publish(snap *Snapshot) {
	h.mu.Lock()
	h.latest = snap
	h.mu.Unlock()
	h.sessions.Broadcast(snap)
}

// Warm publishes the cached snapshot of a previous run, if any. It reports
// whether one was found.
func (h *Hub) Warm(ctx context.Context) bool {
	if h.snapshots == nil {
		return false
	}
	snap, ok := h.snapshots.Get(ctx, "latest")
	if !ok {
		return false
	}
	h.logger.Info("restored cached snapshot", "events", len(snap.Events), "fetched_at", snap.FetchedAt)
	h.publish(snap)
	return true
}

// Refresh loads every feed concurrently and publishes the result. The event
// list is required; every other feed is optional and a failure leaves it nil.
// On error the previous snapshot stays published.
func (h *Hub) Refresh(ctx context.Context) (*Snapshot, error) {
	h.refreshMu.Lock()
	defer h.refreshMu.Unlock()

	now := h.opts.Clock()
	feeds := &Feeds{}
	var (
		events []model.Event
		errMu  sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = h.backend.Events(gctx)
		if err != nil {
			return fmt.Errorf("loading events: %w", err)
		}
		return nil
	})

	optional := func(name string, fetch func(ctx context.Context) error) {
		g.Go(func() error {
			if err := fetch(gctx); err != nil {
				if gctx.Err() != nil {
					return nil
				}
				h.logger.Warn("optional feed unavailable", "feed", name, "error", err)
				errMu.Lock()
				if feeds.Errors == nil {
					feeds.Errors = make(map[string]string)
				}
				feeds.Errors[name] = err.Error()
				errMu.Unlock()
			}
			return nil
		})
	}

	optional(FeedStats, into(&feeds.Stats, h.backend.Stats))
	optional(FeedOverview, into(&feeds.Overview, h.backend.CompanyOverview))
	optional(FeedBenchmark, into(&feeds.Benchmark, h.backend.BenefitBenchmark))
	optional(FeedStrategyMap, into(&feeds.StrategyMap, h.backend.StrategyMap))
	optional(FeedTrends, into(&feeds.Trends, func(ctx context.Context) (*model.Trends, error) {
		return h.backend.Trends(ctx, now.AddDate(0, 0, -h.opts.TrendsDays), now)
	}))
	optional(FeedBriefings, into(&feeds.Briefings, func(ctx context.Context) (*model.Briefings, error) {
		return h.backend.Briefings(ctx, false)
	}))
	optional(FeedQualitative, into(&feeds.Qualitative, func(ctx context.Context) (*model.QualitativeComparison, error) {
		return h.backend.QualitativeComparison(ctx, false)
	}))
	optional(FeedGap, rawInto(&feeds.Gap, h.backend.ShinhanGap))
	optional(FeedGapTrend, rawInto(&feeds.GapTrend, h.backend.ShinhanGapTrend))
	optional(FeedCompareMatrix, rawInto(&feeds.CompareMatrix, h.backend.CompareMatrix))
	optional(FeedTextComparison, rawInto(&feeds.TextComparison, h.backend.TextComparison))

	if err := g.Wait(); err != nil {
		h.logger.Warn("backend refresh failed", "error", err)
		return nil, err
	}

	snap := &Snapshot{Events: events, Feeds: feeds, FetchedAt: now}
	h.publish(snap)
	h.store(ctx, snap)
	if h.details != nil {
		if err := h.details.Purge(ctx); err != nil {
			h.logger.Debug("failed to purge detail cache", "error", err)
		}
	}

	h.logger.Info("backend refresh completed",
		"events", len(events),
		"missing_feeds", len(feeds.Errors),
		"sessions", h.sessions.Len())
	return snap, nil
}

func (h *Hub) store(ctx context.Context, snap *Snapshot) {
	if h.snapshots == nil {
		return
	}
	if err := h.snapshots.Set(ctx, "latest", snap); err != nil {
		h.logger.Debug("failed to cache snapshot", "error", err)
	}
}

// ForceFeed regenerates the briefings or qualitative comparison feed on the
// backend and publishes it without reloading events.
func (h *Hub) ForceFeed(ctx context.Context, name string) error {
	h.refreshMu.Lock()
	defer h.refreshMu.Unlock()

	prev := h.Latest()
	var feeds *Feeds
	if prev != nil {
		feeds = prev.Feeds.clone()
	} else {
		feeds = &Feeds{}
	}

	switch name {
	case FeedBriefings:
		b, err := h.backend.Briefings(ctx, true)
		if err != nil {
			h.logger.Warn("forced feed refresh failed", "feed", name, "error", err)
			return err
		}
		feeds.Briefings = b
	case FeedQualitative:
		q, err := h.backend.QualitativeComparison(ctx, true)
		if err != nil {
			h.logger.Warn("forced feed refresh failed", "feed", name, "error", err)
			return err
		}
		feeds.Qualitative = q
	default:
		return ErrUnknownFeed
	}
	delete(feeds.Errors, name)

	snap := &Snapshot{Feeds: feeds, FetchedAt: h.opts.Clock()}
	if prev != nil {
		snap.Events = prev.Events
		snap.FetchedAt = prev.FetchedAt
	}

	h.mu.Lock()
	h.latest = snap
	h.mu.Unlock()
	h.sessions.BroadcastFeeds(feeds)
	h.store(ctx, snap)
	return nil
}

// Details fetches intelligence for ids concurrently. Failed fetches are left
// out of the result.
func (h *Hub) Details(ctx context.Context, ids []int64) map[int64]*model.Intelligence {
	out := make(map[int64]*model.Intelligence, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.opts.DetailConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			in, err := h.detail(gctx, id)
			if err != nil {
				h.logger.Debug("event intelligence unavailable", "event_id", id, "error", err)
				return nil
			}
			mu.Lock()
			out[id] = in
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (h *Hub) detail(ctx context.Context, id int64) (*model.Intelligence, error) {
	if h.details == nil {
		return h.backend.Intelligence(ctx, id)
	}
	return h.details.GetOrSet(ctx, fmt.Sprintf("%d", id), func() (*model.Intelligence, error) {
		return h.backend.Intelligence(ctx, id)
	})
}

// LoadCompareDetails fetches the intelligence a session's compare view is
// missing and hands it to the session.
func (h *Hub) LoadCompareDetails(ctx context.Context, s *Session) {
	var missing []int64
	s.Do(func(c *Coordinator) { missing = c.MissingDetails() })
	if len(missing) == 0 {
		return
	}
	details := h.Details(ctx, missing)
	s.Do(func(c *Coordinator) { c.SetDetails(details) })
}

// StartJob begins polling progress for a backend job.
func (h *Hub) StartJob(job string) *progress.Poller {
	return h.monitor.Start(h.baseContext(), job)
}

func (h *Hub) jobFinished(job string, st progress.Status) {
	// failures were already logged at WARN by the poller
	if st.State != progress.StateCompleted {
		return
	}
	h.notify(logging.LevelInfo, logging.CategoryPipeline, "파이프라인 작업 완료: "+job)
	// Monitor Stop and Start must not wait on this reload.
	go func(ctx context.Context) {
		if _, err := h.Refresh(ctx); err != nil {
			h.logger.Warn("reload after pipeline job failed", "job", job, "error", err)
		}
	}(h.baseContext())
}

func (h *Hub) notify(level, category, msg string) {
	if h.opts.Notices != nil {
		h.opts.Notices.Notify(level, category, msg)
	}
}

func into[T any](dst **T, fetch func(context.Context) (*T, error)) func(context.Context) error {
	return func(ctx context.Context) error {
		v, err := fetch(ctx)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

func rawInto(dst *json.RawMessage, fetch func(context.Context) (json.RawMessage, error)) func(context.Context) error {
	return func(ctx context.Context) error {
		v, err := fetch(ctx)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

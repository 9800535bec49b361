// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package dashboard keeps the per-session dashboard state consistent: it
// owns the event store, filter criteria, pager and compare set of a
// session, recomputes only the views affected by a mutation and hands them
// to a Renderer.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/olegiv/cardwatch/internal/aggregate"
	"github.com/olegiv/cardwatch/internal/compare"
	"github.com/olegiv/cardwatch/internal/filter"
	"github.com/olegiv/cardwatch/internal/model"
	"github.com/olegiv/cardwatch/internal/pagination"
	"github.com/olegiv/cardwatch/internal/predicate"
	"github.com/olegiv/cardwatch/internal/store"
)

// ErrDeferred is returned by a mutation issued while another batch is being
// rendered. The mutation is applied after that batch, so its outcome is not
// known to the caller.
var ErrDeferred = errors.New("dashboard: mutation deferred until the current batch completes")

// Options configures a Coordinator.
type Options struct {
	Issuers  predicate.Issuers
	PageSize int
	Memo     *aggregate.Memo
	Logger   *slog.Logger
	// Now is the initial clock. Later changes arrive through Tick.
	Now time.Time
}

// op applies one state change and reports the slices it dirtied.
type op func() Slice

// Coordinator is the application state of one dashboard session.
//
// Mutations run on a single logical thread: a mutation issued from inside a
// Renderer callback is queued and applied after the current batch has been
// rendered. Callers on different goroutines must serialize access, which
// Session does.
type Coordinator struct {
	store    *store.Store
	criteria filter.Criteria
	pager    *pagination.Pager
	compare  *compare.Set
	feeds    *Feeds
	details  map[int64]*model.Intelligence
	now      time.Time
	pageSize int

	issuers  predicate.Issuers
	renderer Renderer
	memo     *aggregate.Memo
	logger   *slog.Logger
	ctx      context.Context

	mu       sync.Mutex
	draining bool
	queue    []op
	rev      uint64
}

// NewCoordinator creates an empty coordinator rendering into r.
func NewCoordinator(r Renderer, opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Issuers.Own == "" {
		opts.Issuers = predicate.DefaultIssuers()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if r == nil {
		r = RenderFunc(func(ViewResult) {})
	}
	return &Coordinator{
		store:    store.New(),
		pager:    pagination.NewPager(opts.PageSize),
		compare:  compare.NewSet(),
		details:  make(map[int64]*model.Intelligence),
		now:      opts.Now,
		pageSize: opts.PageSize,
		issuers:  opts.Issuers,
		renderer: r,
		memo:     opts.Memo,
		logger:   opts.Logger,
		ctx:      context.Background(),
	}
}

// dispatch applies o, or queues it when a batch is already in progress.
// It reports whether o was applied before returning.
func (c *Coordinator) dispatch(o op) bool {
	c.mu.Lock()
	if c.draining {
		c.queue = append(c.queue, o)
		c.mu.Unlock()
		return false
	}
	c.draining = true
	c.mu.Unlock()

	c.run(o)
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.draining = false
			c.mu.Unlock()
			return true
		}
		next := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()
		c.run(next)
	}
}

func (c *Coordinator) run(o op) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("dashboard mutation failed", "panic", r)
		}
	}()
	c.flush(o())
}

// flush recomputes every view depending on a dirty slice from one snapshot.
func (c *Coordinator) flush(dirty Slice) {
	if dirty == 0 {
		return
	}
	snap := c.store.Snapshot()
	in := &viewInput{
		ctx:      c.ctx,
		events:   snap.Events,
		gen:      snap.Generation,
		now:      c.now,
		issuers:  c.issuers,
		criteria: c.criteria,
		pager:    c.pager,
		compare:  c.compare,
		feeds:    c.feeds,
		details:  c.details,
		get:      c.store.Get,
		memo:     c.memo,
	}
	for _, v := range views {
		if v.deps&dirty == 0 {
			continue
		}
		res := c.compute(v, in)
		c.mu.Lock()
		c.rev++
		res.Revision = c.rev
		c.mu.Unlock()
		c.render(res)
	}
}

// compute runs one view in isolation: a panic becomes an error result for
// that view only.
func (c *Coordinator) compute(v viewDef, in *viewInput) (res ViewResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("view computation failed", "view", v.name, "panic", r)
			res = ViewResult{Name: v.name, Empty: true, Error: fmt.Sprint(r)}
		}
	}()
	data, empty := v.compute(in)
	return ViewResult{Name: v.name, Data: data, Empty: empty}
}

func (c *Coordinator) render(res ViewResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("view renderer failed", "view", res.Name, "panic", r)
		}
	}()
	c.renderer.Render(res)
}

// Revision returns the revision of the most recently rendered view.
func (c *Coordinator) Revision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rev
}

// RenderAll recomputes every view.
func (c *Coordinator) RenderAll() {
	c.dispatch(func() Slice { return SliceAll })
}

// Load replaces the event collection and feeds with a backend snapshot. The
// current page is re-clamped, not reset.
func (c *Coordinator) Load(snap *Snapshot) {
	if snap == nil {
		return
	}
	c.dispatch(func() Slice {
		if dropped := c.store.ReplaceAll(snap.Events); dropped > 0 {
			c.logger.Warn("duplicate event ids dropped on load", "dropped", dropped)
		}
		c.feeds = snap.Feeds
		c.memo.Invalidate(c.ctx)
		return SliceEvents | SliceFeeds
	})
}

// SetFeeds replaces the analytics feeds only.
func (c *Coordinator) SetFeeds(f *Feeds) {
	c.dispatch(func() Slice {
		c.feeds = f
		return SliceFeeds
	})
}

// SetCriteria replaces the filter criteria and returns to page 1. Setting
// equal criteria is a no-op.
func (c *Coordinator) SetCriteria(crit filter.Criteria) {
	crit = crit.Normalize()
	c.dispatch(func() Slice {
		if crit == c.criteria {
			return 0
		}
		c.criteria = crit
		c.pager.Reset()
		return SliceFilter | SlicePage
	})
}

// SetPage moves to a page, clamped to the filtered list.
func (c *Coordinator) SetPage(page int) {
	c.dispatch(func() Slice {
		c.pager.SetPage(page)
		return SlicePage
	})
}

// SetPageSize changes the rows per page and returns to page 1.
func (c *Coordinator) SetPageSize(size int) {
	c.dispatch(func() Slice {
		c.pager.SetPageSize(size)
		return SlicePage
	})
}

// Toggle adds or removes an event from the compare set.
func (c *Coordinator) Toggle(id int64, included bool) {
	c.dispatch(func() Slice {
		if !c.compare.Toggle(id, included) {
			return 0
		}
		return SliceCompare
	})
}

// SelectAllVisible adds every event on the current page to the compare set.
func (c *Coordinator) SelectAllVisible() {
	c.dispatch(func() Slice {
		if !c.compare.SelectAll(c.visibleIDs()) {
			return 0
		}
		return SliceCompare
	})
}

// ClearCompare empties the compare set.
func (c *Coordinator) ClearCompare() {
	c.dispatch(func() Slice {
		if !c.compare.Clear() {
			return 0
		}
		return SliceCompare
	})
}

// SetDetails merges fetched per-event intelligence used by the compare view.
func (c *Coordinator) SetDetails(details map[int64]*model.Intelligence) {
	if len(details) == 0 {
		return
	}
	c.dispatch(func() Slice {
		maps.Copy(c.details, details)
		return SliceCompare
	})
}

// ApplyPatch merges fields into one event. An unknown id is a silent no-op.
// A patch issued during a render batch returns ErrDeferred.
func (c *Coordinator) ApplyPatch(id int64, fields map[string]any) (bool, error) {
	var (
		ok  bool
		err error
	)
	applied := c.dispatch(func() Slice {
		ok, err = c.store.ApplyPatch(id, fields)
		if !ok {
			if err != nil {
				c.logger.Warn("local event patch rejected", "event_id", id, "error", err)
			}
			return 0
		}
		c.memo.Invalidate(c.ctx)
		return SliceEvents
	})
	if !applied {
		return false, ErrDeferred
	}
	return ok, err
}

// Tick advances the clock. Views are recomputed only on a day rollover.
func (c *Coordinator) Tick(now time.Time) {
	c.dispatch(func() Slice {
		prev := c.now
		c.now = now
		if predicate.Today(prev).Equal(predicate.Today(now)) {
			return 0
		}
		return SliceClock
	})
}

// Reset clears the criteria, page and compare selection, keeping the loaded
// events.
func (c *Coordinator) Reset() {
	c.dispatch(func() Slice {
		c.criteria = filter.Criteria{}
		c.pager = pagination.NewPager(c.pageSize)
		c.compare.Clear()
		clear(c.details)
		return SliceAll
	})
}

// visibleIDs returns the ids on the current page of the filtered list.
func (c *Coordinator) visibleIDs() []int64 {
	page := pagination.Apply(c.pager, c.filtered())
	ids := make([]int64, len(page.Items))
	for i, e := range page.Items {
		ids[i] = e.ID
	}
	return ids
}

func (c *Coordinator) filtered() []model.Event {
	return filter.Apply(c.store.All(), c.criteria, c.now)
}

// Filtered returns every event matching the current criteria, unpaged.
func (c *Coordinator) Filtered() []model.Event { return c.filtered() }

// Criteria returns the normalized filter criteria.
func (c *Coordinator) Criteria() filter.Criteria { return c.criteria }

// Page returns the current page and page size.
func (c *Coordinator) Page() (page, size int) { return c.pager.Page(), c.pager.PageSize() }

// CompareIDs returns the selected event ids in selection order.
func (c *Coordinator) CompareIDs() []int64 { return c.compare.IDs() }

// MissingDetails returns selected ids whose intelligence has not been fetched.
func (c *Coordinator) MissingDetails() []int64 {
	var out []int64
	for _, id := range c.compare.IDs() {
		if _, ok := c.details[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Event looks up one event.
func (c *Coordinator) Event(id int64) (model.Event, bool) { return c.store.Get(id) }

// Len returns the number of loaded events.
func (c *Coordinator) Len() int { return c.store.Len() }

// Now returns the coordinator clock.
func (c *Coordinator) Now() time.Time { return c.now }

// Invalidate drops the memoized aggregates of this coordinator.
func (c *Coordinator) Invalidate() { c.memo.Invalidate(c.ctx) }

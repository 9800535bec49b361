// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/olegiv/cardwatch/internal/aggregate"
	"github.com/olegiv/cardwatch/internal/compare"
	"github.com/olegiv/cardwatch/internal/filter"
	"github.com/olegiv/cardwatch/internal/model"
	"github.com/olegiv/cardwatch/internal/pagination"
	"github.com/olegiv/cardwatch/internal/predicate"
)

// Slice is a bit set of the state slices a view depends on.
type Slice uint8

// State slices.
const (
	SliceEvents Slice = 1 << iota
	SliceFeeds
	SliceFilter
	SlicePage
	SliceCompare
	SliceClock

	SliceAll = SliceEvents | SliceFeeds | SliceFilter | SlicePage | SliceCompare | SliceClock
)

// Panel sizes used by the dashboard.
const (
	TopPressureSize = 6
	EndingSoonDays  = 14
	HighThreatSize  = 5
)

// View names.
const (
	ViewEvents           = "events"
	ViewFilterOptions    = "filter_options"
	ViewKPI              = "kpi"
	ViewCoverage         = "coverage"
	ViewHeatmap          = "heatmap"
	ViewGaps             = "gaps"
	ViewTopPressure      = "top_pressure"
	ViewEndingSoon       = "ending_soon"
	ViewWeekly           = "weekly"
	ViewPending          = "pending_extraction"
	ViewBenefitLevels    = "benefit_levels"
	ViewHighThreat       = "high_threat"
	ViewCompare          = "compare"
	ViewStats            = "stats"
	ViewCompanyOverview  = "company_overview"
	ViewBenefitBenchmark = "benefit_benchmark"
	ViewStrategyMap      = "strategy_map"
	ViewTrends           = "trends"
	ViewBriefings        = "briefings"
	ViewQualitative      = "qualitative_comparison"
	ViewBackendGap       = "shinhan_gap"
	ViewBackendGapTrend  = "shinhan_gap_trend"
	ViewCompareMatrix    = "compare_matrix"
	ViewTextComparison   = "text_comparison"
)

// ViewResult is one recomputed view handed to the Renderer.
type ViewResult struct {
	Name     string `json:"name"`
	Revision uint64 `json:"revision"`
	Data     any    `json:"data,omitempty"`
	Empty    bool   `json:"empty"`
	Error    string `json:"error,omitempty"`
}

// Renderer receives recomputed views.
type Renderer interface {
	Render(v ViewResult)
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(v ViewResult)

// Render calls f.
func (f RenderFunc) Render(v ViewResult) { f(v) }

// EventRow is one row of the paged event list.
type EventRow struct {
	ID             int64           `json:"id"`
	Company        string          `json:"company"`
	Style          predicate.Style `json:"style"`
	Title          string          `json:"title"`
	URL            string          `json:"url"`
	Period         string          `json:"period,omitempty"`
	Category       string          `json:"category,omitempty"`
	BenefitType    string          `json:"benefit_type,omitempty"`
	BenefitValue   string          `json:"benefit_value,omitempty"`
	ThreatLevel    string          `json:"threat_level,omitempty"`
	Summary        string          `json:"one_line_summary,omitempty"`
	InsightSummary string          `json:"insight_summary,omitempty"`
	Active         bool            `json:"active"`
	Extracted      bool            `json:"extracted"`
	Locked         bool            `json:"locked"`
	Selected       bool            `json:"selected"`
}

// EventList is the filtered, paged event list.
type EventList struct {
	Criteria   filter.Criteria   `json:"criteria"`
	Rows       []EventRow        `json:"rows"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
	TotalItems int               `json:"total_items"`
	PerPage    int               `json:"per_page"`
	Links      []pagination.Link `json:"links"`
}

// CompareView is the compare panel.
type CompareView struct {
	Selected []int64       `json:"selected"`
	Table    compare.Table `json:"table"`
}

// viewInput is the state snapshot every view of one flush computes from.
type viewInput struct {
	ctx      context.Context
	events   []model.Event
	gen      uint64
	now      time.Time
	issuers  predicate.Issuers
	criteria filter.Criteria
	pager    *pagination.Pager
	compare  *compare.Set
	feeds    *Feeds
	details  map[int64]*model.Intelligence
	get      compare.Getter
	memo     *aggregate.Memo

	filtered []model.Event
	done     bool
}

func (in *viewInput) filteredEvents() []model.Event {
	if !in.done {
		in.filtered = filter.Apply(in.events, in.criteria, in.now)
		in.done = true
	}
	return in.filtered
}

// viewDef binds a view to the slices it depends on and its computation.
// compute returns the view data and whether the panel has nothing to show.
type viewDef struct {
	name    string
	deps    Slice
	compute func(in *viewInput) (any, bool)
}

// memoized wraps an aggregate in the memo layer, keyed by view name.
func memoized[T any](name string, fn func(in *viewInput) T, empty func(T) bool) func(in *viewInput) (any, bool) {
	return func(in *viewInput) (any, bool) {
		v := aggregate.Memoize(in.ctx, in.memo, name, in.gen, in.now, func() T { return fn(in) })
		return v, empty(v)
	}
}

func feedView(pick func(f *Feeds) any) func(in *viewInput) (any, bool) {
	return func(in *viewInput) (any, bool) {
		if in.feeds == nil {
			return nil, true
		}
		v := pick(in.feeds)
		return v, v == nil
	}
}

func rawFeed(pick func(f *Feeds) json.RawMessage) func(in *viewInput) (any, bool) {
	return feedView(func(f *Feeds) any {
		raw := pick(f)
		if len(raw) == 0 || strings.TrimSpace(string(raw)) == "null" {
			return nil
		}
		return raw
	})
}

func isEmpty[T any](s []T) bool { return len(s) == 0 }

// views is the dependency table. Order is the render order within a flush.
var views = []viewDef{
	{ViewKPI, SliceEvents | SliceClock, memoized(ViewKPI,
		func(in *viewInput) aggregate.KPI { return aggregate.ComputeKPI(in.events, in.now) },
		func(k aggregate.KPI) bool { return k.Total == 0 })},
	{ViewFilterOptions, SliceEvents, func(in *viewInput) (any, bool) {
		opts := filter.OptionsOf(in.events)
		return opts, len(in.events) == 0
	}},
	{ViewEvents, SliceEvents | SliceFilter | SlicePage | SliceCompare | SliceClock, eventList},
	{ViewCoverage, SliceEvents | SliceClock, memoized(ViewCoverage,
		func(in *viewInput) []aggregate.CompanyCoverage { return aggregate.Coverage(in.events, in.now) },
		isEmpty[aggregate.CompanyCoverage])},
	{ViewHeatmap, SliceEvents | SliceClock, memoized(ViewHeatmap,
		func(in *viewInput) aggregate.Matrix {
			return aggregate.CategoryCompanyMatrix(in.events, in.now, in.issuers.Priority)
		},
		func(m aggregate.Matrix) bool { return len(m.Companies) == 0 })},
	{ViewGaps, SliceEvents | SliceClock, memoized(ViewGaps,
		func(in *viewInput) []aggregate.Gap { return aggregate.GapCategories(in.events, in.now, in.issuers) },
		isEmpty[aggregate.Gap])},
	{ViewTopPressure, SliceEvents | SliceClock, memoized(ViewTopPressure,
		func(in *viewInput) []model.Event {
			return aggregate.TopPressure(in.events, in.now, in.issuers, TopPressureSize)
		},
		isEmpty[model.Event])},
	{ViewEndingSoon, SliceEvents | SliceClock, memoized(ViewEndingSoon,
		func(in *viewInput) []aggregate.Ending {
			return aggregate.EndingSoon(in.events, in.now, in.issuers, EndingSoonDays)
		},
		isEmpty[aggregate.Ending])},
	{ViewWeekly, SliceEvents | SliceClock, memoized(ViewWeekly,
		func(in *viewInput) aggregate.Weekly {
			return aggregate.WeeklyBuckets(in.events, in.now, in.issuers.Priority)
		},
		func(w aggregate.Weekly) bool { return len(w.New) == 0 && len(w.Ending) == 0 })},
	{ViewPending, SliceEvents | SliceClock, memoized(ViewPending,
		func(in *viewInput) []aggregate.CompanyCount { return aggregate.PendingExtraction(in.events, in.now) },
		isEmpty[aggregate.CompanyCount])},
	{ViewBenefitLevels, SliceEvents | SliceClock, memoized(ViewBenefitLevels,
		func(in *viewInput) []aggregate.LevelDistribution {
			return aggregate.BenefitLevels(in.events, in.now, in.issuers.Priority)
		},
		isEmpty[aggregate.LevelDistribution])},
	{ViewHighThreat, SliceEvents | SliceClock, memoized(ViewHighThreat,
		func(in *viewInput) []model.Event { return aggregate.HighThreat(in.events, in.now, HighThreatSize) },
		isEmpty[model.Event])},
	{ViewCompare, SliceEvents | SliceCompare, func(in *viewInput) (any, bool) {
		ids := in.compare.IDs()
		t := compare.BuildTable(ids, in.get, in.details)
		return CompareView{Selected: ids, Table: t}, !t.Active
	}},
	{ViewStats, SliceFeeds, feedView(func(f *Feeds) any { return nilIf(f.Stats) })},
	{ViewCompanyOverview, SliceFeeds, feedView(func(f *Feeds) any { return nilIf(f.Overview) })},
	{ViewBenefitBenchmark, SliceFeeds, feedView(func(f *Feeds) any { return nilIf(f.Benchmark) })},
	{ViewStrategyMap, SliceFeeds, feedView(func(f *Feeds) any { return nilIf(f.StrategyMap) })},
	{ViewTrends, SliceFeeds, feedView(func(f *Feeds) any { return nilIf(f.Trends) })},
	{ViewBriefings, SliceFeeds, feedView(func(f *Feeds) any { return nilIf(f.Briefings) })},
	{ViewQualitative, SliceFeeds, feedView(func(f *Feeds) any { return nilIf(f.Qualitative) })},
	{ViewBackendGap, SliceFeeds, rawFeed(func(f *Feeds) json.RawMessage { return f.Gap })},
	{ViewBackendGapTrend, SliceFeeds, rawFeed(func(f *Feeds) json.RawMessage { return f.GapTrend })},
	{ViewCompareMatrix, SliceFeeds, rawFeed(func(f *Feeds) json.RawMessage { return f.CompareMatrix })},
	{ViewTextComparison, SliceFeeds, rawFeed(func(f *Feeds) json.RawMessage { return f.TextComparison })},
}

// ViewNames lists every view in render order.
func ViewNames() []string {
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.name
	}
	return names
}

// IsView reports whether name is a known view.
func IsView(name string) bool {
	for _, v := range views {
		if v.name == name {
			return true
		}
	}
	return false
}

// nilIf turns a typed nil pointer into an untyped nil.
func nilIf[T any](p *T) any {
	if p == nil {
		return nil
	}
	return p
}

func eventList(in *viewInput) (any, bool) {
	list := in.filteredEvents()
	page := pagination.Apply(in.pager, list)

	rows := make([]EventRow, 0, len(page.Items))
	for _, e := range page.Items {
		rows = append(rows, EventRow{
			ID:             e.ID,
			Company:        e.Company,
			Style:          predicate.ClassifyIssuerStyle(e.Company),
			Title:          e.Title,
			URL:            e.URL,
			Period:         e.Period,
			Category:       e.Category,
			BenefitType:    e.BenefitType,
			BenefitValue:   e.BenefitValue,
			ThreatLevel:    e.ThreatLevel,
			Summary:        e.OneLineSummary,
			InsightSummary: e.ParsedInsights().Summary(),
			Active:         predicate.IsActive(e, in.now),
			Extracted:      predicate.IsExtracted(e),
			Locked:         e.Locked,
			Selected:       in.compare.Contains(e.ID),
		})
	}
	return EventList{
		Criteria:   in.criteria,
		Rows:       rows,
		Page:       page.Page,
		TotalPages: page.TotalPages,
		TotalItems: page.TotalItems,
		PerPage:    page.PerPage,
		Links:      pagination.Window(page.Page, page.TotalPages),
	}, page.TotalItems == 0
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/olegiv/cardwatch/internal/model"
)

// Events fetches the bulk event list.
func (c *Client) Events(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := c.get(ctx, "/api/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Stats fetches the headline counters.
func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var s model.Stats
	if err := c.get(ctx, "/api/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CompanyOverview fetches per-company coverage statistics.
func (c *Client) CompanyOverview(ctx context.Context) (*model.CompanyOverview, error) {
	var o model.CompanyOverview
	if err := c.get(ctx, "/api/analytics/company-overview", nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// BenefitBenchmark fetches benefit amount statistics per company. The
// backend returns a bare company map.
func (c *Client) BenefitBenchmark(ctx context.Context) (*model.BenefitBenchmark, error) {
	rows := map[string]model.BenchmarkRow{}
	if err := c.get(ctx, "/api/analytics/benefit-benchmark", nil, &rows); err != nil {
		return nil, err
	}
	return &model.BenefitBenchmark{Companies: rows}, nil
}

// StrategyMap fetches the company by objective-tag heatmap.
func (c *Client) StrategyMap(ctx context.Context) (*model.StrategyMap, error) {
	heat := map[string]map[string]int{}
	if err := c.get(ctx, "/api/analytics/strategy-map", nil, &heat); err != nil {
		return nil, err
	}
	return &model.StrategyMap{Heatmap: heat}, nil
}

// Trends fetches weekly started/ended counts. Zero bounds let the backend
// pick its default window.
func (c *Client) Trends(ctx context.Context, from, to time.Time) (*model.Trends, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.Format(time.DateOnly))
	}
	if !to.IsZero() {
		q.Set("to", to.Format(time.DateOnly))
	}
	weeks := map[string]model.WeekTrend{}
	if err := c.get(ctx, "/api/analytics/trends", q, &weeks); err != nil {
		return nil, err
	}
	t := &model.Trends{Weeks: weeks}
	if !from.IsZero() {
		t.From = from.Format(time.DateOnly)
	}
	if !to.IsZero() {
		t.To = to.Format(time.DateOnly)
	}
	return t, nil
}

// Briefings fetches the per-company briefings. force asks the backend to
// regenerate instead of serving its cache.
func (c *Client) Briefings(ctx context.Context, force bool) (*model.Briefings, error) {
	var b model.Briefings
	if err := c.get(ctx, "/api/analytics/company-briefings", forceQuery(force), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// QualitativeComparison fetches the metric-by-company comparison table.
func (c *Client) QualitativeComparison(ctx context.Context, force bool) (*model.QualitativeComparison, error) {
	var q model.QualitativeComparison
	if err := c.get(ctx, "/api/analytics/qualitative-comparison", forceQuery(force), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// ShinhanGap fetches the backend gap aggregate as raw JSON.
func (c *Client) ShinhanGap(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "/api/analytics/shinhan-gap")
}

// ShinhanGapTrend fetches the backend gap trend aggregate as raw JSON.
func (c *Client) ShinhanGapTrend(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "/api/analytics/shinhan-gap-trend")
}

// CompareMatrix fetches the backend compare matrix as raw JSON.
func (c *Client) CompareMatrix(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "/api/analytics/compare-matrix")
}

// TextComparison fetches the backend text comparison as raw JSON.
func (c *Client) TextComparison(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "/api/analytics/text-comparison")
}

// Intelligence fetches the detail and insight record for one event.
func (c *Client) Intelligence(ctx context.Context, id int64) (*model.Intelligence, error) {
	var in model.Intelligence
	if err := c.get(ctx, eventPath(id, "intelligence"), nil, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Progress fetches the pipeline progress record.
func (c *Client) Progress(ctx context.Context) (*model.PipelineProgress, error) {
	var p model.PipelineProgress
	if err := c.get(ctx, "/api/pipeline/progress", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) raw(ctx context.Context, path string) (json.RawMessage, error) {
	var msg json.RawMessage
	if err := c.get(ctx, path, nil, &msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func forceQuery(force bool) url.Values {
	return url.Values{"force": {strconv.FormatBool(force)}}
}

func eventPath(id int64, action string) string {
	p := "/api/events/" + strconv.FormatInt(id, 10)
	if action != "" {
		p += "/" + action
	}
	return p
}

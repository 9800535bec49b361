// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

import (
	"encoding/json"
	"time"

	"github.com/olegiv/cardwatch/internal/model"
)

// Feed names, used for logging and force refresh.
const (
	FeedEvents         = "events"
	FeedStats          = "stats"
	FeedOverview       = "company_overview"
	FeedBenchmark      = "benefit_benchmark"
	FeedStrategyMap    = "strategy_map"
	FeedTrends         = "trends"
	FeedBriefings      = "briefings"
	FeedQualitative    = "qualitative_comparison"
	FeedGap            = "shinhan_gap"
	FeedGapTrend       = "shinhan_gap_trend"
	FeedCompareMatrix  = "compare_matrix"
	FeedTextComparison = "text_comparison"
)

// Feeds holds the latest optional analytics payloads. A nil field means the
// feed was unavailable on the last refresh. Feeds is treated as immutable
// once published.
type Feeds struct {
	Stats          *model.Stats                 `json:"stats,omitempty"`
	Overview       *model.CompanyOverview       `json:"company_overview,omitempty"`
	Benchmark      *model.BenefitBenchmark      `json:"benefit_benchmark,omitempty"`
	StrategyMap    *model.StrategyMap           `json:"strategy_map,omitempty"`
	Trends         *model.Trends                `json:"trends,omitempty"`
	Briefings      *model.Briefings             `json:"briefings,omitempty"`
	Qualitative    *model.QualitativeComparison `json:"qualitative_comparison,omitempty"`
	Gap            json.RawMessage              `json:"shinhan_gap,omitempty"`
	GapTrend       json.RawMessage              `json:"shinhan_gap_trend,omitempty"`
	CompareMatrix  json.RawMessage              `json:"compare_matrix,omitempty"`
	TextComparison json.RawMessage              `json:"text_comparison,omitempty"`

	// Errors maps a feed name to the reason it is missing.
	Errors map[string]string `json:"errors,omitempty"`
}

// clone returns a shallow copy with its own Errors map.
func (f *Feeds) clone() *Feeds {
	if f == nil {
		return &Feeds{}
	}
	c := *f
	if f.Errors != nil {
		c.Errors = make(map[string]string, len(f.Errors))
		for k, v := range f.Errors {
			c.Errors[k] = v
		}
	}
	return &c
}

// Snapshot is one complete backend load pushed to every session.
type Snapshot struct {
	Events    []model.Event `json:"events"`
	Feeds     *Feeds        `json:"feeds"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "encoding/json"

// Stats is the GET /api/stats payload.
type Stats struct {
	TotalEvents   int            `json:"total_events"`
	CompanyStats  map[string]int `json:"company_stats"`
	ThreatStats   map[string]int `json:"threat_stats"`
	CategoryStats map[string]int `json:"category_stats"`
	LastUpdated   string         `json:"last_updated,omitempty"`
}

// CompanyOverview is the GET /api/analytics/company-overview payload.
type CompanyOverview struct {
	GeneratedAt string             `json:"generated_at"`
	Totals      map[string]float64 `json:"totals"`
	Companies   []CompanyStat      `json:"companies"`
}

// CompanyStat is one company row of the overview.
type CompanyStat struct {
	Company              string         `json:"company"`
	CollectedCount       int            `json:"collected_count"`
	VisibleCount         int            `json:"visible_count"`
	ActiveCount          int            `json:"active_count"`
	EndedCount           int            `json:"ended_count"`
	ExtractedCount       int            `json:"extracted_count"`
	InsightCount         int            `json:"insight_count"`
	BenefitLevelDist     map[string]int `json:"benefit_level_dist"`
	ExtractionRate       float64        `json:"extraction_rate"`
	InsightRate          float64        `json:"insight_rate"`
	AvgBenefitScore      float64        `json:"avg_benefit_score"`
	TopCompetitivePoints []string       `json:"top_competitive_points"`
	TopPromoStrategies   []string       `json:"top_promo_strategies"`
}

// BenefitBenchmark is the GET /api/analytics/benefit-benchmark payload.
type BenefitBenchmark struct {
	Companies map[string]BenchmarkRow `json:"companies"`
}

// BenchmarkRow summarizes benefit amounts for a company.
type BenchmarkRow struct {
	Count     int     `json:"count"`
	AvgAmount float64 `json:"avg_amount"`
	MaxAmount float64 `json:"max_amount"`
	AvgPct    float64 `json:"avg_pct"`
	MaxPct    float64 `json:"max_pct"`
}

// StrategyMap is the GET /api/analytics/strategy-map payload: company -> tag -> count.
type StrategyMap struct {
	Heatmap map[string]map[string]int `json:"heatmap"`
}

// Trends is the GET /api/analytics/trends payload keyed by ISO week label.
type Trends struct {
	From  string               `json:"from,omitempty"`
	To    string               `json:"to,omitempty"`
	Weeks map[string]WeekTrend `json:"weeks"`
}

// WeekTrend counts events started and ended in a week.
type WeekTrend struct {
	Started int `json:"started"`
	Ended   int `json:"ended"`
}

// Briefings is the GET /api/analytics/company-briefings payload.
type Briefings struct {
	GeneratedAt string         `json:"generated_at"`
	TTLSec      int            `json:"ttl_sec,omitempty"`
	Items       []BriefingItem `json:"items"`
}

// BriefingItem is one company briefing.
type BriefingItem struct {
	Company              string   `json:"company"`
	Overview             string   `json:"overview"`
	KeyStrategy          string   `json:"key_strategy,omitempty"`
	StrongestCategories  []string `json:"strongest_categories,omitempty"`
	ShinhanThreat        string   `json:"shinhan_threat,omitempty"`
	RecommendedCounter   string   `json:"recommended_counter,omitempty"`
	AvgBenefitAssessment string   `json:"avg_benefit_assessment,omitempty"`
	TargetFocus          string   `json:"target_focus,omitempty"`
	FocusPoints          []string `json:"focus_points,omitempty"`
	Watchouts            []string `json:"watchouts,omitempty"`
	ActionHint           string   `json:"action_hint,omitempty"`
	Source               string   `json:"source"`
	Cached               bool     `json:"cached"`
}

// QualitativeComparison is the GET /api/analytics/qualitative-comparison payload.
type QualitativeComparison struct {
	Companies   []string         `json:"companies"`
	Rows        []QualitativeRow `json:"rows"`
	Summary     []string         `json:"summary"`
	Source      string           `json:"source"`
	GeneratedAt string           `json:"generated_at"`
	Cached      bool             `json:"cached"`
}

// QualitativeRow is one metric compared across companies.
type QualitativeRow struct {
	Metric string            `json:"metric"`
	Reason string            `json:"reason"`
	Values map[string]string `json:"values"`
}

// Intelligence is the GET /api/events/{id}/intelligence payload.
type Intelligence struct {
	Event         *Event          `json:"event,omitempty"`
	Insight       json.RawMessage `json:"insight"`
	Sections      []Section       `json:"sections"`
	SnapshotCount int             `json:"snapshot_count"`
}

// Section is one extracted section of an event detail page.
type Section struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// PipelineProgress is the GET /api/pipeline/progress payload.
type PipelineProgress struct {
	Running          bool            `json:"running"`
	Phase            string          `json:"phase"`
	Total            int             `json:"total"`
	Processed        int             `json:"processed"`
	Succeeded        int             `json:"succeeded"`
	Failed           int             `json:"failed"`
	Error            string          `json:"error,omitempty"`
	LastFinished     string          `json:"last_finished,omitempty"`
	LastIngestAt     string          `json:"last_ingest_at,omitempty"`
	LastIngestResult json.RawMessage `json:"last_ingest_result,omitempty"`
}

// TriggerResult is returned by the pipeline trigger endpoints.
type TriggerResult struct {
	Started bool   `json:"started"`
	Message string `json:"message,omitempty"`
}

// ManualUpdate is the body of POST /api/events/{id}/manual-update.
type ManualUpdate struct {
	Fields map[string]any `json:"fields"`
	Reason string         `json:"reason"`
}

// MutationResult is a generic mutation response.
type MutationResult struct {
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Locked  *bool  `json:"locked,omitempty"`
}

// EditRecord is one entry of GET /api/events/{id}/edit-history.
type EditRecord struct {
	FieldName string `json:"field_name"`
	OldValue  string `json:"old_value"`
	NewValue  string `json:"new_value"`
	Editor    string `json:"editor"`
	EditedAt  string `json:"edited_at"`
	Reason    string `json:"reason"`
}

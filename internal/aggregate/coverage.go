// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package aggregate

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/olegiv/cardwatch/internal/model"
	"github.com/olegiv/cardwatch/internal/predicate"
)

// CompanyCoverage is the collection and extraction tally of one company.
type CompanyCoverage struct {
	Company      string          `json:"company"`
	Style        predicate.Style `json:"style"`
	Collected    int             `json:"collected"`
	Extracted    int             `json:"extracted"`
	WithInsights int             `json:"with_insights"`
	Active       int             `json:"active"`
	Ended        int             `json:"ended"`
}

// Coverage tallies every event, active or not, per company. Rows are ordered
// by collected descending then company ascending.
func Coverage(events []model.Event, now time.Time) []CompanyCoverage {
	rows := make(map[string]*CompanyCoverage)
	for _, e := range events {
		row, ok := rows[e.Company]
		if !ok {
			row = &CompanyCoverage{Company: e.Company, Style: predicate.ClassifyIssuerStyle(e.Company)}
			rows[e.Company] = row
		}
		row.Collected++
		if predicate.IsExtracted(e) {
			row.Extracted++
		}
		if !e.ParsedInsights().Empty() {
			row.WithInsights++
		}
		if predicate.IsActive(e, now) {
			row.Active++
		} else {
			row.Ended++
		}
	}

	out := make([]CompanyCoverage, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b CompanyCoverage) int {
		if c := cmp.Compare(b.Collected, a.Collected); c != 0 {
			return c
		}
		return strings.Compare(a.Company, b.Company)
	})
	return out
}

// KPI is the headline counter strip.
type KPI struct {
	Total          int     `json:"total"`
	Active         int     `json:"active"`
	Ended          int     `json:"ended"`
	WithInsights   int     `json:"with_insights"`
	Extracted      int     `json:"extracted"`
	ExtractionRate float64 `json:"extraction_rate"`
	Companies      int     `json:"companies"`
}

// ComputeKPI counts over every event. ExtractionRate is a percentage rounded
// to one decimal.
func ComputeKPI(events []model.Event, now time.Time) KPI {
	var k KPI
	companies := make(map[string]struct{})
	for _, e := range events {
		k.Total++
		companies[e.Company] = struct{}{}
		if predicate.IsActive(e, now) {
			k.Active++
		} else {
			k.Ended++
		}
		if predicate.IsExtracted(e) {
			k.Extracted++
		}
		if !e.ParsedInsights().Empty() {
			k.WithInsights++
		}
	}
	k.Companies = len(companies)
	if k.Total > 0 {
		k.ExtractionRate = math.Round(float64(k.Extracted)/float64(k.Total)*1000) / 10
	}
	return k
}

// LevelDistribution counts benefit levels of one company's active events.
type LevelDistribution struct {
	Company string         `json:"company"`
	Levels  map[string]int `json:"levels"`
	Total   int            `json:"total"`
}

// BenefitLevels counts the extractor's benefit levels (높음, 중상, 보통, 낮음)
// across active events with insights, per company in priority order. Unknown
// levels are ignored.
func BenefitLevels(events []model.Event, now time.Time, priority []string) []LevelDistribution {
	rows := make(map[string]*LevelDistribution)
	var companies []string
	for _, e := range Active(events, now) {
		level := e.ParsedInsights().BenefitLevel()
		if !slices.Contains(model.BenefitLevels, level) {
			continue
		}
		row, ok := rows[e.Company]
		if !ok {
			row = &LevelDistribution{Company: e.Company, Levels: make(map[string]int, len(model.BenefitLevels))}
			for _, l := range model.BenefitLevels {
				row.Levels[l] = 0
			}
			rows[e.Company] = row
			companies = append(companies, e.Company)
		}
		row.Levels[level]++
		row.Total++
	}

	out := make([]LevelDistribution, 0, len(rows))
	for _, c := range OrderCompanies(companies, priority) {
		out = append(out, *rows[c])
	}
	return out
}

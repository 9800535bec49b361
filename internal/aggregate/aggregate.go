// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package aggregate computes the dashboard's derived panels from an event
// snapshot. Every function is a pure reducer over its inputs; only events that
// are active at now are considered unless a function says otherwise.
package aggregate

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/olegiv/cardwatch/internal/model"
	"github.com/olegiv/cardwatch/internal/predicate"
)

// UncategorizedLabel replaces an empty category in matrix views.
const UncategorizedLabel = "기타"

// CompanyCount is a per-company tally.
type CompanyCount struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

// Active returns the events active at now, in input order.
func Active(events []model.Event, now time.Time) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if predicate.IsActive(e, now) {
			out = append(out, e)
		}
	}
	return out
}

// OrderCompanies sorts companies by their index in priority; companies not in
// priority follow, alphabetically. Duplicates are removed.
func OrderCompanies(companies, priority []string) []string {
	rank := make(map[string]int, len(priority))
	for i, p := range priority {
		if _, seen := rank[p]; !seen {
			rank[p] = i
		}
	}

	out := make([]string, 0, len(companies))
	seen := make(map[string]struct{}, len(companies))
	for _, c := range companies {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	slices.SortStableFunc(out, func(a, b string) int {
		ra, okA := rank[a]
		rb, okB := rank[b]
		switch {
		case okA && okB:
			return cmp.Compare(ra, rb)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
	return out
}

// Matrix is a company by category count table.
type Matrix struct {
	Companies  []string                  `json:"companies"`
	Categories []string                  `json:"categories"`
	Counts     map[string]map[string]int `json:"counts"`
}

// Count returns the cell for company and category.
func (m Matrix) Count(company, category string) int {
	return m.Counts[company][category]
}

// CategoryCompanyMatrix counts active events per company and category.
// Categories are sorted; companies follow OrderCompanies.
func CategoryCompanyMatrix(events []model.Event, now time.Time, priority []string) Matrix {
	counts := make(map[string]map[string]int)
	categories := make(map[string]struct{})
	var companies []string

	for _, e := range Active(events, now) {
		cat := categoryOf(e)
		row, ok := counts[e.Company]
		if !ok {
			row = make(map[string]int)
			counts[e.Company] = row
			companies = append(companies, e.Company)
		}
		row[cat]++
		categories[cat] = struct{}{}
	}

	cats := make([]string, 0, len(categories))
	for c := range categories {
		cats = append(cats, c)
	}
	slices.Sort(cats)

	return Matrix{
		Companies:  OrderCompanies(companies, priority),
		Categories: cats,
		Counts:     counts,
	}
}

// Gap is a category where competitors run events and the own issuer does not.
type Gap struct {
	Category        string         `json:"category"`
	CompetitorCount int            `json:"competitor_count"`
	ByCompetitor    []CompanyCount `json:"by_competitor"`
}

// GapCategories returns categories with no active own-issuer events and at
// least one active competitor event, by competitor count descending then
// category ascending.
func GapCategories(events []model.Event, now time.Time, issuers predicate.Issuers) []Gap {
	own := make(map[string]int)
	comp := make(map[string]map[string]int)

	for _, e := range Active(events, now) {
		cat := categoryOf(e)
		if issuers.IsOwn(e) {
			own[cat]++
			continue
		}
		if comp[cat] == nil {
			comp[cat] = make(map[string]int)
		}
		comp[cat][e.Company]++
	}

	gaps := make([]Gap, 0)
	for cat, byCompany := range comp {
		if own[cat] > 0 {
			continue
		}
		g := Gap{Category: cat}
		for company, n := range byCompany {
			g.CompetitorCount += n
			g.ByCompetitor = append(g.ByCompetitor, CompanyCount{Company: company, Count: n})
		}
		sortCounts(g.ByCompetitor, issuers.Priority)
		gaps = append(gaps, g)
	}

	slices.SortFunc(gaps, func(a, b Gap) int {
		if c := cmp.Compare(b.CompetitorCount, a.CompetitorCount); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	return gaps
}

// TopPressure ranks active competitor events by benefit amount, then benefit
// percentage, then newest ingestion, then id, and returns the first n.
func TopPressure(events []model.Event, now time.Time, issuers predicate.Issuers, n int) []model.Event {
	if n <= 0 {
		return []model.Event{}
	}

	type ranked struct {
		event   model.Event
		created time.Time
	}
	var pool []ranked
	for _, e := range Active(events, now) {
		if issuers.IsCompetitor(e) {
			pool = append(pool, ranked{event: e, created: predicate.CreatedAt(e, now.Location())})
		}
	}

	slices.SortFunc(pool, func(a, b ranked) int {
		if c := cmp.Compare(b.event.BenefitAmountWon, a.event.BenefitAmountWon); c != 0 {
			return c
		}
		if c := cmp.Compare(b.event.BenefitPct, a.event.BenefitPct); c != 0 {
			return c
		}
		if c := b.created.Compare(a.created); c != 0 {
			return c
		}
		return cmp.Compare(a.event.ID, b.event.ID)
	})

	out := make([]model.Event, 0, min(n, len(pool)))
	for _, r := range pool[:min(n, len(pool))] {
		out = append(out, r.event)
	}
	return out
}

// Ending is an event with its resolved end date.
type Ending struct {
	Event    model.Event `json:"event"`
	End      string      `json:"end"`
	DaysLeft int         `json:"days_left"`
}

// EndingSoon returns active competitor events whose resolved end falls within
// [today, today+days]. Events without a parseable end are excluded.
func EndingSoon(events []model.Event, now time.Time, issuers predicate.Issuers, days int) []Ending {
	today := predicate.Today(now)
	limit := today.AddDate(0, 0, days)

	type dated struct {
		Ending
		end time.Time
	}
	var found []dated
	for _, e := range Active(events, now) {
		if !issuers.IsCompetitor(e) {
			continue
		}
		end, ok := predicate.ResolveEnd(e, now)
		if !ok || end.Before(today) || end.After(limit) {
			continue
		}
		found = append(found, dated{
			Ending: Ending{Event: e, End: end.Format(time.DateOnly), DaysLeft: daysBetween(today, end)},
			end:    end,
		})
	}

	slices.SortStableFunc(found, func(a, b dated) int {
		if c := a.end.Compare(b.end); c != 0 {
			return c
		}
		return cmp.Compare(a.Event.ID, b.Event.ID)
	})

	out := make([]Ending, len(found))
	for i, f := range found {
		out[i] = f.Ending
	}
	return out
}

// PendingExtraction counts active events that are not extracted yet, per
// company, by count descending then company ascending.
func PendingExtraction(events []model.Event, now time.Time) []CompanyCount {
	counts := make(map[string]int)
	for _, e := range Active(events, now) {
		if !predicate.IsExtracted(e) {
			counts[e.Company]++
		}
	}

	out := make([]CompanyCount, 0, len(counts))
	for company, n := range counts {
		out = append(out, CompanyCount{Company: company, Count: n})
	}
	slices.SortFunc(out, func(a, b CompanyCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Company, b.Company)
	})
	return out
}

// HighThreat returns up to n active events rated High by the backend or the
// insight extractor, in input order.
func HighThreat(events []model.Event, now time.Time, n int) []model.Event {
	out := make([]model.Event, 0)
	for _, e := range Active(events, now) {
		if len(out) >= n {
			break
		}
		if predicate.IsHighThreat(e) {
			out = append(out, e)
		}
	}
	return out
}

func categoryOf(e model.Event) string {
	if c := strings.TrimSpace(e.Category); c != "" {
		return c
	}
	return UncategorizedLabel
}

// sortCounts orders by count descending, ties by company priority.
func sortCounts(counts []CompanyCount, priority []string) {
	order := OrderCompanies(companiesOf(counts), priority)
	rank := make(map[string]int, len(order))
	for i, c := range order {
		rank[c] = i
	}
	slices.SortFunc(counts, func(a, b CompanyCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(rank[a.Company], rank[b.Company])
	})
}

func companiesOf(counts []CompanyCount) []string {
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.Company
	}
	return out
}

func daysBetween(from, to time.Time) int {
	// Both ends are compared as UTC calendar dates.
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

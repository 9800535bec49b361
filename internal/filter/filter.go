// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package filter narrows an event list by the dashboard's filter criteria.
package filter

import (
	"slices"
	"strings"
	"time"

	"github.com/olegiv/cardwatch/internal/model"
	"github.com/olegiv/cardwatch/internal/predicate"
	"github.com/olegiv/cardwatch/internal/util"
)

// Status filter values.
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// Extraction filter values.
const (
	ExtractionDone    = "done"
	ExtractionPending = "pending"
)

// Criteria are the user-selected filters. An empty value, "any" or "all"
// leaves the field unconstrained.
type Criteria struct {
	Keyword     string `json:"keyword"`
	Company     string `json:"company"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	BenefitType string `json:"benefit_type"`
	Extraction  string `json:"extraction"`
	Tag         string `json:"tag"`
}

// IsZero reports whether no field constrains the result.
func (c Criteria) IsZero() bool {
	return !constrained(c.Keyword) && !constrained(c.Company) && !constrained(c.Category) &&
		!constrained(c.Status) && !constrained(c.BenefitType) && !constrained(c.Extraction) &&
		!constrained(c.Tag)
}

// Normalize trims every field and maps the wildcard spellings to "".
func (c Criteria) Normalize() Criteria {
	norm := func(s string) string {
		s = strings.TrimSpace(s)
		if !constrained(s) {
			return ""
		}
		return s
	}
	return Criteria{
		Keyword:     norm(c.Keyword),
		Company:     norm(c.Company),
		Category:    norm(c.Category),
		Status:      strings.ToLower(norm(c.Status)),
		BenefitType: norm(c.BenefitType),
		Extraction:  strings.ToLower(norm(c.Extraction)),
		Tag:         norm(c.Tag),
	}
}

func constrained(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "any", "all":
		return false
	}
	return true
}

type step func(model.Event) bool

// Apply returns the events matching every criterion, in input order.
// Filters run as company, category, status, benefit type, extraction, tag,
// keyword.
func Apply(events []model.Event, c Criteria, now time.Time) []model.Event {
	steps := compile(c.Normalize(), now)
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if matches(e, steps) {
			out = append(out, e)
		}
	}
	return out
}

// Match reports whether a single event passes the criteria.
func Match(e model.Event, c Criteria, now time.Time) bool {
	return matches(e, compile(c.Normalize(), now))
}

func matches(e model.Event, steps []step) bool {
	for _, s := range steps {
		if !s(e) {
			return false
		}
	}
	return true
}

func compile(c Criteria, now time.Time) []step {
	var steps []step
	if c.Company != "" {
		steps = append(steps, func(e model.Event) bool { return e.Company == c.Company })
	}
	if c.Category != "" {
		steps = append(steps, func(e model.Event) bool { return e.Category == c.Category })
	}
	switch c.Status {
	case StatusActive:
		steps = append(steps, func(e model.Event) bool { return predicate.IsActive(e, now) })
	case StatusEnded:
		steps = append(steps, func(e model.Event) bool { return !predicate.IsActive(e, now) })
	}
	if c.BenefitType != "" {
		steps = append(steps, func(e model.Event) bool { return e.BenefitType == c.BenefitType })
	}
	switch c.Extraction {
	case ExtractionDone:
		steps = append(steps, predicate.IsExtracted)
	case ExtractionPending:
		steps = append(steps, func(e model.Event) bool { return !predicate.IsExtracted(e) })
	}
	if c.Tag != "" {
		steps = append(steps, func(e model.Event) bool { return predicate.HasTag(e, c.Tag) })
	}
	if c.Keyword != "" {
		needle := util.Fold(c.Keyword)
		steps = append(steps, func(e model.Event) bool {
			return strings.Contains(util.Fold(SearchText(e)), needle)
		})
	}
	return steps
}

// SearchText is the text the keyword filter searches.
func SearchText(e model.Event) string {
	return strings.Join([]string{e.Title, e.BenefitValue, e.Company, e.Category}, " ")
}

// Options lists the distinct values available to each filter control.
type Options struct {
	Companies    []string `json:"companies"`
	Categories   []string `json:"categories"`
	BenefitTypes []string `json:"benefit_types"`
	Tags         []string `json:"tags"`
}

// OptionsOf collects sorted distinct companies, categories, benefit types and
// objective tags from events.
func OptionsOf(events []model.Event) Options {
	companies := make(map[string]struct{})
	categories := make(map[string]struct{})
	benefitTypes := make(map[string]struct{})
	tags := make(map[string]struct{})

	add := func(set map[string]struct{}, v string) {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	for _, e := range events {
		add(companies, e.Company)
		add(categories, e.Category)
		add(benefitTypes, e.BenefitType)
		for _, tag := range e.ParsedInsights().ObjectiveTags() {
			add(tags, tag)
		}
	}
	return Options{
		Companies:    sortedKeys(companies),
		Categories:   sortedKeys(categories),
		BenefitTypes: sortedKeys(benefitTypes),
		Tags:         sortedKeys(tags),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

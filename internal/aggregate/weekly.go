// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package aggregate

import (
	"time"

	"github.com/olegiv/cardwatch/internal/model"
	"github.com/olegiv/cardwatch/internal/predicate"
)

// CompanyEvents groups events of one company.
type CompanyEvents struct {
	Company string        `json:"company"`
	Events  []model.Event `json:"events"`
}

// Weekly holds the events created and ending in the current week.
type Weekly struct {
	WeekStart string          `json:"week_start"`
	WeekEnd   string          `json:"week_end"`
	New       []CompanyEvents `json:"new"`
	Ending    []CompanyEvents `json:"ending"`
}

// WeekBounds returns Monday and Sunday of the week containing now.
func WeekBounds(now time.Time) (monday, sunday time.Time) {
	today := predicate.Today(now)
	offset := (int(today.Weekday()) + 6) % 7
	monday = today.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// WeeklyBuckets buckets active events into "new this week" by created_at
// and "ending this week" by resolved end, each grouped by company in
// priority order.
func WeeklyBuckets(events []model.Event, now time.Time, priority []string) Weekly {
	monday, sunday := WeekBounds(now)
	loc := now.Location()
	inWeek := func(t time.Time) bool {
		d := predicate.DateOf(t, loc)
		return !d.Before(monday) && !d.After(sunday)
	}

	var fresh, ending []model.Event
	for _, e := range Active(events, now) {
		if created := predicate.CreatedAt(e, loc); !created.IsZero() && inWeek(created.In(loc)) {
			fresh = append(fresh, e)
		}
		if end, ok := predicate.ResolveEnd(e, now); ok && inWeek(end) {
			ending = append(ending, e)
		}
	}

	return Weekly{
		WeekStart: monday.Format(time.DateOnly),
		WeekEnd:   sunday.Format(time.DateOnly),
		New:       groupByCompany(fresh, priority),
		Ending:    groupByCompany(ending, priority),
	}
}

func groupByCompany(events []model.Event, priority []string) []CompanyEvents {
	groups := make(map[string][]model.Event)
	var companies []string
	for _, e := range events {
		if _, ok := groups[e.Company]; !ok {
			companies = append(companies, e.Company)
		}
		groups[e.Company] = append(groups[e.Company], e)
	}

	out := make([]CompanyEvents, 0, len(groups))
	for _, c := range OrderCompanies(companies, priority) {
		out = append(out, CompanyEvents{Company: c, Events: groups[c]})
	}
	return out
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package compare

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/olegiv/cardwatch/internal/model"
)

var printer = message.NewPrinter(language.Korean)

// Placeholder is shown for a field without a value.
const Placeholder = "—"

// Getter looks up an event by id.
type Getter func(id int64) (model.Event, bool)

// Column is one compared event.
type Column struct {
	ID      int64  `json:"id"`
	Company string `json:"company"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

// Row is one field across all compared events.
type Row struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// Table is the field-by-field comparison view.
type Table struct {
	Active  bool     `json:"active"`
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

type field struct {
	label string
	value func(e model.Event, detail *model.Intelligence) string
}

var fields = []field{
	{"카드사", func(e model.Event, _ *model.Intelligence) string { return e.Company }},
	{"카테고리", func(e model.Event, _ *model.Intelligence) string { return e.Category }},
	{"기간", func(e model.Event, _ *model.Intelligence) string { return e.Period }},
	{"혜택 유형", func(e model.Event, _ *model.Intelligence) string { return e.BenefitType }},
	{"혜택", func(e model.Event, _ *model.Intelligence) string { return e.BenefitValue }},
	{"혜택 금액", func(e model.Event, _ *model.Intelligence) string { return formatWon(e.BenefitAmountWon) }},
	{"혜택률", func(e model.Event, _ *model.Intelligence) string { return formatPct(e.BenefitPct) }},
	{"조건", func(e model.Event, _ *model.Intelligence) string { return e.Conditions }},
	{"대상", func(e model.Event, _ *model.Intelligence) string { return e.TargetSegment }},
	{"위협도", func(e model.Event, _ *model.Intelligence) string { return e.ThreatLevel }},
	{"혜택 수준", func(_ model.Event, d *model.Intelligence) string { return insight(d).BenefitLevel() }},
	{"경쟁력 포인트", func(_ model.Event, d *model.Intelligence) string {
		return strings.Join(insight(d).CompetitivePoints(), ", ")
	}},
	{"프로모션 전략", func(_ model.Event, d *model.Intelligence) string {
		return strings.Join(insight(d).PromoStrategies(), ", ")
	}},
	{"시사점", func(_ model.Event, d *model.Intelligence) string { return insight(d).Takeaway() }},
}

// BuildTable joins the selected ids with the store and the fetched per-event
// intelligence. Ids missing from the store are skipped; missing details and
// empty values render as Placeholder.
func BuildTable(ids []int64, get Getter, details map[int64]*model.Intelligence) Table {
	var events []model.Event
	for _, id := range ids {
		if e, ok := get(id); ok {
			events = append(events, e)
		}
	}

	t := Table{
		Active:  len(events) >= MinSelection,
		Columns: make([]Column, 0, len(events)),
		Rows:    make([]Row, 0, len(fields)),
	}
	for _, e := range events {
		t.Columns = append(t.Columns, Column{ID: e.ID, Company: e.Company, Title: e.Title, URL: e.URL})
	}
	for _, f := range fields {
		row := Row{Label: f.label, Values: make([]string, 0, len(events))}
		for _, e := range events {
			v := strings.TrimSpace(f.value(e, details[e.ID]))
			if v == "" {
				v = Placeholder
			}
			row.Values = append(row.Values, v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func insight(d *model.Intelligence) *model.Insights {
	if d == nil {
		return nil
	}
	return model.ParseInsights(d.Insight)
}

func formatWon(v float64) string {
	if v <= 0 {
		return ""
	}
	return printer.Sprintf("%d원", int64(v))
}

func formatPct(v float64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

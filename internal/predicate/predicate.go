// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package predicate classifies single events: active or ended, extracted or
// pending, own issuer or competitor. Every function is pure; callers pass the
// reference time explicitly.
package predicate

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"

	"github.com/olegiv/cardwatch/internal/model"
)

// minExtractedRunes is the raw_text length above which an event counts as extracted.
const minExtractedRunes = 20

// Style is the display group of an issuer.
type Style string

// Issuer display styles.
const (
	StyleSamsung Style = "samsung"
	StyleShinhan Style = "shinhan"
	StyleHyundai Style = "hyundai"
	StyleKB      Style = "kb"
	StyleDefault Style = "default"
)

// styleRules are checked in order; the first marker found wins.
var styleRules = []struct {
	markers []string
	style   Style
}{
	{[]string{"삼성"}, StyleSamsung},
	{[]string{"신한"}, StyleShinhan},
	{[]string{"현대"}, StyleHyundai},
	{[]string{"KB", "국민"}, StyleKB},
}

// Issuers identifies the operator's own issuer and the company ordering used
// by matrix views.
type Issuers struct {
	Own      string
	Marker   string
	Priority []string
}

// DefaultIssuers returns the issuer configuration of the Shinhan marketing team.
func DefaultIssuers() Issuers {
	return Issuers{
		Own:      "신한카드",
		Marker:   "신한",
		Priority: []string{"신한카드", "KB국민카드", "삼성카드", "현대카드"},
	}
}

func (is Issuers) marker() string {
	if is.Marker != "" {
		return is.Marker
	}
	return is.Own
}

// IsOwn reports whether e belongs to the operator's own issuer.
func (is Issuers) IsOwn(e model.Event) bool {
	return IsSameIssuer(e, is.marker())
}

// IsCompetitor reports whether e belongs to any other issuer.
func (is Issuers) IsCompetitor(e model.Event) bool {
	return !is.IsOwn(e)
}

// IsSameIssuer is a case-sensitive substring test of marker against the company.
func IsSameIssuer(e model.Event, marker string) bool {
	if marker == "" {
		return false
	}
	return strings.Contains(e.Company, marker)
}

// ClassifyIssuerStyle maps a company name to its display style.
func ClassifyIssuerStyle(company string) Style {
	for _, rule := range styleRules {
		for _, m := range rule.markers {
			if strings.Contains(company, m) {
				return rule.style
			}
		}
	}
	return StyleDefault
}

// IsActive reports whether e is still running on now's calendar day.
// An explicit status wins. Without a resolvable end date, or when the end
// cannot be parsed, the event is treated as ongoing.
func IsActive(e model.Event, now time.Time) bool {
	switch strings.TrimSpace(e.Status) {
	case model.StatusActive:
		return true
	case model.StatusEnded:
		return false
	}
	if strings.TrimSpace(e.PeriodEnd) == "" && strings.TrimSpace(e.Period) == "" {
		return true
	}
	end, ok := ResolveEnd(e, now)
	if !ok {
		return true
	}
	return !end.Before(Today(now))
}

// ResolveEnd returns the event's end date: period_end when parseable, else the
// end parsed out of the free-text period.
func ResolveEnd(e model.Event, now time.Time) (time.Time, bool) {
	if s := strings.TrimSpace(e.PeriodEnd); s != "" {
		if t, ok := parseExplicitDate(s, now.Location()); ok {
			return t, true
		}
	}
	return PeriodEnd(e.Period, now)
}

// IsExtracted reports whether detail extraction produced usable content.
func IsExtracted(e model.Event) bool {
	if utf8.RuneCountInString(strings.TrimSpace(e.RawText)) > minExtractedRunes {
		return true
	}
	return !e.ParsedInsights().Empty()
}

// HasTag reports whether tag is one of the event's objective tags.
func HasTag(e model.Event, tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	return slices.Contains(e.ParsedInsights().ObjectiveTags(), tag)
}

// CreatedAt parses the ingestion timestamp in loc. Zero time on failure.
func CreatedAt(e model.Event, loc *time.Location) time.Time {
	s := strings.TrimSpace(e.CreatedAt)
	if s == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsHighThreat reports whether the backend or the extractor rated e as high threat.
func IsHighThreat(e model.Event) bool {
	if strings.EqualFold(strings.TrimSpace(e.ThreatLevel), model.ThreatHigh) {
		return true
	}
	return strings.EqualFold(e.ParsedInsights().ThreatLevel(), model.ThreatHigh)
}

// Today returns midnight of now's calendar day in now's location.
func Today(now time.Time) time.Time {
	return DateOf(now, now.Location())
}

// DateOf truncates t to its calendar day, as written, placed in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

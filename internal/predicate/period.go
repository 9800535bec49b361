// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package predicate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"

	"github.com/olegiv/cardwatch/internal/util"
)

var (
	// weekdayRe matches parenthesized suffixes such as (화) or (Tue).
	weekdayRe = regexp.MustCompile(`\([^)]*\)`)
	// clockRe matches a time of day such as 23:59 or 09:00:00.
	clockRe = regexp.MustCompile(`\d{1,2}:\d{2}(:\d{2})?`)
	// fullDateRe matches YYYY-M-D and YY-M-D.
	fullDateRe = regexp.MustCompile(`^(\d{4}|\d{2})-(\d{1,2})-(\d{1,2})$`)
	// monthDayRe matches M-D.
	monthDayRe = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})$`)
	// trailingDateRe finds a date token at the end of a period without a separator.
	trailingDateRe = regexp.MustCompile(`(\d{2,4}-\d{1,2}-\d{1,2}|\d{1,2}-\d{1,2})$`)
	// yearRe finds a four digit year.
	yearRe = regexp.MustCompile(`(?:^|\D)(\d{4})(?:\D|$)`)
)

var dateSeparators = strings.NewReplacer(".", "-", "/", "-", "년", "-", "월", "-", "일", "")

// PeriodEnd parses the end boundary out of a free-text period such as
// "2025.01.01 ~ 2025.01.31", "1월 1일(수) ~ 1월 31일(금)" or "~ 25.01.31".
// Without a ~ separator the trailing date token is used. An end written as
// month and day borrows its year from the start of the period, falling back
// to now's year.
func PeriodEnd(period string, now time.Time) (time.Time, bool) {
	period = strings.TrimSpace(period)
	if period == "" {
		return time.Time{}, false
	}

	head, tail, found := strings.Cut(period, "~")
	if !found {
		normalized := normalizeDate(period)
		token := trailingDateRe.FindString(normalized)
		if token == "" {
			return time.Time{}, false
		}
		head, tail = strings.TrimSuffix(normalized, token), token
	}

	loc := now.Location()
	start, hasStart := parseDateToken(normalizeDate(head), 0, loc)

	year := now.Year()
	if m := yearRe.FindStringSubmatch(head); m != nil {
		year, _ = strconv.Atoi(m[1])
	} else if hasStart {
		year = start.Year()
	}

	end, ok := parseDateToken(normalizeDate(tail), year, loc)
	if !ok {
		return time.Time{}, false
	}
	if hasStart && end.Before(start) && !fullDateRe.MatchString(normalizeDate(tail)) {
		end = end.AddDate(1, 0, 0)
	}
	return end, true
}

// normalizeDate rewrites Korean and dotted date text into dash-separated form
// and strips weekdays, clock times, whitespace and surrounding words.
func normalizeDate(s string) string {
	s = weekdayRe.ReplaceAllString(s, "")
	s = clockRe.ReplaceAllString(s, "")
	s = dateSeparators.Replace(s)
	s = util.CollapseSpace(s)
	s = strings.TrimFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	return s
}

// parseDateToken parses YYYY-M-D, YY-M-D or, when defaultYear is non-zero, M-D.
func parseDateToken(s string, defaultYear int, loc *time.Location) (time.Time, bool) {
	var y, m, d int
	if parts := fullDateRe.FindStringSubmatch(s); parts != nil {
		y, _ = strconv.Atoi(parts[1])
		if len(parts[1]) == 2 {
			y += 2000
		}
		m, _ = strconv.Atoi(parts[2])
		d, _ = strconv.Atoi(parts[3])
	} else if parts := monthDayRe.FindStringSubmatch(s); parts != nil && defaultYear > 0 {
		y = defaultYear
		m, _ = strconv.Atoi(parts[1])
		d, _ = strconv.Atoi(parts[2])
	} else {
		return time.Time{}, false
	}
	return validDate(y, m, d, loc)
}

func validDate(y, m, d int, loc *time.Location) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

// parseExplicitDate parses an explicit period_end value. Dotted and Korean
// forms are tried first; ISO timestamps go through dateparse.
func parseExplicitDate(s string, loc *time.Location) (time.Time, bool) {
	if t, ok := parseDateToken(normalizeDate(s), 0, loc); ok {
		return t, true
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return DateOf(t, loc), true
}

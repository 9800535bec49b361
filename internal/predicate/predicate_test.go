// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package predicate

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/olegiv/cardwatch/internal/model"
)

var kst = time.FixedZone("KST", 9*60*60)

// refNow is Monday 2025-03-10 15:00 KST.
var refNow = time.Date(2025, 3, 10, 15, 0, 0, 0, kst)

func TestIsActive(t *testing.T) {
	tests := []struct {
		name  string
		event model.Event
		want  bool
	}{
		{"status active overrides past period", model.Event{Status: "active", Period: "2020.01.01 ~ 2020.01.31"}, true},
		{"status ended overrides future period", model.Event{Status: "ended", Period: "2030.01.01 ~ 2030.01.31"}, false},
		{"no period", model.Event{}, true},
		{"future end", model.Event{Period: "2025.03.01 ~ 2025.03.31"}, true},
		{"ends today", model.Event{Period: "2025.03.01 ~ 2025.03.10"}, true},
		{"ended yesterday", model.Event{Period: "2025.02.01 ~ 2025.03.09"}, false},
		{"unparseable period fails open", model.Event{Period: "상시 진행"}, true},
		{"open ended", model.Event{Period: "2025.01.01 ~ 별도 안내 시까지"}, true},
		{"period_end wins", model.Event{Period: "2025.03.01 ~ 2025.03.31", PeriodEnd: "2025-03-05"}, false},
		{"bad period_end falls back to period", model.Event{Period: "2025.03.01 ~ 2025.03.31", PeriodEnd: "미정"}, true},
		{"korean month day", model.Event{Period: "3월 1일(토) ~ 3월 9일(일)"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsActive(tt.event, refNow))
		})
	}
}

func TestIsActiveDeterministic(t *testing.T) {
	events := []model.Event{
		{Period: "2025.03.01 ~ 2025.03.10"},
		{Period: "garbage"},
		{Status: "ended"},
		{PeriodEnd: "2025-03-11"},
	}
	for _, e := range events {
		first := IsActive(e, refNow)
		for range 3 {
			assert.Equal(t, first, IsActive(e, refNow), "period %q", e.Period)
		}
	}
}

func TestPeriodEnd(t *testing.T) {
	tests := []struct {
		name   string
		period string
		want   string
		ok     bool
	}{
		{"dotted range", "2025.01.01 ~ 2025.01.31", "2025-01-31", true},
		{"dashed range", "2025-02-01~2025-02-28", "2025-02-28", true},
		{"slashed range", "2025/02/01 ~ 2025/02/28", "2025-02-28", true},
		{"weekday suffix", "2025.03.01(토) ~ 2025.03.31(월)", "2025-03-31", true},
		{"korean date", "2025년 3월 1일 ~ 2025년 4월 15일", "2025-04-15", true},
		{"two digit year", "25.03.01 ~ 25.03.20", "2025-03-20", true},
		{"month day borrows head year", "2024.12.01 ~ 12.31", "2024-12-31", true},
		{"month day crosses year", "2024.12.01 ~ 01.31", "2025-01-31", true},
		{"month day uses now year", "3월 1일 ~ 3월 31일", "2025-03-31", true},
		{"clock time", "2025.03.01 00:00 ~ 2025.03.31 23:59", "2025-03-31", true},
		{"trailing token", "2025.03.31까지", "2025-03-31", true},
		{"trailing token after text", "이벤트 종료일 2025.04.30", "2025-04-30", true},
		{"invalid day", "2025.02.01 ~ 2025.02.30", "", false},
		{"no date", "상시", "", false},
		{"empty", "", "", false},
		{"open tail", "2025.01.01 ~", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PeriodEnd(tt.period, refNow)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format(time.DateOnly))
				assert.Equal(t, kst, got.Location())
			}
		})
	}
}

func TestResolveEnd(t *testing.T) {
	e := model.Event{Period: "2025.03.01 ~ 2025.03.31", PeriodEnd: "2025-03-20T00:00:00"}
	end, ok := ResolveEnd(e, refNow)
	assert.True(t, ok)
	assert.Equal(t, "2025-03-20", end.Format(time.DateOnly))

	e.PeriodEnd = ""
	end, ok = ResolveEnd(e, refNow)
	assert.True(t, ok)
	assert.Equal(t, "2025-03-31", end.Format(time.DateOnly))

	_, ok = ResolveEnd(model.Event{Period: "상시"}, refNow)
	assert.False(t, ok)
}

func TestIsExtracted(t *testing.T) {
	tests := []struct {
		name  string
		event model.Event
		want  bool
	}{
		{"empty raw text and null insights", model.Event{RawText: "", Insights: nil}, false},
		{"25 characters", model.Event{RawText: strings.Repeat("a", 25)}, true},
		{"exactly 20 characters", model.Event{RawText: strings.Repeat("a", 20)}, false},
		{"padded short text", model.Event{RawText: "   " + strings.Repeat("가", 10) + "   "}, false},
		{"21 hangul characters", model.Event{RawText: strings.Repeat("가", 21)}, true},
		{"insights object", model.Event{Insights: json.RawMessage(`{"benefit_level":"높음"}`)}, true},
		{"empty insights object", model.Event{Insights: json.RawMessage(`{}`)}, false},
		{"encoded insights string", model.Event{Insights: json.RawMessage(`"{\"benefit_level\":\"보통\"}"`)}, true},
		{"malformed insights", model.Event{Insights: json.RawMessage(`"{not json"`)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExtracted(tt.event))
		})
	}
}

func TestIssuers(t *testing.T) {
	is := DefaultIssuers()

	assert.True(t, is.IsOwn(model.Event{Company: "신한카드"}))
	assert.False(t, is.IsOwn(model.Event{Company: "KB국민카드"}))
	assert.True(t, is.IsCompetitor(model.Event{Company: "현대카드"}))
	assert.True(t, IsSameIssuer(model.Event{Company: "KB국민카드"}, "KB"))
	assert.False(t, IsSameIssuer(model.Event{Company: "kb국민카드"}, "KB"))
	assert.False(t, IsSameIssuer(model.Event{Company: "신한카드"}, ""))

	fallback := Issuers{Own: "삼성카드"}
	assert.True(t, fallback.IsOwn(model.Event{Company: "삼성카드"}))
}

func TestClassifyIssuerStyle(t *testing.T) {
	tests := []struct {
		company string
		want    Style
	}{
		{"삼성카드", StyleSamsung},
		{"신한카드", StyleShinhan},
		{"현대카드", StyleHyundai},
		{"KB국민카드", StyleKB},
		{"국민카드", StyleKB},
		{"KB카드", StyleKB},
		{"롯데카드", StyleDefault},
		{"", StyleDefault},
		{"삼성신한제휴", StyleSamsung},
		{"신한현대", StyleShinhan},
	}

	for _, tt := range tests {
		t.Run(tt.company, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIssuerStyle(tt.company))
		})
	}
}

func TestHasTag(t *testing.T) {
	e := model.Event{Insights: json.RawMessage(`{"objective_tags":["신규고객","리텐션"]}`)}

	assert.True(t, HasTag(e, "신규고객"))
	assert.True(t, HasTag(e, " 리텐션 "))
	assert.False(t, HasTag(e, "교차판매"))
	assert.False(t, HasTag(e, ""))
	assert.False(t, HasTag(model.Event{}, "신규고객"))
}

func TestCreatedAt(t *testing.T) {
	got := CreatedAt(model.Event{CreatedAt: "2025-03-08 09:30:00"}, kst)
	assert.True(t, got.Equal(time.Date(2025, 3, 8, 9, 30, 0, 0, kst)))

	got = CreatedAt(model.Event{CreatedAt: "2025-03-08T00:30:00Z"}, kst)
	assert.True(t, got.Equal(time.Date(2025, 3, 8, 9, 30, 0, 0, kst)))

	assert.True(t, CreatedAt(model.Event{CreatedAt: "미정"}, kst).IsZero())
	assert.True(t, CreatedAt(model.Event{}, kst).IsZero())
}

func TestIsHighThreat(t *testing.T) {
	assert.True(t, IsHighThreat(model.Event{ThreatLevel: "High"}))
	assert.True(t, IsHighThreat(model.Event{Insights: json.RawMessage(`{"threat_level":"high"}`)}))
	assert.False(t, IsHighThreat(model.Event{ThreatLevel: "Mid"}))
}

func TestToday(t *testing.T) {
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, kst), Today(refNow))
}

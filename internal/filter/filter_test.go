// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package filter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/olegiv/cardwatch/internal/model"
)

var refNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.FixedZone("KST", 9*60*60))

func fixture() []model.Event {
	long := strings.Repeat("상세 본문 ", 10)
	return []model.Event{
		{ID: 1, Company: "신한카드", Title: "봄맞이 Cashback", Category: "쇼핑", BenefitType: "캐시백",
			Period: "2025.03.01 ~ 2025.03.31", RawText: long,
			Insights: json.RawMessage(`{"objective_tags":["신규고객"]}`)},
		{ID: 2, Company: "현대카드", Title: "주유 할인", Category: "주유", BenefitType: "할인",
			Period: "2025.01.01 ~ 2025.02.28"},
		{ID: 3, Company: "삼성카드", Title: "해외 결제", Category: "여행", BenefitType: "적립",
			BenefitValue: "최대 5% CASHBACK", Status: "active",
			Insights: json.RawMessage(`"{\"objective_tags\":[\"리텐션\",\"신규고객\"]}"`)},
		{ID: 4, Company: "현대카드", Title: "항공 마일리지", Category: "여행", BenefitType: "적립",
			Period: "상시"},
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []int64
	}{
		{"no criteria", Criteria{}, []int64{1, 2, 3, 4}},
		{"wildcards", Criteria{Company: "any", Category: "all", Status: "ANY"}, []int64{1, 2, 3, 4}},
		{"company", Criteria{Company: "현대카드"}, []int64{2, 4}},
		{"category", Criteria{Category: "여행"}, []int64{3, 4}},
		{"status active", Criteria{Status: "active"}, []int64{1, 3, 4}},
		{"status ended", Criteria{Status: "ended"}, []int64{2}},
		{"benefit type", Criteria{BenefitType: "적립"}, []int64{3, 4}},
		{"extraction done", Criteria{Extraction: "done"}, []int64{1, 3}},
		{"extraction pending", Criteria{Extraction: "pending"}, []int64{2, 4}},
		{"tag", Criteria{Tag: "신규고객"}, []int64{1, 3}},
		{"keyword title case-insensitive", Criteria{Keyword: "cashback"}, []int64{1, 3}},
		{"keyword company", Criteria{Keyword: "현대"}, []int64{2, 4}},
		{"keyword category", Criteria{Keyword: "  여행 "}, []int64{3, 4}},
		{"keyword spans fields", Criteria{Keyword: "할인 현대카드"}, []int64{2}},
		{"combined", Criteria{Company: "현대카드", Category: "여행", Status: "active"}, []int64{4}},
		{"no match", Criteria{Company: "롯데카드"}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(fixture(), tt.criteria, refNow)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApplyIsStableSubset(t *testing.T) {
	in := fixture()
	combos := []Criteria{
		{Status: "active"},
		{Keyword: "카드"},
		{Extraction: "pending", Company: "현대카드"},
		{Tag: "리텐션", Status: "active"},
		{Category: "여행", BenefitType: "적립"},
	}

	position := make(map[int64]int, len(in))
	for i, e := range in {
		position[e.ID] = i
	}

	for _, c := range combos {
		out := Apply(in, c, refNow)
		assert.LessOrEqual(t, len(out), len(in))
		last := -1
		for _, e := range out {
			pos, ok := position[e.ID]
			assert.True(t, ok, "output must come from input")
			assert.Greater(t, pos, last, "relative order preserved")
			last = pos
		}
	}
}

func TestStatusScenario(t *testing.T) {
	events := []model.Event{
		{ID: 1, Period: "2025.03.01 ~ 2025.03.31"},
		{ID: 2, Status: "active"},
		{ID: 3, Period: "2025.01.01 ~ 2025.01.31"},
	}

	assert.Equal(t, []int64{1, 2}, ids(Apply(events, Criteria{Status: "active"}, refNow)))
	assert.Equal(t, []int64{3}, ids(Apply(events, Criteria{Status: "ended"}, refNow)))
	assert.Equal(t, []int64{1, 2, 3}, ids(Apply(events, Criteria{}, refNow)))
}

func TestMatch(t *testing.T) {
	e := fixture()[0]
	assert.True(t, Match(e, Criteria{Company: "신한카드", Tag: "신규고객"}, refNow))
	assert.False(t, Match(e, Criteria{Extraction: "pending"}, refNow))
}

func TestCriteriaNormalize(t *testing.T) {
	c := Criteria{Keyword: "  봄 ", Company: "All", Status: " Active ", Extraction: "DONE"}.Normalize()

	assert.Equal(t, Criteria{Keyword: "봄", Status: "active", Extraction: "done"}, c)
	assert.False(t, c.IsZero())
	assert.True(t, Criteria{Company: "any", Tag: " "}.IsZero())
}

func TestOptionsOf(t *testing.T) {
	opts := OptionsOf(fixture())

	assert.Equal(t, []string{"삼성카드", "신한카드", "현대카드"}, opts.Companies)
	assert.Equal(t, []string{"쇼핑", "여행", "주유"}, opts.Categories)
	assert.Equal(t, []string{"적립", "캐시백", "할인"}, opts.BenefitTypes)
	assert.Equal(t, []string{"리텐션", "신규고객"}, opts.Tags)

	empty := OptionsOf(nil)
	assert.Empty(t, empty.Companies)
	assert.NotNil(t, empty.Tags)
}

func ids(events []model.Event) []int64 {
	out := make([]int64, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

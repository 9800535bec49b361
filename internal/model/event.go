// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the records the dashboard consumes from the
// competitor-intelligence backend.
package model

import (
	"encoding/json"
)

// Event statuses accepted as explicit overrides.
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// Threat levels reported by the backend.
const (
	ThreatHigh = "High"
	ThreatMid  = "Mid"
	ThreatLow  = "Low"
)

// Event is one competitor promotional event as returned by GET /api/events.
// Derived state (active, extracted) is never stored here.
type Event struct {
	ID               int64           `json:"id"`
	Company          string          `json:"company"`
	Title            string          `json:"title"`
	URL              string          `json:"url"`
	Period           string          `json:"period,omitempty"`
	PeriodStart      string          `json:"period_start,omitempty"`
	PeriodEnd        string          `json:"period_end,omitempty"`
	CreatedAt        string          `json:"created_at,omitempty"`
	Category         string          `json:"category,omitempty"`
	BenefitType      string          `json:"benefit_type,omitempty"`
	BenefitValue     string          `json:"benefit_value,omitempty"`
	BenefitAmountWon float64         `json:"benefit_amount_won,omitempty"`
	BenefitPct       float64         `json:"benefit_pct,omitempty"`
	Conditions       string          `json:"conditions,omitempty"`
	TargetSegment    string          `json:"target_segment,omitempty"`
	ThreatLevel      string          `json:"threat_level,omitempty"`
	OneLineSummary   string          `json:"one_line_summary,omitempty"`
	Status           string          `json:"status,omitempty"`
	RawText          string          `json:"raw_text,omitempty"`
	Insights         json.RawMessage `json:"marketing_insights,omitempty"`
	Locked           bool            `json:"locked,omitempty"`
}

// UnmarshalJSON accepts null for the numeric benefit fields and keeps
// marketing_insights as raw JSON whatever its encoding.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	aux := struct {
		*plain
		BenefitAmountWon *float64        `json:"benefit_amount_won"`
		BenefitPct       *float64        `json:"benefit_pct"`
		Insights         json.RawMessage `json:"marketing_insights"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.BenefitAmountWon = 0
	if aux.BenefitAmountWon != nil {
		e.BenefitAmountWon = *aux.BenefitAmountWon
	}
	e.BenefitPct = 0
	if aux.BenefitPct != nil {
		e.BenefitPct = *aux.BenefitPct
	}
	e.Insights = nil
	if len(aux.Insights) > 0 && string(aux.Insights) != "null" {
		e.Insights = append(json.RawMessage(nil), aux.Insights...)
	}
	return nil
}

// ParsedInsights normalizes the event's marketing_insights.
func (e Event) ParsedInsights() *Insights {
	return ParseInsights(e.Insights)
}

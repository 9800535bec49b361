// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Benefit levels used by the insight extractor, strongest first.
var BenefitLevels = []string{"높음", "중상", "보통", "낮음"}

// Insights is a normalized marketing_insights value: either an object or an array.
type Insights struct {
	Fields map[string]any
	Items  []any
}

// ParseInsights decodes marketing_insights which may arrive as an object, an
// array, a JSON-encoded string of either, or null. Anything that does not
// decode to an object or array yields nil.
func ParseInsights(raw json.RawMessage) *Insights {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		var inner string
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			return nil
		}
		inner = strings.TrimSpace(inner)
		if inner == "" || inner[0] == '"' {
			return nil
		}
		return ParseInsights(json.RawMessage(inner))
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case map[string]any:
		return &Insights{Fields: t}
	case []any:
		return &Insights{Items: t}
	default:
		return nil
	}
}

// Empty reports whether the insights carry no entries.
func (in *Insights) Empty() bool {
	return in == nil || (len(in.Fields) == 0 && len(in.Items) == 0)
}

// String returns the first non-empty string value among keys.
func (in *Insights) String(keys ...string) string {
	if in == nil {
		return ""
	}
	for _, k := range keys {
		v, ok := in.Fields[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// Strings returns the first non-empty list value among keys, trimmed and
// without blanks.
func (in *Insights) Strings(keys ...string) []string {
	if in == nil {
		return nil
	}
	for _, k := range keys {
		list, ok := in.Fields[k].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			if item == nil {
				continue
			}
			s := strings.TrimSpace(fmt.Sprint(item))
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// BenefitLevel returns the extractor's benefit level.
func (in *Insights) BenefitLevel() string {
	return in.String("benefit_level", "혜택_수준")
}

// ThreatLevel returns the extractor's threat assessment.
func (in *Insights) ThreatLevel() string {
	return in.String("threat_level")
}

// CompetitivePoints returns the extractor's competitive points.
func (in *Insights) CompetitivePoints() []string {
	return in.Strings("competitive_points", "경쟁력_포인트")
}

// PromoStrategies returns the extractor's promotion strategies.
func (in *Insights) PromoStrategies() []string {
	return in.Strings("promo_strategies", "프로모션_전략")
}

// ObjectiveTags returns the objective tag list used by the tag filter.
func (in *Insights) ObjectiveTags() []string {
	return in.Strings("objective_tags")
}

// TargetTags returns the customer segments the event is aimed at.
func (in *Insights) TargetTags() []string {
	return in.Strings("target_tags")
}

// ChannelTags returns the acquisition channels named by the extractor.
func (in *Insights) ChannelTags() []string {
	return in.Strings("channel_tags")
}

// Takeaway returns the extractor's marketing takeaway.
func (in *Insights) Takeaway() string {
	return in.String("marketing_takeaway")
}

// Evidence returns the source sentences backing the insight.
func (in *Insights) Evidence() []string {
	return in.Strings("evidence")
}

// Summary builds a short one-line digest: benefit level, two competitive
// points and two promotion strategies.
func (in *Insights) Summary() string {
	if in.Empty() {
		return ""
	}
	var parts []string
	if lv := in.BenefitLevel(); lv != "" {
		parts = append(parts, lv)
	}
	parts = append(parts, firstN(in.CompetitivePoints(), 2)...)
	parts = append(parts, firstN(in.PromoStrategies(), 2)...)
	return strings.Join(parts, " / ")
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

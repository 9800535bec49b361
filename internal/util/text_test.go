// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"testing"

	"golang.org/x/text/unicode/norm"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "Cashback", "cashback"},
		{"mixed korean", "KB국민 Card", "kb국민 card"},
		{"collapse whitespace", "  신한\t\n카드  ", "신한 카드"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fold(tt.input); got != tt.expected {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestContainsFold(t *testing.T) {
	decomposed := norm.NFD.String("캐시백")

	tests := []struct {
		name     string
		haystack string
		needle   string
		want     bool
	}{
		{"case insensitive", "Samsung Pay 할인", "samsung pay", true},
		{"missing", "현대카드 적립", "캐시백", false},
		{"empty needle", "anything", "", true},
		{"blank needle", "anything", "   ", true},
		{"nfd haystack", "최대 " + decomposed + " 5만원", "캐시백", true},
		{"nfd needle", "최대 캐시백 5만원", decomposed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsFold(tt.haystack, tt.needle); got != tt.want {
				t.Errorf("ContainsFold(%q, %q) = %v, want %v", tt.haystack, tt.needle, got, tt.want)
			}
		})
	}
}

func TestCollapseSpace(t *testing.T) {
	if got := CollapseSpace(" 2025 . 01 .\t31 "); got != "2025.01.31" {
		t.Errorf("CollapseSpace() = %q", got)
	}
}

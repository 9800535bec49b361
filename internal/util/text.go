// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides text normalization helpers shared by the filter
// engine and the predicates.
package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Fold returns s in NFC form with Unicode case folding applied and runs of
// whitespace collapsed to a single space. It is used for case-insensitive
// keyword matching, so Hangul syllables and Latin text compare alike
// regardless of how the backend composed them.
func Fold(s string) string {
	t := transform.Chain(norm.NFC, runes.Map(mapSpace))
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	result = folder.String(result)
	return strings.Join(strings.Fields(result), " ")
}

// ContainsFold reports whether needle occurs in haystack after folding both.
// An empty needle always matches.
func ContainsFold(haystack, needle string) bool {
	n := Fold(needle)
	if n == "" {
		return true
	}
	return strings.Contains(Fold(haystack), n)
}

// CollapseSpace strips every whitespace rune from s.
func CollapseSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func mapSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	return r
}

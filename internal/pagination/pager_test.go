// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagerDefaults(t *testing.T) {
	p := NewPager(0)
	assert.Equal(t, 1, p.Page())
	assert.Equal(t, DefaultPageSize, p.PageSize())
}

func TestPagerSetPageSizeResetsPage(t *testing.T) {
	p := NewPager(10)
	p.SetPage(4)
	Apply(p, seq(100))
	assert.Equal(t, 4, p.Page())

	p.SetPageSize(20)
	assert.Equal(t, 1, p.Page())
	assert.Equal(t, 20, p.PageSize())

	page := Apply(p, seq(100))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 5, page.TotalPages)
}

func TestPagerReloadReclampsWithoutReset(t *testing.T) {
	p := NewPager(10)
	p.SetPage(3)

	page := Apply(p, seq(45))
	assert.Equal(t, 3, page.Page)

	// Data reload with a longer list keeps the page.
	page = Apply(p, seq(80))
	assert.Equal(t, 3, page.Page)

	// A shorter list clamps to the new last page.
	page = Apply(p, seq(12))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, p.Page())
}

func TestPagerReset(t *testing.T) {
	p := NewPager(10)
	p.SetPage(3)
	p.Reset()
	assert.Equal(t, 1, p.Page())

	p.SetPage(-5)
	assert.Equal(t, 1, p.Page())
}

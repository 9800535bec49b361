// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pagination

// Pager is the pagination state of one session. It is not safe for
// concurrent use; the owning coordinator serializes access.
type Pager struct {
	page     int
	pageSize int
}

// NewPager creates a pager on page 1. A non-positive size selects DefaultPageSize.
func NewPager(pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{page: 1, pageSize: pageSize}
}

// Page returns the current 1-based page.
func (p *Pager) Page() int { return p.page }

// PageSize returns the rows per page.
func (p *Pager) PageSize() int { return p.pageSize }

// SetPage requests a page; it is clamped on the next Apply.
func (p *Pager) SetPage(page int) {
	p.page = max(page, 1)
}

// SetPageSize changes the page size and returns to page 1.
func (p *Pager) SetPageSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	p.pageSize = size
	p.page = 1
}

// Reset returns to page 1. Called when the filter criteria change.
func (p *Pager) Reset() {
	p.page = 1
}

// Clamp re-clamps the current page to a list of n items without resetting it.
func (p *Pager) Clamp(n int) {
	p.page, _ = NormalizePagination(p.page, n, p.pageSize)
}

// Apply pages a list with the pager's state, first clamping the current page
// to the list length.
func Apply[T any](p *Pager, list []T) Page[T] {
	p.Clamp(len(list))
	return Paginate(list, p.pageSize, p.page)
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pagination slices filtered lists into pages and tracks the current
// page of a dashboard session.
package pagination

// DefaultPageSize is the number of rows per page when none is configured.
const DefaultPageSize = 30

// Page is one page of a list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
	PerPage    int `json:"per_page"`
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }

// Link is one entry of a page-link window.
type Link struct {
	Number     int  `json:"number"`
	IsCurrent  bool `json:"is_current"`
	IsEllipsis bool `json:"is_ellipsis"`
}

// Paginate returns the requested page of list. The page is clamped to
// [1, total pages]; total pages is never below 1.
func Paginate[T any](list []T, pageSize, page int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page, totalPages := NormalizePagination(page, len(list), pageSize)

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(list))
	items := make([]T, 0, end-start)
	items = append(items, list[start:end]...)

	return Page[T]{
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		TotalItems: len(list),
		PerPage:    pageSize,
	}
}

// Window generates page links with ellipsis. It shows 5 page numbers centered
// on the current page, with an ellipsis for gaps, and always includes the
// first and last pages.
func Window(currentPage, totalPages int) []Link {
	if totalPages < 1 {
		return nil
	}
	currentPage = ClampPage(currentPage, totalPages)

	var links []Link

	start := currentPage - 2
	end := currentPage + 2
	if start < 1 {
		start = 1
		end = 5
	}
	if end > totalPages {
		end = totalPages
		start = max(end-4, 1)
	}

	if start > 1 {
		links = append(links, Link{Number: 1})
		if start > 2 {
			links = append(links, Link{IsEllipsis: true})
		}
	}

	for i := start; i <= end; i++ {
		links = append(links, Link{Number: i, IsCurrent: i == currentPage})
	}

	if end < totalPages {
		if end < totalPages-1 {
			links = append(links, Link{IsEllipsis: true})
		}
		links = append(links, Link{Number: totalPages})
	}

	return links
}

// CalculateTotalPages calculates the number of pages for the given total items and items per page.
func CalculateTotalPages(totalItems, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	totalPages := (totalItems + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	return totalPages
}

// ClampPage ensures the page number is within the valid range [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// NormalizePagination calculates total pages and clamps the current page to a valid range.
// Returns the normalized page number and total pages.
func NormalizePagination(page, totalItems, perPage int) (normalizedPage, totalPages int) {
	totalPages = CalculateTotalPages(totalItems, perPage)
	normalizedPage = ClampPage(page, totalPages)
	return normalizedPage, totalPages
}

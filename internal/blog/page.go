// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"errors"
	"strconv"
	"strings"
)

// PostsPerPage is the fixed size of every post listing.
const PostsPerPage = 10

// Page is one window over an ordered listing.
type Page struct {
	Number     int
	TotalPages int
	PerPage    int
	TotalItems int64
}

// NewPage clamps the requested page number into [1, TotalPages].
// An empty listing still has one (empty) page.
func NewPage(requested int, totalItems int64, perPage int) Page {
	if perPage <= 0 {
		perPage = PostsPerPage
	}
	if totalItems < 0 {
		totalItems = 0
	}

	totalPages := int((totalItems + int64(perPage) - 1) / int64(perPage))
	if totalPages < 1 {
		totalPages = 1
	}

	number := requested
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}

	return Page{
		Number:     number,
		TotalPages: totalPages,
		PerPage:    perPage,
		TotalItems: totalItems,
	}
}

// Offset is the number of items before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Limit is the page size to request from the store.
func (p Page) Limit() int {
	return p.PerPage
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool {
	return p.Number > 1
}

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool {
	return p.Number < p.TotalPages
}

// Prev returns the previous page number (or the current one on the first page).
func (p Page) Prev() int {
	if p.HasPrev() {
		return p.Number - 1
	}
	return p.Number
}

// Next returns the next page number (or the current one on the last page).
func (p Page) Next() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.Number
}

// ItemsOnPage returns how many items fall on this page.
func (p Page) ItemsOnPage() int {
	remaining := p.TotalItems - int64(p.Offset())
	switch {
	case remaining <= 0:
		return 0
	case remaining < int64(p.PerPage):
		return int(remaining)
	default:
		return p.PerPage
	}
}

// lastPage is clamped to the real last page by NewPage.
const lastPage = int(^uint(0) >> 1)

// ParsePageNumber converts a ?page= value into a page number.
// Anything that is not a positive integer becomes 1; "last" and positive
// numbers too large for an int select the last page.
func ParsePageNumber(s string) int {
	if s == "last" {
		return lastPage
	}
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(s, "-") {
		return lastPage
	}
	if err != nil || n < 1 {
		return 1
	}
	return n
}

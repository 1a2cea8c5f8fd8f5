// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/olegiv/blogicum/internal/blog"
	"github.com/olegiv/blogicum/internal/store"
)

// =============================================================================
// LIST AND COUNT HELPERS
// =============================================================================

// CountAndList counts the items first so the requested page can be clamped,
// then loads that page. This is a generic helper for paginated listings.
func CountAndList[T any](
	requested, perPage int,
	countFn func() (int64, error),
	listFn func(limit, offset int) ([]T, error),
) ([]T, blog.Page, error) {
	total, err := countFn()
	if err != nil {
		return nil, blog.Page{}, err
	}
	page := blog.NewPage(requested, total, perPage)
	if total == 0 {
		return nil, page, nil
	}
	items, err := listFn(page.Limit(), page.Offset())
	return items, page, err
}

// requestedPage reads ?page= from the request.
func requestedPage(r *http.Request) int {
	return blog.ParsePageNumber(r.URL.Query().Get("page"))
}

// ListingData is passed to the index, category and profile templates.
type ListingData struct {
	Posts    []store.PostDetail
	Page     blog.Page
	BaseURL  string
	Category *store.Category
	Profile  *store.User
	IsOwner  bool
}

// =============================================================================
// FORM REFERENCE CHECKS
// =============================================================================

// storeRefs checks post form references against the database.
type storeRefs struct {
	ctx     context.Context
	queries *store.Queries
	err     error
}

func (s *storeRefs) CategoryExists(id int64) bool {
	_, err := s.queries.GetCategoryByID(s.ctx, id)
	return s.check(err)
}

func (s *storeRefs) LocationExists(id int64) bool {
	_, err := s.queries.GetLocationByID(s.ctx, id)
	return s.check(err)
}

// check records unexpected errors so the handler can fail instead of
// reporting a validation error.
func (s *storeRefs) check(err error) bool {
	if err == nil {
		return true
	}
	if !errors.Is(err, store.ErrNotFound) && s.err == nil {
		s.err = err
	}
	return false
}

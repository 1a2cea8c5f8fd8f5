// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic shared by handlers and background jobs.
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/olegiv/blogicum/internal/cache"
	"github.com/olegiv/blogicum/internal/store"
)

// Sidebar cache keys. Every sidebar entry lives under SidebarCachePrefix.
const (
	SidebarCachePrefix = "sidebar:"
	SidebarCacheKey    = SidebarCachePrefix + "categories"
)

// SidebarService loads published categories with their visible post counts.
// The list is cached and invalidated whenever a post changes or a scheduled
// post goes live.
type SidebarService struct {
	queries *store.Queries
	raw     cache.Cache
	cache   *cache.TypedCache[[]store.CategoryWithCount]
	logger  *slog.Logger
	now     func() time.Time
}

// NewSidebarService creates a SidebarService. If c is nil, every call hits
// the database.
func NewSidebarService(db *sql.DB, c cache.Cache, ttl time.Duration, logger *slog.Logger) *SidebarService {
	s := &SidebarService{
		queries: store.New(db),
		logger:  logger,
		now:     time.Now,
	}
	if c != nil {
		s.raw = c
		s.cache = cache.NewTypedCache[[]store.CategoryWithCount](c, ttl)
	}
	return s
}

// Categories returns the sidebar categories.
func (s *SidebarService) Categories(ctx context.Context) ([]store.CategoryWithCount, error) {
	load := func() (*[]store.CategoryWithCount, error) {
		items, err := s.queries.ListPublishedCategoriesWithCounts(ctx, s.now())
		if err != nil {
			return nil, err
		}
		return &items, nil
	}

	if s.cache == nil {
		items, err := load()
		if err != nil {
			return nil, err
		}
		return *items, nil
	}

	items, err := s.cache.GetOrSet(ctx, SidebarCacheKey, load)
	if err != nil {
		return nil, err
	}
	return *items, nil
}

// Invalidate drops every sidebar entry. Failures are logged; entries expire
// on their own.
func (s *SidebarService) Invalidate(ctx context.Context) {
	if s.raw == nil {
		return
	}
	if err := s.raw.DeleteByPrefix(ctx, SidebarCachePrefix); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate sidebar cache", "error", err)
	}
}

// Reset empties the cache and zeroes its counters. A shared Redis cache may
// still hold entries written before seeding or by an older release.
func (s *SidebarService) Reset(ctx context.Context) error {
	if s.raw == nil {
		return nil
	}
	if err := s.raw.Clear(ctx); err != nil {
		return err
	}
	if sp, ok := s.raw.(cache.StatsProvider); ok {
		sp.ResetStats()
	}
	return nil
}

// CacheStats reports hit and miss counters when the cache tracks them.
func (s *SidebarService) CacheStats() (cache.Stats, bool) {
	sp, ok := s.raw.(cache.StatsProvider)
	if !ok {
		return cache.Stats{}, false
	}
	return sp.Stats(), true
}

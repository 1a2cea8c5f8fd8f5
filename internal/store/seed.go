// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/blogicum/internal/util"
)

// SeedCategory is a category created on first start. Slug defaults to the
// slugified title.
type SeedCategory struct {
	Title       string
	Slug        string
	Description string
}

// DefaultCategories are created when seeding is enabled.
var DefaultCategories = []SeedCategory{
	{Title: "Travel", Description: "Notes from the road."},
	{Title: "Everyday life", Description: "Small things worth writing down."},
	{Title: "Not my day", Description: "When everything goes wrong."},
}

// DefaultLocations are created when seeding is enabled.
var DefaultLocations = []string{
	"Island of Joy",
	"Planet Earth",
	"Somewhere in the forest",
}

// Seed creates the default categories and locations that are missing.
// Existing rows are left untouched so it is safe to run on every start.
func Seed(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	queries := New(db)
	now := time.Now()

	if err := seedCategories(ctx, queries, DefaultCategories, now, logger); err != nil {
		return err
	}

	for _, name := range DefaultLocations {
		_, err := queries.GetLocationByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("checking location %q: %w", name, err)
		}
		if _, err := queries.CreateLocation(ctx, name, true, now); err != nil {
			return fmt.Errorf("creating location %q: %w", name, err)
		}
		logger.Info("seeded location", "name", name)
	}

	return nil
}

func seedCategories(ctx context.Context, queries *Queries, categories []SeedCategory, now time.Time, logger *slog.Logger) error {
	for _, c := range categories {
		if c.Slug == "" {
			c.Slug = util.Slugify(c.Title)
		}
		if !util.IsValidSlug(c.Slug) {
			return fmt.Errorf("category %q: invalid slug %q", c.Title, c.Slug)
		}
		exists, err := queries.CategorySlugExists(ctx, c.Slug)
		if err != nil {
			return fmt.Errorf("checking category %q: %w", c.Slug, err)
		}
		if exists {
			continue
		}
		if _, err := queries.CreateCategory(ctx, CreateCategoryParams{
			Title:       c.Title,
			Description: c.Description,
			Slug:        c.Slug,
			IsPublished: true,
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("creating category %q: %w", c.Slug, err)
		}
		logger.Info("seeded category", "slug", c.Slug)
	}
	return nil
}

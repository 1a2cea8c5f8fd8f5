// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const categoryColumns = `id, title, description, slug, is_published, created_at`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Slug, &c.IsPublished, &c.CreatedAt)
	return c, err
}

const createCategory = `INSERT INTO categories (title, description, slug, is_published, created_at)
VALUES (?, ?, ?, ?, ?)`

type CreateCategoryParams struct {
	Title       string
	Description string
	Slug        string
	IsPublished bool
	CreatedAt   time.Time
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	res, err := q.db.ExecContext(ctx, createCategory,
		arg.Title,
		arg.Description,
		arg.Slug,
		arg.IsPublished,
		dbTime(arg.CreatedAt),
	)
	if err != nil {
		return Category{}, duplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Category{}, err
	}
	return q.GetCategoryByID(ctx, id)
}

const getCategoryByID = `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (Category, error) {
	c, err := scanCategory(q.db.QueryRowContext(ctx, getCategoryByID, id))
	return c, notFound(err)
}

const getCategoryBySlug = `SELECT ` + categoryColumns + ` FROM categories WHERE slug = ?`

func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	c, err := scanCategory(q.db.QueryRowContext(ctx, getCategoryBySlug, slug))
	return c, notFound(err)
}

const setCategoryPublished = `UPDATE categories SET is_published = ? WHERE id = ?`

func (q *Queries) SetCategoryPublished(ctx context.Context, id int64, published bool) error {
	_, err := q.db.ExecContext(ctx, setCategoryPublished, published, id)
	return err
}

const listCategories = `SELECT ` + categoryColumns + ` FROM categories ORDER BY title, id`

// ListCategories returns every category, published or not, for the post form.
func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const listPublishedCategoriesWithCounts = `SELECT c.id, c.title, c.description, c.slug, c.is_published, c.created_at,
    (SELECT COUNT(*) FROM posts p
     WHERE p.category_id = c.id AND p.is_published = 1 AND p.pub_date <= ?) AS post_count
FROM categories c
WHERE c.is_published = 1
ORDER BY c.title, c.id`

// ListPublishedCategoriesWithCounts returns published categories with the
// number of posts in each that are public at now.
func (q *Queries) ListPublishedCategoriesWithCounts(ctx context.Context, now time.Time) ([]CategoryWithCount, error) {
	rows, err := q.db.QueryContext(ctx, listPublishedCategoriesWithCounts, dbTime(now))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []CategoryWithCount
	for rows.Next() {
		var c CategoryWithCount
		if err := rows.Scan(
			&c.ID,
			&c.Title,
			&c.Description,
			&c.Slug,
			&c.IsPublished,
			&c.CreatedAt,
			&c.PostCount,
		); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const categorySlugExists = `SELECT COUNT(*) FROM categories WHERE slug = ?`

func (q *Queries) CategorySlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, categorySlugExists, slug).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const locationColumns = `id, name, is_published, created_at`

func scanLocation(row interface{ Scan(...any) error }) (Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.Name, &l.IsPublished, &l.CreatedAt)
	return l, err
}

const createLocation = `INSERT INTO locations (name, is_published, created_at) VALUES (?, ?, ?)`

func (q *Queries) CreateLocation(ctx context.Context, name string, isPublished bool, createdAt time.Time) (Location, error) {
	res, err := q.db.ExecContext(ctx, createLocation, name, isPublished, dbTime(createdAt))
	if err != nil {
		return Location{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Location{}, err
	}
	return q.GetLocationByID(ctx, id)
}

const getLocationByID = `SELECT ` + locationColumns + ` FROM locations WHERE id = ?`

func (q *Queries) GetLocationByID(ctx context.Context, id int64) (Location, error) {
	l, err := scanLocation(q.db.QueryRowContext(ctx, getLocationByID, id))
	return l, notFound(err)
}

const getLocationByName = `SELECT ` + locationColumns + ` FROM locations WHERE name = ? ORDER BY id LIMIT 1`

func (q *Queries) GetLocationByName(ctx context.Context, name string) (Location, error) {
	l, err := scanLocation(q.db.QueryRowContext(ctx, getLocationByName, name))
	return l, notFound(err)
}

const listLocations = `SELECT ` + locationColumns + ` FROM locations ORDER BY name, id`

func (q *Queries) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := q.db.QueryContext(ctx, listLocations)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

const createUser = `INSERT INTO users (username, email, first_name, last_name, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

type CreateUserParams struct {
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser inserts a user. Returns ErrDuplicate when the username is taken.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	created := dbTime(arg.CreatedAt)
	res, err := q.db.ExecContext(ctx, createUser,
		arg.Username,
		arg.Email,
		arg.FirstName,
		arg.LastName,
		arg.PasswordHash,
		created,
		created,
	)
	if err != nil {
		return User{}, duplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, id)
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
	return u, notFound(err)
}

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = ?`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	u, err := scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
	return u, notFound(err)
}

const usernameTaken = `SELECT COUNT(*) FROM users WHERE username = ? AND id <> ?`

// UsernameTaken reports whether another user (not exceptID) has the username.
func (q *Queries) UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, usernameTaken, username, exceptID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

const updateUserProfile = `UPDATE users
SET username = ?, email = ?, first_name = ?, last_name = ?, updated_at = ?
WHERE id = ?`

type UpdateUserProfileParams struct {
	ID        int64
	Username  string
	Email     string
	FirstName string
	LastName  string
	UpdatedAt time.Time
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) error {
	_, err := q.db.ExecContext(ctx, updateUserProfile,
		arg.Username,
		arg.Email,
		arg.FirstName,
		arg.LastName,
		dbTime(arg.UpdatedAt),
		arg.ID,
	)
	return duplicate(err)
}

const updateUserPassword = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, passwordHash, dbTime(updatedAt), id)
	return err
}

const updateUserLastLogin = `UPDATE users SET last_login_at = ? WHERE id = ?`

func (q *Queries) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, updateUserLastLogin, sql.NullTime{Time: dbTime(at), Valid: true}, id)
	return err
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the blogicum project.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/blogicum/internal/auth"
	"github.com/olegiv/blogicum/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates a temporary test database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "blogicum-test.db")

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db, store.DriverSQLite); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
	}
}

// TestMemoryDB creates an in-memory SQLite database without migrations.
// The pool holds one connection because every :memory: connection is its
// own database.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Fixtures builds rows for handler and store tests.
type Fixtures struct {
	t  *testing.T
	q  *store.Queries
	db *sql.DB
	n  int
}

// NewFixtures returns a fixture builder bound to db.
func NewFixtures(t *testing.T, db *sql.DB) *Fixtures {
	return &Fixtures{t: t, q: store.New(db), db: db}
}

// Password is the plain-text password of every fixture user.
const Password = "correct-horse-battery"

var fixtureHash string

// User creates a user with Password.
func (f *Fixtures) User(username string) store.User {
	f.t.Helper()
	if fixtureHash == "" {
		h, err := auth.HashPassword(Password)
		if err != nil {
			f.t.Fatalf("HashPassword: %v", err)
		}
		fixtureHash = h
	}
	u, err := f.q.CreateUser(context.Background(), store.CreateUserParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: fixtureHash,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		f.t.Fatalf("CreateUser(%q): %v", username, err)
	}
	return u
}

// Category creates a category with a unique slug.
func (f *Fixtures) Category(title string, published bool) store.Category {
	f.t.Helper()
	f.n++
	c, err := f.q.CreateCategory(context.Background(), store.CreateCategoryParams{
		Title:       title,
		Description: title + " description",
		Slug:        fmt.Sprintf("cat-%d", f.n),
		IsPublished: published,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		f.t.Fatalf("CreateCategory(%q): %v", title, err)
	}
	return c
}

// Location creates a location.
func (f *Fixtures) Location(name string, published bool) store.Location {
	f.t.Helper()
	l, err := f.q.CreateLocation(context.Background(), name, published, time.Now())
	if err != nil {
		f.t.Fatalf("CreateLocation(%q): %v", name, err)
	}
	return l
}

// PostOpts controls the post created by Post. The zero value is a public
// post published an hour ago, provided CategoryID names a published category.
type PostOpts struct {
	Title      string
	Text       string
	Draft      bool
	PubDate    time.Time
	CategoryID int64
	LocationID int64
}

// Post creates a post by author and returns its id.
func (f *Fixtures) Post(authorID int64, opts PostOpts) int64 {
	f.t.Helper()
	if opts.Title == "" {
		f.n++
		opts.Title = fmt.Sprintf("Post %d", f.n)
	}
	if opts.Text == "" {
		opts.Text = "Body of " + opts.Title
	}
	if opts.PubDate.IsZero() {
		opts.PubDate = time.Now().Add(-time.Hour)
	}
	id, err := f.q.CreatePost(context.Background(), store.CreatePostParams{
		Title:       opts.Title,
		Text:        opts.Text,
		PubDate:     opts.PubDate,
		IsPublished: !opts.Draft,
		CreatedAt:   time.Now(),
		AuthorID:    authorID,
		CategoryID:  nullID(opts.CategoryID),
		LocationID:  nullID(opts.LocationID),
	})
	if err != nil {
		f.t.Fatalf("CreatePost: %v", err)
	}
	return id
}

// Comment adds a comment and returns its id.
func (f *Fixtures) Comment(postID, authorID int64, text string) int64 {
	f.t.Helper()
	id, err := f.q.CreateComment(context.Background(), store.CreateCommentParams{
		Text:      text,
		CreatedAt: time.Now(),
		PostID:    postID,
		AuthorID:  authorID,
	})
	if err != nil {
		f.t.Fatalf("CreateComment: %v", err)
	}
	return id
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}

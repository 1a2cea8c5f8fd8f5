// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"

	"github.com/olegiv/blogicum/internal/blog"
)

type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	LastLoginAt  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName returns "First Last", or the username when both are empty.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Username
	}
}

type Category struct {
	ID          int64
	Title       string
	Description string
	Slug        string
	IsPublished bool
	CreatedAt   time.Time
}

// CategoryWithCount is a category with the number of publicly visible posts.
type CategoryWithCount struct {
	Category
	PostCount int64
}

type Location struct {
	ID          int64
	Name        string
	IsPublished bool
	CreatedAt   time.Time
}

type Post struct {
	ID          int64
	Title       string
	Text        string
	PubDate     time.Time
	Image       sql.NullString
	IsPublished bool
	CreatedAt   time.Time
	AuthorID    int64
	LocationID  sql.NullInt64
	CategoryID  sql.NullInt64
}

// PostDetail is a post joined with its author, category, location and comment count.
type PostDetail struct {
	Post
	AuthorUsername      string
	CategoryTitle       sql.NullString
	CategorySlug        sql.NullString
	CategoryIsPublished sql.NullBool
	LocationName        sql.NullString
	LocationIsPublished sql.NullBool
	CommentCount        int64
}

// Candidate returns the fields the visibility rule reads.
func (p PostDetail) Candidate() blog.Candidate {
	return blog.Candidate{
		AuthorID:          p.AuthorID,
		IsPublished:       p.IsPublished,
		PubDate:           p.PubDate,
		HasCategory:       p.CategoryID.Valid,
		CategoryPublished: p.CategoryIsPublished.Valid && p.CategoryIsPublished.Bool,
	}
}

// ShowLocation reports whether the location should be displayed.
func (p PostDetail) ShowLocation() bool {
	return p.LocationName.Valid && p.LocationIsPublished.Valid && p.LocationIsPublished.Bool
}

type Comment struct {
	ID        int64
	Text      string
	CreatedAt time.Time
	PostID    int64
	AuthorID  int64
}

// CommentWithAuthor is a comment joined with its author's username.
type CommentWithAuthor struct {
	Comment
	AuthorUsername string
}

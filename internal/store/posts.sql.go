// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// publicPost is the SQL form of blog.Candidate.IsPublic. It takes one
// parameter, the current time.
const publicPost = `p.is_published = 1 AND p.pub_date <= ? AND c.id IS NOT NULL AND c.is_published = 1`

const postDetailSelect = `SELECT p.id, p.title, p.text, p.pub_date, p.image, p.is_published, p.created_at,
    p.author_id, p.location_id, p.category_id,
    u.username, c.title, c.slug, c.is_published, l.name, l.is_published,
    (SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id) AS comment_count
FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN categories c ON c.id = p.category_id
LEFT JOIN locations l ON l.id = p.location_id`

const postCountFrom = `SELECT COUNT(*)
FROM posts p
LEFT JOIN categories c ON c.id = p.category_id`

const postOrder = ` ORDER BY p.pub_date DESC, p.id DESC`

func scanPostDetail(row interface{ Scan(...any) error }) (PostDetail, error) {
	var p PostDetail
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Text,
		&p.PubDate,
		&p.Image,
		&p.IsPublished,
		&p.CreatedAt,
		&p.AuthorID,
		&p.LocationID,
		&p.CategoryID,
		&p.AuthorUsername,
		&p.CategoryTitle,
		&p.CategorySlug,
		&p.CategoryIsPublished,
		&p.LocationName,
		&p.LocationIsPublished,
		&p.CommentCount,
	)
	return p, err
}

func (q *Queries) queryPostDetails(ctx context.Context, query string, args ...any) ([]PostDetail, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []PostDetail
	for rows.Next() {
		p, err := scanPostDetail(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (q *Queries) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

const createPost = `INSERT INTO posts (title, text, pub_date, image, is_published, created_at, author_id, location_id, category_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreatePostParams struct {
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

// CreatePost inserts a post and returns its id.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createPost,
		arg.Title,
		arg.Text,
		dbTime(arg.PubDate),
		arg.Image,
		arg.IsPublished,
		dbTime(arg.CreatedAt),
		arg.AuthorID,
		arg.LocationID,
		arg.CategoryID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const updatePost = `UPDATE posts
SET title = ?, text = ?, pub_date = ?, image = ?, is_published = ?, location_id = ?, category_id = ?
WHERE id = ? AND author_id = ?`

type UpdatePostParams struct {
	ID          int64
	AuthorID    int64
	Title       string
	Text        string
	PubDate     time.Time
	Image       sql.NullString
	IsPublished bool
	LocationID  sql.NullInt64
	CategoryID  sql.NullInt64
}

// UpdatePost changes a post owned by AuthorID. Returns ErrNotFound when no
// such post belongs to that author.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) error {
	res, err := q.db.ExecContext(ctx, updatePost,
		arg.Title,
		arg.Text,
		dbTime(arg.PubDate),
		arg.Image,
		arg.IsPublished,
		arg.LocationID,
		arg.CategoryID,
		arg.ID,
		arg.AuthorID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

const getPostByID = postDetailSelect + ` WHERE p.id = ?`

func (q *Queries) GetPostByID(ctx context.Context, id int64) (PostDetail, error) {
	p, err := scanPostDetail(q.db.QueryRowContext(ctx, getPostByID, id))
	return p, notFound(err)
}

const listVisiblePosts = postDetailSelect + ` WHERE ` + publicPost + postOrder + ` LIMIT ? OFFSET ?`

// ListVisiblePosts returns one page of posts that are public at now.
func (q *Queries) ListVisiblePosts(ctx context.Context, now time.Time, limit, offset int) ([]PostDetail, error) {
	return q.queryPostDetails(ctx, listVisiblePosts, dbTime(now), limit, offset)
}

const countVisiblePosts = postCountFrom + ` WHERE ` + publicPost

func (q *Queries) CountVisiblePosts(ctx context.Context, now time.Time) (int64, error) {
	return q.count(ctx, countVisiblePosts, dbTime(now))
}

const listVisiblePostsByCategory = postDetailSelect + ` WHERE p.category_id = ? AND ` + publicPost + postOrder + ` LIMIT ? OFFSET ?`

func (q *Queries) ListVisiblePostsByCategory(ctx context.Context, categoryID int64, now time.Time, limit, offset int) ([]PostDetail, error) {
	return q.queryPostDetails(ctx, listVisiblePostsByCategory, categoryID, dbTime(now), limit, offset)
}

const countVisiblePostsByCategory = postCountFrom + ` WHERE p.category_id = ? AND ` + publicPost

func (q *Queries) CountVisiblePostsByCategory(ctx context.Context, categoryID int64, now time.Time) (int64, error) {
	return q.count(ctx, countVisiblePostsByCategory, categoryID, dbTime(now))
}

const listAllPostsByAuthor = postDetailSelect + ` WHERE p.author_id = ?` + postOrder + ` LIMIT ? OFFSET ?`

const listVisiblePostsByAuthor = postDetailSelect + ` WHERE p.author_id = ? AND ` + publicPost + postOrder + ` LIMIT ? OFFSET ?`

// ListPostsByAuthor returns one page of an author's posts. With includeHidden
// every post is returned; otherwise only posts that are public at now.
func (q *Queries) ListPostsByAuthor(ctx context.Context, authorID int64, includeHidden bool, now time.Time, limit, offset int) ([]PostDetail, error) {
	if includeHidden {
		return q.queryPostDetails(ctx, listAllPostsByAuthor, authorID, limit, offset)
	}
	return q.queryPostDetails(ctx, listVisiblePostsByAuthor, authorID, dbTime(now), limit, offset)
}

const countAllPostsByAuthor = postCountFrom + ` WHERE p.author_id = ?`

const countVisiblePostsByAuthor = postCountFrom + ` WHERE p.author_id = ? AND ` + publicPost

func (q *Queries) CountPostsByAuthor(ctx context.Context, authorID int64, includeHidden bool, now time.Time) (int64, error) {
	if includeHidden {
		return q.count(ctx, countAllPostsByAuthor, authorID)
	}
	return q.count(ctx, countVisiblePostsByAuthor, authorID, dbTime(now))
}

const countPostsGoingLive = postCountFrom + ` WHERE p.is_published = 1 AND p.pub_date > ? AND p.pub_date <= ?
    AND c.id IS NOT NULL AND c.is_published = 1`

// CountPostsGoingLive counts published posts whose pub_date falls in (since, until].
func (q *Queries) CountPostsGoingLive(ctx context.Context, since, until time.Time) (int64, error) {
	return q.count(ctx, countPostsGoingLive, dbTime(since), dbTime(until))
}

const deleteCommentsForPost = `DELETE FROM comments WHERE post_id = ?`

// DeleteCommentsForPost removes every comment under postID.
func (q *Queries) DeleteCommentsForPost(ctx context.Context, postID int64) error {
	_, err := q.db.ExecContext(ctx, deleteCommentsForPost, postID)
	return err
}

const deletePost = `DELETE FROM posts WHERE id = ? AND author_id = ?`

// DeletePost removes a post owned by authorID. Returns ErrNotFound when
// nothing was deleted.
func (q *Queries) DeletePost(ctx context.Context, postID, authorID int64) error {
	res, err := q.db.ExecContext(ctx, deletePost, postID, authorID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeletePostWithComments removes a post owned by authorID together with its
// comments in one transaction. Returns ErrNotFound when nothing was deleted.
func DeletePostWithComments(ctx context.Context, db *sql.DB, postID, authorID int64) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	qtx := New(db).WithTx(tx)
	if err = qtx.DeleteCommentsForPost(ctx, postID); err != nil {
		return err
	}
	if err = qtx.DeletePost(ctx, postID, authorID); err != nil {
		return err
	}
	return tx.Commit()
}

// requireAffected turns a zero-row write into ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

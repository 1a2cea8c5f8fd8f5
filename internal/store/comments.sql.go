// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const commentWithAuthorSelect = `SELECT cm.id, cm.text, cm.created_at, cm.post_id, cm.author_id, u.username
FROM comments cm
JOIN users u ON u.id = cm.author_id`

func scanCommentWithAuthor(row interface{ Scan(...any) error }) (CommentWithAuthor, error) {
	var c CommentWithAuthor
	err := row.Scan(&c.ID, &c.Text, &c.CreatedAt, &c.PostID, &c.AuthorID, &c.AuthorUsername)
	return c, err
}

const createComment = `INSERT INTO comments (text, created_at, post_id, author_id) VALUES (?, ?, ?, ?)`

type CreateCommentParams struct {
	Text      string
	CreatedAt time.Time
	PostID    int64
	AuthorID  int64
}

func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createComment, arg.Text, dbTime(arg.CreatedAt), arg.PostID, arg.AuthorID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getCommentForPost = commentWithAuthorSelect + ` WHERE cm.id = ? AND cm.post_id = ?`

// GetCommentForPost returns a comment only if it belongs to postID.
func (q *Queries) GetCommentForPost(ctx context.Context, id, postID int64) (CommentWithAuthor, error) {
	c, err := scanCommentWithAuthor(q.db.QueryRowContext(ctx, getCommentForPost, id, postID))
	return c, notFound(err)
}

const listCommentsForPost = commentWithAuthorSelect + ` WHERE cm.post_id = ? ORDER BY cm.created_at ASC, cm.id ASC`

func (q *Queries) ListCommentsForPost(ctx context.Context, postID int64) ([]CommentWithAuthor, error) {
	rows, err := q.db.QueryContext(ctx, listCommentsForPost, postID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []CommentWithAuthor
	for rows.Next() {
		c, err := scanCommentWithAuthor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const countCommentsForPost = `SELECT COUNT(*) FROM comments WHERE post_id = ?`

func (q *Queries) CountCommentsForPost(ctx context.Context, postID int64) (int64, error) {
	return q.count(ctx, countCommentsForPost, postID)
}

const updateCommentText = `UPDATE comments SET text = ? WHERE id = ? AND post_id = ? AND author_id = ?`

// UpdateCommentText edits a comment owned by authorID. Returns ErrNotFound
// when no such comment exists.
func (q *Queries) UpdateCommentText(ctx context.Context, id, postID, authorID int64, text string) error {
	res, err := q.db.ExecContext(ctx, updateCommentText, text, id, postID, authorID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

const deleteComment = `DELETE FROM comments WHERE id = ? AND post_id = ? AND author_id = ?`

func (q *Queries) DeleteComment(ctx context.Context, id, postID, authorID int64) error {
	res, err := q.db.ExecContext(ctx, deleteComment, id, postID, authorID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

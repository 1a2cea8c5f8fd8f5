// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/blogicum/internal/blog"
	"github.com/olegiv/blogicum/internal/middleware"
	"github.com/olegiv/blogicum/internal/render"
	"github.com/olegiv/blogicum/internal/store"
)

// CommentPageData is passed to the comment form and delete templates.
// Comment is nil when a new comment is being written.
type CommentPageData struct {
	Post    store.PostDetail
	Comment *store.CommentWithAuthor
}

// AddComment handles POST /posts/{id}. Validation errors re-render the
// post detail page.
func (h *BlogHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	h.addComment(w, r, func(post store.PostDetail, form CommentForm, errs blog.FormErrors) {
		h.renderDetail(w, r, post, form, errs)
	})
}

// NewComment handles GET /posts/{id}/comment.
func (h *BlogHandler) NewComment(w http.ResponseWriter, r *http.Request) {
	post, ok := h.visiblePost(w, r)
	if !ok {
		return
	}
	h.renderCommentForm(w, r, CommentPageData{Post: post}, CommentForm{}, nil)
}

// AddCommentForm handles POST /posts/{id}/comment. Validation errors
// re-render the standalone comment form.
func (h *BlogHandler) AddCommentForm(w http.ResponseWriter, r *http.Request) {
	h.addComment(w, r, func(post store.PostDetail, form CommentForm, errs blog.FormErrors) {
		h.renderCommentForm(w, r, CommentPageData{Post: post}, form, errs)
	})
}

func (h *BlogHandler) addComment(w http.ResponseWriter, r *http.Request, onInvalid func(store.PostDetail, CommentForm, blog.FormErrors)) {
	post, ok := h.visiblePost(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		onInvalid(post, CommentForm{}, blog.FormErrors{formErrorKey: "Invalid form data"})
		return
	}

	form := CommentForm{Text: r.PostForm.Get("text")}
	text, errs := blog.ValidateComment(form.Text)
	if errs.Any() {
		onInvalid(post, form, errs)
		return
	}

	userID := middleware.GetUserID(r)
	id, err := h.queries.CreateComment(r.Context(), store.CreateCommentParams{
		Text:      text,
		CreatedAt: h.now(),
		PostID:    post.ID,
		AuthorID:  userID,
	})
	if err != nil {
		renderServerError(w, r, h.renderer, "failed to create comment", err)
		return
	}

	slog.InfoContext(r.Context(), "comment created", "comment_id", id, "post_id", post.ID)
	redirectToPost(w, r, post.ID)
}

// EditComment handles GET and POST /posts/{id}/comment/{cid}/edit. Only
// the comment's author may edit it; anyone else is sent back to the post.
func (h *BlogHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	data, ok := h.ownedComment(w, r)
	if !ok {
		return
	}

	if r.Method != http.MethodPost {
		h.renderCommentForm(w, r, data, CommentForm{Text: data.Comment.Text}, nil)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderCommentForm(w, r, data, CommentForm{Text: data.Comment.Text}, blog.FormErrors{formErrorKey: "Invalid form data"})
		return
	}

	form := CommentForm{Text: r.PostForm.Get("text")}
	text, errs := blog.ValidateComment(form.Text)
	if errs.Any() {
		h.renderCommentForm(w, r, data, form, errs)
		return
	}

	err := h.queries.UpdateCommentText(r.Context(), data.Comment.ID, data.Post.ID, middleware.GetUserID(r), text)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		renderServerError(w, r, h.renderer, "failed to update comment", err)
		return
	}

	slog.InfoContext(r.Context(), "comment updated", "comment_id", data.Comment.ID, "post_id", data.Post.ID)
	redirectToPost(w, r, data.Post.ID)
}

// DeleteComment handles GET and POST /posts/{id}/comment/{cid}/delete.
// GET asks for confirmation.
func (h *BlogHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	data, ok := h.ownedComment(w, r)
	if !ok {
		return
	}

	if r.Method != http.MethodPost {
		renderPage(w, r, h.renderer, tmplCommentDelete, render.TemplateData{
			Title: "Delete comment",
			Data:  data,
		})
		return
	}

	err := h.queries.DeleteComment(r.Context(), data.Comment.ID, data.Post.ID, middleware.GetUserID(r))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		renderServerError(w, r, h.renderer, "failed to delete comment", err)
		return
	}

	slog.InfoContext(r.Context(), "comment deleted", "comment_id", data.Comment.ID, "post_id", data.Post.ID)
	redirectToPost(w, r, data.Post.ID)
}

// ownedComment loads the {cid} comment of post {id}. A viewer who did not
// write it is redirected to the post and false is returned.
func (h *BlogHandler) ownedComment(w http.ResponseWriter, r *http.Request) (CommentPageData, bool) {
	postID, ok := idParam(w, r, h.renderer, "id")
	if !ok {
		return CommentPageData{}, false
	}
	commentID, ok := idParam(w, r, h.renderer, "cid")
	if !ok {
		return CommentPageData{}, false
	}

	comment, ok := requireEntity(w, r, h.renderer, "comment", commentID, func(id int64) (store.CommentWithAuthor, error) {
		return h.queries.GetCommentForPost(r.Context(), id, postID)
	})
	if !ok {
		return CommentPageData{}, false
	}

	if !blog.IsOwner(comment.AuthorID, middleware.GetUserID(r)) {
		redirectToPost(w, r, postID)
		return CommentPageData{}, false
	}

	post, ok := requireEntity(w, r, h.renderer, "post", postID, func(id int64) (store.PostDetail, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return CommentPageData{}, false
	}

	return CommentPageData{Post: post, Comment: &comment}, true
}

func (h *BlogHandler) renderCommentForm(w http.ResponseWriter, r *http.Request, data CommentPageData, form CommentForm, errs blog.FormErrors) {
	title := "Add comment"
	if data.Comment != nil {
		title = "Edit comment"
	}
	renderPage(w, r, h.renderer, tmplComment, render.TemplateData{
		Title:  title,
		Data:   data,
		Form:   form,
		Errors: errs,
	})
}

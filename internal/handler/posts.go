// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/blogicum/internal/blog"
	"github.com/olegiv/blogicum/internal/middleware"
	"github.com/olegiv/blogicum/internal/render"
	"github.com/olegiv/blogicum/internal/store"
	"github.com/olegiv/blogicum/internal/util"
)

// CacheInvalidator drops cached data derived from posts.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// PostHandler handles creating, editing and deleting posts.
type PostHandler struct {
	db          *sql.DB
	queries     *store.Queries
	renderer    *render.Renderer
	invalidator CacheInvalidator
	loc         *time.Location
	now         func() time.Time
}

// NewPostHandler creates a new PostHandler. pub_date is entered and shown
// in loc. invalidator may be nil.
func NewPostHandler(db *sql.DB, renderer *render.Renderer, invalidator CacheInvalidator, loc *time.Location) *PostHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PostHandler{
		db:          db,
		queries:     store.New(db),
		renderer:    renderer,
		invalidator: invalidator,
		loc:         loc,
		now:         time.Now,
	}
}

// PostFormData is passed to the post form template. Post is nil when a new
// post is being written.
type PostFormData struct {
	Categories []store.Category
	Locations  []store.Location
	Post       *store.PostDetail
}

// NewPost handles GET /posts/create.
func (h *PostHandler) NewPost(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, nil, blog.PostForm{
		PubDate:     blog.FormatPubDate(h.now(), h.loc),
		IsPublished: true,
	}, nil)
}

// CreatePost handles POST /posts/create.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	form, input, errs, err := h.parseForm(r)
	if err != nil {
		renderServerError(w, r, h.renderer, "failed to validate post", err)
		return
	}
	if errs.Any() {
		h.renderForm(w, r, nil, form, errs)
		return
	}

	id, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		Title:       input.Title,
		Text:        input.Text,
		PubDate:     input.PubDate,
		Image:       util.NullStringFromValue(input.Image),
		IsPublished: input.IsPublished,
		CreatedAt:   h.now(),
		AuthorID:    user.ID,
		LocationID:  util.NullInt64FromID(input.LocationID),
		CategoryID:  util.NullInt64FromID(input.CategoryID),
	})
	if err != nil {
		renderServerError(w, r, h.renderer, "failed to create post", err)
		return
	}

	slog.InfoContext(r.Context(), "post created", "post_id", id)
	h.invalidate(r)
	http.Redirect(w, r, profileURL(user.Username), http.StatusSeeOther)
}

// EditPost handles GET /posts/{id}/edit.
func (h *PostHandler) EditPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownedPost(w, r)
	if !ok {
		return
	}

	h.renderForm(w, r, &post, blog.PostForm{
		Title:       post.Title,
		Text:        post.Text,
		PubDate:     blog.FormatPubDate(post.PubDate, h.loc),
		CategoryID:  post.CategoryID.Int64,
		LocationID:  post.LocationID.Int64,
		Image:       post.Image.String,
		IsPublished: post.IsPublished,
	}, nil)
}

// UpdatePost handles POST /posts/{id}/edit.
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownedPost(w, r)
	if !ok {
		return
	}

	form, input, errs, err := h.parseForm(r)
	if err != nil {
		renderServerError(w, r, h.renderer, "failed to validate post", err)
		return
	}
	if errs.Any() {
		h.renderForm(w, r, &post, form, errs)
		return
	}

	err = h.queries.UpdatePost(r.Context(), store.UpdatePostParams{
		ID:          post.ID,
		AuthorID:    middleware.GetUserID(r),
		Title:       input.Title,
		Text:        input.Text,
		PubDate:     input.PubDate,
		Image:       util.NullStringFromValue(input.Image),
		IsPublished: input.IsPublished,
		LocationID:  util.NullInt64FromID(input.LocationID),
		CategoryID:  util.NullInt64FromID(input.CategoryID),
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		renderServerError(w, r, h.renderer, "failed to update post", err)
		return
	}

	slog.InfoContext(r.Context(), "post updated", "post_id", post.ID)
	h.invalidate(r)
	redirectToPost(w, r, post.ID)
}

// DeletePost handles GET and POST /posts/{id}/delete. GET asks for
// confirmation; POST removes the post together with its comments.
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownedPost(w, r)
	if !ok {
		return
	}

	if r.Method != http.MethodPost {
		renderPage(w, r, h.renderer, tmplPostDelete, render.TemplateData{
			Title: "Delete post",
			Data:  post,
		})
		return
	}

	err := store.DeletePostWithComments(r.Context(), h.db, post.ID, middleware.GetUserID(r))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		renderServerError(w, r, h.renderer, "failed to delete post", err)
		return
	}

	slog.InfoContext(r.Context(), "post deleted", "post_id", post.ID)
	h.invalidate(r)
	flashAndRedirect(w, r, h.renderer, RouteRoot, fmt.Sprintf("Post %q deleted.", post.Title))
}

// ownedPost loads the {id} post. A viewer who is not its author is
// redirected to the post and false is returned.
func (h *PostHandler) ownedPost(w http.ResponseWriter, r *http.Request) (store.PostDetail, bool) {
	id, ok := idParam(w, r, h.renderer, "id")
	if !ok {
		return store.PostDetail{}, false
	}

	post, ok := requireEntity(w, r, h.renderer, "post", id, func(id int64) (store.PostDetail, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return store.PostDetail{}, false
	}

	if !blog.IsOwner(post.AuthorID, middleware.GetUserID(r)) {
		redirectToPost(w, r, post.ID)
		return store.PostDetail{}, false
	}
	return post, true
}

// parseForm reads and validates the submitted post. err is set only for
// failures unrelated to the input.
func (h *PostHandler) parseForm(r *http.Request) (blog.PostForm, blog.PostInput, blog.FormErrors, error) {
	if err := r.ParseForm(); err != nil {
		return blog.PostForm{}, blog.PostInput{}, blog.FormErrors{formErrorKey: "Invalid form data"}, nil
	}

	form := blog.PostForm{
		Title:       r.PostForm.Get("title"),
		Text:        r.PostForm.Get("text"),
		PubDate:     r.PostForm.Get("pub_date"),
		CategoryID:  util.ParseID(r.PostForm.Get("category")),
		LocationID:  util.ParseID(r.PostForm.Get("location")),
		Image:       r.PostForm.Get("image"),
		IsPublished: r.PostForm.Get("is_published") != "",
	}

	refs := &storeRefs{ctx: r.Context(), queries: h.queries}
	input, errs := blog.ValidatePost(form, refs, h.loc, h.now())
	if refs.err != nil {
		return form, input, errs, refs.err
	}
	return form, input, errs, nil
}

func (h *PostHandler) renderForm(w http.ResponseWriter, r *http.Request, post *store.PostDetail, form blog.PostForm, errs blog.FormErrors) {
	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		renderServerError(w, r, h.renderer, "failed to list categories", err)
		return
	}
	locations, err := h.queries.ListLocations(r.Context())
	if err != nil {
		renderServerError(w, r, h.renderer, "failed to list locations", err)
		return
	}

	title := "New post"
	if post != nil {
		title = "Edit post"
	}
	renderPage(w, r, h.renderer, tmplPostForm, render.TemplateData{
		Title: title,
		Data: PostFormData{
			Categories: categories,
			Locations:  locations,
			Post:       post,
		},
		Form:   form,
		Errors: errs,
	})
}

func (h *PostHandler) invalidate(r *http.Request) {
	if h.invalidator != nil {
		h.invalidator.Invalidate(r.Context())
	}
}

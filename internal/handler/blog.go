// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides HTTP handlers for the application.
package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogicum/internal/blog"
	"github.com/olegiv/blogicum/internal/middleware"
	"github.com/olegiv/blogicum/internal/render"
	"github.com/olegiv/blogicum/internal/store"
	"github.com/olegiv/blogicum/internal/util"
)

// BlogHandler serves the public listings and the post detail page.
type BlogHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	perPage  int
	now      func() time.Time
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(db *sql.DB, renderer *render.Renderer, perPage int) *BlogHandler {
	if perPage <= 0 {
		perPage = blog.PostsPerPage
	}
	return &BlogHandler{
		queries:  store.New(db),
		renderer: renderer,
		perPage:  perPage,
		now:      time.Now,
	}
}

// DetailData is passed to the post detail template.
type DetailData struct {
	Post     store.PostDetail
	Comments []store.CommentWithAuthor
	IsAuthor bool
}

// CommentForm holds a submitted comment.
type CommentForm struct {
	Text string
}

// Index handles GET / - every post visible to the public, newest first.
func (h *BlogHandler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now()

	posts, page, err := CountAndList(requestedPage(r), h.perPage,
		func() (int64, error) { return h.queries.CountVisiblePosts(ctx, now) },
		func(limit, offset int) ([]store.PostDetail, error) {
			return h.queries.ListVisiblePosts(ctx, now, limit, offset)
		},
	)
	if err != nil {
		renderServerError(w, r, h.renderer, "failed to list posts", err)
		return
	}

	renderPage(w, r, h.renderer, tmplIndex, render.TemplateData{
		Title: "Latest posts",
		Data: ListingData{
			Posts:   posts,
			Page:    page,
			BaseURL: RouteRoot,
		},
	})
}

// Category handles GET /category/{slug}. Unknown and unpublished
// categories are 404.
func (h *BlogHandler) Category(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		renderNotFound(w, r, h.renderer)
		return
	}

	category, err := h.queries.GetCategoryBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			renderNotFound(w, r, h.renderer)
			return
		}
		renderServerError(w, r, h.renderer, "failed to get category", err)
		return
	}
	if !category.IsPublished {
		renderNotFound(w, r, h.renderer)
		return
	}

	now := h.now()
	posts, page, err := CountAndList(requestedPage(r), h.perPage,
		func() (int64, error) { return h.queries.CountVisiblePostsByCategory(ctx, category.ID, now) },
		func(limit, offset int) ([]store.PostDetail, error) {
			return h.queries.ListVisiblePostsByCategory(ctx, category.ID, now, limit, offset)
		},
	)
	if err != nil {
		renderServerError(w, r, h.renderer, "failed to list category posts", err)
		return
	}

	renderPage(w, r, h.renderer, tmplCategory, render.TemplateData{
		Title: category.Title,
		Data: ListingData{
			Posts:    posts,
			Page:     page,
			BaseURL:  "/category/" + category.Slug,
			Category: &category,
		},
	})
}

// Profile handles GET /profile/{username}. The owner sees every one of
// their posts; everyone else sees only the visible ones.
func (h *BlogHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "username")

	profile, err := h.queries.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			renderNotFound(w, r, h.renderer)
			return
		}
		renderServerError(w, r, h.renderer, "failed to get profile", err)
		return
	}

	isOwner := blog.IsOwner(profile.ID, middleware.GetUserID(r))
	now := h.now()
	posts, page, err := CountAndList(requestedPage(r), h.perPage,
		func() (int64, error) { return h.queries.CountPostsByAuthor(ctx, profile.ID, isOwner, now) },
		func(limit, offset int) ([]store.PostDetail, error) {
			return h.queries.ListPostsByAuthor(ctx, profile.ID, isOwner, now, limit, offset)
		},
	)
	if err != nil {
		renderServerError(w, r, h.renderer, "failed to list profile posts", err)
		return
	}

	renderPage(w, r, h.renderer, tmplProfile, render.TemplateData{
		Title: profile.FullName(),
		Data: ListingData{
			Posts:   posts,
			Page:    page,
			BaseURL: profileURL(profile.Username),
			Profile: &profile,
			IsOwner: isOwner,
		},
	})
}

// PostDetail handles GET /posts/{id}. A post the viewer may not see is 404.
func (h *BlogHandler) PostDetail(w http.ResponseWriter, r *http.Request) {
	post, ok := h.visiblePost(w, r)
	if !ok {
		return
	}
	h.renderDetail(w, r, post, CommentForm{}, nil)
}

// visiblePost loads the {id} post and checks the viewer may see it.
func (h *BlogHandler) visiblePost(w http.ResponseWriter, r *http.Request) (store.PostDetail, bool) {
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

	if !blog.IsVisible(post.Candidate(), middleware.GetUserID(r), h.now()) {
		renderNotFound(w, r, h.renderer)
		return store.PostDetail{}, false
	}
	return post, true
}

func (h *BlogHandler) renderDetail(w http.ResponseWriter, r *http.Request, post store.PostDetail, form CommentForm, errs blog.FormErrors) {
	comments, err := h.queries.ListCommentsForPost(r.Context(), post.ID)
	if err != nil {
		renderServerError(w, r, h.renderer, "failed to list comments", err)
		return
	}

	renderPage(w, r, h.renderer, tmplDetail, render.TemplateData{
		Title: post.Title,
		Data: DetailData{
			Post:     post,
			Comments: comments,
			IsAuthor: blog.IsOwner(post.AuthorID, middleware.GetUserID(r)),
		},
		Form:   form,
		Errors: errs,
	})
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/olegiv/blogicum/internal/render"
	"github.com/olegiv/blogicum/internal/store"
	"github.com/olegiv/blogicum/internal/util"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) for POST redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	renderer.SetFlash(r, message)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// redirectToPost sends the viewer back to the post detail page.
func redirectToPost(w http.ResponseWriter, r *http.Request, postID int64) {
	http.Redirect(w, r, postURL(postID), http.StatusSeeOther)
}

func postURL(postID int64) string {
	return fmt.Sprintf(redirectPost, postID)
}

func profileURL(username string) string {
	return redirectProfile + username
}

// renderPage renders a template with status 200, falling back to the 500
// page when the template fails.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, name string, data render.TemplateData) {
	renderPageStatus(w, r, renderer, http.StatusOK, name, data)
}

func renderPageStatus(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int, name string, data render.TemplateData) {
	if err := renderer.RenderStatus(w, r, status, name, data); err != nil {
		renderServerError(w, r, renderer, "template render failed", err)
	}
}

// renderNotFound renders the 404 page.
func renderNotFound(w http.ResponseWriter, r *http.Request, renderer *render.Renderer) {
	if err := renderer.RenderStatus(w, r, http.StatusNotFound, tmplNotFound, render.TemplateData{
		Title: "Page not found",
	}); err != nil {
		slog.ErrorContext(r.Context(), "failed to render 404 page", "error", err)
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	}
}

// renderServerError logs err under a fresh incident id and renders the 500
// page showing that id.
func renderServerError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, logMsg string, err error) {
	incident := uuid.NewString()
	slog.ErrorContext(r.Context(), logMsg, "error", err, "incident", incident)
	renderIncident(w, r, renderer, incident)
}

func renderIncident(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, incident string) {
	if err := renderer.RenderStatus(w, r, http.StatusInternalServerError, tmplServerError, render.TemplateData{
		Title: "Server error",
		Data:  map[string]string{"Incident": incident},
	}); err != nil {
		slog.ErrorContext(r.Context(), "failed to render 500 page", "error", err, "incident", incident)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// requireEntity fetches an entity with queryFn. A missing row renders the
// 404 page, any other error the 500 page. Returns false when a response has
// already been written.
//
// Example usage:
//
//	post, ok := requireEntity(w, r, h.renderer, "post", id,
//	    func(id int64) (store.PostDetail, error) { return h.queries.GetPostByID(r.Context(), id) })
func requireEntity[T any](
	w http.ResponseWriter,
	r *http.Request,
	renderer *render.Renderer,
	entityName string,
	id int64,
	queryFn func(id int64) (T, error),
) (T, bool) {
	var zero T
	entity, err := queryFn(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			renderNotFound(w, r, renderer)
		} else {
			renderServerError(w, r, renderer, "failed to get "+entityName, fmt.Errorf("%s %d: %w", entityName, id, err))
		}
		return zero, false
	}
	return entity, true
}

// idParam reads a positive integer URL parameter. A malformed id renders
// the 404 page and returns false.
func idParam(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, name string) (int64, bool) {
	id := util.ParseID(chi.URLParam(r, name))
	if id == 0 {
		renderNotFound(w, r, renderer)
		return 0, false
	}
	return id, true
}

// safeNext returns next when it is a path on this site, otherwise fallback.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	if strings.ContainsAny(next, "\r\n") {
		return fallback
	}
	return next
}

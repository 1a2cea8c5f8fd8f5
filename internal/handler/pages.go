// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/blogicum/internal/middleware"
	"github.com/olegiv/blogicum/internal/render"
)

// PagesHandler serves the static pages and the error pages.
type PagesHandler struct {
	renderer *render.Renderer
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(renderer *render.Renderer) *PagesHandler {
	return &PagesHandler{renderer: renderer}
}

// About handles GET /pages/about.
func (h *PagesHandler) About(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, tmplAbout, render.TemplateData{Title: "About"})
}

// Rules handles GET /pages/rules.
func (h *PagesHandler) Rules(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, tmplRules, render.TemplateData{Title: "Rules"})
}

// NotFound renders the 404 page. Used as the router's NotFound handler.
func (h *PagesHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderNotFound(w, r, h.renderer)
}

// CSRFFailure renders the 403 page for requests rejected by the CSRF
// middleware.
func (h *PagesHandler) CSRFFailure(w http.ResponseWriter, r *http.Request) {
	middleware.LogCSRFFailure(r)
	renderPageStatus(w, r, h.renderer, http.StatusForbidden, tmplCSRFFailure, render.TemplateData{
		Title: "Forbidden",
	})
}

// Panic renders the 500 page for a recovered panic. It matches
// middleware.PanicHandler.
func (h *PagesHandler) Panic(w http.ResponseWriter, r *http.Request, incident string) {
	renderIncident(w, r, h.renderer, incident)
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/olegiv/blogicum/internal/auth"
	"github.com/olegiv/blogicum/internal/blog"
	"github.com/olegiv/blogicum/internal/middleware"
	"github.com/olegiv/blogicum/internal/render"
	"github.com/olegiv/blogicum/internal/store"
)

const maxEmailLength = 254

// ProfileHandler lets a signed-in user edit their own account details.
type ProfileHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(db *sql.DB, renderer *render.Renderer) *ProfileHandler {
	return &ProfileHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// ProfileForm holds the editable account fields.
type ProfileForm struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// EditForm handles GET /profile/edit.
func (h *ProfileHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	h.render(w, r, ProfileForm{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil)
}

// Update handles POST /profile/edit and redirects to the (possibly renamed)
// profile page.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	if err := r.ParseForm(); err != nil {
		h.render(w, r, ProfileForm{Username: user.Username}, blog.FormErrors{formErrorKey: "Invalid form data"})
		return
	}

	form := ProfileForm{
		Username:  strings.TrimSpace(r.PostForm.Get("username")),
		Email:     strings.TrimSpace(r.PostForm.Get("email")),
		FirstName: strings.TrimSpace(r.PostForm.Get("first_name")),
		LastName:  strings.TrimSpace(r.PostForm.Get("last_name")),
	}

	errs := blog.FormErrors{}
	if msg := auth.ValidateUsername(form.Username); msg != "" {
		errs.Add("username", msg)
	}
	if msg := validateEmail(form.Email); msg != "" {
		errs.Add("email", msg)
	}
	if len([]rune(form.FirstName)) > auth.MaxUsernameLength {
		errs.Add("first_name", "First name must be at most 150 characters")
	}
	if len([]rune(form.LastName)) > auth.MaxUsernameLength {
		errs.Add("last_name", "Last name must be at most 150 characters")
	}

	if !errs.Has("username") {
		taken, err := h.queries.UsernameTaken(r.Context(), form.Username, user.ID)
		if err != nil {
			renderServerError(w, r, h.renderer, "failed to check username", err)
			return
		}
		if taken {
			errs.Add("username", "A user with that username already exists")
		}
	}

	if errs.Any() {
		h.render(w, r, form, errs)
		return
	}

	err := h.queries.UpdateUserProfile(r.Context(), store.UpdateUserProfileParams{
		ID:        user.ID,
		Username:  form.Username,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			errs.Add("username", "A user with that username already exists")
			h.render(w, r, form, errs)
			return
		}
		renderServerError(w, r, h.renderer, "failed to update profile", err)
		return
	}

	slog.InfoContext(r.Context(), "profile updated", "user_id", user.ID)
	flashAndRedirect(w, r, h.renderer, profileURL(form.Username), "Profile saved.")
}

func (h *ProfileHandler) render(w http.ResponseWriter, r *http.Request, form ProfileForm, errs blog.FormErrors) {
	renderPage(w, r, h.renderer, tmplProfileEdit, render.TemplateData{
		Title:  "Edit profile",
		Form:   form,
		Errors: errs,
	})
}

// validateEmail accepts an empty value or a bare address.
func validateEmail(email string) string {
	if email == "" {
		return ""
	}
	if len(email) > maxEmailLength {
		return "Enter a valid email address"
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "Enter a valid email address"
	}
	return ""
}

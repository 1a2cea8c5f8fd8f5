// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/blogicum/internal/auth"
	"github.com/olegiv/blogicum/internal/blog"
	"github.com/olegiv/blogicum/internal/middleware"
	"github.com/olegiv/blogicum/internal/render"
	"github.com/olegiv/blogicum/internal/session"
	"github.com/olegiv/blogicum/internal/store"
)

// AuthHandler handles registration, login and password routes.
type AuthHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler. lp may be nil.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
	}
}

// LoginForm holds the submitted login fields echoed back on failure.
type LoginForm struct {
	Username string
	Next     string
}

// RegistrationForm holds the submitted sign-up fields echoed back on failure.
type RegistrationForm struct {
	Username string
	Email    string
}

// Registration handles GET /auth/registration.
func (h *AuthHandler) Registration(w http.ResponseWriter, r *http.Request) {
	h.renderRegistration(w, r, RegistrationForm{}, nil)
}

// Register handles POST /auth/registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderRegistration(w, r, RegistrationForm{}, blog.FormErrors{formErrorKey: "Invalid form data"})
		return
	}

	form := RegistrationForm{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
	}
	password := r.PostForm.Get("password1")

	errs := blog.FormErrors{}
	if msg := auth.ValidateUsername(form.Username); msg != "" {
		errs.Add("username", msg)
	}
	if msg := validateEmail(form.Email); msg != "" {
		errs.Add("email", msg)
	}
	if problems := auth.ValidateNewPassword(password, r.PostForm.Get("password2"), form.Username); len(problems) > 0 {
		errs.Add("password", strings.Join(problems, ". ")+".")
	}

	if !errs.Has("username") {
		taken, err := h.queries.UsernameTaken(r.Context(), form.Username, 0)
		if err != nil {
			renderServerError(w, r, h.renderer, "failed to check username", err)
			return
		}
		if taken {
			errs.Add("username", "A user with that username already exists")
		}
	}

	if errs.Any() {
		h.renderRegistration(w, r, form, errs)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		renderServerError(w, r, h.renderer, "failed to hash password", err)
		return
	}

	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			errs.Add("username", "A user with that username already exists")
			h.renderRegistration(w, r, form, errs)
			return
		}
		renderServerError(w, r, h.renderer, "failed to create user", err)
		return
	}

	slog.InfoContext(r.Context(), "user registered", "user_id", user.ID, "username", user.Username)
	flashAndRedirect(w, r, h.renderer, redirectLogin, "Your account has been created. You can sign in now.")
}

// LoginForm handles GET /auth/login. Signed-in users are sent home.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r) != nil {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, LoginForm{Next: r.URL.Query().Get("next")}, nil)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, LoginForm{}, blog.FormErrors{formErrorKey: "Invalid form data"})
		return
	}

	form := LoginForm{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Next:     r.PostForm.Get("next"),
	}
	password := r.PostForm.Get("password")

	if form.Username == "" || password == "" {
		h.renderLogin(w, r, form, blog.FormErrors{formErrorKey: "Username and password are required"})
		return
	}

	// Check if account is locked
	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(form.Username); locked {
			slog.WarnContext(r.Context(), "login attempt on locked account", "username", form.Username)
			h.renderLogin(w, r, form, blog.FormErrors{
				formErrorKey: fmt.Sprintf("Too many failed attempts. Try again in %s.", formatDuration(remaining)),
			})
			return
		}
	}

	user, err := h.queries.GetUserByUsername(r.Context(), form.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			renderServerError(w, r, h.renderer, "database error during login", err)
			return
		}
		slog.DebugContext(r.Context(), "login attempt for non-existent user", "username", form.Username)
		// Same work as a real check so timing does not reveal the user exists
		auth.CheckDummy(password)
		h.loginFailed(w, r, form)
		return
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.ErrorContext(r.Context(), "password check error", "error", err, "user_id", user.ID)
	}
	if !valid {
		slog.DebugContext(r.Context(), "invalid password attempt", "user_id", user.ID)
		h.loginFailed(w, r, form)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(form.Username)
	}

	now := time.Now()
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), user.ID, newHash, now); err != nil {
				slog.ErrorContext(r.Context(), "failed to re-hash password", "error", err, "user_id", user.ID)
			} else {
				slog.InfoContext(r.Context(), "password re-hashed with updated parameters", "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, now); err != nil {
		// Don't block login on this error
		slog.ErrorContext(r.Context(), "failed to update last login time", "error", err, "user_id", user.ID)
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		renderServerError(w, r, h.renderer, "session renewal error", err)
		return
	}
	h.sessionManager.Put(r.Context(), session.KeyUserID, user.ID)

	slog.InfoContext(r.Context(), "user logged in", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, safeNext(form.Next, RouteRoot), http.StatusSeeOther)
}

// loginFailed records the failed attempt and re-renders the form.
func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, form LoginForm) {
	msg := "Please enter a correct username and password. Note that both fields may be case-sensitive."
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(form.Username); locked {
			slog.WarnContext(r.Context(), "account locked due to failed attempts", "username", form.Username, "duration", lockDuration.String())
			msg = fmt.Sprintf("Too many failed attempts. Try again in %s.", formatDuration(lockDuration))
		} else if remaining := h.loginProtection.GetRemainingAttempts(form.Username); remaining > 0 && remaining <= 3 {
			msg = fmt.Sprintf("%s %d attempts remaining.", msg, remaining)
		}
	}
	h.renderLogin(w, r, form, blog.FormErrors{formErrorKey: msg})
}

// Logout handles GET and POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "session destroy error", "error", err)
	}

	if userID > 0 {
		slog.InfoContext(r.Context(), "user logged out", "user_id", userID)
	}
	flashAndRedirect(w, r, h.renderer, RouteRoot, "You have been signed out.")
}

// PasswordChangeForm handles GET /auth/password_change.
func (h *AuthHandler) PasswordChangeForm(w http.ResponseWriter, r *http.Request) {
	h.renderPasswordChange(w, r, nil)
}

// PasswordChange handles POST /auth/password_change.
func (h *AuthHandler) PasswordChange(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	if err := r.ParseForm(); err != nil {
		h.renderPasswordChange(w, r, blog.FormErrors{formErrorKey: "Invalid form data"})
		return
	}

	errs := blog.FormErrors{}
	valid, err := auth.CheckPassword(r.PostForm.Get("old_password"), user.PasswordHash)
	if err != nil {
		slog.ErrorContext(r.Context(), "password check error", "error", err, "user_id", user.ID)
	}
	if !valid {
		errs.Add("old_password", "Your old password was entered incorrectly")
	}

	newPassword := r.PostForm.Get("new_password1")
	if problems := auth.ValidateNewPassword(newPassword, r.PostForm.Get("new_password2"), user.Username); len(problems) > 0 {
		errs.Add("new_password", strings.Join(problems, ". ")+".")
	}

	if errs.Any() {
		h.renderPasswordChange(w, r, errs)
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		renderServerError(w, r, h.renderer, "failed to hash password", err)
		return
	}
	if err := h.queries.UpdateUserPassword(r.Context(), user.ID, hash, time.Now()); err != nil {
		renderServerError(w, r, h.renderer, "failed to update password", err)
		return
	}

	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "session renewal error", "error", err)
	}

	slog.InfoContext(r.Context(), "password changed", "user_id", user.ID)
	http.Redirect(w, r, RoutePasswordChangeDone, http.StatusSeeOther)
}

// PasswordChangeDone handles GET /auth/password_change/done.
func (h *AuthHandler) PasswordChangeDone(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, tmplPasswordChangeOK, render.TemplateData{
		Title: "Password changed",
	})
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, form LoginForm, errs blog.FormErrors) {
	form.Next = safeNext(form.Next, "")
	renderPage(w, r, h.renderer, tmplLogin, render.TemplateData{
		Title:  "Sign in",
		Form:   form,
		Errors: errs,
	})
}

func (h *AuthHandler) renderRegistration(w http.ResponseWriter, r *http.Request, form RegistrationForm, errs blog.FormErrors) {
	renderPage(w, r, h.renderer, tmplRegistration, render.TemplateData{
		Title:  "Sign up",
		Form:   form,
		Errors: errs,
	})
}

func (h *AuthHandler) renderPasswordChange(w http.ResponseWriter, r *http.Request, errs blog.FormErrors) {
	renderPage(w, r, h.renderer, tmplPasswordChange, render.TemplateData{
		Title:  "Change password",
		Errors: errs,
	})
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

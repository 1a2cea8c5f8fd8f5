// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// request context handling and protection of the public site.
package middleware

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/blogicum/internal/logging"
	"github.com/olegiv/blogicum/internal/session"
	"github.com/olegiv/blogicum/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for user data.
const (
	ContextKeyUser ContextKey = "user"
)

// LoginPath is where RequireLogin sends anonymous visitors.
const LoginPath = "/auth/login"

// LoadUser loads the session's user into the request context. A session
// pointing at a missing user is destroyed and the request continues
// anonymously.
func LoadUser(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), session.KeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil {
				slog.WarnContext(r.Context(), "session user not loaded", "user_id", userID, "error", err)
				_ = sm.Destroy(r.Context())
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = logging.WithAttrs(ctx, slog.Int64("user_id", user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLogin redirects anonymous visitors to the login page, passing the
// requested path in ?next=.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r) == nil {
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginURL returns the login URL that returns to next after signing in.
func LoginURL(next string) string {
	if next == "" || next == "/" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *store.User {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or 0 if not found.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// WithUser returns a copy of r carrying user. Used by tests and by handlers
// that sign a user in mid-request.
func WithUser(r *http.Request, user store.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeyUser, user))
}

// RequestPath attaches the request path to every log record written with
// the request context.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithAttrs(r.Context(), slog.String("path", r.URL.Path))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

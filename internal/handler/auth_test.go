// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/blogicum/internal/auth"
	"github.com/olegiv/blogicum/internal/middleware"
	"github.com/olegiv/blogicum/internal/session"
	"github.com/olegiv/blogicum/internal/testutil"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	h := NewAuthHandler(env.db, env.renderer, env.sm, nil)
	env.fx.User("taken")

	form := func(username, p1, p2 string) url.Values {
		return url.Values{
			"username":  {username},
			"email":     {username + "@example.com"},
			"password1": {p1},
			"password2": {p2},
		}
	}

	t.Run("success", func(t *testing.T) {
		w := env.serve(h.Register, newFormRequest("/auth/registration", form("newbie", "river-stone-42", "river-stone-42")), nil, nil)
		assertRedirect(t, w, "/auth/login")

		user, err := env.queries.GetUserByUsername(context.Background(), "newbie")
		require.NoError(t, err)
		ok, err := auth.CheckPassword("river-stone-42", user.PasswordHash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	tests := []struct {
		name    string
		values  url.Values
		wantMsg string
	}{
		{"mismatched passwords", form("alice", "river-stone-42", "river-stone-43"), "password fields"},
		{"short password", form("bob", "short", "short"), "too short"},
		{"duplicate username", form("taken", "river-stone-42", "river-stone-42"), "already exists"},
		{"bad username", form("no spaces allowed", "river-stone-42", "river-stone-42"), "Username may contain only"},
		{"bad email", url.Values{
			"username":  {"carol"},
			"email":     {"not-an-email"},
			"password1": {"river-stone-42"},
			"password2": {"river-stone-42"},
		}, "Enter a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(h.Register, newFormRequest("/auth/registration", tt.values), nil, nil)
			assertStatus(t, w.Code, http.StatusOK)
			assert.Contains(t, body(t, w), tt.wantMsg)
		})
	}

	n, err := env.queries.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	h := NewAuthHandler(env.db, env.renderer, env.sm, nil)
	user := env.fx.User("author")

	// login runs Login and reports the user id left in the session.
	login := func(values url.Values) (*httptest.ResponseRecorder, int64) {
		var got int64
		wrapped := func(w http.ResponseWriter, r *http.Request) {
			h.Login(w, r)
			got = env.sm.GetInt64(r.Context(), session.KeyUserID)
		}
		return env.serve(wrapped, newFormRequest("/auth/login", values), nil, nil), got
	}

	tests := []struct {
		name     string
		next     string
		wantNext string
	}{
		{"no next", "", "/"},
		{"local next", "/posts/1", "/posts/1"},
		{"protocol-relative next", "//evil.com", "/"},
		{"absolute next", "https://evil.com/", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, userID := login(url.Values{
				"username": {"author"},
				"password": {testutil.Password},
				"next":     {tt.next},
			})
			assertRedirect(t, w, tt.wantNext)
			assert.Equal(t, user.ID, userID)
		})
	}

	t.Run("wrong password", func(t *testing.T) {
		w, userID := login(url.Values{"username": {"author"}, "password": {"nope-nope-nope"}})
		assertStatus(t, w.Code, http.StatusOK)
		assert.Contains(t, body(t, w), "Please enter a correct username")
		assert.Zero(t, userID)
	})

	t.Run("unknown user", func(t *testing.T) {
		w, userID := login(url.Values{"username": {"ghost"}, "password": {testutil.Password}})
		assertStatus(t, w.Code, http.StatusOK)
		assert.Contains(t, body(t, w), "Please enter a correct username")
		assert.Zero(t, userID)
	})

	t.Run("missing fields", func(t *testing.T) {
		w, _ := login(url.Values{"username": {"author"}})
		assertStatus(t, w.Code, http.StatusOK)
		assert.Contains(t, body(t, w), "Username and password are required")
	})

	t.Run("last login recorded", func(t *testing.T) {
		u, err := env.queries.GetUserByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.True(t, u.LastLoginAt.Valid)
	})
}

func TestLogin_Lockout(t *testing.T) {
	env := newTestEnv(t)
	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{MaxFailedAttempts: 2})
	defer lp.Close()
	h := NewAuthHandler(env.db, env.renderer, env.sm, lp)
	env.fx.User("author")

	bad := url.Values{"username": {"author"}, "password": {"wrong-password"}}

	w := env.serve(h.Login, newFormRequest("/auth/login", bad), nil, nil)
	assert.Contains(t, body(t, w), "1 attempts remaining")

	w = env.serve(h.Login, newFormRequest("/auth/login", bad), nil, nil)
	assert.Contains(t, body(t, w), "Too many failed attempts")

	// Even the right password is refused while locked.
	good := url.Values{"username": {"author"}, "password": {testutil.Password}}
	w = env.serve(h.Login, newFormRequest("/auth/login", good), nil, nil)
	assertStatus(t, w.Code, http.StatusOK)
	assert.Contains(t, body(t, w), "Too many failed attempts")
}

func TestLoginForm_SignedInRedirects(t *testing.T) {
	env := newTestEnv(t)
	h := NewAuthHandler(env.db, env.renderer, env.sm, nil)
	user := env.fx.User("author")

	w := env.serve(h.LoginForm, httptest.NewRequest(http.MethodGet, "/auth/login", nil), &user, nil)
	assertRedirect(t, w, "/")

	w = env.serve(h.LoginForm, httptest.NewRequest(http.MethodGet, "/auth/login?next=/posts/create", nil), nil, nil)
	assertStatus(t, w.Code, http.StatusOK)
	assert.Contains(t, body(t, w), `value="/posts/create"`)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	h := NewAuthHandler(env.db, env.renderer, env.sm, nil)
	user := env.fx.User("author")

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			w := env.serve(h.Logout, httptest.NewRequest(method, "/auth/logout", nil), &user, nil)
			assertRedirect(t, w, "/")
		})
	}
}

func TestPasswordChange(t *testing.T) {
	env := newTestEnv(t)
	h := NewAuthHandler(env.db, env.renderer, env.sm, nil)
	user := env.fx.User("author")

	t.Run("wrong old password", func(t *testing.T) {
		w := env.serve(h.PasswordChange, newFormRequest("/auth/password_change", url.Values{
			"old_password":  {"not-my-password"},
			"new_password1": {"fresh-meadow-77"},
			"new_password2": {"fresh-meadow-77"},
		}), &user, nil)
		assertStatus(t, w.Code, http.StatusOK)
		assert.Contains(t, body(t, w), "Your old password was entered incorrectly")
	})

	t.Run("mismatched new passwords", func(t *testing.T) {
		w := env.serve(h.PasswordChange, newFormRequest("/auth/password_change", url.Values{
			"old_password":  {testutil.Password},
			"new_password1": {"fresh-meadow-77"},
			"new_password2": {"fresh-meadow-78"},
		}), &user, nil)
		assertStatus(t, w.Code, http.StatusOK)
		assert.Contains(t, body(t, w), "password fields")
	})

	t.Run("success", func(t *testing.T) {
		w := env.serve(h.PasswordChange, newFormRequest("/auth/password_change", url.Values{
			"old_password":  {testutil.Password},
			"new_password1": {"fresh-meadow-77"},
			"new_password2": {"fresh-meadow-77"},
		}), &user, nil)
		assertRedirect(t, w, "/auth/password_change/done")

		u, err := env.queries.GetUserByID(context.Background(), user.ID)
		require.NoError(t, err)
		ok, err := auth.CheckPassword("fresh-meadow-77", u.PasswordHash)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now(), u.UpdatedAt, time.Minute)
	})

	t.Run("done page", func(t *testing.T) {
		w := env.serve(h.PasswordChangeDone, httptest.NewRequest(http.MethodGet, "/auth/password_change/done", nil), &user, nil)
		assertStatus(t, w.Code, http.StatusOK)
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30 seconds"},
		{time.Minute, "1 minute"},
		{15 * time.Minute, "15 minutes"},
		{time.Hour, "1 hour"},
		{3 * time.Hour, "3 hours"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q; want %q", tt.d, got, tt.want)
		}
	}
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogicum/internal/middleware"
	"github.com/olegiv/blogicum/internal/render"
	"github.com/olegiv/blogicum/internal/service"
	"github.com/olegiv/blogicum/internal/session"
	"github.com/olegiv/blogicum/internal/store"
	"github.com/olegiv/blogicum/internal/testutil"
	"github.com/olegiv/blogicum/web"
)

// testEnv bundles a migrated database, a memory session manager and a
// renderer over the real embedded templates.
type testEnv struct {
	db       *sql.DB
	queries  *store.Queries
	sm       *scs.SessionManager
	renderer *render.Renderer
	fx       *testutil.Fixtures
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	sm := session.New(db, session.Options{UseMemoryStore: true, IsDev: true})

	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templates,
		SessionManager: sm,
		Sidebar:        service.NewSidebarService(db, nil, 0, testutil.TestLogger()),
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	return &testEnv{
		db:       db,
		queries:  store.New(db),
		sm:       sm,
		renderer: renderer,
		fx:       testutil.NewFixtures(t, db),
	}
}

// serve runs h with session data loaded, user signed in (when non-nil) and
// the given chi URL params.
func (e *testEnv) serve(h http.HandlerFunc, r *http.Request, user *store.User, params map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r = requestWithURLParams(r, params)
	if user != nil {
		r = middleware.WithUser(r, *user)
	}
	e.sm.LoadAndSave(h).ServeHTTP(w, r)
	return w
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// newFormRequest builds a form-encoded POST request.
func newFormRequest(target string, values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

// assertRedirect checks for a 303 to location.
func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	assertStatus(t, w.Code, http.StatusSeeOther)
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Location = %q; want %q", got, location)
	}
}

func body(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	b, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(b)
}

// fakeInvalidator counts Invalidate calls.
type fakeInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeInvalidator) Invalidate(context.Context) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeInvalidator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the scs session manager used for login state
// and flash messages.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

// Session keys.
const (
	KeyUserID = "user_id"
	KeyFlash  = "flash"
)

// Options select the backing store and cookie policy.
type Options struct {
	// UseMySQL stores sessions through mysqlstore instead of sqlite3store.
	UseMySQL bool
	// UseMemoryStore keeps sessions in process memory and ignores db.
	UseMemoryStore bool
	IsDev          bool
}

// New creates a session manager. Sessions live in the database's
// "sessions" table unless opts.UseMemoryStore is set.
func New(db *sql.DB, opts Options) *scs.SessionManager {
	sm := scs.New()

	switch {
	case opts.UseMemoryStore:
		sm.Store = memstore.New()
	case opts.UseMySQL:
		sm.Store = mysqlstore.New(db)
	default:
		sm.Store = sqlite3store.New(db)
	}

	sm.Lifetime = 24 * time.Hour
	sm.IdleTimeout = 12 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !opts.IsDev
	if opts.IsDev {
		sm.Cookie.Name = "blogicum_session"
	} else {
		// __Host- requires Secure, Path=/ and no Domain.
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

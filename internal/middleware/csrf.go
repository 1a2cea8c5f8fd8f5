// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net"
	"net/http"

	csrf "filippo.io/csrf/gorilla"
)

// CSRFConfig holds configuration for CSRF protection.
// filippo.io/csrf/gorilla checks Fetch metadata and Origin headers instead
// of cookies, so forms need no hidden token.
type CSRFConfig struct {
	// AuthKey is a 32-byte key. The session secret is used.
	AuthKey []byte

	// ErrorHandler is called when CSRF validation fails.
	ErrorHandler http.Handler

	// TrustedOrigins are host:port values allowed to post cross-origin.
	TrustedOrigins []string
}

// DefaultCSRFConfig returns a CSRFConfig. In development the local server
// address is trusted under both loopback names.
func DefaultCSRFConfig(authKey []byte, isDev bool, addr string) CSRFConfig {
	cfg := CSRFConfig{
		AuthKey: authKey,
	}

	if isDev {
		port := "8000"
		if _, p, err := net.SplitHostPort(addr); err == nil && p != "" {
			port = p
		}
		// The csrf library expects host-only values, not full URLs.
		cfg.TrustedOrigins = []string{
			"localhost:" + port,
			"127.0.0.1:" + port,
		}
	}

	return cfg
}

// CSRF returns a middleware that provides CSRF protection.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	var opts []csrf.Option

	if cfg.ErrorHandler != nil {
		opts = append(opts, csrf.ErrorHandler(cfg.ErrorHandler))
	} else {
		opts = append(opts, csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)))
	}

	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}

	return csrf.Protect(cfg.AuthKey, opts...)
}

// CSRFFailureReason returns why the csrf middleware rejected r, or
// "unknown".
func CSRFFailureReason(r *http.Request) string {
	if reason := csrf.FailureReason(r); reason != nil {
		return reason.Error()
	}
	return "unknown"
}

// LogCSRFFailure records a rejected request.
func LogCSRFFailure(r *http.Request) {
	slog.WarnContext(r.Context(), "CSRF validation failed",
		"reason", CSRFFailureReason(r),
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	LogCSRFFailure(r)
	http.Error(w, "Forbidden - CSRF validation failed", http.StatusForbidden)
}

// SkipCSRF returns a middleware that skips CSRF protection for specific paths.
func SkipCSRF(paths ...string) func(http.Handler) http.Handler {
	skipPaths := make(map[string]bool)
	for _, p := range paths {
		skipPaths[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				r = csrf.UnsafeSkipCheck(r)
			}
			next.ServeHTTP(w, r)
		})
	}
}

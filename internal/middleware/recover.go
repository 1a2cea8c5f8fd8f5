// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
)

// PanicHandler renders the response for a recovered panic. incident is the
// id logged with the stack trace.
type PanicHandler func(w http.ResponseWriter, r *http.Request, incident string)

// Recover recovers panics, logs them with an incident id and delegates the
// response to onPanic. http.ErrAbortHandler is re-panicked so the server
// aborts the connection as usual.
func Recover(onPanic PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				incident := uuid.NewString()
				slog.ErrorContext(r.Context(), "panic recovered",
					"incident", incident,
					"panic", fmt.Sprint(rec),
					"method", r.Method,
					"stack", string(debug.Stack()),
				)
				onPanic(w, r, incident)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

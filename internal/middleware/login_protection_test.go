// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testLoginProtectionConfig returns a config suitable for fast testing.
func testLoginProtectionConfig(maxAttempts int, lockoutDuration, attemptWindow time.Duration) LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       10,  // High rate for testing
		IPBurst:           100, // High burst for testing
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockoutDuration,
		AttemptWindow:     attemptWindow,
	}
}

func TestDefaultLoginProtectionConfig(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()

	if cfg.IPRateLimit != 0.5 {
		t.Errorf("IPRateLimit = %v, want 0.5", cfg.IPRateLimit)
	}
	if cfg.IPBurst != 5 {
		t.Errorf("IPBurst = %d, want 5", cfg.IPBurst)
	}
	if cfg.MaxFailedAttempts != 5 {
		t.Errorf("MaxFailedAttempts = %d, want 5", cfg.MaxFailedAttempts)
	}
	if cfg.LockoutDuration != 15*time.Minute {
		t.Errorf("LockoutDuration = %v, want 15m", cfg.LockoutDuration)
	}
	if cfg.AttemptWindow != 15*time.Minute {
		t.Errorf("AttemptWindow = %v, want 15m", cfg.AttemptWindow)
	}
}

func TestNewLoginProtection(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()
	lp := NewLoginProtection(cfg)
	defer lp.Close()

	if lp == nil {
		t.Fatal("NewLoginProtection() returned nil")
	}
	if lp.maxFailedAttempts != cfg.MaxFailedAttempts {
		t.Errorf("maxFailedAttempts = %d, want %d", lp.maxFailedAttempts, cfg.MaxFailedAttempts)
	}
}

func TestNewLoginProtectionDefaultValues(t *testing.T) {
	// Test with zero config values - should use defaults
	cfg := LoginProtectionConfig{}
	lp := NewLoginProtection(cfg)
	defer lp.Close()

	if lp.maxFailedAttempts != 5 {
		t.Errorf("maxFailedAttempts = %d, want 5 (default)", lp.maxFailedAttempts)
	}
	if lp.lockoutDuration != 15*time.Minute {
		t.Errorf("lockoutDuration = %v, want 15m (default)", lp.lockoutDuration)
	}
}

func TestLoginProtectionIsAccountLocked(t *testing.T) {
	cfg := testLoginProtectionConfig(3, 1*time.Second, 1*time.Minute)
	lp := NewLoginProtection(cfg)
	defer lp.Close()
	username := "alice"

	// Initially not locked
	locked, _ := lp.IsAccountLocked(username)
	if locked {
		t.Error("Account should not be locked initially")
	}

	// Record failed attempts until locked
	for i := 0; i < cfg.MaxFailedAttempts; i++ {
		lp.RecordFailedAttempt(username)
	}

	// Now should be locked
	locked, remaining := lp.IsAccountLocked(username)
	if !locked {
		t.Error("Account should be locked after max failed attempts")
	}
	if remaining <= 0 {
		t.Error("Remaining lockout time should be positive")
	}

	// Wait for lockout to expire
	time.Sleep(cfg.LockoutDuration + 100*time.Millisecond)

	// Should be unlocked now
	locked, _ = lp.IsAccountLocked(username)
	if locked {
		t.Error("Account should be unlocked after lockout expires")
	}
}

func TestLoginProtectionRecordFailedAttempt(t *testing.T) {
	cfg := testLoginProtectionConfig(3, 1*time.Second, 1*time.Minute)
	lp := NewLoginProtection(cfg)
	defer lp.Close()
	username := "alice"

	// First attempt should not lock
	locked, _ := lp.RecordFailedAttempt(username)
	if locked {
		t.Error("First attempt should not lock account")
	}

	// Second attempt should not lock
	locked, _ = lp.RecordFailedAttempt(username)
	if locked {
		t.Error("Second attempt should not lock account")
	}

	// Third attempt should lock
	locked, duration := lp.RecordFailedAttempt(username)
	if !locked {
		t.Error("Third attempt should lock account")
	}
	if duration <= 0 {
		t.Error("Lock duration should be positive")
	}
}

func TestLoginProtectionRecordSuccessfulLogin(t *testing.T) {
	cfg := testLoginProtectionConfig(3, 1*time.Minute, 1*time.Minute)
	lp := NewLoginProtection(cfg)
	defer lp.Close()
	username := "alice"

	// Record some failed attempts
	lp.RecordFailedAttempt(username)
	lp.RecordFailedAttempt(username)

	// Record successful login
	lp.RecordSuccessfulLogin(username)

	// Should have full attempts again
	remaining := lp.GetRemainingAttempts(username)
	if remaining != cfg.MaxFailedAttempts {
		t.Errorf("GetRemainingAttempts() = %d, want %d", remaining, cfg.MaxFailedAttempts)
	}
}

func TestLoginProtectionGetRemainingAttempts(t *testing.T) {
	cfg := testLoginProtectionConfig(5, 1*time.Minute, 1*time.Minute)
	lp := NewLoginProtection(cfg)
	defer lp.Close()
	username := "alice"

	// Initial remaining should be max
	remaining := lp.GetRemainingAttempts(username)
	if remaining != 5 {
		t.Errorf("GetRemainingAttempts() = %d, want 5", remaining)
	}

	// After one failed attempt
	lp.RecordFailedAttempt(username)
	remaining = lp.GetRemainingAttempts(username)
	if remaining != 4 {
		t.Errorf("GetRemainingAttempts() = %d, want 4", remaining)
	}

	// After two more failed attempts
	lp.RecordFailedAttempt(username)
	lp.RecordFailedAttempt(username)
	remaining = lp.GetRemainingAttempts(username)
	if remaining != 2 {
		t.Errorf("GetRemainingAttempts() = %d, want 2", remaining)
	}
}

func TestLoginProtectionExponentialBackoff(t *testing.T) {
	cfg := testLoginProtectionConfig(2, 100*time.Millisecond, 1*time.Minute)
	lp := NewLoginProtection(cfg)
	defer lp.Close()
	username := "alice"

	// First lockout
	lp.RecordFailedAttempt(username)
	_, duration1 := lp.RecordFailedAttempt(username)

	// Wait for lockout to expire
	time.Sleep(duration1 + 10*time.Millisecond)

	// Second lockout should be longer (exponential backoff)
	lp.RecordFailedAttempt(username)
	_, duration2 := lp.RecordFailedAttempt(username)

	if duration2 <= duration1 {
		t.Errorf("Second lockout duration (%v) should be longer than first (%v)", duration2, duration1)
	}
}

func TestLoginProtectionAttemptWindowReset(t *testing.T) {
	cfg := testLoginProtectionConfig(5, 1*time.Minute, 100*time.Millisecond) // Very short window for testing
	lp := NewLoginProtection(cfg)
	defer lp.Close()
	username := "alice"

	// Record a failed attempt
	lp.RecordFailedAttempt(username)
	remaining := lp.GetRemainingAttempts(username)
	if remaining != 4 {
		t.Errorf("GetRemainingAttempts() = %d, want 4", remaining)
	}

	// Wait for window to expire
	time.Sleep(cfg.AttemptWindow + 50*time.Millisecond)

	// After window expires, should reset to max
	remaining = lp.GetRemainingAttempts(username)
	if remaining != cfg.MaxFailedAttempts {
		t.Errorf("GetRemainingAttempts() after window = %d, want %d", remaining, cfg.MaxFailedAttempts)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xForwarded string
		xRealIP    string
		want       string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "192.168.1.1:12345",
			want:       "192.168.1.1",
		},
		{
			name:       "bare ip from RealIP",
			remoteAddr: "10.0.0.7",
			want:       "10.0.0.7",
		},
		{
			name:       "ipv6",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
		{
			name:       "X-Forwarded-For ignored",
			remoteAddr: "192.168.1.1:12345",
			xForwarded: "10.0.0.1, 10.0.0.2",
			want:       "192.168.1.1",
		},
		{
			name:       "X-Real-IP ignored",
			remoteAddr: "192.168.1.1:12345",
			xRealIP:    "10.0.0.5",
			want:       "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xForwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwarded)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			got := GetClientIP(req)
			if got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginProtection_SpoofedForwardedFor(t *testing.T) {
	cfg := testLoginProtectionConfig(100, time.Minute, time.Minute)
	cfg.IPRateLimit = 0.001
	cfg.IPBurst = 1
	lp := NewLoginProtection(cfg)
	defer lp.Close()

	handler := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := range 3 {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.9:5000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK {
		t.Fatalf("first request = %d, want 200", codes[0])
	}
	for i, code := range codes[1:] {
		if code != http.StatusTooManyRequests {
			t.Errorf("request %d = %d, want 429 despite a new X-Forwarded-For", i+2, code)
		}
	}
}

func TestLoginProtectionMiddleware(t *testing.T) {
	cfg := testLoginProtectionConfig(5, 1*time.Minute, 1*time.Minute)
	lp := NewLoginProtection(cfg)
	defer lp.Close()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := lp.Middleware()
	wrapped := middleware(handler)

	// GET request should pass through
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("GET request status = %d, want %d", rr.Code, http.StatusOK)
	}

	// POST request should pass through (within rate limit)
	req = httptest.NewRequest(http.MethodPost, "/login", nil)
	rr = httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("POST request status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestLoginProtectionCheckIPRateLimit(t *testing.T) {
	cfg := LoginProtectionConfig{
		IPRateLimit:       10, // High rate for quick testing
		IPBurst:           5,  // Lower burst to test rate limiting
		MaxFailedAttempts: 5,
		LockoutDuration:   1 * time.Minute,
		AttemptWindow:     1 * time.Minute,
	}
	lp := NewLoginProtection(cfg)
	defer lp.Close()
	ip := "192.168.1.100"

	// First several requests should be allowed (within burst)
	for i := 0; i < 5; i++ {
		if !lp.CheckIPRateLimit(ip) {
			t.Errorf("Request %d should be allowed (within burst)", i+1)
		}
	}
}

func TestLoginProtectionRateLimitExceeded(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{IPRateLimit: 0.001, IPBurst: 2})
	defer lp.Close()

	wrapped := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.1.1.1:5555"
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d status = %d, want %d", i+1, codes[i], want[i])
		}
	}
}

func TestGlobalRateLimiterOnlyLimitsPost(t *testing.T) {
	rl := NewGlobalRateLimiter(0.001, 1)
	wrapped := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(method string) int {
		req := httptest.NewRequest(method, "/posts/1/comment", nil)
		req.RemoteAddr = "10.2.2.2:5555"
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)
		return rr.Code
	}

	if got := do(http.MethodPost); got != http.StatusOK {
		t.Errorf("first POST = %d, want 200", got)
	}
	if got := do(http.MethodPost); got != http.StatusTooManyRequests {
		t.Errorf("second POST = %d, want 429", got)
	}
	if got := do(http.MethodGet); got != http.StatusOK {
		t.Errorf("GET = %d, want 200", got)
	}
}

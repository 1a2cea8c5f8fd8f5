// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads blogicum settings from BLOG_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// Database
	DBDriver string `env:"BLOG_DB_DRIVER" envDefault:"sqlite"` // sqlite or mysql
	DBPath   string `env:"BLOG_DB_PATH" envDefault:"./data/blogicum.db"`
	DBDSN    string `env:"BLOG_DB_DSN"` // MySQL DSN, e.g. user:pass@tcp(host:3306)/blogicum

	SessionSecret string `env:"BLOG_SESSION_SECRET,required"`
	ServerHost    string `env:"BLOG_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"BLOG_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"BLOG_ENV" envDefault:"development"`
	TimeZone      string `env:"BLOG_TIME_ZONE" envDefault:"UTC"` // Zone for displaying and entering pub_date

	// TrustProxy takes the client IP from X-Forwarded-For/X-Real-IP. Enable
	// only behind a reverse proxy that overwrites those headers.
	TrustProxy bool `env:"BLOG_TRUST_PROXY" envDefault:"false"`

	// Logging
	LogLevel      string `env:"BLOG_LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"BLOG_LOG_FILE"` // Optional rotating log file
	LogMaxSizeMB  int    `env:"BLOG_LOG_MAX_SIZE_MB" envDefault:"100"`
	LogMaxBackups int    `env:"BLOG_LOG_MAX_BACKUPS" envDefault:"3"`
	LogMaxAgeDays int    `env:"BLOG_LOG_MAX_AGE_DAYS" envDefault:"28"`

	// Cache configuration
	RedisURL     string `env:"BLOG_REDIS_URL"`                           // Optional Redis URL for distributed caching
	CachePrefix  string `env:"BLOG_CACHE_PREFIX" envDefault:"blogicum:"` // Redis key prefix
	CacheTTL     int    `env:"BLOG_CACHE_TTL" envDefault:"300"`          // Default cache TTL in seconds
	CacheMaxSize int    `env:"BLOG_CACHE_MAX_SIZE" envDefault:"1000"`    // Max memory cache entries

	PostsPerPage int `env:"BLOG_POSTS_PER_PAGE" envDefault:"10"`

	// Seeding configuration
	DoSeed bool `env:"BLOG_DO_SEED" envDefault:"false"` // Create default categories and locations
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// UseMySQL returns true if the MySQL driver is selected.
func (c Config) UseMySQL() bool {
	return c.DBDriver == "mysql"
}

// DBSource returns the path or DSN for the selected driver.
func (c Config) DBSource() string {
	if c.UseMySQL() {
		return c.DBDSN
	}
	return c.DBPath
}

// Location returns the configured display time zone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch cfg.DBDriver {
	case "sqlite":
	case "mysql":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("BLOG_DB_DSN is required when BLOG_DB_DRIVER=mysql")
		}
	default:
		return nil, fmt.Errorf("BLOG_DB_DRIVER must be sqlite or mysql, got %q", cfg.DBDriver)
	}

	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return nil, fmt.Errorf("BLOG_TIME_ZONE %q: %w", cfg.TimeZone, err)
	}

	if cfg.PostsPerPage <= 0 {
		return nil, fmt.Errorf("BLOG_POSTS_PER_PAGE must be positive, got %d", cfg.PostsPerPage)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("BLOG_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("BLOG_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("BLOG_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}

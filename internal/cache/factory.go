// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"net/url"
	"time"
)

// Config selects and sizes the cache backend.
type Config struct {
	// RedisURL selects Redis when set (e.g. redis://localhost:6379/0).
	RedisURL string

	// Prefix is the Redis key prefix.
	Prefix string

	DefaultTTL time.Duration

	// MaxSize is the maximum number of entries for memory cache (0 = unlimited).
	MaxSize int

	CleanupInterval time.Duration
}

// New returns a Redis cache when RedisURL is set and reachable, otherwise an
// in-memory cache. An unreachable Redis is logged and does not fail startup.
func New(cfg Config, logger *slog.Logger) Cache {
	if cfg.RedisURL != "" {
		opts := DefaultRedisCacheOptions()
		opts.URL = cfg.RedisURL
		if cfg.Prefix != "" {
			opts.Prefix = cfg.Prefix
		}
		if cfg.DefaultTTL > 0 {
			opts.DefaultTTL = cfg.DefaultTTL
		}

		rc, err := NewRedisCache(opts)
		if err == nil {
			logger.Info("using redis cache", "url", SanitizeRedisURL(cfg.RedisURL), "prefix", opts.Prefix)
			return rc
		}
		logger.Warn("redis unavailable, falling back to memory cache",
			"url", SanitizeRedisURL(cfg.RedisURL), "error", err)
	}

	interval := cfg.CleanupInterval
	if interval == 0 {
		interval = time.Minute
	}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: interval,
	})
}

// SanitizeRedisURL masks the password in a Redis URL for logging.
func SanitizeRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid URL]"
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

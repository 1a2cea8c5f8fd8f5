// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides the byte-oriented cache used for derived data such
// as the sidebar category list. Values live in process memory or, when
// configured, in Redis so several instances share them.
package cache

import (
	"context"
	"time"
)

// Cache defines the interface for cache implementations.
// All implementations must be thread-safe.
type Cache interface {
	// Get returns ErrCacheMiss if the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A zero TTL means the default TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every key starting with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error

	// Clear removes all entries owned by this cache.
	Clear(ctx context.Context) error

	Close() error
}

// Stats holds cache statistics.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Items   int     `json:"items"`
	HitRate float64 `json:"hit_rate"`
}

// StatsProvider is an optional interface for caches that provide statistics.
type StatsProvider interface {
	Stats() Stats
	ResetStats()
}

// Error represents an error type for cache operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrCacheMiss indicates the key was not found in cache or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

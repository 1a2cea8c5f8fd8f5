// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache is a thread-safe in-memory cache.
type MemoryCache struct {
	data       sync.Map
	defaultTTL time.Duration
	maxSize    int // Maximum number of entries (0 = unlimited)
	stopCh     chan struct{}
	closed     atomic.Bool
	items      atomic.Int64

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

type memoryCacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCacheOptions configures the memory cache.
type MemoryCacheOptions struct {
	DefaultTTL      time.Duration
	MaxSize         int           // Maximum number of entries (0 = unlimited)
	CleanupInterval time.Duration // Interval for expired entry cleanup (0 = no cleanup)
}

// NewMemoryCache creates a new memory cache with the given options.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		defaultTTL: opts.DefaultTTL,
		maxSize:    opts.MaxSize,
		stopCh:     make(chan struct{}),
	}

	if opts.CleanupInterval > 0 {
		go c.cleanupLoop(opts.CleanupInterval)
	}

	return c
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	val, ok := c.data.Load(key)
	if !ok {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}

	entry := val.(*memoryCacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.deleteKey(key)
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}

	c.hits.Add(1)
	// Return a copy to prevent mutation
	result := make([]byte, len(entry.value))
	copy(result, entry.value)
	return result, nil
}

// Set stores a value in the cache with the specified TTL.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	if c.maxSize > 0 && int(c.items.Load()) >= c.maxSize {
		if _, exists := c.data.Load(key); !exists {
			c.removeExpired()
			if int(c.items.Load()) >= c.maxSize {
				c.evictSoonestExpiring()
			}
		}
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	entry := &memoryCacheEntry{
		value:     valueCopy,
		expiresAt: time.Now().Add(ttl),
	}

	if _, loaded := c.data.Swap(key, entry); !loaded {
		c.items.Add(1)
	}

	c.sets.Add(1)
	return nil
}

// Delete removes a key from the cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.deleteKey(key)
	return nil
}

// DeleteByPrefix removes all keys starting with the given prefix.
func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	c.data.Range(func(key, _ any) bool {
		if k := key.(string); strings.HasPrefix(k, prefix) {
			c.deleteKey(k)
		}
		return true
	})
	return nil
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear(_ context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	c.data.Range(func(key, _ any) bool {
		c.deleteKey(key.(string))
		return true
	})
	return nil
}

// Close stops the cleanup goroutine.
func (c *MemoryCache) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	return nil
}

// Stats returns current cache statistics.
func (c *MemoryCache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	return Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		Items:   int(c.items.Load()),
		HitRate: hitRate(hits, misses),
	}
}

// ResetStats resets the cache statistics.
func (c *MemoryCache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.sets.Store(0)
}

func (c *MemoryCache) deleteKey(key string) {
	if _, loaded := c.data.LoadAndDelete(key); loaded {
		c.items.Add(-1)
	}
}

// removeExpired removes all expired entries from the cache.
func (c *MemoryCache) removeExpired() {
	now := time.Now()
	c.data.Range(func(key, value any) bool {
		if now.After(value.(*memoryCacheEntry).expiresAt) {
			c.deleteKey(key.(string))
		}
		return true
	})
}

// evictSoonestExpiring drops the entry closest to expiry.
func (c *MemoryCache) evictSoonestExpiring() {
	var (
		victim string
		soon   time.Time
	)
	c.data.Range(func(key, value any) bool {
		e := value.(*memoryCacheEntry)
		if victim == "" || e.expiresAt.Before(soon) {
			victim, soon = key.(string), e.expiresAt
		}
		return true
	})
	if victim != "" {
		c.deleteKey(victim)
	}
}

// cleanupLoop periodically removes expired entries.
func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

var (
	_ Cache         = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
)

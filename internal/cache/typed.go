// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"time"
)

// TypedCache provides type-safe caching operations using generics.
// Values are stored as JSON so they survive a trip through Redis.
type TypedCache[T any] struct {
	cache      Cache
	defaultTTL time.Duration
}

// NewTypedCache creates a new TypedCache wrapping the given cache implementation.
func NewTypedCache[T any](cache Cache, defaultTTL time.Duration) *TypedCache[T] {
	return &TypedCache[T]{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value and true, or nil and false on a miss or a
// value that no longer decodes.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}

	return &value, true
}

// Set stores a value in the cache with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, key, data, c.defaultTTL)
}

// Delete removes a key from the cache.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, key)
}

// GetOrSet retrieves a value from cache, or calls fn to compute and store it.
// A failed store is ignored; the computed value is still returned.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, fn func() (*T, error)) (*T, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}

	_ = c.Set(ctx, key, value)

	return value, nil
}

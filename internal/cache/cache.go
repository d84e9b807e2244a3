// Package cache provides an optional JSON key-value cache with per-key expiry.
// Callers treat it purely as an optimization: a disabled or failing backend
// behaves like an empty cache.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheDisabled = errors.New("cache disabled")

type Cache interface {
	// Get decodes the value stored under key into dst and reports whether it
	// was found. Expired entries are misses.
	Get(ctx context.Context, key string, dst any) bool
	// Set stores the JSON encoding of value under key. A ttl <= 0 keeps the
	// entry until it is deleted.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// ClearMatching removes every key matching the glob pattern and returns
	// how many were removed.
	ClearMatching(ctx context.Context, pattern string) int
	Name() string
}

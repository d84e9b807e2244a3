package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// MemoryCache keeps entries in process memory. Values are stored in their
// JSON encoding so reads behave exactly like the redis backend.
type MemoryCache struct {
	store *gocache.Cache
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (c *MemoryCache) Get(_ context.Context, key string, dst any) bool {
	v, found := c.store.Get(key)
	if !found {
		return false
	}
	data, ok := v.([]byte)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		zap.S().Named("cache").Errorw("failed to decode value", "key", key, "error", err)
		return false
	}
	return true
}

func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding value of %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.store.Set(key, data, ttl)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

func (c *MemoryCache) ClearMatching(_ context.Context, pattern string) int {
	removed := 0
	for key := range c.store.Items() {
		matched, err := path.Match(pattern, key)
		if err != nil {
			zap.S().Named("cache").Errorw("invalid pattern", "pattern", pattern, "error", err)
			return removed
		}
		if matched {
			c.store.Delete(key)
			removed++
		}
	}
	return removed
}

func (c *MemoryCache) Name() string { return "memory" }

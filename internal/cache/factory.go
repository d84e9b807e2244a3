package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jarvis-platform/orchestrator/internal/config"
	"github.com/jarvis-platform/orchestrator/internal/retry"
)

const memoryCleanupInterval = 10 * time.Minute

// New selects the cache backend once, at startup. A redis backend that does
// not answer a ping is replaced by NoopCache.
func New(ctx context.Context, cfg *config.Config) Cache {
	logger := zap.S().Named("cache")

	switch cfg.Cache.Backend {
	case config.CacheBackendMemory:
		logger.Info("using in-memory cache")
		return NewMemoryCache(memoryCleanupInterval)
	case config.CacheBackendNone:
		logger.Info("cache disabled by configuration")
		return NoopCache{}
	}

	rc := NewRedisCache(redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Addr(),
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	}))

	policy := retry.NewPolicy(cfg.Retry.MaxRetries, cfg.Retry.Delay(), cfg.Retry.Backoff)
	if _, err := retry.Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, rc.Ping(ctx)
	}); err != nil {
		logger.Warnw("redis unavailable, cache disabled", "addr", cfg.Cache.Addr(), "error", err)
		_ = rc.Close()
		return NoopCache{}
	}

	logger.Infow("using redis cache", "addr", cfg.Cache.Addr())
	return rc
}

package cache

import (
	"context"
	"time"
)

// NoopCache is used when no backing store is reachable.
type NoopCache struct{}

var _ Cache = NoopCache{}

func (NoopCache) Get(context.Context, string, any) bool { return false }

func (NoopCache) Set(context.Context, string, any, time.Duration) error { return ErrCacheDisabled }

func (NoopCache) Delete(context.Context, string) error { return ErrCacheDisabled }

func (NoopCache) ClearMatching(context.Context, string) int { return 0 }

func (NoopCache) Name() string { return "none" }

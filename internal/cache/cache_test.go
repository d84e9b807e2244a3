package cache_test

import (
	"context"
	"strconv"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jarvis-platform/orchestrator/internal/cache"
	"github.com/jarvis-platform/orchestrator/internal/config"
	"github.com/jarvis-platform/orchestrator/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type entry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// behavesLikeACache runs the contract shared by every real backend.
func behavesLikeACache(newCache func() cache.Cache, expire func(time.Duration)) {
	var (
		c   cache.Cache
		ctx context.Context
	)

	BeforeEach(func() {
		c = newCache()
		ctx = context.TODO()
	})

	It("returns a stored value", func() {
		Expect(c.Set(ctx, "k1", entry{Name: "a", Score: 1.5}, time.Minute)).To(Succeed())

		var got entry
		Expect(c.Get(ctx, "k1", &got)).To(BeTrue())
		Expect(got).To(Equal(entry{Name: "a", Score: 1.5}))
	})

	It("misses unknown keys", func() {
		var got entry
		Expect(c.Get(ctx, "unknown", &got)).To(BeFalse())
	})

	It("misses expired keys", func() {
		Expect(c.Set(ctx, "k1", entry{Name: "a"}, time.Second)).To(Succeed())
		expire(2 * time.Second)

		var got entry
		Expect(c.Get(ctx, "k1", &got)).To(BeFalse())
	})

	It("deletes a key", func() {
		Expect(c.Set(ctx, "k1", entry{Name: "a"}, time.Minute)).To(Succeed())
		Expect(c.Delete(ctx, "k1")).To(Succeed())

		var got entry
		Expect(c.Get(ctx, "k1", &got)).To(BeFalse())
	})

	It("clears keys matching a pattern", func() {
		Expect(c.Set(ctx, "podcast_result:1", entry{Name: "1"}, time.Minute)).To(Succeed())
		Expect(c.Set(ctx, "podcast_result:2", entry{Name: "2"}, time.Minute)).To(Succeed())
		Expect(c.Set(ctx, "other:1", entry{Name: "3"}, time.Minute)).To(Succeed())

		Expect(c.ClearMatching(ctx, "podcast_result:*")).To(Equal(2))

		var got entry
		Expect(c.Get(ctx, "podcast_result:1", &got)).To(BeFalse())
		Expect(c.Get(ctx, "other:1", &got)).To(BeTrue())
	})

	It("rejects values that cannot be encoded", func() {
		Expect(c.Set(ctx, "bad", make(chan int), time.Minute)).NotTo(Succeed())
	})

	It("reproduces every field of a podcast result", func() {
		category := "tech"
		result := model.PodcastResult{
			JobID:         "job-1",
			AgentName:     "jarvis",
			AgentType:     model.AgentTypePodcastDaily,
			Status:        model.JobStatusCompleted,
			Script:        "Good morning",
			AudioPath:     "/tmp/a.mp3",
			AudioDuration: 230.5,
			NewsUsed: []model.NewsItem{{
				Title:       "t",
				Summary:     "s",
				Source:      "src",
				URL:         "https://example.com",
				PublishedAt: "2026-01-02T03:04:05Z",
				Language:    "pt-BR",
				Category:    &category,
			}},
			MemoryRecalled:       "previous episode",
			CreatedAt:            time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC),
			CompletedAt:          time.Date(2026, 1, 2, 3, 5, 0, 0, time.UTC),
			ExecutionTimeSeconds: 300,
		}
		Expect(c.Set(ctx, "podcast_result:job-1", result, 24*time.Hour)).To(Succeed())

		var got model.PodcastResult
		Expect(c.Get(ctx, "podcast_result:job-1", &got)).To(BeTrue())
		Expect(got).To(Equal(result))
	})
}

var _ = Describe("redis cache", func() {
	var mr *miniredis.Miniredis

	BeforeEach(func() {
		var err error
		mr, err = miniredis.Run()
		Expect(err).To(BeNil())
		DeferCleanup(mr.Close)
	})

	behavesLikeACache(func() cache.Cache {
		return cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	}, func(d time.Duration) {
		mr.FastForward(d)
	})
})

var _ = Describe("memory cache", func() {
	behavesLikeACache(func() cache.Cache {
		return cache.NewMemoryCache(time.Minute)
	}, func(d time.Duration) {
		time.Sleep(d)
	})
})

var _ = Describe("noop cache", func() {
	It("misses and reports failure without panicking", func() {
		c := cache.NoopCache{}
		ctx := context.TODO()

		Expect(c.Set(ctx, "k", "v", time.Minute)).To(MatchError(cache.ErrCacheDisabled))
		Expect(c.Delete(ctx, "k")).To(MatchError(cache.ErrCacheDisabled))
		var got string
		Expect(c.Get(ctx, "k", &got)).To(BeFalse())
		Expect(c.ClearMatching(ctx, "*")).To(Equal(0))
	})
})

var _ = Describe("backend selection", func() {
	var cfg *config.Config

	BeforeEach(func() {
		var err error
		cfg, err = config.New()
		Expect(err).To(BeNil())
		cfg.Cache.Backend = config.CacheBackendRedis
		cfg.Retry.RetryDelaySeconds = 0.01
	})

	It("uses redis when it answers", func() {
		mr, err := miniredis.Run()
		Expect(err).To(BeNil())
		defer mr.Close()

		port, err := strconv.Atoi(mr.Port())
		Expect(err).To(BeNil())
		cfg.Cache.Host = mr.Host()
		cfg.Cache.Port = port

		c := cache.New(context.TODO(), cfg)
		Expect(c.Name()).To(Equal("redis"))
	})

	It("falls back to the noop cache when redis is unreachable", func() {
		cfg.Cache.Host = "127.0.0.1"
		cfg.Cache.Port = 1

		c := cache.New(context.TODO(), cfg)
		Expect(c.Name()).To(Equal("none"))
		Expect(c.Set(context.TODO(), "k", "v", time.Minute)).To(MatchError(cache.ErrCacheDisabled))
	})

	It("honours the memory and none backends", func() {
		cfg.Cache.Backend = config.CacheBackendMemory
		Expect(cache.New(context.TODO(), cfg).Name()).To(Equal("memory"))

		cfg.Cache.Backend = config.CacheBackendNone
		Expect(cache.New(context.TODO(), cfg).Name()).To(Equal("none"))
	})
})

package service

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/jarvis-platform/orchestrator/internal/store"
)

// Reaper evicts finished jobs from the store once they are older than the
// retention. Their results stay reachable through the cache and the archive.
type Reaper struct {
	store     store.Job
	retention time.Duration
	interval  time.Duration
}

func NewReaper(s store.Job, retention time.Duration) *Reaper {
	interval := retention / 10
	if interval < time.Minute {
		interval = time.Minute
	}
	return &Reaper{store: s, retention: retention, interval: interval}
}

func (r *Reaper) WithInterval(interval time.Duration) *Reaper {
	r.interval = interval
	return r
}

// Run blocks until ctx is done. A zero retention disables eviction.
func (r *Reaper) Run(ctx context.Context) {
	logger := zap.S().Named("reaper")
	if r.retention <= 0 {
		logger.Info("job retention disabled")
		<-ctx.Done()
		return
	}

	ticker := jitterbug.New(r.interval, &jitterbug.Norm{Stdev: r.interval / 20, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if removed := r.Reap(ctx, time.Now()); removed > 0 {
			logger.Infow("evicted finished jobs", "count", removed, "retention", r.retention)
		}
	}
}

// Reap removes the jobs that finished before now minus the retention.
func (r *Reaper) Reap(ctx context.Context, now time.Time) int {
	return r.store.DeleteFinishedBefore(ctx, now.Add(-r.retention))
}

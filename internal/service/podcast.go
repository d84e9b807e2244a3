package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jarvis-platform/orchestrator/internal/archive"
	"github.com/jarvis-platform/orchestrator/internal/cache"
	"github.com/jarvis-platform/orchestrator/internal/client"
	"github.com/jarvis-platform/orchestrator/internal/events"
	"github.com/jarvis-platform/orchestrator/internal/retry"
	"github.com/jarvis-platform/orchestrator/internal/store"
	"github.com/jarvis-platform/orchestrator/internal/store/model"
	"github.com/jarvis-platform/orchestrator/pkg/metrics"
)

const (
	resultKeyPrefix  = "podcast_result:"
	defaultResultTTL = 24 * time.Hour
)

// Downstream is one remote service the pipeline talks to.
type Downstream interface {
	Post(ctx context.Context, path string, body any) client.Response
	Do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error)
}

type Services struct {
	News   Downstream
	Memory Downstream
	Script Downstream
	TTS    Downstream
}

type EventPublisher interface {
	Publish(ctx context.Context, kind string, v any) error
}

type PodcastServiceOption func(s *PodcastService)

func WithArchive(a archive.Archive) PodcastServiceOption {
	return func(s *PodcastService) {
		s.archive = a
	}
}

func WithEventPublisher(p EventPublisher) PodcastServiceOption {
	return func(s *PodcastService) {
		s.events = p
	}
}

func WithRetryPolicy(p retry.Policy) PodcastServiceOption {
	return func(s *PodcastService) {
		s.retryPolicy = p
	}
}

func WithResultTTL(ttl time.Duration) PodcastServiceOption {
	return func(s *PodcastService) {
		s.resultTTL = ttl
	}
}

// PodcastService accepts podcast requests and drives each one through the
// pipeline on its own goroutine.
type PodcastService struct {
	store       store.Job
	cache       cache.Cache
	services    Services
	archive     archive.Archive
	events      EventPublisher
	retryPolicy retry.Policy
	resultTTL   time.Duration

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

func NewPodcastService(s store.Job, c cache.Cache, services Services, opts ...PodcastServiceOption) *PodcastService {
	svc := &PodcastService{
		store:       s,
		cache:       c,
		services:    services,
		archive:     archive.NoopArchive{},
		retryPolicy: retry.NewPolicy(3, 2*time.Second, 2),
		resultTTL:   defaultResultTTL,
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// Submit registers a pending job for the request and starts its pipeline.
// It returns as soon as the job is stored.
func (s *PodcastService) Submit(ctx context.Context, req model.PodcastRequest) (model.Job, error) {
	req = req.WithDefaults()
	job := model.NewJob(req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return model.Job{}, ErrServiceShuttingDown
	}

	if err := s.store.Create(ctx, job); err != nil {
		return model.Job{}, err
	}
	// A resubmitted id must not serve the previous run's result.
	if err := s.cache.Delete(ctx, resultKey(job.ID)); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		zap.S().Named("podcast_service").Warnw("failed to drop cached result", "job_id", job.ID, "error", err)
	}

	zap.S().Named("podcast_service").Infow("job accepted", "job_id", job.ID, "agent_type", req.AgentType, "agent_name", req.AgentName)
	metrics.IncreaseJobsTotalMetric(string(model.JobStatusPending))
	s.publishJob(ctx, job.Request, model.JobStatusPending, "")

	s.wg.Add(1)
	go s.run(context.WithoutCancel(ctx), job.Request)

	return job.DeepCopy(), nil
}

func (s *PodcastService) GetStatus(ctx context.Context, id string) (model.Job, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return model.Job{}, NewErrJobNotFound(id)
		}
		return model.Job{}, err
	}
	return job, nil
}

// GetResult looks in the cache first, so results outlive the job record.
func (s *PodcastService) GetResult(ctx context.Context, id string) (model.PodcastResult, error) {
	var result model.PodcastResult
	hit := s.cache.Get(ctx, resultKey(id), &result)
	metrics.IncreaseCacheLookups(hit)
	if hit {
		return result, nil
	}

	job, err := s.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			return model.PodcastResult{}, err
		}
		archived, aerr := s.archive.Get(ctx, id)
		if aerr != nil {
			if !errors.Is(aerr, archive.ErrNotFound) {
				zap.S().Named("podcast_service").Warnw("failed to read archived result", "job_id", id, "error", aerr)
			}
			return model.PodcastResult{}, NewErrJobNotFound(id)
		}
		return archived, nil
	}

	if job.Status != model.JobStatusCompleted || job.Result == nil {
		return model.PodcastResult{}, NewErrJobNotReady(id, job.Status)
	}
	return *job.Result, nil
}

func (s *PodcastService) ListJobs(ctx context.Context) []string {
	return s.store.ListIDs(ctx)
}

func (s *PodcastService) ActiveJobs(ctx context.Context) int {
	return s.store.Count(ctx)
}

// Shutdown stops accepting jobs and waits for running pipelines until ctx expires.
func (s *PodcastService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *PodcastService) publishJob(ctx context.Context, req model.PodcastRequest, status model.JobStatus, errMsg string) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, events.JobMessageKind, events.JobEvent{
		JobID:     req.ID,
		Status:    string(status),
		AgentType: string(req.AgentType),
		AgentName: req.AgentName,
		Error:     errMsg,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		zap.S().Named("podcast_service").Warnw("failed to publish job event", "job_id", req.ID, "error", err)
	}
}

func resultKey(id string) string {
	return resultKeyPrefix + id
}

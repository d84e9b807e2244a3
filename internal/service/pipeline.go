package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jarvis-platform/orchestrator/internal/cache"
	"github.com/jarvis-platform/orchestrator/internal/client"
	"github.com/jarvis-platform/orchestrator/internal/events"
	"github.com/jarvis-platform/orchestrator/internal/retry"
	"github.com/jarvis-platform/orchestrator/internal/store/model"
	"github.com/jarvis-platform/orchestrator/pkg/metrics"
	"github.com/jarvis-platform/orchestrator/pkg/requestid"
)

const (
	stageNews     = "news"
	stageMemory   = "memory"
	stageScript   = "script"
	stageTTS      = "tts"
	stageFinalize = "finalize"

	memoryRecallLimit = 3
)

// run executes the pipeline for one job. Nothing escapes it: stage
// failures and panics both end in a failed job.
func (s *PodcastService) run(ctx context.Context, req model.PodcastRequest) {
	defer s.wg.Done()

	metrics.IncreaseActiveJobs()
	defer metrics.DecreaseActiveJobs()

	logger := zap.S().Named("pipeline").With("job_id", req.ID, "request_id", requestid.FromContext(ctx))

	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("pipeline panicked", "panic", r)
			s.fail(ctx, req, fmt.Sprintf("pipeline panicked: %v", r))
		}
	}()

	if err := s.store.UpdateStatus(ctx, req.ID, model.JobStatusRunning, nil, ""); err != nil {
		logger.Errorw("failed to mark job running", "error", err)
		return
	}
	metrics.IncreaseJobsTotalMetric(string(model.JobStatusRunning))
	s.publishJob(ctx, req, model.JobStatusRunning, "")
	logger.Info("pipeline started")

	result, err := s.execute(ctx, req, logger)
	if err != nil {
		logger.Errorw("pipeline failed", "error", err)
		s.fail(ctx, req, err.Error())
		return
	}

	s.finalize(ctx, req, result, logger)
}

func (s *PodcastService) execute(ctx context.Context, req model.PodcastRequest, logger *zap.SugaredLogger) (model.PodcastResult, error) {
	start := time.Now()

	var news client.NewsFetchResponse
	err := s.stage(ctx, req.ID, stageNews, func() (string, error) {
		resp := s.services.News.Post(ctx, client.NewsFetchPath, client.NewsFetchRequest{
			Language: req.Language,
			Limit:    req.NewsCount,
		})
		if err := resp.Decode(&news); err != nil || len(news.News) == 0 {
			return metrics.OutcomeFailure, newStageError(stageNews)
		}
		return metrics.OutcomeSuccess, nil
	})
	if err != nil {
		return model.PodcastResult{}, err
	}
	logger.Infow("news fetched", "count", len(news.News))

	var memoryContext string
	_ = s.stage(ctx, req.ID, stageMemory, func() (string, error) {
		var recalled client.MemoryRecallResponse
		resp := s.services.Memory.Post(ctx, client.MemoryRecallPath, client.MemoryRecallRequest{
			Query:  fmt.Sprintf("podcast %s", req.AgentType),
			Limit:  memoryRecallLimit,
			UserID: req.UserID,
		})
		if err := resp.Decode(&recalled); err != nil || len(recalled.Memories) == 0 {
			logger.Info("no previous memories found")
			return metrics.OutcomeDegraded, nil
		}
		contents := make([]string, 0, len(recalled.Memories))
		for _, m := range recalled.Memories {
			contents = append(contents, m.Content)
		}
		memoryContext = strings.Join(contents, " ")
		logger.Infow("memories recalled", "count", len(recalled.Memories))
		return metrics.OutcomeSuccess, nil
	})

	var script client.ScriptResponse
	err = s.stage(ctx, req.ID, stageScript, func() (string, error) {
		resp := s.services.Script.Post(ctx, client.ScriptGeneratePath, client.ScriptRequest{
			AgentName:     req.AgentName,
			AgentType:     req.AgentType,
			News:          news.News,
			MemoryContext: memoryContext,
			Language:      req.Language,
		})
		if err := resp.Decode(&script); err != nil || script.Script == "" {
			return metrics.OutcomeFailure, newStageError(stageScript)
		}
		return metrics.OutcomeSuccess, nil
	})
	if err != nil {
		return model.PodcastResult{}, err
	}
	logger.Infow("script generated", "chars", len(script.Script))

	var audio client.TTSResponse
	err = s.stage(ctx, req.ID, stageTTS, func() (string, error) {
		resp := s.services.TTS.Post(ctx, client.TTSGeneratePath, client.TTSRequest{
			Text:      script.Script,
			Voice:     req.Voice,
			AgentName: req.AgentName,
			Language:  req.Language,
		})
		if err := resp.Decode(&audio); err != nil || audio.AudioPath == "" {
			return metrics.OutcomeFailure, newStageError(stageTTS)
		}
		return metrics.OutcomeSuccess, nil
	})
	if err != nil {
		return model.PodcastResult{}, err
	}
	logger.Infow("audio generated", "duration", audio.Duration)

	completedAt := time.Now().UTC()
	return model.PodcastResult{
		JobID:                req.ID,
		AgentName:            req.AgentName,
		AgentType:            req.AgentType,
		Status:               model.JobStatusCompleted,
		Script:               script.Script,
		AudioPath:            audio.AudioPath,
		AudioDuration:        audio.Duration,
		NewsUsed:             news.News,
		MemoryRecalled:       memoryContext,
		CreatedAt:            req.CreatedAt,
		CompletedAt:          completedAt,
		ExecutionTimeSeconds: time.Since(start).Seconds(),
	}, nil
}

// stage times fn and records its outcome.
func (s *PodcastService) stage(ctx context.Context, jobID, name string, fn func() (string, error)) error {
	start := time.Now()
	outcome, err := fn()
	elapsed := time.Since(start).Seconds()

	metrics.ObserveStage(name, outcome, elapsed)
	if s.events != nil {
		err := s.events.Publish(ctx, events.StageMessageKind, events.StageEvent{
			JobID:           jobID,
			Stage:           name,
			Outcome:         outcome,
			DurationSeconds: elapsed,
		})
		if err != nil {
			zap.S().Named("pipeline").Warnw("failed to publish stage event", "job_id", jobID, "stage", name, "error", err)
		}
	}
	return err
}

func (s *PodcastService) finalize(ctx context.Context, req model.PodcastRequest, result model.PodcastResult, logger *zap.SugaredLogger) {
	_ = s.stage(ctx, req.ID, stageFinalize, func() (string, error) {
		outcome := metrics.OutcomeSuccess
		if err := s.cache.Set(ctx, resultKey(req.ID), result, s.resultTTL); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
			logger.Warnw("failed to cache result", "error", err)
			outcome = metrics.OutcomeDegraded
		}

		if err := s.store.UpdateStatus(ctx, req.ID, model.JobStatusCompleted, &result, ""); err != nil {
			logger.Errorw("failed to mark job completed", "error", err)
			return metrics.OutcomeFailure, err
		}
		metrics.IncreaseJobsTotalMetric(string(model.JobStatusCompleted))
		s.publishJob(ctx, req, model.JobStatusCompleted, "")
		logger.Infow("pipeline completed", "execution_time_seconds", result.ExecutionTimeSeconds)

		if err := s.archive.Put(ctx, result); err != nil {
			logger.Warnw("failed to archive result", "error", err)
			outcome = metrics.OutcomeDegraded
		}
		return outcome, nil
	})

	s.rememberPodcast(ctx, req, result, logger)
}

// rememberPodcast stores a summary fact in memory. Failures never change
// the job's status.
func (s *PodcastService) rememberPodcast(ctx context.Context, req model.PodcastRequest, result model.PodcastResult, logger *zap.SugaredLogger) {
	fact := client.MemoryStoreRequest{
		UserID:  req.UserID,
		Content: fmt.Sprintf("podcast generated: agent %s, type %s", req.AgentName, req.AgentType),
		Metadata: map[string]any{
			"job_id":     req.ID,
			"news_count": len(result.NewsUsed),
			"duration":   result.AudioDuration,
			"agent":      req.AgentName,
		},
	}

	_, err := retry.Do(ctx, s.retryPolicy, func(ctx context.Context) (struct{}, error) {
		_, err := s.services.Memory.Do(ctx, http.MethodPost, client.MemoryStorePath, nil, fact)
		return struct{}{}, err
	})
	if err != nil {
		logger.Warnw("failed to store podcast memory", "error", err)
	}
}

func (s *PodcastService) fail(ctx context.Context, req model.PodcastRequest, errMsg string) {
	if err := s.store.UpdateStatus(ctx, req.ID, model.JobStatusFailed, nil, errMsg); err != nil {
		zap.S().Named("pipeline").Errorw("failed to mark job failed", "job_id", req.ID, "error", err)
		return
	}
	metrics.IncreaseJobsTotalMetric(string(model.JobStatusFailed))
	s.publishJob(ctx, req, model.JobStatusFailed, errMsg)
}

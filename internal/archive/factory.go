package archive

import (
	"context"

	"go.uber.org/zap"

	"github.com/jarvis-platform/orchestrator/internal/config"
	"github.com/jarvis-platform/orchestrator/internal/retry"
)

// New returns the MinIO archive when an endpoint is configured and its bucket
// can be prepared, NoopArchive otherwise.
func New(ctx context.Context, cfg *config.Config) Archive {
	logger := zap.S().Named("archive")

	if cfg.Archive.Endpoint == "" {
		logger.Info("result archive disabled")
		return NoopArchive{}
	}

	a, err := NewMinioArchive(
		WithEndpoint(cfg.Archive.Endpoint),
		WithBucket(cfg.Archive.Bucket),
		WithAccessKey(cfg.Archive.AccessKey),
		WithSecretKey(cfg.Archive.SecretKey),
		WithSSL(cfg.Archive.UseSSL),
	)
	if err != nil {
		logger.Warnw("invalid archive configuration, archive disabled", "error", err)
		return NoopArchive{}
	}

	policy := retry.NewPolicy(cfg.Retry.MaxRetries, cfg.Retry.Delay(), cfg.Retry.Backoff)
	if _, err := retry.Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.EnsureBucket(ctx)
	}); err != nil {
		logger.Warnw("object storage unavailable, archive disabled", "endpoint", cfg.Archive.Endpoint, "error", err)
		return NoopArchive{}
	}

	logger.Infow("archiving results", "endpoint", cfg.Archive.Endpoint, "bucket", cfg.Archive.Bucket)
	return a
}

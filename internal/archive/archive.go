// Package archive keeps a durable copy of finished podcast results in
// S3-compatible object storage.
package archive

import (
	"context"
	"errors"

	"github.com/jarvis-platform/orchestrator/internal/store/model"
)

var ErrNotFound = errors.New("archived result not found")

type Archive interface {
	Put(ctx context.Context, result model.PodcastResult) error
	Get(ctx context.Context, jobID string) (model.PodcastResult, error)
	Type() string
}

// NoopArchive is used when no object storage is configured.
type NoopArchive struct{}

func (NoopArchive) Put(context.Context, model.PodcastResult) error {
	return nil
}

func (NoopArchive) Get(context.Context, string) (model.PodcastResult, error) {
	return model.PodcastResult{}, ErrNotFound
}

func (NoopArchive) Type() string {
	return "none"
}

package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jarvis-platform/orchestrator/internal/store/model"
)

const defaultPrefix = "podcast_results/"

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	prefix          string
	useSSL          bool
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{
		useSSL: false,
		prefix: defaultPrefix,
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

type MinioArchive struct {
	cfg    *minioConfig
	client *minio.Client
}

func NewMinioArchive(opts ...MinioOpts) (*MinioArchive, error) {
	cfg := newConfig(opts...)
	if cfg.endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinioArchive{cfg: cfg, client: minioClient}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (a *MinioArchive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.cfg.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.cfg.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.cfg.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.cfg.bucket, err)
	}
	return nil
}

func (a *MinioArchive) Put(ctx context.Context, result model.PodcastResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	_, err = a.client.PutObject(ctx, a.cfg.bucket, a.objectName(result.JobID), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to archive result %s: %w", result.JobID, err)
	}
	return nil
}

func (a *MinioArchive) Get(ctx context.Context, jobID string) (model.PodcastResult, error) {
	var result model.PodcastResult

	object, err := a.client.GetObject(ctx, a.cfg.bucket, a.objectName(jobID), minio.GetObjectOptions{})
	if err != nil {
		return result, translate(err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return result, translate(err)
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("archived result %s is corrupted: %w", jobID, err)
	}
	return result, nil
}

func (a *MinioArchive) Type() string {
	return "minio"
}

func (a *MinioArchive) objectName(jobID string) string {
	return a.cfg.prefix + jobID + ".json"
}

func translate(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithPrefix(prefix string) MinioOpts {
	return func(c *minioConfig) {
		c.prefix = prefix
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/thoas/go-funk"
)

const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
	CacheBackendNone   = "none"
)

var legalCacheBackends = []string{CacheBackendRedis, CacheBackendMemory, CacheBackendNone}

type Config struct {
	Service    *svcConfig
	Downstream *downstreamConfig
	Retry      *retryConfig
	Cache      *cacheConfig
	Archive    *archiveConfig
}

type svcConfig struct {
	Address        string        `envconfig:"ORCHESTRATOR_ADDRESS" default:":8010"`
	MetricsAddress string        `envconfig:"ORCHESTRATOR_METRICS_ADDRESS" default:":8080"`
	LogLevel       string        `envconfig:"ORCHESTRATOR_LOG_LEVEL" default:"info"`
	JobRetention   time.Duration `envconfig:"ORCHESTRATOR_JOB_RETENTION" default:"24h"`
	ResultTTL      time.Duration `envconfig:"ORCHESTRATOR_RESULT_TTL" default:"24h"`
	// SubmitRate limits job submissions per second. Zero disables the limit.
	SubmitRate  float64 `envconfig:"ORCHESTRATOR_SUBMIT_RATE" default:"0"`
	SubmitBurst int     `envconfig:"ORCHESTRATOR_SUBMIT_BURST" default:"10"`
}

type downstreamConfig struct {
	NewsURL            string `envconfig:"NEWS_SERVICE_URL" default:"http://news-service:8002"`
	ScriptURL          string `envconfig:"SCRIPT_SERVICE_URL" default:"http://script-service:8003"`
	TTSURL             string `envconfig:"TTS_SERVICE_URL" default:"http://tts-service:8004"`
	MemoryURL          string `envconfig:"MEMORY_SERVICE_URL" default:"http://memory-service:8005"`
	HTTPTimeoutSeconds int    `envconfig:"HTTP_TIMEOUT_SECONDS" default:"30"`
}

type retryConfig struct {
	MaxRetries        int     `envconfig:"MAX_RETRIES" default:"3"`
	RetryDelaySeconds float64 `envconfig:"RETRY_DELAY_SECONDS" default:"2"`
	Backoff           float64 `envconfig:"RETRY_BACKOFF" default:"2.0"`
}

type cacheConfig struct {
	Backend  string `envconfig:"CACHE_BACKEND" default:"redis"`
	Host     string `envconfig:"REDIS_HOST" default:"redis"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
}

type archiveConfig struct {
	Endpoint  string `envconfig:"S3_ENDPOINT" default:""`
	Bucket    string `envconfig:"S3_BUCKET" default:"jarvis-media"`
	AccessKey string `envconfig:"S3_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"S3_SECRET_KEY" default:""`
	UseSSL    bool   `envconfig:"S3_USE_SSL" default:"false"`
}

// New reads the configuration from the environment. Variables found in a
// .env file in the working directory are loaded first without overriding
// the ones already set.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	backend := strings.ToLower(c.Cache.Backend)
	if !funk.ContainsString(legalCacheBackends, backend) {
		return fmt.Errorf("invalid cache backend %q: must be one of %s", c.Cache.Backend, strings.Join(legalCacheBackends, ", "))
	}
	c.Cache.Backend = backend

	if c.Downstream.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http timeout %d: must be positive", c.Downstream.HTTPTimeoutSeconds)
	}
	if c.Service.SubmitRate < 0 || c.Service.SubmitBurst < 1 {
		return fmt.Errorf("invalid submit rate %g/%d: rate must not be negative and burst must be positive", c.Service.SubmitRate, c.Service.SubmitBurst)
	}
	if c.Retry.MaxRetries < 1 {
		return fmt.Errorf("invalid max retries %d: must be at least 1", c.Retry.MaxRetries)
	}
	return nil
}

func (c *downstreamConfig) Timeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *retryConfig) Delay() time.Duration {
	return time.Duration(c.RetryDelaySeconds * float64(time.Second))
}

func (c *cacheConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

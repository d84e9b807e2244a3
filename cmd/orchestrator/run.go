package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apiserver "github.com/jarvis-platform/orchestrator/internal/api_server"
	"github.com/jarvis-platform/orchestrator/internal/archive"
	"github.com/jarvis-platform/orchestrator/internal/cache"
	"github.com/jarvis-platform/orchestrator/internal/client"
	"github.com/jarvis-platform/orchestrator/internal/config"
	"github.com/jarvis-platform/orchestrator/internal/events"
	"github.com/jarvis-platform/orchestrator/internal/retry"
	"github.com/jarvis-platform/orchestrator/internal/service"
	"github.com/jarvis-platform/orchestrator/internal/store"
	"github.com/jarvis-platform/orchestrator/pkg/log"
	"github.com/jarvis-platform/orchestrator/pkg/metrics"
)

const pipelineDrainTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the orchestrator api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Named("orchestrator").Infow("Starting orchestrator", "version", version)
		defer zap.S().Named("orchestrator").Info("orchestrator stopped")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		timeout := cfg.Downstream.Timeout()
		services := service.Services{
			News:   client.NewServiceClient("news", cfg.Downstream.NewsURL, timeout),
			Memory: client.NewServiceClient("memory", cfg.Downstream.MemoryURL, timeout),
			Script: client.NewServiceClient("script", cfg.Downstream.ScriptURL, timeout),
			TTS:    client.NewServiceClient("tts", cfg.Downstream.TTSURL, timeout),
		}
		probeDownstreams(ctx, services)

		producer := events.NewEventProducer(&events.StdoutWriter{})
		defer func() { _ = producer.Close() }()

		jobStore := store.NewJobStore()
		podcastSrv := service.NewPodcastService(
			jobStore,
			cache.New(ctx, cfg),
			services,
			service.WithArchive(archive.New(ctx, cfg)),
			service.WithEventPublisher(producer),
			service.WithRetryPolicy(retry.NewPolicy(cfg.Retry.MaxRetries, cfg.Retry.Delay(), cfg.Retry.Backoff)),
			service.WithResultTTL(cfg.Service.ResultTTL),
		)

		apiListener, err := newListener(cfg.Service.Address)
		if err != nil {
			return err
		}
		metricsListener, err := newListener(cfg.Service.MetricsAddress)
		if err != nil {
			return err
		}

		metricMiddleware := metrics.NewMiddleware("api_server")
		metricMiddleware.MustRegister(nil)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return apiserver.New(cfg, podcastSrv, apiListener, metricMiddleware).Run(gctx)
		})
		g.Go(func() error {
			return apiserver.NewMetricServer(cfg.Service.MetricsAddress, metricsListener).Run(gctx)
		})
		g.Go(func() error {
			service.NewReaper(jobStore, cfg.Service.JobRetention).Run(gctx)
			return nil
		})

		err = g.Wait()

		drainCtx, drainCancel := context.WithTimeout(context.Background(), pipelineDrainTimeout)
		defer drainCancel()
		if derr := podcastSrv.Shutdown(drainCtx); derr != nil {
			zap.S().Named("orchestrator").Warnw("pipelines still running at shutdown", "error", derr)
		}

		return err
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}

// probeDownstreams logs which downstream services answer their health
// endpoint. Jobs are accepted either way.
func probeDownstreams(ctx context.Context, services service.Services) {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var clients []*client.ServiceClient
	for _, d := range []service.Downstream{services.News, services.Memory, services.Script, services.TTS} {
		if c, ok := d.(*client.ServiceClient); ok {
			clients = append(clients, c)
		}
	}

	failures := client.CheckHealth(probeCtx, clients...)
	for _, c := range clients {
		if err, failed := failures[c.Name()]; failed {
			zap.S().Named("orchestrator").Warnw("downstream service unavailable", "service", c.Name(), "error", err)
			continue
		}
		zap.S().Named("orchestrator").Infow("downstream service available", "service", c.Name())
	}
}

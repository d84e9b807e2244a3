package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jarvis-platform/orchestrator/internal/config"
	handlers "github.com/jarvis-platform/orchestrator/internal/handlers/v1alpha1"
	"github.com/jarvis-platform/orchestrator/pkg/metrics"
	"github.com/jarvis-platform/orchestrator/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg        *config.Config
	podcastSrv handlers.PodcastService
	listener   net.Listener
	metrics    *metrics.Middleware
}

// New returns a new instance of the orchestrator api server.
func New(
	cfg *config.Config,
	podcastSrv handlers.PodcastService,
	listener net.Listener,
	metricMiddleware *metrics.Middleware,
) *Server {
	return &Server{
		cfg:        cfg,
		podcastSrv: podcastSrv,
		listener:   listener,
		metrics:    metricMiddleware,
	}
}

func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	if s.metrics != nil {
		router.Use(s.metrics.Handler)
	}
	router.Use(
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	var submitMiddlewares []func(http.Handler) http.Handler
	if s.cfg.Service.SubmitRate > 0 {
		limiter := rate.NewLimiter(rate.Limit(s.cfg.Service.SubmitRate), s.cfg.Service.SubmitBurst)
		submitMiddlewares = append(submitMiddlewares, middleware.RateLimit(limiter))
	}

	handlers.RegisterApi(router, handlers.NewServiceHandler(s.podcastSrv), submitMiddlewares...)
	return router
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: s.Router()}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

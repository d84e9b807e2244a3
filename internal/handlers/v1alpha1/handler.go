package v1alpha1

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jarvis-platform/orchestrator/internal/handlers/validator"
	"github.com/jarvis-platform/orchestrator/internal/store/model"
)

const serviceName = "orchestrator"

// PodcastService is what the handlers need from the orchestrator.
type PodcastService interface {
	Submit(ctx context.Context, req model.PodcastRequest) (model.Job, error)
	GetStatus(ctx context.Context, id string) (model.Job, error)
	GetResult(ctx context.Context, id string) (model.PodcastResult, error)
	ListJobs(ctx context.Context) []string
	ActiveJobs(ctx context.Context) int
}

type ServiceHandler struct {
	podcastSrv PodcastService
	validator  *validator.Validator
}

func NewServiceHandler(podcastSrv PodcastService) *ServiceHandler {
	return &ServiceHandler{
		podcastSrv: podcastSrv,
		validator:  validator.NewValidator().Register(validator.NewPodcastValidationRules()...),
	}
}

// RegisterApi mounts the orchestrator routes. submitMiddlewares only wrap
// the routes that start a pipeline.
func RegisterApi(router chi.Router, h *ServiceHandler, submitMiddlewares ...func(http.Handler) http.Handler) {
	router.Get("/health", h.Health)
	router.Route("/api/podcast", func(r chi.Router) {
		r.With(submitMiddlewares...).Post("/generate", h.GeneratePodcast)
		r.Get("/status/{job_id}", h.GetPodcastStatus)
		r.Get("/result/{job_id}", h.GetPodcastResult)
	})
	router.Route("/api/debug", func(r chi.Router) {
		r.Get("/jobs", h.DebugJobs)
		r.With(submitMiddlewares...).Post("/test-pipeline", h.TestPipeline)
	})
}

package v1alpha1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/jarvis-platform/orchestrator/internal/service"
	"github.com/jarvis-platform/orchestrator/internal/store/model"
	"github.com/jarvis-platform/orchestrator/pkg/requestid"
)

const maxRequestBody = 1 << 20

func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	_ = render.Render(w, r, HealthReply{
		Status:     "healthy",
		Service:    serviceName,
		Timestamp:  time.Now().UTC(),
		ActiveJobs: h.podcastSrv.ActiveJobs(r.Context()),
	})
}

func (h *ServiceHandler) GeneratePodcast(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("podcast_handler").With("request_id", requestid.FromRequest(r))

	var req model.PodcastRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		_ = render.Render(w, r, newErrorReply(r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err)))
		return
	}

	req = req.WithDefaults()
	if err := h.validator.Struct(req); err != nil {
		_ = render.Render(w, r, newErrorReply(r, http.StatusBadRequest, err.Error()))
		return
	}

	logger.Infow("podcast requested", "job_id", req.ID, "agent_type", req.AgentType)
	h.submit(w, r, req, "podcast generation started")
}

func (h *ServiceHandler) GetPodcastStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "job_id")

	job, err := h.podcastSrv.GetStatus(r.Context(), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			_ = render.Render(w, r, newErrorReply(r, http.StatusNotFound, err.Error()))
		default:
			zap.S().Named("podcast_handler").Errorw("failed to get job status", "job_id", id, "error", err)
			_ = render.Render(w, r, newErrorReply(r, http.StatusInternalServerError, fmt.Sprintf("failed to get job: %v", err)))
		}
		return
	}

	_ = render.Render(w, r, JobReply{Job: job})
}

func (h *ServiceHandler) GetPodcastResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "job_id")

	result, err := h.podcastSrv.GetResult(r.Context(), id)
	if err != nil {
		switch e := err.(type) {
		case *service.ErrJobNotFound:
			_ = render.Render(w, r, newErrorReply(r, http.StatusNotFound, err.Error()))
		case *service.ErrJobNotReady:
			reply := newErrorReply(r, http.StatusAccepted, err.Error())
			reply.Status = &e.Status
			_ = render.Render(w, r, reply)
		default:
			zap.S().Named("podcast_handler").Errorw("failed to get job result", "job_id", id, "error", err)
			_ = render.Render(w, r, newErrorReply(r, http.StatusInternalServerError, fmt.Sprintf("failed to get result: %v", err)))
		}
		return
	}

	_ = render.Render(w, r, ResultReply{PodcastResult: result})
}

func (h *ServiceHandler) DebugJobs(w http.ResponseWriter, r *http.Request) {
	ids := h.podcastSrv.ListJobs(r.Context())
	_ = render.Render(w, r, DebugJobsReply{TotalJobs: len(ids), Jobs: ids})
}

// TestPipeline submits a small canned request.
func (h *ServiceHandler) TestPipeline(w http.ResponseWriter, r *http.Request) {
	req := model.PodcastRequest{
		AgentType: model.AgentTypePodcastDaily,
		AgentName: "jarvis_test",
		UserID:    "test_user",
		NewsCount: 3,
	}.WithDefaults()

	h.submit(w, r, req, "test pipeline started")
}

func (h *ServiceHandler) submit(w http.ResponseWriter, r *http.Request, req model.PodcastRequest, message string) {
	job, err := h.podcastSrv.Submit(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrServiceShuttingDown):
			_ = render.Render(w, r, newErrorReply(r, http.StatusServiceUnavailable, err.Error()))
		default:
			zap.S().Named("podcast_handler").Errorw("failed to submit job", "job_id", req.ID, "error", err)
			_ = render.Render(w, r, newErrorReply(r, http.StatusInternalServerError, fmt.Sprintf("failed to submit job: %v", err)))
		}
		return
	}

	_ = render.Render(w, r, GenerateReply{JobID: job.ID, Status: job.Status, Message: message})
}

package v1alpha1

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/jarvis-platform/orchestrator/internal/store/model"
	"github.com/jarvis-platform/orchestrator/pkg/requestid"
)

type HealthReply struct {
	Status     string    `json:"status"`
	Service    string    `json:"service"`
	Timestamp  time.Time `json:"timestamp"`
	ActiveJobs int       `json:"active_jobs"`
}

func (h HealthReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type GenerateReply struct {
	JobID   string          `json:"job_id"`
	Status  model.JobStatus `json:"status"`
	Message string          `json:"message,omitempty"`
}

func (g GenerateReply) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, http.StatusAccepted)
	return nil
}

type JobReply struct {
	model.Job
}

func (j JobReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type ResultReply struct {
	model.PodcastResult
}

func (res ResultReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type DebugJobsReply struct {
	TotalJobs int      `json:"total_jobs"`
	Jobs      []string `json:"jobs"`
}

func (d DebugJobsReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type ErrorReply struct {
	HTTPStatusCode int              `json:"-"`
	Detail         string           `json:"detail"`
	Status         *model.JobStatus `json:"status,omitempty"`
	RequestID      string           `json:"request_id,omitempty"`
}

func (e ErrorReply) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func newErrorReply(r *http.Request, code int, detail string) ErrorReply {
	return ErrorReply{
		HTTPStatusCode: code,
		Detail:         detail,
		RequestID:      requestid.FromRequest(r),
	}
}

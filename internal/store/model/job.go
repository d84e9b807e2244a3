package model

import "time"

type JobStatus string

// Job status constants
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether no further transition may leave the status.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job tracks one podcast pipeline execution. Its ID equals the ID of the
// request that created it.
type Job struct {
	ID        string         `json:"id"`
	Status    JobStatus      `json:"status"`
	Request   PodcastRequest `json:"request"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Result    *PodcastResult `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func NewJob(req PodcastRequest) Job {
	now := time.Now().UTC()
	return Job{
		ID:        req.ID,
		Status:    JobStatusPending,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DeepCopy returns a copy that shares no mutable state with j.
func (j Job) DeepCopy() Job {
	c := j
	c.Request = j.Request.DeepCopy()
	if j.Result != nil {
		r := j.Result.DeepCopy()
		c.Result = &r
	}
	return c
}

package events

import "time"

const (
	JobMessageKind   string = "jarvis.orchestrator.events.job"
	StageMessageKind string = "jarvis.orchestrator.events.stage"
)

// JobEvent is emitted on every job status transition.
type JobEvent struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	AgentType string    `json:"agent_type"`
	AgentName string    `json:"agent_name"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StageEvent is emitted when a pipeline stage finishes.
type StageEvent struct {
	JobID           string  `json:"job_id"`
	Stage           string  `json:"stage"`
	Outcome         string  `json:"outcome"`
	DurationSeconds float64 `json:"duration_seconds"`
}

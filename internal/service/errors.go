package service

import (
	"errors"
	"fmt"

	"github.com/jarvis-platform/orchestrator/internal/store/model"
)

var ErrServiceShuttingDown = errors.New("podcast service is shutting down")

type ErrJobNotFound struct {
	error
}

func NewErrJobNotFound(id string) *ErrJobNotFound {
	return &ErrJobNotFound{fmt.Errorf("job %s not found", id)}
}

type ErrJobNotReady struct {
	error
	Status model.JobStatus
}

func NewErrJobNotReady(id string, status model.JobStatus) *ErrJobNotReady {
	return &ErrJobNotReady{
		error:  fmt.Errorf("job %s still processing. status: %s", id, status),
		Status: status,
	}
}

// StageError aborts a pipeline run. Its text becomes the job's error.
type StageError struct {
	Stage string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed", e.Stage)
}

func newStageError(stage string) *StageError {
	return &StageError{Stage: stage}
}

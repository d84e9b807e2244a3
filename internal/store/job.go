package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jarvis-platform/orchestrator/internal/store/model"
)

// Job interface for job registry operations
type Job interface {
	Create(ctx context.Context, job model.Job) error
	Get(ctx context.Context, id string) (model.Job, error)
	UpdateStatus(ctx context.Context, id string, status model.JobStatus, result *model.PodcastResult, errMsg string) error
	ListIDs(ctx context.Context) []string
	Count(ctx context.Context) int
	DeleteFinishedBefore(ctx context.Context, t time.Time) int
}

// JobStore keeps job records in process memory. Records are copied on the
// way in and on the way out so callers never share state with the registry.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// Make sure we conform to Job interface
var _ Job = (*JobStore)(nil)

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*model.Job)}
}

// Create registers the job, replacing any record with the same id.
func (s *JobStore) Create(_ context.Context, job model.Job) error {
	if job.ID == "" {
		return fmt.Errorf("creating job: empty id")
	}
	j := job.DeepCopy()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = &j
	return nil
}

func (s *JobStore) Get(_ context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, found := s.jobs[id]
	if !found {
		return model.Job{}, ErrRecordNotFound
	}
	return j.DeepCopy(), nil
}

// UpdateStatus moves the job to status. A result or error message, when given,
// is attached to the record. Terminal records never change again.
func (s *JobStore) UpdateStatus(_ context.Context, id string, status model.JobStatus, result *model.PodcastResult, errMsg string) error {
	var r *model.PodcastResult
	if result != nil {
		c := result.DeepCopy()
		r = &c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, found := s.jobs[id]
	if !found {
		return ErrRecordNotFound
	}
	if j.Status.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, status)
	}

	j.Status = status
	j.UpdatedAt = time.Now().UTC()
	if r != nil {
		j.Result = r
	}
	if errMsg != "" {
		j.Error = errMsg
	}
	return nil
}

// ListIDs returns job ids ordered by creation time, ties broken by id.
func (s *JobStore) ListIDs(_ context.Context) []string {
	type entry struct {
		id        string
		createdAt time.Time
	}

	s.mu.RLock()
	entries := make([]entry, 0, len(s.jobs))
	for id, j := range s.jobs {
		entries = append(entries, entry{id: id, createdAt: j.CreatedAt})
	}
	s.mu.RUnlock()

	slices.SortFunc(entries, func(a, b entry) int {
		if c := a.createdAt.Compare(b.createdAt); c != 0 {
			return c
		}
		return strings.Compare(a.id, b.id)
	})

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.id)
	}
	return ids
}

func (s *JobStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// DeleteFinishedBefore evicts terminal jobs last updated before t and returns
// how many were removed.
func (s *JobStore) DeleteFinishedBefore(_ context.Context, t time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, j := range s.jobs {
		if j.Status.IsTerminal() && j.UpdatedAt.Before(t) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

package jobstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tobert/hootenanny/metrics"
)

var (
	// ErrNotFound is returned by Get/Cancel/MarkX for an unknown job id.
	ErrNotFound = errors.New("jobstore: job not found")
	// ErrInvalidTransition is returned when a transition would leave a
	// terminal state, or skip Pending/Running ordering.
	ErrInvalidTransition = errors.New("jobstore: invalid state transition")
)

// Store is an in-memory registry of async jobs plus a parallel map from job
// id to cancellation handle. All mutating operations hold mu only for the
// duration of a single state transition.
type Store struct {
	mu      sync.Mutex
	jobs    map[ID]*Info
	cancel  map[ID]context.CancelFunc
	now     func() time.Time
	metrics *metrics.JobStoreMetrics
}

// SetMetrics attaches a JobStoreMetrics collector; optional, safe to call
// once before concurrent use begins.
func (s *Store) SetMetrics(m *metrics.JobStoreMetrics) {
	s.metrics = m
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		jobs:   make(map[ID]*Info),
		cancel: make(map[ID]context.CancelFunc),
		now:    time.Now,
	}
}

// CreateJob inserts a Pending record for source (the invoking tool name)
// and returns a context the caller should thread through its work; cancel
// fires the store's cooperative cancellation for this job.
func (s *Store) CreateJob(ctx context.Context, source string) (ID, context.Context) {
	id := NewID()
	jobCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.jobs[id] = &Info{
		ID:        id,
		Source:    source,
		Status:    StatusPending,
		CreatedAt: s.now(),
	}
	s.cancel[id] = cancel
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.JobsTotal.WithLabelValues(source).Inc()
		s.metrics.JobsByState.WithLabelValues(StatusPending.String()).Inc()
	}
	return id, jobCtx
}

// MarkRunning transitions Pending -> Running.
func (s *Store) MarkRunning(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.lockedGet(id)
	if err != nil {
		return err
	}
	if job.Status != StatusPending {
		return fmt.Errorf("%w: %s -> running", ErrInvalidTransition, job.Status)
	}
	job.Status = StatusRunning
	started := s.now()
	job.StartedAt = &started
	if s.metrics != nil {
		s.metrics.JobsByState.WithLabelValues(StatusPending.String()).Dec()
		s.metrics.JobsByState.WithLabelValues(StatusRunning.String()).Inc()
	}
	return nil
}

// MarkComplete transitions Running -> Complete, recording result.
func (s *Store) MarkComplete(id ID, result []byte) error {
	return s.finish(id, StatusComplete, result, "")
}

// MarkFailed transitions Running -> Failed, recording errMsg.
func (s *Store) MarkFailed(id ID, errMsg string) error {
	return s.finish(id, StatusFailed, nil, errMsg)
}

// MarkCancelled transitions Pending|Running -> Cancelled.
func (s *Store) MarkCancelled(id ID) error {
	return s.finish(id, StatusCancelled, nil, "")
}

func (s *Store) finish(id ID, to Status, result []byte, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.lockedGet(id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() || (to != StatusCancelled && job.Status != StatusRunning) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, to)
	}
	from := job.Status
	job.Status = to
	completed := s.now()
	job.CompletedAt = &completed
	if result != nil {
		job.Result = result
	}
	if errMsg != "" {
		job.Error = errMsg
	}
	delete(s.cancel, id)
	if s.metrics != nil {
		s.metrics.JobsByState.WithLabelValues(from.String()).Dec()
		s.metrics.JobsByState.WithLabelValues(to.String()).Inc()
	}
	return nil
}

// SetProgress records a fractional progress value in [0, 1] on a non-
// terminal job.
func (s *Store) SetProgress(id ID, progress float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.lockedGet(id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return fmt.Errorf("%w: cannot set progress on terminal job", ErrInvalidTransition)
	}
	job.Progress = &progress
	return nil
}

// Cancel invokes the job's cancellation handle, if any, then records the
// Cancelled transition. It never blocks on the task observing cancellation.
func (s *Store) Cancel(id ID) error {
	s.mu.Lock()
	cancelFn, ok := s.cancel[id]
	s.mu.Unlock()
	if ok {
		cancelFn()
	}
	return s.finish(id, StatusCancelled, nil, "")
}

// Get returns a copy of a job's current state.
func (s *Store) Get(id ID) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.lockedGet(id)
	if err != nil {
		return Info{}, err
	}
	return *job, nil
}

// List returns a snapshot of all jobs, optionally filtered by status.
func (s *Store) List(filter *Status) []Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Info, 0, len(s.jobs))
	for _, job := range s.jobs {
		if filter != nil && job.Status != *filter {
			continue
		}
		out = append(out, *job)
	}
	return out
}

// Stats counts jobs in each status bucket. O(n) over the job map: unlike
// single-job transitions this is not required to be constant-time.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st Stats
	for _, job := range s.jobs {
		switch job.Status {
		case StatusPending:
			st.Pending++
		case StatusRunning:
			st.Running++
		case StatusComplete:
			st.Complete++
		case StatusFailed:
			st.Failed++
		case StatusCancelled:
			st.Cancelled++
		}
	}
	return st
}

func (s *Store) lockedGet(id ID) (*Info, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return job, nil
}

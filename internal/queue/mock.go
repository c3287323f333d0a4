package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Queue = (*MockQueue)(nil)

// MockQueue is an in-memory queue implementation for testing
type MockQueue struct {
	mu     sync.Mutex
	jobs   map[uuid.UUID]*Job
	config Config
	now    func() time.Time
}

// NewMockQueue creates a new in-memory mock queue
func NewMockQueue(config Config) *MockQueue {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultConfig().MaxAttempts
	}
	return &MockQueue{
		jobs:   make(map[uuid.UUID]*Job),
		config: config,
		now:    time.Now,
	}
}

func (m *MockQueue) Enqueue(ctx context.Context, jobs ...*Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, job := range jobs {
		job.ID = uuid.New()
		job.Status = JobStatusPending
		job.CreatedAt = now
		if job.MaxAttempts <= 0 {
			job.MaxAttempts = m.config.MaxAttempts
		}
		if job.ScheduledAt.IsZero() {
			job.ScheduledAt = now
		}
		stored := *job
		m.jobs[job.ID] = &stored
	}
	return nil
}

func (m *MockQueue) Dequeue(ctx context.Context, workerID string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var next *Job
	for _, job := range m.jobs {
		if job.Status != JobStatusPending || job.ScheduledAt.After(now) {
			continue
		}
		if next == nil || job.ScheduledAt.Before(next.ScheduledAt) ||
			(job.ScheduledAt.Equal(next.ScheduledAt) && job.CreatedAt.Before(next.CreatedAt)) {
			next = job
		}
	}
	if next == nil {
		return nil, nil
	}

	next.Status = JobStatusProcessing
	next.StartedAt = &now
	next.Attempts++
	next.WorkerID = workerID

	claimed := *next
	return &claimed, nil
}

func (m *MockQueue) Complete(ctx context.Context, jobID uuid.UUID, reportURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return fmt.Errorf("job not found: %s", jobID)
	}
	now := m.now()
	job.Status = JobStatusCompleted
	job.CompletedAt = &now
	job.ReportURL = reportURL
	job.Error = ""
	return nil
}

func (m *MockQueue) Fail(ctx context.Context, jobID uuid.UUID, errMsg string, retry bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return fmt.Errorf("job not found: %s", jobID)
	}
	now := m.now()
	job.Error = errMsg
	if !retry || job.Attempts >= job.MaxAttempts {
		job.Status = JobStatusFailed
		job.CompletedAt = &now
		return nil
	}
	job.Status = JobStatusPending
	job.ScheduledAt = now.Add(backoff(m.config.RetryBackoff, job.Attempts))
	return nil
}

func (m *MockQueue) FindJobs(ctx context.Context, filter JobFilter) ([]*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Job
	for _, job := range m.jobs {
		if filter.BatchID != nil && job.BatchID != *filter.BatchID {
			continue
		}
		if filter.InspectionID != nil && job.InspectionID != *filter.InspectionID {
			continue
		}
		if filter.Status != nil && job.Status != *filter.Status {
			continue
		}
		copied := *job
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockQueue) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, job := range m.jobs {
		if job.Status.IsFinal() && job.CompletedAt != nil && job.CompletedAt.Before(before) {
			delete(m.jobs, id)
			n++
		}
	}
	return n, nil
}

// Job returns a copy of a stored job (for testing).
func (m *MockQueue) Job(id uuid.UUID) (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// SetNow replaces the clock (for testing).
func (m *MockQueue) SetNow(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

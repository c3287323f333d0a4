// Package queue runs report regeneration in the background. Jobs are rows
// in PostgreSQL claimed with FOR UPDATE SKIP LOCKED, so several processes
// can share one table.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a job in the queue
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsFinal returns true once the job will not run again.
func (s JobStatus) IsFinal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// KindRegenerateReport renders and stores the report of one inspection.
const KindRegenerateReport = "regenerate_report"

// Job is one unit of background work. Jobs enqueued together share a
// BatchID so their progress can be followed as a whole.
type Job struct {
	ID           uuid.UUID  `json:"id"`
	BatchID      uuid.UUID  `json:"batchId"`
	Kind         string     `json:"kind"`
	InspectionID uuid.UUID  `json:"inspectionId"`
	ProfileID    uuid.UUID  `json:"profileId"`
	Status       JobStatus  `json:"status"`
	MaxAttempts  int        `json:"maxAttempts"`
	Attempts     int        `json:"attempts"`
	ScheduledAt  time.Time  `json:"scheduledAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	ReportURL    string     `json:"reportUrl,omitempty"`
	Error        string     `json:"error,omitempty"`
	WorkerID     string     `json:"-"`
}

// JobFilter defines filtering options for listing jobs
type JobFilter struct {
	BatchID      *uuid.UUID
	InspectionID *uuid.UUID
	Status       *JobStatus
	Limit        int
	Offset       int
}

// Queue defines the interface for job queue operations
type Queue interface {
	// Enqueue stores the jobs as pending. IDs, status and timestamps are
	// filled in on each job.
	Enqueue(ctx context.Context, jobs ...*Job) error

	// Dequeue claims the next pending job whose time has come.
	// Returns nil when nothing is ready.
	Dequeue(ctx context.Context, workerID string) (*Job, error)

	// Complete marks a job as done and records the stored report URL.
	Complete(ctx context.Context, jobID uuid.UUID, reportURL string) error

	// Fail records an error. When retry is set the job is retried with
	// exponential backoff until it runs out of attempts.
	Fail(ctx context.Context, jobID uuid.UUID, errMsg string, retry bool) error

	// FindJobs lists jobs, newest first.
	FindJobs(ctx context.Context, filter JobFilter) ([]*Job, error)

	// Cleanup deletes finished jobs completed before the given time.
	Cleanup(ctx context.Context, before time.Time) (int64, error)
}

// Config holds configuration for the queue and its workers.
type Config struct {
	WorkerCount      int           // Number of concurrent workers
	PollInterval     time.Duration // How often an idle worker polls
	JobTimeout       time.Duration // Upper bound for one job
	ShutdownTimeout  time.Duration // How long to wait for graceful shutdown
	CleanupInterval  time.Duration // How often finished jobs are pruned
	CleanupRetention time.Duration // How long finished jobs are kept
	MaxAttempts      int           // Attempts per job before it fails
	RetryBackoff     time.Duration // Delay before the first retry, doubled each time
}

// DefaultConfig returns default queue configuration
func DefaultConfig() Config {
	return Config{
		WorkerCount:      2,
		PollInterval:     time.Second,
		JobTimeout:       2 * time.Minute,
		ShutdownTimeout:  30 * time.Second,
		CleanupInterval:  time.Hour,
		CleanupRetention: 7 * 24 * time.Hour,
		MaxAttempts:      3,
		RetryBackoff:     30 * time.Second,
	}
}

// backoff returns the delay before the next attempt of a job that has
// already run attempts times.
func backoff(base time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return base << (attempts - 1)
}

package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// JobHandler processes one job and returns the URL of the stored report.
type JobHandler func(ctx context.Context, job *Job) (reportURL string, err error)

// permanentError marks a failure that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the job fails without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// WorkerPool manages a pool of workers that process jobs from the queue
type WorkerPool struct {
	queue    Queue
	logger   *slog.Logger
	config   Config
	handlers map[string]JobHandler // kind -> handler
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex

	processed *prometheus.CounterVec
}

// NewWorkerPool creates a new worker pool. reg may be nil.
func NewWorkerPool(queue Queue, logger *slog.Logger, config Config, reg prometheus.Registerer) *WorkerPool {
	def := DefaultConfig()
	if config.WorkerCount <= 0 {
		config.WorkerCount = def.WorkerCount
	}
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = def.JobTimeout
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = def.ShutdownTimeout
	}
	return &WorkerPool{
		queue:    queue,
		logger:   logger,
		config:   config,
		handlers: make(map[string]JobHandler),
		processed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "report_jobs_processed_total",
			Help: "Background report jobs processed, by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}

// RegisterHandler registers a handler for a job kind
func (wp *WorkerPool) RegisterHandler(kind string, handler JobHandler) {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	wp.handlers[kind] = handler
	wp.logger.Info("registered job handler", slog.String("kind", kind))
}

// Start starts the workers and, when configured, the cleanup loop.
func (wp *WorkerPool) Start(ctx context.Context) error {
	wp.mu.Lock()
	if wp.cancel != nil {
		wp.mu.Unlock()
		return fmt.Errorf("worker pool already started")
	}
	workerCtx, cancel := context.WithCancel(ctx)
	wp.cancel = cancel
	wp.mu.Unlock()

	for i := 0; i < wp.config.WorkerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(workerCtx, fmt.Sprintf("worker-%d", i+1))
	}
	if wp.config.CleanupInterval > 0 && wp.config.CleanupRetention > 0 {
		wp.wg.Add(1)
		go wp.cleanupLoop(workerCtx)
	}

	wp.logger.Info("worker pool started", slog.Int("worker_count", wp.config.WorkerCount))
	return nil
}

// Stop gracefully stops the worker pool
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	if wp.cancel == nil {
		wp.mu.Unlock()
		return fmt.Errorf("worker pool not started")
	}
	cancel := wp.cancel
	wp.cancel = nil
	wp.mu.Unlock()

	wp.logger.Info("stopping worker pool")
	cancel()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.logger.Info("worker pool stopped gracefully")
		return nil
	case <-time.After(wp.config.ShutdownTimeout):
		wp.logger.Warn("worker pool shutdown timeout", slog.Duration("timeout", wp.config.ShutdownTimeout))
		return fmt.Errorf("shutdown timeout after %v", wp.config.ShutdownTimeout)
	}
}

// worker polls the queue. After a job it looks again right away so a
// batch drains without waiting a poll interval per item.
func (wp *WorkerPool) worker(ctx context.Context, workerID string) {
	defer wp.wg.Done()

	ticker := time.NewTicker(wp.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for ctx.Err() == nil {
			ran, err := wp.ProcessNext(ctx, workerID)
			if err != nil {
				wp.logger.Error("failed to process job",
					slog.String("worker_id", workerID),
					slog.String("error", err.Error()),
				)
			}
			if !ran || err != nil {
				break
			}
		}
	}
}

// ProcessNext claims and runs a single job. It reports whether a job ran.
func (wp *WorkerPool) ProcessNext(ctx context.Context, workerID string) (bool, error) {
	job, err := wp.queue.Dequeue(ctx, workerID)
	if err != nil {
		return false, fmt.Errorf("failed to dequeue job: %w", err)
	}
	if job == nil {
		return false, nil
	}
	return true, wp.executeJob(ctx, job)
}

// executeJob runs the job handler and updates the job status
func (wp *WorkerPool) executeJob(ctx context.Context, job *Job) error {
	logger := wp.logger.With(
		slog.String("job_id", job.ID.String()),
		slog.String("kind", job.Kind),
		slog.String("inspection_id", job.InspectionID.String()),
	)
	logger.Info("processing job", slog.Int("attempt", job.Attempts))

	wp.mu.RLock()
	handler, ok := wp.handlers[job.Kind]
	wp.mu.RUnlock()

	// Job status writes must land even when the pool is stopping.
	statusCtx := context.WithoutCancel(ctx)

	if !ok {
		logger.Error("handler not found")
		wp.processed.WithLabelValues(job.Kind, "failed").Inc()
		return wp.queue.Fail(statusCtx, job.ID, "no handler registered for job kind "+job.Kind, false)
	}

	jobCtx, cancel := context.WithTimeout(ctx, wp.config.JobTimeout)
	defer cancel()

	start := time.Now()
	url, err := handler(jobCtx, job)
	duration := time.Since(start)

	if err != nil {
		var perm *permanentError
		retry := !errors.As(err, &perm)
		logger.Warn("job failed",
			slog.String("error", err.Error()),
			slog.Bool("retry", retry),
			slog.Duration("duration", duration),
		)
		wp.processed.WithLabelValues(job.Kind, "failed").Inc()
		return wp.queue.Fail(statusCtx, job.ID, err.Error(), retry)
	}

	logger.Info("job completed", slog.Duration("duration", duration))
	wp.processed.WithLabelValues(job.Kind, "completed").Inc()
	return wp.queue.Complete(statusCtx, job.ID, url)
}

func (wp *WorkerPool) cleanupLoop(ctx context.Context) {
	defer wp.wg.Done()

	ticker := time.NewTicker(wp.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := wp.queue.Cleanup(ctx, time.Now().Add(-wp.config.CleanupRetention))
			if err != nil {
				wp.logger.Error("cleanup failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				wp.logger.Info("finished jobs removed", slog.Int64("count", n))
			}
		}
	}
}

package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Verify PostgresQueue implements Queue interface
var _ Queue = (*PostgresQueue)(nil)

const jobColumns = `
	id, batch_id, kind, inspection_id, profile_id,
	status, max_attempts, attempts,
	scheduled_at, created_at, started_at, completed_at,
	report_url, error_message, worker_id`

// PostgresQueue implements the Queue interface using PostgreSQL
type PostgresQueue struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	config Config
}

// NewPostgresQueue creates a new PostgreSQL-backed queue. The report_jobs
// table comes from the embedded migrations.
func NewPostgresQueue(pool *pgxpool.Pool, logger *slog.Logger, config Config) *PostgresQueue {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = DefaultConfig().RetryBackoff
	}
	return &PostgresQueue{
		pool:   pool,
		logger: logger,
		config: config,
	}
}

// Enqueue inserts every job in one transaction.
func (q *PostgresQueue) Enqueue(ctx context.Context, jobs ...*Job) error {
	if len(jobs) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, q.pool, func(tx pgx.Tx) error {
		for _, job := range jobs {
			if job.MaxAttempts <= 0 {
				job.MaxAttempts = q.config.MaxAttempts
			}
			if job.ScheduledAt.IsZero() {
				job.ScheduledAt = time.Now()
			}

			err := tx.QueryRow(ctx, `
				INSERT INTO report_jobs (
					batch_id, kind, inspection_id, profile_id,
					max_attempts, scheduled_at
				) VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id, status, created_at`,
				job.BatchID, job.Kind, job.InspectionID, job.ProfileID,
				job.MaxAttempts, job.ScheduledAt,
			).Scan(&job.ID, &job.Status, &job.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to enqueue job: %w", err)
			}
		}

		q.logger.Debug("jobs enqueued", slog.Int("count", len(jobs)))
		return nil
	})
}

// Dequeue retrieves and locks the next available job
func (q *PostgresQueue) Dequeue(ctx context.Context, workerID string) (*Job, error) {
	row := q.pool.QueryRow(ctx, `
		UPDATE report_jobs
		SET
			status = 'processing',
			started_at = NOW(),
			attempts = attempts + 1,
			worker_id = $1
		WHERE id = (
			SELECT id
			FROM report_jobs
			WHERE status = 'pending'
			  AND scheduled_at <= NOW()
			ORDER BY scheduled_at ASC, created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING `+jobColumns, workerID)

	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}

	q.logger.Debug("job dequeued",
		slog.String("job_id", job.ID.String()),
		slog.String("worker", workerID),
	)
	return job, nil
}

// Complete marks a job as successfully completed
func (q *PostgresQueue) Complete(ctx context.Context, jobID uuid.UUID, reportURL string) error {
	_, err := q.pool.Exec(ctx, `
		UPDATE report_jobs
		SET status = 'completed', completed_at = NOW(), report_url = $1, error_message = NULL
		WHERE id = $2`,
		reportURL, jobID)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

// Fail marks a job as failed and schedules retry if attempts remain
func (q *PostgresQueue) Fail(ctx context.Context, jobID uuid.UUID, errMsg string, retry bool) error {
	var status JobStatus
	var attempts, maxAttempts int
	err := q.pool.QueryRow(ctx, `
		UPDATE report_jobs
		SET
			status = CASE WHEN NOT $4::boolean OR attempts >= max_attempts THEN 'failed' ELSE 'pending' END,
			error_message = $1,
			scheduled_at = CASE
				WHEN $4 AND attempts < max_attempts
				THEN NOW() + ($3::bigint * POW(2, GREATEST(attempts, 1) - 1)) * INTERVAL '1 millisecond'
				ELSE scheduled_at
			END,
			completed_at = CASE WHEN NOT $4 OR attempts >= max_attempts THEN NOW() ELSE NULL END
		WHERE id = $2
		RETURNING status, attempts, max_attempts`,
		errMsg, jobID, q.config.RetryBackoff.Milliseconds(), retry,
	).Scan(&status, &attempts, &maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to mark job as failed: %w", err)
	}

	if status == JobStatusFailed {
		q.logger.Warn("job permanently failed",
			slog.String("job_id", jobID.String()),
			slog.Int("attempts", attempts),
			slog.String("error", errMsg),
		)
	} else {
		q.logger.Debug("job failed, will retry",
			slog.String("job_id", jobID.String()),
			slog.Int("attempt", attempts),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("retry_in", backoff(q.config.RetryBackoff, attempts)),
		)
	}
	return nil
}

// FindJobs retrieves jobs with filtering
func (q *PostgresQueue) FindJobs(ctx context.Context, filter JobFilter) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM report_jobs WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.BatchID != nil {
		query += " AND batch_id = " + arg(*filter.BatchID)
	}
	if filter.InspectionID != nil {
		query += " AND inspection_id = " + arg(*filter.InspectionID)
	}
	if filter.Status != nil {
		query += " AND status = " + arg(string(*filter.Status))
	}

	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Cleanup deletes completed and failed jobs finished before the cutoff.
func (q *PostgresQueue) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	tag, err := q.pool.Exec(ctx, `
		DELETE FROM report_jobs
		WHERE status IN ('completed', 'failed') AND completed_at < $1`,
		before)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanJob is a helper to scan a job from a row
func scanJob(row pgx.Row) (*Job, error) {
	var job Job
	var startedAt, completedAt pgtype.Timestamptz
	var reportURL, errorMessage, workerID pgtype.Text

	err := row.Scan(
		&job.ID, &job.BatchID, &job.Kind, &job.InspectionID, &job.ProfileID,
		&job.Status, &job.MaxAttempts, &job.Attempts,
		&job.ScheduledAt, &job.CreatedAt, &startedAt, &completedAt,
		&reportURL, &errorMessage, &workerID,
	)
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	job.ReportURL = reportURL.String
	job.Error = errorMessage.String
	job.WorkerID = workerID.String
	return &job, nil
}

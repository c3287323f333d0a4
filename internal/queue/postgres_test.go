package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dukerupert/fleetcheck/internal/migrations"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestQueue connects to GOOSE_DBSTRING and returns a queue plus an
// inspection and profile the jobs can reference.
func setupTestQueue(t *testing.T) (*PostgresQueue, uuid.UUID, uuid.UUID) {
	t.Helper()

	connString := os.Getenv("GOOSE_DBSTRING")
	if connString == "" {
		t.Skip("GOOSE_DBSTRING not set, skipping integration tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)
	require.NoError(t, migrations.Up(pool, testLogger()))

	truncate := func() {
		_, _ = pool.Exec(ctx, `TRUNCATE report_jobs, inspections, profiles`)
	}
	truncate()
	t.Cleanup(func() {
		truncate()
		pool.Close()
	})

	var profileID, inspectionID uuid.UUID
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO profiles (first_name, role) VALUES ('Rui', 'editor') RETURNING id`).Scan(&profileID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO inspections (inspection_date) VALUES (NOW()) RETURNING id`).Scan(&inspectionID))

	cfg := testConfig()
	cfg.RetryBackoff = time.Hour
	return NewPostgresQueue(pool, testLogger(), cfg), profileID, inspectionID
}

func TestPostgresQueue_Lifecycle(t *testing.T) {
	q, profileID, inspectionID := setupTestQueue(t)
	ctx := context.Background()

	batchID, jobs, err := EnqueueRegeneration(ctx, q, profileID, []uuid.UUID{inspectionID})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, JobStatusPending, jobs[0].Status)

	job, err := q.Dequeue(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, jobs[0].ID, job.ID)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, "w1", job.WorkerID)

	// Claimed jobs are invisible to other workers.
	other, err := q.Dequeue(ctx, "w2")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, q.Fail(ctx, job.ID, "boom", true))
	found, err := q.FindJobs(ctx, JobFilter{BatchID: &batchID})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, JobStatusPending, found[0].Status)
	assert.True(t, found[0].ScheduledAt.After(time.Now().Add(50*time.Minute)))

	// Backoff keeps it out of reach.
	next, err := q.Dequeue(ctx, "w1")
	require.NoError(t, err)
	assert.Nil(t, next)

	require.NoError(t, q.Complete(ctx, job.ID, "https://files/r.pdf"))
	found, err = q.FindJobs(ctx, JobFilter{BatchID: &batchID})
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, found[0].Status)
	assert.Equal(t, "https://files/r.pdf", found[0].ReportURL)
	assert.Empty(t, found[0].Error)

	n, err := q.Cleanup(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPostgresQueue_FailWithoutRetry(t *testing.T) {
	q, profileID, inspectionID := setupTestQueue(t)
	ctx := context.Background()

	_, jobs, err := EnqueueRegeneration(ctx, q, profileID, []uuid.UUID{inspectionID})
	require.NoError(t, err)

	job, err := q.Dequeue(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, job)

	require.NoError(t, q.Fail(ctx, job.ID, "missing vehicle", false))

	status := JobStatusFailed
	found, err := q.FindJobs(ctx, JobFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, jobs[0].ID, found[0].ID)
	assert.NotNil(t, found[0].CompletedAt)
}

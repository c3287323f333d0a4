package queue

import (
	"context"
	"fmt"

	"github.com/dukerupert/fleetcheck"
	"github.com/google/uuid"
)

// ReportHandler regenerates the report of job.InspectionID on behalf of
// job.ProfileID. Missing inspections, profiles and selections are not
// retried.
func ReportHandler(reports fleetcheck.ReportService, profiles fleetcheck.ProfileService) JobHandler {
	return func(ctx context.Context, job *Job) (string, error) {
		profile, err := profiles.FindProfileByID(ctx, job.ProfileID)
		if err != nil {
			return "", permanentIf(err)
		}
		rep, err := reports.GenerateReport(ctx, job.InspectionID, profile)
		if err != nil {
			return "", permanentIf(err)
		}
		return rep.URL, nil
	}
}

func permanentIf(err error) error {
	switch fleetcheck.ErrorCode(err) {
	case fleetcheck.EINVALID, fleetcheck.ENOTFOUND, fleetcheck.EFORBIDDEN:
		return Permanent(err)
	}
	return err
}

// EnqueueRegeneration queues one regeneration job per distinct inspection
// id under a new batch.
func EnqueueRegeneration(ctx context.Context, q Queue, profileID uuid.UUID, ids []uuid.UUID) (uuid.UUID, []*Job, error) {
	batchID := uuid.New()
	seen := make(map[uuid.UUID]bool, len(ids))
	jobs := make([]*Job, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		jobs = append(jobs, &Job{
			BatchID:      batchID,
			Kind:         KindRegenerateReport,
			InspectionID: id,
			ProfileID:    profileID,
		})
	}
	if len(jobs) == 0 {
		return uuid.Nil, nil, fmt.Errorf("no inspections to regenerate")
	}
	if err := q.Enqueue(ctx, jobs...); err != nil {
		return uuid.Nil, nil, err
	}
	return batchID, jobs, nil
}

// BatchStatus summarizes the jobs of one batch.
type BatchStatus struct {
	BatchID    uuid.UUID `json:"batchId"`
	Pending    int       `json:"pending"`
	Processing int       `json:"processing"`
	Completed  int       `json:"completed"`
	Failed     int       `json:"failed"`
	Done       bool      `json:"done"`
	Jobs       []*Job    `json:"jobs"`
}

// Summarize counts jobs by status. A batch is done once every job is final.
func Summarize(batchID uuid.UUID, jobs []*Job) *BatchStatus {
	st := &BatchStatus{BatchID: batchID, Jobs: jobs, Done: true}
	if st.Jobs == nil {
		st.Jobs = []*Job{}
	}
	for _, j := range jobs {
		switch j.Status {
		case JobStatusPending:
			st.Pending++
		case JobStatusProcessing:
			st.Processing++
		case JobStatusCompleted:
			st.Completed++
		case JobStatusFailed:
			st.Failed++
		}
		if !j.Status.IsFinal() {
			st.Done = false
		}
	}
	return st
}

package mock

import (
	"context"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/google/uuid"
)

// Compile-time interface check
var _ fleetcheck.InspectionService = (*InspectionService)(nil)

// InspectionService is a mock implementation of fleetcheck.InspectionService.
type InspectionService struct {
	FindInspectionByIDFn     func(ctx context.Context, id uuid.UUID) (*fleetcheck.Inspection, error)
	FindInspectionsFn        func(ctx context.Context, filter fleetcheck.InspectionFilter) ([]*fleetcheck.Inspection, int, error)
	CreateInspectionFn       func(ctx context.Context, inspection *fleetcheck.Inspection) error
	UpdateInspectionFn       func(ctx context.Context, id uuid.UUID, upd fleetcheck.InspectionUpdate) (*fleetcheck.Inspection, error)
	SetAnswerFn              func(ctx context.Context, id uuid.UUID, key string, answer fleetcheck.Answer) (*fleetcheck.Inspection, error)
	UpdateInspectionStatusFn func(ctx context.Context, id uuid.UUID, status fleetcheck.InspectionStatus) (*fleetcheck.Inspection, error)
	SetReportURLFn           func(ctx context.Context, id uuid.UUID, url string) error
}

func (s *InspectionService) FindInspectionByID(ctx context.Context, id uuid.UUID) (*fleetcheck.Inspection, error) {
	if s.FindInspectionByIDFn != nil {
		return s.FindInspectionByIDFn(ctx, id)
	}
	return nil, fleetcheck.NotFound("Inspection not found")
}

func (s *InspectionService) FindInspections(ctx context.Context, filter fleetcheck.InspectionFilter) ([]*fleetcheck.Inspection, int, error) {
	if s.FindInspectionsFn != nil {
		return s.FindInspectionsFn(ctx, filter)
	}
	return []*fleetcheck.Inspection{}, 0, nil
}

func (s *InspectionService) CreateInspection(ctx context.Context, inspection *fleetcheck.Inspection) error {
	if s.CreateInspectionFn != nil {
		return s.CreateInspectionFn(ctx, inspection)
	}
	inspection.ID = uuid.New()
	inspection.Status = fleetcheck.InspectionStatusDraft
	inspection.CreatedAt = time.Now()
	inspection.UpdatedAt = time.Now()
	return nil
}

func (s *InspectionService) UpdateInspection(ctx context.Context, id uuid.UUID, upd fleetcheck.InspectionUpdate) (*fleetcheck.Inspection, error) {
	if s.UpdateInspectionFn != nil {
		return s.UpdateInspectionFn(ctx, id, upd)
	}
	return nil, fleetcheck.NotFound("Inspection not found")
}

func (s *InspectionService) SetAnswer(ctx context.Context, id uuid.UUID, key string, answer fleetcheck.Answer) (*fleetcheck.Inspection, error) {
	if s.SetAnswerFn != nil {
		return s.SetAnswerFn(ctx, id, key, answer)
	}
	return nil, fleetcheck.NotFound("Inspection not found")
}

func (s *InspectionService) UpdateInspectionStatus(ctx context.Context, id uuid.UUID, status fleetcheck.InspectionStatus) (*fleetcheck.Inspection, error) {
	if s.UpdateInspectionStatusFn != nil {
		return s.UpdateInspectionStatusFn(ctx, id, status)
	}
	return nil, fleetcheck.NotFound("Inspection not found")
}

func (s *InspectionService) SetReportURL(ctx context.Context, id uuid.UUID, url string) error {
	if s.SetReportURLFn != nil {
		return s.SetReportURLFn(ctx, id, url)
	}
	return nil
}

package mock

import (
	"context"

	"github.com/dukerupert/fleetcheck"
	"github.com/google/uuid"
)

// Compile-time interface check
var _ fleetcheck.ReportService = (*ReportService)(nil)

// ReportService is a mock implementation of fleetcheck.ReportService.
type ReportService struct {
	BuildContextFn      func(ctx context.Context, inspection *fleetcheck.Inspection, profile *fleetcheck.Profile) (*fleetcheck.ReportContext, error)
	RenderPDFFn         func(ctx context.Context, inspection *fleetcheck.Inspection, profile *fleetcheck.Profile) ([]byte, error)
	GenerateReportFn    func(ctx context.Context, inspectionID uuid.UUID, profile *fleetcheck.Profile) (*fleetcheck.GeneratedReport, error)
	StoreReportFn       func(ctx context.Context, inspectionID uuid.UUID, data []byte, pages int) (*fleetcheck.GeneratedReport, error)
	SubmitInspectionFn  func(ctx context.Context, inspectionID uuid.UUID, profile *fleetcheck.Profile) (*fleetcheck.GeneratedReport, error)
	RegenerateReportsFn func(ctx context.Context, ids []uuid.UUID, profile *fleetcheck.Profile) (*fleetcheck.BatchResult, error)
}

func (s *ReportService) BuildContext(ctx context.Context, inspection *fleetcheck.Inspection, profile *fleetcheck.Profile) (*fleetcheck.ReportContext, error) {
	if s.BuildContextFn != nil {
		return s.BuildContextFn(ctx, inspection, profile)
	}
	return &fleetcheck.ReportContext{Inspection: inspection}, nil
}

func (s *ReportService) RenderPDF(ctx context.Context, inspection *fleetcheck.Inspection, profile *fleetcheck.Profile) ([]byte, error) {
	if s.RenderPDFFn != nil {
		return s.RenderPDFFn(ctx, inspection, profile)
	}
	return []byte("%PDF-1.3\n%%EOF\n"), nil
}

func (s *ReportService) GenerateReport(ctx context.Context, inspectionID uuid.UUID, profile *fleetcheck.Profile) (*fleetcheck.GeneratedReport, error) {
	if s.GenerateReportFn != nil {
		return s.GenerateReportFn(ctx, inspectionID, profile)
	}
	return &fleetcheck.GeneratedReport{InspectionID: inspectionID}, nil
}

func (s *ReportService) StoreReport(ctx context.Context, inspectionID uuid.UUID, data []byte, pages int) (*fleetcheck.GeneratedReport, error) {
	if s.StoreReportFn != nil {
		return s.StoreReportFn(ctx, inspectionID, data, pages)
	}
	return &fleetcheck.GeneratedReport{InspectionID: inspectionID, Pages: pages, Size: len(data)}, nil
}

func (s *ReportService) SubmitInspection(ctx context.Context, inspectionID uuid.UUID, profile *fleetcheck.Profile) (*fleetcheck.GeneratedReport, error) {
	if s.SubmitInspectionFn != nil {
		return s.SubmitInspectionFn(ctx, inspectionID, profile)
	}
	return &fleetcheck.GeneratedReport{InspectionID: inspectionID}, nil
}

func (s *ReportService) RegenerateReports(ctx context.Context, ids []uuid.UUID, profile *fleetcheck.Profile) (*fleetcheck.BatchResult, error) {
	if s.RegenerateReportsFn != nil {
		return s.RegenerateReportsFn(ctx, ids, profile)
	}
	return &fleetcheck.BatchResult{}, nil
}

// Package reporting builds, renders and stores inspection reports on top of
// the domain services.
package reporting

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/dukerupert/fleetcheck/pdf"
	"github.com/dukerupert/fleetcheck/report"
	"github.com/google/uuid"
)

// Compile-time interface check
var _ fleetcheck.ReportService = (*Service)(nil)

// Config holds reporting settings.
type Config struct {
	// Strings are the fixed report texts. Defaults to Portuguese.
	Strings *report.Strings

	// Categories maps vehicle categories to checklist groups.
	Categories *fleetcheck.CategoryTable

	// BatchDelay is the pause between inspections in a bulk regeneration.
	BatchDelay time.Duration

	// KeyPrefix is the storage prefix for report documents.
	KeyPrefix string
}

// Service implements fleetcheck.ReportService.
type Service struct {
	InspectionService    fleetcheck.InspectionService
	VehicleService       fleetcheck.VehicleService
	ProfileService       fleetcheck.ProfileService
	CategoryService      fleetcheck.CategoryService
	ChecklistItemService fleetcheck.ChecklistItemService
	FileStorage          fleetcheck.FileStorage

	Renderer *pdf.Renderer
	Metrics  *Metrics

	// OnBatchItem, when set, is called after each bulk regeneration item.
	OnBatchItem func(index, total int, item fleetcheck.BatchItemResult)

	config Config
	logger *slog.Logger
	now    func() time.Time
}

// NewService returns a Service. Dependencies are assigned by the caller.
func NewService(logger *slog.Logger, config Config) *Service {
	if config.Strings == nil {
		config.Strings = &report.PortugueseStrings
	}
	if config.Categories == nil {
		config.Categories = fleetcheck.DefaultCategoryTable()
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "reports"
	}
	return &Service{
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Strings returns the report texts in use.
func (s *Service) Strings() *report.Strings {
	return s.config.Strings
}

// BuildContext resolves everything a report about inspection needs. Preview
// and export both go through here so they always show the same data.
func (s *Service) BuildContext(ctx context.Context, inspection *fleetcheck.Inspection, profile *fleetcheck.Profile) (*fleetcheck.ReportContext, error) {
	if inspection == nil {
		return nil, fleetcheck.Invalid("Inspection is required")
	}

	var vehicles []*fleetcheck.Vehicle
	if inspection.VehicleID != uuid.Nil {
		v, err := s.VehicleService.FindVehicleByID(ctx, inspection.VehicleID)
		if err != nil && !fleetcheck.IsErrorCode(err, fleetcheck.ENOTFOUND) {
			return nil, err
		}
		if v != nil {
			vehicles = append(vehicles, v)
		}
	}

	inspectors, err := s.ProfileService.FindInspectors(ctx)
	if err != nil {
		return nil, err
	}

	vehicle, inspector, err := fleetcheck.ResolveSelection(inspection.Selection(), vehicles, inspectors, profile)
	if err != nil {
		return nil, err
	}

	group := s.config.Categories.ResolveGroup(vehicle.Category)
	items, err := s.ChecklistItemService.FindItemsForCategory(ctx, group)
	if err != nil {
		return nil, err
	}
	sorted := make([]*fleetcheck.ChecklistItem, len(items))
	copy(sorted, items)
	fleetcheck.SortChecklistItems(sorted)

	label := vehicle.Category
	if s.CategoryService != nil {
		if l, err := s.CategoryService.CategoryLabel(ctx, vehicle.Category); err != nil {
			s.logger.Warn("category label lookup failed",
				slog.String("category", vehicle.Category),
				slog.String("error", err.Error()))
		} else if l != "" {
			label = l
		}
	}

	var issuer fleetcheck.Company
	if profile != nil {
		issuer = profile.Company
	}

	return &fleetcheck.ReportContext{
		Inspection:    inspection,
		Vehicle:       vehicle,
		Inspector:     inspector,
		Issuer:        issuer,
		CategoryLabel: label,
		Items:         sorted,
		Answers:       inspection.Answers.Clone(),
		GeneratedAt:   s.now(),
	}, nil
}

// Compose builds the report document for an inspection.
func (s *Service) Compose(ctx context.Context, inspection *fleetcheck.Inspection, profile *fleetcheck.Profile) (*report.Document, error) {
	rc, err := s.BuildContext(ctx, inspection, profile)
	if err != nil {
		return nil, err
	}
	return report.Compose(rc, s.config.Strings), nil
}

func (s *Service) render(ctx context.Context, inspection *fleetcheck.Inspection, profile *fleetcheck.Profile) (*pdf.Output, error) {
	doc, err := s.Compose(ctx, inspection, profile)
	if err != nil {
		return nil, err
	}
	out, err := s.Renderer.Render(ctx, doc, s.config.Strings)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fleetcheck.Internal("Failed to render report", err)
	}
	return out, nil
}

// RenderPDF renders the report for inspection without storing it.
func (s *Service) RenderPDF(ctx context.Context, inspection *fleetcheck.Inspection, profile *fleetcheck.Profile) ([]byte, error) {
	out, err := s.render(ctx, inspection, profile)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GenerateReport renders, uploads and links the report of an inspection.
func (s *Service) GenerateReport(ctx context.Context, inspectionID uuid.UUID, profile *fleetcheck.Profile) (*fleetcheck.GeneratedReport, error) {
	start := time.Now()
	rep, err := s.generate(ctx, inspectionID, profile)
	if err != nil {
		s.Metrics.observeGenerated(outcomeFailure, start, 0, 0)
		return nil, err
	}
	s.Metrics.observeGenerated(outcomeSuccess, start, rep.Pages, rep.Size)
	return rep, nil
}

func (s *Service) generate(ctx context.Context, inspectionID uuid.UUID, profile *fleetcheck.Profile) (*fleetcheck.GeneratedReport, error) {
	inspection, err := s.InspectionService.FindInspectionByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	out, err := s.render(ctx, inspection, profile)
	if err != nil {
		return nil, err
	}
	return s.StoreReport(ctx, inspectionID, out.Data, out.Pages)
}

// StoreReport uploads a rendered document under
// <prefix>/<inspection-id>/<timestamp>.pdf and records its URL.
func (s *Service) StoreReport(ctx context.Context, inspectionID uuid.UUID, data []byte, pages int) (*fleetcheck.GeneratedReport, error) {
	if len(data) == 0 {
		return nil, fleetcheck.Invalid("Report document is empty")
	}

	generatedAt := s.now().UTC()
	key := ReportKey(s.config.KeyPrefix, inspectionID, generatedAt)

	url, err := s.FileStorage.Upload(ctx, key, bytes.NewReader(data), "application/pdf")
	if err != nil {
		return nil, fleetcheck.Internal("Failed to store report", err)
	}

	if err := s.InspectionService.SetReportURL(ctx, inspectionID, url); err != nil {
		if delErr := s.FileStorage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn("failed to remove orphaned report",
				slog.String("key", key),
				slog.String("error", delErr.Error()))
		}
		return nil, err
	}

	s.logger.Info("report stored",
		slog.String("inspection_id", inspectionID.String()),
		slog.String("key", key),
		slog.Int("pages", pages),
		slog.Int("size", len(data)))

	return &fleetcheck.GeneratedReport{
		InspectionID: inspectionID,
		URL:          url,
		Key:          key,
		Pages:        pages,
		Size:         len(data),
		GeneratedAt:  generatedAt,
	}, nil
}

// ReportKey returns the storage key of a report generated at t.
func ReportKey(prefix string, inspectionID uuid.UUID, t time.Time) string {
	return fmt.Sprintf("%s/%s/%s.pdf", prefix, inspectionID, t.UTC().Format("20060102T150405.000Z"))
}

// SubmitInspection completes a draft and stores its report. The report is
// rendered and stored before the status changes, so any failure leaves the
// draft in place and the submit can be retried.
func (s *Service) SubmitInspection(ctx context.Context, inspectionID uuid.UUID, profile *fleetcheck.Profile) (*fleetcheck.GeneratedReport, error) {
	start := time.Now()

	inspection, err := s.InspectionService.FindInspectionByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	if !inspection.Status.CanTransitionTo(fleetcheck.InspectionStatusCompleted) {
		return nil, fleetcheck.Invalid("Only draft inspections can be submitted")
	}

	out, err := s.render(ctx, inspection, profile)
	if err != nil {
		s.Metrics.observeGenerated(outcomeFailure, start, 0, 0)
		return nil, err
	}

	rep, err := s.StoreReport(ctx, inspectionID, out.Data, out.Pages)
	if err != nil {
		s.Metrics.observeGenerated(outcomeFailure, start, 0, 0)
		return nil, err
	}

	if _, err := s.InspectionService.UpdateInspectionStatus(ctx, inspectionID, fleetcheck.InspectionStatusCompleted); err != nil {
		s.Metrics.observeGenerated(outcomeFailure, start, 0, 0)
		return nil, err
	}
	s.Metrics.observeGenerated(outcomeSuccess, start, rep.Pages, rep.Size)
	return rep, nil
}

// RegenerateReports regenerates one inspection at a time, waiting
// BatchDelay between items. A failed item is recorded and the batch moves
// on. When ctx is cancelled the remaining items are marked skipped and the
// partial result is returned with the context error.
func (s *Service) RegenerateReports(ctx context.Context, ids []uuid.UUID, profile *fleetcheck.Profile) (*fleetcheck.BatchResult, error) {
	result := &fleetcheck.BatchResult{Items: make([]fleetcheck.BatchItemResult, 0, len(ids))}
	seen := make(map[uuid.UUID]bool, len(ids))

	s.logger.Info("report regeneration started",
		slog.Int("count", len(ids)),
		slog.Duration("delay", s.config.BatchDelay))

	processed := 0
	for i, id := range ids {
		var item fleetcheck.BatchItemResult
		switch {
		case ctx.Err() != nil:
			item = s.skip(result, id, "cancelled")
		case seen[id]:
			item = s.skip(result, id, "duplicate")
		default:
			seen[id] = true
			if processed > 0 && s.config.BatchDelay > 0 {
				if err := sleep(ctx, s.config.BatchDelay); err != nil {
					item = s.skip(result, id, "cancelled")
					break
				}
			}
			processed++
			item = s.regenerateOne(ctx, result, id, profile)
		}
		if s.OnBatchItem != nil {
			s.OnBatchItem(i, len(ids), item)
		}
	}

	s.logger.Info("report regeneration finished",
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped))

	return result, ctx.Err()
}

func (s *Service) regenerateOne(ctx context.Context, result *fleetcheck.BatchResult, id uuid.UUID, profile *fleetcheck.Profile) fleetcheck.BatchItemResult {
	rep, err := s.GenerateReport(ctx, id, profile)
	if err != nil {
		s.logger.Warn("report regeneration failed",
			slog.String("inspection_id", id.String()),
			slog.String("error", err.Error()))
		s.Metrics.observeBatchItem(outcomeFailure)
		item := fleetcheck.BatchItemResult{InspectionID: id, Error: err.Error()}
		result.Failed++
		result.Items = append(result.Items, item)
		return item
	}
	s.Metrics.observeBatchItem(outcomeSuccess)
	item := fleetcheck.BatchItemResult{InspectionID: id, Report: rep}
	result.Succeeded++
	result.Items = append(result.Items, item)
	return item
}

func (s *Service) skip(result *fleetcheck.BatchResult, id uuid.UUID, reason string) fleetcheck.BatchItemResult {
	s.Metrics.observeBatchItem(outcomeSkipped)
	item := fleetcheck.BatchItemResult{InspectionID: id, Error: reason, Skipped: true}
	result.Skipped++
	result.Items = append(result.Items, item)
	return item
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

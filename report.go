package fleetcheck

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReportContext is everything needed to lay out one inspection report.
// It is built once per render and never mutated afterwards.
type ReportContext struct {
	Inspection *Inspection
	Vehicle    *Vehicle
	Inspector  *Inspector
	Issuer     Company

	// CategoryLabel is the display label of the vehicle's category.
	CategoryLabel string

	// Items are the active checklist items for the vehicle's group,
	// sorted by Order.
	Items   []*ChecklistItem
	Answers AnswerMap

	GeneratedAt time.Time
}

// GeneratedReport describes a stored report document.
type GeneratedReport struct {
	InspectionID uuid.UUID `json:"inspectionId"`
	URL          string    `json:"url"`
	Key          string    `json:"key"`
	Pages        int       `json:"pages"`
	Size         int       `json:"size"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

// BatchItemResult is the outcome of one inspection in a bulk regeneration.
type BatchItemResult struct {
	InspectionID uuid.UUID        `json:"inspectionId"`
	Report       *GeneratedReport `json:"report,omitempty"`
	Error        string           `json:"error,omitempty"`
	Skipped      bool             `json:"skipped,omitempty"`
}

// BatchResult summarizes a bulk regeneration.
type BatchResult struct {
	Items     []BatchItemResult `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Skipped   int               `json:"skipped"`
}

// ReportService builds, previews and stores inspection reports.
type ReportService interface {
	// BuildContext resolves the report context for an inspection as seen by
	// profile. Returns EINVALID with a field when the vehicle or inspector
	// cannot be resolved.
	BuildContext(ctx context.Context, inspection *Inspection, profile *Profile) (*ReportContext, error)

	// RenderPDF renders the report document for an inspection.
	RenderPDF(ctx context.Context, inspection *Inspection, profile *Profile) ([]byte, error)

	// GenerateReport renders the report, stores it and records its URL on
	// the inspection.
	GenerateReport(ctx context.Context, inspectionID uuid.UUID, profile *Profile) (*GeneratedReport, error)

	// StoreReport uploads an already rendered document, such as a capture
	// of the live preview, and records its URL on the inspection.
	StoreReport(ctx context.Context, inspectionID uuid.UUID, data []byte, pages int) (*GeneratedReport, error)

	// SubmitInspection completes a draft inspection and generates its report.
	SubmitInspection(ctx context.Context, inspectionID uuid.UUID, profile *Profile) (*GeneratedReport, error)

	// RegenerateReports regenerates reports one inspection at a time.
	// A failed inspection is recorded and the batch moves on.
	RegenerateReports(ctx context.Context, ids []uuid.UUID, profile *Profile) (*BatchResult, error)
}

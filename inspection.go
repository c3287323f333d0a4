package fleetcheck

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Inspection represents one vehicle inspection filled by an inspector.
type Inspection struct {
	ID               uuid.UUID        `json:"id"`
	VehicleID        uuid.UUID        `json:"vehicleId"`
	InspectorID      uuid.UUID        `json:"inspectorId,omitempty"`
	InspectionDate   time.Time        `json:"inspectionDate"`
	Mileage          *int             `json:"mileage,omitempty"`
	CostCenter       string           `json:"costCenter,omitempty"`
	OverallCondition string           `json:"overallCondition,omitempty"`
	AdditionalNotes  string           `json:"additionalNotes,omitempty"`
	InteriorPhotoURL string           `json:"interiorPhotoUrl,omitempty"`
	ExteriorPhotoURL string           `json:"exteriorPhotoUrl,omitempty"`
	SignatureURL     string           `json:"signatureUrl,omitempty"`
	Status           InspectionStatus `json:"status"`
	Answers          AnswerMap        `json:"answers"`
	ReportURL        string           `json:"reportUrl,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Selection returns the vehicle and inspector chosen on the inspection.
func (i *Inspection) Selection() Selection {
	return Selection{VehicleID: i.VehicleID, InspectorID: i.InspectorID}
}

// InspectionStatus represents the status of an inspection.
type InspectionStatus string

const (
	InspectionStatusDraft     InspectionStatus = "draft"
	InspectionStatusCompleted InspectionStatus = "completed"
	InspectionStatusReviewed  InspectionStatus = "reviewed"
	InspectionStatusCancelled InspectionStatus = "cancelled"
)

// IsEditable returns true if the inspection answers can still be modified.
func (s InspectionStatus) IsEditable() bool {
	return s == InspectionStatusDraft
}

// IsValid returns true for known statuses.
func (s InspectionStatus) IsValid() bool {
	switch s {
	case InspectionStatusDraft, InspectionStatusCompleted, InspectionStatusReviewed, InspectionStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo returns true if this status can transition to the target status.
func (s InspectionStatus) CanTransitionTo(target InspectionStatus) bool {
	switch s {
	case InspectionStatusDraft:
		return target == InspectionStatusCompleted || target == InspectionStatusCancelled
	case InspectionStatusCompleted:
		return target == InspectionStatusReviewed || target == InspectionStatusCancelled
	default:
		return false
	}
}

// InspectionService defines operations for managing inspections.
type InspectionService interface {
	// FindInspectionByID retrieves an inspection by its ID.
	// Returns ENOTFOUND if the inspection does not exist.
	FindInspectionByID(ctx context.Context, id uuid.UUID) (*Inspection, error)

	// FindInspections retrieves inspections matching the filter criteria.
	// Returns the matching inspections and total count.
	FindInspections(ctx context.Context, filter InspectionFilter) ([]*Inspection, int, error)

	// CreateInspection creates a new draft inspection.
	// Returns ENOTFOUND if the vehicle does not exist.
	CreateInspection(ctx context.Context, inspection *Inspection) error

	// UpdateInspection updates a draft inspection. Answers and their legacy
	// column projection are always written together.
	// Returns EINVALID if the inspection is no longer editable.
	UpdateInspection(ctx context.Context, id uuid.UUID, upd InspectionUpdate) (*Inspection, error)

	// SetAnswer records one answer on a draft inspection.
	SetAnswer(ctx context.Context, id uuid.UUID, key string, answer Answer) (*Inspection, error)

	// UpdateInspectionStatus changes the status of an inspection.
	// Returns EINVALID if the status transition is not allowed.
	UpdateInspectionStatus(ctx context.Context, id uuid.UUID, status InspectionStatus) (*Inspection, error)

	// SetReportURL stores the location of the generated report document.
	SetReportURL(ctx context.Context, id uuid.UUID, url string) error
}

// InspectionFilter defines criteria for filtering inspections.
type InspectionFilter struct {
	VehicleID   *uuid.UUID
	InspectorID *uuid.UUID
	Status      *InspectionStatus

	// Pagination
	Offset int
	Limit  int
}

// InspectionUpdate defines fields that can be updated on an inspection.
type InspectionUpdate struct {
	VehicleID        *uuid.UUID
	InspectorID      *uuid.UUID
	InspectionDate   *time.Time
	Mileage          *int
	CostCenter       *string
	OverallCondition *string
	AdditionalNotes  *string
	InteriorPhotoURL *string
	ExteriorPhotoURL *string
	SignatureURL     *string
	Answers          AnswerMap
}

// Apply copies the set fields of upd onto i. Answers are merged key by key.
func (upd InspectionUpdate) Apply(i *Inspection) {
	if upd.VehicleID != nil {
		i.VehicleID = *upd.VehicleID
	}
	if upd.InspectorID != nil {
		i.InspectorID = *upd.InspectorID
	}
	if upd.InspectionDate != nil {
		i.InspectionDate = *upd.InspectionDate
	}
	if upd.Mileage != nil {
		i.Mileage = upd.Mileage
	}
	if upd.CostCenter != nil {
		i.CostCenter = *upd.CostCenter
	}
	if upd.OverallCondition != nil {
		i.OverallCondition = *upd.OverallCondition
	}
	if upd.AdditionalNotes != nil {
		i.AdditionalNotes = *upd.AdditionalNotes
	}
	if upd.InteriorPhotoURL != nil {
		i.InteriorPhotoURL = *upd.InteriorPhotoURL
	}
	if upd.ExteriorPhotoURL != nil {
		i.ExteriorPhotoURL = *upd.ExteriorPhotoURL
	}
	if upd.SignatureURL != nil {
		i.SignatureURL = *upd.SignatureURL
	}
	if len(upd.Answers) > 0 {
		if i.Answers == nil {
			i.Answers = AnswerMap{}
		}
		for k, v := range upd.Answers {
			i.Answers[k] = v
		}
	}
}

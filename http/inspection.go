package http

import (
	"log/slog"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/labstack/echo/v4"
)

// AnswerPayload is one answer in a request body.
type AnswerPayload struct {
	Status      string `json:"status" validate:"answerstatus"`
	Observation string `json:"observation" validate:"max=500"`
}

func (p AnswerPayload) toAnswer() fleetcheck.Answer {
	return fleetcheck.Answer{Status: fleetcheck.AnswerStatus(p.Status), Observation: p.Observation}
}

// CreateInspectionRequest is the request payload for creating an inspection.
// The vehicle and inspector may be chosen later.
type CreateInspectionRequest struct {
	VehicleID        string                   `json:"vehicleId" validate:"omitempty,uuid"`
	InspectorID      string                   `json:"inspectorId" validate:"omitempty,uuid"`
	InspectionDate   *time.Time               `json:"inspectionDate"`
	Mileage          *int                     `json:"mileage" validate:"omitempty,gte=0"`
	CostCenter       string                   `json:"costCenter" validate:"max=100"`
	OverallCondition string                   `json:"overallCondition" validate:"max=2000"`
	AdditionalNotes  string                   `json:"additionalNotes" validate:"max=2000"`
	Answers          map[string]AnswerPayload `json:"answers" validate:"dive,keys,fieldkey,endkeys"`
}

func (s *Server) handleCreateInspection(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	profile, err := requireProfile(c)
	if err != nil {
		return err
	}

	var req CreateInspectionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	inspection := &fleetcheck.Inspection{
		Mileage:          req.Mileage,
		CostCenter:       req.CostCenter,
		OverallCondition: req.OverallCondition,
		AdditionalNotes:  req.AdditionalNotes,
		Status:           fleetcheck.InspectionStatusDraft,
		Answers:          fleetcheck.AnswerMap{},
	}
	if req.VehicleID != "" {
		if inspection.VehicleID, err = parseUUID(req.VehicleID); err != nil {
			return err
		}
	}
	if req.InspectorID != "" {
		if inspection.InspectorID, err = parseUUID(req.InspectorID); err != nil {
			return err
		}
	} else if profile.IsInspector() {
		inspection.InspectorID = profile.ID
	}
	if req.InspectionDate != nil {
		inspection.InspectionDate = *req.InspectionDate
	}
	for key, a := range req.Answers {
		inspection.Answers.Set(key, a.toAnswer())
	}

	if err := s.inspectionService.CreateInspection(ctx, inspection); err != nil {
		return err
	}

	s.log(c).Info("inspection created",
		slog.String("inspection_id", inspection.ID.String()),
		slog.String("vehicle_id", inspection.VehicleID.String()),
	)
	return RespondCreated(c, inspection)
}

func (s *Server) handleGetInspection(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	inspection, err := s.inspectionService.FindInspectionByID(ctx, id)
	if err != nil {
		return err
	}
	return RespondOK(c, inspection)
}

func (s *Server) handleListInspections(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	offset, limit := pagination(c)
	filter := fleetcheck.InspectionFilter{Offset: offset, Limit: limit}

	if v := c.QueryParam("vehicleId"); v != "" {
		id, err := parseUUID(v)
		if err != nil {
			return err
		}
		filter.VehicleID = &id
	}
	if v := c.QueryParam("inspectorId"); v != "" {
		id, err := parseUUID(v)
		if err != nil {
			return err
		}
		filter.InspectorID = &id
	}
	if v := c.QueryParam("status"); v != "" {
		status := fleetcheck.InspectionStatus(v)
		if !status.IsValid() {
			return fleetcheck.Invalid("Unknown status %q", v)
		}
		filter.Status = &status
	}

	inspections, total, err := s.inspectionService.FindInspections(ctx, filter)
	if err != nil {
		return err
	}
	return RespondList(c, inspections, total, offset, limit)
}

// UpdateInspectionRequest is the request payload for editing a draft.
// Omitted fields are left unchanged; answers are merged by key.
type UpdateInspectionRequest struct {
	VehicleID        *string                  `json:"vehicleId" validate:"omitempty,uuid"`
	InspectorID      *string                  `json:"inspectorId" validate:"omitempty,uuid"`
	InspectionDate   *time.Time               `json:"inspectionDate"`
	Mileage          *int                     `json:"mileage" validate:"omitempty,gte=0"`
	CostCenter       *string                  `json:"costCenter" validate:"omitempty,max=100"`
	OverallCondition *string                  `json:"overallCondition" validate:"omitempty,max=2000"`
	AdditionalNotes  *string                  `json:"additionalNotes" validate:"omitempty,max=2000"`
	Answers          map[string]AnswerPayload `json:"answers" validate:"dive,keys,fieldkey,endkeys"`
}

func (s *Server) handleUpdateInspection(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateInspectionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	upd := fleetcheck.InspectionUpdate{
		InspectionDate:   req.InspectionDate,
		Mileage:          req.Mileage,
		CostCenter:       req.CostCenter,
		OverallCondition: req.OverallCondition,
		AdditionalNotes:  req.AdditionalNotes,
	}
	if upd.VehicleID, err = optionalUUID(req.VehicleID); err != nil {
		return err
	}
	if upd.InspectorID, err = optionalUUID(req.InspectorID); err != nil {
		return err
	}
	if len(req.Answers) > 0 {
		upd.Answers = make(fleetcheck.AnswerMap, len(req.Answers))
		for key, a := range req.Answers {
			upd.Answers.Set(key, a.toAnswer())
		}
	}

	inspection, err := s.inspectionService.UpdateInspection(ctx, id, upd)
	if err != nil {
		return err
	}

	s.log(c).Info("inspection updated", slog.String("inspection_id", id.String()))
	return RespondOK(c, inspection)
}

func (s *Server) handleSetAnswer(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}
	key := c.Param("key")

	var req AnswerPayload
	if err := bind(c, &req); err != nil {
		return err
	}

	inspection, err := s.inspectionService.SetAnswer(ctx, id, key, req.toAnswer())
	if err != nil {
		return err
	}

	s.log(c).Debug("answer recorded",
		slog.String("inspection_id", id.String()),
		slog.String("key", key),
		slog.String("status", req.Status),
	)
	return RespondOK(c, inspection)
}

// UpdateInspectionStatusRequest is the request payload for updating inspection status.
type UpdateInspectionStatusRequest struct {
	Status string `json:"status" validate:"required,inspstatus"`
}

func (s *Server) handleUpdateInspectionStatus(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateInspectionStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	status := fleetcheck.InspectionStatus(req.Status)
	if status == fleetcheck.InspectionStatusCompleted {
		return fleetcheck.Invalid("Submit the inspection to complete it")
	}

	inspection, err := s.inspectionService.UpdateInspectionStatus(ctx, id, status)
	if err != nil {
		return err
	}

	s.log(c).Info("inspection status updated",
		slog.String("inspection_id", id.String()),
		slog.String("status", string(status)),
	)
	return RespondOK(c, inspection)
}

package http

import (
	"log/slog"
	"strings"

	"github.com/dukerupert/fleetcheck"
	"github.com/labstack/echo/v4"
)

// VehicleRequest is the request payload for creating or replacing a vehicle.
type VehicleRequest struct {
	Model    string `json:"model" validate:"required,max=100"`
	Plate    string `json:"plate" validate:"required,min=5,max=10"`
	Year     int    `json:"year" validate:"omitempty,gte=1950,lte=2100"`
	Category string `json:"category" validate:"max=50"`
}

func (s *Server) handleListVehicles(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	offset, limit := pagination(c)
	filter := fleetcheck.VehicleFilter{Offset: offset, Limit: limit}
	if v := strings.TrimSpace(c.QueryParam("category")); v != "" {
		filter.Category = &v
	}
	if v := strings.TrimSpace(c.QueryParam("plate")); v != "" {
		filter.Plate = &v
	}

	vehicles, total, err := s.vehicleService.FindVehicles(ctx, filter)
	if err != nil {
		return err
	}
	return RespondList(c, vehicles, total, offset, limit)
}

func (s *Server) handleCreateVehicle(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	var req VehicleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	vehicle := &fleetcheck.Vehicle{
		Model:    strings.TrimSpace(req.Model),
		Plate:    req.Plate,
		Year:     req.Year,
		Category: strings.TrimSpace(req.Category),
	}
	if err := s.vehicleService.CreateVehicle(ctx, vehicle); err != nil {
		return err
	}

	s.log(c).Info("vehicle created",
		slog.String("vehicle_id", vehicle.ID.String()),
		slog.String("plate", vehicle.Plate),
	)
	return RespondCreated(c, vehicle)
}

func (s *Server) handleGetVehicle(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	vehicle, err := s.vehicleService.FindVehicleByID(ctx, id)
	if err != nil {
		return err
	}
	return RespondOK(c, vehicle)
}

func (s *Server) handleUpdateVehicle(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req VehicleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	model := strings.TrimSpace(req.Model)
	category := strings.TrimSpace(req.Category)
	vehicle, err := s.vehicleService.UpdateVehicle(ctx, id, fleetcheck.VehicleUpdate{
		Model:    &model,
		Plate:    &req.Plate,
		Year:     &req.Year,
		Category: &category,
	})
	if err != nil {
		return err
	}

	s.log(c).Info("vehicle updated", slog.String("vehicle_id", id.String()))
	return RespondOK(c, vehicle)
}

func (s *Server) handleDeleteVehicle(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.vehicleService.DeleteVehicle(ctx, id); err != nil {
		return err
	}

	s.log(c).Info("vehicle deleted", slog.String("vehicle_id", id.String()))
	return RespondNoContent(c)
}

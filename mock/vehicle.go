package mock

import (
	"context"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/google/uuid"
)

// Compile-time interface check
var _ fleetcheck.VehicleService = (*VehicleService)(nil)

// VehicleService is a mock implementation of fleetcheck.VehicleService.
type VehicleService struct {
	FindVehicleByIDFn func(ctx context.Context, id uuid.UUID) (*fleetcheck.Vehicle, error)
	FindVehiclesFn    func(ctx context.Context, filter fleetcheck.VehicleFilter) ([]*fleetcheck.Vehicle, int, error)
	CreateVehicleFn   func(ctx context.Context, vehicle *fleetcheck.Vehicle) error
	UpdateVehicleFn   func(ctx context.Context, id uuid.UUID, upd fleetcheck.VehicleUpdate) (*fleetcheck.Vehicle, error)
	DeleteVehicleFn   func(ctx context.Context, id uuid.UUID) error
}

func (s *VehicleService) FindVehicleByID(ctx context.Context, id uuid.UUID) (*fleetcheck.Vehicle, error) {
	if s.FindVehicleByIDFn != nil {
		return s.FindVehicleByIDFn(ctx, id)
	}
	return nil, fleetcheck.NotFound("Vehicle not found")
}

func (s *VehicleService) FindVehicles(ctx context.Context, filter fleetcheck.VehicleFilter) ([]*fleetcheck.Vehicle, int, error) {
	if s.FindVehiclesFn != nil {
		return s.FindVehiclesFn(ctx, filter)
	}
	return []*fleetcheck.Vehicle{}, 0, nil
}

func (s *VehicleService) CreateVehicle(ctx context.Context, vehicle *fleetcheck.Vehicle) error {
	if s.CreateVehicleFn != nil {
		return s.CreateVehicleFn(ctx, vehicle)
	}
	vehicle.ID = uuid.New()
	vehicle.CreatedAt = time.Now()
	vehicle.UpdatedAt = time.Now()
	return nil
}

func (s *VehicleService) UpdateVehicle(ctx context.Context, id uuid.UUID, upd fleetcheck.VehicleUpdate) (*fleetcheck.Vehicle, error) {
	if s.UpdateVehicleFn != nil {
		return s.UpdateVehicleFn(ctx, id, upd)
	}
	return nil, fleetcheck.NotFound("Vehicle not found")
}

func (s *VehicleService) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	if s.DeleteVehicleFn != nil {
		return s.DeleteVehicleFn(ctx, id)
	}
	return nil
}

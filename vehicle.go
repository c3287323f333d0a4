package fleetcheck

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Vehicle is a fleet vehicle subject to inspection.
type Vehicle struct {
	ID        uuid.UUID `json:"id"`
	Model     string    `json:"model"`
	Plate     string    `json:"plate"`
	Year      int       `json:"year,omitempty"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VehicleService defines operations for managing vehicles.
type VehicleService interface {
	// FindVehicleByID retrieves a vehicle by its ID.
	// Returns ENOTFOUND if the vehicle does not exist.
	FindVehicleByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)

	// FindVehicles retrieves vehicles matching the filter and the total count.
	FindVehicles(ctx context.Context, filter VehicleFilter) ([]*Vehicle, int, error)

	// CreateVehicle creates a new vehicle.
	// Returns ECONFLICT if the plate is already registered.
	CreateVehicle(ctx context.Context, vehicle *Vehicle) error

	// UpdateVehicle updates an existing vehicle.
	UpdateVehicle(ctx context.Context, id uuid.UUID, upd VehicleUpdate) (*Vehicle, error)

	// DeleteVehicle deletes a vehicle.
	DeleteVehicle(ctx context.Context, id uuid.UUID) error
}

// VehicleFilter defines criteria for filtering vehicles.
type VehicleFilter struct {
	Category *string
	Plate    *string

	// Pagination
	Offset int
	Limit  int
}

// VehicleUpdate defines fields that can be updated on a vehicle.
type VehicleUpdate struct {
	Model    *string
	Plate    *string
	Year     *int
	Category *string
}

package postgres

import (
	"context"
	"strings"

	"github.com/dukerupert/fleetcheck"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Compile-time check that VehicleService implements fleetcheck.VehicleService.
var _ fleetcheck.VehicleService = (*VehicleService)(nil)

// VehicleService implements fleetcheck.VehicleService using PostgreSQL.
type VehicleService struct {
	db *DB
}

const vehicleColumns = `id, model, plate, year, category, created_at, updated_at`

func scanVehicle(row pgx.Row) (*fleetcheck.Vehicle, error) {
	var (
		v  fleetcheck.Vehicle
		id pgtype.UUID
	)
	if err := row.Scan(&id, &v.Model, &v.Plate, &v.Year, &v.Category, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.ID = fromPgUUID(id)
	return &v, nil
}

func (s *VehicleService) FindVehicleByID(ctx context.Context, id uuid.UUID) (*fleetcheck.Vehicle, error) {
	row := s.db.pool.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, toPgUUID(id))
	v, err := scanVehicle(row)
	if err != nil {
		if isNoRows(err) {
			return nil, fleetcheck.NotFound("Vehicle not found")
		}
		return nil, fleetcheck.Internal("Failed to fetch vehicle", err)
	}
	return v, nil
}

func (s *VehicleService) FindVehicles(ctx context.Context, filter fleetcheck.VehicleFilter) ([]*fleetcheck.Vehicle, int, error) {
	var w whereBuilder
	if filter.Category != nil {
		w.add("category = ?", *filter.Category)
	}
	if filter.Plate != nil {
		w.add("plate ILIKE ?", "%"+strings.TrimSpace(*filter.Plate)+"%")
	}

	var total int
	if err := s.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM vehicles`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fleetcheck.Internal("Failed to count vehicles", err)
	}

	query := `SELECT ` + vehicleColumns + ` FROM vehicles` + w.String() + ` ORDER BY plate`
	if filter.Limit > 0 {
		query += ` LIMIT ` + w.next(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + w.next(filter.Offset)
	}

	rows, err := s.db.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fleetcheck.Internal("Failed to list vehicles", err)
	}
	defer rows.Close()

	var vehicles []*fleetcheck.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, fleetcheck.Internal("Failed to scan vehicle", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fleetcheck.Internal("Failed to list vehicles", err)
	}
	return vehicles, total, nil
}

func (s *VehicleService) CreateVehicle(ctx context.Context, vehicle *fleetcheck.Vehicle) error {
	row := s.db.pool.QueryRow(ctx, `
		INSERT INTO vehicles (model, plate, year, category)
		VALUES ($1, $2, $3, $4)
		RETURNING `+vehicleColumns,
		vehicle.Model, strings.ToUpper(strings.TrimSpace(vehicle.Plate)), vehicle.Year, vehicle.Category)

	created, err := scanVehicle(row)
	if err != nil {
		if isUniqueViolation(err) {
			return fleetcheck.Conflict("A vehicle with this plate already exists")
		}
		return fleetcheck.Internal("Failed to create vehicle", err)
	}
	*vehicle = *created
	return nil
}

func (s *VehicleService) UpdateVehicle(ctx context.Context, id uuid.UUID, upd fleetcheck.VehicleUpdate) (*fleetcheck.Vehicle, error) {
	var set setBuilder
	if upd.Model != nil {
		set.set("model", *upd.Model)
	}
	if upd.Plate != nil {
		set.set("plate", strings.ToUpper(strings.TrimSpace(*upd.Plate)))
	}
	if upd.Year != nil {
		set.set("year", *upd.Year)
	}
	if upd.Category != nil {
		set.set("category", *upd.Category)
	}
	if set.empty() {
		return s.FindVehicleByID(ctx, id)
	}

	query := `UPDATE vehicles SET ` + strings.Join(set.sets, ", ") + `, updated_at = NOW()
		WHERE id = ` + set.next(toPgUUID(id)) + ` RETURNING ` + vehicleColumns

	v, err := scanVehicle(s.db.pool.QueryRow(ctx, query, set.args...))
	if err != nil {
		if isNoRows(err) {
			return nil, fleetcheck.NotFound("Vehicle not found")
		}
		if isUniqueViolation(err) {
			return nil, fleetcheck.Conflict("A vehicle with this plate already exists")
		}
		return nil, fleetcheck.Internal("Failed to update vehicle", err)
	}
	return v, nil
}

func (s *VehicleService) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, toPgUUID(id))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fleetcheck.Conflict("Vehicle has inspections and cannot be deleted")
		}
		return fleetcheck.Internal("Failed to delete vehicle", err)
	}
	if tag.RowsAffected() == 0 {
		return fleetcheck.NotFound("Vehicle not found")
	}
	return nil
}

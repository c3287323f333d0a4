package postgres

import (
	"context"

	"github.com/dukerupert/fleetcheck"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Compile-time check that ProfileService implements fleetcheck.ProfileService.
var _ fleetcheck.ProfileService = (*ProfileService)(nil)

// ProfileService implements fleetcheck.ProfileService using PostgreSQL.
type ProfileService struct {
	db *DB
}

const profileColumns = `id, first_name, last_name, role, company_name, company_tax_id, company_contact, company_address`

func scanProfile(row pgx.Row) (*fleetcheck.Profile, error) {
	var (
		p    fleetcheck.Profile
		id   pgtype.UUID
		role string
	)
	err := row.Scan(&id, &p.FirstName, &p.LastName, &role,
		&p.Company.Name, &p.Company.TaxID, &p.Company.Contact, &p.Company.Address)
	if err != nil {
		return nil, err
	}
	p.ID = fromPgUUID(id)
	p.Role = fleetcheck.Role(role)
	return &p, nil
}

func (s *ProfileService) FindProfileByID(ctx context.Context, id uuid.UUID) (*fleetcheck.Profile, error) {
	p, err := scanProfile(s.db.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, toPgUUID(id)))
	if err != nil {
		if isNoRows(err) {
			return nil, fleetcheck.NotFound("Profile not found")
		}
		return nil, fleetcheck.Internal("Failed to fetch profile", err)
	}
	return p, nil
}

func (s *ProfileService) FindInspectors(ctx context.Context) ([]*fleetcheck.Inspector, error) {
	rows, err := s.db.pool.Query(ctx, `
		SELECT id, first_name, last_name
		FROM profiles
		WHERE role = $1
		ORDER BY first_name, last_name`, string(fleetcheck.RoleInspector))
	if err != nil {
		return nil, fleetcheck.Internal("Failed to list inspectors", err)
	}

	inspectors, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*fleetcheck.Inspector, error) {
		var (
			in fleetcheck.Inspector
			id pgtype.UUID
		)
		if err := row.Scan(&id, &in.FirstName, &in.LastName); err != nil {
			return nil, err
		}
		in.ID = fromPgUUID(id)
		return &in, nil
	})
	if err != nil {
		return nil, fleetcheck.Internal("Failed to scan inspectors", err)
	}
	return inspectors, nil
}

func (s *ProfileService) UpdateCompany(ctx context.Context, id uuid.UUID, company fleetcheck.Company) (*fleetcheck.Profile, error) {
	p, err := scanProfile(s.db.pool.QueryRow(ctx, `
		UPDATE profiles
		SET company_name = $2, company_tax_id = $3, company_contact = $4, company_address = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+profileColumns,
		toPgUUID(id), company.Name, company.TaxID, company.Contact, company.Address))
	if err != nil {
		if isNoRows(err) {
			return nil, fleetcheck.NotFound("Profile not found")
		}
		return nil, fleetcheck.Internal("Failed to update company", err)
	}
	return p, nil
}

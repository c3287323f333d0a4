package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Compile-time check that InspectionService implements fleetcheck.InspectionService.
var _ fleetcheck.InspectionService = (*InspectionService)(nil)

// InspectionService implements fleetcheck.InspectionService using PostgreSQL.
//
// The answers JSONB column is the source of truth. The legacy fixed
// columns are rewritten from it on every save and only read back to fill
// keys missing from the blob on rows written before it existed.
type InspectionService struct {
	db *DB
}

const inspectionBaseColumns = `id, vehicle_id, inspector_id, inspection_date, mileage, cost_center,
	overall_condition, additional_notes, interior_photo_url, exterior_photo_url, signature_url,
	status, report_url, created_at, updated_at, answers`

// legacyColumnList returns the quoted legacy column names joined by commas.
func legacyColumnList() string {
	cols := make([]string, len(fleetcheck.LegacyColumns))
	for i, c := range fleetcheck.LegacyColumns {
		cols[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(cols, ", ")
}

var inspectionColumns = inspectionBaseColumns + ", " + legacyColumnList()

func scanInspection(row pgx.Row) (*fleetcheck.Inspection, error) {
	var (
		in          fleetcheck.Inspection
		id          pgtype.UUID
		vehicleID   pgtype.UUID
		inspectorID pgtype.UUID
		mileage     pgtype.Int4
		status      string
		answers     []byte
	)
	legacy := make([]string, len(fleetcheck.LegacyColumns))

	dest := []any{
		&id, &vehicleID, &inspectorID, &in.InspectionDate, &mileage, &in.CostCenter,
		&in.OverallCondition, &in.AdditionalNotes, &in.InteriorPhotoURL, &in.ExteriorPhotoURL, &in.SignatureURL,
		&status, &in.ReportURL, &in.CreatedAt, &in.UpdatedAt, &answers,
	}
	for i := range legacy {
		dest = append(dest, &legacy[i])
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	decoded, err := fleetcheck.DecodeAnswers(answers)
	if err != nil {
		return nil, err
	}
	legacyByCol := make(map[string]string, len(legacy))
	for i, col := range fleetcheck.LegacyColumns {
		legacyByCol[col] = legacy[i]
	}

	in.ID = fromPgUUID(id)
	in.VehicleID = fromPgUUID(vehicleID)
	in.InspectorID = fromPgUUID(inspectorID)
	in.Mileage = fromPgInt4Ptr(mileage)
	in.Status = fleetcheck.InspectionStatus(status)
	in.Answers = fleetcheck.HydrateFromLegacy(decoded, legacyByCol)
	return &in, nil
}

func (s *InspectionService) FindInspectionByID(ctx context.Context, id uuid.UUID) (*fleetcheck.Inspection, error) {
	return s.findByID(ctx, s.db.pool, id, false)
}

func (s *InspectionService) findByID(ctx context.Context, q querier, id uuid.UUID, lock bool) (*fleetcheck.Inspection, error) {
	query := `SELECT ` + inspectionColumns + ` FROM inspections WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	in, err := scanInspection(q.QueryRow(ctx, query, toPgUUID(id)))
	if err != nil {
		if isNoRows(err) {
			return nil, fleetcheck.NotFound("Inspection not found")
		}
		return nil, fleetcheck.Internal("Failed to fetch inspection", err)
	}
	return in, nil
}

func (s *InspectionService) FindInspections(ctx context.Context, filter fleetcheck.InspectionFilter) ([]*fleetcheck.Inspection, int, error) {
	var w whereBuilder
	if filter.VehicleID != nil {
		w.add("vehicle_id = ?", toPgUUID(*filter.VehicleID))
	}
	if filter.InspectorID != nil {
		w.add("inspector_id = ?", toPgUUID(*filter.InspectorID))
	}
	if filter.Status != nil {
		w.add("status = ?", string(*filter.Status))
	}

	var total int
	if err := s.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inspections`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fleetcheck.Internal("Failed to count inspections", err)
	}

	query := `SELECT ` + inspectionColumns + ` FROM inspections` + w.String() +
		` ORDER BY inspection_date DESC, created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + w.next(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + w.next(filter.Offset)
	}

	rows, err := s.db.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fleetcheck.Internal("Failed to list inspections", err)
	}
	inspections, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*fleetcheck.Inspection, error) {
		return scanInspection(row)
	})
	if err != nil {
		return nil, 0, fleetcheck.Internal("Failed to scan inspections", err)
	}
	return inspections, total, nil
}

// writeArgs returns the values for every writable column, answers and
// legacy projection included, in the order of writableColumns.
func writeArgs(in *fleetcheck.Inspection) ([]any, error) {
	answers, err := fleetcheck.EncodeAnswers(in.Answers)
	if err != nil {
		return nil, err
	}
	args := []any{
		toPgUUIDNullable(in.VehicleID),
		toPgUUIDNullable(in.InspectorID),
		in.InspectionDate,
		toPgInt4Ptr(in.Mileage),
		in.CostCenter,
		in.OverallCondition,
		in.AdditionalNotes,
		in.InteriorPhotoURL,
		in.ExteriorPhotoURL,
		in.SignatureURL,
		string(in.Status),
		answers,
	}
	legacy := fleetcheck.ProjectLegacy(in.Answers)
	for _, col := range fleetcheck.LegacyColumns {
		args = append(args, legacy[col])
	}
	return args, nil
}

func writableColumns() []string {
	cols := []string{
		"vehicle_id", "inspector_id", "inspection_date", "mileage", "cost_center",
		"overall_condition", "additional_notes", "interior_photo_url", "exterior_photo_url",
		"signature_url", "status", "answers",
	}
	return append(cols, fleetcheck.LegacyColumns...)
}

func (s *InspectionService) CreateInspection(ctx context.Context, inspection *fleetcheck.Inspection) error {
	if inspection.Status == "" {
		inspection.Status = fleetcheck.InspectionStatusDraft
	}
	if inspection.Status != fleetcheck.InspectionStatusDraft {
		return fleetcheck.Invalid("New inspections must be drafts")
	}
	if inspection.InspectionDate.IsZero() {
		inspection.InspectionDate = time.Now().UTC()
	}
	if err := inspection.Answers.Validate(); err != nil {
		return err
	}

	args, err := writeArgs(inspection)
	if err != nil {
		return fleetcheck.Internal("Failed to encode answers", err)
	}

	cols := writableColumns()
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		cols[i] = pgx.Identifier{c}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	created, err := scanInspection(s.db.pool.QueryRow(ctx,
		`INSERT INTO inspections (`+strings.Join(cols, ", ")+`)
		VALUES (`+strings.Join(placeholders, ", ")+`)
		RETURNING `+inspectionColumns, args...))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fleetcheck.NotFound("Vehicle not found")
		}
		return fleetcheck.Internal("Failed to create inspection", err)
	}
	*inspection = *created
	return nil
}

// save writes every writable column of in, keeping answers and the legacy
// projection consistent.
func (s *InspectionService) save(ctx context.Context, q querier, in *fleetcheck.Inspection) (*fleetcheck.Inspection, error) {
	args, err := writeArgs(in)
	if err != nil {
		return nil, fleetcheck.Internal("Failed to encode answers", err)
	}

	var set setBuilder
	for i, col := range writableColumns() {
		set.set(col, args[i])
	}
	query := `UPDATE inspections SET ` + strings.Join(set.sets, ", ") + `, updated_at = NOW()
		WHERE id = ` + set.next(toPgUUID(in.ID)) + ` RETURNING ` + inspectionColumns

	saved, err := scanInspection(q.QueryRow(ctx, query, set.args...))
	if err != nil {
		if isNoRows(err) {
			return nil, fleetcheck.NotFound("Inspection not found")
		}
		if isForeignKeyViolation(err) {
			return nil, fleetcheck.NotFound("Vehicle not found")
		}
		return nil, fleetcheck.Internal("Failed to update inspection", err)
	}
	return saved, nil
}

// modify loads the inspection under a row lock, applies fn and saves it.
// Only drafts can be modified.
func (s *InspectionService) modify(ctx context.Context, id uuid.UUID, fn func(*fleetcheck.Inspection) error) (*fleetcheck.Inspection, error) {
	var out *fleetcheck.Inspection
	err := s.db.inTx(ctx, func(tx pgx.Tx) error {
		current, err := s.findByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if !current.Status.IsEditable() {
			return fleetcheck.Invalid("Inspection is %s and can no longer be edited", current.Status)
		}
		if err := fn(current); err != nil {
			return err
		}
		out, err = s.save(ctx, tx, current)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *InspectionService) UpdateInspection(ctx context.Context, id uuid.UUID, upd fleetcheck.InspectionUpdate) (*fleetcheck.Inspection, error) {
	if err := upd.Answers.Validate(); err != nil {
		return nil, err
	}
	return s.modify(ctx, id, func(in *fleetcheck.Inspection) error {
		upd.Apply(in)
		return nil
	})
}

func (s *InspectionService) SetAnswer(ctx context.Context, id uuid.UUID, key string, answer fleetcheck.Answer) (*fleetcheck.Inspection, error) {
	if err := fleetcheck.ValidateAnswer(key, answer); err != nil {
		return nil, err
	}
	return s.modify(ctx, id, func(in *fleetcheck.Inspection) error {
		if in.Answers == nil {
			in.Answers = fleetcheck.AnswerMap{}
		}
		in.Answers.Set(key, answer)
		return nil
	})
}

func (s *InspectionService) UpdateInspectionStatus(ctx context.Context, id uuid.UUID, status fleetcheck.InspectionStatus) (*fleetcheck.Inspection, error) {
	if !status.IsValid() {
		return nil, fleetcheck.Invalid("Unknown status %q", status)
	}

	var out *fleetcheck.Inspection
	err := s.db.inTx(ctx, func(tx pgx.Tx) error {
		current, err := s.findByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(status) {
			return fleetcheck.Invalid("Invalid status transition from %s to %s", current.Status, status)
		}

		out, err = scanInspection(tx.QueryRow(ctx, `
			UPDATE inspections SET status = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING `+inspectionColumns, toPgUUID(id), string(status)))
		if err != nil {
			return fleetcheck.Internal("Failed to update inspection status", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *InspectionService) SetReportURL(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := s.db.pool.Exec(ctx,
		`UPDATE inspections SET report_url = $2, updated_at = NOW() WHERE id = $1`, toPgUUID(id), url)
	if err != nil {
		return fleetcheck.Internal("Failed to store report URL", err)
	}
	if tag.RowsAffected() == 0 {
		return fleetcheck.NotFound("Inspection not found")
	}
	return nil
}

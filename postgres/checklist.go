package postgres

import (
	"context"
	"strings"

	"github.com/dukerupert/fleetcheck"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Compile-time check that ChecklistItemService implements fleetcheck.ChecklistItemService.
var _ fleetcheck.ChecklistItemService = (*ChecklistItemService)(nil)

// ChecklistItemService implements fleetcheck.ChecklistItemService using PostgreSQL.
type ChecklistItemService struct {
	db         *DB
	categories *CategoryService
}

const checklistColumns = `id, name, description, category, required, sort_order, active, created_at, updated_at`

func scanChecklistItem(row pgx.Row) (*fleetcheck.ChecklistItem, error) {
	var (
		item fleetcheck.ChecklistItem
		id   pgtype.UUID
	)
	err := row.Scan(&id, &item.Name, &item.Description, &item.Category, &item.Required,
		&item.Order, &item.Active, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.ID = fromPgUUID(id)
	return &item, nil
}

func collectChecklistItems(rows pgx.Rows) ([]*fleetcheck.ChecklistItem, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*fleetcheck.ChecklistItem, error) {
		return scanChecklistItem(row)
	})
}

func (s *ChecklistItemService) FindChecklistItemByID(ctx context.Context, id uuid.UUID) (*fleetcheck.ChecklistItem, error) {
	item, err := scanChecklistItem(s.db.pool.QueryRow(ctx,
		`SELECT `+checklistColumns+` FROM checklist_items WHERE id = $1`, toPgUUID(id)))
	if err != nil {
		if isNoRows(err) {
			return nil, fleetcheck.NotFound("Checklist item not found")
		}
		return nil, fleetcheck.Internal("Failed to fetch checklist item", err)
	}
	return item, nil
}

func (s *ChecklistItemService) FindChecklistItems(ctx context.Context, filter fleetcheck.ChecklistItemFilter) ([]*fleetcheck.ChecklistItem, error) {
	var w whereBuilder
	if filter.Category != nil {
		w.add("category = ?", *filter.Category)
	}
	if !filter.IncludeInactive {
		w.add("active")
	}

	rows, err := s.db.pool.Query(ctx,
		`SELECT `+checklistColumns+` FROM checklist_items`+w.String()+` ORDER BY category, sort_order, created_at`,
		w.args...)
	if err != nil {
		return nil, fleetcheck.Internal("Failed to list checklist items", err)
	}
	items, err := collectChecklistItems(rows)
	if err != nil {
		return nil, fleetcheck.Internal("Failed to scan checklist items", err)
	}
	return items, nil
}

func (s *ChecklistItemService) findActive(ctx context.Context, category string) ([]*fleetcheck.ChecklistItem, error) {
	rows, err := s.db.pool.Query(ctx, `
		SELECT `+checklistColumns+`
		FROM checklist_items
		WHERE category = $1 AND active
		ORDER BY sort_order, created_at`, category)
	if err != nil {
		return nil, err
	}
	return collectChecklistItems(rows)
}

func (s *ChecklistItemService) FindItemsForCategory(ctx context.Context, group string) ([]*fleetcheck.ChecklistItem, error) {
	items, err := s.findActive(ctx, group)
	if err != nil {
		return nil, fleetcheck.Internal("Failed to list checklist items", err)
	}
	if len(items) > 0 {
		return items, nil
	}

	tag, err := s.categories.uniqueID(ctx, group)
	if err != nil {
		return nil, err
	}
	if tag == "" || tag == group {
		return items, nil
	}

	s.db.logger.Debug("no checklist items under group key, trying category tag",
		"group", group, "tag", tag)
	items, err = s.findActive(ctx, tag)
	if err != nil {
		return nil, fleetcheck.Internal("Failed to list checklist items", err)
	}
	return items, nil
}

func (s *ChecklistItemService) CreateChecklistItem(ctx context.Context, item *fleetcheck.ChecklistItem) error {
	item.Name = strings.TrimSpace(item.Name)
	if _, err := fleetcheck.FieldKeyFor(item.Name); err != nil {
		return fleetcheck.Invalid("Item name %q does not produce a usable field key", item.Name)
	}
	if item.Category == "" {
		return fleetcheck.Invalid("Category is required")
	}

	created, err := scanChecklistItem(s.db.pool.QueryRow(ctx, `
		INSERT INTO checklist_items (name, description, category, required, sort_order, active)
		SELECT $1, $2, $3, $4, COALESCE(MAX(sort_order) + 1, 0), TRUE
		FROM checklist_items
		WHERE category = $3
		RETURNING `+checklistColumns,
		item.Name, item.Description, item.Category, item.Required))
	if err != nil {
		return fleetcheck.Internal("Failed to create checklist item", err)
	}
	*item = *created

	if err := s.warnCollisions(ctx, item.Category); err != nil {
		s.db.logger.Warn("checking field key collisions", "category", item.Category, "error", err)
	}
	return nil
}

func (s *ChecklistItemService) UpdateChecklistItem(ctx context.Context, id uuid.UUID, upd fleetcheck.ChecklistItemUpdate) (*fleetcheck.ChecklistItem, error) {
	var set setBuilder
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if _, err := fleetcheck.FieldKeyFor(name); err != nil {
			return nil, fleetcheck.Invalid("Item name %q does not produce a usable field key", name)
		}
		set.set("name", name)
	}
	if upd.Description != nil {
		set.set("description", *upd.Description)
	}
	if upd.Category != nil {
		if *upd.Category == "" {
			return nil, fleetcheck.Invalid("Category is required")
		}
		set.set("category", *upd.Category)
	}
	if upd.Required != nil {
		set.set("required", *upd.Required)
	}
	if set.empty() {
		return s.FindChecklistItemByID(ctx, id)
	}

	query := `UPDATE checklist_items SET ` + strings.Join(set.sets, ", ") + `, updated_at = NOW()
		WHERE id = ` + set.next(toPgUUID(id)) + ` RETURNING ` + checklistColumns
	item, err := scanChecklistItem(s.db.pool.QueryRow(ctx, query, set.args...))
	if err != nil {
		if isNoRows(err) {
			return nil, fleetcheck.NotFound("Checklist item not found")
		}
		return nil, fleetcheck.Internal("Failed to update checklist item", err)
	}

	if upd.Name != nil || upd.Category != nil {
		if err := s.warnCollisions(ctx, item.Category); err != nil {
			s.db.logger.Warn("checking field key collisions", "category", item.Category, "error", err)
		}
	}
	return item, nil
}

func (s *ChecklistItemService) DeactivateChecklistItem(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.pool.Exec(ctx,
		`UPDATE checklist_items SET active = FALSE, updated_at = NOW() WHERE id = $1`, toPgUUID(id))
	if err != nil {
		return fleetcheck.Internal("Failed to deactivate checklist item", err)
	}
	if tag.RowsAffected() == 0 {
		return fleetcheck.NotFound("Checklist item not found")
	}
	return nil
}

func (s *ChecklistItemService) ReorderChecklistItems(ctx context.Context, category string, ids []uuid.UUID) error {
	pgIDs := make([]pgtype.UUID, len(ids))
	for i, id := range ids {
		pgIDs[i] = toPgUUID(id)
	}

	err := s.db.inTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, sort_order
			FROM checklist_items
			WHERE category = $1 AND id = ANY($2)
			FOR UPDATE`, category, pgIDs)
		if err != nil {
			return fleetcheck.Internal("Failed to load checklist items", err)
		}

		current := make(map[uuid.UUID]int, len(ids))
		for rows.Next() {
			var (
				id    pgtype.UUID
				order int
			)
			if err := rows.Scan(&id, &order); err != nil {
				rows.Close()
				return fleetcheck.Internal("Failed to scan checklist item", err)
			}
			current[fromPgUUID(id)] = order
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fleetcheck.Internal("Failed to load checklist items", err)
		}

		orders, err := fleetcheck.ReorderRange(current, ids)
		if err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for id, order := range orders {
			batch.Queue(`UPDATE checklist_items SET sort_order = $1, updated_at = NOW() WHERE id = $2`, order, toPgUUID(id))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fleetcheck.Internal("Failed to reorder checklist items", err)
		}
		return nil
	})
	return err
}

// warnCollisions logs active items in a category whose names normalize to
// the same field key. Their answers would overwrite each other.
func (s *ChecklistItemService) warnCollisions(ctx context.Context, category string) error {
	items, err := s.findActive(ctx, category)
	if err != nil {
		return err
	}
	for _, c := range fleetcheck.DetectKeyCollisions(items) {
		s.db.logger.Warn("checklist items share a field key",
			"category", category,
			"key", c.Key,
			"names", c.Names)
	}
	return nil
}

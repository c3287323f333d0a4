package mock

import (
	"context"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/google/uuid"
)

// Compile-time interface check
var _ fleetcheck.ChecklistItemService = (*ChecklistItemService)(nil)

// ChecklistItemService is a mock implementation of fleetcheck.ChecklistItemService.
type ChecklistItemService struct {
	FindChecklistItemByIDFn   func(ctx context.Context, id uuid.UUID) (*fleetcheck.ChecklistItem, error)
	FindChecklistItemsFn      func(ctx context.Context, filter fleetcheck.ChecklistItemFilter) ([]*fleetcheck.ChecklistItem, error)
	FindItemsForCategoryFn    func(ctx context.Context, group string) ([]*fleetcheck.ChecklistItem, error)
	CreateChecklistItemFn     func(ctx context.Context, item *fleetcheck.ChecklistItem) error
	UpdateChecklistItemFn     func(ctx context.Context, id uuid.UUID, upd fleetcheck.ChecklistItemUpdate) (*fleetcheck.ChecklistItem, error)
	DeactivateChecklistItemFn func(ctx context.Context, id uuid.UUID) error
	ReorderChecklistItemsFn   func(ctx context.Context, category string, ids []uuid.UUID) error
}

func (s *ChecklistItemService) FindChecklistItemByID(ctx context.Context, id uuid.UUID) (*fleetcheck.ChecklistItem, error) {
	if s.FindChecklistItemByIDFn != nil {
		return s.FindChecklistItemByIDFn(ctx, id)
	}
	return nil, fleetcheck.NotFound("Checklist item not found")
}

func (s *ChecklistItemService) FindChecklistItems(ctx context.Context, filter fleetcheck.ChecklistItemFilter) ([]*fleetcheck.ChecklistItem, error) {
	if s.FindChecklistItemsFn != nil {
		return s.FindChecklistItemsFn(ctx, filter)
	}
	return []*fleetcheck.ChecklistItem{}, nil
}

func (s *ChecklistItemService) FindItemsForCategory(ctx context.Context, group string) ([]*fleetcheck.ChecklistItem, error) {
	if s.FindItemsForCategoryFn != nil {
		return s.FindItemsForCategoryFn(ctx, group)
	}
	return []*fleetcheck.ChecklistItem{}, nil
}

func (s *ChecklistItemService) CreateChecklistItem(ctx context.Context, item *fleetcheck.ChecklistItem) error {
	if s.CreateChecklistItemFn != nil {
		return s.CreateChecklistItemFn(ctx, item)
	}
	item.ID = uuid.New()
	item.Active = true
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()
	return nil
}

func (s *ChecklistItemService) UpdateChecklistItem(ctx context.Context, id uuid.UUID, upd fleetcheck.ChecklistItemUpdate) (*fleetcheck.ChecklistItem, error) {
	if s.UpdateChecklistItemFn != nil {
		return s.UpdateChecklistItemFn(ctx, id, upd)
	}
	return nil, fleetcheck.NotFound("Checklist item not found")
}

func (s *ChecklistItemService) DeactivateChecklistItem(ctx context.Context, id uuid.UUID) error {
	if s.DeactivateChecklistItemFn != nil {
		return s.DeactivateChecklistItemFn(ctx, id)
	}
	return nil
}

func (s *ChecklistItemService) ReorderChecklistItems(ctx context.Context, category string, ids []uuid.UUID) error {
	if s.ReorderChecklistItemsFn != nil {
		return s.ReorderChecklistItemsFn(ctx, category, ids)
	}
	return nil
}

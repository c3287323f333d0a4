package fleetcheck

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ChecklistItem describes one inspectable attribute for a checklist group.
type ChecklistItem struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Required    bool      `json:"required"`
	Order       int       `json:"order"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FieldKey returns the answer-map key derived from the item name.
func (i *ChecklistItem) FieldKey() string {
	return NormalizeFieldKey(i.Name)
}

// SortChecklistItems orders items by Order, keeping the incoming order for
// ties.
func SortChecklistItems(items []*ChecklistItem) {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Order < items[b].Order
	})
}

// ChecklistItemService defines operations for managing checklist items.
type ChecklistItemService interface {
	// FindChecklistItemByID retrieves an item by its ID.
	// Returns ENOTFOUND if the item does not exist.
	FindChecklistItemByID(ctx context.Context, id uuid.UUID) (*ChecklistItem, error)

	// FindChecklistItems retrieves items matching the filter, ordered by Order.
	FindChecklistItems(ctx context.Context, filter ChecklistItemFilter) ([]*ChecklistItem, error)

	// FindItemsForCategory returns the active items for a checklist group.
	// When no item is filed under the group key it falls back to items
	// filed under the group's vehicle category unique_id tag.
	FindItemsForCategory(ctx context.Context, group string) ([]*ChecklistItem, error)

	// CreateChecklistItem creates a new item at the end of its category.
	// Returns EINVALID if the name normalizes to an empty field key.
	CreateChecklistItem(ctx context.Context, item *ChecklistItem) error

	// UpdateChecklistItem updates an existing item.
	UpdateChecklistItem(ctx context.Context, id uuid.UUID, upd ChecklistItemUpdate) (*ChecklistItem, error)

	// DeactivateChecklistItem soft-deletes an item.
	DeactivateChecklistItem(ctx context.Context, id uuid.UUID) error

	// ReorderChecklistItems rewrites Order for the given ids, in sequence,
	// starting from the lowest order currently held by any of them.
	ReorderChecklistItems(ctx context.Context, category string, ids []uuid.UUID) error
}

// ChecklistItemFilter defines criteria for filtering checklist items.
type ChecklistItemFilter struct {
	Category        *string
	IncludeInactive bool
}

// ChecklistItemUpdate defines fields that can be updated on an item.
type ChecklistItemUpdate struct {
	Name        *string
	Description *string
	Category    *string
	Required    *bool
}

// ReorderRange assigns consecutive orders to ids starting at the lowest
// order currently held among them. current maps id to its present order.
// Returns EINVALID when an id is unknown or repeated.
func ReorderRange(current map[uuid.UUID]int, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	if len(ids) == 0 {
		return nil, Invalid("At least one item is required")
	}

	start := 0
	seen := make(map[uuid.UUID]bool, len(ids))
	for i, id := range ids {
		order, ok := current[id]
		if !ok {
			return nil, Invalid("Checklist item %s is not in this category", id)
		}
		if seen[id] {
			return nil, Invalid("Checklist item %s is listed twice", id)
		}
		seen[id] = true
		if i == 0 || order < start {
			start = order
		}
	}

	out := make(map[uuid.UUID]int, len(ids))
	for i, id := range ids {
		out[id] = start + i
	}
	return out, nil
}

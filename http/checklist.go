package http

import (
	"log/slog"
	"strings"

	"github.com/dukerupert/fleetcheck"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ChecklistItemResponse is a checklist item with the answer key its
// answers are stored under.
type ChecklistItemResponse struct {
	*fleetcheck.ChecklistItem
	FieldKey string `json:"fieldKey"`
}

func toChecklistItemResponses(items []*fleetcheck.ChecklistItem) []ChecklistItemResponse {
	out := make([]ChecklistItemResponse, len(items))
	for i, item := range items {
		out[i] = ChecklistItemResponse{ChecklistItem: item, FieldKey: item.FieldKey()}
	}
	return out
}

func (s *Server) handleListCategories(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	categories, err := s.categoryService.FindCategories(ctx)
	if err != nil {
		return err
	}
	if categories == nil {
		categories = []*fleetcheck.VehicleCategory{}
	}
	return RespondOK(c, categories)
}

// handleListCategoryItems returns the items an inspection form shows for a
// checklist group, using the same lookup as reports.
func (s *Server) handleListCategoryItems(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return fleetcheck.Invalid("code is required")
	}

	items, err := s.checklistItemService.FindItemsForCategory(ctx, code)
	if err != nil {
		return err
	}
	fleetcheck.SortChecklistItems(items)
	return RespondOK(c, toChecklistItemResponses(items))
}

func (s *Server) handleListChecklistItems(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	var filter fleetcheck.ChecklistItemFilter
	if v := strings.TrimSpace(c.QueryParam("category")); v != "" {
		filter.Category = &v
	}
	filter.IncludeInactive = c.QueryParam("includeInactive") == "true"

	items, err := s.checklistItemService.FindChecklistItems(ctx, filter)
	if err != nil {
		return err
	}
	return RespondOK(c, toChecklistItemResponses(items))
}

func (s *Server) handleGetChecklistItem(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	item, err := s.checklistItemService.FindChecklistItemByID(ctx, id)
	if err != nil {
		return err
	}
	return RespondOK(c, ChecklistItemResponse{ChecklistItem: item, FieldKey: item.FieldKey()})
}

// CreateChecklistItemRequest is the request payload for creating an item.
type CreateChecklistItemRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Category    string `json:"category" validate:"required,max=50"`
	Required    bool   `json:"required"`
}

func (s *Server) handleCreateChecklistItem(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	var req CreateChecklistItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	item := &fleetcheck.ChecklistItem{
		Name:        req.Name,
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Required:    req.Required,
	}
	if err := s.checklistItemService.CreateChecklistItem(ctx, item); err != nil {
		return err
	}

	s.log(c).Info("checklist item created",
		slog.String("item_id", item.ID.String()),
		slog.String("field_key", item.FieldKey()),
	)
	return RespondCreated(c, ChecklistItemResponse{ChecklistItem: item, FieldKey: item.FieldKey()})
}

// UpdateChecklistItemRequest is the request payload for updating an item.
// Omitted fields are left unchanged.
type UpdateChecklistItemRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Category    *string `json:"category" validate:"omitempty,max=50"`
	Required    *bool   `json:"required"`
}

func (s *Server) handleUpdateChecklistItem(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateChecklistItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	item, err := s.checklistItemService.UpdateChecklistItem(ctx, id, fleetcheck.ChecklistItemUpdate{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Required:    req.Required,
	})
	if err != nil {
		return err
	}

	s.log(c).Info("checklist item updated", slog.String("item_id", id.String()))
	return RespondOK(c, ChecklistItemResponse{ChecklistItem: item, FieldKey: item.FieldKey()})
}

func (s *Server) handleDeactivateChecklistItem(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.checklistItemService.DeactivateChecklistItem(ctx, id); err != nil {
		return err
	}

	s.log(c).Info("checklist item deactivated", slog.String("item_id", id.String()))
	return RespondNoContent(c)
}

// ReorderChecklistItemsRequest lists item ids in their new order.
type ReorderChecklistItemsRequest struct {
	Category string   `json:"category" validate:"required"`
	IDs      []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

func (s *Server) handleReorderChecklistItems(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	var req ReorderChecklistItemsRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ids := make([]uuid.UUID, len(req.IDs))
	for i, raw := range req.IDs {
		id, err := parseUUID(raw)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	if err := s.checklistItemService.ReorderChecklistItems(ctx, req.Category, ids); err != nil {
		return err
	}

	s.log(c).Info("checklist items reordered",
		slog.String("category", req.Category),
		slog.Int("count", len(ids)),
	)
	return RespondNoContent(c)
}

// handleListKeyCollisions reports active items whose names share a field
// key and would overwrite each other's answers.
func (s *Server) handleListKeyCollisions(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	var filter fleetcheck.ChecklistItemFilter
	if v := strings.TrimSpace(c.QueryParam("category")); v != "" {
		filter.Category = &v
	}

	items, err := s.checklistItemService.FindChecklistItems(ctx, filter)
	if err != nil {
		return err
	}

	byCategory := make(map[string][]*fleetcheck.ChecklistItem)
	for _, item := range items {
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}

	out := map[string][]fleetcheck.KeyCollision{}
	for category, group := range byCategory {
		if collisions := fleetcheck.DetectKeyCollisions(group); len(collisions) > 0 {
			out[category] = collisions
		}
	}
	return RespondOK(c, out)
}

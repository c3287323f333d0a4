package mock

import (
	"context"

	"github.com/dukerupert/fleetcheck"
	"github.com/google/uuid"
)

// Compile-time interface checks
var (
	_ fleetcheck.ProfileService  = (*ProfileService)(nil)
	_ fleetcheck.CategoryService = (*CategoryService)(nil)
)

// ProfileService is a mock implementation of fleetcheck.ProfileService.
type ProfileService struct {
	FindProfileByIDFn func(ctx context.Context, id uuid.UUID) (*fleetcheck.Profile, error)
	FindInspectorsFn  func(ctx context.Context) ([]*fleetcheck.Inspector, error)
	UpdateCompanyFn   func(ctx context.Context, id uuid.UUID, company fleetcheck.Company) (*fleetcheck.Profile, error)
}

func (s *ProfileService) FindProfileByID(ctx context.Context, id uuid.UUID) (*fleetcheck.Profile, error) {
	if s.FindProfileByIDFn != nil {
		return s.FindProfileByIDFn(ctx, id)
	}
	return nil, fleetcheck.NotFound("Profile not found")
}

func (s *ProfileService) FindInspectors(ctx context.Context) ([]*fleetcheck.Inspector, error) {
	if s.FindInspectorsFn != nil {
		return s.FindInspectorsFn(ctx)
	}
	return []*fleetcheck.Inspector{}, nil
}

func (s *ProfileService) UpdateCompany(ctx context.Context, id uuid.UUID, company fleetcheck.Company) (*fleetcheck.Profile, error) {
	if s.UpdateCompanyFn != nil {
		return s.UpdateCompanyFn(ctx, id, company)
	}
	return nil, fleetcheck.NotFound("Profile not found")
}

// CategoryService is a mock implementation of fleetcheck.CategoryService.
type CategoryService struct {
	FindCategoriesFn func(ctx context.Context) ([]*fleetcheck.VehicleCategory, error)
	CategoryLabelFn  func(ctx context.Context, code string) (string, error)
}

func (s *CategoryService) FindCategories(ctx context.Context) ([]*fleetcheck.VehicleCategory, error) {
	if s.FindCategoriesFn != nil {
		return s.FindCategoriesFn(ctx)
	}
	return []*fleetcheck.VehicleCategory{}, nil
}

func (s *CategoryService) CategoryLabel(ctx context.Context, code string) (string, error) {
	if s.CategoryLabelFn != nil {
		return s.CategoryLabelFn(ctx, code)
	}
	return code, nil
}

package postgres

import (
	"context"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/patrickmn/go-cache"
)

// Compile-time check that CategoryService implements fleetcheck.CategoryService.
var _ fleetcheck.CategoryService = (*CategoryService)(nil)

const categoriesCacheKey = "categories"

// CategoryService implements fleetcheck.CategoryService using PostgreSQL.
// The category list changes rarely and is read on every report, so it is
// kept in an in-memory cache.
type CategoryService struct {
	db    *DB
	cache *cache.Cache
}

// NewCategoryService returns a CategoryService caching lookups for ttl.
func NewCategoryService(db *DB, ttl time.Duration) *CategoryService {
	return &CategoryService{
		db:    db,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (s *CategoryService) FindCategories(ctx context.Context) ([]*fleetcheck.VehicleCategory, error) {
	if v, ok := s.cache.Get(categoriesCacheKey); ok {
		return v.([]*fleetcheck.VehicleCategory), nil
	}

	rows, err := s.db.pool.Query(ctx, `SELECT id, code, label, unique_id FROM vehicle_categories ORDER BY label`)
	if err != nil {
		return nil, fleetcheck.Internal("Failed to list categories", err)
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*fleetcheck.VehicleCategory, error) {
		var (
			c  fleetcheck.VehicleCategory
			id pgtype.UUID
		)
		if err := row.Scan(&id, &c.Code, &c.Label, &c.UniqueID); err != nil {
			return nil, err
		}
		c.ID = fromPgUUID(id)
		return &c, nil
	})
	if err != nil {
		return nil, fleetcheck.Internal("Failed to scan categories", err)
	}

	s.cache.SetDefault(categoriesCacheKey, categories)
	return categories, nil
}

func (s *CategoryService) CategoryLabel(ctx context.Context, code string) (string, error) {
	c, err := s.find(ctx, code)
	if err != nil {
		return code, err
	}
	if c == nil || c.Label == "" {
		return code, nil
	}
	return c.Label, nil
}

// uniqueID returns the alternate tag configured for a category code, or ""
// when none is set.
func (s *CategoryService) uniqueID(ctx context.Context, code string) (string, error) {
	c, err := s.find(ctx, code)
	if err != nil || c == nil {
		return "", err
	}
	return c.UniqueID, nil
}

func (s *CategoryService) find(ctx context.Context, code string) (*fleetcheck.VehicleCategory, error) {
	categories, err := s.FindCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, nil
}

// Invalidate drops cached categories.
func (s *CategoryService) Invalidate() {
	s.cache.Flush()
}

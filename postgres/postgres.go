// Package postgres provides PostgreSQL implementations of domain service interfaces.
package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps the database connection pool and exposes domain services.
type DB struct {
	pool   *pgxpool.Pool
	logger *slog.Logger

	// Domain services (initialized in NewDB)
	VehicleService       fleetcheck.VehicleService
	ProfileService       fleetcheck.ProfileService
	CategoryService      fleetcheck.CategoryService
	ChecklistItemService fleetcheck.ChecklistItemService
	InspectionService    fleetcheck.InspectionService
}

// Options tunes NewDB.
type Options struct {
	// CategoryCacheTTL is how long category lookups are served from memory.
	CategoryCacheTTL time.Duration
}

// NewDB creates a new database wrapper with all services initialized.
func NewDB(pool *pgxpool.Pool, logger *slog.Logger, opts Options) *DB {
	if opts.CategoryCacheTTL <= 0 {
		opts.CategoryCacheTTL = 10 * time.Minute
	}
	db := &DB{
		pool:   pool,
		logger: logger,
	}

	categories := NewCategoryService(db, opts.CategoryCacheTTL)

	db.VehicleService = &VehicleService{db: db}
	db.ProfileService = &ProfileService{db: db}
	db.CategoryService = categories
	db.ChecklistItemService = &ChecklistItemService{db: db, categories: categories}
	db.InspectionService = &InspectionService{db: db}

	return db
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer using service methods.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Ping checks database connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// inTx runs fn inside a transaction, committing when it returns nil.
func (db *DB) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, db.pool, fn)
}

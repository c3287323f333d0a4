package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/dukerupert/fleetcheck"
	"github.com/dukerupert/fleetcheck/internal/queue"
	"github.com/dukerupert/fleetcheck/pdf"
	"github.com/dukerupert/fleetcheck/postgres"
	"github.com/dukerupert/fleetcheck/report"
	"github.com/dukerupert/fleetcheck/reporting"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Services holds all application services.
type Services struct {
	DB          *postgres.DB
	FileStorage fleetcheck.FileStorage
	Reports     *reporting.Service
	Strings     *report.Strings

	// Jobs and Workers are nil when the queue is disabled.
	Jobs    queue.Queue
	Workers *queue.WorkerPool
}

// initServices initializes all application services.
func initServices(ctx context.Context, pool *pgxpool.Pool, cfg *Config, reg prometheus.Registerer, logger *slog.Logger) (*Services, error) {
	db := postgres.NewDB(pool, logger, postgres.Options{CategoryCacheTTL: cfg.CategoryCacheTTL})
	logger.Info("database services initialized")

	fileStorage, err := postgres.NewFileStorage(ctx, logger, fleetcheck.StorageConfig{
		Provider:  cfg.StorageProvider,
		LocalPath: cfg.StorageLocalPath,
		LocalURL:  cfg.StorageLocalURL,
		S3Bucket:  cfg.StorageS3Bucket,
		S3Region:  cfg.StorageS3Region,
		S3BaseURL: cfg.StorageS3BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing file storage: %w", err)
	}

	categories, err := loadCategoryTable(cfg.CategoryTablePath)
	if err != nil {
		return nil, err
	}

	texts := report.StringsFor(cfg.ReportLocale)

	pdfCfg := pdf.DefaultConfig()
	pdfCfg.ImageTimeout = cfg.ReportImageTimeout
	loader := &pdf.StorageLoader{
		Storage: fileStorage,
		Next:    &pdf.HTTPLoader{Client: &http.Client{Timeout: cfg.ReportImageTimeout}},
	}

	reports := reporting.NewService(logger, reporting.Config{
		Strings:    texts,
		Categories: categories,
		BatchDelay: cfg.ReportBatchDelay,
	})
	reports.InspectionService = db.InspectionService
	reports.VehicleService = db.VehicleService
	reports.ProfileService = db.ProfileService
	reports.CategoryService = db.CategoryService
	reports.ChecklistItemService = db.ChecklistItemService
	reports.FileStorage = fileStorage
	reports.Renderer = pdf.NewRenderer(loader, pdfCfg, logger)
	reports.Metrics = reporting.NewMetrics(reg)

	logger.Info("report service initialized",
		slog.String("locale", cfg.ReportLocale),
		slog.Int("category_table_version", categories.Version))

	services := &Services{
		DB:          db,
		FileStorage: fileStorage,
		Reports:     reports,
		Strings:     texts,
	}

	if cfg.QueueWorkerCount > 0 {
		qcfg := queue.DefaultConfig()
		qcfg.WorkerCount = cfg.QueueWorkerCount
		qcfg.PollInterval = cfg.QueuePollInterval
		qcfg.JobTimeout = cfg.QueueJobTimeout
		qcfg.MaxAttempts = cfg.QueueMaxAttempts
		qcfg.RetryBackoff = cfg.QueueRetryBackoff
		qcfg.CleanupRetention = cfg.QueueCleanupRetention

		jobs := queue.NewPostgresQueue(pool, logger, qcfg)
		workers := queue.NewWorkerPool(jobs, logger, qcfg, reg)
		workers.RegisterHandler(queue.KindRegenerateReport, queue.ReportHandler(reports, db.ProfileService))

		services.Jobs = jobs
		services.Workers = workers
		logger.Info("report queue initialized", slog.Int("workers", qcfg.WorkerCount))
	}

	return services, nil
}

// loadCategoryTable reads the category-to-group table from a YAML file,
// falling back to the built-in table when no path is configured.
func loadCategoryTable(path string) (*fleetcheck.CategoryTable, error) {
	if path == "" {
		return fleetcheck.DefaultCategoryTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening category table: %w", err)
	}
	defer f.Close()

	table, err := fleetcheck.LoadCategoryTable(f)
	if err != nil {
		return nil, fmt.Errorf("loading category table %s: %w", path, err)
	}
	return table, nil
}

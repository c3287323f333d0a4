package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	fleethttp "github.com/dukerupert/fleetcheck/http"
	"github.com/dukerupert/fleetcheck/internal/middleware"
	"github.com/dukerupert/fleetcheck/internal/migrations"
	"github.com/dukerupert/fleetcheck/internal/templates"
	"github.com/dukerupert/fleetcheck/internal/validation"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Stdout, os.Stderr, os.Args, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point for the application, designed for testability.
// It accepts all external dependencies (IO, args, env) as parameters.
func run(
	ctx context.Context,
	stdout, stderr io.Writer,
	args []string,
	getenv func(string) string,
) error {
	cfg, err := LoadConfig(getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(stderr, cfg)
	slog.SetDefault(logger)
	logger.Debug("application configuration",
		slog.String("environment", cfg.Environment),
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("report_locale", cfg.ReportLocale))

	pool, err := newDatabasePool(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating database pool: %w", err)
	}
	defer pool.Close()

	if err := migrations.Up(pool, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	services, err := initServices(ctx, pool, cfg, reg, logger)
	if err != nil {
		return fmt.Errorf("initializing services: %w", err)
	}

	if len(args) > 1 && args[1] == "regenerate" {
		return runRegenerate(ctx, stdout, services, args[2:])
	}

	renderer, err := templates.NewTemplateRenderer(templates.FS)
	if err != nil {
		return fmt.Errorf("initializing templates: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := fleethttp.NewServer(fleethttp.Config{
		Addr:                 addr,
		Logger:               logger,
		ReportTimeout:        cfg.ReportTimeout,
		Renderer:             renderer,
		Validator:            validation.NewValidator(),
		VehicleService:       services.DB.VehicleService,
		ProfileService:       services.DB.ProfileService,
		CategoryService:      services.DB.CategoryService,
		ChecklistItemService: services.DB.ChecklistItemService,
		InspectionService:    services.DB.InspectionService,
		ReportService:        services.Reports,
		ReportStrings:        services.Strings,
		FileStorage:          services.FileStorage,
		DB:                   services.DB,
		Jobs:                 services.Jobs,
		Registry:             reg,
		ReportRateLimit: middleware.RateLimitConfig{
			Rate:            cfg.ReportRatePerMinute / 60,
			Burst:           cfg.ReportRateBurst,
			CleanupInterval: time.Hour,
			IdleTimeout:     time.Hour,
		},
	})

	if services.Workers != nil {
		if err := services.Workers.Start(ctx); err != nil {
			return fmt.Errorf("starting workers: %w", err)
		}
		defer func() {
			if err := services.Workers.Stop(); err != nil {
				logger.Warn("worker pool stop", slog.String("error", err.Error()))
			}
		}()
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", addr))
		if err := server.Open(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer shutdownCancel()

	if err := server.Close(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server exited gracefully")
	return nil
}

// newLogger creates a configured slog.Logger based on environment.
func newLogger(w io.Writer, cfg *Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String("time", a.Value.Time().Format(time.RFC3339Nano))
				}
				return a
			},
		}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newDatabasePool creates a configured pgxpool connection pool.
func newDatabasePool(ctx context.Context, cfg *Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("database connection pool established")
	return pool, nil
}

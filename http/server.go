package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/dukerupert/fleetcheck/internal/middleware"
	"github.com/dukerupert/fleetcheck/internal/queue"
	"github.com/dukerupert/fleetcheck/report"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server with all its dependencies.
type Server struct {
	echo   *echo.Echo
	ln     net.Listener
	logger *slog.Logger

	// Configuration
	Addr string

	// ReportTimeout bounds report rendering requests, which fetch images.
	ReportTimeout time.Duration

	// Domain services
	vehicleService       fleetcheck.VehicleService
	profileService       fleetcheck.ProfileService
	categoryService      fleetcheck.CategoryService
	checklistItemService fleetcheck.ChecklistItemService
	inspectionService    fleetcheck.InspectionService
	reportService        fleetcheck.ReportService
	reportStrings        *report.Strings

	// External services
	fileStorage fleetcheck.FileStorage
	db          Pinger
	jobs        queue.Queue

	metrics     *middleware.Metrics
	gatherer    prometheus.Gatherer
	reportLimit *middleware.RateLimiter
}

// Config holds the configuration for creating a new Server.
type Config struct {
	Addr          string
	Logger        *slog.Logger
	ReportTimeout time.Duration

	// Template renderer
	Renderer echo.Renderer

	// Validator for request payloads
	Validator echo.Validator

	// Domain services
	VehicleService       fleetcheck.VehicleService
	ProfileService       fleetcheck.ProfileService
	CategoryService      fleetcheck.CategoryService
	ChecklistItemService fleetcheck.ChecklistItemService
	InspectionService    fleetcheck.InspectionService
	ReportService        fleetcheck.ReportService
	ReportStrings        *report.Strings

	// External services
	FileStorage fleetcheck.FileStorage
	DB          Pinger

	// Jobs queues background report regeneration. Optional.
	Jobs queue.Queue

	// Metrics registry. Defaults to a private registry.
	Registry *prometheus.Registry

	// ReportRateLimit limits report generation per profile.
	ReportRateLimit middleware.RateLimitConfig
}

// NewServer creates a new HTTP server with the given configuration.
func NewServer(cfg Config) *Server {
	s := &Server{
		Addr:                 cfg.Addr,
		logger:               cfg.Logger,
		ReportTimeout:        cfg.ReportTimeout,
		vehicleService:       cfg.VehicleService,
		profileService:       cfg.ProfileService,
		categoryService:      cfg.CategoryService,
		checklistItemService: cfg.ChecklistItemService,
		inspectionService:    cfg.InspectionService,
		reportService:        cfg.ReportService,
		reportStrings:        cfg.ReportStrings,
		fileStorage:          cfg.FileStorage,
		db:                   cfg.DB,
		jobs:                 cfg.Jobs,
	}

	if s.ReportTimeout == 0 {
		s.ReportTimeout = 60 * time.Second
	}
	if s.reportStrings == nil {
		s.reportStrings = &report.PortugueseStrings
	}

	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s.metrics = middleware.NewMetrics(reg)
	s.gatherer = reg

	limit := cfg.ReportRateLimit
	if limit.Rate == 0 {
		limit = middleware.DefaultRateLimitConfig()
	}
	s.reportLimit = middleware.NewRateLimiter(s.logger, limit, middleware.ByProfile)

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true

	if cfg.Renderer != nil {
		s.echo.Renderer = cfg.Renderer
	}
	if cfg.Validator != nil {
		s.echo.Validator = cfg.Validator
	}

	// Register middleware and routes
	s.registerMiddleware()
	s.registerRoutes()

	return s
}

// Echo returns the underlying Echo instance.
// Use sparingly - prefer registering routes through Server methods.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Open starts the HTTP server.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln

	go func() {
		if err := s.echo.Server.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	s.logger.Info("server started", slog.String("addr", s.Addr))
	return nil
}

// Close gracefully shuts down the HTTP server.
func (s *Server) Close(ctx context.Context) error {
	s.reportLimit.Shutdown()
	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// URL returns the URL of the server.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}

package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/fleetcheck"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// withTimeout creates a context with a timeout for handler operations.
func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), DefaultTimeout)
}

// withReportTimeout is withTimeout for handlers that render reports.
func (s *Server) withReportTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), s.ReportTimeout)
}

// parseUUID parses a UUID from a string, returning a domain error if invalid.
func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, fleetcheck.Invalid("Invalid ID format")
	}
	return id, nil
}

// optionalUUID parses s when set. An empty string clears the reference.
func optionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	if *s == "" {
		id := uuid.Nil
		return &id, nil
	}
	id, err := parseUUID(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// requireUUIDParam extracts and parses a required UUID route parameter.
func requireUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	value := c.Param(name)
	if value == "" {
		return uuid.UUID{}, fleetcheck.Invalid("%s is required", name)
	}
	return parseUUID(value)
}

// requireProfile extracts the signed-in profile from context.
func requireProfile(c echo.Context) (*fleetcheck.Profile, error) {
	profile := fleetcheck.ProfileFromContext(c.Request().Context())
	if profile == nil {
		return nil, fleetcheck.Unauthorized("Authentication required")
	}
	return profile, nil
}

// bind binds the request body to a struct and validates it.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return fleetcheck.Invalid("Invalid request body")
	}
	if err := c.Validate(v); err != nil {
		return err
	}
	return nil
}

// pagination reads offset and limit query parameters. limit defaults to
// 50 and is capped at 200.
func pagination(c echo.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 50
	}
	return offset, min(limit, 200)
}

// log returns the request-scoped logger.
func (s *Server) log(c echo.Context) *slog.Logger {
	return s.getRequestLogger(c)
}

func (s *Server) handleHealthCheck(c echo.Context) error {
	return RespondOK(c, map[string]string{"status": "ok"})
}

func (s *Server) handleLivenessCheck(c echo.Context) error {
	return RespondOK(c, map[string]string{"status": "alive"})
}

func (s *Server) handleReadinessCheck(c echo.Context) error {
	if s.db != nil {
		ctx, cancel := withTimeout(c)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			s.log(c).Warn("readiness check failed", slog.String("error", err.Error()))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return RespondOK(c, map[string]string{"status": "ready"})
}

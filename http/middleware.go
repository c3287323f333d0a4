package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/dukerupert/fleetcheck/internal/middleware"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const (
	// ProfileHeader carries the id of the profile authenticated upstream.
	ProfileHeader = "X-User-ID"

	// Default timeout for database operations.
	DefaultTimeout = 5 * time.Second
)

// registerMiddleware sets up all middleware for the server.
func (s *Server) registerMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(middleware.RequestIDMiddleware(s.logger))
	s.echo.Use(s.requestLoggerMiddleware())
	s.echo.Use(s.metrics.Middleware())

	s.echo.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, ProfileHeader},
	}))

	s.echo.HTTPErrorHandler = s.httpErrorHandler
}

// requestLoggerMiddleware logs each request once it has been answered.
func (s *Server) requestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			logger := middleware.GetRequestLogger(c).With(
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
			)
			c.Set("logger", logger)

			err := next(c)

			status := c.Response().Status
			logAttrs := []any{
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
			}

			if err != nil {
				logAttrs = append(logAttrs, slog.String("error", err.Error()))
				logger.Error("request failed", logAttrs...)
			} else if status >= 500 {
				logger.Error("request completed with server error", logAttrs...)
			} else if status >= 400 {
				logger.Warn("request completed with client error", logAttrs...)
			} else {
				logger.Info("request completed", logAttrs...)
			}

			return err
		}
	}
}

// httpErrorHandler handles errors and returns appropriate responses.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if he, ok := err.(*echo.HTTPError); ok {
		msg, _ := he.Message.(string)
		if msg == "" {
			msg = http.StatusText(he.Code)
		}
		_ = c.JSON(he.Code, ErrorResponse{Error: httpErrorCode(he.Code), Message: msg})
		return
	}

	_ = HandleError(c, s.getRequestLogger(c), err)
}

// ProfileMiddleware loads the profile named by the X-User-ID header and
// attaches it to the request context. The gateway in front of the server
// authenticates users; requests without the header are rejected.
func (s *Server) ProfileMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(ProfileHeader)
			if raw == "" {
				return fleetcheck.Unauthorized("Authentication required")
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				return fleetcheck.Unauthorized("Invalid user id")
			}

			profile, err := s.profileService.FindProfileByID(c.Request().Context(), id)
			if err != nil {
				if fleetcheck.IsErrorCode(err, fleetcheck.ENOTFOUND) {
					return fleetcheck.Unauthorized("Unknown user")
				}
				return err
			}

			ctx := fleetcheck.NewContextWithProfile(c.Request().Context(), profile)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("logger", s.getRequestLogger(c).With(slog.String("profile_id", profile.ID.String())))

			return next(c)
		}
	}
}

// RequireChecklistEditor allows only admins and editors through.
func (s *Server) RequireChecklistEditor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			profile := fleetcheck.ProfileFromContext(c.Request().Context())
			if profile == nil {
				return fleetcheck.Unauthorized("Authentication required")
			}
			if !profile.CanEditChecklist() {
				return fleetcheck.Forbidden("Only admins and editors can change the checklist")
			}
			return next(c)
		}
	}
}

// getRequestLogger retrieves the request-scoped logger from context.
func (s *Server) getRequestLogger(c echo.Context) *slog.Logger {
	if logger, ok := c.Get("logger").(*slog.Logger); ok {
		return logger
	}
	return s.logger
}

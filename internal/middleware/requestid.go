package middleware

import (
	"log/slog"

	"github.com/dukerupert/fleetcheck"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDMiddleware assigns every request an id, echoing an incoming
// X-Request-ID when present. The id is set on the response header, the
// request context and a request-scoped logger stored under "logger".
func RequestIDMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" || len(requestID) > 128 {
				requestID = uuid.New().String()
			}

			c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			c.Set("request_id", requestID)
			c.Set("logger", logger.With(slog.String("request_id", requestID)))

			ctx := fleetcheck.NewContextWithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetRequestID returns the id assigned by RequestIDMiddleware.
func GetRequestID(c echo.Context) string {
	requestID, _ := c.Get("request_id").(string)
	return requestID
}

// GetRequestLogger returns the request-scoped logger, or slog.Default.
func GetRequestLogger(c echo.Context) *slog.Logger {
	logger, ok := c.Get("logger").(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

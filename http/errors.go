package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/fleetcheck"
	"github.com/labstack/echo/v4"
)

// errorStatusCode maps domain error codes to HTTP status codes.
func errorStatusCode(code string) int {
	switch code {
	case fleetcheck.ENOTFOUND:
		return http.StatusNotFound
	case fleetcheck.EINVALID:
		return http.StatusBadRequest
	case fleetcheck.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case fleetcheck.EFORBIDDEN:
		return http.StatusForbidden
	case fleetcheck.ECONFLICT:
		return http.StatusConflict
	case fleetcheck.ERATELIMIT:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// httpErrorCode maps an HTTP status back to a domain code for echo errors
// such as 404 on unknown routes.
func httpErrorCode(status int) string {
	switch status {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return fleetcheck.ENOTFOUND
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return fleetcheck.EINVALID
	case http.StatusUnauthorized:
		return fleetcheck.EUNAUTHORIZED
	case http.StatusForbidden:
		return fleetcheck.EFORBIDDEN
	case http.StatusTooManyRequests:
		return fleetcheck.ERATELIMIT
	default:
		return fleetcheck.EINTERNAL
	}
}

// ErrorResponse represents the JSON error response format.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HandleError converts domain errors to appropriate HTTP responses.
// It logs internal errors and returns user-safe messages.
func HandleError(c echo.Context, logger *slog.Logger, err error) error {
	var domainErr *fleetcheck.Error
	if !errors.As(err, &domainErr) {
		err = fleetcheck.Internal("An unexpected error occurred", err)
	}

	code := fleetcheck.ErrorCode(err)
	message := fleetcheck.ErrorMessage(err)
	fields := fleetcheck.ErrorFields(err)
	status := errorStatusCode(code)

	if code == fleetcheck.EINTERNAL {
		logger.Error("internal error",
			slog.String("error", err.Error()),
			slog.String("path", c.Path()),
			slog.String("method", c.Request().Method),
		)
		// Don't expose internal error details to clients
		message = "An internal error occurred."
	}

	return c.JSON(status, ErrorResponse{
		Error:   code,
		Message: message,
		Fields:  fields,
	})
}

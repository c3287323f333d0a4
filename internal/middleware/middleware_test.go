package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ok(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestRateLimiter_ByProfile(t *testing.T) {
	rl := NewRateLimiter(testLogger(), RateLimitConfig{Rate: 0.001, Burst: 2}, ByProfile)
	defer rl.Shutdown()
	h := rl.Middleware()(ok)

	e := echo.New()
	call := func(profileID uuid.UUID) error {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(fleetcheck.NewContextWithProfile(req.Context(), &fleetcheck.Profile{ID: profileID}))
		return h(e.NewContext(req, httptest.NewRecorder()))
	}

	alice, bob := uuid.New(), uuid.New()
	require.NoError(t, call(alice))
	require.NoError(t, call(alice))

	err := call(alice)
	assert.Equal(t, fleetcheck.ERATELIMIT, fleetcheck.ErrorCode(err))

	// Buckets are per profile.
	assert.NoError(t, call(bob))
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(testLogger(), RateLimitConfig{Rate: 1, Burst: 1, IdleTimeout: time.Minute}, nil)
	defer rl.Shutdown()

	rl.getLimiter("a")
	rl.getLimiter("b")

	assert.Equal(t, 0, rl.sweep(time.Now()))
	assert.Equal(t, 2, rl.sweep(time.Now().Add(2*time.Minute)))
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	var seen string
	h := RequestIDMiddleware(testLogger())(func(c echo.Context) error {
		seen = fleetcheck.RequestIDFromContext(c.Request().Context())
		assert.Equal(t, seen, GetRequestID(c))
		assert.NotNil(t, GetRequestLogger(c))
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "upstream-123")
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	assert.Equal(t, "upstream-123", seen)
	assert.Equal(t, "upstream-123", rec.Header().Get(echo.HeaderXRequestID))

	rec = httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))
	_, err := uuid.Parse(rec.Header().Get(echo.HeaderXRequestID))
	assert.NoError(t, err)
}

func TestMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/vehicles/:id", ok)
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot)
	})

	for _, path := range []string{"/vehicles/1", "/vehicles/2", "/boom"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/vehicles/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/boom", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

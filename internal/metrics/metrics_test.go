package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRoute(t *testing.T) {
	t.Parallel()

	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/blogs/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/fail", func(c echo.Context) error { return echo.NewHTTPError(http.StatusForbidden, "Forbidden") })

	for _, path := range []string{"/api/blogs/1", "/api/blogs/2", "/fail"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/api/blogs/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/fail", "403")))
}

func TestObserveGuardAndHandler(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveGuard(GuardRefreshed)
	m.ObserveGuard(GuardRefreshed)
	m.ObserveGuard(GuardRejected)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GuardOutcomes.WithLabelValues(GuardRefreshed)))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `scriptorium_guard_outcomes_total{outcome="rejected"} 1`))
}

package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetricsApp(t *testing.T) (*fiber.App, *PrometheusMiddleware, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/categories/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/documents/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Delete("/admin/documents/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Post("/admin/documents", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "bad request")
	})
	return app, m, reg
}

// observations returns how many requests the latency histogram recorded for method and path.
func observations(t *testing.T, reg *prometheus.Registry, method, path string) uint64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "http_request_duration_seconds" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["method"] == method && labels["path"] == path {
				return metric.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func TestPrometheusMiddleware_CountsByRouteAndStatus(t *testing.T) {
	app, m, _ := newMetricsApp(t)

	resp, _ := app.Test(httptest.NewRequest("GET", "/categories/process", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	app.Test(httptest.NewRequest("GET", "/categories/mechanical", nil))
	app.Test(httptest.NewRequest("DELETE", "/admin/documents/abc", nil))
	app.Test(httptest.NewRequest("POST", "/admin/documents", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/categories/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("DELETE", "/admin/documents/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("POST", "/admin/documents", "400")))
}

func TestPrometheusMiddleware_LatencyHistogram(t *testing.T) {
	app, m, reg := newMetricsApp(t)

	for i := 0; i < 3; i++ {
		app.Test(httptest.NewRequest("GET", "/documents/doc-"+string(rune('a'+i)), nil))
	}
	app.Test(httptest.NewRequest("DELETE", "/admin/documents/doc-a", nil))
	app.Test(httptest.NewRequest("POST", "/admin/documents", nil))

	assert.Equal(t, uint64(3), observations(t, reg, "GET", "/documents/:id"))
	assert.Equal(t, uint64(1), observations(t, reg, "DELETE", "/admin/documents/:id"))
	assert.Equal(t, uint64(1), observations(t, reg, "POST", "/admin/documents"))
	assert.Zero(t, observations(t, reg, "GET", "/documents/doc-a"), "raw paths never become labels")

	// One series per method and route pattern.
	assert.Equal(t, 3, testutil.CollectAndCount(m.requestDuration, "http_request_duration_seconds"))
}

func TestPrometheusMiddleware_SkipsMetricsEndpoint(t *testing.T) {
	app, m, reg := newMetricsApp(t)

	resp, _ := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Zero(t, testutil.CollectAndCount(m.requestCount, "http_requests_total"))
	assert.Zero(t, testutil.CollectAndCount(m.requestDuration, "http_request_duration_seconds"))
	assert.Zero(t, observations(t, reg, "GET", "/metrics"))
}

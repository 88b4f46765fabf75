package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

func findMetricByName(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestHTTPMetrics_NilProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetricsWithMeter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server")))
	router.GET("/api/v1/integrations/probes", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"probes": []string{"backend"}})
	})
	router.POST("/api/v1/settings/import", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad"})
	})

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/integrations/probes"},
		{http.MethodGet, "/api/v1/integrations/probes"},
		{http.MethodPost, "/api/v1/settings/import"},
		{http.MethodGet, "/missing"},
	} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(r.method, r.path, nil))
	}

	t.Run("counts every request by route and status", func(t *testing.T) {
		m := findMetricByName(t, reader, "http_server_request_total")
		require.NotNil(t, m)
		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok)

		var total int64
		routes := map[string]bool{}
		for _, dp := range sum.DataPoints {
			total += dp.Value
			route, _ := dp.Attributes.Value("http.route")
			routes[route.AsString()] = true
		}
		assert.Equal(t, int64(4), total)
		assert.True(t, routes["/api/v1/integrations/probes"])
		assert.True(t, routes["unknown"])
	})

	t.Run("records latency and active requests", func(t *testing.T) {
		assert.NotNil(t, findMetricByName(t, reader, "http_server_request_duration_seconds"))

		m := findMetricByName(t, reader, "http_server_active_requests")
		require.NotNil(t, m)
		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		for _, dp := range sum.DataPoints {
			assert.Equal(t, int64(0), dp.Value)
		}
	})
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/japabox/storefront/internal/infrastructure/config"
	"github.com/japabox/storefront/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func collectHTTPMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestHTTPMetrics_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mp, err := telemetry.NewMeterProvider(context.Background(), config.TelemetryConfig{}, zap.NewNop())
	require.NoError(t, err)

	r := gin.New()
	r.Use(HTTPMetrics(mp, nil))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetrics_RecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	mp := telemetry.NewMeterProviderFrom(provider, nil)
	require.True(t, mp.IsEnabled())

	r := gin.New()
	r.Use(HTTPMetrics(mp, zap.NewNop()))
	r.GET("/api/v1/stores/:id/menu", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"categories": []string{"Temakis"}})
	})
	r.POST("/api/v1/checkout", func(c *gin.Context) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": "EMPTY_CART"})
	})

	for _, id := range []string{"1", "1", "2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+id+"/menu", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"store_id":"1"}`)))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	metrics := collectHTTPMetrics(t, reader)

	total, ok := metrics["http_server_request_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := map[string]int64{}
	for _, dp := range total.DataPoints {
		route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
		status, _ := dp.Attributes.Value(telemetry.AttrHTTPStatusCode)
		key := route.AsString() + " " + status.Emit()
		if storeID, ok := dp.Attributes.Value(telemetry.AttrStoreID); ok {
			key += " store=" + storeID.AsString()
		}
		counts[key] += dp.Value
	}
	assert.Equal(t, map[string]int64{
		"/api/v1/stores/:id/menu 200 store=1": 2,
		"/api/v1/stores/:id/menu 200 store=2": 1,
		"/api/v1/checkout 422":                1,
	}, counts)

	duration, ok := metrics["http_server_request_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var observed uint64
	for _, dp := range duration.DataPoints {
		observed += dp.Count
	}
	assert.Equal(t, uint64(4), observed)

	reqSize, ok := metrics["http_server_request_size_bytes"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, reqSize.DataPoints, 1)
	assert.Equal(t, float64(len(`{"store_id":"1"}`)), reqSize.DataPoints[0].Sum)

	_, ok = metrics["http_server_response_size_bytes"].Data.(metricdata.Histogram[float64])
	assert.True(t, ok)
}

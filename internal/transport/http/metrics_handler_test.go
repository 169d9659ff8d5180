package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finpanel/internal/infrastructure"
)

func TestMetricsHandler_ServesPrometheus(t *testing.T) {
	cfg := infrastructure.DefaultOTelConfig()
	cfg.EnableTracing = false
	providers, err := infrastructure.InitializeOTel(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { providers.Shutdown(context.Background()) })

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.PipelineRunsTotal.Add(context.Background(), 1)

	h := NewMetricsHandler(providers, nil)
	rec := serve(http.HandlerFunc(h.GetMetrics), http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pipeline_runs")
}

func TestMetricsHandler_NotConfigured(t *testing.T) {
	h := NewMetricsHandler(nil, nil)
	rec := serve(http.HandlerFunc(h.GetMetrics), http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "NOT_CONFIGURED", decodeBody(t, rec)["error_code"])
}

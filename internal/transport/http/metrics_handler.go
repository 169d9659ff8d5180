package http

import (
	"net/http"

	apierrors "finpanel/internal/errors"
	"finpanel/internal/infrastructure"
)

// MetricsHandler serves the Prometheus scrape endpoint
type MetricsHandler struct {
	prometheus   http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a metrics handler. Metrics are reported as not
// configured when telemetry is disabled.
func NewMetricsHandler(providers *infrastructure.OTelProviders, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(nil, false)
	}
	h := &MetricsHandler{errorHandler: errorHandler}
	if providers != nil {
		h.prometheus = providers.PrometheusHTTP
	}
	return h
}

// GetMetrics handles GET /metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrNotConfigured)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

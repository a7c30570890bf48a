package http

import (
	"net/http"

	"github.com/go-chi/render"

	apierrors "probecli/internal/errors"
)

// MetricsHandler exposes the Prometheus scrape endpoint
type MetricsHandler struct {
	prometheus   http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a metrics handler. A nil prometheus handler means
// metrics are disabled and the endpoint answers 503.
func NewMetricsHandler(prometheus http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, errorHandler: errorHandler}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		render.Render(w, r, apierrors.NewProblemDetails(
			http.StatusServiceUnavailable,
			apierrors.TypeServiceDown,
			"Service Unavailable",
			"Metrics collection is disabled",
			r.URL.Path,
		))
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

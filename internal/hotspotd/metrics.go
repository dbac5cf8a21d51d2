package hotspotd

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's Prometheus collectors.
type Metrics struct {
	registry      *prometheus.Registry
	requestsTotal *prometheus.CounterVec
	errorsTotal   prometheus.Counter
	techs         prometheus.Gauge
}

// NewMetrics creates and registers the collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hotspot_requests_total",
		Help: "Total number of HTTP requests received",
	}, []string{"route"})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hotspot_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	techs := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hotspot_catalogue_techs",
		Help: "Number of technologies in the served catalogue",
	})

	registry.MustRegister(requestsTotal, errorsTotal, techs)

	return &Metrics{
		registry:      registry,
		requestsTotal: requestsTotal,
		errorsTotal:   errorsTotal,
		techs:         techs,
	}
}

// IncRequests counts a request to route.
func (m *Metrics) IncRequests(route string) {
	m.requestsTotal.WithLabelValues(route).Inc()
}

// IncErrors counts an error response.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// SetTechs sets the catalogue size gauge.
func (m *Metrics) SetTechs(n int) {
	m.techs.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusWriter captures the status code for metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestMiddleware records request and error counts in m.
func RequestMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrap := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrap, r)
			m.IncRequests(routePattern(r))
			if wrap.status >= 400 {
				m.IncErrors()
			}
		})
	}
}

// routePattern returns the matched chi route so the label set stays bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

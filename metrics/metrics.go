// Package metrics holds the Prometheus collectors of the service: HTTP
// traffic per route plus counters for authentication outcomes. The auth
// counters keep the internal failure reasons (expired, bad signature, ...)
// that are deliberately hidden from clients.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// AuthEventsTotal counts register/login/token outcomes.
	// Labels: event (register|login|token), outcome (success|<reason>).
	AuthEventsTotal *prometheus.CounterVec

	// OwnershipDenialsTotal counts guard rejections per operation.
	OwnershipDenialsTotal *prometheus.CounterVec
}

// New creates and registers all metrics on registry.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebook_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notebook_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebook_auth_events_total",
				Help: "Authentication events by outcome",
			},
			[]string{"event", "outcome"},
		),
		OwnershipDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebook_ownership_denials_total",
				Help: "Note mutations rejected because the caller is not the owner",
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthEventsTotal,
		m.OwnershipDenialsTotal,
	)
	return m
}

// NewNop returns metrics registered on a throwaway registry, for tests and
// callers that do not expose /metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// AuthEvent records one authentication outcome. Safe on a nil receiver.
func (m *Metrics) AuthEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}

// OwnershipDenied records one guard rejection. Safe on a nil receiver.
func (m *Metrics) OwnershipDenied(operation string) {
	if m == nil {
		return
	}
	m.OwnershipDenialsTotal.WithLabelValues(operation).Inc()
}

// Middleware records request counts and latencies labelled by the chi route
// pattern (not the raw path, so note ids do not explode cardinality).
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the exposition format for registry.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

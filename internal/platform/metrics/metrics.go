// Package metrics exposes prometheus instrumentation for the clinic server:
// HTTP request counters/latency plus domain counters for visit transitions,
// dispenses, and stock scan findings.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
	dispenseTotal *prometheus.CounterVec
	scanFindings  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinic_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_visit_transitions_total",
			Help: "Visit status transitions by event.",
		}, []string{"event"}),
		dispenseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_dispense_total",
			Help: "Pharmacy dispense operations by outcome.",
		}, []string{"outcome"}),
		scanFindings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_stock_scan_findings_total",
			Help: "Stock scan findings by notification type.",
		}, []string{"type"}),
	}

	reg.MustRegister(m.httpRequests, m.httpDuration, m.transitions, m.dispenseTotal, m.scanFindings)
	return m
}

// Handler serves the prometheus exposition endpoint.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			m.httpRequests.WithLabelValues(
				c.Request().Method, path, strconv.Itoa(c.Response().Status),
			).Inc()
			m.httpDuration.WithLabelValues(c.Request().Method, path).
				Observe(time.Since(start).Seconds())

			return err
		}
	}
}

func (m *Metrics) RecordTransition(event string) {
	m.transitions.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordDispense(outcome string) {
	m.dispenseTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordScanFinding(notificationType string) {
	m.scanFindings.WithLabelValues(notificationType).Inc()
}

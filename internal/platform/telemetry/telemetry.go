// Package telemetry exposes Prometheus metrics for the rokto server: HTTP
// request counts and latencies, outbound backend calls, and the outcomes of
// blood-request submissions and session refreshes.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rokto"

// Metrics holds every collector the server records into. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry plumbing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	submissions     *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	locationLookups *prometheus.CounterVec
}

// New creates a private registry with Go runtime and process collectors plus
// the application metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Outbound backend API calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Outbound backend API latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blood_request",
			Name:      "submissions_total",
			Help:      "Blood request submissions by result.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "refresh_total",
			Help:      "Session refresh attempts by outcome.",
		}, []string{"outcome"}),
		locationLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "location",
			Name:      "lookups_total",
			Help:      "Location lookups by level and result.",
		}, []string{"level", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.backendRequests,
		m.backendDuration,
		m.submissions,
		m.refreshes,
		m.locationLookups,
	)
	return m
}

// Handler serves the Prometheus text exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latency labelled by the matched
// route pattern rather than the raw path, keeping label cardinality bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// ObserveBackend records one outbound call.
func (m *Metrics) ObserveBackend(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.backendRequests.WithLabelValues(endpoint, outcome).Inc()
	m.backendDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// Submission records the result ("success" or "failure") of a blood request.
func (m *Metrics) Submission(result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}

// Refresh records a session refresh outcome.
func (m *Metrics) Refresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

// LocationLookup records a lookup at level ("division", "district", "thana").
func (m *Metrics) LocationLookup(level string, found bool) {
	if m == nil {
		return
	}
	result := "found"
	if !found {
		result = "not_found"
	}
	m.locationLookups.WithLabelValues(level, result).Inc()
}

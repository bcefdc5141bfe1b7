// Package metrics exposes Prometheus counters for the portal's page views.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/edirhub/internal/app/routetable"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP and domain collectors on a private registry.
type Metrics struct {
	table routetable.Table

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	loginsTotal         *prometheus.CounterVec
	registrationsTotal  prometheus.Counter
	edirRequestsTotal   prometheus.Counter

	registry *prometheus.Registry
}

// New creates the collectors. Requests are labelled with the route pattern
// and view from table, never the raw path, so tenant slugs do not blow up
// label cardinality.
func New(table routetable.Table) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		table: table,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edirhub_http_requests_total",
				Help: "Total number of HTTP requests by route and view",
			},
			[]string{"method", "route", "view", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edirhub_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "view"},
		),

		loginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edirhub_logins_total",
				Help: "Sign-in attempts by outcome",
			},
			[]string{"outcome"},
		),

		registrationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "edirhub_registrations_total",
				Help: "Member registrations submitted",
			},
		),

		edirRequestsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "edirhub_edir_requests_total",
				Help: "Requests to create a new Edir",
			},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.loginsTotal,
		m.registrationsTotal,
		m.edirRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count and latency. It must be installed on the
// chi router so the matched pattern is known once the handler returns.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route, view := m.labels(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequestsTotal.WithLabelValues(r.Method, route, view, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route, view).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) labels(r *http.Request) (route, view string) {
	route = "unmatched"
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			route = p
		}
	}
	view = "none"
	if rt, ok := m.table.Find(r.Method, route); ok {
		view = string(rt.View)
	}
	return route, view
}

// Login outcomes.
const (
	LoginSuccess  = "success"
	LoginFailed   = "failed"
	LoginPending  = "pending"
	LoginLimited  = "rate_limited"
	LoginNoTenant = "ambiguous"
)

// ObserveLogin counts a sign-in attempt. Safe on a nil receiver.
func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.loginsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRegistration counts a member registration. Safe on a nil receiver.
func (m *Metrics) ObserveRegistration() {
	if m == nil {
		return
	}
	m.registrationsTotal.Inc()
}

// ObserveEdirRequest counts a request for a new Edir. Safe on a nil receiver.
func (m *Metrics) ObserveEdirRequest() {
	if m == nil {
		return
	}
	m.edirRequestsTotal.Inc()
}

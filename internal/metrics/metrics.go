// Package metrics exposes Prometheus instrumentation for the HTTP API and
// the grading pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the registry and all instruments.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	itemsGraded     *prometheus.CounterVec
	diagCompleted   prometheus.Counter
	practiceLogged  prometheus.Counter
	bankItems       *prometheus.GaugeVec
	sseClients      prometheus.GaugeFunc
	maintenanceRuns prometheus.Counter
}

// New builds a registry with process/go collectors plus the app instruments.
// clientCount reports the current number of SSE subscribers.
func New(clientCount func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gpa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gpa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		itemsGraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gpa",
			Name:      "items_graded_total",
			Help:      "Graded item responses by item type and correctness.",
		}, []string{"type", "correct"}),
		diagCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gpa",
			Name:      "diagnostic_attempts_completed_total",
			Help:      "Diagnostic attempts submitted and graded.",
		}),
		practiceLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gpa",
			Name:      "practice_attempts_total",
			Help:      "Practice item responses logged.",
		}),
		bankItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gpa",
			Name:      "bank_items",
			Help:      "Loaded item count by source.",
		}, []string{"source"}),
		maintenanceRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gpa",
			Name:      "maintenance_runs_total",
			Help:      "Completed maintenance sweeps.",
		}),
	}

	if clientCount != nil {
		m.sseClients = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "gpa",
			Name:      "sse_clients",
			Help:      "Currently connected SSE clients.",
		}, func() float64 { return float64(clientCount()) })
		reg.MustRegister(m.sseClients)
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.itemsGraded,
		m.diagCompleted,
		m.practiceLogged,
		m.bankItems,
		m.maintenanceRuns,
	)

	return m
}

// Handler returns the /metrics endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware instruments every request with the counter and latency histogram.
// The route label uses the chi route pattern so cardinality stays bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chiRoutePattern(r)
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func chiRoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// ItemGraded records one graded response.
func (m *Metrics) ItemGraded(itemType string, correct bool) {
	m.itemsGraded.WithLabelValues(itemType, strconv.FormatBool(correct)).Inc()
}

// DiagnosticCompleted records a submitted diagnostic attempt.
func (m *Metrics) DiagnosticCompleted() {
	m.diagCompleted.Inc()
}

// PracticeLogged records a logged practice response.
func (m *Metrics) PracticeLogged() {
	m.practiceLogged.Inc()
}

// SetBankItems records the loaded item count for a source.
func (m *Metrics) SetBankItems(source string, n int) {
	m.bankItems.WithLabelValues(source).Set(float64(n))
}

// MaintenanceRun records one completed maintenance sweep.
func (m *Metrics) MaintenanceRun() {
	m.maintenanceRuns.Inc()
}

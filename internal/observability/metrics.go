package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every method is a no-op then.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	generations       *prometheus.CounterVec
	repairPasses      *prometheus.CounterVec
	completionLatency *prometheus.HistogramVec
	schemaDrift       *prometheus.CounterVec
	insightsCache     *prometheus.CounterVec
	auditWrites       *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide registry (with Go runtime and process collectors) once.
func Init() *Metrics {
	initOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		instance = New(reg)
	})
	return instance
}

func Current() *Metrics {
	return instance
}

// New registers the codepath collectors on reg. Tests pass a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "codepath_http_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codepath_http_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "codepath_http_inflight_requests",
			Help: "In-flight API requests.",
		}),
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "codepath_generation_total",
			Help: "Structured generations by call site and outcome.",
		}, []string{"call_site", "outcome"}),
		repairPasses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "codepath_repair_pass_total",
			Help: "Repaired completions by the repair pass that produced the value.",
		}, []string{"pass"}),
		completionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codepath_completion_duration_seconds",
			Help:    "Completion backend latency in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"backend"}),
		schemaDrift: f.NewCounterVec(prometheus.CounterOpts{
			Name: "codepath_schema_drift_total",
			Help: "Repaired values that did not conform to the requested schema.",
		}, []string{"call_site"}),
		insightsCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "codepath_insights_cache_total",
			Help: "Insights cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		auditWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "codepath_generation_audit_writes_total",
			Help: "Generation audit rows written, by status.",
		}, []string{"status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(orUnknown(method), orUnknown(route), orUnknown(status)).Inc()
	m.apiLatency.WithLabelValues(orUnknown(method), orUnknown(route), orUnknown(status)).Observe(dur.Seconds())
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncGeneration(callSite, outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(orUnknown(callSite), orUnknown(outcome)).Inc()
}

func (m *Metrics) IncRepairPass(pass string) {
	if m == nil {
		return
	}
	m.repairPasses.WithLabelValues(orUnknown(pass)).Inc()
}

func (m *Metrics) ObserveCompletion(backend string, dur time.Duration) {
	if m == nil {
		return
	}
	m.completionLatency.WithLabelValues(orUnknown(backend)).Observe(dur.Seconds())
}

func (m *Metrics) IncSchemaDrift(callSite string) {
	if m == nil {
		return
	}
	m.schemaDrift.WithLabelValues(orUnknown(callSite)).Inc()
}

func (m *Metrics) IncInsightsCache(result string) {
	if m == nil {
		return
	}
	m.insightsCache.WithLabelValues(orUnknown(result)).Inc()
}

func (m *Metrics) IncAuditWrite(status string) {
	if m == nil {
		return
	}
	m.auditWrites.WithLabelValues(orUnknown(status)).Inc()
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}

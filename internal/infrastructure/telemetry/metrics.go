package telemetry

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "miv"

// Metrics holds the Prometheus collectors exposed at /metrics.
// A private registry keeps tests independent of the global one.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	stepsTotal     *prometheus.CounterVec
	queueDepth     prometheus.Gauge
	activeRuns     prometheus.Gauge
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	emailsTotal    *prometheus.CounterVec
	webhookLatency prometheus.Histogram
}

// NewMetrics registers the process, Go runtime and application collectors.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "workflow",
		Name:      "runs_total",
		Help:      "Workflow runs that reached a terminal status.",
	}, []string{"status", "trigger"})
	m.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "workflow",
		Name:      "run_duration_seconds",
		Help:      "Wall time of finished workflow runs.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	}, []string{"status"})
	m.stepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "workflow",
		Name:      "steps_total",
		Help:      "Workflow step executions by type and outcome.",
	}, []string{"type", "outcome"})
	m.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "workflow",
		Name:      "queue_depth",
		Help:      "Runs waiting for a worker.",
	})
	m.activeRuns = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "workflow",
		Name:      "active_runs",
		Help:      "Runs currently executing.",
	})
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "code"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	m.emailsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "mail",
		Name:      "emails_total",
		Help:      "Outbound emails by delivery result.",
	}, []string{"result"})
	m.webhookLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "workflow",
		Name:      "webhook_duration_seconds",
		Help:      "Latency of outbound webhook calls.",
		Buckets:   prometheus.DefBuckets,
	})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runsTotal, m.runDuration, m.stepsTotal, m.queueDepth, m.activeRuns,
		m.httpRequests, m.httpDuration, m.emailsTotal, m.webhookLatency,
	)
	return m
}

// RegisterDBStats exposes connection pool statistics for db.
func (m *Metrics) RegisterDBStats(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RunFinished records a terminal run.
func (m *Metrics) RunFinished(status, trigger string, d time.Duration) {
	m.runsTotal.WithLabelValues(status, trigger).Inc()
	m.runDuration.WithLabelValues(status).Observe(d.Seconds())
}

// StepExecuted records one step attempt outcome ("ok", "error", "skipped").
func (m *Metrics) StepExecuted(stepType, outcome string) {
	m.stepsTotal.WithLabelValues(stepType, outcome).Inc()
}

// SetQueueDepth reports the number of queued runs.
func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// RunStarted and RunEnded track in-flight runs.
func (m *Metrics) RunStarted() { m.activeRuns.Inc() }

func (m *Metrics) RunEnded() { m.activeRuns.Dec() }

// HTTPRequest records a served request; route is the gin route template.
func (m *Metrics) HTTPRequest(method, route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, statusText(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// EmailSent records a delivery attempt.
func (m *Metrics) EmailSent(ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.emailsTotal.WithLabelValues(result).Inc()
}

// WebhookCalled records webhook latency.
func (m *Metrics) WebhookCalled(d time.Duration) {
	m.webhookLatency.Observe(d.Seconds())
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

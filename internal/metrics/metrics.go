// Package metrics exposes Prometheus collectors for upstream requests,
// cross-reference augmentation, runner calls and completed runs. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "biofan"

// Metrics owns a private registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	augmentation *prometheus.CounterVec
	calls        *prometheus.CounterVec
	callLatency  *prometheus.HistogramVec
	runs         *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Upstream HTTP requests by source and status code (0 = transport error).",
		}, []string{"source", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_seconds",
			Help:      "Upstream HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		augmentation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "augmentation_lookups_total",
			Help:      "Cross-reference lookups by record kind and outcome.",
		}, []string{"kind", "outcome"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool calls issued by the answer runner.",
		}, []string{"server", "tool", "ok"}),
		callLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_seconds",
			Help:      "Tool call latency including timeouts.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"server"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed research runs and answer cards by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.augmentation, m.calls, m.callLatency, m.runs,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one upstream HTTP exchange.
func (m *Metrics) ObserveRequest(source string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(source, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveAugmentation records one lookup outcome.
func (m *Metrics) ObserveAugmentation(kind, outcome string) {
	if m == nil {
		return
	}
	m.augmentation.WithLabelValues(kind, outcome).Inc()
}

// ObserveCall records one runner call.
func (m *Metrics) ObserveCall(server, tool string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(server, tool, strconv.FormatBool(ok)).Inc()
	m.callLatency.WithLabelValues(server).Observe(elapsed.Seconds())
}

// Run outcomes.
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// ObserveRun records a finished research run or answer card. kind is
// "research" or "answer".
func (m *Metrics) ObserveRun(kind string, calls, failures int) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	switch {
	case calls > 0 && failures >= calls:
		outcome = OutcomeFailed
	case failures > 0:
		outcome = OutcomePartial
	}
	m.runs.WithLabelValues(kind, outcome).Inc()
}

// Package metrics provides Prometheus metrics export for the analysis pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter exports routing and completion metrics in Prometheus format.
// It satisfies completion.Recorder and routing.Recorder.
type Exporter struct {
	registry *prometheus.Registry

	// Analyze metrics
	analyzeRequests *prometheus.CounterVec
	analyzeLatency  prometheus.Histogram

	// Routing metrics
	routingDecisions   *prometheus.CounterVec
	routingSecondaries prometheus.Histogram

	// Completion metrics
	completionCalls    *prometheus.CounterVec
	completionAttempts prometheus.Histogram
	completionLatency  prometheus.Histogram
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewExporter creates a new Prometheus metrics exporter.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.analyzeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triagesense",
			Subsystem: "api",
			Name:      "analyze_requests_total",
			Help:      "Total number of analyze requests",
		},
		[]string{"status"},
	)

	e.analyzeLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "triagesense",
			Subsystem: "api",
			Name:      "analyze_latency_seconds",
			Help:      "End-to-end analyze request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.routingDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triagesense",
			Subsystem: "router",
			Name:      "decisions_total",
			Help:      "Routing decisions by primary specialty and fallback flag",
		},
		[]string{"primary", "fallback"},
	)

	e.routingSecondaries = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "triagesense",
			Subsystem: "router",
			Name:      "secondary_agents",
			Help:      "Number of secondary agents consulted per request",
			Buckets:   []float64{0, 1, 2, 3},
		},
	)

	e.completionCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triagesense",
			Subsystem: "completion",
			Name:      "calls_total",
			Help:      "Completion calls by outcome",
		},
		[]string{"outcome"},
	)

	e.completionAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "triagesense",
			Subsystem: "completion",
			Name:      "attempts",
			Help:      "Backend attempts per completion call, including retries",
			Buckets:   []float64{1, 2, 3, 4, 5},
		},
	)

	e.completionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "triagesense",
			Subsystem: "completion",
			Name:      "latency_seconds",
			Help:      "Completion call latency in seconds, including backoff",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	registry.MustRegister(
		e.analyzeRequests,
		e.analyzeLatency,
		e.routingDecisions,
		e.routingSecondaries,
		e.completionCalls,
		e.completionAttempts,
		e.completionLatency,
	)

	return e
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ObserveAnalyze records one analyze request.
func (e *Exporter) ObserveAnalyze(status string, duration time.Duration) {
	e.analyzeRequests.WithLabelValues(status).Inc()
	e.analyzeLatency.Observe(duration.Seconds())
}

// ObserveRouting records one routing decision. Implements routing.Recorder.
func (e *Exporter) ObserveRouting(primary string, fellBack bool, secondaries int) {
	e.routingDecisions.WithLabelValues(primary, strconv.FormatBool(fellBack)).Inc()
	e.routingSecondaries.Observe(float64(secondaries))
}

// ObserveCompletion records one completion call. Implements completion.Recorder.
func (e *Exporter) ObserveCompletion(outcome string, attempts int, duration time.Duration) {
	e.completionCalls.WithLabelValues(outcome).Inc()
	e.completionAttempts.Observe(float64(attempts))
	e.completionLatency.Observe(duration.Seconds())
}

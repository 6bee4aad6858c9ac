// Package middleware provides cross-cutting observability for the validation
// engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-scoutrate/internal/ports"
)

// Metric names understood by PrometheusMetrics. Unknown names are counted
// under scoutrate_operations_total.
const (
	MetricOfficialResultRequests = "official_result_requests_total"
	MetricOfficialResultLatency  = "official_result_latency_seconds"
	MetricFieldComparisons       = "field_comparisons_total"
	MetricScouters               = "scouters_total"
	MetricEloDelta               = "elo_delta"
	MetricStrategyFailures       = "strategy_failures_total"
	MetricRunsInFlight           = "runs_in_flight"
)

const namespace = "scoutrate"

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
type PrometheusMetrics struct {
	feedRequests     *prometheus.CounterVec
	feedLatency      *prometheus.HistogramVec
	fieldComparisons *prometheus.CounterVec
	scouters         *prometheus.CounterVec
	eloDelta         *prometheus.HistogramVec
	strategyFailures *prometheus.CounterVec
	phaseLatency     *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// its metrics with reg. A nil reg uses the default registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		feedRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricOfficialResultRequests,
				Help:      "Requests made to the official match results feed.",
			},
			[]string{"source", "status"},
		),
		feedLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      MetricOfficialResultLatency,
				Help:      "Latency of official match results requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source", "status"},
		),
		fieldComparisons: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricFieldComparisons,
				Help:      "Field comparisons by strategy and outcome.",
			},
			[]string{"strategy", "outcome"},
		),
		scouters: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricScouters,
				Help:      "Scouters processed per run by result (validated, skipped, errored).",
			},
			[]string{"result"},
		),
		eloDelta: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      MetricEloDelta,
				Help:      "Distribution of persisted rating changes.",
				Buckets:   []float64{-32, -16, -8, -4, -1, -0.5, 0.5, 1, 4, 8, 16, 32},
			},
			[]string{"outcome"},
		),
		strategyFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricStrategyFailures,
				Help:      "Strategies dropped for a match because their ground truth was unavailable.",
			},
			[]string{"strategy"},
		),
		phaseLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of orchestrator phases and operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Operations without a dedicated metric.",
			},
			[]string{"operation", "status"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "system_state",
				Help:      "Current system state values.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// operation latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.phaseLatency.WithLabelValues(operation, labelOr(labels, "status", "success")).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case MetricOfficialResultRequests:
		pm.feedRequests.WithLabelValues(labelOr(labels, "source", "unknown"), labelOr(labels, "status", "unknown")).Add(value)
	case MetricFieldComparisons:
		pm.fieldComparisons.WithLabelValues(labelOr(labels, "strategy", "unknown"), labelOr(labels, "outcome", "unknown")).Add(value)
	case MetricScouters:
		pm.scouters.WithLabelValues(labelOr(labels, "result", "unknown")).Add(value)
	case MetricStrategyFailures:
		pm.strategyFailures.WithLabelValues(labelOr(labels, "strategy", "unknown")).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, labelOr(labels, "status", "success")).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, _ map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case MetricOfficialResultLatency:
		pm.feedLatency.WithLabelValues(labelOr(labels, "source", "unknown"), labelOr(labels, "status", "unknown")).Observe(value)
	case MetricEloDelta:
		pm.eloDelta.WithLabelValues(labelOr(labels, "outcome", "unknown")).Observe(value)
	default:
		pm.phaseLatency.WithLabelValues(metric, labelOr(labels, "status", "success")).Observe(value)
	}
}

func labelOr(labels map[string]string, key, fallback string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return fallback
}

// NopMetrics discards every measurement.
type NopMetrics struct{}

func (NopMetrics) RecordLatency(string, time.Duration, map[string]string) {}
func (NopMetrics) RecordCounter(string, float64, map[string]string)       {}
func (NopMetrics) RecordGauge(string, float64, map[string]string)         {}
func (NopMetrics) RecordHistogram(string, float64, map[string]string)     {}

// Compile-time verification that the collectors implement MetricsCollector.
var (
	_ ports.MetricsCollector = (*PrometheusMetrics)(nil)
	_ ports.MetricsCollector = NopMetrics{}
)

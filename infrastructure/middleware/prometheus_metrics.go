// Package middleware provides cross-cutting concerns for the scoring engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-tally/internal/ports"
)

// Namespace prefixes every metric exported by PrometheusMetrics.
const Namespace = "tally"

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It exposes run counts and durations, scoring throughput and the state of
// the most recent report.
type PrometheusMetrics struct {
	engineRuns         *prometheus.CounterVec
	runDuration        *prometheus.HistogramVec
	participantsScored *prometheus.CounterVec
	bestSwapGain       *prometheus.GaugeVec
	operationCounter   *prometheus.CounterVec
	gauges             *prometheus.GaugeVec
	values             *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and registers
// its metrics with reg. A nil reg uses the default Prometheus registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		engineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      ports.MetricEngineRuns,
				Help:      "Total number of engine runs by outcome.",
			},
			[]string{"engine", "status"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "engine_run_duration_seconds",
				Help:      "Execution time of engine operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "engine"},
		),
		participantsScored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      ports.MetricParticipantsScored,
				Help:      "Total number of participants scored.",
			},
			[]string{"engine"},
		),
		bestSwapGain: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      ports.MetricBestSwapGain,
				Help:      "Best positive swap gain in the most recent report.",
			},
			[]string{"engine"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "operations_total",
				Help:      "Counters recorded under names without a dedicated metric.",
			},
			[]string{"operation", "engine"},
		),
		gauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "report_state",
				Help:      "Gauges recorded under names without a dedicated metric.",
			},
			[]string{"metric", "engine"},
		),
		values: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "report_values",
				Help:      "Distribution of report values such as diagnostic counts.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"metric", "engine"},
		),
	}
}

// engineLabel returns the engine label, or "unknown" when absent.
func engineLabel(labels map[string]string) string {
	if engine := labels["engine"]; engine != "" {
		return engine
	}
	return "unknown"
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.runDuration.WithLabelValues(operation, engineLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	engine := engineLabel(labels)

	switch metric {
	case ports.MetricEngineRuns:
		status := labels["status"]
		if status == "" {
			status = "unknown"
		}
		pm.engineRuns.WithLabelValues(engine, status).Add(value)
	case ports.MetricParticipantsScored:
		pm.participantsScored.WithLabelValues(engine).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, engine).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	engine := engineLabel(labels)

	switch metric {
	case ports.MetricBestSwapGain:
		pm.bestSwapGain.WithLabelValues(engine).Set(value)
	default:
		pm.gauges.WithLabelValues(metric, engine).Set(value)
	}
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	pm.values.WithLabelValues(metric, engineLabel(labels)).Observe(value)
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

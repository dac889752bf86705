package ports

import (
	"time"
)

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// UnitFactory creates a configured Unit from its identifier and decoded
// parameters.
type UnitFactory func(id string, config map[string]any) (Unit, error)

// UnitRegistry creates units by type name.
type UnitRegistry interface {
	// CreateUnit builds a unit of the given type.
	CreateUnit(unitType string, id string, config map[string]any) (Unit, error)

	// RegisterUnitFactory adds or replaces the factory for a unit type.
	RegisterUnitFactory(unitType string, factory UnitFactory) error

	// GetSupportedTypes returns the registered unit types, sorted.
	GetSupportedTypes() []string
}

// Metric names recorded by the engine through MetricsCollector.
const (
	// MetricEngineRuns counts engine runs, labelled by engine and status.
	MetricEngineRuns = "engine_runs_total"
	// MetricEngineRun is the latency operation for a full engine run.
	MetricEngineRun = "engine_run"
	// MetricParticipantsScored counts participants scored.
	MetricParticipantsScored = "participants_scored_total"
	// MetricBestSwapGain is the league-wide best positive swap gain.
	MetricBestSwapGain = "best_swap_gain"
	// MetricDiagnostics is the number of diagnostics in a report.
	MetricDiagnostics = "diagnostics"
)

// Package application wires scoring units into a configured engine and
// exposes it through Engine.Score and Engine.Report.
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-tally/infrastructure/units"
	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

// reportNamespace scopes report IDs so they never collide with other
// name-based UUIDs.
var reportNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ahrav/go-tally/report"))

// Engine runs a configured scoring pipeline over league snapshots.
// An Engine is safe for concurrent use.
type Engine struct {
	def     *EngineDefinition
	logger  *slog.Logger
	metrics ports.MetricsCollector
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for run start and finish events.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the collector that receives run metrics.
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// NewEngine creates an engine from a loaded definition.
func NewEngine(def *EngineDefinition, opts ...Option) (*Engine, error) {
	if def == nil || def.Pipeline == nil || def.Config == nil {
		return nil, fmt.Errorf("%w: engine definition is incomplete", domain.ErrInvalidConfiguration)
	}

	e := &Engine{
		def:    def,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NewDefaultEngine creates an engine from the embedded default
// configuration and the built-in units.
func NewDefaultEngine(ctx context.Context, opts ...Option) (*Engine, error) {
	loader, err := NewEngineLoader(NewDefaultUnitRegistry())
	if err != nil {
		return nil, err
	}
	def, err := loader.LoadDefault(ctx)
	if err != nil {
		return nil, fmt.Errorf("load default engine: %w", err)
	}
	return NewEngine(def, opts...)
}

// Name returns the configured engine name.
func (e *Engine) Name() string { return e.def.Config.Metadata.Name }

// Score returns one participant's points breakdown against league under
// the engine's configuration.
func (e *Engine) Score(ctx context.Context, league domain.League, participant domain.Participant) (domain.PointsReport, error) {
	reports, err := e.ScoreAll(ctx, league, []domain.Participant{participant})
	if err != nil {
		return domain.PointsReport{}, err
	}
	return reports[0], nil
}

// ScoreAll runs the pipeline and returns the points reports in participant
// order, so scores always agree with Report for the same configuration.
func (e *Engine) ScoreAll(ctx context.Context, league domain.League, participants []domain.Participant) ([]domain.PointsReport, error) {
	state, err := e.Run(ctx, league, participants)
	if err != nil {
		return nil, err
	}
	reports, err := domain.MustGet(state, domain.KeyPointsReports, "Engine.ScoreAll")
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", e.Name(), err)
	}
	if len(reports) != len(participants) {
		return nil, fmt.Errorf("engine %s: %w: %d reports for %d participants",
			e.Name(), units.ErrReportMismatch, len(reports), len(participants))
	}
	return reports, nil
}

// Run executes the pipeline and returns the final state. Report is the
// usual entry point; Run exposes intermediate keys for custom stages.
func (e *Engine) Run(ctx context.Context, league domain.League, participants []domain.Participant) (domain.State, error) {
	if len(participants) > units.MaxParticipants {
		return domain.State{}, fmt.Errorf("%w: %d > %d", units.ErrTooManyParticipants, len(participants), units.MaxParticipants)
	}

	id, err := ReportID(league, participants, e.def.Hash)
	if err != nil {
		return domain.State{}, err
	}

	state := domain.With(domain.With(domain.NewState(),
		domain.KeyLeague, league),
		domain.KeyParticipants, participants).
		WithExecutionContext(domain.ExecutionContext{EngineID: e.Name(), RunID: id})

	logger := e.logger.With(
		slog.String("engine", e.Name()),
		slog.String("run_id", id),
		slog.String("league_id", league.ID),
	)
	logger.DebugContext(ctx, "engine run started", slog.Int("participants", len(participants)))

	start := time.Now()
	out, err := e.def.Pipeline.Execute(ctx, state)
	duration := time.Since(start)
	e.recordLatency(duration)

	if err != nil {
		e.recordCounter(ports.MetricEngineRuns, 1, map[string]string{"status": "error"})
		logger.ErrorContext(ctx, "engine run failed",
			slog.Duration("duration", duration),
			slog.Any("error", err),
		)
		return state, fmt.Errorf("engine %s: %w", e.Name(), err)
	}

	status, _ := domain.Get(out, domain.KeySeasonStatus)
	e.recordCounter(ports.MetricEngineRuns, 1, map[string]string{"status": "success"})
	e.recordCounter(ports.MetricParticipantsScored, float64(len(participants)), nil)
	logger.InfoContext(ctx, "engine run finished",
		slog.Int("participants", len(participants)),
		slog.String("status", string(status)),
		slog.Duration("duration", duration),
	)
	return out, nil
}

// Report runs the engine and assembles the season report. Identical
// inputs produce an identical report, ID included. A league without
// contestants still yields a report; its Err method returns
// domain.ErrEmptyLeague.
func (e *Engine) Report(ctx context.Context, league domain.League, participants []domain.Participant) (*domain.SeasonReport, error) {
	state, err := e.Run(ctx, league, participants)
	if err != nil {
		return nil, err
	}

	report := assembleReport(state, league)
	if err := report.Err(); err != nil {
		e.logger.WarnContext(ctx, "season report is empty",
			slog.String("engine", e.Name()),
			slog.String("run_id", report.ID),
			slog.String("league_id", league.ID),
			slog.Any("error", err),
		)
	}
	e.recordReport(report)
	return report, nil
}

// assembleReport copies the pipeline outputs into a SeasonReport. Outputs
// a custom configuration does not produce are left empty.
func assembleReport(state domain.State, league domain.League) *domain.SeasonReport {
	execCtx, _ := state.GetExecutionContext()
	report := &domain.SeasonReport{
		ID:          execCtx.RunID,
		LeagueID:    league.ID,
		LeagueName:  league.Name,
		Rankings:    domain.Rankings{},
		Points:      []domain.PointsReport{},
		Swaps:       []domain.SwapResult{},
		Diagnostics: []domain.Diagnostic{},
	}

	report.Status, _ = domain.Get(state, domain.KeySeasonStatus)
	report.Winner, _ = domain.Get(state, domain.KeyWinner)
	report.Assassin, _ = domain.Get(state, domain.KeyAssassin)

	if rankings, ok := domain.Get(state, domain.KeyRankings); ok && rankings != nil {
		report.Rankings = rankings
	}
	if points, ok := domain.Get(state, domain.KeyPointsReports); ok && points != nil {
		report.Points = points
	}
	if swaps, ok := domain.Get(state, domain.KeySwapResults); ok && swaps != nil {
		report.Swaps = swaps
	}
	if diagnostics, ok := domain.Get(state, domain.KeyDiagnostics); ok && diagnostics != nil {
		report.Diagnostics = diagnostics
	}
	if stats, ok := domain.Get(state, domain.KeySeasonStats); ok && stats != nil {
		report.Stats = *stats
	}
	return report
}

// ReportID derives a name-based UUID from the canonical JSON encoding of
// the inputs and the engine configuration hash.
func ReportID(league domain.League, participants []domain.Participant, configHash string) (string, error) {
	payload, err := json.Marshal(struct {
		Config       string               `json:"config"`
		League       domain.League        `json:"league"`
		Participants []domain.Participant `json:"participants"`
	}{configHash, league, participants})
	if err != nil {
		return "", fmt.Errorf("encode report inputs: %w", err)
	}
	return uuid.NewSHA1(reportNamespace, payload).String(), nil
}

func (e *Engine) recordReport(report *domain.SeasonReport) {
	e.recordGauge(ports.MetricBestSwapGain, float64(report.Stats.BestSwap.Gain))
	if e.metrics != nil {
		e.metrics.RecordHistogram(ports.MetricDiagnostics, float64(len(report.Diagnostics)), e.labels(nil))
	}
}

func (e *Engine) labels(extra map[string]string) map[string]string {
	labels := map[string]string{"engine": e.Name()}
	for k, v := range extra {
		labels[k] = v
	}
	return labels
}

func (e *Engine) recordCounter(metric string, value float64, extra map[string]string) {
	if e.metrics != nil {
		e.metrics.RecordCounter(metric, value, e.labels(extra))
	}
}

func (e *Engine) recordGauge(metric string, value float64) {
	if e.metrics != nil {
		e.metrics.RecordGauge(metric, value, e.labels(nil))
	}
}

func (e *Engine) recordLatency(d time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordLatency(ports.MetricEngineRun, d, e.labels(map[string]string{
			"stages": strconv.Itoa(len(e.def.Config.Stages)),
		}))
	}
}

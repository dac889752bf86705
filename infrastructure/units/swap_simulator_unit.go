package units

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Unit = (*SwapSimulatorUnit)(nil)

// ApplySwap returns a copy of prediction with the two named contestants'
// positions exchanged. Names are matched after normalization. It reports
// false, leaving nothing changed, when either name is empty or missing or
// both resolve to the same position.
func ApplySwap(prediction []string, swap domain.Swap) ([]string, bool) {
	first, second := NormalizeName(swap.First), NormalizeName(swap.Second)
	if first == "" || second == "" {
		return nil, false
	}

	i, j := indexOfName(prediction, first), indexOfName(prediction, second)
	if i < 0 || j < 0 || i == j {
		return nil, false
	}

	out := slices.Clone(prediction)
	out[i], out[j] = out[j], out[i]
	return out, true
}

func indexOfName(prediction []string, normalized string) int {
	return slices.IndexFunc(prediction, func(s string) bool {
		return NormalizeName(s) == normalized
	})
}

// SimulateSwap re-scores the participant with their pending swap applied.
// It reports false when the participant has no swap or the swap cannot
// be applied. The returned gain is the true difference and may be
// negative.
func (s *Scorer) SimulateSwap(p domain.Participant) (domain.SwapResult, bool) {
	if p.PendingSwap == nil {
		return domain.SwapResult{}, false
	}
	swapped, ok := ApplySwap(p.RankingPrediction, *p.PendingSwap)
	if !ok {
		return domain.SwapResult{}, false
	}

	before := s.Total(p)
	after := s.Total(p.WithRankingPrediction(swapped))
	return domain.SwapResult{
		ParticipantID:   p.ID,
		ParticipantName: p.Name,
		Swap:            *p.PendingSwap,
		Before:          before,
		After:           after,
		Gain:            after - before,
	}, true
}

// SimulateSwap is Scorer.SimulateSwap for a single league snapshot.
func SimulateSwap(league domain.League, p domain.Participant) (domain.SwapResult, bool) {
	return NewScorer(league).SimulateSwap(p)
}

// SwapGain is the pair and gain for a participant's pending swap.
type SwapGain struct {
	Swap domain.Swap
	Gain int
}

// BestSwapGain returns the participant's pending swap with its gain, or
// false when no simulation applies.
func BestSwapGain(league domain.League, p domain.Participant) (SwapGain, bool) {
	res, ok := SimulateSwap(league, p)
	if !ok {
		return SwapGain{}, false
	}
	return SwapGain{Swap: res.Swap, Gain: res.Gain}, true
}

// SwapSimulatorUnit simulates every participant's pending swap.
//
// State in: KeyLeague, KeyParticipants, KeyRankings, and optionally
// KeyAssassin. State out: KeySwapResults, in participant order.
type SwapSimulatorUnit struct {
	name   string
	config SwapSimulatorConfig
	tracer trace.Tracer
}

// SwapSimulatorConfig configures the SwapSimulatorUnit.
type SwapSimulatorConfig struct {
	// IncludeNonPositive keeps swaps whose gain is zero or negative in the
	// results. Leaderboards only ever consider positive gains.
	IncludeNonPositive bool `yaml:"include_non_positive" json:"include_non_positive"`
}

// NewSwapSimulatorUnit creates a SwapSimulatorUnit.
func NewSwapSimulatorUnit(name string, config SwapSimulatorConfig) (*SwapSimulatorUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &SwapSimulatorUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("swap-simulator-unit"),
	}, nil
}

// Name returns the unit's identifier.
func (u *SwapSimulatorUnit) Name() string { return u.name }

// Execute simulates pending swaps for all participants in state.
func (u *SwapSimulatorUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := u.tracer.Start(ctx, "SwapSimulatorUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "swap_simulator"),
			attribute.String("unit.id", u.name),
			attribute.Bool("config.include_non_positive", u.config.IncludeNonPositive),
		),
	)
	defer span.End()

	const op = "SwapSimulatorUnit.Execute"
	league, err := domain.MustGet(state, domain.KeyLeague, op)
	if err != nil {
		span.RecordError(err)
		return state, err
	}
	participants, err := domain.MustGet(state, domain.KeyParticipants, op)
	if err != nil {
		span.RecordError(err)
		return state, err
	}
	rankings, err := domain.MustGet(state, domain.KeyRankings, op)
	if err != nil {
		span.RecordError(err)
		return state, err
	}
	assassin, ok := domain.Get(state, domain.KeyAssassin)
	if !ok {
		_, assassinConfig := resolutionConfigs(state)
		assassin = SeasonAssassinWith(league, assassinConfig)
	}

	scorer := NewScorerWith(league, rankings, assassin)
	results := make([]domain.SwapResult, 0)
	bestGain := 0
	for _, p := range participants {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			return state, err
		}
		res, ok := scorer.SimulateSwap(p)
		if !ok {
			continue
		}
		if res.Gain <= 0 && !u.config.IncludeNonPositive {
			continue
		}
		bestGain = max(bestGain, res.Gain)
		results = append(results, res)
	}

	span.SetAttributes(
		attribute.Int("swaps.simulated", len(results)),
		attribute.Int("swaps.best_gain", bestGain),
	)
	return domain.With(state, domain.KeySwapResults, results), nil
}

// Validate checks the unit configuration.
func (u *SwapSimulatorUnit) Validate() error {
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters returns a new unit configured from YAML parameters.
func (u *SwapSimulatorUnit) UnmarshalParameters(params yaml.Node) (*SwapSimulatorUnit, error) {
	config, err := decodeParameters(params, DefaultSwapSimulatorConfig())
	if err != nil {
		return nil, err
	}
	return &SwapSimulatorUnit{name: u.name, config: config, tracer: u.tracer}, nil
}

// DefaultSwapSimulatorConfig returns the default configuration.
func DefaultSwapSimulatorConfig() SwapSimulatorConfig {
	return SwapSimulatorConfig{IncludeNonPositive: true}
}

// CreateSwapSimulatorUnit builds a SwapSimulatorUnit from a parameter map.
func CreateSwapSimulatorUnit(id string, config map[string]any) (*SwapSimulatorUnit, error) {
	cfg := DefaultSwapSimulatorConfig()
	if v, ok := config["include_non_positive"].(bool); ok {
		cfg.IncludeNonPositive = v
	}
	return NewSwapSimulatorUnit(id, cfg)
}

package units

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Unit = (*LipSyncAssassinUnit)(nil)

// SeasonAssassin returns the normalized name that won the most lip syncs
// across the season, using MostFrequent's first-to-reach tie-break.
// Every name in a tied week counts as a win.
func SeasonAssassin(league domain.League) (string, bool) {
	return MostFrequent(flattenNames(league.LipSyncWinnersLog))
}

// SeasonAssassinWith is SeasonAssassin under config: a leader with fewer
// than MinWins wins is not the assassin and the result is empty.
func SeasonAssassinWith(league domain.League, config LipSyncAssassinConfig) string {
	assassin, wins := MostFrequentCount(flattenNames(league.LipSyncWinnersLog))
	if wins < config.MinWins {
		return ""
	}
	return assassin
}

// LipSyncAssassinUnit determines the season's lip-sync assassin.
//
// State in: KeyLeague. State out: KeyAssassin (empty when there is none),
// KeyLipSyncAssassinConfig.
type LipSyncAssassinUnit struct {
	name   string
	config LipSyncAssassinConfig
	tracer trace.Tracer
}

// LipSyncAssassinConfig configures the LipSyncAssassinUnit.
type LipSyncAssassinConfig struct {
	// MinWins is the number of lip-sync wins needed before a contestant
	// counts as the assassin.
	MinWins int `yaml:"min_wins" json:"min_wins" validate:"min=1"`
}

// NewLipSyncAssassinUnit creates a LipSyncAssassinUnit.
func NewLipSyncAssassinUnit(name string, config LipSyncAssassinConfig) (*LipSyncAssassinUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &LipSyncAssassinUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("lip-sync-assassin-unit"),
	}, nil
}

// Name returns the unit's identifier.
func (u *LipSyncAssassinUnit) Name() string { return u.name }

// Execute stores the season's assassin in state.
func (u *LipSyncAssassinUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := u.tracer.Start(ctx, "LipSyncAssassinUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "lip_sync_assassin"),
			attribute.String("unit.id", u.name),
			attribute.Int("config.min_wins", u.config.MinWins),
		),
	)
	defer span.End()

	league, err := domain.MustGet(state, domain.KeyLeague, "LipSyncAssassinUnit.Execute")
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	assassin := SeasonAssassinWith(league, u.config)
	span.SetAttributes(attribute.String("assassin.name", assassin))

	return state.WithMultiple(map[string]any{
		domain.KeyAssassin.Name():       assassin,
		KeyLipSyncAssassinConfig.Name(): u.config,
	}), nil
}

// Validate checks the unit configuration.
func (u *LipSyncAssassinUnit) Validate() error {
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters returns a new unit configured from YAML parameters.
func (u *LipSyncAssassinUnit) UnmarshalParameters(params yaml.Node) (*LipSyncAssassinUnit, error) {
	config, err := decodeParameters(params, DefaultLipSyncAssassinConfig())
	if err != nil {
		return nil, err
	}
	return &LipSyncAssassinUnit{name: u.name, config: config, tracer: u.tracer}, nil
}

// DefaultLipSyncAssassinConfig returns the default configuration.
func DefaultLipSyncAssassinConfig() LipSyncAssassinConfig {
	return LipSyncAssassinConfig{MinWins: 1}
}

// CreateLipSyncAssassinUnit builds a LipSyncAssassinUnit from a parameter map.
func CreateLipSyncAssassinUnit(id string, config map[string]any) (*LipSyncAssassinUnit, error) {
	cfg := DefaultLipSyncAssassinConfig()
	if v, ok := intParam(config, "min_wins"); ok {
		cfg.MinWins = v
	}
	return NewLipSyncAssassinUnit(id, cfg)
}

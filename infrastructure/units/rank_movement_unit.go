package units

import (
	"cmp"
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

var _ ports.Unit = (*RankMovementUnit)(nil)

// DenseRanks ranks totals from highest to lowest. Equal totals share a
// rank and the next distinct total gets the following rank, so
// [30, 20, 20, 10] ranks as [1, 2, 2, 3]. The result is aligned with the
// input.
func DenseRanks(totals []int) []int {
	distinct := slices.Clone(totals)
	slices.Sort(distinct)
	distinct = slices.Compact(distinct)
	slices.Reverse(distinct)

	ranks := make([]int, len(totals))
	for i, t := range totals {
		idx, _ := slices.BinarySearchFunc(distinct, t, func(a, b int) int { return cmp.Compare(b, a) })
		ranks[i] = idx + 1
	}
	return ranks
}

func reportTotals(reports []domain.PointsReport) []int {
	totals := make([]int, len(reports))
	for i, r := range reports {
		totals[i] = r.Total
	}
	return totals
}

// RankMovements compares dense standings before and after a week. The two
// slices must describe the same participants in the same order. Delta is
// positive when the participant moved up.
func RankMovements(before, after []domain.PointsReport) ([]domain.RankMovement, error) {
	if len(before) != len(after) {
		return nil, fmt.Errorf("%w: before=%d after=%d", ErrReportMismatch, len(before), len(after))
	}

	beforeRanks := DenseRanks(reportTotals(before))
	afterRanks := DenseRanks(reportTotals(after))
	movements := make([]domain.RankMovement, len(after))
	for i, r := range after {
		movements[i] = domain.RankMovement{
			ParticipantID:   r.ParticipantID,
			ParticipantName: r.ParticipantName,
			BeforeRank:      beforeRanks[i],
			AfterRank:       afterRanks[i],
			BeforeTotal:     before[i].Total,
			AfterTotal:      r.Total,
			Delta:           beforeRanks[i] - afterRanks[i],
		}
	}
	return movements, nil
}

// WeekOverWeek scores every participant against the league and against
// its previous-week snapshot and returns the resulting movements.
func WeekOverWeek(ctx context.Context, league domain.League, participants []domain.Participant) ([]domain.RankMovement, error) {
	after, err := NewScorer(league).ScoreAll(ctx, participants, 1)
	if err != nil {
		return nil, err
	}
	before, err := NewScorer(league.PreviousWeek()).ScoreAll(ctx, participants, 1)
	if err != nil {
		return nil, err
	}
	return RankMovements(before, after)
}

// RankMovementUnit re-scores participants against the previous week's
// league snapshot and records each participant's standing movement. The
// previous week is resolved with the resolver and assassin settings the
// run recorded in state, so only new results move a participant.
//
// State in: KeyLeague, KeyParticipants, KeyPointsReports, and optionally
// KeyRankingResolverConfig and KeyLipSyncAssassinConfig.
// State out: KeyRankMovements.
type RankMovementUnit struct {
	name   string
	config RankMovementConfig
	tracer trace.Tracer
}

// RankMovementConfig configures the RankMovementUnit.
type RankMovementConfig struct {
	// Concurrency bounds how many participants are re-scored at once.
	Concurrency int `yaml:"concurrency" json:"concurrency" validate:"min=1,max=256"`
}

// NewRankMovementUnit creates a RankMovementUnit.
func NewRankMovementUnit(name string, config RankMovementConfig) (*RankMovementUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &RankMovementUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("rank-movement-unit"),
	}, nil
}

// Name returns the unit's identifier.
func (u *RankMovementUnit) Name() string { return u.name }

// Execute computes week-over-week movements.
func (u *RankMovementUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	ctx, span := u.tracer.Start(ctx, "RankMovementUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "rank_movement"),
			attribute.String("unit.id", u.name),
		),
	)
	defer span.End()

	const op = "RankMovementUnit.Execute"
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
	after, err := domain.MustGet(state, domain.KeyPointsReports, op)
	if err != nil {
		span.RecordError(err)
		return state, err
	}
	if len(after) != len(participants) {
		err := fmt.Errorf("%w: %d reports for %d participants", ErrReportMismatch, len(after), len(participants))
		span.RecordError(err)
		return state, err
	}

	resolver, assassin := resolutionConfigs(state)
	before, err := NewConfiguredScorer(league.PreviousWeek(), resolver, assassin).
		ScoreAll(ctx, participants, u.config.Concurrency)
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	movements, err := RankMovements(before, after)
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	moved := 0
	for _, m := range movements {
		if m.Delta != 0 {
			moved++
		}
	}
	span.SetAttributes(attribute.Int("participants.moved", moved))

	return domain.With(state, domain.KeyRankMovements, movements), nil
}

// Validate checks the unit configuration.
func (u *RankMovementUnit) Validate() error {
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters returns a new unit configured from YAML parameters.
func (u *RankMovementUnit) UnmarshalParameters(params yaml.Node) (*RankMovementUnit, error) {
	config, err := decodeParameters(params, DefaultRankMovementConfig())
	if err != nil {
		return nil, err
	}
	return &RankMovementUnit{name: u.name, config: config, tracer: u.tracer}, nil
}

// DefaultRankMovementConfig returns the default configuration.
func DefaultRankMovementConfig() RankMovementConfig {
	return RankMovementConfig{Concurrency: 8}
}

// CreateRankMovementUnit builds a RankMovementUnit from a parameter map.
func CreateRankMovementUnit(id string, config map[string]any) (*RankMovementUnit, error) {
	cfg := DefaultRankMovementConfig()
	if v, ok := intParam(config, "concurrency"); ok {
		cfg.Concurrency = v
	}
	return NewRankMovementUnit(id, cfg)
}

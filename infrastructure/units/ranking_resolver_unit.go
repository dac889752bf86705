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

var _ ports.Unit = (*RankingResolverUnit)(nil)

// ResolveRankings converts a chronological elimination log into final
// ranks. Every contestant in an event receives
// total - (contestants eliminated in earlier events), so tied contestants
// share a rank and still consume slots for later events. Events without
// any name are skipped. A name listed in more than one event keeps the
// rank from its first event. Ranks below 1 (a log longer than the cast)
// are not assigned.
//
// The winner is never in the log and is not returned; see ResolveSeason.
func ResolveRankings(log [][]string, total int) domain.Rankings {
	rankings := make(domain.Rankings)
	eliminatedBefore := 0
	for _, event := range log {
		names := eventNames(event)
		if names.Empty() {
			continue
		}
		rank := total - eliminatedBefore
		for _, name := range names {
			if _, seen := rankings[name]; seen || rank < 1 {
				continue
			}
			rankings[name] = rank
		}
		eliminatedBefore += len(names)
	}
	return rankings
}

// eventNames normalizes the names in one elimination event.
func eventNames(event []string) domain.NameSet {
	names := make([]string, 0, len(event))
	for _, n := range event {
		names = append(names, NormalizeName(n))
	}
	return domain.NewNameSet(names...)
}

// SeasonResolution is the outcome of resolving a league's elimination log.
type SeasonResolution struct {
	Rankings domain.Rankings
	Status   domain.SeasonStatus
	// Winner is the display name of the only contestant never eliminated.
	// It is empty unless Status is SeasonComplete.
	Winner string
}

// ResolveSeason resolves the league's rankings and, when exactly one
// contestant was never eliminated, assigns that contestant rank 1.
// More than one survivor means the season is in progress and survivors
// stay unranked.
func ResolveSeason(league domain.League) SeasonResolution {
	total := league.TotalContestants()
	if total == 0 {
		return SeasonResolution{Rankings: domain.Rankings{}, Status: domain.SeasonEmpty}
	}

	rankings := ResolveRankings(league.EliminationLog, total)

	var survivors []string
	for _, key := range castOrder(league) {
		if _, eliminated := rankings[key]; !eliminated {
			survivors = append(survivors, key)
		}
	}

	switch len(survivors) {
	case 0:
		return SeasonResolution{Rankings: rankings, Status: domain.SeasonComplete}
	case 1:
		rankings[survivors[0]] = 1
		return SeasonResolution{
			Rankings: rankings,
			Status:   domain.SeasonComplete,
			Winner:   newContestantDirectory(league).display(survivors[0]),
		}
	default:
		return SeasonResolution{Rankings: rankings, Status: domain.SeasonInProgress}
	}
}

// ResolveSeasonWith is ResolveSeason under config. Without
// AssignImplicitWinner the last survivor stays unranked and no winner is
// named.
func ResolveSeasonWith(league domain.League, config RankingResolverConfig) SeasonResolution {
	res := ResolveSeason(league)
	if !config.AssignImplicitWinner && res.Winner != "" {
		delete(res.Rankings, NormalizeName(res.Winner))
		res.Winner = ""
	}
	return res
}

// RankingResolverUnit resolves the league's elimination log into rankings
// and the season status. It records its configuration so units that
// re-score other snapshots of the league resolve them the same way.
//
// State in: KeyLeague. State out: KeyRankings, KeySeasonStatus, KeyWinner,
// KeyRankingResolverConfig.
type RankingResolverUnit struct {
	name   string
	config RankingResolverConfig
	tracer trace.Tracer
}

// RankingResolverConfig configures the RankingResolverUnit.
type RankingResolverConfig struct {
	// AssignImplicitWinner gives rank 1 to the single contestant never
	// eliminated. When false only eliminated contestants are ranked.
	AssignImplicitWinner bool `yaml:"assign_implicit_winner" json:"assign_implicit_winner"`
}

// NewRankingResolverUnit creates a RankingResolverUnit.
func NewRankingResolverUnit(name string, config RankingResolverConfig) (*RankingResolverUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &RankingResolverUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("ranking-resolver-unit"),
	}, nil
}

// Name returns the unit's identifier.
func (u *RankingResolverUnit) Name() string { return u.name }

// Execute resolves rankings for the league in state.
func (u *RankingResolverUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := u.tracer.Start(ctx, "RankingResolverUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "ranking_resolver"),
			attribute.String("unit.id", u.name),
			attribute.Bool("config.assign_implicit_winner", u.config.AssignImplicitWinner),
		),
	)
	defer span.End()

	league, err := domain.MustGet(state, domain.KeyLeague, "RankingResolverUnit.Execute")
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	res := ResolveSeasonWith(league, u.config)

	span.SetAttributes(
		attribute.Int("league.contestants", league.TotalContestants()),
		attribute.Int("rankings.resolved", len(res.Rankings)),
		attribute.String("season.status", string(res.Status)),
	)

	return state.WithMultiple(map[string]any{
		domain.KeyRankings.Name():       res.Rankings,
		domain.KeySeasonStatus.Name():   res.Status,
		domain.KeyWinner.Name():         res.Winner,
		KeyRankingResolverConfig.Name(): u.config,
	}), nil
}

// Validate checks the unit configuration.
func (u *RankingResolverUnit) Validate() error {
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters returns a new unit configured from YAML parameters.
func (u *RankingResolverUnit) UnmarshalParameters(params yaml.Node) (*RankingResolverUnit, error) {
	config, err := decodeParameters(params, DefaultRankingResolverConfig())
	if err != nil {
		return nil, err
	}
	return &RankingResolverUnit{name: u.name, config: config, tracer: u.tracer}, nil
}

// DefaultRankingResolverConfig returns the default configuration.
func DefaultRankingResolverConfig() RankingResolverConfig {
	return RankingResolverConfig{AssignImplicitWinner: true}
}

// CreateRankingResolverUnit builds a RankingResolverUnit from a parameter map.
func CreateRankingResolverUnit(id string, config map[string]any) (*RankingResolverUnit, error) {
	cfg := DefaultRankingResolverConfig()
	if v, ok := config["assign_implicit_winner"].(bool); ok {
		cfg.AssignImplicitWinner = v
	}
	return NewRankingResolverUnit(id, cfg)
}

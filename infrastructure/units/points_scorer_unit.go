package units

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Unit = (*PointsScorerUnit)(nil)

// Scorer scores participants against one league snapshot. Winner logs
// are parsed once at construction. A Scorer is immutable and safe for
// concurrent use.
type Scorer struct {
	league           domain.League
	total            int
	rankings         domain.Rankings
	assassin         domain.NameSet
	challengeWinners []domain.NameSet
	lipSyncWinners   []domain.NameSet
}

// NewScorer resolves the league's rankings and assassin with the default
// settings and returns a Scorer for it.
func NewScorer(league domain.League) *Scorer {
	return NewConfiguredScorer(league, DefaultRankingResolverConfig(), DefaultLipSyncAssassinConfig())
}

// NewConfiguredScorer resolves the league's rankings and assassin under
// the given resolver settings and returns a Scorer for it.
func NewConfiguredScorer(league domain.League, resolver RankingResolverConfig, assassin LipSyncAssassinConfig) *Scorer {
	return NewScorerWith(league, ResolveSeasonWith(league, resolver).Rankings, SeasonAssassinWith(league, assassin))
}

// NewScorerWith returns a Scorer that uses precomputed rankings and
// assassin instead of deriving them from the league.
func NewScorerWith(league domain.League, rankings domain.Rankings, assassin string) *Scorer {
	return &Scorer{
		league:           league.Clone(),
		total:            league.TotalContestants(),
		rankings:         rankings,
		assassin:         ParseNames(assassin),
		challengeWinners: parseLog(league.ChallengeWinnersLog),
		lipSyncWinners:   parseLog(league.LipSyncWinnersLog),
	}
}

func parseLog(entries []string) []domain.NameSet {
	out := make([]domain.NameSet, len(entries))
	for i, e := range entries {
		out[i] = ParseNames(e)
	}
	return out
}

// Score returns the participant's full points breakdown.
func (s *Scorer) Score(p domain.Participant) domain.PointsReport {
	report := domain.PointsReport{
		ParticipantID:   p.ID,
		ParticipantName: p.Name,
		RankingPoints:   s.RankingPoints(p.RankingPrediction),
		ChallengePoints: s.ChallengePoints(p.WeeklyChallengePicks),
		BonusPoints:     s.BonusPoints(p.BonusPredictions),
		AssassinPoints:  s.AssassinPoints(p.LipSyncAssassinPick),
	}
	report.LipSyncPoints = s.WeeklyLipSyncPoints(p.WeeklyLipSyncPicks) + report.AssassinPoints
	report.Total = report.RankingPoints + report.ChallengePoints + report.BonusPoints + report.LipSyncPoints
	return report
}

// Total returns the participant's total score.
func (s *Scorer) Total(p domain.Participant) int { return s.Score(p).Total }

// RankingPoints awards max(0, total - |rank - position|) for every
// predicted contestant that has a resolved rank. Positions are 1-indexed.
// A contestant listed more than once is scored at its first position only.
func (s *Scorer) RankingPoints(prediction []string) int {
	points := 0
	seen := make(map[string]struct{}, len(prediction))
	for i, raw := range prediction {
		name := NormalizeName(raw)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		rank, ok := s.rankings.Rank(name)
		if !ok {
			continue
		}
		points += PositionPoints(s.total, rank, i+1)
	}
	return points
}

// PositionPoints is the ranking score for one contestant predicted at
// position whose resolved rank is rank.
func PositionPoints(total, rank, position int) int {
	distance := rank - position
	if distance < 0 {
		distance = -distance
	}
	return max(0, total-distance)
}

// ChallengePoints scores weekly challenge picks against the winners log.
func (s *Scorer) ChallengePoints(picks []string) int {
	return weeklyPoints(s.challengeWinners, picks, s.league.ChallengePointValue)
}

// WeeklyLipSyncPoints scores weekly lip-sync picks against the winners log.
func (s *Scorer) WeeklyLipSyncPoints(picks []string) int {
	return weeklyPoints(s.lipSyncWinners, picks, s.league.LipSyncPointValue)
}

// weeklyPoints awards value for each week where both the winner set and
// the pick are non-empty and share a name. Weeks past the end of either
// sequence score nothing.
func weeklyPoints(winners []domain.NameSet, picks []string, value int) int {
	points := 0
	for i := range min(len(winners), len(picks)) {
		if weekOutcome(winners[i], picks[i]) == pickCorrect {
			points += max(0, value)
		}
	}
	return points
}

type pickOutcome int

const (
	pickUndecided pickOutcome = iota
	pickMissed
	pickIncorrect
	pickCorrect
)

// weekOutcome classifies one weekly pick against that week's winners.
func weekOutcome(winners domain.NameSet, pick string) pickOutcome {
	picked := ParseNames(pick)
	switch {
	case winners.Empty():
		return pickUndecided
	case picked.Empty():
		return pickMissed
	case picked.Intersects(winners):
		return pickCorrect
	default:
		return pickIncorrect
	}
}

// BonusPoints scores bonus predictions. Categories are matched by exact
// name; unknown and unresolved categories score nothing, and only the
// first prediction for a category counts.
func (s *Scorer) BonusPoints(predictions []domain.BonusPrediction) int {
	points := 0
	seen := make(map[string]struct{}, len(predictions))
	for _, pred := range predictions {
		if _, dup := seen[pred.Category]; dup {
			continue
		}
		seen[pred.Category] = struct{}{}

		category, ok := s.league.Category(pred.Category)
		if !ok || !category.Resolved {
			continue
		}
		if BonusAnswerMatches(category, pred.Answer) {
			points += max(0, category.Points)
		}
	}
	return points
}

// BonusAnswerMatches reports whether a predicted answer is accepted by a
// resolved category. Contestant answers are compared as name sets, number
// answers numerically, and yes/no answers after mapping synonyms.
func BonusAnswerMatches(category domain.BonusCategory, answer string) bool {
	switch category.Kind {
	case domain.AnswerNumber:
		return answerSet(answer, normalizeNumber).Intersects(answerSet(category.Answer, normalizeNumber))
	case domain.AnswerYesNo:
		return answerSet(answer, normalizeYesNo).Intersects(answerSet(category.Answer, normalizeYesNo))
	default:
		return ParseNames(answer).Intersects(ParseNames(category.Answer))
	}
}

// answerSet splits a pipe-joined answer list and normalizes each entry.
func answerSet(text string, normalize func(string) string) domain.NameSet {
	parts := strings.Split(text, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, normalize(p))
	}
	return domain.NewNameSet(out...)
}

func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return NormalizeName(s)
}

func normalizeYesNo(s string) string {
	switch v := NormalizeName(s); v {
	case "y", "yes", "true":
		return "yes"
	case "n", "no", "false":
		return "no"
	default:
		return v
	}
}

// AssassinPoints awards the lip-sync point value when the pick names the
// season's assassin.
func (s *Scorer) AssassinPoints(pick string) int {
	if s.assassin.Empty() {
		return 0
	}
	if ParseNames(pick).Intersects(s.assassin) {
		return max(0, s.league.LipSyncPointValue)
	}
	return 0
}

// ScoreParticipant scores one participant against a league snapshot.
func ScoreParticipant(league domain.League, p domain.Participant) domain.PointsReport {
	return NewScorer(league).Score(p)
}

// ScoreTotal returns a participant's total score for a league snapshot.
func ScoreTotal(league domain.League, p domain.Participant) int {
	return ScoreParticipant(league, p).Total
}

// ScoreAll scores every participant concurrently, bounded by limit.
// Reports are returned in participant order.
func (s *Scorer) ScoreAll(ctx context.Context, participants []domain.Participant, limit int) ([]domain.PointsReport, error) {
	reports := make([]domain.PointsReport, len(participants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, limit))

	for i := range participants {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = s.Score(participants[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring participants: %w", err)
	}
	return reports, nil
}

// PointsScorerUnit computes a points report for every participant.
//
// State in: KeyLeague, KeyParticipants, KeyRankings, and optionally
// KeyAssassin. State out: KeyPointsReports.
type PointsScorerUnit struct {
	name   string
	config PointsScorerConfig
	tracer trace.Tracer
}

// PointsScorerConfig configures the PointsScorerUnit.
type PointsScorerConfig struct {
	// Concurrency bounds how many participants are scored at once.
	Concurrency int `yaml:"concurrency" json:"concurrency" validate:"min=1,max=256"`
}

// NewPointsScorerUnit creates a PointsScorerUnit.
func NewPointsScorerUnit(name string, config PointsScorerConfig) (*PointsScorerUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &PointsScorerUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("points-scorer-unit"),
	}, nil
}

// Name returns the unit's identifier.
func (u *PointsScorerUnit) Name() string { return u.name }

// Execute scores all participants in state.
func (u *PointsScorerUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	ctx, span := u.tracer.Start(ctx, "PointsScorerUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "points_scorer"),
			attribute.String("unit.id", u.name),
			attribute.Int("config.concurrency", u.config.Concurrency),
		),
	)
	defer span.End()

	const op = "PointsScorerUnit.Execute"
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
	if len(participants) > MaxParticipants {
		err := fmt.Errorf("%w: %d exceeds limit of %d", ErrTooManyParticipants, len(participants), MaxParticipants)
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

	reports, err := NewScorerWith(league, rankings, assassin).ScoreAll(ctx, participants, u.config.Concurrency)
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	span.SetAttributes(attribute.Int("participants.scored", len(reports)))
	return domain.With(state, domain.KeyPointsReports, reports), nil
}

// Validate checks the unit configuration.
func (u *PointsScorerUnit) Validate() error {
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters returns a new unit configured from YAML parameters.
func (u *PointsScorerUnit) UnmarshalParameters(params yaml.Node) (*PointsScorerUnit, error) {
	config, err := decodeParameters(params, DefaultPointsScorerConfig())
	if err != nil {
		return nil, err
	}
	return &PointsScorerUnit{name: u.name, config: config, tracer: u.tracer}, nil
}

// DefaultPointsScorerConfig returns the default configuration.
func DefaultPointsScorerConfig() PointsScorerConfig {
	return PointsScorerConfig{Concurrency: 8}
}

// CreatePointsScorerUnit builds a PointsScorerUnit from a parameter map.
func CreatePointsScorerUnit(id string, config map[string]any) (*PointsScorerUnit, error) {
	cfg := DefaultPointsScorerConfig()
	if v, ok := intParam(config, "concurrency"); ok {
		cfg.Concurrency = v
	}
	return NewPointsScorerUnit(id, cfg)
}

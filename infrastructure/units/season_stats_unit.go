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

var _ ports.Unit = (*SeasonStatsUnit)(nil)

// DefaultMinRepeatedPickCount is how many times a participant must pick
// the same contestant to appear on the most-repeated-pick board.
const DefaultMinRepeatedPickCount = 2

// StatsInput is everything BuildSeasonStats aggregates. Reports must be
// aligned with Participants. Swaps and Movements may be empty.
type StatsInput struct {
	League       domain.League
	Participants []domain.Participant
	Rankings     domain.Rankings
	Reports      []domain.PointsReport
	Swaps        []domain.SwapResult
	Movements    []domain.RankMovement

	// MinRepeatedPickCount defaults to DefaultMinRepeatedPickCount when zero.
	MinRepeatedPickCount int
}

// pickRecord summarizes a participant's weekly picks against one log.
type pickRecord struct {
	decided   int
	correct   int
	missed    int
	incorrect int
	longest   int
	current   int
}

// accuracy is the percentage of decided weeks picked correctly.
func (r pickRecord) accuracy() (float64, bool) {
	if r.decided == 0 {
		return 0, false
	}
	return 100 * float64(r.correct) / float64(r.decided), true
}

// recordPicks walks every week of the winners log. A week with no
// decided winner is skipped entirely: it neither breaks nor extends a
// streak, and a blank pick there is not a miss.
func recordPicks(winners []domain.NameSet, picks []string) pickRecord {
	var rec pickRecord
	for i, week := range winners {
		pick := ""
		if i < len(picks) {
			pick = picks[i]
		}

		switch weekOutcome(week, pick) {
		case pickUndecided:
			continue
		case pickCorrect:
			rec.correct++
			rec.current++
			rec.longest = max(rec.longest, rec.current)
		case pickIncorrect:
			rec.incorrect++
			rec.current = 0
		case pickMissed:
			rec.missed++
			rec.current = 0
		}
		rec.decided++
	}
	return rec
}

// participantLine is one participant's inputs and derived figures.
type participantLine struct {
	participant   domain.Participant
	report        domain.PointsReport
	challenge     pickRecord
	lipSync       pickRecord
	repeated      string
	repeatedCount int
}

// BuildSeasonStats derives standings and every leaderboard. Each board
// keeps all participants tied for the best value. A league without
// contestants yields empty stats.
func BuildSeasonStats(in StatsInput) (domain.SeasonStats, error) {
	if in.League.TotalContestants() == 0 {
		return domain.SeasonStats{}, nil
	}
	if len(in.Reports) != len(in.Participants) {
		return domain.SeasonStats{}, fmt.Errorf("%w: %d reports for %d participants",
			ErrReportMismatch, len(in.Reports), len(in.Participants))
	}
	minRepeated := in.MinRepeatedPickCount
	if minRepeated <= 0 {
		minRepeated = DefaultMinRepeatedPickCount
	}

	dir := newContestantDirectory(in.League)
	challengeWinners := parseLog(in.League.ChallengeWinnersLog)
	lipSyncWinners := parseLog(in.League.LipSyncWinnersLog)

	lines := make([]participantLine, len(in.Participants))
	for i, p := range in.Participants {
		repeated, count := MostFrequentCount(flattenNames(p.WeeklyChallengePicks))
		lines[i] = participantLine{
			participant:   p,
			report:        in.Reports[i],
			challenge:     recordPicks(challengeWinners, p.WeeklyChallengePicks),
			lipSync:       recordPicks(lipSyncWinners, p.WeeklyLipSyncPicks),
			repeated:      repeated,
			repeatedCount: count,
		}
	}

	positive := func(v int) (float64, bool) { return float64(v), v > 0 }

	stats := domain.SeasonStats{
		Standings: standings(in.Reports),

		BestRankingPoints: leaderboard(lines, func(l participantLine) (float64, bool) {
			return float64(l.report.RankingPoints), true
		}, nil),
		BestChallengeAccuracy: leaderboard(lines, func(l participantLine) (float64, bool) {
			return l.challenge.accuracy()
		}, nil),
		MostChallengeWins: leaderboard(lines, func(l participantLine) (float64, bool) {
			return positive(l.challenge.correct)
		}, nil),
		LongestChallengeStreak: leaderboard(lines, func(l participantLine) (float64, bool) {
			return positive(l.challenge.longest)
		}, nil),
		CurrentChallengeStreak: leaderboard(lines, func(l participantLine) (float64, bool) {
			return positive(l.challenge.current)
		}, nil),
		MostMissedPicks: leaderboard(lines, func(l participantLine) (float64, bool) {
			return positive(l.challenge.missed + l.lipSync.missed)
		}, nil),
		MostIncorrectPicks: leaderboard(lines, func(l participantLine) (float64, bool) {
			return positive(l.challenge.incorrect + l.lipSync.incorrect)
		}, nil),
		BestLipSyncAccuracy: leaderboard(lines, func(l participantLine) (float64, bool) {
			return l.lipSync.accuracy()
		}, nil),
		BestBonusPoints: leaderboard(lines, func(l participantLine) (float64, bool) {
			return positive(l.report.BonusPoints)
		}, nil),
		BestLipSyncPoints: leaderboard(lines, func(l participantLine) (float64, bool) {
			return positive(l.report.LipSyncPoints)
		}, nil),
		MostRepeatedPick: leaderboard(lines, func(l participantLine) (float64, bool) {
			return float64(l.repeatedCount), l.repeatedCount >= minRepeated
		}, func(l participantLine) string {
			return dir.display(l.repeated)
		}),

		BestSwap:                    bestSwap(in.Swaps),
		MostFrequentChallengeWinner: mostFrequentWinner(dir, in.League.ChallengeWinnersLog),
		Movement:                    in.Movements,
	}
	stats.EarliestSurprise, stats.LatestSurprise = surprises(in.League, dir, in.Rankings, in.Participants)
	stats.BiggestGainers, stats.BiggestLosers = movementBoards(in.Movements)
	return stats, nil
}

func leaderboard(
	lines []participantLine,
	key func(participantLine) (float64, bool),
	detail func(participantLine) string,
) domain.Leaderboard {
	res := domain.ArgmaxWithTies(lines, key)
	board := domain.Leaderboard{Best: res.Best, Entries: make([]domain.LeaderboardEntry, 0, len(res.Winners))}
	for _, l := range res.Winners {
		entry := domain.LeaderboardEntry{
			ParticipantID:   l.participant.ID,
			ParticipantName: l.participant.Name,
			Value:           res.Best,
		}
		if detail != nil {
			entry.Detail = detail(l)
		}
		board.Entries = append(board.Entries, entry)
	}
	return board
}

// standings orders reports by dense rank, keeping input order within a rank.
func standings(reports []domain.PointsReport) []domain.Standing {
	ranks := DenseRanks(reportTotals(reports))
	out := make([]domain.Standing, len(reports))
	for i, r := range reports {
		out[i] = domain.Standing{Rank: ranks[i], Points: r}
	}
	slices.SortStableFunc(out, func(a, b domain.Standing) int { return a.Rank - b.Rank })
	return out
}

func bestSwap(swaps []domain.SwapResult) domain.SwapBoard {
	res := domain.ArgmaxWithTies(swaps, func(s domain.SwapResult) (int, bool) {
		return s.Gain, s.Gain > 0
	})
	board := domain.SwapBoard{Gain: res.Best, Swaps: res.Winners}
	if board.Swaps == nil {
		board.Swaps = []domain.SwapResult{}
	}
	return board
}

func mostFrequentWinner(dir contestantDirectory, log []string) domain.ContestantTally {
	top, count := TopTallies(flattenNames(log))
	names := make([]string, len(top))
	for i, n := range top {
		names[i] = dir.display(n)
	}
	return domain.ContestantTally{Names: names, Display: HumanJoin(names), Count: count}
}

// surprises compares each ranked contestant's resolved rank with the mean
// position participants predicted for it. Contestants nobody predicted
// are skipped.
func surprises(
	league domain.League,
	dir contestantDirectory,
	rankings domain.Rankings,
	participants []domain.Participant,
) (earliest, latest domain.SurpriseBoard) {
	var candidates []domain.Surprise
	for _, key := range castOrder(league) {
		rank, ok := rankings.Rank(key)
		if !ok {
			continue
		}
		sum, n := 0, 0
		for _, p := range participants {
			if idx := indexOfName(p.RankingPrediction, key); idx >= 0 {
				sum += idx + 1
				n++
			}
		}
		if n == 0 {
			continue
		}
		candidates = append(candidates, domain.Surprise{
			Contestant:    dir.display(key),
			ResolvedRank:  rank,
			MeanPredicted: float64(sum) / float64(n),
		})
	}

	early := domain.ArgmaxWithTies(candidates, func(s domain.Surprise) (float64, bool) {
		d := float64(s.ResolvedRank) - s.MeanPredicted
		return d, d > 0
	})
	late := domain.ArgmaxWithTies(candidates, func(s domain.Surprise) (float64, bool) {
		d := s.MeanPredicted - float64(s.ResolvedRank)
		return d, d > 0
	})
	return surpriseBoard(early), surpriseBoard(late)
}

func surpriseBoard(res domain.ArgmaxResult[domain.Surprise, float64]) domain.SurpriseBoard {
	board := domain.SurpriseBoard{Delta: res.Best, Contestants: make([]domain.Surprise, len(res.Winners))}
	for i, s := range res.Winners {
		s.Delta = res.Best
		board.Contestants[i] = s
	}
	return board
}

// castOrder returns the league's normalized contestant names, first
// spelling wins.
func castOrder(league domain.League) []string {
	order := make([]string, 0, len(league.ContestantNames))
	for _, name := range league.ContestantNames {
		if key := NormalizeName(name); key != "" && !slices.Contains(order, key) {
			order = append(order, key)
		}
	}
	return order
}

// movementBoards returns the participants who moved up the most and
// those who dropped the most. Losers carry their negative delta.
func movementBoards(movements []domain.RankMovement) (gainers, losers domain.MovementBoard) {
	up := domain.ArgmaxWithTies(movements, func(m domain.RankMovement) (int, bool) {
		return m.Delta, m.Delta > 0
	})
	down := domain.ArgmaxWithTies(movements, func(m domain.RankMovement) (int, bool) {
		return -m.Delta, m.Delta < 0
	})
	gainers = domain.MovementBoard{Delta: up.Best, Entries: up.Winners}
	losers = domain.MovementBoard{Delta: -down.Best, Entries: down.Winners}
	if gainers.Entries == nil {
		gainers.Entries = []domain.RankMovement{}
	}
	if losers.Entries == nil {
		losers.Entries = []domain.RankMovement{}
	}
	return gainers, losers
}

// SeasonStatsUnit aggregates standings and leaderboards.
//
// State in: KeyLeague, KeyParticipants, KeyRankings, KeyPointsReports,
// and optionally KeySwapResults and KeyRankMovements.
// State out: KeySeasonStats.
type SeasonStatsUnit struct {
	name   string
	config SeasonStatsConfig
	tracer trace.Tracer
}

// SeasonStatsConfig configures the SeasonStatsUnit.
type SeasonStatsConfig struct {
	// MinRepeatedPickCount is the fewest repeats that qualify for the
	// most-repeated-pick board.
	MinRepeatedPickCount int `yaml:"min_repeated_pick_count" json:"min_repeated_pick_count" validate:"min=1"`
}

// NewSeasonStatsUnit creates a SeasonStatsUnit.
func NewSeasonStatsUnit(name string, config SeasonStatsConfig) (*SeasonStatsUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &SeasonStatsUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("season-stats-unit"),
	}, nil
}

// Name returns the unit's identifier.
func (u *SeasonStatsUnit) Name() string { return u.name }

// Execute builds the season statistics.
func (u *SeasonStatsUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := u.tracer.Start(ctx, "SeasonStatsUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "season_stats"),
			attribute.String("unit.id", u.name),
			attribute.Int("config.min_repeated_pick_count", u.config.MinRepeatedPickCount),
		),
	)
	defer span.End()

	const op = "SeasonStatsUnit.Execute"
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
	reports, err := domain.MustGet(state, domain.KeyPointsReports, op)
	if err != nil {
		span.RecordError(err)
		return state, err
	}
	swaps, _ := domain.Get(state, domain.KeySwapResults)
	movements, _ := domain.Get(state, domain.KeyRankMovements)

	stats, err := BuildSeasonStats(StatsInput{
		League:               league,
		Participants:         participants,
		Rankings:             rankings,
		Reports:              reports,
		Swaps:                swaps,
		Movements:            movements,
		MinRepeatedPickCount: u.config.MinRepeatedPickCount,
	})
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	span.SetAttributes(
		attribute.Int("stats.standings", len(stats.Standings)),
		attribute.Int("stats.best_swap_gain", stats.BestSwap.Gain),
	)
	return domain.With(state, domain.KeySeasonStats, &stats), nil
}

// Validate checks the unit configuration.
func (u *SeasonStatsUnit) Validate() error {
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters returns a new unit configured from YAML parameters.
func (u *SeasonStatsUnit) UnmarshalParameters(params yaml.Node) (*SeasonStatsUnit, error) {
	config, err := decodeParameters(params, DefaultSeasonStatsConfig())
	if err != nil {
		return nil, err
	}
	return &SeasonStatsUnit{name: u.name, config: config, tracer: u.tracer}, nil
}

// DefaultSeasonStatsConfig returns the default configuration.
func DefaultSeasonStatsConfig() SeasonStatsConfig {
	return SeasonStatsConfig{MinRepeatedPickCount: DefaultMinRepeatedPickCount}
}

// CreateSeasonStatsUnit builds a SeasonStatsUnit from a parameter map.
func CreateSeasonStatsUnit(id string, config map[string]any) (*SeasonStatsUnit, error) {
	cfg := DefaultSeasonStatsConfig()
	if v, ok := intParam(config, "min_repeated_pick_count"); ok {
		cfg.MinRepeatedPickCount = v
	}
	return NewSeasonStatsUnit(id, cfg)
}

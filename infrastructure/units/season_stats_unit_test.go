package units

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/internal/domain"
)

func fixtureStatsInput(t *testing.T) StatsInput {
	t.Helper()
	league := fixtureLeague()
	participants := fixtureParticipants()
	reports, err := NewScorer(league).ScoreAll(context.Background(), participants, 2)
	require.NoError(t, err)
	return StatsInput{
		League:       league,
		Participants: participants,
		Rankings:     ResolveSeason(league).Rankings,
		Reports:      reports,
	}
}

// ids lists the participant IDs on a leaderboard.
func ids(board domain.Leaderboard) []string {
	out := make([]string, len(board.Entries))
	for i, e := range board.Entries {
		out[i] = e.ParticipantID
	}
	return out
}

func TestBuildSeasonStats(t *testing.T) {
	stats, err := BuildSeasonStats(fixtureStatsInput(t))
	require.NoError(t, err)

	t.Run("standings", func(t *testing.T) {
		require.Len(t, stats.Standings, 2)
		assert.Equal(t, 1, stats.Standings[0].Rank)
		assert.Equal(t, "p1", stats.Standings[0].Points.ParticipantID)
		assert.Equal(t, 2, stats.Standings[1].Rank)
	})

	tests := []struct {
		name    string
		board   domain.Leaderboard
		best    float64
		leaders []string
	}{
		{name: "ranking points", board: stats.BestRankingPoints, best: 8, leaders: []string{"p1"}},
		{name: "challenge accuracy", board: stats.BestChallengeAccuracy, best: 50, leaders: []string{"p1"}},
		{name: "challenge wins", board: stats.MostChallengeWins, best: 1, leaders: []string{"p1"}},
		{name: "longest streak", board: stats.LongestChallengeStreak, best: 1, leaders: []string{"p1"}},
		{name: "current streak", board: stats.CurrentChallengeStreak, best: 0, leaders: []string{}},
		{name: "missed picks", board: stats.MostMissedPicks, best: 5, leaders: []string{"p2"}},
		{name: "incorrect picks", board: stats.MostIncorrectPicks, best: 2, leaders: []string{"p1"}},
		{name: "bonus points", board: stats.BestBonusPoints, best: 12, leaders: []string{"p1"}},
		{name: "lip-sync points", board: stats.BestLipSyncPoints, best: 10, leaders: []string{"p1"}},
		{name: "repeated pick", board: stats.MostRepeatedPick, best: 0, leaders: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.best, tt.board.Best)
			assert.Equal(t, tt.leaders, ids(tt.board))
		})
	}

	t.Run("lip-sync accuracy", func(t *testing.T) {
		assert.InDelta(t, 100.0/3, stats.BestLipSyncAccuracy.Best, 1e-9)
		assert.Equal(t, []string{"p1"}, ids(stats.BestLipSyncAccuracy))
	})

	t.Run("most frequent challenge winner", func(t *testing.T) {
		assert.Equal(t, domain.ContestantTally{
			Names:   []string{"Alice", "Bob", "Carol"},
			Display: "Alice, Bob, & Carol",
			Count:   1,
		}, stats.MostFrequentChallengeWinner)
	})

	t.Run("surprises", func(t *testing.T) {
		require.Len(t, stats.EarliestSurprise.Contestants, 1)
		assert.Equal(t, domain.Surprise{Contestant: "Dana", ResolvedRank: 4, MeanPredicted: 2.5, Delta: 1.5},
			stats.EarliestSurprise.Contestants[0])
		assert.Empty(t, stats.LatestSurprise.Contestants)
	})

	t.Run("no swaps or movements supplied", func(t *testing.T) {
		assert.Empty(t, stats.BestSwap.Swaps)
		assert.Empty(t, stats.BiggestGainers.Entries)
		assert.Empty(t, stats.BiggestLosers.Entries)
	})
}

func TestBuildSeasonStats_TiesAreKept(t *testing.T) {
	in := fixtureStatsInput(t)
	in.Participants = append(in.Participants, in.Participants[0])
	in.Participants[2].ID = "p3"
	in.Reports = append(in.Reports, in.Reports[0])
	in.Reports[2].ParticipantID = "p3"

	stats, err := BuildSeasonStats(in)
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p3"}, ids(stats.BestBonusPoints))
	assert.Equal(t, []int{1, 1, 2}, []int{stats.Standings[0].Rank, stats.Standings[1].Rank, stats.Standings[2].Rank})
}

func TestBuildSeasonStats_SwapsAndMovement(t *testing.T) {
	in := fixtureStatsInput(t)
	in.Swaps = []domain.SwapResult{
		{ParticipantID: "p1", Gain: -3},
		{ParticipantID: "p2", Gain: 3},
		{ParticipantID: "p3", Gain: 3},
	}
	in.Movements = []domain.RankMovement{
		{ParticipantID: "p1", Delta: 2},
		{ParticipantID: "p2", Delta: -1},
		{ParticipantID: "p3", Delta: -1},
		{ParticipantID: "p4", Delta: 0},
	}

	stats, err := BuildSeasonStats(in)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.BestSwap.Gain)
	require.Len(t, stats.BestSwap.Swaps, 2)
	assert.Equal(t, "p2", stats.BestSwap.Swaps[0].ParticipantID)
	assert.Equal(t, "p3", stats.BestSwap.Swaps[1].ParticipantID)

	assert.Equal(t, 2, stats.BiggestGainers.Delta)
	require.Len(t, stats.BiggestGainers.Entries, 1)
	assert.Equal(t, -1, stats.BiggestLosers.Delta)
	assert.Len(t, stats.BiggestLosers.Entries, 2)
	assert.Equal(t, in.Movements, stats.Movement)
}

func TestBuildSeasonStats_OnlyNonPositiveSwaps(t *testing.T) {
	in := fixtureStatsInput(t)
	in.Swaps = []domain.SwapResult{{ParticipantID: "p1", Gain: 0}, {ParticipantID: "p2", Gain: -4}}

	stats, err := BuildSeasonStats(in)
	require.NoError(t, err)
	assert.Zero(t, stats.BestSwap.Gain)
	assert.Empty(t, stats.BestSwap.Swaps)
}

func TestBuildSeasonStats_MostRepeatedPick(t *testing.T) {
	in := fixtureStatsInput(t)
	in.Participants[1].WeeklyChallengePicks = []string{"bob", "Alice", "BOB"}

	stats, err := BuildSeasonStats(in)
	require.NoError(t, err)

	require.Len(t, stats.MostRepeatedPick.Entries, 1)
	entry := stats.MostRepeatedPick.Entries[0]
	assert.Equal(t, "p2", entry.ParticipantID)
	assert.Equal(t, 2.0, entry.Value)
	assert.Equal(t, "Bob", entry.Detail)
}

func TestBuildSeasonStats_SurpriseScenario(t *testing.T) {
	league := domain.League{ContestantNames: append(castOf(13), "Q"), EliminationLog: [][]string{{"Q"}}}
	predictAt := func(id string, pos int) domain.Participant {
		prediction := make([]string, 14)
		prediction[pos-1] = "Q"
		return domain.Participant{ID: id, RankingPrediction: prediction}
	}
	participants := []domain.Participant{predictAt("a", 6), predictAt("b", 10)}
	reports, err := NewScorer(league).ScoreAll(context.Background(), participants, 1)
	require.NoError(t, err)

	stats, err := BuildSeasonStats(StatsInput{
		League:       league,
		Participants: participants,
		Rankings:     ResolveSeason(league).Rankings,
		Reports:      reports,
	})
	require.NoError(t, err)

	assert.Equal(t, 6.0, stats.EarliestSurprise.Delta)
	assert.Equal(t, []domain.Surprise{{Contestant: "Q", ResolvedRank: 14, MeanPredicted: 8, Delta: 6}},
		stats.EarliestSurprise.Contestants)
}

func TestBuildSeasonStats_EmptyLeague(t *testing.T) {
	stats, err := BuildSeasonStats(StatsInput{
		Participants: fixtureParticipants(),
		Reports:      make([]domain.PointsReport, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SeasonStats{}, stats)
}

func TestBuildSeasonStats_ReportMismatch(t *testing.T) {
	in := fixtureStatsInput(t)
	in.Reports = in.Reports[:1]

	_, err := BuildSeasonStats(in)
	assert.ErrorIs(t, err, ErrReportMismatch)
}

func TestBuildSeasonStats_Deterministic(t *testing.T) {
	first, err := BuildSeasonStats(fixtureStatsInput(t))
	require.NoError(t, err)
	second, err := BuildSeasonStats(fixtureStatsInput(t))
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("stats differ between identical runs (-first +second):\n%s", diff)
	}
}

func TestRecordPicks(t *testing.T) {
	tests := []struct {
		name    string
		winners []string
		picks   []string
		want    pickRecord
	}{
		{
			name:    "undecided week keeps the streak",
			winners: []string{"A", "B", "", "C", "D", "E"},
			picks:   []string{"A", "B", "x", "C", "", "E"},
			want:    pickRecord{decided: 5, correct: 4, missed: 1, longest: 3, current: 1},
		},
		{
			name:    "blank pick in an undecided week is not missed",
			winners: []string{"A", ""},
			picks:   []string{"B", ""},
			want:    pickRecord{decided: 1, incorrect: 1},
		},
		{
			name:    "picks shorter than the log",
			winners: []string{"A", "B", ""},
			picks:   []string{"A"},
			want:    pickRecord{decided: 2, correct: 1, missed: 1, longest: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recordPicks(parseLog(tt.winners), tt.picks))
		})
	}
}

func TestSeasonStatsUnit_Execute(t *testing.T) {
	in := fixtureStatsInput(t)
	state := fixtureState().WithMultiple(map[string]any{
		domain.KeyRankings.Name():      in.Rankings,
		domain.KeyPointsReports.Name(): in.Reports,
	})

	unit, err := NewSeasonStatsUnit("stats", DefaultSeasonStatsConfig())
	require.NoError(t, err)

	out, err := unit.Execute(context.Background(), state)
	require.NoError(t, err)

	stats, ok := domain.Get(out, domain.KeySeasonStats)
	require.True(t, ok)
	require.NotNil(t, stats)
	assert.Len(t, stats.Standings, 2)

	_, err = unit.Execute(context.Background(), fixtureState())
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestSeasonStatsUnit_Config(t *testing.T) {
	_, err := NewSeasonStatsUnit("stats", SeasonStatsConfig{MinRepeatedPickCount: 0})
	assert.Error(t, err)

	unit, err := CreateSeasonStatsUnit("stats", map[string]any{"min_repeated_pick_count": 3})
	require.NoError(t, err)
	assert.Equal(t, 3, unit.config.MinRepeatedPickCount)

	next, err := unit.UnmarshalParameters(yamlParams(t, "min_repeated_pick_count: 5"))
	require.NoError(t, err)
	assert.Equal(t, 5, next.config.MinRepeatedPickCount)
}

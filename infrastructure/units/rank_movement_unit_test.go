package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

func TestDenseRanks(t *testing.T) {
	tests := []struct {
		name   string
		totals []int
		want   []int
	}{
		{name: "ties share a rank", totals: []int{30, 20, 20, 10}, want: []int{1, 2, 2, 3}},
		{name: "unsorted input", totals: []int{10, 30, 20, 30}, want: []int{3, 1, 2, 1}},
		{name: "all tied", totals: []int{5, 5}, want: []int{1, 1}},
		{name: "negative totals", totals: []int{-1, 0}, want: []int{2, 1}},
		{name: "empty", totals: nil, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DenseRanks(tt.totals))
		})
	}
}

func TestRankMovements(t *testing.T) {
	before := []domain.PointsReport{{ParticipantID: "a", Total: 10}, {ParticipantID: "b", Total: 20}, {ParticipantID: "c", Total: 5}}
	after := []domain.PointsReport{{ParticipantID: "a", Total: 30}, {ParticipantID: "b", Total: 20}, {ParticipantID: "c", Total: 5}}

	got, err := RankMovements(before, after)
	require.NoError(t, err)

	assert.Equal(t, []domain.RankMovement{
		{ParticipantID: "a", BeforeRank: 2, AfterRank: 1, BeforeTotal: 10, AfterTotal: 30, Delta: 1},
		{ParticipantID: "b", BeforeRank: 1, AfterRank: 2, BeforeTotal: 20, AfterTotal: 20, Delta: -1},
		{ParticipantID: "c", BeforeRank: 3, AfterRank: 3, BeforeTotal: 5, AfterTotal: 5, Delta: 0},
	}, got)

	_, err = RankMovements(before, after[:1])
	assert.ErrorIs(t, err, ErrReportMismatch)
}

func TestRankMovementUnit_Execute(t *testing.T) {
	league := fixtureLeague()
	participants := fixtureParticipants()
	reports, err := NewScorer(league).ScoreAll(context.Background(), participants, 1)
	require.NoError(t, err)

	unit, err := NewRankMovementUnit("movement", DefaultRankMovementConfig())
	require.NoError(t, err)

	t.Run("compares against the previous week", func(t *testing.T) {
		out, err := unit.Execute(context.Background(), domain.With(fixtureState(), domain.KeyPointsReports, reports))
		require.NoError(t, err)

		movements, ok := domain.Get(out, domain.KeyRankMovements)
		require.True(t, ok)
		require.Len(t, movements, 2)

		assert.Equal(t, 36, movements[0].BeforeTotal)
		assert.Equal(t, 40, movements[0].AfterTotal)
		assert.Equal(t, 1, movements[1].BeforeTotal)
		assert.Equal(t, 4, movements[1].AfterTotal)
		assert.Zero(t, movements[0].Delta)
		assert.Zero(t, movements[1].Delta)
	})

	t.Run("report count mismatch", func(t *testing.T) {
		_, err := unit.Execute(context.Background(), domain.With(fixtureState(), domain.KeyPointsReports, reports[:1]))
		assert.ErrorIs(t, err, ErrReportMismatch)
	})

	t.Run("week over week helper matches the unit", func(t *testing.T) {
		movements, err := WeekOverWeek(context.Background(), league, participants)
		require.NoError(t, err)
		assert.Equal(t, 36, movements[0].BeforeTotal)
	})
}

func TestRankMovementUnit_PreviousWeekUsesRecordedSettings(t *testing.T) {
	league := domain.League{
		ID:                "s2",
		ContestantNames:   []string{"Alice", "Bob", "Carol", "Dana"},
		LipSyncWinnersLog: []string{"Carol", "Carol"},
		LipSyncPointValue: 5,
	}
	participants := []domain.Participant{
		{ID: "a", Name: "Avery", LipSyncAssassinPick: "Carol"},
		{ID: "b", Name: "Blair", LipSyncAssassinPick: "Dana"},
	}
	ctx := context.Background()
	input := domain.With(domain.With(domain.NewState(),
		domain.KeyLeague, league),
		domain.KeyParticipants, participants)

	resolver, err := NewRankingResolverUnit("rankings", DefaultRankingResolverConfig())
	require.NoError(t, err)
	assassin, err := NewLipSyncAssassinUnit("assassin", LipSyncAssassinConfig{MinWins: 5})
	require.NoError(t, err)
	points, err := NewPointsScorerUnit("points", DefaultPointsScorerConfig())
	require.NoError(t, err)
	movement, err := NewRankMovementUnit("movement", DefaultRankMovementConfig())
	require.NoError(t, err)

	t.Run("configured assassin threshold", func(t *testing.T) {
		state := input
		for _, u := range []ports.Unit{resolver, assassin, points, movement} {
			state, err = u.Execute(ctx, state)
			require.NoError(t, err)
		}

		got, _ := domain.Get(state, domain.KeyAssassin)
		assert.Empty(t, got)

		movements, ok := domain.Get(state, domain.KeyRankMovements)
		require.True(t, ok)
		require.Len(t, movements, 2)
		for _, m := range movements {
			assert.Zero(t, m.BeforeTotal, m.ParticipantID)
			assert.Zero(t, m.AfterTotal, m.ParticipantID)
			assert.Zero(t, m.Delta, m.ParticipantID)
		}
	})

	t.Run("defaults without recorded settings", func(t *testing.T) {
		after := []domain.PointsReport{{ParticipantID: "a"}, {ParticipantID: "b"}}
		state, err := movement.Execute(ctx, domain.With(input, domain.KeyPointsReports, after))
		require.NoError(t, err)

		movements, ok := domain.Get(state, domain.KeyRankMovements)
		require.True(t, ok)
		assert.Equal(t, 5, movements[0].BeforeTotal)
		assert.Zero(t, movements[1].BeforeTotal)
	})
}

func TestCreateRankMovementUnit(t *testing.T) {
	unit, err := CreateRankMovementUnit("movement", map[string]any{"concurrency": 3})
	require.NoError(t, err)
	assert.Equal(t, 3, unit.config.Concurrency)

	_, err = CreateRankMovementUnit("movement", map[string]any{"concurrency": -1})
	assert.Error(t, err)
}

package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/infrastructure/units"
	"github.com/ahrav/go-tally/internal/testutils"
)

func TestEngine_GeneratedSeasons(t *testing.T) {
	engine := newTestEngine(t)

	options := map[string]testutils.SeasonOptions{
		"default":  testutils.DefaultSeasonOptions(),
		"noisy":    {Contestants: 10, Participants: 15, Weeks: 4, TiePercent: 30, Noise: true},
		"finished": {Contestants: 6, Participants: 5, Weeks: 10, TiePercent: 20},
		"premiere": {Contestants: 14, Participants: 8},
	}

	for name, opts := range options {
		t.Run(name, func(t *testing.T) {
			for seed := range int64(10) {
				gen := testutils.NewSeasonGenerator(seed)
				league, participants := gen.Season(opts)

				report, err := engine.Report(context.Background(), league, participants)
				require.NoError(t, err, "seed %d", gen.Seed())

				require.Len(t, report.Points, len(participants))
				for i, p := range participants {
					got := report.Points[i]
					assert.Equal(t, units.ScoreParticipant(league, p), got, "seed %d participant %s", seed, p.ID)
					assert.Equal(t, got.RankingPoints+got.ChallengePoints+got.BonusPoints+got.LipSyncPoints, got.Total)
					assert.GreaterOrEqual(t, got.Total, 0)
				}

				standings := report.Stats.Standings
				require.Len(t, standings, len(participants))
				for i := 1; i < len(standings); i++ {
					assert.LessOrEqual(t, standings[i-1].Rank, standings[i].Rank)
					assert.GreaterOrEqual(t, standings[i-1].Points.Total, standings[i].Points.Total)
				}

				assert.GreaterOrEqual(t, report.Stats.BestSwap.Gain, 0)
				for _, s := range report.Stats.BestSwap.Swaps {
					assert.Equal(t, report.Stats.BestSwap.Gain, s.Gain)
				}

				again, err := engine.Report(context.Background(), league, participants)
				require.NoError(t, err)
				assert.Equal(t, report, again, "seed %d is not deterministic", seed)
			}
		})
	}
}

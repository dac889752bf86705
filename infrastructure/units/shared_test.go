package units

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
)

// yamlParams parses src into the mapping node a unit receives from the
// engine config.
func yamlParams(t *testing.T, src string) yaml.Node {
	t.Helper()
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &node))
	if len(node.Content) == 0 {
		return yaml.Node{Kind: yaml.MappingNode}
	}
	return *node.Content[0]
}

// fixtureLeague is a four-contestant season two eliminations in.
//
//	rankings: dana=4, carol=3 (alice, bob still competing)
//	assassin: carol (two lip-sync wins)
func fixtureLeague() domain.League {
	return domain.League{
		ID:                  "s1",
		Name:                "Fixture",
		ContestantNames:     []string{"Alice", "Bob", "Carol", "Dana"},
		EliminationLog:      [][]string{{"Dana"}, {"Carol"}},
		ChallengeWinnersLog: []string{"Alice|Bob", "", "Carol"},
		LipSyncWinnersLog:   []string{"Carol", "Dana", "Carol"},
		BonusCategories: []domain.BonusCategory{
			{Name: "Congeniality", Points: 5, Kind: domain.AnswerContestants, Resolved: true, Answer: "Bob"},
			{Name: "Episodes", Points: 3, Kind: domain.AnswerNumber, Resolved: true, Answer: "12"},
			{Name: "Reunion", Points: 4, Kind: domain.AnswerYesNo, Resolved: true, Answer: "yes"},
			{Name: "Finale", Points: 20, Kind: domain.AnswerContestants},
		},
		ChallengePointValue: 10,
		LipSyncPointValue:   5,
	}
}

// fixtureParticipants scores 40 (p1) and 4 (p2) against fixtureLeague.
func fixtureParticipants() []domain.Participant {
	return []domain.Participant{
		{
			ID:                   "p1",
			Name:                 "Pat",
			RankingPrediction:    []string{"Alice", "Bob", "Carol", "Dana"},
			WeeklyChallengePicks: []string{"Bob", "Alice", "Dana"},
			WeeklyLipSyncPicks:   []string{"Carol", "Carol"},
			BonusPredictions: []domain.BonusPrediction{
				{Category: "Congeniality", Answer: "bob"},
				{Category: "Episodes", Answer: "12.0"},
				{Category: "Reunion", Answer: "Y"},
				{Category: "Finale", Answer: "Alice"},
				{Category: "Unknown", Answer: "x"},
			},
			LipSyncAssassinPick: "carol",
			PendingSwap:         &domain.Swap{First: "Alice", Second: "Dana"},
		},
		{
			ID:                "p2",
			Name:              "Sam",
			RankingPrediction: []string{"Dana", "Carol", "Bob", "Alice"},
			BonusPredictions: []domain.BonusPrediction{
				{Category: "Congeniality", Answer: "Alice & Carol"},
				{Category: "Reunion", Answer: "no"},
			},
			LipSyncAssassinPick: "Dana",
			PendingSwap:         &domain.Swap{First: "dana", Second: "ALICE"},
		},
	}
}

// fixtureState holds the league and participants, ready for the first stage.
func fixtureState() domain.State {
	return domain.With(domain.With(domain.NewState(),
		domain.KeyLeague, fixtureLeague()),
		domain.KeyParticipants, fixtureParticipants())
}

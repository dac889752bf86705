// Package testutils generates synthetic leagues and participants for tests
// and sample data. Generation is deterministic for a given seed.
package testutils

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/ahrav/go-tally/internal/domain"
)

// SeasonOptions controls the shape of a generated season.
type SeasonOptions struct {
	// Contestants is the cast size. Values below 2 are raised to 2.
	Contestants int
	// Participants is the number of league members.
	Participants int
	// Weeks is the number of elimination weeks played. It is capped so at
	// least one contestant is never eliminated.
	Weeks int
	// TiePercent is the chance, in percent, that a week eliminates two
	// contestants together.
	TiePercent int
	// Noise adds misspelled and unknown names to participant picks.
	Noise bool
}

// DefaultSeasonOptions returns a mid-season league of typical size.
func DefaultSeasonOptions() SeasonOptions {
	return SeasonOptions{
		Contestants:  12,
		Participants: 20,
		Weeks:        6,
		TiePercent:   10,
	}
}

// SeasonGenerator builds leagues and participants from a seeded faker.
type SeasonGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewSeasonGenerator creates a generator. Without a seed the current time
// is used.
func NewSeasonGenerator(seed ...int64) *SeasonGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}
	return &SeasonGenerator{faker: gofakeit.New(uint64(s)), seed: s}
}

// Seed returns the seed the generator was created with.
func (g *SeasonGenerator) Seed() int64 { return g.seed }

// Season generates a league and its participants.
func (g *SeasonGenerator) Season(opts SeasonOptions) (domain.League, []domain.Participant) {
	league := g.League(opts)
	participants := make([]domain.Participant, opts.Participants)
	for i := range participants {
		participants[i] = g.Participant(league, "p"+strconv.Itoa(i+1), opts.Noise)
	}
	return league, participants
}

// League generates a league with opts.Weeks of results recorded.
func (g *SeasonGenerator) League(opts SeasonOptions) domain.League {
	cast := g.cast(max(opts.Contestants, 2))

	league := domain.League{
		ID:                  g.faker.UUID(),
		Name:                strings.TrimSuffix(g.faker.Sentence(g.faker.Number(2, 4)), "."),
		ContestantNames:     cast,
		ChallengePointValue: g.faker.Number(5, 15),
		LipSyncPointValue:   g.faker.Number(3, 10),
	}

	remaining := slices.Clone(cast)
	g.faker.ShuffleAnySlice(remaining)

	weeks := min(opts.Weeks, len(cast)-1)
	for week := 0; week < weeks && len(remaining) > 1; week++ {
		league.ChallengeWinnersLog = append(league.ChallengeWinnersLog, g.challengeWinners(remaining))
		league.LipSyncWinnersLog = append(league.LipSyncWinnersLog, g.pick(remaining))

		out := 1
		if len(remaining) > 2 && g.chance(opts.TiePercent) {
			out = 2
		}
		// Eliminate from the back of the shuffled order.
		group := slices.Clone(remaining[len(remaining)-out:])
		remaining = remaining[:len(remaining)-out]
		league.EliminationLog = append(league.EliminationLog, group)
	}

	league.BonusCategories = g.bonusCategories(cast)
	return league
}

// Participant generates one member's predictions against league.
func (g *SeasonGenerator) Participant(league domain.League, id string, noise bool) domain.Participant {
	cast := league.ContestantNames
	weeks := len(league.ChallengeWinnersLog)

	p := domain.Participant{
		ID:                  id,
		Name:                g.faker.Name(),
		RankingPrediction:   slices.Clone(cast),
		LipSyncAssassinPick: g.pick(cast),
	}
	g.faker.ShuffleAnySlice(p.RankingPrediction)

	// Some members stop picking before the latest week.
	picked := g.faker.Number(max(weeks-2, 0), weeks)
	for range picked {
		p.WeeklyChallengePicks = append(p.WeeklyChallengePicks, g.pick(cast))
		p.WeeklyLipSyncPicks = append(p.WeeklyLipSyncPicks, g.pick(cast))
	}

	for _, c := range league.BonusCategories {
		if g.chance(80) {
			p.BonusPredictions = append(p.BonusPredictions, domain.BonusPrediction{
				Category: c.Name,
				Answer:   g.bonusAnswer(c.Kind, cast),
			})
		}
	}

	if g.faker.Bool() {
		first := g.pick(cast)
		second := g.pick(cast)
		for second == first {
			second = g.pick(cast)
		}
		p.PendingSwap = &domain.Swap{First: first, Second: second}
	}

	if noise {
		g.addNoise(&p)
	}
	return p
}

// cast returns n distinct contestant names. Names never differ only by
// case and never contain name separators.
func (g *SeasonGenerator) cast(n int) []string {
	seen := make(map[string]struct{}, n)
	names := make([]string, 0, n)
	for attempt := 0; len(names) < n; attempt++ {
		name := g.faker.FirstName()
		if attempt > 20*n {
			name = fmt.Sprintf("%s%d", name, attempt)
		}
		if strings.ContainsAny(name, "|,&/+") || strings.Contains(name, " ") {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names
}

func (g *SeasonGenerator) challengeWinners(remaining []string) string {
	switch {
	case g.chance(5):
		return ""
	case len(remaining) > 2 && g.chance(15):
		first := g.pick(remaining)
		second := g.pick(remaining)
		if first != second {
			return first + "|" + second
		}
		return first
	default:
		return g.pick(remaining)
	}
}

func (g *SeasonGenerator) bonusCategories(cast []string) []domain.BonusCategory {
	categories := []domain.BonusCategory{
		{Name: "Miss Congeniality", Kind: domain.AnswerContestants},
		{Name: "Double Eliminations", Kind: domain.AnswerNumber},
		{Name: "Returning Contestant", Kind: domain.AnswerYesNo},
		{Name: "Top Three", Kind: domain.AnswerContestants},
	}
	for i := range categories {
		categories[i].Points = g.faker.Number(2, 10)
		if g.faker.Bool() {
			categories[i].Resolved = true
			categories[i].Answer = g.bonusAnswer(categories[i].Kind, cast)
		}
	}
	return categories
}

func (g *SeasonGenerator) bonusAnswer(kind domain.AnswerKind, cast []string) string {
	switch kind {
	case domain.AnswerNumber:
		return strconv.Itoa(g.faker.Number(0, 3))
	case domain.AnswerYesNo:
		return g.faker.RandomString([]string{"yes", "no", "Y", "N"})
	default:
		if g.chance(20) {
			return g.pick(cast) + " & " + g.pick(cast)
		}
		return g.pick(cast)
	}
}

// addNoise misspells one ranking entry and adds a prediction for a
// category the league does not have.
func (g *SeasonGenerator) addNoise(p *domain.Participant) {
	if n := len(p.RankingPrediction); n > 0 {
		i := g.faker.Number(0, n-1)
		if name := p.RankingPrediction[i]; len(name) > 3 {
			p.RankingPrediction[i] = name[:len(name)-1]
		}
	}
	p.BonusPredictions = append(p.BonusPredictions, domain.BonusPrediction{
		Category: "Not A Category",
		Answer:   g.faker.Word(),
	})
}

func (g *SeasonGenerator) pick(names []string) string {
	return names[g.faker.Number(0, len(names)-1)]
}

func (g *SeasonGenerator) chance(percent int) bool {
	return g.faker.Number(1, 100) <= percent
}

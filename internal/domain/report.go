package domain

// Rankings maps a normalized contestant name to its resolved final rank
// (1 = winner). Contestants still competing are absent.
type Rankings map[string]int

// Rank returns the resolved rank for a normalized name.
func (r Rankings) Rank(name string) (int, bool) {
	rank, ok := r[name]
	return rank, ok
}

// SeasonStatus summarizes how far the season has progressed.
type SeasonStatus string

// Season states.
const (
	// SeasonEmpty means the league has no contestants to rank.
	SeasonEmpty SeasonStatus = "empty"
	// SeasonInProgress means more than one contestant is still competing.
	SeasonInProgress SeasonStatus = "in_progress"
	// SeasonComplete means exactly one contestant was never eliminated.
	SeasonComplete SeasonStatus = "complete"
)

// PointsReport is a participant's score breakdown.
type PointsReport struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`

	RankingPoints   int `json:"rankingPoints"`
	ChallengePoints int `json:"challengePoints"`
	BonusPoints     int `json:"bonusPoints"`

	// LipSyncPoints includes AssassinPoints.
	LipSyncPoints  int `json:"lipSyncPoints"`
	AssassinPoints int `json:"assassinPoints"`

	Total int `json:"total"`
}

// SwapResult is the outcome of re-scoring a participant with their
// pending swap applied. Gain may be negative.
type SwapResult struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
	Swap            Swap   `json:"swap"`
	Before          int    `json:"before"`
	After           int    `json:"after"`
	Gain            int    `json:"gain"`
}

// RankMovement compares a participant's standing before and after the
// most recent week. Delta is positive when the participant moved up.
type RankMovement struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
	BeforeRank      int    `json:"beforeRank"`
	AfterRank       int    `json:"afterRank"`
	BeforeTotal     int    `json:"beforeTotal"`
	AfterTotal      int    `json:"afterTotal"`
	Delta           int    `json:"delta"`
}

// Standing is one row of the overall dense-ranked leaderboard.
type Standing struct {
	Rank   int          `json:"rank"`
	Points PointsReport `json:"points"`
}

// LeaderboardEntry is a participant sharing a leaderboard's best value.
type LeaderboardEntry struct {
	ParticipantID   string  `json:"participantId"`
	ParticipantName string  `json:"participantName"`
	Value           float64 `json:"value"`

	// Detail carries extra context such as the repeated pick's name.
	Detail string `json:"detail,omitempty"`
}

// Leaderboard holds every participant tied for the best value of a metric.
// An empty Entries slice means no participant qualified.
type Leaderboard struct {
	Best    float64            `json:"best"`
	Entries []LeaderboardEntry `json:"entries"`
}

// SwapBoard holds the tied-best positive swap gains league-wide.
type SwapBoard struct {
	Gain  int          `json:"gain"`
	Swaps []SwapResult `json:"swaps"`
}

// MovementBoard holds the tied-largest standing movements in one direction.
type MovementBoard struct {
	Delta   int            `json:"delta"`
	Entries []RankMovement `json:"entries"`
}

// Surprise describes how far a contestant's real finish differed from the
// league's average prediction.
type Surprise struct {
	Contestant    string  `json:"contestant"`
	ResolvedRank  int     `json:"resolvedRank"`
	MeanPredicted float64 `json:"meanPredicted"`
	Delta         float64 `json:"delta"`
}

// SurpriseBoard holds the tied-largest surprises in one direction.
type SurpriseBoard struct {
	Delta       float64    `json:"delta"`
	Contestants []Surprise `json:"contestants"`
}

// ContestantTally reports the contestant(s) with the most appearances in a
// winners log. Display is the human-joined form, e.g. "A, B, & C".
type ContestantTally struct {
	Names   []string `json:"names"`
	Display string   `json:"display"`
	Count   int      `json:"count"`
}

// SeasonStats is the full set of aggregate leaderboards for a season.
type SeasonStats struct {
	Standings []Standing `json:"standings"`

	BestRankingPoints      Leaderboard `json:"bestRankingPoints"`
	BestChallengeAccuracy  Leaderboard `json:"bestChallengeAccuracy"`
	MostChallengeWins      Leaderboard `json:"mostChallengeWins"`
	LongestChallengeStreak Leaderboard `json:"longestChallengeStreak"`
	CurrentChallengeStreak Leaderboard `json:"currentChallengeStreak"`
	MostMissedPicks        Leaderboard `json:"mostMissedPicks"`
	MostIncorrectPicks     Leaderboard `json:"mostIncorrectPicks"`
	BestLipSyncAccuracy    Leaderboard `json:"bestLipSyncAccuracy"`
	BestBonusPoints        Leaderboard `json:"bestBonusPoints"`
	BestLipSyncPoints      Leaderboard `json:"bestLipSyncPoints"`
	MostRepeatedPick       Leaderboard `json:"mostRepeatedPick"`

	BestSwap SwapBoard `json:"bestSwap"`

	MostFrequentChallengeWinner ContestantTally `json:"mostFrequentChallengeWinner"`

	EarliestSurprise SurpriseBoard `json:"earliestSurprise"`
	LatestSurprise   SurpriseBoard `json:"latestSurprise"`

	Movement       []RankMovement `json:"movement"`
	BiggestGainers MovementBoard  `json:"biggestGainers"`
	BiggestLosers  MovementBoard  `json:"biggestLosers"`
}

// Severity grades a Diagnostic.
type Severity string

// Diagnostic severities.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a data-quality finding. Diagnostics never change scores.
type Diagnostic struct {
	Severity      Severity `json:"severity"`
	Code          string   `json:"code"`
	ParticipantID string   `json:"participantId,omitempty"`
	Field         string   `json:"field,omitempty"`
	Value         string   `json:"value,omitempty"`
	Suggestion    string   `json:"suggestion,omitempty"`
	Message       string   `json:"message"`
}

// SeasonReport is everything the engine produces for a league.
type SeasonReport struct {
	// ID is derived from the inputs, so identical inputs share an ID.
	ID         string       `json:"id"`
	LeagueID   string       `json:"leagueId"`
	LeagueName string       `json:"leagueName"`
	Status     SeasonStatus `json:"status"`
	Winner     string       `json:"winner,omitempty"`
	Assassin   string       `json:"assassin,omitempty"`

	Rankings    Rankings       `json:"rankings"`
	Points      []PointsReport `json:"points"`
	Swaps       []SwapResult   `json:"swaps"`
	Stats       SeasonStats    `json:"stats"`
	Diagnostics []Diagnostic   `json:"diagnostics"`
}

// Err reports a league with no contestants as ErrEmptyLeague. The report
// itself stays well formed with empty rankings and leaderboards.
func (r *SeasonReport) Err() error {
	if r.Status == SeasonEmpty {
		return ErrEmptyLeague
	}
	return nil
}

package domain

import "slices"

// AnswerKind describes how a bonus category's answers are compared.
type AnswerKind string

// Supported bonus answer kinds.
const (
	// AnswerContestants compares sets of contestant names.
	AnswerContestants AnswerKind = "contestant"
	// AnswerNumber compares numeric answers by value.
	AnswerNumber AnswerKind = "number"
	// AnswerYesNo compares yes/no answers.
	AnswerYesNo AnswerKind = "yes_no"
)

// BonusCategory is a side-bet question with its own point value.
type BonusCategory struct {
	Name   string     `json:"name" yaml:"name"`
	Points int        `json:"points" yaml:"points"`
	Kind   AnswerKind `json:"kind" yaml:"kind"`

	// Resolved is false until an admin records the answer.
	Resolved bool `json:"resolved" yaml:"resolved"`

	// Answer holds the accepted answer text. Multi-answer categories keep
	// the pipe-joined form from the wire.
	Answer string `json:"answer,omitempty" yaml:"answer,omitempty"`
}

// League is a season-scoped snapshot of everything the engine scores against.
type League struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	// ContestantNames is the universe of predictable contestants.
	ContestantNames []string `json:"contestantNames" yaml:"contestantNames"`

	// EliminationLog lists elimination events oldest first. Each event is
	// the group of contestants eliminated together.
	EliminationLog [][]string `json:"eliminationLog" yaml:"eliminationLog"`

	// ChallengeWinnersLog and LipSyncWinnersLog hold one free-text winner
	// entry per week; an empty entry means the week is undecided.
	ChallengeWinnersLog []string `json:"challengeWinnersLog" yaml:"challengeWinnersLog"`
	LipSyncWinnersLog   []string `json:"lipSyncWinnersLog" yaml:"lipSyncWinnersLog"`

	BonusCategories []BonusCategory `json:"bonusCategories" yaml:"bonusCategories"`

	ChallengePointValue int `json:"challengePointValue" yaml:"challengePointValue"`
	LipSyncPointValue   int `json:"lipSyncPointValue" yaml:"lipSyncPointValue"`
}

// TotalContestants returns the size of the contestant universe.
func (l League) TotalContestants() int { return len(l.ContestantNames) }

// Category returns the first bonus category whose name matches exactly.
func (l League) Category(name string) (BonusCategory, bool) {
	for _, c := range l.BonusCategories {
		if c.Name == name {
			return c, true
		}
	}
	return BonusCategory{}, false
}

// Clone returns a copy of l that shares no slices with it.
func (l League) Clone() League {
	out := l
	out.ContestantNames = slices.Clone(l.ContestantNames)
	out.EliminationLog = make([][]string, len(l.EliminationLog))
	for i, event := range l.EliminationLog {
		out.EliminationLog[i] = slices.Clone(event)
	}
	out.ChallengeWinnersLog = slices.Clone(l.ChallengeWinnersLog)
	out.LipSyncWinnersLog = slices.Clone(l.LipSyncWinnersLog)
	out.BonusCategories = slices.Clone(l.BonusCategories)
	return out
}

// PreviousWeek returns the league as it stood before the most recent
// results were entered: the newest elimination event, challenge winner
// and lip-sync winner are dropped, as is a resolved trailing bonus
// category. The receiver is not modified.
func (l League) PreviousWeek() League {
	out := l.Clone()
	if n := len(out.EliminationLog); n > 0 {
		out.EliminationLog = out.EliminationLog[:n-1]
	}
	if n := len(out.ChallengeWinnersLog); n > 0 {
		out.ChallengeWinnersLog = out.ChallengeWinnersLog[:n-1]
	}
	if n := len(out.LipSyncWinnersLog); n > 0 {
		out.LipSyncWinnersLog = out.LipSyncWinnersLog[:n-1]
	}
	if n := len(out.BonusCategories); n > 0 && out.BonusCategories[n-1].Resolved {
		out.BonusCategories = out.BonusCategories[:n-1]
	}
	return out
}

// Swap is a pair of contestants whose predicted positions a participant
// wants exchanged.
type Swap struct {
	First  string `json:"first" yaml:"first"`
	Second string `json:"second" yaml:"second"`
}

// BonusPrediction is a participant's answer for one bonus category.
type BonusPrediction struct {
	Category string `json:"category" yaml:"category"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Participant is one league member's full set of predictions.
type Participant struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	// RankingPrediction is the predicted final order, 1st place first.
	RankingPrediction []string `json:"rankingPrediction" yaml:"rankingPrediction"`

	// Weekly picks align by index with the league's winner logs.
	WeeklyChallengePicks []string `json:"weeklyChallengePicks" yaml:"weeklyChallengePicks"`
	WeeklyLipSyncPicks   []string `json:"weeklyLipSyncPicks" yaml:"weeklyLipSyncPicks"`

	BonusPredictions    []BonusPrediction `json:"bonusPredictions" yaml:"bonusPredictions"`
	LipSyncAssassinPick string            `json:"lipSyncAssassinPick" yaml:"lipSyncAssassinPick"`

	// PendingSwap is nil when the participant has not requested a swap.
	PendingSwap *Swap `json:"pendingSwap,omitempty" yaml:"pendingSwap,omitempty"`
}

// WithRankingPrediction returns a copy of p with its ranking prediction
// replaced. The receiver is not modified.
func (p Participant) WithRankingPrediction(prediction []string) Participant {
	out := p
	out.RankingPrediction = slices.Clone(prediction)
	return out
}

package units

import (
	"context"
	"fmt"

	"github.com/agnivade/levenshtein"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Unit = (*NameAuditUnit)(nil)

// Diagnostic codes reported by the name audit.
const (
	CodeEmptyLeague          = "empty_league"
	CodeUnknownEliminated    = "unknown_eliminated_name"
	CodeUnknownContestant    = "unknown_contestant"
	CodeDuplicatePrediction  = "duplicate_prediction"
	CodePredictionTooLong    = "prediction_too_long"
	CodeUnknownSwapName      = "unknown_swap_name"
	CodeUnknownBonusCategory = "unknown_bonus_category"
)

// Auditor checks league and participant names against the cast.
// Findings never change scores.
type Auditor struct {
	dir         contestantDirectory
	order       []string
	total       int
	league      domain.League
	maxDistance int
	checkWeekly bool
}

// NewAuditor returns an Auditor for the league. Suggestions are offered
// for unknown names within maxDistance edits of a contestant.
func NewAuditor(league domain.League, maxDistance int, checkWeekly bool) *Auditor {
	return &Auditor{
		dir:         newContestantDirectory(league),
		order:       castOrder(league),
		total:       league.TotalContestants(),
		league:      league,
		maxDistance: maxDistance,
		checkWeekly: checkWeekly,
	}
}

// Suggest returns the display name of the contestant closest to name, or
// "" when none is within the configured distance. Ties go to the
// contestant listed first.
func (a *Auditor) Suggest(name string) string {
	normalized := NormalizeName(name)
	best, bestDistance := "", a.maxDistance+1
	for _, key := range a.order {
		if d := levenshtein.ComputeDistance(normalized, key); d < bestDistance {
			best, bestDistance = key, d
		}
	}
	if best == "" {
		return ""
	}
	return a.dir.display(best)
}

// AuditLeague reports problems with the league itself.
func (a *Auditor) AuditLeague() []domain.Diagnostic {
	if a.total == 0 {
		return []domain.Diagnostic{{
			Severity: domain.SeverityInfo,
			Code:     CodeEmptyLeague,
			Message:  "league has no contestants; every leaderboard is empty",
		}}
	}

	var out []domain.Diagnostic
	for week, event := range a.league.EliminationLog {
		for _, name := range eventNames(event) {
			if a.dir.known(name) {
				continue
			}
			out = append(out, a.unknown("", fmt.Sprintf("eliminationLog[%d]", week), name, CodeUnknownEliminated))
		}
	}
	return out
}

// AuditParticipant reports unknown or suspicious names in one
// participant's predictions.
func (a *Auditor) AuditParticipant(p domain.Participant) []domain.Diagnostic {
	if a.total == 0 {
		return nil
	}

	var out []domain.Diagnostic
	seen := make(map[string]int, len(p.RankingPrediction))
	for i, raw := range p.RankingPrediction {
		name := NormalizeName(raw)
		if name == "" {
			continue
		}
		field := fmt.Sprintf("rankingPrediction[%d]", i)
		if first, dup := seen[name]; dup {
			out = append(out, domain.Diagnostic{
				Severity:      domain.SeverityWarning,
				Code:          CodeDuplicatePrediction,
				ParticipantID: p.ID,
				Field:         field,
				Value:         raw,
				Message:       fmt.Sprintf("%q is already predicted at position %d; only the first position scores", raw, first+1),
			})
			continue
		}
		seen[name] = i
		if !a.dir.known(name) {
			out = append(out, a.unknown(p.ID, field, raw, CodeUnknownContestant))
		}
	}
	if len(p.RankingPrediction) > a.total {
		out = append(out, domain.Diagnostic{
			Severity:      domain.SeverityWarning,
			Code:          CodePredictionTooLong,
			ParticipantID: p.ID,
			Field:         "rankingPrediction",
			Message:       fmt.Sprintf("prediction lists %d names for %d contestants", len(p.RankingPrediction), a.total),
		})
	}

	if p.PendingSwap != nil {
		for _, name := range []string{p.PendingSwap.First, p.PendingSwap.Second} {
			if n := NormalizeName(name); n != "" && indexOfName(p.RankingPrediction, n) < 0 {
				out = append(out, domain.Diagnostic{
					Severity:      domain.SeverityWarning,
					Code:          CodeUnknownSwapName,
					ParticipantID: p.ID,
					Field:         "pendingSwap",
					Value:         name,
					Message:       fmt.Sprintf("%q is not in the ranking prediction; the swap is skipped", name),
				})
			}
		}
	}

	out = append(out, a.auditFreeText(p.ID, "lipSyncAssassinPick", p.LipSyncAssassinPick)...)

	if a.checkWeekly {
		for i, pick := range p.WeeklyChallengePicks {
			out = append(out, a.auditFreeText(p.ID, fmt.Sprintf("weeklyChallengePicks[%d]", i), pick)...)
		}
		for i, pick := range p.WeeklyLipSyncPicks {
			out = append(out, a.auditFreeText(p.ID, fmt.Sprintf("weeklyLipSyncPicks[%d]", i), pick)...)
		}
	}

	for i, pred := range p.BonusPredictions {
		field := fmt.Sprintf("bonusPredictions[%d]", i)
		category, ok := a.league.Category(pred.Category)
		if !ok {
			out = append(out, domain.Diagnostic{
				Severity:      domain.SeverityInfo,
				Code:          CodeUnknownBonusCategory,
				ParticipantID: p.ID,
				Field:         field,
				Value:         pred.Category,
				Message:       fmt.Sprintf("bonus category %q does not exist and is ignored", pred.Category),
			})
			continue
		}
		if category.Kind == domain.AnswerContestants {
			out = append(out, a.auditFreeText(p.ID, field, pred.Answer)...)
		}
	}
	return out
}

// auditFreeText checks every name parsed from a free-text pick.
func (a *Auditor) auditFreeText(participantID, field, text string) []domain.Diagnostic {
	var out []domain.Diagnostic
	for _, name := range ParseNames(text) {
		if !a.dir.known(name) {
			out = append(out, a.unknown(participantID, field, name, CodeUnknownContestant))
		}
	}
	return out
}

func (a *Auditor) unknown(participantID, field, value, code string) domain.Diagnostic {
	d := domain.Diagnostic{
		Severity:      domain.SeverityWarning,
		Code:          code,
		ParticipantID: participantID,
		Field:         field,
		Value:         value,
		Suggestion:    a.Suggest(value),
	}
	d.Message = fmt.Sprintf("%q is not a contestant in this league and scores no points", value)
	if d.Suggestion != "" {
		d.Message += fmt.Sprintf("; did you mean %q?", d.Suggestion)
	}
	return d
}

// NameAuditUnit produces data-quality diagnostics for names that do not
// match the league's cast.
//
// State in: KeyLeague, KeyParticipants. State out: KeyDiagnostics.
type NameAuditUnit struct {
	name   string
	config NameAuditConfig
	tracer trace.Tracer
}

// NameAuditConfig configures the NameAuditUnit.
type NameAuditConfig struct {
	// MaxSuggestionDistance is the largest Levenshtein distance at which a
	// contestant is suggested for an unknown name. Zero disables suggestions
	// for anything but exact normalized matches.
	MaxSuggestionDistance int `yaml:"max_suggestion_distance" json:"max_suggestion_distance" validate:"min=0,max=10"`

	// CheckWeeklyPicks also audits weekly challenge and lip-sync picks.
	CheckWeeklyPicks bool `yaml:"check_weekly_picks" json:"check_weekly_picks"`
}

// NewNameAuditUnit creates a NameAuditUnit.
func NewNameAuditUnit(name string, config NameAuditConfig) (*NameAuditUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &NameAuditUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("name-audit-unit"),
	}, nil
}

// Name returns the unit's identifier.
func (u *NameAuditUnit) Name() string { return u.name }

// Execute audits the league and every participant.
func (u *NameAuditUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := u.tracer.Start(ctx, "NameAuditUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "name_audit"),
			attribute.String("unit.id", u.name),
			attribute.Int("config.max_suggestion_distance", u.config.MaxSuggestionDistance),
			attribute.Bool("config.check_weekly_picks", u.config.CheckWeeklyPicks),
		),
	)
	defer span.End()

	const op = "NameAuditUnit.Execute"
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

	auditor := NewAuditor(league, u.config.MaxSuggestionDistance, u.config.CheckWeeklyPicks)
	diagnostics := make([]domain.Diagnostic, 0)
	diagnostics = append(diagnostics, auditor.AuditLeague()...)
	for _, p := range participants {
		diagnostics = append(diagnostics, auditor.AuditParticipant(p)...)
	}

	span.SetAttributes(attribute.Int("diagnostics.count", len(diagnostics)))
	return domain.With(state, domain.KeyDiagnostics, diagnostics), nil
}

// Validate checks the unit configuration.
func (u *NameAuditUnit) Validate() error {
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters returns a new unit configured from YAML parameters.
func (u *NameAuditUnit) UnmarshalParameters(params yaml.Node) (*NameAuditUnit, error) {
	config, err := decodeParameters(params, DefaultNameAuditConfig())
	if err != nil {
		return nil, err
	}
	return &NameAuditUnit{name: u.name, config: config, tracer: u.tracer}, nil
}

// DefaultNameAuditConfig returns the default configuration.
func DefaultNameAuditConfig() NameAuditConfig {
	return NameAuditConfig{MaxSuggestionDistance: 3, CheckWeeklyPicks: true}
}

// CreateNameAuditUnit builds a NameAuditUnit from a parameter map.
func CreateNameAuditUnit(id string, config map[string]any) (*NameAuditUnit, error) {
	cfg := DefaultNameAuditConfig()
	if v, ok := intParam(config, "max_suggestion_distance"); ok {
		cfg.MaxSuggestionDistance = v
	}
	if v, ok := config["check_weekly_picks"].(bool); ok {
		cfg.CheckWeeklyPicks = v
	}
	return NewNameAuditUnit(id, cfg)
}

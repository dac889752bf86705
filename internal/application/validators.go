package application

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/infrastructure/units"
	"github.com/ahrav/go-tally/internal/domain"
)

// identifierPattern matches unit, stage and engine identifiers.
var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidateUnitParameters decodes params strictly into the configuration
// of unitType and validates it, so unknown keys and out-of-range values
// fail at load time rather than when the engine runs.
func ValidateUnitParameters(unitType string, params yaml.Node) error {
	var err error
	switch unitType {
	case UnitTypeRankingResolver:
		_, err = (&units.RankingResolverUnit{}).UnmarshalParameters(params)
	case UnitTypeLipSyncAssassin:
		_, err = (&units.LipSyncAssassinUnit{}).UnmarshalParameters(params)
	case UnitTypePointsScorer:
		_, err = (&units.PointsScorerUnit{}).UnmarshalParameters(params)
	case UnitTypeSwapSimulator:
		_, err = (&units.SwapSimulatorUnit{}).UnmarshalParameters(params)
	case UnitTypeNameAudit:
		_, err = (&units.NameAuditUnit{}).UnmarshalParameters(params)
	case UnitTypeRankMovement:
		_, err = (&units.RankMovementUnit{}).UnmarshalParameters(params)
	case UnitTypeSeasonStats:
		_, err = (&units.SeasonStatsUnit{}).UnmarshalParameters(params)
	default:
		return fmt.Errorf("unknown unit type: %s", unitType)
	}
	return err
}

// unitIO lists the state keys a unit type needs before it runs and the
// keys it writes.
type unitIO struct {
	requires []string
	produces []string
}

// unitDataflow describes the built-in unit types. Keys a unit only reads
// when present (such as the assassin for the points scorer) are omitted.
var unitDataflow = map[string]unitIO{
	UnitTypeRankingResolver: {
		requires: []string{domain.KeyLeague.Name()},
		produces: []string{
			domain.KeyRankings.Name(), domain.KeySeasonStatus.Name(), domain.KeyWinner.Name(),
			units.KeyRankingResolverConfig.Name(),
		},
	},
	UnitTypeLipSyncAssassin: {
		requires: []string{domain.KeyLeague.Name()},
		produces: []string{domain.KeyAssassin.Name(), units.KeyLipSyncAssassinConfig.Name()},
	},
	UnitTypePointsScorer: {
		requires: []string{domain.KeyLeague.Name(), domain.KeyParticipants.Name(), domain.KeyRankings.Name()},
		produces: []string{domain.KeyPointsReports.Name()},
	},
	UnitTypeSwapSimulator: {
		requires: []string{domain.KeyLeague.Name(), domain.KeyParticipants.Name(), domain.KeyRankings.Name()},
		produces: []string{domain.KeySwapResults.Name()},
	},
	UnitTypeNameAudit: {
		requires: []string{domain.KeyLeague.Name(), domain.KeyParticipants.Name()},
		produces: []string{domain.KeyDiagnostics.Name()},
	},
	UnitTypeRankMovement: {
		requires: []string{domain.KeyLeague.Name(), domain.KeyParticipants.Name(), domain.KeyPointsReports.Name()},
		produces: []string{domain.KeyRankMovements.Name()},
	},
	UnitTypeSeasonStats: {
		requires: []string{
			domain.KeyLeague.Name(), domain.KeyParticipants.Name(),
			domain.KeyRankings.Name(), domain.KeyPointsReports.Name(),
		},
		produces: []string{domain.KeySeasonStats.Name()},
	},
}

// validateDataflow walks the stages in order and checks that every unit's
// required keys were produced by an earlier stage (or are engine inputs),
// and that members of one stage write disjoint keys.
func validateDataflow(config *EngineConfig) error {
	unitTypes := make(map[string]string, len(config.Units))
	for _, u := range config.Units {
		unitTypes[u.ID] = u.Type
	}

	available := map[string]bool{
		domain.KeyLeague.Name():       true,
		domain.KeyParticipants.Name(): true,
	}

	for _, stage := range config.Stages {
		written := make(map[string]string)
		for _, unitID := range stage.Units {
			io, ok := unitDataflow[unitTypes[unitID]]
			if !ok {
				continue
			}
			for _, key := range io.requires {
				if !available[key] {
					return fmt.Errorf("stage %s: unit %s requires %q, which no earlier stage produces",
						stage.ID, unitID, key)
				}
			}
			for _, key := range io.produces {
				if other, dup := written[key]; dup {
					return fmt.Errorf("stage %s: units %s and %s both write %q", stage.ID, other, unitID, key)
				}
				written[key] = unitID
			}
		}
		for key := range written {
			available[key] = true
		}
	}
	return nil
}

// RegisterEngineValidators registers the engine-specific struct tag
// validators with v.
func RegisterEngineValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("identifier", validateIdentifier); err != nil {
		return fmt.Errorf("failed to register identifier validator: %w", err)
	}
	return nil
}

func validateIdentifier(fl validator.FieldLevel) bool {
	return identifierPattern.MatchString(fl.Field().String())
}

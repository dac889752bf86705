// Package units provides the scoring engine's building blocks. Each unit
// exposes a pure function that can be called directly as a library, plus a
// ports.Unit wrapper that reads its inputs from and writes its results to
// a domain.State.
package units

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
)

// Limits applied to untrusted snapshot input.
const (
	// MaxParticipants is the maximum number of participants scored in one run.
	MaxParticipants = 10000
	// MaxNameLength bounds a single free-text entry; longer entries are
	// truncated before parsing.
	MaxNameLength = 4096
)

// Common errors returned by units.
var (
	// ErrEmptyUnitName is returned when attempting to create a unit with an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrTooManyParticipants is returned when a run exceeds MaxParticipants.
	ErrTooManyParticipants = errors.New("too many participants")

	// ErrReportMismatch is returned when points reports and participants
	// in the state are not aligned.
	ErrReportMismatch = errors.New("points reports and participants length mismatch")
)

// State keys recording the settings a run resolved the league with.
var (
	// KeyRankingResolverConfig stores the ranking resolver's configuration.
	KeyRankingResolverConfig = domain.NewKey[RankingResolverConfig]("config.ranking_resolver")

	// KeyLipSyncAssassinConfig stores the assassin resolver's configuration.
	KeyLipSyncAssassinConfig = domain.NewKey[LipSyncAssassinConfig]("config.lip_sync_assassin")
)

// resolutionConfigs returns the resolver and assassin settings recorded in
// state, using the defaults for stages the engine does not run.
func resolutionConfigs(state domain.State) (RankingResolverConfig, LipSyncAssassinConfig) {
	resolver, ok := domain.Get(state, KeyRankingResolverConfig)
	if !ok {
		resolver = DefaultRankingResolverConfig()
	}
	assassin, ok := domain.Get(state, KeyLipSyncAssassinConfig)
	if !ok {
		assassin = DefaultLipSyncAssassinConfig()
	}
	return resolver, assassin
}

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// intParam reads an integer parameter from a factory config map. YAML and
// JSON decoders hand numbers over as int or float64.
func intParam(config map[string]any, key string) (int, bool) {
	switch v := config[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// decodeParameters re-encodes a YAML parameter node and decodes it strictly
// into T, so misspelled keys are reported instead of silently ignored.
// The decoded value is validated before it is returned.
func decodeParameters[T any](params yaml.Node, base T) (T, error) {
	if params.Kind == 0 {
		return base, nil
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	if err := encoder.Encode(&params); err != nil {
		return base, fmt.Errorf("failed to encode YAML node: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return base, fmt.Errorf("failed to close YAML encoder: %w", err)
	}

	config := base
	decoder := yaml.NewDecoder(&buf)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return base, fmt.Errorf("failed to decode parameters (check for typos): %w", err)
	}

	if err := validate.Struct(config); err != nil {
		return base, fmt.Errorf("parameter validation failed: %w", err)
	}
	return config, nil
}

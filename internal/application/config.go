package application

import "gopkg.in/yaml.v3"

// Unit type names accepted in engine configurations.
const (
	UnitTypeRankingResolver = "ranking_resolver"
	UnitTypeLipSyncAssassin = "lip_sync_assassin"
	UnitTypePointsScorer    = "points_scorer"
	UnitTypeSwapSimulator   = "swap_simulator"
	UnitTypeNameAudit       = "name_audit"
	UnitTypeRankMovement    = "rank_movement"
	UnitTypeSeasonStats     = "season_stats"
)

// EngineConfig represents the root configuration structure for a scoring
// engine, defining its units and the order in which they run.
// Use EngineConfig as the entry point for YAML-based engine definitions.
type EngineConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning format (e.g., "1.0.0").
	Version string `yaml:"version" json:"version" validate:"required,semver"`

	// Metadata contains descriptive information about the engine.
	Metadata EngineMetadata `yaml:"metadata" json:"metadata" validate:"required"`

	// Units defines all scoring units available to the engine.
	// Each unit must have a unique ID.
	Units []UnitConfig `yaml:"units" json:"units" validate:"required,min=1,dive"`

	// Stages lists the execution stages in the order they run. Every
	// unit must be placed in exactly one stage.
	Stages []StageConfig `yaml:"stages" json:"stages" validate:"required,min=1,dive"`
}

// EngineMetadata contains descriptive information about an engine
// configuration.
type EngineMetadata struct {
	// Name is a human-readable identifier for the engine. It is also used
	// as the ID of the top-level pipeline.
	Name string `yaml:"name" json:"name" validate:"required,identifier,max=100"`

	// Description provides detailed information about the engine's purpose.
	Description string `yaml:"description,omitempty" json:"description,omitempty" validate:"max=500"`

	// Tags are optional labels for categorizing engines.
	Tags []string `yaml:"tags,omitempty" json:"tags,omitempty" validate:"dive,min=1,max=50"`
}

// UnitConfig defines the configuration for a single scoring unit.
type UnitConfig struct {
	// ID is the unique identifier for this unit within the engine.
	ID string `yaml:"id" json:"id" validate:"required,identifier,max=100"`

	// Type specifies which unit implementation to use.
	Type string `yaml:"type" json:"type" validate:"required,oneof=ranking_resolver lip_sync_assassin points_scorer swap_simulator name_audit rank_movement season_stats"`

	// Parameters contains unit-specific configuration as raw YAML. The
	// structure depends on the unit type and is decoded strictly.
	Parameters yaml.Node `yaml:"parameters,omitempty" json:"-"`
}

// StageConfig groups units that run at the same point in the engine.
// A stage with a single unit runs it directly; a stage with several units
// runs them as a parallel layer whose outputs must not overlap.
type StageConfig struct {
	// ID is the unique identifier for this stage.
	ID string `yaml:"id" json:"id" validate:"required,identifier,max=100"`

	// Units lists the unit IDs in this stage, in declaration order.
	Units []string `yaml:"units" json:"units" validate:"required,min=1,dive,required"`

	// Concurrency caps parallel execution within a layer. Zero uses the
	// layer default.
	Concurrency int `yaml:"concurrency,omitempty" json:"concurrency,omitempty" validate:"min=0,max=64"`
}

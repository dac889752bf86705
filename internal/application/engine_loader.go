package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

// defaultEngineYAML is the stage layout used when no configuration file is
// supplied.
//
//go:embed default_engine.yaml
var defaultEngineYAML []byte

// DefaultEngineYAML returns a copy of the embedded default configuration.
func DefaultEngineYAML() []byte {
	return bytes.Clone(defaultEngineYAML)
}

// EngineDefinition is a validated configuration together with the
// executable pipeline built from it.
// Definitions returned by EngineLoader are shared through its cache and
// MUST NOT be mutated.
type EngineDefinition struct {
	// Config is the parsed configuration.
	Config *EngineConfig
	// Pipeline runs the configured stages in order.
	Pipeline *Pipeline
	// Hash is the SHA256 of the normalized configuration.
	Hash string
}

// EngineLoader provides YAML configuration parsing, validation, and caching
// for scoring engines, transforming declarative stage layouts into
// executable pipelines.
type EngineLoader struct {
	// validator performs struct field validation and the custom
	// semver and identifier rules.
	validator *validator.Validate
	// unitRegistry creates units by type.
	unitRegistry ports.UnitRegistry
	// cache stores built definitions indexed by the SHA256 hash of the
	// normalized configuration.
	cache   map[string]*EngineDefinition
	cacheMu sync.RWMutex
	// sf prevents duplicate builds when several goroutines load the same
	// configuration at once.
	sf singleflight.Group
}

// NewEngineLoader creates a new loader with an empty cache.
// NewEngineLoader returns an error if validator registration fails.
func NewEngineLoader(unitRegistry ports.UnitRegistry) (*EngineLoader, error) {
	v := validator.New()

	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &EngineLoader{
		validator:    v,
		unitRegistry: unitRegistry,
		cache:        make(map[string]*EngineDefinition),
	}, nil
}

// load parses, validates and builds a definition from YAML, using the
// cache and singleflight to avoid rebuilding identical configurations.
func (el *EngineLoader) load(ctx context.Context, data []byte) (*EngineDefinition, error) {
	config, err := el.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Hash the normalized config so formatting differences share an entry.
	hash, err := el.calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := el.sf.Do(hash, func() (any, error) {
		if def, ok := el.getCachedDefinition(hash); ok {
			return def, nil
		}

		if err := el.validateConfig(config); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		pipeline, err := el.buildPipeline(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to build engine: %w", err)
		}

		def := &EngineDefinition{Config: config, Pipeline: pipeline, Hash: hash}
		el.cacheDefinition(hash, def)
		return def, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*EngineDefinition), nil
}

// LoadDefault loads the embedded default configuration.
func (el *EngineLoader) LoadDefault(ctx context.Context) (*EngineDefinition, error) {
	return el.load(ctx, defaultEngineYAML)
}

// LoadFromFile loads and builds an engine definition from a YAML file.
func (el *EngineLoader) LoadFromFile(ctx context.Context, path string) (*EngineDefinition, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", ports.ErrConfigNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return el.load(ctx, data)
}

// LoadFromReader loads and builds an engine definition from r.
func (el *EngineLoader) LoadFromReader(ctx context.Context, r io.Reader) (*EngineDefinition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return el.load(ctx, data)
}

// parseYAML decodes data strictly, so misspelled fields are reported
// instead of silently ignored.
func (el *EngineLoader) parseYAML(data []byte) (*EngineConfig, error) {
	var config EngineConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// validateConfig runs struct tag validation followed by the semantic
// checks that tags cannot express.
func (el *EngineLoader) validateConfig(config *EngineConfig) error {
	if err := el.validator.Struct(config); err != nil {
		return fmt.Errorf("%w: struct validation failed: %w", domain.ErrInvalidConfiguration, err)
	}

	if err := el.validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}

	return nil
}

// validateSemantics checks ID uniqueness across units and stages, stage
// references, that every unit is placed exactly once, unit parameters,
// and the dataflow between stages.
func (el *EngineLoader) validateSemantics(config *EngineConfig) error {
	verr := domain.NewValidationError("EngineConfig")

	allIDs := make(map[string]string)
	unitIDs := make(map[string]struct{})
	for _, unit := range config.Units {
		if kind, exists := allIDs[unit.ID]; exists {
			verr.AddError(fmt.Sprintf("duplicate ID %q: already used by %s", unit.ID, kind))
			continue
		}
		allIDs[unit.ID] = "unit"
		unitIDs[unit.ID] = struct{}{}

		if err := ValidateUnitParameters(unit.Type, unit.Parameters); err != nil {
			verr.AddError(fmt.Sprintf("unit %s parameter validation failed: %v", unit.ID, err))
		}
	}

	placed := make(map[string]string)
	for _, stage := range config.Stages {
		if kind, exists := allIDs[stage.ID]; exists {
			verr.AddError(fmt.Sprintf("duplicate ID %q: already used by %s", stage.ID, kind))
			continue
		}
		allIDs[stage.ID] = "stage"

		for _, unitID := range stage.Units {
			if _, exists := unitIDs[unitID]; !exists {
				verr.AddError(fmt.Sprintf("stage %s references non-existent unit: %s", stage.ID, unitID))
				continue
			}
			if other, dup := placed[unitID]; dup {
				verr.AddError(fmt.Sprintf("unit %s is placed in both stage %s and stage %s", unitID, other, stage.ID))
				continue
			}
			placed[unitID] = stage.ID
		}
	}

	for _, unit := range config.Units {
		if _, ok := placed[unit.ID]; !ok && allIDs[unit.ID] == "unit" {
			verr.AddError(fmt.Sprintf("unit %s is not placed in any stage", unit.ID))
		}
	}

	if verr.HasErrors() {
		return verr
	}

	if err := validateDataflow(config); err != nil {
		verr.AddError(err.Error())
		return verr
	}
	return nil
}

// buildPipeline instantiates every unit through the registry and arranges
// them into a top-level pipeline: single-unit stages run directly, larger
// stages run as a Layer.
func (el *EngineLoader) buildPipeline(ctx context.Context, config *EngineConfig) (*Pipeline, error) {
	units := make(map[string]ports.Unit, len(config.Units))
	for _, unitConfig := range config.Units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := "units." + unitConfig.ID
		unit, err := el.createUnit(unitConfig)
		if err != nil {
			return nil, ports.NewConfigError(key, err)
		}
		if err := unit.Validate(); err != nil {
			return nil, ports.NewConfigError(key, fmt.Errorf("unit is not ready: %w", err))
		}
		units[unitConfig.ID] = unit
	}

	pipeline := NewPipeline(config.Metadata.Name)
	for _, stage := range config.Stages {
		var exec ports.Executable
		if len(stage.Units) == 1 {
			unitID := stage.Units[0]
			exec = NewUnitAdapter(units[unitID], unitID)
		} else {
			layer := NewLayer(stage.ID)
			if stage.Concurrency > 0 {
				layer.SetConcurrencyLimit(stage.Concurrency)
			}
			for _, unitID := range stage.Units {
				if err := layer.Add(NewUnitAdapter(units[unitID], unitID)); err != nil {
					return nil, fmt.Errorf("failed to add unit to layer: %w", err)
				}
			}
			exec = layer
		}

		if err := pipeline.Add(exec); err != nil {
			return nil, fmt.Errorf("failed to add stage %s: %w", stage.ID, err)
		}
	}

	return pipeline, nil
}

// createUnit decodes a unit's parameters and delegates construction to the
// unit registry.
func (el *EngineLoader) createUnit(config UnitConfig) (ports.Unit, error) {
	params := make(map[string]any)
	if config.Parameters.Kind != 0 {
		if err := config.Parameters.Decode(&params); err != nil {
			return nil, fmt.Errorf("failed to decode parameters: %w", err)
		}
	}

	unit, err := el.unitRegistry.CreateUnit(config.Type, config.ID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}

	return unit, nil
}

// calculateConfigHash computes the SHA256 of the re-encoded configuration,
// so whitespace and comment differences hash identically.
func (el *EngineLoader) calculateConfigHash(config *EngineConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

func (el *EngineLoader) getCachedDefinition(hash string) (*EngineDefinition, bool) {
	el.cacheMu.RLock()
	defer el.cacheMu.RUnlock()

	def, ok := el.cache[hash]
	return def, ok
}

func (el *EngineLoader) cacheDefinition(hash string, def *EngineDefinition) {
	el.cacheMu.Lock()
	defer el.cacheMu.Unlock()

	el.cache[hash] = def
}

// ClearCache removes all cached definitions, forcing subsequent loads to
// rebuild from source.
func (el *EngineLoader) ClearCache() {
	el.cacheMu.Lock()
	defer el.cacheMu.Unlock()

	el.cache = make(map[string]*EngineDefinition)
}

// registerCustomValidators registers the semver and engine-specific
// validators with v.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}

	if err := RegisterEngineValidators(v); err != nil {
		return fmt.Errorf("failed to register engine validators: %w", err)
	}

	return nil
}

// validateSemver accepts X.Y.Z where X, Y and Z are non-negative integers.
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	var rest string
	n, _ := fmt.Sscanf(value, "%d.%d.%d%s", &major, &minor, &patch, &rest)
	return n == 3 && major >= 0 && minor >= 0 && patch >= 0
}

package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

func newTestLoader(t *testing.T) *EngineLoader {
	t.Helper()
	loader, err := NewEngineLoader(NewDefaultUnitRegistry())
	require.NoError(t, err)
	return loader
}

const minimalEngineYAML = `
version: "1.0.0"
metadata:
  name: minimal
units:
  - id: rankings
    type: ranking_resolver
  - id: points
    type: points_scorer
    parameters:
      concurrency: 2
stages:
  - id: resolve
    units: [rankings]
  - id: score
    units: [points]
`

func TestEngineLoader_LoadDefault(t *testing.T) {
	loader := newTestLoader(t)

	def, err := loader.LoadDefault(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "default", def.Config.Metadata.Name)
	assert.Len(t, def.Config.Units, 7)
	assert.NotEmpty(t, def.Hash)

	execs := def.Pipeline.Executables()
	require.Len(t, execs, 5)
	assert.Equal(t, []string{"rankings", "assassin", "points", "analyze", "stats"}, []string{
		execs[0].ID(), execs[1].ID(), execs[2].ID(), execs[3].ID(), execs[4].ID(),
	})

	layer, ok := execs[3].(*Layer)
	require.True(t, ok, "multi-unit stages run as a layer")
	var members []string
	for _, m := range layer.Executables() {
		members = append(members, m.ID())
	}
	assert.Equal(t, []string{"swaps", "audit", "movement"}, members)
}

func TestEngineLoader_LoadFromReader(t *testing.T) {
	loader := newTestLoader(t)

	def, err := loader.LoadFromReader(context.Background(), strings.NewReader(minimalEngineYAML))
	require.NoError(t, err)

	assert.Equal(t, "minimal", def.Pipeline.ID())
	require.Len(t, def.Pipeline.Executables(), 2)

	adapter, ok := def.Pipeline.Executables()[1].(*UnitAdapter)
	require.True(t, ok)
	assert.Equal(t, "points", adapter.Unit().Name())
}

func TestEngineLoader_LoadFromFile(t *testing.T) {
	loader := newTestLoader(t)
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalEngineYAML), 0o600))

	def, err := loader.LoadFromFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", def.Config.Metadata.Name)

	_, err = loader.LoadFromFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorIs(t, err, ports.ErrConfigNotFound)
}

func TestEngineLoader_UnitBuildErrorsNameTheUnit(t *testing.T) {
	refused := errors.New("factory refused")
	registry := NewDefaultUnitRegistry()
	require.NoError(t, registry.RegisterUnitFactory(UnitTypePointsScorer, func(string, map[string]any) (ports.Unit, error) {
		return nil, refused
	}))
	loader, err := NewEngineLoader(registry)
	require.NoError(t, err)

	_, err = loader.LoadFromReader(context.Background(), strings.NewReader(minimalEngineYAML))
	require.Error(t, err)
	assert.ErrorIs(t, err, refused)

	var cfgErr *ports.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "units.points", cfgErr.ConfigKey)
}

func TestEngineLoader_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name:    "unknown top-level field",
			yaml:    minimalEngineYAML + "\ngraph: {}\n",
			wantMsg: "field graph not found",
		},
		{
			name:    "bad semver",
			yaml:    strings.Replace(minimalEngineYAML, `"1.0.0"`, `"1.0"`, 1),
			wantMsg: "semver",
		},
		{
			name:    "unknown unit type",
			yaml:    strings.Replace(minimalEngineYAML, "type: points_scorer", "type: tiebreaker", 1),
			wantMsg: "oneof",
		},
		{
			name:    "invalid identifier",
			yaml:    strings.Replace(minimalEngineYAML, "id: resolve", "id: Resolve Stage", 1),
			wantMsg: "identifier",
		},
		{
			name:    "unknown parameter",
			yaml:    strings.Replace(minimalEngineYAML, "concurrency: 2", "concurency: 2", 1),
			wantMsg: "check for typos",
		},
		{
			name:    "parameter out of range",
			yaml:    strings.Replace(minimalEngineYAML, "concurrency: 2", "concurrency: 0", 1),
			wantMsg: "parameter validation failed",
		},
		{
			name:    "duplicate id across units and stages",
			yaml:    strings.Replace(minimalEngineYAML, "id: resolve", "id: rankings", 1),
			wantMsg: `duplicate ID "rankings"`,
		},
		{
			name:    "stage references missing unit",
			yaml:    strings.Replace(minimalEngineYAML, "units: [points]", "units: [pointz]", 1),
			wantMsg: "references non-existent unit: pointz",
		},
		{
			name:    "unit never placed",
			yaml:    strings.Replace(minimalEngineYAML, "units: [points]", "units: [rankings]", 1),
			wantMsg: "unit points is not placed in any stage",
		},
		{
			name: "stage order breaks dataflow",
			yaml: `
version: "1.0.0"
metadata:
  name: backwards
units:
  - id: rankings
    type: ranking_resolver
  - id: points
    type: points_scorer
stages:
  - id: score
    units: [points]
  - id: resolve
    units: [rankings]
`,
			wantMsg: `unit points requires "rankings"`,
		},
		{
			name: "layer members write the same key",
			yaml: `
version: "1.0.0"
metadata:
  name: conflict
units:
  - id: rankings
    type: ranking_resolver
  - id: points_a
    type: points_scorer
  - id: points_b
    type: points_scorer
stages:
  - id: resolve
    units: [rankings]
  - id: score
    units: [points_a, points_b]
`,
			wantMsg: `both write "points_reports"`,
		},
		{
			name: "no stages",
			yaml: `
version: "1.0.0"
metadata:
  name: nostages
units:
  - id: rankings
    type: ranking_resolver
stages: []
`,
			wantMsg: "Stages",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newTestLoader(t)

			def, err := loader.LoadFromReader(context.Background(), strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Nil(t, def)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestEngineLoader_ValidationErrorsAreConfigurationErrors(t *testing.T) {
	loader := newTestLoader(t)

	_, err := loader.LoadFromReader(context.Background(),
		strings.NewReader(strings.Replace(minimalEngineYAML, "units: [points]", "units: [pointz]", 1)))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "EngineConfig", verr.Entity)
	assert.Len(t, verr.Errors, 2, "missing reference and unplaced unit are both reported")
}

func TestEngineLoader_Caching(t *testing.T) {
	loader := newTestLoader(t)
	ctx := context.Background()

	first, err := loader.LoadFromReader(ctx, strings.NewReader(minimalEngineYAML))
	require.NoError(t, err)

	// Formatting and comments do not change the normalized hash.
	reformatted := "# cached\n" + strings.ReplaceAll(minimalEngineYAML, "[rankings]", "[ rankings ]")
	second, err := loader.LoadFromReader(ctx, strings.NewReader(reformatted))
	require.NoError(t, err)
	assert.Same(t, first, second)

	loader.ClearCache()
	third, err := loader.LoadFromReader(ctx, strings.NewReader(minimalEngineYAML))
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, first.Hash, third.Hash)
}

func TestEngineLoader_ConcurrentLoadsShareOneBuild(t *testing.T) {
	registry := NewDefaultUnitRegistry()
	var mu sync.Mutex
	builds := 0
	require.NoError(t, registry.RegisterUnitFactory(UnitTypeRankingResolver, func(id string, config map[string]any) (ports.Unit, error) {
		mu.Lock()
		builds++
		mu.Unlock()
		return &stubUnit{name: id}, nil
	}))

	loader, err := NewEngineLoader(registry)
	require.NoError(t, err)

	const callers = 8
	defs := make([]*EngineDefinition, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			def, err := loader.LoadFromReader(context.Background(), strings.NewReader(minimalEngineYAML))
			assert.NoError(t, err)
			defs[i] = def
		}()
	}
	wg.Wait()

	for _, def := range defs[1:] {
		assert.Same(t, defs[0], def)
	}
	assert.Equal(t, 1, builds)
}

func TestValidateSemver(t *testing.T) {
	loader := newTestLoader(t)

	tests := []struct {
		version string
		valid   bool
	}{
		{"1.0.0", true},
		{"0.12.3", true},
		{"1.0", false},
		{"1.0.0-beta", false},
		{"-1.0.0", false},
		{"v1.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := loader.validator.Var(tt.version, "semver")
			assert.Equal(t, tt.valid, err == nil)
		})
	}
}

func TestDefaultEngineYAMLIsACopy(t *testing.T) {
	data := DefaultEngineYAML()
	data[0] = '#'
	assert.NotEqual(t, data[0], DefaultEngineYAML()[0])
}

func FuzzEngineLoader_ParseYAML(f *testing.F) {
	f.Add(minimalEngineYAML)
	f.Add(string(DefaultEngineYAML()))
	f.Add(`version: "1.0.0
metadata:
  name: broken"`)
	f.Add(`version: 1
metadata: "invalid"
units: "should be array"
stages: null`)
	f.Add(`units: [{id: a, type: points_scorer, parameters: [1, 2]}]`)

	f.Fuzz(func(t *testing.T, data string) {
		loader, err := NewEngineLoader(NewDefaultUnitRegistry())
		if err != nil {
			t.Fatal(err)
		}
		def, err := loader.LoadFromReader(context.Background(), strings.NewReader(data))
		if err != nil {
			return
		}
		if def.Pipeline == nil || len(def.Pipeline.Executables()) != len(def.Config.Stages) {
			t.Fatalf("loaded definition does not match its stages")
		}
	})
}

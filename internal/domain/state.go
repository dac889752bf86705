// Package domain contains pure, dependency-free domain models and types
// for the scoring engine.
package domain

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// Key represents a type-safe generic key for accessing values in State.
// The type parameter T ensures compile-time type safety when getting and
// setting values, eliminating the need for runtime type assertions.
type Key[T any] struct{ name string }

// NewKey creates a new Key with the specified name and type.
// This function is provided for creating keys outside of the domain package.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the string form of the key.
func (k Key[T]) Name() string { return k.name }

// Predefined state keys used throughout a scoring run.
// Each key is strongly typed to ensure type safety at compile time.
var (
	// KeyLeague stores the league snapshot being scored.
	KeyLeague = Key[League]{"league"}

	// KeyParticipants stores the participant snapshots in input order.
	KeyParticipants = Key[[]Participant]{"participants"}

	// KeyRankings stores the resolved final rankings.
	KeyRankings = Key[Rankings]{"rankings"}

	// KeySeasonStatus stores whether the season is empty, running or complete.
	KeySeasonStatus = Key[SeasonStatus]{"season_status"}

	// KeyWinner stores the implicit season winner once the season is complete.
	KeyWinner = Key[string]{"winner"}

	// KeyAssassin stores the most frequent lip-sync winner, if any.
	KeyAssassin = Key[string]{"assassin"}

	// KeyPointsReports stores one PointsReport per participant, in input order.
	KeyPointsReports = Key[[]PointsReport]{"points_reports"}

	// KeySwapResults stores simulated swap outcomes for participants that
	// have a usable pending swap.
	KeySwapResults = Key[[]SwapResult]{"swap_results"}

	// KeyRankMovements stores the week-over-week standing movement.
	KeyRankMovements = Key[[]RankMovement]{"rank_movements"}

	// KeyDiagnostics stores data-quality findings about participant input.
	KeyDiagnostics = Key[[]Diagnostic]{"diagnostics"}

	// KeySeasonStats stores the aggregated season statistics.
	KeySeasonStats = Key[*SeasonStats]{"season_stats"}

	// Execution context keys for tracking metadata across a run.

	// KeyEngineID stores the name of the engine configuration being run.
	KeyEngineID = Key[string]{"execution.engine_id"}

	// KeyRunID stores a unique identifier for this run, useful for log
	// correlation.
	KeyRunID = Key[string]{"execution.run_id"}
)

// deepCopyValue creates a deep copy of a value to ensure true immutability.
// It handles slices, maps, and other reference types that would otherwise
// allow external modification of State data.
func deepCopyValue(value any) any {
	if value == nil {
		return nil
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return value
		}
		newSlice := reflect.MakeSlice(v.Type(), v.Len(), v.Cap())
		for i := 0; i < v.Len(); i++ {
			newSlice.Index(i).Set(reflect.ValueOf(deepCopyValue(v.Index(i).Interface())))
		}
		return newSlice.Interface()

	case reflect.Map:
		if v.IsNil() {
			return value
		}
		newMap := reflect.MakeMap(v.Type())
		for _, key := range v.MapKeys() {
			copiedKey := deepCopyValue(key.Interface())
			copiedValue := deepCopyValue(v.MapIndex(key).Interface())
			newMap.SetMapIndex(reflect.ValueOf(copiedKey), reflect.ValueOf(copiedValue))
		}
		return newMap.Interface()

	case reflect.Ptr:
		if v.IsNil() {
			return v.Interface()
		}
		newPtr := reflect.New(v.Elem().Type())
		newPtr.Elem().Set(reflect.ValueOf(deepCopyValue(v.Elem().Interface())))
		return newPtr.Interface()

	case reflect.Struct:
		// Unexported fields are left zeroed; every type stored in State keeps
		// its data in exported fields.
		newStruct := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if newStruct.Field(i).CanSet() {
				newStruct.Field(i).Set(reflect.ValueOf(deepCopyValue(v.Field(i).Interface())))
			}
		}
		return newStruct.Interface()

	default:
		// Primitive types are returned as-is since they are copied by value.
		return value
	}
}

// State represents an immutable collection of scoring data that flows
// through the pipeline. It uses copy-on-write semantics to ensure
// thread-safety and prevent unintended mutations. State is the primary
// data structure for passing information between Units.
type State struct {
	data map[string]any
}

// NewState creates a new empty State.
// The returned State is ready to use and can be safely shared across
// goroutines.
func NewState() State {
	return State{
		data: make(map[string]any),
	}
}

// Get retrieves a value from the State with compile-time type safety.
// It returns the value and a boolean indicating whether the key exists
// and contains a value of the correct type. The returned value is a deep
// copy to maintain immutability.
//
// Example:
//
//	league, ok := Get(state, KeyLeague)
//	if !ok {
//	    // handle missing value
//	}
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}

	copied := deepCopyValue(value)
	val, ok := copied.(T)
	return val, ok
}

// MustGet is like Get but reports a missing or mistyped key as a
// StateError naming the operation that needed it.
func MustGet[T any](s State, key Key[T], operation string) (T, error) {
	val, ok := Get(s, key)
	if ok {
		return val, nil
	}
	if _, exists := s.data[key.name]; exists {
		return val, NewStateError(key.name, operation, fmt.Errorf("%w: want %T, have %T", ErrTypeMismatch, val, s.data[key.name]))
	}
	return val, MissingKey(key, operation)
}

// GetRaw is a method version of Get that uses a string key.
// For type safety, use the generic Get function instead.
func (s State) GetRaw(keyName string) (any, bool) {
	value, exists := s.data[keyName]
	if !exists {
		return nil, false
	}
	return deepCopyValue(value), true
}

// With creates a new State with the specified key-value pair added or
// updated. It implements copy-on-write semantics, returning a new State
// instance while leaving the original unchanged.
//
// Example:
//
//	newState := With(state, KeyAssassin, "jinkx")
func With[T any](s State, key Key[T], value T) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any)
	}
	newData[key.name] = deepCopyValue(value)
	return State{data: newData}
}

// WithMultiple creates a new State with multiple key-value pairs added
// or updated in a single clone. The updates map uses string keys
// (Key.Name) for flexibility when updating several values at once.
func (s State) WithMultiple(updates map[string]any) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any)
	}
	for k, v := range updates {
		newData[k] = deepCopyValue(v)
	}
	return State{data: newData}
}

// Keys returns all keys present in the State in sorted order.
// The returned slice is safe to modify without affecting the original State.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// String returns a string representation of the State for debugging purposes.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.data)
}

// ExecutionContext contains metadata about the current run that flows
// through the State. It gives middleware and logging consistent access
// to run metadata.
type ExecutionContext struct {
	// EngineID is the name of the engine configuration being executed.
	EngineID string

	// RunID identifies this specific run.
	RunID string
}

// WithExecutionContext creates a new State with execution context metadata
// included. It should be called before the pipeline starts.
func (s State) WithExecutionContext(ctx ExecutionContext) State {
	return s.WithMultiple(map[string]any{
		KeyEngineID.name: ctx.EngineID,
		KeyRunID.name:    ctx.RunID,
	})
}

// GetExecutionContext extracts execution context metadata from the State.
// It returns false unless every context field is present.
func (s State) GetExecutionContext() (ExecutionContext, bool) {
	engineID, ok1 := Get(s, KeyEngineID)
	runID, ok2 := Get(s, KeyRunID)
	if !ok1 || !ok2 {
		return ExecutionContext{}, false
	}
	return ExecutionContext{EngineID: engineID, RunID: runID}, true
}

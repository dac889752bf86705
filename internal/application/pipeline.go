package application

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var (
	_ ports.Pipeline = (*Pipeline)(nil)
	_ ports.Layer    = (*Layer)(nil)
)

// Pipeline is a sequential execution container that processes executables
// in strict order, where each executable's output becomes the input for
// the next executable in the sequence.
type Pipeline struct {
	// id identifies the pipeline in error messages.
	id string
	// executables contains the ordered list of components that will execute
	// sequentially, with data flowing from one to the next.
	executables []ports.Executable
	// idSet tracks executable IDs for O(1) duplicate detection.
	idSet map[string]struct{}
	mu    sync.RWMutex
}

// NewPipeline creates a new sequential execution pipeline with the specified
// identifier, ready to accept executable components.
func NewPipeline(id string) *Pipeline {
	return &Pipeline{
		id:          id,
		executables: make([]ports.Executable, 0),
		idSet:       make(map[string]struct{}),
	}
}

// Execute processes all executables in this pipeline sequentially,
// passing the output state from each executable as input to the next.
// Execute stops between executables when ctx is cancelled.
// A failing executable is reported as a *ports.UnitError.
func (p *Pipeline) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	p.mu.RLock()
	executables := make([]ports.Executable, len(p.executables))
	copy(executables, p.executables)
	p.mu.RUnlock()

	currentState := state
	for _, exec := range executables {
		if err := ctx.Err(); err != nil {
			return currentState, err
		}

		newState, err := exec.Execute(ctx, currentState)
		if err != nil {
			return currentState, fmt.Errorf("pipeline %s: %w", p.id, ports.NewUnitError(p.id, exec.ID(), err))
		}
		currentState = newState
	}

	return currentState, nil
}

// ID returns the pipeline's identifier.
func (p *Pipeline) ID() string {
	return p.id
}

// Add appends an executable to the end of this pipeline's execution
// sequence. Add returns an error if the executable is nil or if an
// executable with the same ID already exists in the pipeline.
func (p *Pipeline) Add(exec ports.Executable) error {
	if exec == nil {
		return fmt.Errorf("cannot add nil executable to pipeline")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	execID := exec.ID()
	if _, exists := p.idSet[execID]; exists {
		return fmt.Errorf("pipeline %s: %w: %s", p.id, ports.ErrDuplicateExecutable, execID)
	}

	p.executables = append(p.executables, exec)
	p.idSet[execID] = struct{}{}
	return nil
}

// Executables returns a copy of the ordered list of executables.
func (p *Pipeline) Executables() []ports.Executable {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]ports.Executable, len(p.executables))
	copy(result, p.executables)
	return result
}

// Layer is a parallel execution container that runs independent
// executables concurrently against the same input state.
type Layer struct {
	id          string
	executables []ports.Executable
	idSet       map[string]struct{}
	// mergeStrategy defines how to combine results from parallel executions.
	// If nil, keyMergeStrategy is used.
	mergeStrategy ports.MergeStrategy
	// concurrencyLimit caps the number of executables running at once.
	concurrencyLimit int
	mu               sync.RWMutex
}

// NewLayer creates a new parallel execution layer with the specified
// identifier. All executables in the layer receive the same input state.
func NewLayer(id string) *Layer {
	return &Layer{
		id:               id,
		executables:      make([]ports.Executable, 0),
		idSet:            make(map[string]struct{}),
		concurrencyLimit: runtime.NumCPU() * 2,
	}
}

// Execute runs all executables in this layer concurrently. Results are
// collected by declaration index, so the merge sees them in the order the
// executables were added regardless of completion order.
// Every member runs to completion; failures are joined into one error.
func (l *Layer) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	l.mu.RLock()
	executables := make([]ports.Executable, len(l.executables))
	copy(executables, l.executables)
	limit := l.concurrencyLimit
	strategy := l.mergeStrategy
	l.mu.RUnlock()

	if len(executables) == 0 {
		return state, nil
	}
	if limit <= 0 {
		limit = runtime.NumCPU() * 2
	}

	states := make([]domain.State, len(executables))
	errs := make([]error, len(executables))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, exec := range executables {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			newState, err := exec.Execute(ctx, state)
			if err != nil {
				errs[i] = ports.NewUnitError(l.id, exec.ID(), err)
				return nil
			}
			states[i] = newState
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return state, err
	}
	if err := errors.Join(errs...); err != nil {
		return state, fmt.Errorf("layer %s failed: %w", l.id, err)
	}

	if strategy == nil {
		strategy = keyMergeStrategy{}
	}
	merged, err := strategy.Merge(state, states)
	if err != nil {
		return state, fmt.Errorf("layer %s: merge failed: %w", l.id, err)
	}
	return merged, nil
}

// ID returns the layer's identifier.
func (l *Layer) ID() string {
	return l.id
}

// Add includes an executable in this layer's parallel execution group.
// Add returns an error if the executable is nil or if an executable
// with the same ID already exists in the layer.
func (l *Layer) Add(exec ports.Executable) error {
	if exec == nil {
		return fmt.Errorf("cannot add nil executable to layer")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	execID := exec.ID()
	if _, exists := l.idSet[execID]; exists {
		return fmt.Errorf("layer %s: %w: %s", l.id, ports.ErrDuplicateExecutable, execID)
	}

	l.executables = append(l.executables, exec)
	l.idSet[execID] = struct{}{}
	return nil
}

// Executables returns a copy of the layer members in declaration order.
func (l *Layer) Executables() []ports.Executable {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]ports.Executable, len(l.executables))
	copy(result, l.executables)
	return result
}

// SetMergeStrategy configures how parallel execution results are combined.
func (l *Layer) SetMergeStrategy(strategy ports.MergeStrategy) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.mergeStrategy = strategy
}

// SetConcurrencyLimit configures the maximum number of executables that
// can run concurrently within this layer. Values <= 0 restore the default
// of runtime.NumCPU() * 2.
func (l *Layer) SetConcurrencyLimit(limit int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.concurrencyLimit = limit
}

// keyMergeStrategy applies every key a member added or changed relative to
// the base state, in declaration order. Two members touching the same key
// is a ports.ErrMergeConflict.
type keyMergeStrategy struct{}

// Merge implements ports.MergeStrategy.
func (keyMergeStrategy) Merge(baseState domain.State, states []domain.State) (domain.State, error) {
	updates := make(map[string]any)
	owner := make(map[string]int)

	for i, s := range states {
		for _, key := range s.Keys() {
			value, _ := s.GetRaw(key)
			if baseValue, ok := baseState.GetRaw(key); ok && reflect.DeepEqual(baseValue, value) {
				continue
			}
			if prev, seen := owner[key]; seen {
				return baseState, fmt.Errorf("%w: key %q written by members %d and %d",
					ports.ErrMergeConflict, key, prev, i)
			}
			owner[key] = i
			updates[key] = value
		}
	}

	if len(updates) == 0 {
		return baseState, nil
	}
	return baseState.WithMultiple(updates), nil
}

package ports

import (
	"context"

	"github.com/ahrav/go-tally/internal/domain"
)

// MergeStrategy defines how multiple states from parallel executions
// should be combined into a single output state.
type MergeStrategy interface {
	// Merge combines multiple states from parallel executions into a single state.
	// The baseState parameter is the original input state to the layer.
	// The states parameter contains the executed states in declaration order.
	// The implementation must be deterministic: given the same inputs in the
	// same order, it must produce the same output.
	Merge(baseState domain.State, states []domain.State) (domain.State, error)
}

// Executable defines the contract for anything the engine can run as a
// stage: single units, pipelines, or layers.
type Executable interface {
	// Execute processes the given state and returns the updated state.
	// The input state is immutable and MUST NOT be modified; use
	// domain.With or State.WithMultiple to derive a new one.
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// ID returns the unique identifier for this executable.
	ID() string
}

// Pipeline runs executables in strict order, feeding each one's output
// state to the next.
type Pipeline interface {
	Executable

	// Add appends an executable to the end of the sequence.
	// Add returns an error on nil executables or duplicate IDs.
	Add(exec Executable) error

	// Executables returns the ordered list of executables.
	Executables() []Executable
}

// Layer runs independent executables concurrently against the same input
// state and merges their outputs.
type Layer interface {
	Executable

	// Add includes an executable in this layer's parallel group.
	Add(exec Executable) error

	// Executables returns the layer members in declaration order.
	Executables() []Executable

	// SetMergeStrategy configures how parallel results are combined.
	// If not set, results are merged key by key in declaration order.
	SetMergeStrategy(strategy MergeStrategy)
}

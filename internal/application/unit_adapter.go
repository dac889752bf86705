package application

import (
	"context"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Executable = (*UnitAdapter)(nil)

// UnitAdapter wraps a ports.Unit so it can run inside pipelines and
// layers, which expect the Executable interface.
type UnitAdapter struct {
	// unit does the actual work when Execute is called.
	unit ports.Unit
	// id is the unit's ID from the engine configuration.
	id string
}

// NewUnitAdapter creates a new adapter around unit.
func NewUnitAdapter(unit ports.Unit, id string) *UnitAdapter {
	return &UnitAdapter{
		unit: unit,
		id:   id,
	}
}

// Execute delegates to the underlying unit.
func (ua *UnitAdapter) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	return ua.unit.Execute(ctx, state)
}

// ID returns the adapter's identifier.
func (ua *UnitAdapter) ID() string { return ua.id }

// Unit returns the wrapped unit.
func (ua *UnitAdapter) Unit() ports.Unit { return ua.unit }

package ports

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitError(t *testing.T) {
	base := errors.New("rankings not found in state")
	err := NewUnitError("score", "points_scorer", base)

	assert.Equal(t, "unit error: stage=score, unit=points_scorer, err=rankings not found in state", err.Error())
	assert.True(t, errors.Is(err, base))

	wrapped := fmt.Errorf("engine run: %w", err)
	var unitErr *UnitError
	assert.True(t, errors.As(wrapped, &unitErr))
	assert.Equal(t, "points_scorer", unitErr.Unit)
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("stages[1].units", ErrUnsupportedUnit)

	assert.Equal(t, "config error: key=stages[1].units, err=unsupported unit type", err.Error())
	assert.True(t, errors.Is(err, ErrUnsupportedUnit))
}

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		err     error
		message string
	}{
		{ErrConfigNotFound, "configuration not found"},
		{ErrUnsupportedUnit, "unsupported unit type"},
		{ErrDuplicateExecutable, "duplicate executable id"},
		{ErrMergeConflict, "conflicting writes in parallel layer"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

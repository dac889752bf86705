package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgmaxWithTies(t *testing.T) {
	type item struct {
		id    string
		value int
		skip  bool
	}
	key := func(i item) (int, bool) { return i.value, !i.skip }

	tests := []struct {
		name     string
		items    []item
		wantBest int
		wantIDs  []string
	}{
		{
			name:     "single winner",
			items:    []item{{"a", 1, false}, {"b", 3, false}, {"c", 2, false}},
			wantBest: 3,
			wantIDs:  []string{"b"},
		},
		{
			name:     "ties kept in input order",
			items:    []item{{"a", 3, false}, {"b", 1, false}, {"c", 3, false}},
			wantBest: 3,
			wantIDs:  []string{"a", "c"},
		},
		{
			name:     "strictly better value resets ties",
			items:    []item{{"a", 2, false}, {"b", 2, false}, {"c", 5, false}},
			wantBest: 5,
			wantIDs:  []string{"c"},
		},
		{
			name:     "negative values still compete",
			items:    []item{{"a", -4, false}, {"b", -2, false}},
			wantBest: -2,
			wantIDs:  []string{"b"},
		},
		{
			name:     "skipped items never win",
			items:    []item{{"a", 9, true}, {"b", 1, false}},
			wantBest: 1,
			wantIDs:  []string{"b"},
		},
		{
			name:    "empty input",
			items:   nil,
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ArgmaxWithTies(tt.items, key)

			var ids []string
			for _, w := range res.Winners {
				ids = append(ids, w.id)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantBest, res.Best)
			assert.Equal(t, len(tt.wantIDs) > 0, res.Found())
		})
	}
}

func TestArgmaxWithTies_Floats(t *testing.T) {
	res := ArgmaxWithTies([]float64{0.5, 1.0 / 3, 2.0 / 6, 0.1}, func(v float64) (float64, bool) {
		return -v, true
	})

	assert.InDelta(t, -0.1, res.Best, 1e-12)
	assert.Len(t, res.Winners, 1)
}

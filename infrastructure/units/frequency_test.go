package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMostFrequent(t *testing.T) {
	tests := []struct {
		name   string
		input  []string
		want   string
		wantOK bool
	}{
		{name: "first to reach the max wins a tie", input: []string{"A", "B", "A", "B"}, want: "A", wantOK: true},
		{name: "later strictly greater count takes the lead", input: []string{"A", "B", "B"}, want: "B", wantOK: true},
		{name: "leader reached max first", input: []string{"B", "A", "A", "B"}, want: "A", wantOK: true},
		{name: "single entry", input: []string{"C"}, want: "C", wantOK: true},
		{name: "empty input", input: nil, wantOK: false},
		{name: "only blanks", input: []string{"", ""}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MostFrequent(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMostFrequentCount(t *testing.T) {
	name, count := MostFrequentCount([]string{"x", "y", "y", "x", "y"})
	assert.Equal(t, "y", name)
	assert.Equal(t, 3, count)

	name, count = MostFrequentCount(nil)
	assert.Empty(t, name)
	assert.Zero(t, count)
}

func TestTopTallies(t *testing.T) {
	top, count := TopTallies([]string{"b", "a", "b", "a", "c"})
	assert.Equal(t, []string{"b", "a"}, top)
	assert.Equal(t, 2, count)

	top, count = TopTallies([]string{"", ""})
	assert.Nil(t, top)
	assert.Zero(t, count)
}

func TestSeasonAssassin(t *testing.T) {
	league := fixtureLeague()
	got, ok := SeasonAssassin(league)
	assert.True(t, ok)
	assert.Equal(t, "carol", got)

	league.LipSyncWinnersLog = []string{"Dana|Carol", "Dana & Carol"}
	got, ok = SeasonAssassin(league)
	assert.True(t, ok)
	assert.Equal(t, "dana", got, "tie goes to the first name to reach the max")

	league.LipSyncWinnersLog = []string{"", " "}
	_, ok = SeasonAssassin(league)
	assert.False(t, ok)
}

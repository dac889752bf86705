package units

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/go-tally/internal/domain"
)

func TestParseNames(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  domain.NameSet
	}{
		{name: "all separators", input: "Alice, Bob & Carol and Dana", want: domain.NameSet{"alice", "bob", "carol", "dana"}},
		{name: "pipe tie group", input: "Alice|Bob", want: domain.NameSet{"alice", "bob"}},
		{name: "single name", input: "  Jinkx Monsoon ", want: domain.NameSet{"jinkx monsoon"}},
		{name: "and is case-insensitive", input: "ALICE AND bob", want: domain.NameSet{"alice", "bob"}},
		{name: "and inside a word is not a separator", input: "Andrea and Sandy", want: domain.NameSet{"andrea", "sandy"}},
		{name: "duplicates collapse", input: "Alice|alice | ALICE", want: domain.NameSet{"alice"}},
		{name: "inner whitespace collapses", input: "Jinkx   Monsoon", want: domain.NameSet{"jinkx monsoon"}},
		{name: "unicode folding", input: "ÉCLAIR & Zoë", want: domain.NameSet{"éclair", "zoë"}},
		{name: "empty string", input: "", want: domain.NameSet{}},
		{name: "only separators", input: " | , & and ", want: domain.NameSet{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNames(tt.input))
		})
	}
}

func TestParseNames_LongInputIsTruncated(t *testing.T) {
	got := ParseNames(strings.Repeat("a", MaxNameLength+10))

	assert.Len(t, got, 1)
	assert.Len(t, got[0], MaxNameLength)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "bob", NormalizeName("  BOB "))
	assert.Equal(t, "", NormalizeName("   "))
	assert.Equal(t, "mary jane", NormalizeName("Mary \t Jane"))
}

func TestHumanJoin(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{nil, ""},
		{[]string{"A"}, "A"},
		{[]string{"A", "B"}, "A & B"},
		{[]string{"A", "B", "C"}, "A, B, & C"},
		{[]string{"A", "B", "C", "D"}, "A, B, C, & D"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanJoin(tt.names))
		})
	}
}

// FuzzParseNames checks that parsed names are never empty, never carry a
// separator, and never repeat.
func FuzzParseNames(f *testing.F) {
	f.Add("Alice, Bob & Carol and Dana")
	f.Add("")
	f.Add("|||")
	f.Add("and and and")
	f.Add("Ünïcödé | ß")
	f.Add("a\x00b|c")
	f.Add(strings.Repeat("x|", 100))

	f.Fuzz(func(t *testing.T, input string) {
		names := ParseNames(input)

		seen := make(map[string]bool, len(names))
		for _, n := range names {
			if n == "" {
				t.Fatalf("ParseNames(%q) returned an empty name", input)
			}
			if strings.ContainsAny(n, "|,&") {
				t.Fatalf("ParseNames(%q) returned %q containing a separator", input, n)
			}
			if n != strings.TrimSpace(n) {
				t.Fatalf("ParseNames(%q) returned untrimmed %q", input, n)
			}
			if seen[n] {
				t.Fatalf("ParseNames(%q) returned duplicate %q", input, n)
			}
			seen[n] = true
		}
	})
}

package units

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/ahrav/go-tally/internal/domain"
)

// nameSeparators matches every separator accepted in free-text name lists:
// "|", ",", "&", and the standalone word "and" in any case.
var nameSeparators = regexp.MustCompile(`(?i)\||,|&|\band\b`)

// NormalizeName trims and case-folds a single contestant name.
// A new Caser is created per call because Casers carry state and the
// scorer runs on several goroutines.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.Join(strings.Fields(cases.Fold().String(name)), " ")
}

// ParseNames splits free text such as "Alice, Bob & Carol and Dana" into a
// set of normalized names. It never fails; text without any names yields
// an empty set.
func ParseNames(text string) domain.NameSet {
	if strings.TrimSpace(text) == "" {
		return domain.NameSet{}
	}
	if len(text) > MaxNameLength {
		text = strings.ToValidUTF8(text[:MaxNameLength], "")
	}
	parts := nameSeparators.Split(text, -1)
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, NormalizeName(p))
	}
	return domain.NewNameSet(names...)
}

// HumanJoin renders names for display: "A", "A & B", "A, B, & C".
func HumanJoin(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " & " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", & " + names[len(names)-1]
	}
}

// contestantDirectory maps normalized names back to the league's display
// spelling.
type contestantDirectory map[string]string

func newContestantDirectory(league domain.League) contestantDirectory {
	dir := make(contestantDirectory, len(league.ContestantNames))
	for _, name := range league.ContestantNames {
		key := NormalizeName(name)
		if key == "" {
			continue
		}
		if _, seen := dir[key]; !seen {
			dir[key] = strings.TrimSpace(name)
		}
	}
	return dir
}

// display returns the league spelling for a normalized name, or the name
// itself when the league does not know it.
func (d contestantDirectory) display(normalized string) string {
	if name, ok := d[normalized]; ok {
		return name
	}
	return normalized
}

func (d contestantDirectory) known(normalized string) bool {
	_, ok := d[normalized]
	return ok
}

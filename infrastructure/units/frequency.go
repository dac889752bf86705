package units

// MostFrequent returns the name that appears most often. When several
// names share the highest count, the first one to reach that count wins;
// later names only take the lead with a strictly greater count.
// It returns false for input without any non-empty name.
func MostFrequent(names []string) (string, bool) {
	counts := make(map[string]int, len(names))
	leader, best := "", 0
	for _, n := range names {
		if n == "" {
			continue
		}
		counts[n]++
		if counts[n] > best {
			leader, best = n, counts[n]
		}
	}
	return leader, best > 0
}

// MostFrequentCount is MostFrequent that also reports the winning count.
func MostFrequentCount(names []string) (string, int) {
	counts := make(map[string]int, len(names))
	leader, best := "", 0
	for _, n := range names {
		if n == "" {
			continue
		}
		counts[n]++
		if counts[n] > best {
			leader, best = n, counts[n]
		}
	}
	return leader, best
}

// TopTallies returns every name sharing the highest count, in order of
// first appearance, along with that count.
func TopTallies(names []string) ([]string, int) {
	counts := make(map[string]int, len(names))
	order := make([]string, 0, len(names))
	best := 0
	for _, n := range names {
		if n == "" {
			continue
		}
		if counts[n] == 0 {
			order = append(order, n)
		}
		counts[n]++
		if counts[n] > best {
			best = counts[n]
		}
	}
	if best == 0 {
		return nil, 0
	}
	top := make([]string, 0, 1)
	for _, n := range order {
		if counts[n] == best {
			top = append(top, n)
		}
	}
	return top, best
}

// flattenNames parses each free-text entry and concatenates the results.
func flattenNames(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, ParseNames(e)...)
	}
	return out
}

package domain

import "slices"

// NameSet is a small, insertion-ordered set of normalized names.
// Order is kept so that anything derived from a set (mode calculations,
// display lists) is deterministic.
type NameSet []string

// NewNameSet builds a NameSet from already-normalized names, dropping
// empty strings and duplicates.
func NewNameSet(names ...string) NameSet {
	set := make(NameSet, 0, len(names))
	for _, n := range names {
		if n == "" || slices.Contains(set, n) {
			continue
		}
		set = append(set, n)
	}
	return set
}

// Contains reports whether name is a member of the set.
func (s NameSet) Contains(name string) bool { return slices.Contains(s, name) }

// Intersects reports whether the two sets share at least one name.
func (s NameSet) Intersects(other NameSet) bool {
	for _, n := range s {
		if other.Contains(n) {
			return true
		}
	}
	return false
}

// Empty reports whether the set has no members.
func (s NameSet) Empty() bool { return len(s) == 0 }

package domain

import "sort"

// IsCycleName reports whether a folder name follows the cycle naming
// rule: exactly eight numeric characters (a date code such as
// "20260815").
func IsCycleName(name string) bool {
	if len(name) != 8 {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}

// CycleSelector chooses which cycle folders a scan covers: either the
// most recent Latest cycles, or all cycles within the inclusive
// [From, To] date-code range when From or To is set.
type CycleSelector struct {
	Latest int
	From   string
	To     string
}

// ranged reports whether the selector is range-based.
func (s CycleSelector) ranged() bool {
	return s.From != "" || s.To != ""
}

// Select filters and orders cycle names according to the selector.
// Names failing the cycle naming rule are dropped. The result is
// ordered most recent first.
func (s CycleSelector) Select(names []string) []string {
	var cycles []string
	for _, name := range names {
		if !IsCycleName(name) {
			continue
		}
		if s.ranged() {
			if s.From != "" && name < s.From {
				continue
			}
			if s.To != "" && name > s.To {
				continue
			}
		}
		cycles = append(cycles, name)
	}

	// Date codes sort lexicographically.
	sort.Sort(sort.Reverse(sort.StringSlice(cycles)))

	if !s.ranged() && s.Latest > 0 && len(cycles) > s.Latest {
		cycles = cycles[:s.Latest]
	}
	return cycles
}

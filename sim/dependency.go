package sim

import "sort"

// DependencyIndex maps each place to the events whose enablement or rate
// reads it. Writes do not register a dependency. Index lists are sorted and
// free of duplicates.
type DependencyIndex map[Place][]int

// BuildDependencyIndex registers every event under the union of its
// enablement and rate inputs.
func BuildDependencyIndex(events []Event) DependencyIndex {
	deps := make(DependencyIndex)
	for idx, ev := range events {
		seen := make(map[Place]bool)
		reads := append([]Place(nil), ev.EnablementInputs()...)
		for _, p := range append(reads, ev.RateInputs()...) {
			if seen[p] {
				continue
			}
			seen[p] = true
			deps[p] = append(deps[p], idx)
		}
	}
	// Events were visited in index order, so every list is already sorted.
	return deps
}

// Dependents returns the events that read p.
func (d DependencyIndex) Dependents(p Place) []int {
	return d[p]
}

// rescheduleSet collects the fired event plus every dependent of a changed
// place, returned in ascending index order so random draws are consumed in
// a reproducible sequence.
type rescheduleSet struct {
	marked  []bool
	members []int
}

func newRescheduleSet(numEvents int) *rescheduleSet {
	return &rescheduleSet{marked: make([]bool, numEvents)}
}

func (r *rescheduleSet) add(idx int) {
	if r.marked[idx] {
		return
	}
	r.marked[idx] = true
	r.members = append(r.members, idx)
}

// drain returns the sorted members and resets the set for reuse.
func (r *rescheduleSet) drain() []int {
	out := make([]int, len(r.members))
	copy(out, r.members)
	sort.Ints(out)
	for _, idx := range r.members {
		r.marked[idx] = false
	}
	r.members = r.members[:0]
	return out
}

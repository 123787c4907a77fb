package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDependencyIndex_ReadsOnly(t *testing.T) {
	// GIVEN an event reading A (enablement) and B (rate) and writing C
	ev := &funcEvent{
		enable:  []Place{placeA},
		rateIn:  []Place{placeB},
		outputs: []Place{placeC},
	}

	// WHEN the index is built
	deps := BuildDependencyIndex([]Event{ev})

	// THEN only read places register the event
	assert.Equal(t, []int{0}, deps.Dependents(placeA))
	assert.Equal(t, []int{0}, deps.Dependents(placeB))
	assert.Empty(t, deps.Dependents(placeC))
}

func TestBuildDependencyIndex_DeduplicatesPerEvent(t *testing.T) {
	// GIVEN an event that lists A in both input sets, twice
	ev := &funcEvent{
		enable: []Place{placeA, placeA},
		rateIn: []Place{placeA, placeB},
	}
	other := &funcEvent{rateIn: []Place{placeA}}

	deps := BuildDependencyIndex([]Event{ev, other})

	assert.Equal(t, []int{0, 1}, deps.Dependents(placeA))
	assert.Equal(t, []int{0}, deps.Dependents(placeB))
}

func TestBuildDependencyIndex_DoesNotAliasEventSlices(t *testing.T) {
	// GIVEN an enablement slice with spare capacity
	enable := make([]Place, 1, 4)
	enable[0] = placeA
	ev := &funcEvent{enable: enable, rateIn: []Place{placeB}}

	BuildDependencyIndex([]Event{ev})

	// THEN the event's backing array was not written
	assert.Equal(t, []Place{placeA}, ev.EnablementInputs())
	assert.Equal(t, Place(0), enable[:2][1])
}

func TestRescheduleSet_DrainSortedAndReset(t *testing.T) {
	r := newRescheduleSet(5)
	for _, idx := range []int{3, 1, 3, 4, 1, 0} {
		r.add(idx)
	}

	assert.Equal(t, []int{0, 1, 3, 4}, r.drain())

	// a drained set starts empty and accepts earlier members again
	r.add(3)
	assert.Equal(t, []int{3}, r.drain())
	assert.Empty(t, r.drain())
}

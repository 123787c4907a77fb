package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiringQueue_PopsInTimeOrder(t *testing.T) {
	// GIVEN entries pushed out of time order
	q := newFiringQueue()
	for _, tm := range []float64{3, 1, 2, 0.5} {
		q.Push(ScheduledFiring{Time: tm})
	}

	// WHEN popped
	var got []float64
	for {
		f, ok := q.Pop()
		if !ok {
			break
		}
		got = append(got, f.Time)
	}

	// THEN times come out ascending
	assert.Equal(t, []float64{0.5, 1, 2, 3}, got)
}

func TestFiringQueue_TieBreak_IndexThenGeneration(t *testing.T) {
	// GIVEN entries with equal times
	q := newFiringQueue()
	q.Push(ScheduledFiring{Time: 1, EventIndex: 2, Generation: 1})
	q.Push(ScheduledFiring{Time: 1, EventIndex: 0, Generation: 5})
	q.Push(ScheduledFiring{Time: 1, EventIndex: 0, Generation: 3})
	q.Push(ScheduledFiring{Time: 1, EventIndex: 1, Generation: 9})

	// WHEN popped
	want := []ScheduledFiring{
		{Time: 1, EventIndex: 0, Generation: 3},
		{Time: 1, EventIndex: 0, Generation: 5},
		{Time: 1, EventIndex: 1, Generation: 9},
		{Time: 1, EventIndex: 2, Generation: 1},
	}

	// THEN lower index wins, then lower generation
	for i, w := range want {
		f, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, w, f, "pop %d", i)
	}
}

func TestFiringQueue_Pop_Empty(t *testing.T) {
	q := newFiringQueue()

	_, ok := q.Pop()

	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

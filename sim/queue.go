// Implements the firing queue, a min-heap of tentative firing times.
// Entries are never removed when an event is rescheduled; the simulation
// discards stale ones as they reach the front (see Simulation.popValid).

package sim

import "container/heap"

// ScheduledFiring is a tentative firing of one event. Generation is the
// event's generation counter at the time the entry was pushed; the entry is
// stale once the event has been rescheduled since.
type ScheduledFiring struct {
	Time       float64
	EventIndex int
	Generation uint64
}

// firingHeap implements heap.Interface.
// Order by: time → event index → generation.
type firingHeap []ScheduledFiring

func (h firingHeap) Len() int { return len(h) }

func (h firingHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	if h[i].EventIndex != h[j].EventIndex {
		return h[i].EventIndex < h[j].EventIndex
	}
	return h[i].Generation < h[j].Generation
}

func (h firingHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *firingHeap) Push(x any) {
	*h = append(*h, x.(ScheduledFiring))
}

func (h *firingHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// firingQueue wraps firingHeap with a typed API.
type firingQueue struct {
	entries firingHeap
}

func newFiringQueue() *firingQueue {
	q := &firingQueue{entries: make(firingHeap, 0)}
	heap.Init(&q.entries)
	return q
}

// Push adds an entry.
func (q *firingQueue) Push(f ScheduledFiring) {
	heap.Push(&q.entries, f)
}

// Pop removes and returns the earliest entry. ok is false on an empty queue.
func (q *firingQueue) Pop() (f ScheduledFiring, ok bool) {
	if len(q.entries) == 0 {
		return ScheduledFiring{}, false
	}
	return heap.Pop(&q.entries).(ScheduledFiring), true
}

// Len returns the number of entries, stale ones included.
func (q *firingQueue) Len() int {
	return len(q.entries)
}

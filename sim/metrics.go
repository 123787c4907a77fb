// Tracks engine-level counters: firings, schedules and lazily discarded
// queue entries.

package sim

import (
	"fmt"
	"io"
)

// Metrics aggregates statistics about the simulation for final reporting.
type Metrics struct {
	Firings       uint64   // Number of events fired
	Schedules     uint64   // Number of ScheduleEvent calls (each bumps a generation)
	Pushes        uint64   // Number of entries pushed onto the firing queue
	StaleDiscards uint64   // Queue entries dropped because their generation was outdated
	PerEvent      []uint64 // Firings per event index

	SimEndedTime float64 // Clock value when the last RunUntil returned
}

func newMetrics(numEvents int) *Metrics {
	return &Metrics{PerEvent: make([]uint64, numEvents)}
}

// Print writes aggregated metrics. names labels PerEvent entries; a nil
// slice falls back to event indices.
func (m *Metrics) Print(w io.Writer, names []string) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Simulated Time       : %g\n", m.SimEndedTime)
	fmt.Fprintf(w, "Firings              : %d\n", m.Firings)
	fmt.Fprintf(w, "Schedules            : %d\n", m.Schedules)
	fmt.Fprintf(w, "Queue Pushes         : %d\n", m.Pushes)
	fmt.Fprintf(w, "Stale Discards       : %d\n", m.StaleDiscards)
	for i, n := range m.PerEvent {
		label := fmt.Sprintf("event[%d]", i)
		if i < len(names) {
			label = names[i]
		}
		fmt.Fprintf(w, "  %-18s : %d\n", label, n)
	}
}

// Package sim provides the core discrete-event engine for stochastic
// Petri nets and chemical reaction networks.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - event.go: the Event capability (inputs, enablement, hazard rate, deltas)
//   - queue.go: the firing queue and its tie-break order
//   - simulator.go: scheduling, lazy invalidation and the time-advance loop
//
// # Lazy Invalidation
//
// Every event carries a generation counter. ScheduleEvent bumps it before
// pushing a new tentative firing, so any entry already in the queue for that
// event becomes stale. Stale entries are not removed eagerly; the simulation
// drops them when they reach the front. After a firing only the fired event
// and the readers of changed places (see DependencyIndex) are rescheduled.
//
// # Determinism
//
// All waiting times come from one PartitionedRNG stream keyed by the
// SimulationKey. Rescheduling visits events in ascending index order, so a
// given key, event list and initial marking always produce the same
// firing sequence.
//
// # Sub-packages
//   - sim/model/: declarative transitions, expression events and YAML models
//   - sim/analysis/: incidence matrix and P-invariant checks
//   - sim/ensemble/: independent replicates and per-place statistics
//   - sim/trace/: in-memory firing trace and summary
//   - sim/tracestore/: SQLite persistence of firing traces
package sim

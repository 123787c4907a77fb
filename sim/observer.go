package sim

import "github.com/inference-sim/spnsim/sim/trace"

// Firing describes one completed firing, passed to observers after the
// deltas are applied and the affected events rescheduled.
type Firing struct {
	Seq         uint64
	Time        float64
	EventIndex  int
	Changes     []StateChange
	Rescheduled []int
}

// FiringObserver is notified after every firing. Observers run inside the
// time-advance loop and must not call back into the simulation.
type FiringObserver interface {
	ObserveFiring(f Firing)
}

// FiringObserverFunc adapts a function to FiringObserver.
type FiringObserverFunc func(f Firing)

// ObserveFiring calls fn(f).
func (fn FiringObserverFunc) ObserveFiring(f Firing) { fn(f) }

// traceObserver copies firings into a trace.SimulationTrace.
type traceObserver struct {
	st    *trace.SimulationTrace
	names []string
}

// NewTraceObserver returns an observer that records firings into st,
// labelling each with the simulation's event names.
func NewTraceObserver(st *trace.SimulationTrace, s *Simulation) FiringObserver {
	return &traceObserver{st: st, names: s.EventNames()}
}

func (o *traceObserver) ObserveFiring(f Firing) {
	if !o.st.Config.Enabled() {
		return
	}
	deltas := make([]trace.Delta, len(f.Changes))
	for i, c := range f.Changes {
		deltas[i] = trace.Delta{Place: int(c.Place), Delta: c.Delta}
	}
	o.st.RecordFiring(trace.FiringRecord{
		Seq:         f.Seq,
		Time:        f.Time,
		EventIndex:  f.EventIndex,
		EventName:   o.names[f.EventIndex],
		Deltas:      deltas,
		Rescheduled: append([]int(nil), f.Rescheduled...),
	})
}

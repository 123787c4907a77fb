// sim/simulator.go
package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"
)

// Simulation is the core object that holds simulated time, the token state,
// the event list and the firing queue.
//
// Events are identified by their position in the list. Each event has a
// generation counter that is bumped every time it is (re)scheduled; a queue
// entry whose stamp no longer matches is stale and dropped when popped.
type Simulation struct {
	clock  float64
	state  *State
	events []Event
	names  []string

	// Place lists are fixed for a simulation's lifetime; cached per event.
	enableInputs [][]Place
	rateInputs   [][]Place

	generations []uint64
	deps        DependencyIndex
	queue       *firingQueue
	pending     *rescheduleSet

	rng     *PartitionedRNG
	waiting distuv.Exponential

	metrics   *Metrics
	observers []FiringObserver

	enableBuf []PlaceState
	rateBuf   []PlaceState
}

// NewSimulation builds a simulation over events. Every place any event
// reads or writes is registered with zero tokens. All waiting times are
// drawn from the SubsystemFiring stream of key.
//
// An empty event list yields a simulation that never fires.
func NewSimulation(events []Event, key SimulationKey) *Simulation {
	s := &Simulation{
		events:       events,
		names:        make([]string, len(events)),
		enableInputs: make([][]Place, len(events)),
		rateInputs:   make([][]Place, len(events)),
		generations:  make([]uint64, len(events)),
		deps:         BuildDependencyIndex(events),
		queue:        newFiringQueue(),
		pending:      newRescheduleSet(len(events)),
		rng:          NewPartitionedRNG(key),
		metrics:      newMetrics(len(events)),
	}
	s.waiting = distuv.Exponential{Rate: 1, Src: s.rng.Source(SubsystemFiring)}

	var places []Place
	for idx, ev := range events {
		s.names[idx] = eventName(ev, idx)
		s.enableInputs[idx] = ev.EnablementInputs()
		s.rateInputs[idx] = ev.RateInputs()
		places = append(places, s.enableInputs[idx]...)
		places = append(places, s.rateInputs[idx]...)
		places = append(places, ev.Outputs()...)
	}
	s.state = newState(places)

	logrus.Infof("Simulation created: %d events, %d places, seed=%d", len(events), s.state.Len(), int64(key))
	return s
}

// Clock returns the current simulated time.
func (s *Simulation) Clock() float64 {
	return s.clock
}

// State returns the live token state. Use it to seed the initial marking;
// changes made after SetupInitialFirings are not seen until the affected
// events are rescheduled.
func (s *Simulation) State() *State {
	return s.state
}

// Marking returns a copy of the current token counts.
func (s *Simulation) Marking() Marking {
	return s.state.Snapshot()
}

// PlaceState returns mutable access to a registered place.
func (s *Simulation) PlaceState(p Place) (*PlaceState, error) {
	return s.state.Get(p)
}

// SetTokens sets the token count of a registered place.
func (s *Simulation) SetTokens(p Place, n int) error {
	ps, err := s.state.Get(p)
	if err != nil {
		return err
	}
	ps.Tokens = n
	return nil
}

// AddTokens adds delta to the token count of a registered place.
func (s *Simulation) AddTokens(p Place, delta int) error {
	ps, err := s.state.Get(p)
	if err != nil {
		return err
	}
	ps.Tokens += delta
	return nil
}

// Tokens returns the token count of a registered place.
func (s *Simulation) Tokens(p Place) (int, error) {
	return s.state.Tokens(p)
}

// Events returns the event list in index order.
func (s *Simulation) Events() []Event {
	return s.events
}

// EventName returns the label of event idx.
func (s *Simulation) EventName(idx int) string {
	return s.names[idx]
}

// EventNames returns the labels of all events in index order.
func (s *Simulation) EventNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Dependencies returns the place → reader index built at construction.
func (s *Simulation) Dependencies() DependencyIndex {
	return s.deps
}

// Generation returns the current generation counter of event idx.
func (s *Simulation) Generation(idx int) uint64 {
	return s.generations[idx]
}

// Pending returns the number of queued entries, stale ones included.
func (s *Simulation) Pending() int {
	return s.queue.Len()
}

// Metrics returns the live counters.
func (s *Simulation) Metrics() *Metrics {
	return s.metrics
}

// AddObserver registers an observer notified after each firing.
func (s *Simulation) AddObserver(o FiringObserver) {
	s.observers = append(s.observers, o)
}

// SetupInitialFirings schedules every event once. Call it after seeding the
// initial marking and before the first RunUntil.
func (s *Simulation) SetupInitialFirings() error {
	for idx := range s.events {
		if err := s.ScheduleEvent(idx); err != nil {
			return err
		}
	}
	logrus.Debugf("[t=%g] initial firings scheduled: %d queued", s.clock, s.queue.Len())
	return nil
}

// ScheduleEvent bumps the generation of event idx, which invalidates any
// entry already queued for it, and pushes a new tentative firing if the
// event is enabled. The firing time is the current clock plus an
// exponential sample with the event's hazard rate.
func (s *Simulation) ScheduleEvent(idx int) error {
	if idx < 0 || idx >= len(s.events) {
		return fmt.Errorf("schedule event %d: %w", idx, ErrUnknownEvent)
	}
	ev := s.events[idx]

	inputs, err := s.state.read(s.enableInputs[idx], s.enableBuf)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", s.names[idx], err)
	}
	s.enableBuf = inputs
	s.generations[idx]++
	s.metrics.Schedules++
	if !ev.Enabled(inputs) {
		return nil
	}

	rateInputs, err := s.state.read(s.rateInputs[idx], s.rateBuf)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", s.names[idx], err)
	}
	s.rateBuf = rateInputs
	rate := ev.HazardRate(rateInputs)
	if !(rate > 0) {
		return &RateError{EventIndex: idx, Event: s.names[idx], Rate: rate}
	}

	s.queue.Push(ScheduledFiring{
		Time:       s.clock + s.sampleWaitingTime(rate),
		EventIndex: idx,
		Generation: s.generations[idx],
	})
	s.metrics.Pushes++
	return nil
}

// sampleWaitingTime draws Exp(rate). An infinite rate yields 0.
func (s *Simulation) sampleWaitingTime(rate float64) float64 {
	if math.IsInf(rate, 1) {
		return 0
	}
	s.waiting.Rate = rate
	return s.waiting.Rand()
}

// popValid pops entries until one matches its event's current generation.
func (s *Simulation) popValid() (ScheduledFiring, bool) {
	for {
		next, ok := s.queue.Pop()
		if !ok {
			return ScheduledFiring{}, false
		}
		if next.Generation == s.generations[next.EventIndex] {
			return next, true
		}
		s.metrics.StaleDiscards++
		logrus.Tracef("[t=%g] discarded stale entry for %s (gen %d, current %d)",
			s.clock, s.names[next.EventIndex], next.Generation, s.generations[next.EventIndex])
	}
}

// NextFiringTime returns the time of the next valid firing without firing
// it. Stale entries in front of it are discarded.
func (s *Simulation) NextFiringTime() (float64, bool) {
	next, ok := s.popValid()
	if !ok {
		return 0, false
	}
	s.queue.Push(next)
	return next.Time, true
}

// RunUntil fires every valid entry with time <= horizon, in time order.
// The first entry past the horizon is pushed back unchanged, so a later call
// with a larger horizon resumes exactly where this one stopped. Pass
// math.Inf(1) to run until no event is enabled.
func (s *Simulation) RunUntil(horizon float64) error {
	logrus.Infof("[t=%g] Running until %g", s.clock, horizon)
	defer func() {
		s.metrics.SimEndedTime = s.clock
	}()

	for {
		next, ok := s.popValid()
		if !ok {
			logrus.Infof("[t=%g] No enabled events left", s.clock)
			return nil
		}
		if next.Time > horizon {
			s.queue.Push(next)
			logrus.Infof("[t=%g] Horizon %g reached, next firing at %g", s.clock, horizon, next.Time)
			return nil
		}
		if err := s.fire(next); err != nil {
			return err
		}
	}
}

// Step fires the next valid entry regardless of its time. It returns false
// when nothing is scheduled.
func (s *Simulation) Step() (bool, error) {
	next, ok := s.popValid()
	if !ok {
		return false, nil
	}
	err := s.fire(next)
	s.metrics.SimEndedTime = s.clock
	return true, err
}

// fire advances the clock to next, applies the event's deltas and
// reschedules the fired event plus every event reading a changed place.
func (s *Simulation) fire(next ScheduledFiring) error {
	if next.Time < s.clock {
		panic(fmt.Sprintf("firing %s at %g is earlier than clock %g", s.names[next.EventIndex], next.Time, s.clock))
	}
	idx := next.EventIndex
	changes := s.events[idx].Fire()
	if err := s.state.apply(changes); err != nil {
		// the entry stays queued so the simulation is exactly as before the pop
		s.queue.Push(next)
		return fmt.Errorf("fire %s: %w", s.names[idx], err)
	}
	s.clock = next.Time
	s.metrics.Firings++
	s.metrics.PerEvent[idx]++
	logrus.Debugf("[t=%g] fired %s %v", s.clock, s.names[idx], changes)

	s.pending.add(idx)
	for _, c := range changes {
		for _, dep := range s.deps[c.Place] {
			s.pending.add(dep)
		}
	}
	rescheduled := s.pending.drain()

	var schedErr error
	for _, r := range rescheduled {
		if schedErr = s.ScheduleEvent(r); schedErr != nil {
			break
		}
	}

	f := Firing{
		Seq:         s.metrics.Firings,
		Time:        s.clock,
		EventIndex:  idx,
		Changes:     changes,
		Rescheduled: rescheduled,
	}
	for _, o := range s.observers {
		o.ObserveFiring(f)
	}
	return schedErr
}

package sim

import "fmt"

// Event defines the capability every simulated transition must provide.
// The engine calls these methods; implementations must be pure and must
// return the same place lists for the lifetime of a simulation.
//
// Enabled and HazardRate receive the current state of the places returned by
// EnablementInputs and RateInputs respectively, in the same order.
type Event interface {
	EnablementInputs() []Place
	RateInputs() []Place
	Outputs() []Place

	// Enabled reports whether the event may fire at all.
	Enabled(inputs []PlaceState) bool
	// HazardRate returns the exponential rate parameter. It is only called
	// when Enabled returned true and must be > 0 (+Inf fires immediately).
	HazardRate(inputs []PlaceState) float64
	// Fire returns the deltas applied, in order, when the event fires.
	Fire() []StateChange
}

// Named is implemented by events that carry a human-readable label.
type Named interface {
	Name() string
}

// AlwaysEnabled can be embedded by events with no enablement condition.
type AlwaysEnabled struct{}

// Enabled always returns true.
func (AlwaysEnabled) Enabled([]PlaceState) bool { return true }

// eventName returns the label used in logs and traces.
func eventName(e Event, idx int) string {
	if n, ok := e.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	return fmt.Sprintf("event[%d]", idx)
}

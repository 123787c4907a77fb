package model

import (
	"fmt"
	"sort"

	"github.com/inference-sim/spnsim/sim"
)

// Kinetics selects how a Transition turns its rate constant into a hazard.
type Kinetics string

const (
	// KineticsConstant uses the rate constant as the hazard while enabled.
	KineticsConstant Kinetics = "constant"
	// KineticsMassAction multiplies the rate constant by the number of
	// distinct reactant combinations, Π C(n_i, w_i).
	KineticsMassAction Kinetics = "mass_action"
)

var validKinetics = map[Kinetics]bool{
	"":                 true,
	KineticsConstant:   true,
	KineticsMassAction: true,
}

// IsValidKinetics reports whether k names a supported kinetics law.
// The empty string means constant.
func IsValidKinetics(k string) bool {
	return validKinetics[Kinetics(k)]
}

// Arc connects a place to a transition with a positive multiplicity.
type Arc struct {
	Place  sim.Place
	Weight int
}

// Transition is a Petri-net transition or reaction: it consumes Weight
// tokens from each input arc and produces Weight tokens on each output arc.
// Construct with NewTransition.
type Transition struct {
	Label      string
	InputArcs  []Arc
	OutputArcs []Arc
	Rate       float64
	Kinetics   Kinetics

	inputPlaces []sim.Place
	written     []sim.Place
	changes     []sim.StateChange
}

var _ sim.Event = (*Transition)(nil)

// NewTransition merges arcs that share a place and precomputes the net
// deltas. A place that is both consumed and produced in equal amount
// (a catalyst) yields no delta.
func NewTransition(label string, inputs, outputs []Arc, rate float64, kinetics Kinetics) (*Transition, error) {
	if !validKinetics[kinetics] {
		return nil, fmt.Errorf("transition %q: unknown kinetics %q; valid: constant, mass_action", label, kinetics)
	}
	if kinetics == "" {
		kinetics = KineticsConstant
	}
	in, err := mergeArcs(label, inputs)
	if err != nil {
		return nil, err
	}
	out, err := mergeArcs(label, outputs)
	if err != nil {
		return nil, err
	}

	t := &Transition{Label: label, InputArcs: in, OutputArcs: out, Rate: rate, Kinetics: kinetics}
	net := make(map[sim.Place]int)
	for _, a := range in {
		t.inputPlaces = append(t.inputPlaces, a.Place)
		net[a.Place] -= a.Weight
	}
	for _, a := range out {
		net[a.Place] += a.Weight
	}
	for _, a := range append(append([]Arc(nil), in...), out...) {
		d, ok := net[a.Place]
		if !ok {
			continue
		}
		delete(net, a.Place)
		if d == 0 {
			continue
		}
		t.changes = append(t.changes, sim.StateChange{Place: a.Place, Delta: d})
		t.written = append(t.written, a.Place)
	}
	return t, nil
}

// mergeArcs sums weights per place and orders arcs by place.
func mergeArcs(label string, arcs []Arc) ([]Arc, error) {
	weights := make(map[sim.Place]int)
	for _, a := range arcs {
		if a.Weight <= 0 {
			return nil, fmt.Errorf("transition %q: arc on place %d must have positive weight, got %d", label, a.Place, a.Weight)
		}
		weights[a.Place] += a.Weight
	}
	merged := make([]Arc, 0, len(weights))
	for p, w := range weights {
		merged = append(merged, Arc{Place: p, Weight: w})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Place < merged[j].Place })
	return merged, nil
}

func (t *Transition) Name() string { return t.Label }

func (t *Transition) EnablementInputs() []sim.Place { return t.inputPlaces }

// RateInputs is empty for constant kinetics: the hazard does not depend on
// the marking, so input changes only matter through enablement.
func (t *Transition) RateInputs() []sim.Place {
	if t.Kinetics == KineticsMassAction {
		return t.inputPlaces
	}
	return nil
}

func (t *Transition) Outputs() []sim.Place { return t.written }

// Enabled reports whether every input place holds at least its arc weight.
func (t *Transition) Enabled(inputs []sim.PlaceState) bool {
	for i, a := range t.InputArcs {
		if inputs[i].Tokens < a.Weight {
			return false
		}
	}
	return true
}

func (t *Transition) HazardRate(inputs []sim.PlaceState) float64 {
	if t.Kinetics != KineticsMassAction {
		return t.Rate
	}
	h := t.Rate
	for i, a := range t.InputArcs {
		h *= binomial(inputs[i].Tokens, a.Weight)
	}
	return h
}

func (t *Transition) Fire() []sim.StateChange { return t.changes }

// binomial returns C(n, k) as a float64, 0 when n < k.
func binomial(n, k int) float64 {
	if k < 0 || n < k {
		return 0
	}
	c := 1.0
	for j := 0; j < k; j++ {
		c = c * float64(n-j) / float64(j+1)
	}
	return c
}

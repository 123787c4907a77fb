// Package model builds simulations from declarative YAML model files:
// places with initial tokens, and events that are either weighted
// transitions (constant or mass-action kinetics) or expression events with
// a guard and rate written over place names and parameters.
package model

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/spnsim/sim"
)

// Model is the top-level model configuration.
// Loaded from YAML via LoadModel(path).
type Model struct {
	Name    string             `yaml:"name"`
	Seed    int64              `yaml:"seed,omitempty"`
	Horizon float64            `yaml:"horizon,omitempty"` // 0 = run until nothing is enabled
	Params  map[string]float64 `yaml:"params,omitempty"`
	Places  []PlaceSpec        `yaml:"places"`
	Events  []EventSpec        `yaml:"events"`
}

// PlaceSpec declares a place and its initial token count.
type PlaceSpec struct {
	Name    string `yaml:"name"`
	Initial int    `yaml:"initial"`
}

// EventSpec declares one event. Either Rate (a transition with Inputs and
// Outputs arcs) or RateExpr (an expression event with Deltas) is set.
type EventSpec struct {
	Name     string         `yaml:"name"`
	Kinetics string         `yaml:"kinetics,omitempty"`
	Rate     float64        `yaml:"rate,omitempty"`
	Inputs   map[string]int `yaml:"inputs,omitempty"`
	Outputs  map[string]int `yaml:"outputs,omitempty"`

	Guard    string         `yaml:"guard,omitempty"`
	RateExpr string         `yaml:"rate_expr,omitempty"`
	Deltas   map[string]int `yaml:"deltas,omitempty"`
}

// IsExpr reports whether the event is written as expressions.
func (e *EventSpec) IsExpr() bool {
	return e.RateExpr != ""
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadModel reads a model file with strict field checking.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	return ParseModel(data)
}

// ParseModel decodes a model from YAML bytes with strict field checking.
func ParseModel(data []byte) (*Model, error) {
	var m Model
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing model: %w", err)
	}
	return &m, nil
}

// Validate checks that all fields in the model are valid.
func (m *Model) Validate() error {
	if len(m.Places) == 0 {
		return fmt.Errorf("at least one place required")
	}
	if m.Horizon < 0 || math.IsNaN(m.Horizon) {
		return fmt.Errorf("horizon must be non-negative, got %v", m.Horizon)
	}
	names := make(map[string]bool, len(m.Places))
	for i, p := range m.Places {
		if !identifierPattern.MatchString(p.Name) {
			return fmt.Errorf("place[%d]: name %q must be an identifier", i, p.Name)
		}
		if names[p.Name] {
			return fmt.Errorf("place[%d]: duplicate name %q", i, p.Name)
		}
		names[p.Name] = true
	}
	for name, v := range m.Params {
		if names[name] {
			return fmt.Errorf("param %q shadows a place", name)
		}
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("param %q must be an identifier", name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("param %q must be finite, got %v", name, v)
		}
	}
	events := make(map[string]bool, len(m.Events))
	for i := range m.Events {
		e := &m.Events[i]
		if err := validateEvent(e, i, names); err != nil {
			return err
		}
		if e.Name != "" {
			if events[e.Name] {
				return fmt.Errorf("event[%d]: duplicate name %q", i, e.Name)
			}
			events[e.Name] = true
		}
	}
	return nil
}

func validateEvent(e *EventSpec, idx int, places map[string]bool) error {
	prefix := fmt.Sprintf("event[%d]", idx)
	if e.Name != "" {
		prefix = fmt.Sprintf("event[%d] %q", idx, e.Name)
	}
	checkPlaces := func(field string, arcs map[string]int, positive bool) error {
		for name, w := range arcs {
			if !places[name] {
				return fmt.Errorf("%s.%s: unknown place %q", prefix, field, name)
			}
			if positive && w <= 0 {
				return fmt.Errorf("%s.%s: weight of %q must be positive, got %d", prefix, field, name, w)
			}
		}
		return nil
	}

	if e.IsExpr() {
		if e.Rate != 0 || len(e.Inputs) > 0 || len(e.Outputs) > 0 || e.Kinetics != "" {
			return fmt.Errorf("%s: rate_expr cannot be combined with rate, kinetics, inputs or outputs", prefix)
		}
		return checkPlaces("deltas", e.Deltas, false)
	}

	if e.Guard != "" || len(e.Deltas) > 0 {
		return fmt.Errorf("%s: guard and deltas require rate_expr", prefix)
	}
	if !IsValidKinetics(e.Kinetics) {
		return fmt.Errorf("%s: unknown kinetics %q; valid: constant, mass_action", prefix, e.Kinetics)
	}
	if !(e.Rate > 0) {
		return fmt.Errorf("%s: rate must be positive, got %v", prefix, e.Rate)
	}
	if err := checkPlaces("inputs", e.Inputs, true); err != nil {
		return err
	}
	return checkPlaces("outputs", e.Outputs, true)
}

// Built is a model resolved to engine types.
type Built struct {
	Name    string
	Events  []sim.Event
	Places  map[string]sim.Place
	Names   []string // place names indexed by sim.Place
	Initial sim.Marking
	Seed    int64
	Horizon float64
}

// Build validates the model and resolves it to events and places. Places
// are numbered in declaration order.
func (m *Model) Build() (*Built, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	b := &Built{
		Name:    m.Name,
		Places:  make(map[string]sim.Place, len(m.Places)),
		Names:   make([]string, len(m.Places)),
		Initial: make(sim.Marking, len(m.Places)),
		Seed:    m.Seed,
		Horizon: m.Horizon,
	}
	for i, p := range m.Places {
		b.Places[p.Name] = sim.Place(i)
		b.Names[i] = p.Name
		b.Initial[sim.Place(i)] = p.Initial
	}

	for i := range m.Events {
		spec := &m.Events[i]
		label := spec.Name
		if label == "" {
			label = fmt.Sprintf("event[%d]", i)
		}
		var (
			ev  sim.Event
			err error
		)
		if spec.IsExpr() {
			ev, err = NewExprEvent(label, spec.Guard, spec.RateExpr, b.changes(spec.Deltas), b.Places, m.Params)
		} else {
			ev, err = NewTransition(label, b.arcs(spec.Inputs), b.arcs(spec.Outputs), spec.Rate, Kinetics(spec.Kinetics))
		}
		if err != nil {
			return nil, err
		}
		b.Events = append(b.Events, ev)
	}
	logrus.Debugf("model %q built: %d places, %d events", m.Name, len(b.Names), len(b.Events))
	return b, nil
}

func (b *Built) arcs(weights map[string]int) []Arc {
	out := make([]Arc, 0, len(weights))
	for name, w := range weights {
		out = append(out, Arc{Place: b.Places[name], Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Place < out[j].Place })
	return out
}

func (b *Built) changes(deltas map[string]int) []sim.StateChange {
	out := make([]sim.StateChange, 0, len(deltas))
	for name, d := range deltas {
		if d == 0 {
			continue
		}
		out = append(out, sim.StateChange{Place: b.Places[name], Delta: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Place < out[j].Place })
	return out
}

// PlaceList returns every place in declaration order.
func (b *Built) PlaceList() []sim.Place {
	out := make([]sim.Place, len(b.Names))
	for i := range out {
		out[i] = sim.Place(i)
	}
	return out
}

// NewSimulation returns a simulation seeded with key, with the initial
// marking applied and initial firings scheduled. Places no event references
// are not registered with the engine.
func (b *Built) NewSimulation(key sim.SimulationKey) (*sim.Simulation, error) {
	s := sim.NewSimulation(b.Events, key)
	for _, p := range b.PlaceList() {
		if !s.State().Has(p) {
			// declared but never touched by an event; nothing can read it
			continue
		}
		if err := s.SetTokens(p, b.Initial[p]); err != nil {
			return nil, err
		}
	}
	if err := s.SetupInitialFirings(); err != nil {
		return nil, fmt.Errorf("model %q: %w", b.Name, err)
	}
	return s, nil
}

// MarkingByName converts a marking to place names, skipping places the
// model does not declare. Declared places missing from m keep their
// initial count.
func (b *Built) MarkingByName(m sim.Marking) map[string]int {
	out := make(map[string]int, len(b.Names))
	for i, name := range b.Names {
		out[name] = b.Initial[sim.Place(i)]
	}
	for p, n := range m {
		if int(p) >= 0 && int(p) < len(b.Names) {
			out[b.Names[p]] = n
		}
	}
	return out
}

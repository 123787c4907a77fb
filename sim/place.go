package sim

import (
	"fmt"
	"sort"
	"strings"
)

// Place identifies a token counter. Callers assign meaning; the engine only
// uses it as a map key.
type Place int

// PlaceState is the token count held by a place. Counts are signed and the
// engine applies any delta without checking it.
type PlaceState struct {
	Tokens int
}

// StateChange is a single signed delta produced by a firing event.
type StateChange struct {
	Place Place
	Delta int
}

func (c StateChange) String() string {
	return fmt.Sprintf("%d:%+d", c.Place, c.Delta)
}

// Marking is a detached copy of token counts, safe to keep after the
// simulation moves on.
type Marking map[Place]int

// Total sums the tokens over the given places. With no arguments it sums
// every place in the marking.
func (m Marking) Total(places ...Place) int {
	total := 0
	if len(places) == 0 {
		for _, n := range m {
			total += n
		}
		return total
	}
	for _, p := range places {
		total += m[p]
	}
	return total
}

func (m Marking) String() string {
	places := make([]Place, 0, len(m))
	for p := range m {
		places = append(places, p)
	}
	sort.Slice(places, func(i, j int) bool { return places[i] < places[j] })
	var sb strings.Builder
	sb.WriteString("{")
	for i, p := range places {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%d:%d", p, m[p])
	}
	sb.WriteString("}")
	return sb.String()
}

// State maps every registered place to its token count. The key set is
// fixed at construction; lookups of any other place fail with ErrUnknownPlace.
type State struct {
	places map[Place]*PlaceState
}

func newState(places []Place) *State {
	s := &State{places: make(map[Place]*PlaceState, len(places))}
	for _, p := range places {
		if _, ok := s.places[p]; !ok {
			s.places[p] = &PlaceState{}
		}
	}
	return s
}

// Get returns mutable access to the state of a registered place.
func (s *State) Get(p Place) (*PlaceState, error) {
	ps, ok := s.places[p]
	if !ok {
		return nil, &PlaceError{Place: p, Op: "get"}
	}
	return ps, nil
}

// Tokens returns the token count of a registered place.
func (s *State) Tokens(p Place) (int, error) {
	ps, ok := s.places[p]
	if !ok {
		return 0, &PlaceError{Place: p, Op: "read"}
	}
	return ps.Tokens, nil
}

// Has reports whether p was registered at construction.
func (s *State) Has(p Place) bool {
	_, ok := s.places[p]
	return ok
}

// Len returns the number of registered places.
func (s *State) Len() int {
	return len(s.places)
}

// Places returns the registered places in ascending order.
func (s *State) Places() []Place {
	out := make([]Place, 0, len(s.places))
	for p := range s.places {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot copies the current token counts.
func (s *State) Snapshot() Marking {
	m := make(Marking, len(s.places))
	for p, ps := range s.places {
		m[p] = ps.Tokens
	}
	return m
}

// read gathers the states of places in order. Every place read here was
// registered at construction, so a miss means the event changed its inputs.
func (s *State) read(places []Place, buf []PlaceState) ([]PlaceState, error) {
	buf = buf[:0]
	for _, p := range places {
		ps, ok := s.places[p]
		if !ok {
			return nil, &PlaceError{Place: p, Op: "read"}
		}
		buf = append(buf, *ps)
	}
	return buf, nil
}

// apply validates every change before touching any counter, so a firing
// with an unknown place leaves the state as it was.
func (s *State) apply(changes []StateChange) error {
	for _, c := range changes {
		if _, ok := s.places[c.Place]; !ok {
			return &PlaceError{Place: c.Place, Op: "apply"}
		}
	}
	for _, c := range changes {
		s.places[c.Place].Tokens += c.Delta
	}
	return nil
}

package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPlace is returned when an operation references a place that
	// no event declared at construction.
	ErrUnknownPlace = errors.New("unknown place")

	// ErrInvalidRate is returned when an enabled event reports a hazard rate
	// that is not strictly positive.
	ErrInvalidRate = errors.New("invalid hazard rate")

	// ErrUnknownEvent is returned for an event index outside the event list.
	ErrUnknownEvent = errors.New("unknown event")
)

// PlaceError records the place and operation behind an ErrUnknownPlace.
type PlaceError struct {
	Place Place
	Op    string
}

func (e *PlaceError) Error() string {
	return fmt.Sprintf("%s place %d: %s", e.Op, e.Place, ErrUnknownPlace)
}

// Unwrap lets errors.Is match ErrUnknownPlace.
func (e *PlaceError) Unwrap() error {
	return ErrUnknownPlace
}

// RateError records the event and rate behind an ErrInvalidRate.
type RateError struct {
	EventIndex int
	Event      string
	Rate       float64
}

func (e *RateError) Error() string {
	return fmt.Sprintf("%s (index %d): %s %v", e.Event, e.EventIndex, ErrInvalidRate, e.Rate)
}

// Unwrap lets errors.Is match ErrInvalidRate.
func (e *RateError) Unwrap() error {
	return ErrInvalidRate
}

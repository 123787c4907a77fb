// Package ensemble runs independent replicates of a model and reports
// per-place statistics of the final markings.
package ensemble

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/spnsim/sim"
)

// BuildFunc returns a fresh simulation seeded with key, with its initial
// marking applied and initial firings scheduled.
type BuildFunc func(key sim.SimulationKey) (*sim.Simulation, error)

// Config controls an ensemble run.
type Config struct {
	Replicates int
	Horizon    float64 // +Inf = until nothing is enabled
	Key        sim.SimulationKey
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Replicates <= 0 {
		return fmt.Errorf("replicates must be positive, got %d", c.Replicates)
	}
	if c.Horizon < 0 || math.IsNaN(c.Horizon) {
		return fmt.Errorf("horizon must be non-negative, got %v", c.Horizon)
	}
	return nil
}

// PlaceStats summarizes one place across replicates.
type PlaceStats struct {
	Place  sim.Place
	Mean   float64
	StdDev float64 // sample standard deviation; 0 with one replicate
	Min    int
	Max    int
}

// Result aggregates an ensemble.
type Result struct {
	Replicates    int
	Seeds         []int64
	Places        []PlaceStats // ascending by place
	TotalFirings  uint64
	MeanFirings   float64
	MeanEndClock  float64
	FinalMarkings []sim.Marking
}

// ReplicateKey derives the key of replicate i from the ensemble key.
func ReplicateKey(key sim.SimulationKey, i int) sim.SimulationKey {
	rng := sim.NewPartitionedRNG(key)
	return sim.NewSimulationKey(rng.ForSubsystem(sim.SubsystemReplicate(i)).Int64())
}

// Run executes cfg.Replicates replicates one after another. Context
// cancellation is checked between replicates.
func Run(ctx context.Context, build BuildFunc, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	res := &Result{Replicates: cfg.Replicates}
	clocks := make([]float64, 0, cfg.Replicates)
	firings := make([]float64, 0, cfg.Replicates)

	for i := 0; i < cfg.Replicates; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replicate %d: %w", i, err)
		}
		key := ReplicateKey(cfg.Key, i)
		s, err := build(key)
		if err != nil {
			return nil, fmt.Errorf("replicate %d: build: %w", i, err)
		}
		if err := s.RunUntil(cfg.Horizon); err != nil {
			return nil, fmt.Errorf("replicate %d: %w", i, err)
		}
		m := s.Marking()
		res.Seeds = append(res.Seeds, int64(key))
		res.FinalMarkings = append(res.FinalMarkings, m)
		res.TotalFirings += s.Metrics().Firings
		firings = append(firings, float64(s.Metrics().Firings))
		clocks = append(clocks, s.Clock())
		logrus.Debugf("replicate %d (seed %d): %d firings, clock %g, marking %v",
			i, int64(key), s.Metrics().Firings, s.Clock(), m)
	}

	res.Places = placeStats(res.FinalMarkings)
	res.MeanFirings = stat.Mean(firings, nil)
	res.MeanEndClock = stat.Mean(clocks, nil)
	logrus.Infof("Ensemble complete: %d replicates, %d firings", res.Replicates, res.TotalFirings)
	return res, nil
}

func placeStats(markings []sim.Marking) []PlaceStats {
	seen := make(map[sim.Place]bool)
	var places []sim.Place
	for _, m := range markings {
		for p := range m {
			if !seen[p] {
				seen[p] = true
				places = append(places, p)
			}
		}
	}
	sort.Slice(places, func(i, j int) bool { return places[i] < places[j] })

	out := make([]PlaceStats, 0, len(places))
	xs := make([]float64, len(markings))
	for _, p := range places {
		ps := PlaceStats{Place: p, Min: math.MaxInt, Max: math.MinInt}
		for i, m := range markings {
			n := m[p]
			xs[i] = float64(n)
			ps.Min = min(ps.Min, n)
			ps.Max = max(ps.Max, n)
		}
		if len(xs) > 1 {
			ps.Mean, ps.StdDev = stat.MeanStdDev(xs, nil)
		} else {
			ps.Mean = xs[0]
		}
		out = append(out, ps)
	}
	return out
}

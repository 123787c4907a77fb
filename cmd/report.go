package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/inference-sim/spnsim/sim"
	"github.com/inference-sim/spnsim/sim/ensemble"
	"github.com/inference-sim/spnsim/sim/model"
	"github.com/inference-sim/spnsim/sim/trace"
)

// runReport is everything the run command prints.
type runReport struct {
	Model       string              `json:"model"`
	Seed        int64               `json:"seed"`
	Horizon     *float64            `json:"horizon"` // null = until nothing is enabled
	Clock       float64             `json:"clock"`
	Firings     uint64              `json:"firings"`
	Stale       uint64              `json:"stale_discards"`
	PerEvent    map[string]uint64   `json:"per_event"`
	Marking     map[string]int      `json:"marking"`
	Checkpoints []checkpointReport  `json:"checkpoints,omitempty"`
	Trace       *trace.TraceSummary `json:"trace,omitempty"`
	RunID       string              `json:"run_id,omitempty"`
	Ensemble    *ensembleReport     `json:"ensemble,omitempty"`

	placeOrder []string
}

type checkpointReport struct {
	Time    float64        `json:"time"`
	Marking map[string]int `json:"marking"`
}

type ensembleReport struct {
	Replicates   int                     `json:"replicates"`
	MeanFirings  float64                 `json:"mean_firings"`
	MeanEndClock float64                 `json:"mean_end_clock"`
	Places       map[string]placeSummary `json:"places"`
}

type placeSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
}

func newReport(b *model.Built, runSeed int64, runHorizon float64) *runReport {
	rep := &runReport{Model: b.Name, Seed: runSeed, placeOrder: b.Names}
	if !math.IsInf(runHorizon, 1) {
		h := runHorizon
		rep.Horizon = &h
	}
	return rep
}

func (r *runReport) finish(b *model.Built, s *sim.Simulation) {
	m := s.Metrics()
	r.Clock = s.Clock()
	r.Firings = m.Firings
	r.Stale = m.StaleDiscards
	r.PerEvent = make(map[string]uint64, len(m.PerEvent))
	for i, n := range m.PerEvent {
		r.PerEvent[s.EventName(i)] = n
	}
	r.Marking = b.MarkingByName(s.Marking())
}

func newEnsembleReport(b *model.Built, res *ensemble.Result) *ensembleReport {
	er := &ensembleReport{
		Replicates:   res.Replicates,
		MeanFirings:  res.MeanFirings,
		MeanEndClock: res.MeanEndClock,
		Places:       make(map[string]placeSummary, len(res.Places)),
	}
	for _, ps := range res.Places {
		if int(ps.Place) < len(b.Names) {
			er.Places[b.Names[ps.Place]] = placeSummary{Mean: ps.Mean, StdDev: ps.StdDev, Min: ps.Min, Max: ps.Max}
		}
	}
	return er
}

func (r *runReport) writeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

func (r *runReport) formatMarking(m map[string]int) string {
	parts := make([]string, 0, len(r.placeOrder))
	for _, name := range r.placeOrder {
		parts = append(parts, fmt.Sprintf("%s=%d", name, m[name]))
	}
	return strings.Join(parts, " ")
}

func (r *runReport) writeText(w io.Writer, s *sim.Simulation) {
	horizon := "inf"
	if r.Horizon != nil {
		horizon = fmt.Sprintf("%g", *r.Horizon)
	}
	fmt.Fprintf(w, "Model %q (seed %d, horizon %s)\n", r.Model, r.Seed, horizon)
	if len(r.Checkpoints) > 1 {
		fmt.Fprintln(w, "=== Checkpoints ===")
		for _, c := range r.Checkpoints {
			fmt.Fprintf(w, "t=%-12g %s\n", c.Time, r.formatMarking(c.Marking))
		}
	}
	fmt.Fprintf(w, "Final marking: %s\n", r.formatMarking(r.Marking))
	s.Metrics().Print(w, s.EventNames())

	if r.Trace != nil {
		fmt.Fprintln(w, "=== Trace Summary ===")
		fmt.Fprintf(w, "Recorded Firings     : %d (dropped %d)\n", r.Trace.TotalFirings, r.Trace.Dropped)
		fmt.Fprintf(w, "First / Last Firing  : %g / %g\n", r.Trace.FirstFiringTime, r.Trace.LastFiringTime)
		fmt.Fprintf(w, "Mean Inter-Firing    : %g\n", r.Trace.MeanInterFiring)
	}
	if r.RunID != "" {
		fmt.Fprintf(w, "Trace stored as run %s\n", r.RunID)
	}
	if r.Ensemble != nil {
		fmt.Fprintf(w, "=== Ensemble (%d replicates) ===\n", r.Ensemble.Replicates)
		fmt.Fprintf(w, "Mean Firings         : %g\n", r.Ensemble.MeanFirings)
		fmt.Fprintf(w, "Mean End Clock       : %g\n", r.Ensemble.MeanEndClock)
		names := make([]string, 0, len(r.Ensemble.Places))
		for name := range r.Ensemble.Places {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ps := r.Ensemble.Places[name]
			fmt.Fprintf(w, "  %-18s : mean %.3f sd %.3f [%d, %d]\n", name, ps.Mean, ps.StdDev, ps.Min, ps.Max)
		}
	}
}

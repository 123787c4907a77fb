// Package trace provides firing-trace recording for simulation analysis.
// The package does not import sim/; it holds plain data types.
package trace

// TraceLevel controls the verbosity of firing tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelFirings captures every event firing with its deltas.
	TraceLevelFirings TraceLevel = "firings"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelFirings: true,
	"":                true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
	// MaxRecords caps the number of stored firings; 0 means unbounded.
	// Firings past the cap are counted in Dropped.
	MaxRecords int
}

// Enabled reports whether the config records anything.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelFirings
}

// SimulationTrace collects firing records during a simulation.
type SimulationTrace struct {
	Config  TraceConfig
	Firings []FiringRecord
	Dropped int
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:  config,
		Firings: make([]FiringRecord, 0),
	}
}

// RecordFiring appends a firing record, honoring the configured level and cap.
func (st *SimulationTrace) RecordFiring(record FiringRecord) {
	if !st.Config.Enabled() {
		return
	}
	if st.Config.MaxRecords > 0 && len(st.Firings) >= st.Config.MaxRecords {
		st.Dropped++
		return
	}
	st.Firings = append(st.Firings, record)
}

// EventSequence returns the event indices in firing order.
func (st *SimulationTrace) EventSequence() []int {
	seq := make([]int, len(st.Firings))
	for i, f := range st.Firings {
		seq[i] = f.EventIndex
	}
	return seq
}

package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalFirings    int            `json:"total_firings"`
	Dropped         int            `json:"dropped"`
	FirstFiringTime float64        `json:"first_firing_time"`
	LastFiringTime  float64        `json:"last_firing_time"`
	MeanInterFiring float64        `json:"mean_inter_firing"` // mean time between consecutive firings; 0 with < 2 firings
	FiringsByEvent  map[string]int `json:"firings_by_event"`  // event name → count of firings
	NetDeltas       map[int]int    `json:"net_deltas"`        // place → summed delta over all recorded firings
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		FiringsByEvent: make(map[string]int),
		NetDeltas:      make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalFirings = len(st.Firings)
	summary.Dropped = st.Dropped
	if len(st.Firings) == 0 {
		return summary
	}

	summary.FirstFiringTime = st.Firings[0].Time
	summary.LastFiringTime = st.Firings[len(st.Firings)-1].Time
	for _, f := range st.Firings {
		summary.FiringsByEvent[f.EventName]++
		for _, d := range f.Deltas {
			summary.NetDeltas[d.Place] += d.Delta
		}
	}
	if len(st.Firings) > 1 {
		span := summary.LastFiringTime - summary.FirstFiringTime
		summary.MeanInterFiring = span / float64(len(st.Firings)-1)
	}

	return summary
}

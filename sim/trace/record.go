package trace

// Delta captures one token change applied by a firing.
type Delta struct {
	Place int `json:"place"`
	Delta int `json:"delta"`
}

// FiringRecord captures a single event firing.
type FiringRecord struct {
	Seq         uint64  `json:"seq"`  // 1-based firing number within the run
	Time        float64 `json:"time"` // simulated time of the firing
	EventIndex  int     `json:"event_index"`
	EventName   string  `json:"event_name"`
	Deltas      []Delta `json:"deltas"`
	Rescheduled []int   `json:"rescheduled"` // events rescheduled after this firing, ascending
}

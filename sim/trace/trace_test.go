package trace

import (
	"testing"
)

func TestSimulationTrace_RecordFiring_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for firings
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelFirings})

	// WHEN a firing record is recorded
	st.RecordFiring(FiringRecord{
		Seq:        1,
		Time:       0.5,
		EventIndex: 2,
		EventName:  "A->B",
		Deltas:     []Delta{{Place: 0, Delta: -1}, {Place: 1, Delta: 1}},
	})

	// THEN the trace contains one firing record with correct data
	if len(st.Firings) != 1 {
		t.Fatalf("expected 1 firing, got %d", len(st.Firings))
	}
	if st.Firings[0].EventName != "A->B" {
		t.Errorf("expected event name A->B, got %s", st.Firings[0].EventName)
	}
	if len(st.Firings[0].Deltas) != 2 {
		t.Errorf("expected 2 deltas, got %d", len(st.Firings[0].Deltas))
	}
}

func TestSimulationTrace_LevelNone_RecordsNothing(t *testing.T) {
	// GIVEN a trace with tracing disabled
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelNone})

	// WHEN a firing is recorded
	st.RecordFiring(FiringRecord{Seq: 1, EventIndex: 0})

	// THEN nothing is stored
	if len(st.Firings) != 0 {
		t.Errorf("expected no firings, got %d", len(st.Firings))
	}
}

func TestSimulationTrace_MaxRecords_CountsDropped(t *testing.T) {
	// GIVEN a trace capped at two records
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelFirings, MaxRecords: 2})

	// WHEN five firings are recorded
	for i := 1; i <= 5; i++ {
		st.RecordFiring(FiringRecord{Seq: uint64(i), EventIndex: i})
	}

	// THEN the first two are kept and three are counted as dropped
	if len(st.Firings) != 2 {
		t.Fatalf("expected 2 firings, got %d", len(st.Firings))
	}
	if st.Firings[1].Seq != 2 {
		t.Errorf("expected second kept record to be seq 2, got %d", st.Firings[1].Seq)
	}
	if st.Dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", st.Dropped)
	}
}

func TestSimulationTrace_EventSequence_PreservesOrder(t *testing.T) {
	// GIVEN a trace with firings of events 3, 1, 3
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelFirings})
	st.RecordFiring(FiringRecord{Seq: 1, Time: 0.1, EventIndex: 3})
	st.RecordFiring(FiringRecord{Seq: 2, Time: 0.2, EventIndex: 1})
	st.RecordFiring(FiringRecord{Seq: 3, Time: 0.3, EventIndex: 3})

	// WHEN the event sequence is extracted
	seq := st.EventSequence()

	// THEN order is preserved
	want := []int{3, 1, 3}
	if len(seq) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(seq))
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Errorf("seq[%d] = %d, want %d", i, seq[i], want[i])
		}
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"firings", true},
		{"", true}, // empty defaults to none
		{"decisions", false},
		{"foobar", false},
		{"NONE", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}

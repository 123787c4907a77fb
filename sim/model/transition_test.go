package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/spnsim/sim"
)

func TestNewTransition_MergesArcsAndNetsDeltas(t *testing.T) {
	// GIVEN A + B → 2B, with A listed twice at weight 1
	tr, err := NewTransition("auto",
		[]Arc{{Place: 1, Weight: 1}, {Place: 0, Weight: 1}},
		[]Arc{{Place: 1, Weight: 2}},
		0.5, KineticsMassAction)
	require.NoError(t, err)

	// THEN inputs are merged and ordered by place
	assert.Equal(t, []Arc{{Place: 0, Weight: 1}, {Place: 1, Weight: 1}}, tr.InputArcs)
	assert.Equal(t, []sim.Place{0, 1}, tr.EnablementInputs())
	assert.Equal(t, []sim.Place{0, 1}, tr.RateInputs())

	// AND fire yields net deltas
	assert.Equal(t, []sim.StateChange{{Place: 0, Delta: -1}, {Place: 1, Delta: 1}}, tr.Fire())
	assert.Equal(t, []sim.Place{0, 1}, tr.Outputs())
}

func TestNewTransition_CatalystHasNoDelta(t *testing.T) {
	// GIVEN S + E → P + E
	tr, err := NewTransition("cat",
		[]Arc{{Place: 0, Weight: 1}, {Place: 1, Weight: 1}},
		[]Arc{{Place: 2, Weight: 1}, {Place: 1, Weight: 1}},
		1, KineticsConstant)
	require.NoError(t, err)

	// THEN the enzyme gates enablement but is never written
	assert.Equal(t, []sim.StateChange{{Place: 0, Delta: -1}, {Place: 2, Delta: 1}}, tr.Fire())
	assert.Equal(t, []sim.Place{0, 1}, tr.EnablementInputs())
	assert.Empty(t, tr.RateInputs())
}

func TestNewTransition_Rejects(t *testing.T) {
	_, err := NewTransition("bad", []Arc{{Place: 0, Weight: 0}}, nil, 1, KineticsConstant)
	assert.Error(t, err)

	_, err = NewTransition("bad", nil, nil, 1, Kinetics("hill"))
	assert.Error(t, err)
}

func TestTransition_EnabledRequiresArcWeight(t *testing.T) {
	tr, err := NewTransition("dimerize", []Arc{{Place: 0, Weight: 2}}, []Arc{{Place: 1, Weight: 1}}, 1, "")
	require.NoError(t, err)
	assert.Equal(t, KineticsConstant, tr.Kinetics)

	assert.False(t, tr.Enabled([]sim.PlaceState{{Tokens: 1}}))
	assert.True(t, tr.Enabled([]sim.PlaceState{{Tokens: 2}}))
}

func TestTransition_SourceAlwaysEnabled(t *testing.T) {
	tr, err := NewTransition("birth", nil, []Arc{{Place: 0, Weight: 1}}, 3, KineticsMassAction)
	require.NoError(t, err)

	assert.True(t, tr.Enabled(nil))
	assert.Equal(t, 3.0, tr.HazardRate(nil))
}

func TestTransition_HazardRate(t *testing.T) {
	tests := []struct {
		name     string
		kinetics Kinetics
		weights  []int
		tokens   []int
		want     float64
	}{
		{"constant ignores counts", KineticsConstant, []int{1}, []int{50}, 0.2},
		{"unimolecular", KineticsMassAction, []int{1}, []int{50}, 0.2 * 50},
		{"bimolecular distinct", KineticsMassAction, []int{1, 1}, []int{4, 5}, 0.2 * 20},
		{"dimerization", KineticsMassAction, []int{2}, []int{10}, 0.2 * 45},
		{"trimer", KineticsMassAction, []int{3}, []int{5}, 0.2 * 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var arcs []Arc
			var inputs []sim.PlaceState
			for i, w := range tt.weights {
				arcs = append(arcs, Arc{Place: sim.Place(i), Weight: w})
				inputs = append(inputs, sim.PlaceState{Tokens: tt.tokens[i]})
			}
			tr, err := NewTransition(tt.name, arcs, nil, 0.2, tt.kinetics)
			require.NoError(t, err)

			assert.InDelta(t, tt.want, tr.HazardRate(inputs), 1e-12)
		})
	}
}

func TestBinomial(t *testing.T) {
	assert.Equal(t, 1.0, binomial(5, 0))
	assert.Equal(t, 0.0, binomial(1, 2))
	assert.InDelta(t, 252.0, binomial(10, 5), 1e-9)
}

package sim

// testTransition is the simplest useful event: enabled while its input holds
// a token, constant rate, moves one token from input to output.
type testTransition struct {
	name    string
	input   Place
	output  Place
	rate    float64
	fireLog *[]string
}

func (tr *testTransition) Name() string              { return tr.name }
func (tr *testTransition) EnablementInputs() []Place { return []Place{tr.input} }
func (tr *testTransition) RateInputs() []Place       { return nil }
func (tr *testTransition) Outputs() []Place          { return []Place{tr.input, tr.output} }

func (tr *testTransition) Enabled(inputs []PlaceState) bool {
	return inputs[0].Tokens > 0
}

func (tr *testTransition) HazardRate([]PlaceState) float64 {
	return tr.rate
}

func (tr *testTransition) Fire() []StateChange {
	if tr.fireLog != nil {
		*tr.fireLog = append(*tr.fireLog, tr.name)
	}
	return []StateChange{{Place: tr.input, Delta: -1}, {Place: tr.output, Delta: +1}}
}

// funcEvent lets a test define each capability inline.
type funcEvent struct {
	AlwaysEnabled
	name    string
	enable  []Place
	rateIn  []Place
	outputs []Place
	rate    func(inputs []PlaceState) float64
	fire    func() []StateChange
}

func (e *funcEvent) Name() string              { return e.name }
func (e *funcEvent) EnablementInputs() []Place { return e.enable }
func (e *funcEvent) RateInputs() []Place       { return e.rateIn }
func (e *funcEvent) Outputs() []Place          { return e.outputs }

func (e *funcEvent) HazardRate(inputs []PlaceState) float64 {
	if e.rate == nil {
		return 1
	}
	return e.rate(inputs)
}

func (e *funcEvent) Fire() []StateChange {
	if e.fire == nil {
		return nil
	}
	return e.fire()
}

const (
	placeA Place = iota
	placeB
	placeC
	placeD
)

// competingEvents returns A→B at 0.01 and A→C at 0.02.
func competingEvents() []Event {
	return []Event{
		&testTransition{name: "A->B", input: placeA, output: placeB, rate: 0.01},
		&testTransition{name: "A->C", input: placeA, output: placeC, rate: 0.02},
	}
}

// newCompetingSimulation builds the A→B / A→C network with A=tokens and
// schedules the initial firings.
func newCompetingSimulation(t interface {
	Helper()
	Fatalf(string, ...any)
}, seed int64, tokens int) *Simulation {
	t.Helper()
	s := NewSimulation(competingEvents(), NewSimulationKey(seed))
	if err := s.SetTokens(placeA, tokens); err != nil {
		t.Fatalf("SetTokens: %v", err)
	}
	if err := s.SetupInitialFirings(); err != nil {
		t.Fatalf("SetupInitialFirings: %v", err)
	}
	return s
}

// recordFirings attaches an observer that collects every firing.
func recordFirings(s *Simulation) *[]Firing {
	var out []Firing
	s.AddObserver(FiringObserverFunc(func(f Firing) {
		out = append(out, f)
	}))
	return &out
}

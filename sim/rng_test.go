package sim

import (
	"math"
	"math/rand/v2"
	"testing"
)

// === SimulationKey Tests ===

func TestSimulationKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewSimulationKey(tt.seed)
			if int64(key) != tt.seed {
				t.Errorf("NewSimulationKey(%d) = %d, want %d", tt.seed, key, tt.seed)
			}
		})
	}
}

// === PartitionedRNG Tests ===

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// BDD: Same key+name produces same sequence
	rng1 := NewPartitionedRNG(NewSimulationKey(42))
	rng2 := NewPartitionedRNG(NewSimulationKey(42))

	for i := 0; i < 3; i++ {
		v1 := rng1.ForSubsystem(SubsystemReplicate(0)).Float64()
		v2 := rng2.ForSubsystem(SubsystemReplicate(0)).Float64()
		if v1 != v2 {
			t.Errorf("Value %d: got %v and %v, want identical", i, v1, v2)
		}
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// BDD: Drawing from the firing stream doesn't affect a replicate stream
	rngA := NewPartitionedRNG(NewSimulationKey(42))
	for i := 0; i < 10; i++ {
		rngA.ForSubsystem(SubsystemFiring).Float64()
	}
	aFirst := rngA.ForSubsystem(SubsystemReplicate(1)).Float64()

	fresh := NewPartitionedRNG(NewSimulationKey(42))
	want := fresh.ForSubsystem(SubsystemReplicate(1)).Float64()

	if aFirst != want {
		t.Errorf("replicate_1 first value = %v, want %v (isolation broken)", aFirst, want)
	}
}

func TestPartitionedRNG_FiringUsesMasterSeed(t *testing.T) {
	// BDD: "firing" subsystem seeds PCG with the master seed directly
	seed := int64(42)
	firing := NewPartitionedRNG(NewSimulationKey(seed)).ForSubsystem(SubsystemFiring)
	direct := rand.New(rand.NewPCG(uint64(seed), pcgIncrement))

	for i := 0; i < 10; i++ {
		if got, want := firing.Float64(), direct.Float64(); got != want {
			t.Errorf("Value %d: firing RNG = %v, direct RNG = %v", i, got, want)
		}
	}
}

func TestPartitionedRNG_SourceSharesStream(t *testing.T) {
	// BDD: Source and ForSubsystem draw from one stream
	p := NewPartitionedRNG(NewSimulationKey(7))
	src := p.Source(SubsystemFiring)
	r := p.ForSubsystem(SubsystemFiring)

	first := src.Uint64()
	second := r.Uint64()

	ref := rand.NewPCG(7, pcgIncrement)
	if first != ref.Uint64() || second != ref.Uint64() {
		t.Error("Source and ForSubsystem did not advance a shared stream")
	}
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))

	if rng.ForSubsystem(SubsystemFiring) != rng.ForSubsystem(SubsystemFiring) {
		t.Error("ForSubsystem returned different instances for same name")
	}
}

func TestPartitionedRNG_Key(t *testing.T) {
	seed := int64(12345)
	rng := NewPartitionedRNG(NewSimulationKey(seed))

	if rng.Key() != SimulationKey(seed) {
		t.Errorf("Key() = %v, want %v", rng.Key(), seed)
	}
}

func TestPartitionedRNG_NegativeSeed(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(math.MinInt64))

	val := rng.ForSubsystem(SubsystemFiring).Float64()
	if val < 0 || val >= 1 {
		t.Errorf("Float64() returned %v, want [0, 1)", val)
	}
}

func TestPartitionedRNG_LazyInitialization(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))

	if len(rng.subsystems) != 0 {
		t.Errorf("New PartitionedRNG has %d subsystems, want 0", len(rng.subsystems))
	}
	rng.ForSubsystem(SubsystemReplicate(3))
	if len(rng.subsystems) != 1 {
		t.Errorf("After one ForSubsystem call: %d subsystems, want 1", len(rng.subsystems))
	}
}

func TestSubsystemReplicate_Names(t *testing.T) {
	if got := SubsystemReplicate(12); got != "replicate_12" {
		t.Errorf("SubsystemReplicate(12) = %q, want replicate_12", got)
	}
}

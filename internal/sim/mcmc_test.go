package sim

import (
	"math"
	"testing"

	"github.com/ChatImproVR/particle-life/internal/geom"
)

func TestMonteCarloParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       MonteCarloParams
		wantErr bool
	}{
		{"defaults", DefaultMonteCarloParams(), false},
		{"zero substeps", MonteCarloParams{Substeps: 0, WalkSigma: 0.01}, true},
		{"negative sigma", MonteCarloParams{Substeps: 1, WalkSigma: -0.01}, true},
		{"zero sigma allowed", MonteCarloParams{Substeps: 1, WalkSigma: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnergyDueToFarPosition(t *testing.T) {
	cfg := validTestConfig(1)
	s := stateFromPoints(cfg, []geom.Vec3{{}, {X: 0.1}}, []uint8{0, 0})

	// A position far outside every interaction range has zero energy.
	far := geom.Vec3{X: 100}
	if e := EnergyDueTo(s, cfg, 0, far); e != 0 {
		t.Errorf("energy at isolated position = %v, want 0", e)
	}

	// In range the pair potential is nonzero for the default curve.
	if e := EnergyDueTo(s, cfg, 0, s.Pos[0]); e == 0 {
		t.Error("energy of interacting pair is zero")
	}
}

// TestMonteCarloHighTemperatureAcceptsAll checks the Metropolis rule in
// its random-walk limit: with T huge every proposal passes.
func TestMonteCarloHighTemperatureAcceptsAll(t *testing.T) {
	rng := NewSeededRand(21)
	cfg := RandomConfig(rng, 2)
	s := NewUniformCube(cfg, 50, 0.5, rng)

	p := MonteCarloParams{Temperature: 1e12, WalkSigma: 1e-3, Substeps: 300}
	accepted := MonteCarloStep(s, cfg, p, rng)

	if accepted < p.Substeps*95/100 {
		t.Errorf("accepted %d of %d at T=1e12, expected nearly all", accepted, p.Substeps)
	}
}

// TestMonteCarloLowTemperatureDescends checks the greedy limit: with T
// near zero only energy-lowering moves pass, so the total pair energy
// of a symmetric system never goes up.
func TestMonteCarloLowTemperatureDescends(t *testing.T) {
	rng := NewSeededRand(23)
	cfg := validTestConfig(2) // symmetric matrix, identical entries
	s := NewUniformCube(cfg, 40, 0.2, rng)

	before := totalPairEnergy(s, cfg)
	p := MonteCarloParams{Temperature: 1e-12, WalkSigma: 5e-3, Substeps: 500}
	MonteCarloStep(s, cfg, p, rng)
	after := totalPairEnergy(s, cfg)

	if after > before+1e-9 {
		t.Errorf("total energy rose under near-zero temperature: %v -> %v", before, after)
	}
}

// totalPairEnergy sums the potential over unordered pairs by direct
// scan. Only meaningful when the behaviour matrix is symmetric.
func totalPairEnergy(s *State, cfg *SimConfig) float64 {
	radius := cfg.MaxInteractionRadius()
	total := 0.0
	for i := 0; i < s.Len(); i++ {
		for j := i + 1; j < s.Len(); j++ {
			dist := s.Pos[j].Sub(s.Pos[i]).Length()
			if dist > radius {
				continue
			}
			total += cfg.Behaviour(s.Types[i], s.Types[j]).Potential(dist)
		}
	}
	return total
}

// TestMonteCarloKeepsIndexConsistent verifies accepted moves patch the
// index in lockstep with the position array.
func TestMonteCarloKeepsIndexConsistent(t *testing.T) {
	rng := NewSeededRand(25)
	cfg := RandomConfig(rng, 2)
	s := NewUniformCube(cfg, 60, 0.5, rng)

	p := DefaultMonteCarloParams()
	for round := 0; round < 10; round++ {
		accepted := MonteCarloStep(s, cfg, p, rng)
		if accepted < 0 || accepted > p.Substeps {
			t.Fatalf("accepted %d out of %d substeps", accepted, p.Substeps)
		}
	}

	if stats := s.Index.Stats(); stats.TotalPoints != s.Len() {
		t.Fatalf("index holds %d points, population is %d", stats.TotalPoints, s.Len())
	}
	radius := cfg.MaxInteractionRadius()
	for _, i := range []uint32{0, 30, 59} {
		got := len(s.Index.Neighbors(s.Pos, i, s.Pos[i]))
		want := 0
		for j := range s.Pos {
			if uint32(j) != i && s.Pos[j].Sub(s.Pos[i]).LengthSq() <= radius*radius {
				want++
			}
		}
		if got != want {
			t.Errorf("particle %d: index found %d neighbors, scan found %d", i, got, want)
		}
	}
}

// TestMonteCarloVelocitiesUntouched: relaxation moves positions only.
func TestMonteCarloVelocitiesUntouched(t *testing.T) {
	rng := NewSeededRand(27)
	cfg := RandomConfig(rng, 2)
	s := NewUniformCube(cfg, 20, 0.5, rng)
	for i := range s.Vel {
		s.Vel[i] = geom.Vec3{X: float64(i)}
	}

	MonteCarloStep(s, cfg, DefaultMonteCarloParams(), rng)

	for i := range s.Vel {
		if s.Vel[i].X != float64(i) {
			t.Fatalf("velocity %d changed to %+v", i, s.Vel[i])
		}
	}
}

// TestPseudoNewtonianRuns smoke-tests the force-biased variant over a
// population including isolated particles (zero force shrinks sigma to
// zero, which must not NaN).
func TestPseudoNewtonianRuns(t *testing.T) {
	rng := NewSeededRand(29)
	cfg := RandomConfig(rng, 2)
	s := NewUniformCube(cfg, 30, 2, rng) // sparse: many isolated

	p := MonteCarloParams{Temperature: 0.01, WalkSigma: 1e-2, Substeps: 200, PseudoNewtonian: true}
	MonteCarloStep(s, cfg, p, rng)

	for i := range s.Pos {
		if !s.Pos[i].IsFinite() {
			t.Fatalf("particle %d not finite: %+v", i, s.Pos[i])
		}
	}
	if math.IsNaN(totalPairEnergy(s, cfg)) {
		t.Fatal("energy is NaN after pseudo-Newtonian step")
	}
}

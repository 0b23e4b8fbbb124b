package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ChatImproVR/particle-life/internal/geom"
)

// MonteCarloParams configures the Metropolis relaxation integrator.
type MonteCarloParams struct {
	// Temperature controls acceptance of uphill moves. Towards zero the
	// walk becomes greedy descent; towards infinity an unbiased random
	// walk.
	Temperature float64
	// WalkSigma is the per-axis standard deviation of the Gaussian
	// proposal displacement.
	WalkSigma float64
	// Substeps is the number of single-particle proposals per call.
	// Must be >= 1.
	Substeps int
	// PseudoNewtonian biases proposals along the local force: the walk
	// width shrinks with weak forces and the candidate drifts toward
	// lower potential.
	PseudoNewtonian bool
}

// DefaultMonteCarloParams returns stock relaxation settings.
func DefaultMonteCarloParams() MonteCarloParams {
	return MonteCarloParams{
		Temperature: 0.01,
		WalkSigma:   1e-2,
		Substeps:    100,
	}
}

// Validate rejects parameter sets that would silently do nothing.
func (p MonteCarloParams) Validate() error {
	if p.Substeps < 1 {
		return fmt.Errorf("substeps must be >= 1, got %d", p.Substeps)
	}
	if p.WalkSigma < 0 {
		return fmt.Errorf("walk_sigma must be >= 0, got %v", p.WalkSigma)
	}
	return nil
}

// EnergyDueTo sums the pairwise potential that particle idx would have
// standing at pos, against its neighbors' live positions. The query
// runs against the unmoved index; idx itself is excluded by the query.
func EnergyDueTo(s *State, cfg *SimConfig, idx uint32, pos geom.Vec3) float64 {
	energy := 0.0
	for _, j := range s.Index.Neighbors(s.Pos, idx, pos) {
		dist := s.Pos[j].Sub(pos).Length()
		behav := cfg.Behaviour(s.Types[idx], s.Types[j])
		energy += behav.Potential(dist)
	}
	return energy
}

// MonteCarloStep runs p.Substeps single-particle Metropolis proposals
// and returns how many were accepted.
//
// Each substep picks a particle uniformly, proposes a Gaussian
// displacement (optionally force-biased), and accepts with probability
// min(1, exp(-dE/T)). Accepted moves commit immediately and patch the
// index, so later substeps see them; single-particle acceptance is
// inherently sequential. Velocities are untouched: this models thermal
// relaxation, not dynamics.
func MonteCarloStep(s *State, cfg *SimConfig, p MonteCarloParams, rng *rand.Rand) int {
	n := s.Len()
	if n == 0 {
		return 0
	}
	accepted := 0

	for step := 0; step < p.Substeps; step++ {
		idx := uint32(rng.IntN(n))
		original := s.Pos[idx]

		sigma := p.WalkSigma
		candidate := original
		if p.PseudoNewtonian {
			force := TotalForce(idx, s, cfg)
			sigma = math.Min(p.WalkSigma, p.WalkSigma*force.Length())
			candidate = candidate.Add(force.Scale(p.WalkSigma))
		}
		if sigma > 0 {
			normal := distuv.Normal{Mu: 0, Sigma: sigma, Src: rng}
			candidate = candidate.Add(geom.Vec3{
				X: normal.Rand(),
				Y: normal.Rand(),
				Z: normal.Rand(),
			})
		}

		deltaE := EnergyDueTo(s, cfg, idx, candidate) - EnergyDueTo(s, cfg, idx, original)

		// Standard Metropolis: exp(-dE/T) may exceed 1, in which case
		// the uniform draw always loses and the move is accepted.
		if math.Exp(-deltaE/p.Temperature) > rng.Float64() {
			s.movePoint(idx, candidate)
			accepted++
		}
	}

	return accepted
}

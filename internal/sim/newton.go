package sim

import "github.com/ChatImproVR/particle-life/internal/geom"

// NewtonParams configures the fixed-step integrator.
type NewtonParams struct {
	// Dt is the global time step. Accuracy is governed solely by Dt;
	// there is no sub-stepping.
	Dt float64
	// Damping scales velocity by (1 - Damping) each step. In [0, 1).
	Damping float64
}

// DefaultNewtonParams returns the stock step size and damping.
func DefaultNewtonParams() NewtonParams {
	return NewtonParams{Dt: 2e-3, Damping: 0.1}
}

// TotalForce sums the pairwise force on particle i from every neighbor
// within the interaction radius. Unit mass is assumed, so the result is
// also the acceleration.
//
// Coincident particles (zero separation) contribute nothing: the
// direction of the force is undefined there and Normalized() maps the
// zero vector to zero rather than NaN.
//
// Forces are a one-sided neighbor sum and the behaviour matrix may be
// asymmetric, so action does not equal reaction and momentum is not
// conserved in general. That is an accepted property of the model, not
// a bug.
func TotalForce(i uint32, s *State, cfg *SimConfig) geom.Vec3 {
	var f geom.Vec3
	a := s.Pos[i]

	for _, j := range s.Index.Neighbors(s.Pos, i, a) {
		diff := s.Pos[j].Sub(a)
		dist := diff.Length()
		behav := cfg.Behaviour(s.Types[i], s.Types[j])
		f = f.Add(diff.Normalized().Scale(behav.Force(dist)))
	}

	return f
}

// NewtonStep advances every particle by one explicit Euler step.
//
// All forces are evaluated against the pre-step position snapshot
// before any particle moves, so iteration order cannot leak half-updated
// state into another particle's force sum. Positions and the index are
// then patched in a second pass.
func NewtonStep(s *State, cfg *SimConfig, p NewtonParams) {
	n := s.Len()

	accels := make([]geom.Vec3, n)
	for i := 0; i < n; i++ {
		accels[i] = TotalForce(uint32(i), s, cfg)
	}

	for i := 0; i < n; i++ {
		vel := s.Vel[i].Add(accels[i].Scale(p.Dt)).Scale(1 - p.Damping)
		s.Vel[i] = vel
		s.movePoint(uint32(i), s.Pos[i].Add(vel.Scale(p.Dt)))
	}
}

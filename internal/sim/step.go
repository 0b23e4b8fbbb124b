package sim

import (
	"fmt"
	"math/rand/v2"
)

// Integrator selects which scheme Step runs. A closed set dispatched
// with a switch: no interface indirection in the hot loop.
type Integrator int

const (
	// IntegratorNewton is the fixed-step explicit scheme.
	IntegratorNewton Integrator = iota
	// IntegratorScheduled is the event-driven individual-timestep scheme.
	IntegratorScheduled
	// IntegratorMonteCarlo is plain Metropolis relaxation.
	IntegratorMonteCarlo
	// IntegratorPseudoNewton is Metropolis with force-biased proposals.
	IntegratorPseudoNewton
)

var integratorNames = map[Integrator]string{
	IntegratorNewton:       "newton",
	IntegratorScheduled:    "scheduled",
	IntegratorMonteCarlo:   "montecarlo",
	IntegratorPseudoNewton: "pseudonewton",
}

// String returns the wire name used by the API and config.
func (in Integrator) String() string {
	if name, ok := integratorNames[in]; ok {
		return name
	}
	return fmt.Sprintf("integrator(%d)", int(in))
}

// ParseIntegrator maps a wire name back to its Integrator.
func ParseIntegrator(name string) (Integrator, error) {
	for in, n := range integratorNames {
		if n == name {
			return in, nil
		}
	}
	return 0, fmt.Errorf("unknown integrator %q", name)
}

// StepParams carries the per-integrator tuning. Only the block matching
// the chosen integrator is read.
type StepParams struct {
	Newton     NewtonParams
	Schedule   ScheduleParams
	MonteCarlo MonteCarloParams
}

// DefaultStepParams returns stock settings for all three schemes.
func DefaultStepParams() StepParams {
	return StepParams{
		Newton:     DefaultNewtonParams(),
		Schedule:   DefaultScheduleParams(),
		MonteCarlo: DefaultMonteCarloParams(),
	}
}

// Validate checks every block, so a config is known good before any
// integrator is selected at runtime.
func (p StepParams) Validate() error {
	if err := p.Schedule.Validate(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if err := p.MonteCarlo.Validate(); err != nil {
		return fmt.Errorf("montecarlo: %w", err)
	}
	return nil
}

// StepStats reports what one Step call did. Proposed and Accepted are
// zero for the non-stochastic integrators.
type StepStats struct {
	Proposed int
	Accepted int
}

// Step advances the population by one frame under the chosen
// integrator, mutating s in place. The RNG is only consumed by the
// Monte-Carlo schemes.
func Step(s *State, cfg *SimConfig, choice Integrator, p StepParams, rng *rand.Rand) (StepStats, error) {
	var st StepStats
	switch choice {
	case IntegratorNewton:
		NewtonStep(s, cfg, p.Newton)
	case IntegratorScheduled:
		ScheduledStep(s, cfg, p.Schedule)
	case IntegratorMonteCarlo:
		st.Proposed = p.MonteCarlo.Substeps
		st.Accepted = MonteCarloStep(s, cfg, p.MonteCarlo, rng)
	case IntegratorPseudoNewton:
		mc := p.MonteCarlo
		mc.PseudoNewtonian = true
		st.Proposed = mc.Substeps
		st.Accepted = MonteCarloStep(s, cfg, mc, rng)
	default:
		return st, fmt.Errorf("unknown integrator %d", choice)
	}
	return st, nil
}

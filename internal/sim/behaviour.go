// Package sim implements the particle life core: the per-type-pair
// behaviour model, the particle population with its owned spatial index,
// and three interchangeable integrators (fixed-step Newtonian,
// event-driven individual-timestep, and Metropolis Monte-Carlo).
package sim

import "fmt"

// Behaviour holds the force-curve coefficients for one ordered type
// pair (A acting on B). The matrix need not be symmetric.
type Behaviour struct {
	// DefaultRepulse is the magnitude of the close-range repulsion.
	DefaultRepulse float64
	// InterThreshold is the distance where repulsion ends and the
	// interaction zone begins.
	InterThreshold float64
	// InterStrength is the peak force in the interaction zone.
	// Negative values turn the attraction band into repulsion.
	InterStrength float64
	// InterMaxDist is the distance beyond which the pair does not
	// interact at all. Must be strictly greater than InterThreshold.
	InterMaxDist float64
}

// DefaultBehaviour returns the stock coefficient set.
func DefaultBehaviour() Behaviour {
	return Behaviour{
		DefaultRepulse: 10,
		InterThreshold: 0.05,
		InterStrength:  1,
		InterMaxDist:   0.2,
	}
}

// Validate rejects coefficient sets that would produce NaN forces.
// A zero-width interaction zone (threshold == max dist) divides by zero
// in both Force and Potential, so it is a configuration error.
func (b Behaviour) Validate() error {
	if b.InterThreshold < 0 {
		return fmt.Errorf("inter_threshold must be >= 0, got %v", b.InterThreshold)
	}
	if b.InterMaxDist <= b.InterThreshold {
		return fmt.Errorf("inter_max_dist (%v) must be > inter_threshold (%v)", b.InterMaxDist, b.InterThreshold)
	}
	return nil
}

// Force returns the scalar force at separation dist. Negative is
// repulsion, positive attraction.
//
// Piecewise: a linear ramp from -DefaultRepulse at dist 0 up to zero at
// the threshold, a tent peaking at +InterStrength halfway through the
// interaction zone, and zero beyond InterMaxDist. Continuous at both
// breakpoints.
func (b Behaviour) Force(dist float64) float64 {
	switch {
	case dist < b.InterThreshold:
		f := dist / b.InterThreshold
		return (1 - f) * -b.DefaultRepulse
	case dist > b.InterMaxDist:
		return 0
	default:
		x := (dist - b.InterThreshold) / (b.InterMaxDist - b.InterThreshold)
		x = x*2 - 1
		if x < 0 {
			x = -x
		}
		return (1 - x) * b.InterStrength
	}
}

// Potential returns the interaction energy at separation dist, with
// the constant chosen so the potential falls to zero at InterMaxDist
// and beyond. Lower is more stable.
//
// Force's sign convention is "positive = toward the neighbor", so the
// gradient relation is Potential'(d) == +Force(d): attraction makes the
// energy fall as the pair closes, repulsion piles energy up at contact.
func (b Behaviour) Potential(dist float64) float64 {
	d := (b.InterMaxDist - b.InterThreshold) / 2

	repulseR := clamp(dist, 0, b.InterThreshold)
	zToPeakR := clamp(dist-b.InterThreshold, 0, d)
	peakEndR := clamp(dist-b.InterThreshold-d, 0, d)

	var u float64
	if b.InterThreshold > 0 {
		u = b.DefaultRepulse * (repulseR*repulseR/2/b.InterThreshold - repulseR)
	}
	u += (b.InterStrength / d) * (zToPeakR * zToPeakR / 2)
	u -= (b.InterStrength / d) * ((peakEndR - d) * (peakEndR - d) / 2)

	// Shift so the potential vanishes past the interaction range.
	u -= (b.InterStrength*d - b.InterThreshold*b.DefaultRepulse) / 2

	return u
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

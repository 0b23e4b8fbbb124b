package sim

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// RGB is a display color for one particle type, components in [0,1].
// Colors are visualization-only; the physics never reads them.
type RGB [3]float64

// SimConfig pairs the per-type display colors with the behaviour
// matrix. Behaviours is row-major: the coefficients for type a acting
// on type b live at index a*TypeCount()+b.
type SimConfig struct {
	Colors     []RGB
	Behaviours []Behaviour
}

// TypeCount returns the number of particle types.
func (c *SimConfig) TypeCount() int {
	return len(c.Colors)
}

// Behaviour returns the coefficients governing how a neighbor of type b
// acts on a particle of type a.
func (c *SimConfig) Behaviour(a, b uint8) Behaviour {
	return c.Behaviours[int(a)*len(c.Colors)+int(b)]
}

// MaxInteractionRadius is the largest InterMaxDist in the matrix. It
// sets the spatial index cell width; the index must be rebuilt whenever
// a config edit changes it.
func (c *SimConfig) MaxInteractionRadius() float64 {
	max := 0.0
	for _, b := range c.Behaviours {
		if b.InterMaxDist > max {
			max = b.InterMaxDist
		}
	}
	return max
}

// Validate checks the matrix shape and every coefficient set.
func (c *SimConfig) Validate() error {
	n := len(c.Colors)
	if n == 0 {
		return fmt.Errorf("config needs at least one particle type")
	}
	if n > 256 {
		return fmt.Errorf("at most 256 particle types (type is a uint8), got %d", n)
	}
	if len(c.Behaviours) != n*n {
		return fmt.Errorf("behaviour matrix must have %d entries for %d types, got %d", n*n, n, len(c.Behaviours))
	}
	for i, b := range c.Behaviours {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("behaviour[%d,%d]: %w", i/n, i%n, err)
		}
	}
	return nil
}

// RandomConfig builds a config with hue-spread colors and default
// behaviours whose interaction strengths are drawn uniformly from
// [-15, 15). The RNG is caller-owned so populations are reproducible
// from a seed.
func RandomConfig(rng *rand.Rand, types int) *SimConfig {
	colors := make([]RGB, types)
	for i := range colors {
		colors[i] = HSVToRGB(rng.Float64()*360, 1, 1)
	}

	behaviours := make([]Behaviour, types*types)
	for i := range behaviours {
		b := DefaultBehaviour()
		b.InterStrength = rng.Float64()*30 - 15
		behaviours[i] = b
	}

	return &SimConfig{Colors: colors, Behaviours: behaviours}
}

// HSVToRGB converts hue (degrees), saturation and value to RGB in [0,1].
func HSVToRGB(h, s, v float64) RGB {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return RGB{r + m, g + m, b + m}
}

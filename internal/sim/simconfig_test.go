package sim

import (
	"math"
	"testing"
)

func validTestConfig(types int) *SimConfig {
	colors := make([]RGB, types)
	behaviours := make([]Behaviour, types*types)
	for i := range behaviours {
		behaviours[i] = DefaultBehaviour()
	}
	return &SimConfig{Colors: colors, Behaviours: behaviours}
}

func TestSimConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SimConfig)
		wantErr bool
	}{
		{"valid", func(c *SimConfig) {}, false},
		{"no types", func(c *SimConfig) { c.Colors = nil }, true},
		{"matrix too small", func(c *SimConfig) { c.Behaviours = c.Behaviours[:3] }, true},
		{"bad entry", func(c *SimConfig) { c.Behaviours[5].InterMaxDist = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig(3)
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBehaviourLookupIsRowMajor(t *testing.T) {
	cfg := validTestConfig(3)
	cfg.Behaviours[1*3+2].InterStrength = 42

	if got := cfg.Behaviour(1, 2).InterStrength; got != 42 {
		t.Errorf("Behaviour(1,2).InterStrength = %v, want 42", got)
	}
	if got := cfg.Behaviour(2, 1).InterStrength; got == 42 {
		t.Error("Behaviour(2,1) returned the (1,2) entry; matrix must be ordered")
	}
}

func TestMaxInteractionRadius(t *testing.T) {
	cfg := validTestConfig(2)
	cfg.Behaviours[3].InterMaxDist = 0.9

	if got := cfg.MaxInteractionRadius(); got != 0.9 {
		t.Errorf("MaxInteractionRadius() = %v, want 0.9", got)
	}
}

// TestRandomConfigReproducible checks that the same seed draws the same
// matrix, and a different seed does not.
func TestRandomConfigReproducible(t *testing.T) {
	a := RandomConfig(NewSeededRand(7), 4)
	b := RandomConfig(NewSeededRand(7), 4)
	c := RandomConfig(NewSeededRand(8), 4)

	if err := a.Validate(); err != nil {
		t.Fatalf("random config invalid: %v", err)
	}

	same := true
	diff := false
	for i := range a.Behaviours {
		if a.Behaviours[i] != b.Behaviours[i] {
			same = false
		}
		if a.Behaviours[i] != c.Behaviours[i] {
			diff = true
		}
	}
	if !same {
		t.Error("same seed produced different matrices")
	}
	if !diff {
		t.Error("different seeds produced identical matrices")
	}

	for i, bh := range a.Behaviours {
		if bh.InterStrength < -15 || bh.InterStrength >= 15 {
			t.Errorf("behaviour[%d].InterStrength = %v, want [-15, 15)", i, bh.InterStrength)
		}
	}
}

func TestHSVToRGB(t *testing.T) {
	tests := []struct {
		name string
		h    float64
		want RGB
	}{
		{"red", 0, RGB{1, 0, 0}},
		{"green", 120, RGB{0, 1, 0}},
		{"blue", 240, RGB{0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HSVToRGB(tt.h, 1, 1)
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("HSVToRGB(%v,1,1) = %v, want %v", tt.h, got, tt.want)
					break
				}
			}
		})
	}
}

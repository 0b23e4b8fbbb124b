package config

import (
	"testing"

	"github.com/ChatImproVR/particle-life/internal/sim"
)

func TestDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Simulation.Particles != 5000 {
		t.Errorf("default particles = %d, want 5000", cfg.Simulation.Particles)
	}
	if cfg.Simulation.TickRate != 60 {
		t.Errorf("default tick rate = %d, want 60", cfg.Simulation.TickRate)
	}
	if cfg.Simulation.Integrator != sim.IntegratorNewton {
		t.Errorf("default integrator = %v, want newton", cfg.Simulation.Integrator)
	}
	if cfg.Video.Width != 1280 || cfg.Video.Height != 720 {
		t.Errorf("default frame = %dx%d, want 1280x720", cfg.Video.Width, cfg.Video.Height)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("default port = %d, want 3000", cfg.Server.Port)
	}
	if err := cfg.Simulation.Params.Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SIM_PARTICLES", "1234")
	t.Setenv("SIM_TYPES", "7")
	t.Setenv("SIM_INTEGRATOR", "scheduled")
	t.Setenv("SIM_DT", "0.004")
	t.Setenv("SIM_DAMPING", "0.25")
	t.Setenv("SIM_SUBSTEPS", "50")
	t.Setenv("RENDER_WIDTH", "640")
	t.Setenv("RENDER_GRID", "true")
	t.Setenv("PORT", "8080")

	cfg := Load()

	if cfg.Simulation.Particles != 1234 {
		t.Errorf("particles = %d, want 1234", cfg.Simulation.Particles)
	}
	if cfg.Simulation.Types != 7 {
		t.Errorf("types = %d, want 7", cfg.Simulation.Types)
	}
	if cfg.Simulation.Integrator != sim.IntegratorScheduled {
		t.Errorf("integrator = %v, want scheduled", cfg.Simulation.Integrator)
	}
	if cfg.Simulation.Params.Newton.Dt != 0.004 {
		t.Errorf("newton dt = %v, want 0.004", cfg.Simulation.Params.Newton.Dt)
	}
	if cfg.Simulation.Params.Schedule.FrameDt != 0.004 {
		t.Errorf("frame dt = %v, want 0.004", cfg.Simulation.Params.Schedule.FrameDt)
	}
	if cfg.Simulation.Params.Newton.Damping != 0.25 {
		t.Errorf("damping = %v, want 0.25", cfg.Simulation.Params.Newton.Damping)
	}
	if cfg.Simulation.Params.MonteCarlo.Substeps != 50 {
		t.Errorf("substeps = %d, want 50", cfg.Simulation.Params.MonteCarlo.Substeps)
	}
	if cfg.Video.Width != 640 {
		t.Errorf("render width = %d, want 640", cfg.Video.Width)
	}
	if !cfg.Video.DrawGrid {
		t.Error("RENDER_GRID=true not applied")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if got := cfg.Server.Addr(); got != ":8080" {
		t.Errorf("Addr() = %q, want :8080", got)
	}
}

func TestBadEnvValuesIgnored(t *testing.T) {
	t.Setenv("SIM_PARTICLES", "not-a-number")
	t.Setenv("SIM_INTEGRATOR", "rk4")
	t.Setenv("PORT", "-1")

	cfg := Load()

	if cfg.Simulation.Particles != 5000 {
		t.Errorf("garbage SIM_PARTICLES changed particles to %d", cfg.Simulation.Particles)
	}
	if cfg.Simulation.Integrator != sim.IntegratorNewton {
		t.Errorf("unknown integrator name changed scheme to %v", cfg.Simulation.Integrator)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("negative PORT changed port to %d", cfg.Server.Port)
	}
}

// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for simulation and host settings.
//
// Defaults live here; environment variables override them at load time.
// Behaviour-matrix validation happens in sim; everything loaded through
// this package is checked before the engine is built.
package config

import (
	"os"
	"strconv"

	"github.com/ChatImproVR/particle-life/internal/sim"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimulationConfig holds population and integrator settings.
type SimulationConfig struct {
	Particles   int     // Population size
	Types       int     // Number of particle types
	SpawnRadius float64 // Half-width of the spawn cube
	Seed        uint64  // RNG seed (0 = derive from time in main)
	TickRate    int     // Simulation frames per second

	Integrator sim.Integrator // Initially selected scheme
	Params     sim.StepParams // Tuning for all three schemes
}

// DefaultSimulation returns the default simulation configuration.
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		Particles:   5000,
		Types:       4,
		SpawnRadius: 1,
		TickRate:    60,
		Integrator:  sim.IntegratorNewton,
		Params:      sim.DefaultStepParams(),
	}
}

// SimulationFromEnv returns simulation configuration with environment
// variable overrides.
func SimulationFromEnv() SimulationConfig {
	cfg := DefaultSimulation()

	if n := getEnvInt("SIM_PARTICLES", 0); n > 0 {
		cfg.Particles = n
	}
	if t := getEnvInt("SIM_TYPES", 0); t > 0 {
		cfg.Types = t
	}
	if r := getEnvFloat("SIM_SPAWN_RADIUS", 0); r > 0 {
		cfg.SpawnRadius = r
	}
	if s := getEnvInt("SIM_SEED", 0); s > 0 {
		cfg.Seed = uint64(s)
	}
	if tr := getEnvInt("SIM_TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if name := os.Getenv("SIM_INTEGRATOR"); name != "" {
		if in, err := sim.ParseIntegrator(name); err == nil {
			cfg.Integrator = in
		}
	}

	if dt := getEnvFloat("SIM_DT", 0); dt > 0 {
		cfg.Params.Newton.Dt = dt
		cfg.Params.Schedule.FrameDt = dt
	}
	if d := getEnvFloat("SIM_DAMPING", -1); d >= 0 && d < 1 {
		cfg.Params.Newton.Damping = d
		cfg.Params.Schedule.Damping = d
	}
	if ms := getEnvInt("SIM_MAX_STEPS", 0); ms > 0 {
		cfg.Params.Schedule.MaxSteps = ms
	}
	if t := getEnvFloat("SIM_TEMPERATURE", 0); t > 0 {
		cfg.Params.MonteCarlo.Temperature = t
	}
	if w := getEnvFloat("SIM_WALK_SIGMA", 0); w > 0 {
		cfg.Params.MonteCarlo.WalkSigma = w
	}
	if ss := getEnvInt("SIM_SUBSTEPS", 0); ss > 0 {
		cfg.Params.MonteCarlo.Substeps = ss
	}

	return cfg
}

// =============================================================================
// VIDEO / RENDER CONFIGURATION
// =============================================================================

// VideoConfig holds frame renderer settings.
type VideoConfig struct {
	Width    int  // Frame width in pixels
	Height   int  // Frame height in pixels
	DrawGrid bool // Draw the spatial index wireframe
}

// DefaultVideo returns the default render configuration.
func DefaultVideo() VideoConfig {
	return VideoConfig{
		Width:  1280,
		Height: 720,
	}
}

// VideoFromEnv returns video configuration with environment variable
// overrides.
func VideoFromEnv() VideoConfig {
	cfg := DefaultVideo()

	if w := getEnvInt("RENDER_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("RENDER_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if os.Getenv("RENDER_GRID") == "true" {
		cfg.DrawGrid = true
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{Port: 3000}
}

// Addr returns the listen address for the configured port.
func (c ServerConfig) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// ServerFromEnv returns server configuration with environment variable
// overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()
	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Simulation SimulationConfig
	Video      VideoConfig
	Server     ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Simulation: SimulationFromEnv(),
		Video:      VideoFromEnv(),
		Server:     ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

package sim

import (
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"
)

// EngineConfig bundles everything needed to build an Engine.
type EngineConfig struct {
	// TickRate is how many frames the background loop advances per
	// second when started.
	TickRate int
	// Particles is the population size.
	Particles int
	// SpawnRadius is the half-width of the spawn cube.
	SpawnRadius float64
	// Seed makes spawning and the Monte-Carlo schemes reproducible.
	Seed uint64
	// Sim is the behaviour matrix and palette. Must be valid.
	Sim *SimConfig
	// Params is the per-integrator tuning. Must be valid.
	Params StepParams
	// Integrator is the initially selected scheme.
	Integrator Integrator
}

// Engine owns the simulation for the host process: the population, the
// behaviour config, the RNG, and the tick loop. All access goes through
// the engine's lock; the spatial index is never touched concurrently
// with a step.
type Engine struct {
	mu    sync.Mutex
	state *State
	cfg   *SimConfig

	integrator Integrator
	params     StepParams
	paused     bool

	// Seedable, explicitly owned RNG. Never a package-level generator.
	rng  *rand.Rand
	seed uint64

	spawnRadius float64
	tickRate    int
	tickCount   uint64

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	// snapshots is set in NewEngine and never reassigned; Snapshot()
	// relies on that to read it without taking mu.
	snapshots *SnapshotPool

	// OnTick, if set, observes every completed step. Used by the API
	// layer for metrics. Called outside the engine lock with the
	// freshly published snapshot.
	OnTick func(d time.Duration, stats StepStats, snap *Snapshot)
}

// NewEngine validates cfg, spawns the population and builds the index.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Particles < 1 {
		return nil, fmt.Errorf("particle count must be >= 1, got %d", cfg.Particles)
	}
	if cfg.Sim == nil {
		return nil, fmt.Errorf("sim config is required")
	}
	if err := cfg.Sim.Validate(); err != nil {
		return nil, fmt.Errorf("sim config: %w", err)
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("step params: %w", err)
	}

	rng := NewSeededRand(cfg.Seed)

	e := &Engine{
		state:       NewUniformCube(cfg.Sim, cfg.Particles, cfg.SpawnRadius, rng),
		cfg:         cfg.Sim,
		integrator:  cfg.Integrator,
		params:      cfg.Params,
		rng:         rng,
		seed:        cfg.Seed,
		spawnRadius: cfg.SpawnRadius,
		tickRate:    cfg.TickRate,
		stopChan:    make(chan struct{}),
		snapshots:   NewSnapshotPool(cfg.Particles),
	}
	e.publishSnapshot(StepStats{}, 0)
	return e, nil
}

// Start begins the background tick loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))

	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.Tick()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("engine started: %d particles, %d TPS, integrator=%s", e.state.Len(), e.tickRate, e.integrator)
}

// Stop halts the tick loop. Safe to call twice.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("engine stopped")
}

// Tick advances the simulation by one frame unless paused, then
// publishes a snapshot. Exposed so tests and single-step drivers can
// advance without the background loop.
func (e *Engine) Tick() {
	start := time.Now()

	e.mu.Lock()
	var stats StepStats
	if !e.paused {
		var err error
		stats, err = Step(e.state, e.cfg, e.integrator, e.params, e.rng)
		if err != nil {
			// Only reachable through a corrupted integrator value.
			log.Printf("step failed: %v", err)
		}
		e.tickCount++
	}
	tick := e.tickCount
	e.publishSnapshot(stats, tick)
	onTick := e.OnTick
	e.mu.Unlock()

	if onTick != nil {
		onTick(time.Since(start), stats, e.snapshots.AcquireRead())
	}
}

// publishSnapshot fills and publishes the next pool slot. Caller holds
// the lock (or is the constructor).
func (e *Engine) publishSnapshot(stats StepStats, tick uint64) {
	snap := e.snapshots.AcquireWrite()
	snap.fill(e.state, e.cfg, tick, e.integrator)
	e.snapshots.PublishWrite()
}

// Snapshot returns the latest published snapshot. Lock-free; safe from
// any goroutine.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshots.AcquireRead()
}

// SetPaused pauses or resumes stepping. A paused engine keeps
// publishing snapshots so viewers stay live.
func (e *Engine) SetPaused(paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = paused
}

// Paused reports whether stepping is suspended.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// SetIntegrator switches the stepping scheme for subsequent ticks.
func (e *Engine) SetIntegrator(in Integrator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.integrator = in
}

// Integrator returns the currently selected scheme.
func (e *Engine) Integrator() Integrator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.integrator
}

// SetParams swaps the integrator tuning after validating it.
func (e *Engine) SetParams(p StepParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = p
	return nil
}

// Params returns a copy of the current integrator tuning.
func (e *Engine) Params() StepParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// UpdateSimConfig replaces the behaviour matrix and palette. The
// spatial index is rebuilt whenever the max interaction radius moved,
// since the cell width would no longer match.
func (e *Engine) UpdateSimConfig(cfg *SimConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	oldRadius := e.cfg.MaxInteractionRadius()
	e.cfg = cfg
	if cfg.MaxInteractionRadius() != oldRadius {
		e.state.RebuildIndex(cfg)
	}
	e.publishSnapshot(StepStats{}, e.tickCount)
	return nil
}

// SimConfig returns the live behaviour config. Callers must treat it as
// read-only; edits go through UpdateSimConfig.
func (e *Engine) SimConfig() *SimConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Reset respawns the population. A count of 0 keeps the current size.
func (e *Engine) Reset(count int, spawnRadius float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if count == 0 {
		count = e.state.Len()
	}
	if count < 1 {
		return fmt.Errorf("particle count must be >= 1, got %d", count)
	}
	if spawnRadius <= 0 {
		spawnRadius = e.spawnRadius
	}

	// The pool is allocated once for the engine's lifetime: Snapshot()
	// reads it without the lock, so the pointer must never change.
	// fill() appends, so the buffers grow to a larger population.
	e.state = NewUniformCube(e.cfg, count, spawnRadius, e.rng)
	e.spawnRadius = spawnRadius
	e.tickCount = 0
	e.publishSnapshot(StepStats{}, 0)
	return nil
}

// RandomizeRules replaces the behaviour matrix with a random one drawn
// from the engine's RNG and rebuilds the index if the radius changed.
func (e *Engine) RandomizeRules() {
	e.mu.Lock()
	defer e.mu.Unlock()

	oldRadius := e.cfg.MaxInteractionRadius()
	e.cfg = RandomConfig(e.rng, e.cfg.TypeCount())
	if e.cfg.MaxInteractionRadius() != oldRadius {
		e.state.RebuildIndex(e.cfg)
	}
	e.publishSnapshot(StepStats{}, e.tickCount)
}

// State exposes the live state for in-process drivers and tests. The
// engine lock is NOT held; do not use while the tick loop runs.
func (e *Engine) State() *State {
	return e.state
}

// Seed returns the seed the engine was built with.
func (e *Engine) Seed() uint64 {
	return e.seed
}

// TickCount returns the number of completed steps since the last reset.
func (e *Engine) TickCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tickCount
}

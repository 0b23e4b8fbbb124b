package sim

import (
	"math/rand/v2"

	"github.com/ChatImproVR/particle-life/internal/geom"
	"github.com/ChatImproVR/particle-life/internal/sim/spatial"
)

// NewSeededRand returns a PCG-backed generator for the given seed.
// Every RNG in the engine comes from here so a logged seed replays a
// whole run.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// State is the particle population: parallel arrays indexed by particle
// number, plus the owned spatial index kept consistent with Pos.
//
// Particle indices are stable for the lifetime of one population.
// Integrators mutate State through free functions that patch Index on
// every position change; nothing else may move a particle.
type State struct {
	Pos   []geom.Vec3
	Vel   []geom.Vec3
	Types []uint8

	// Per-particle bookkeeping for the event-driven integrator.
	// Both are zeroed on spawn and whenever the population resets.
	LastAccel []geom.Vec3
	LastTime  []float64

	Index *spatial.Grid
}

// NewUniformCube spawns n particles uniformly inside an axis-aligned
// cube of half-width spawnRadius centered on the origin, with uniformly
// random types, zero velocity, and a freshly built index at the
// config's max interaction radius. The RNG is caller-owned.
func NewUniformCube(cfg *SimConfig, n int, spawnRadius float64, rng *rand.Rand) *State {
	pos := make([]geom.Vec3, n)
	types := make([]uint8, n)
	for i := range pos {
		pos[i] = geom.Vec3{
			X: rng.Float64()*2*spawnRadius - spawnRadius,
			Y: rng.Float64()*2*spawnRadius - spawnRadius,
			Z: rng.Float64()*2*spawnRadius - spawnRadius,
		}
		types[i] = uint8(rng.IntN(cfg.TypeCount()))
	}

	return &State{
		Pos:       pos,
		Vel:       make([]geom.Vec3, n),
		Types:     types,
		LastAccel: make([]geom.Vec3, n),
		LastTime:  make([]float64, n),
		Index:     spatial.NewGrid(pos, cfg.MaxInteractionRadius()),
	}
}

// Len returns the particle count.
func (s *State) Len() int {
	return len(s.Pos)
}

// RebuildIndex discards the spatial index and rebuilds it from scratch
// at the config's current max interaction radius. Required after any
// behaviour edit that changes the radius; steady-state stepping only
// patches the index incrementally.
func (s *State) RebuildIndex(cfg *SimConfig) {
	s.Index = spatial.NewGrid(s.Pos, cfg.MaxInteractionRadius())
}

// movePoint commits a new position for particle i and patches the index.
func (s *State) movePoint(i uint32, to geom.Vec3) {
	prev := s.Pos[i]
	s.Pos[i] = to
	s.Index.ReplacePoint(i, prev, to)
}

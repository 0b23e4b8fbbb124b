package sim

import (
	"sync/atomic"
	"time"

	"github.com/ChatImproVR/particle-life/internal/geom"
	"github.com/ChatImproVR/particle-life/internal/sim/spatial"
)

// TileSnapshot is one non-empty grid cell with its occupancy, for the
// debug wireframe.
type TileSnapshot struct {
	Cell  spatial.Cell
	Count int
}

// Snapshot is an immutable copy of everything the render and API layers
// need: positions and types for drawing points, tiles for the grid
// wireframe, and the palette to color by type. Slices are reused across
// frames by the pool; consumers must not hold one across AcquireRead
// calls.
type Snapshot struct {
	Sequence  uint64
	Timestamp time.Time
	Tick      uint64

	Positions []geom.Vec3
	Types     []uint8
	Colors    []RGB
	Tiles     []TileSnapshot

	Radius     float64
	Integrator Integrator
	GridStats  spatial.GridStats
}

// SnapshotPool triple-buffers snapshots so the tick loop (producer) and
// render/API consumers never contend on a lock.
type SnapshotPool struct {
	snapshots [3]Snapshot
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool pre-allocates three buffers sized for maxParticles.
func NewSnapshotPool(maxParticles int) *SnapshotPool {
	pool := &SnapshotPool{}
	for i := range pool.snapshots {
		pool.snapshots[i] = Snapshot{
			Positions: make([]geom.Vec3, 0, maxParticles),
			Types:     make([]uint8, 0, maxParticles),
			Colors:    make([]RGB, 0, 16),
			Tiles:     make([]TileSnapshot, 0, maxParticles),
		}
	}
	return pool
}

// AcquireWrite returns the next write slot with slices reset but
// capacity preserved. Producer only.
func (p *SnapshotPool) AcquireWrite() *Snapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	snap.Positions = snap.Positions[:0]
	snap.Types = snap.Types[:0]
	snap.Colors = snap.Colors[:0]
	snap.Tiles = snap.Tiles[:0]

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()

	return snap
}

// PublishWrite makes the just-written snapshot visible to readers.
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead returns the latest published snapshot. Consumer only.
func (p *SnapshotPool) AcquireRead() *Snapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// fill populates snap from live state. Caller holds the engine lock.
func (snap *Snapshot) fill(s *State, cfg *SimConfig, tick uint64, integrator Integrator) {
	snap.Tick = tick
	snap.Integrator = integrator
	snap.Radius = s.Index.Radius()

	snap.Positions = append(snap.Positions, s.Pos...)
	snap.Types = append(snap.Types, s.Types...)
	snap.Colors = append(snap.Colors, cfg.Colors...)

	s.Index.Tiles(func(cell spatial.Cell, members []uint32) {
		snap.Tiles = append(snap.Tiles, TileSnapshot{Cell: cell, Count: len(members)})
	})
	snap.GridStats = s.Index.Stats()
}

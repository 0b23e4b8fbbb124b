// Package spatial provides the hash-grid neighbor index used by every
// integrator's inner loop.
//
// The grid buckets particle indices (uint32, not pointers) by integer
// cell coordinate. Cell width equals the maximum interaction radius, so
// any true neighbor of a point lies in one of the 27 cells surrounding
// it; false positives are removed with an exact squared-distance check.
// This trades memory for near-O(1) queries versus an O(n) scan.
package spatial

import (
	"fmt"
	"math"

	"github.com/ChatImproVR/particle-life/internal/geom"
)

// Cell is an integer grid coordinate, one per axis.
type Cell [3]int32

// Grid maps cells to the unordered list of particle indices currently
// inside them. Unlike a bounded world grid, cells are created on demand:
// particles can wander arbitrarily far from the origin.
type Grid struct {
	cells    map[Cell][]uint32
	radius   float64
	radiusSq float64
	scratch  []uint32 // reusable buffer for query results
}

// Quantize maps a position to its cell coordinate: floor(coord/radius)
// per axis.
func Quantize(p geom.Vec3, radius float64) Cell {
	return Cell{
		int32(math.Floor(p.X / radius)),
		int32(math.Floor(p.Y / radius)),
		int32(math.Floor(p.Z / radius)),
	}
}

// NewGrid buckets every point by its cell. O(n).
// radius must be positive; it is both the cell width and the query radius.
func NewGrid(points []geom.Vec3, radius float64) *Grid {
	g := &Grid{
		cells:    make(map[Cell][]uint32, len(points)),
		radius:   radius,
		radiusSq: radius * radius,
		scratch:  make([]uint32, 0, 64),
	}
	for i, p := range points {
		cell := Quantize(p, radius)
		g.cells[cell] = append(g.cells[cell], uint32(i))
	}
	return g
}

// Neighbors returns the indices of all points within radius of
// queryPoint, excluding queryIdx itself. It scans the 3x3x3 block of
// cells around the query point and applies the exact distance check, so
// the result contains no false positives.
//
// IMPORTANT: The returned slice is reused on subsequent calls.
// Copy the results if you need to persist them. The order of results
// depends on bucket contents and must not be relied upon.
//
// queryPoint need not be points[queryIdx]: the Monte-Carlo integrator
// queries hypothetical positions against the unmoved index. Distances
// are always measured from queryPoint to the neighbor's live position.
func (g *Grid) Neighbors(points []geom.Vec3, queryIdx uint32, queryPoint geom.Vec3) []uint32 {
	g.scratch = g.scratch[:0]
	origin := Quantize(queryPoint, g.radius)

	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				cell := Cell{origin[0] + dx, origin[1] + dy, origin[2] + dz}
				for _, idx := range g.cells[cell] {
					if idx == queryIdx {
						continue
					}
					if points[idx].Sub(queryPoint).LengthSq() <= g.radiusSq {
						g.scratch = append(g.scratch, idx)
					}
				}
			}
		}
	}

	return g.scratch
}

// ReplacePoint moves idx from the cell of prev to the cell of current.
// The grid is fully consistent when it returns.
//
// It panics if idx is not in prev's cell: that means the caller's
// position array and the grid have desynchronized, and continuing would
// silently corrupt every future query.
func (g *Grid) ReplacePoint(idx uint32, prev, current geom.Vec3) {
	oldCell := Quantize(prev, g.radius)
	newCell := Quantize(current, g.radius)
	if oldCell == newCell {
		return
	}

	bucket := g.cells[oldCell]
	pos := -1
	for i, v := range bucket {
		if v == idx {
			pos = i
			break
		}
	}
	if pos < 0 {
		panic(fmt.Sprintf("spatial: index %d not found in cell %v; grid out of sync with positions", idx, oldCell))
	}

	bucket[pos] = bucket[len(bucket)-1]
	bucket = bucket[:len(bucket)-1]
	if len(bucket) == 0 {
		delete(g.cells, oldCell)
	} else {
		g.cells[oldCell] = bucket
	}

	g.cells[newCell] = append(g.cells[newCell], idx)
}

// Tiles calls fn for every non-empty cell with its member indices.
// The member slice is the grid's own storage; callers must not retain
// or mutate it. Iteration order is map order, i.e. unspecified.
func (g *Grid) Tiles(fn func(cell Cell, members []uint32)) {
	for cell, members := range g.cells {
		fn(cell, members)
	}
}

// Radius returns the configured interaction radius (cell width, not squared).
func (g *Grid) Radius() float64 {
	return g.radius
}

// Stats returns occupancy statistics for debugging/profiling.
func (g *Grid) Stats() GridStats {
	var total, deepest int
	for _, members := range g.cells {
		total += len(members)
		if len(members) > deepest {
			deepest = len(members)
		}
	}
	avg := 0.0
	if len(g.cells) > 0 {
		avg = float64(total) / float64(len(g.cells))
	}
	return GridStats{
		NonEmptyCells: len(g.cells),
		TotalPoints:   total,
		DeepestBucket: deepest,
		AvgPerCell:    avg,
	}
}

// GridStats contains grid occupancy statistics.
type GridStats struct {
	NonEmptyCells int
	TotalPoints   int
	DeepestBucket int
	AvgPerCell    float64
}

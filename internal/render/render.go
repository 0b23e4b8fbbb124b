// Package render draws simulation snapshots to 2-D frames with
// fogleman/gg: particles as filled points colored by type, and
// optionally the spatial index tiles as a wireframe colored by
// occupancy.
package render

import (
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/ChatImproVR/particle-life/internal/geom"
	"github.com/ChatImproVR/particle-life/internal/sim"
	"github.com/ChatImproVR/particle-life/internal/sim/spatial"
)

// Options configures a Renderer.
type Options struct {
	Width, Height int
	// DrawGrid overlays the spatial index wireframe.
	DrawGrid bool
	// Yaw rotates the camera around the vertical axis, in radians.
	Yaw float64
	// Pitch tilts the camera, in radians.
	Pitch float64
	// CamDist is the camera distance from the origin. Values around 4
	// frame a unit spawn cube comfortably.
	CamDist float64
	// PointRadius is the particle dot radius in pixels at depth 0.
	PointRadius float64
}

// DefaultOptions frames a unit-radius spawn cube.
func DefaultOptions(width, height int) Options {
	return Options{
		Width:       width,
		Height:      height,
		Yaw:         math.Pi / 6,
		Pitch:       math.Pi / 8,
		CamDist:     4,
		PointRadius: 2,
	}
}

// Renderer draws snapshots into an owned gg context. Not safe for
// concurrent use; give each consumer its own Renderer.
type Renderer struct {
	opts Options
	dc   *gg.Context
}

// NewRenderer allocates the drawing context up front.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{
		opts: opts,
		dc:   gg.NewContext(opts.Width, opts.Height),
	}
}

// project maps a world position to screen coordinates plus a depth
// value. Points behind the camera report ok=false.
func (r *Renderer) project(p geom.Vec3) (x, y, depth float64, ok bool) {
	cy, sy := math.Cos(r.opts.Yaw), math.Sin(r.opts.Yaw)
	cp, sp := math.Cos(r.opts.Pitch), math.Sin(r.opts.Pitch)

	// Yaw around Y, then pitch around X.
	rx := cy*p.X + sy*p.Z
	rz := -sy*p.X + cy*p.Z
	ry := cp*p.Y - sp*rz
	rz = sp*p.Y + cp*rz

	depth = rz + r.opts.CamDist
	if depth <= 1e-6 {
		return 0, 0, 0, false
	}

	focal := float64(r.opts.Height)
	x = float64(r.opts.Width)/2 + rx/depth*focal
	y = float64(r.opts.Height)/2 - ry/depth*focal
	return x, y, depth, true
}

// Frame draws snap and returns the backing image. The image is reused
// by the next Frame call; encode or copy it before rendering again.
func (r *Renderer) Frame(snap *sim.Snapshot) image.Image {
	dc := r.dc

	dc.SetColor(color.RGBA{12, 12, 28, 255})
	dc.DrawRectangle(0, 0, float64(r.opts.Width), float64(r.opts.Height))
	dc.Fill()

	if r.opts.DrawGrid {
		r.drawTiles(snap)
	}
	r.drawParticles(snap)

	return dc.Image()
}

// EncodePNG draws snap and writes it as PNG.
func (r *Renderer) EncodePNG(w io.Writer, snap *sim.Snapshot) error {
	r.Frame(snap)
	return r.dc.EncodePNG(w)
}

func (r *Renderer) drawParticles(snap *sim.Snapshot) {
	dc := r.dc

	for i, pos := range snap.Positions {
		x, y, depth, ok := r.project(pos)
		if !ok {
			continue
		}

		c := snap.Colors[snap.Types[i]]
		dc.SetRGB(c[0], c[1], c[2])
		// Perspective-scale the dot so depth reads on a flat frame.
		dc.DrawCircle(x, y, r.opts.PointRadius*r.opts.CamDist/depth)
		dc.Fill()
	}
}

// cube edges as corner-offset pairs, unit cell.
var cubeEdges = [12][2][3]float64{
	{{0, 0, 0}, {1, 0, 0}}, {{0, 0, 0}, {0, 1, 0}}, {{0, 0, 0}, {0, 0, 1}},
	{{1, 1, 0}, {0, 1, 0}}, {{1, 1, 0}, {1, 0, 0}}, {{1, 1, 0}, {1, 1, 1}},
	{{0, 1, 1}, {0, 0, 1}}, {{0, 1, 1}, {0, 1, 0}}, {{0, 1, 1}, {1, 1, 1}},
	{{1, 0, 1}, {1, 0, 0}}, {{1, 0, 1}, {0, 0, 1}}, {{1, 0, 1}, {1, 1, 1}},
}

func (r *Renderer) drawTiles(snap *sim.Snapshot) {
	dc := r.dc
	dc.SetLineWidth(1)

	deepest := 1
	for _, tile := range snap.Tiles {
		if tile.Count > deepest {
			deepest = tile.Count
		}
	}

	for _, tile := range snap.Tiles {
		corner := cellCorner(tile.Cell, snap.Radius)

		// Hotter cells draw brighter.
		heat := float64(tile.Count) / float64(deepest)
		dc.SetRGBA(0.2+0.8*heat, 0.25, 0.5-0.3*heat, 0.6)

		for _, edge := range cubeEdges {
			a := corner.Add(geom.Vec3{X: edge[0][0], Y: edge[0][1], Z: edge[0][2]}.Scale(snap.Radius))
			b := corner.Add(geom.Vec3{X: edge[1][0], Y: edge[1][1], Z: edge[1][2]}.Scale(snap.Radius))

			ax, ay, _, aok := r.project(a)
			bx, by, _, bok := r.project(b)
			if !aok || !bok {
				continue
			}
			dc.DrawLine(ax, ay, bx, by)
			dc.Stroke()
		}
	}
}

func cellCorner(cell spatial.Cell, radius float64) geom.Vec3 {
	return geom.Vec3{
		X: float64(cell[0]) * radius,
		Y: float64(cell[1]) * radius,
		Z: float64(cell[2]) * radius,
	}
}

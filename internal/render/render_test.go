package render

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/ChatImproVR/particle-life/internal/geom"
	"github.com/ChatImproVR/particle-life/internal/sim"
	"github.com/ChatImproVR/particle-life/internal/sim/spatial"
)

func testSnapshot() *sim.Snapshot {
	return &sim.Snapshot{
		Positions: []geom.Vec3{
			{},
			{X: 0.3, Y: 0.1},
			{X: -0.2, Z: 0.4},
		},
		Types:  []uint8{0, 1, 0},
		Colors: []sim.RGB{{1, 0, 0}, {0, 1, 0}},
		Tiles: []sim.TileSnapshot{
			{Cell: spatial.Cell{0, 0, 0}, Count: 2},
			{Cell: spatial.Cell{-1, 0, 1}, Count: 1},
		},
		Radius: 0.2,
	}
}

func TestFrameSize(t *testing.T) {
	r := NewRenderer(DefaultOptions(320, 240))
	img := r.Frame(testSnapshot())

	b := img.Bounds()
	if b.Dx() != 320 || b.Dy() != 240 {
		t.Fatalf("frame is %dx%d, want 320x240", b.Dx(), b.Dy())
	}
}

// TestFrameDrawsParticleAtCenter checks the origin particle lands in
// the middle of the frame in its palette color, not the background.
func TestFrameDrawsParticleAtCenter(t *testing.T) {
	opts := DefaultOptions(200, 200)
	opts.Yaw = 0
	opts.Pitch = 0
	opts.PointRadius = 4
	r := NewRenderer(opts)

	snap := &sim.Snapshot{
		Positions: []geom.Vec3{{}},
		Types:     []uint8{0},
		Colors:    []sim.RGB{{1, 0, 0}},
	}
	img := r.Frame(snap)

	cr, cg, cb, _ := img.At(100, 100).RGBA()
	if cr>>8 < 200 || cg>>8 > 50 || cb>>8 > 50 {
		t.Errorf("center pixel = %v, want red particle", color.RGBA{uint8(cr >> 8), uint8(cg >> 8), uint8(cb >> 8), 255})
	}
}

func TestFrameBehindCameraSkipped(t *testing.T) {
	opts := DefaultOptions(100, 100)
	opts.Yaw = 0
	opts.Pitch = 0
	r := NewRenderer(opts)

	// Behind the camera: CamDist 4, so z < -4 must not draw (or panic).
	snap := &sim.Snapshot{
		Positions: []geom.Vec3{{Z: -10}},
		Types:     []uint8{0},
		Colors:    []sim.RGB{{1, 1, 1}},
	}
	img := r.Frame(snap)

	cr, cg, cb, _ := img.At(50, 50).RGBA()
	if cr>>8 > 50 && cg>>8 > 50 && cb>>8 > 50 {
		t.Error("particle behind the camera was drawn")
	}
}

func TestFrameWithGridOverlay(t *testing.T) {
	opts := DefaultOptions(160, 120)
	opts.DrawGrid = true
	r := NewRenderer(opts)

	// Must not panic with tiles present or absent.
	r.Frame(testSnapshot())
	r.Frame(&sim.Snapshot{Colors: []sim.RGB{{1, 1, 1}}})
}

func TestEncodePNG(t *testing.T) {
	r := NewRenderer(DefaultOptions(64, 64))

	var buf bytes.Buffer
	if err := r.EncodePNG(&buf, testSnapshot()); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}

	magic := []byte{0x89, 'P', 'N', 'G'}
	if !bytes.HasPrefix(buf.Bytes(), magic) {
		t.Fatalf("output does not start with PNG magic: % x", buf.Bytes()[:8])
	}
}

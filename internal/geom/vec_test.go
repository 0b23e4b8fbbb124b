package geom

import (
	"math"
	"testing"
)

func TestVecArithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{-1, 0.5, 2}

	if got := a.Add(b); got != (Vec3{0, 2.5, 5}) {
		t.Errorf("Add = %+v", got)
	}
	if got := a.Sub(b); got != (Vec3{2, 1.5, 1}) {
		t.Errorf("Sub = %+v", got)
	}
	if got := a.Scale(2); got != (Vec3{2, 4, 6}) {
		t.Errorf("Scale = %+v", got)
	}
}

func TestLength(t *testing.T) {
	v := Vec3{3, 4, 0}
	if v.LengthSq() != 25 {
		t.Errorf("LengthSq = %v", v.LengthSq())
	}
	if v.Length() != 5 {
		t.Errorf("Length = %v", v.Length())
	}
}

func TestNormalized(t *testing.T) {
	v := Vec3{0, 0, 2}.Normalized()
	if v != (Vec3{0, 0, 1}) {
		t.Errorf("Normalized = %+v", v)
	}

	// The zero vector must normalize to zero, not NaN. Force sums on
	// coincident particles depend on this.
	if z := (Vec3{}).Normalized(); z != (Vec3{}) {
		t.Errorf("zero vector normalized to %+v", z)
	}
}

func TestIsFinite(t *testing.T) {
	if !(Vec3{1, 2, 3}).IsFinite() {
		t.Error("finite vector reported non-finite")
	}
	if (Vec3{math.NaN(), 0, 0}).IsFinite() {
		t.Error("NaN component reported finite")
	}
	if (Vec3{0, math.Inf(1), 0}).IsFinite() {
		t.Error("Inf component reported finite")
	}
}

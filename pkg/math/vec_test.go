package math

import (
	"math"
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{3, 4, 12}
	if got := v.Length(); got != 13 {
		t.Errorf("Vec3.Length() = %v, want 13", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 4, 5}.Normalize()
	l := n.Length()
	if l < 0.999999 || l > 1.000001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}

	if z := (Vec3{}).Normalize(); z != (Vec3{}) {
		t.Errorf("zero vector normalized to %v, want zero", z)
	}
}

func TestVec3Midpoint(t *testing.T) {
	got := Vec3{0, 2, 4}.Midpoint(Vec3{2, 4, 6})
	want := Vec3{1, 3, 5}
	if got != want {
		t.Errorf("Vec3.Midpoint() = %v, want %v", got, want)
	}
}

func TestVec3IsFinite(t *testing.T) {
	if !(Vec3{1, 2, 3}).IsFinite() {
		t.Error("finite vector reported as non-finite")
	}
	if (Vec3{math.NaN(), 0, 0}).IsFinite() {
		t.Error("NaN vector reported as finite")
	}
	if (Vec3{0, 0, math.Inf(-1)}).IsFinite() {
		t.Error("Inf vector reported as finite")
	}
}

func TestTriangleNormal(t *testing.T) {
	n := TriangleNormal(Vec3{0, 0, 0}, Vec3{1, 0, 0}, Vec3{0, 1, 0})
	if n != (Vec3{0, 0, 1}) {
		t.Errorf("TriangleNormal() = %v, want +Z", n)
	}
	// Reversed winding flips the normal
	n = TriangleNormal(Vec3{0, 0, 0}, Vec3{0, 1, 0}, Vec3{1, 0, 0})
	if n != (Vec3{0, 0, -1}) {
		t.Errorf("TriangleNormal() reversed = %v, want -Z", n)
	}
}

func TestBounds(t *testing.T) {
	b := BoundsOf([]Vec3{{1, 2, 3}, {-1, 5, 0}, {0, 0, 1}})
	if b.Min != (Vec3{-1, 0, 0}) {
		t.Errorf("Bounds.Min = %v, want (-1, 0, 0)", b.Min)
	}
	if b.Max != (Vec3{1, 5, 3}) {
		t.Errorf("Bounds.Max = %v, want (1, 5, 3)", b.Max)
	}
	if got := b.Size(); got != (Vec3{2, 5, 3}) {
		t.Errorf("Bounds.Size() = %v, want (2, 5, 3)", got)
	}
	if got := b.Center(); got != (Vec3{0, 2.5, 1.5}) {
		t.Errorf("Bounds.Center() = %v, want (0, 2.5, 1.5)", got)
	}

	empty := BoundsOf(nil)
	if !empty.IsEmpty() {
		t.Error("bounds of no points should be empty")
	}
	if empty.Diagonal() != 0 {
		t.Errorf("empty Diagonal() = %v, want 0", empty.Diagonal())
	}
}

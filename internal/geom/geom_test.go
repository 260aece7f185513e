package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-6
}

func TestPhysicalSize_UsesDensityConstant(t *testing.T) {
	got := PhysicalSize(PixelSize{Width: 1000, Height: 2000})
	if !approx(got.X(), 1000.0/3000.0) || !approx(got.Y(), 2000.0/3000.0) {
		t.Fatalf("PhysicalSize = %v, want (0.333, 0.667)", got)
	}
}

func TestPhysicalSize_ZeroIsZero(t *testing.T) {
	got := PhysicalSize(PixelSize{})
	if got.X() != 0 || got.Y() != 0 {
		t.Fatalf("PhysicalSize(0,0) = %v, want zero", got)
	}
	if !(PixelSize{Width: 10}).Empty() {
		t.Fatalf("expected 10x0 to be empty")
	}
}

func TestChildPosition_FlipsYAndAppliesDepth(t *testing.T) {
	got := ChildPosition(PixelOffset{X: 300, Y: 600}, 0.01)
	want := mgl32.Vec3{0.1, -0.2, 0.01}
	if !got.ApproxEqualThreshold(want, 1e-6) {
		t.Fatalf("ChildPosition = %v, want %v", got, want)
	}
}

func TestPanelTransform_FrontFaceAtZero(t *testing.T) {
	tr := PanelTransform(mgl32.Vec2{0.3, 0.6}, 0.01)
	want := mgl32.Vec3{0.15, -0.3, -0.005}
	if !tr.Position.ApproxEqualThreshold(want, 1e-6) {
		t.Fatalf("position = %v, want %v", tr.Position, want)
	}
	// front face is position.z + scale.z/2
	if front := tr.Position.Z() + tr.Scale.Z()/2; !approx(front, 0) {
		t.Fatalf("front face at z=%v, want 0", front)
	}
}

func TestTransformMat4_TranslatesAndScales(t *testing.T) {
	tr := FromPositionScale(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{2, 2, 2})
	p := tr.Mat4().Mul4x1(mgl32.Vec4{1, 1, 1, 1}).Vec3()
	if !p.ApproxEqualThreshold(mgl32.Vec3{3, 4, 5}, 1e-6) {
		t.Fatalf("Mat4 applied = %v", p)
	}
}

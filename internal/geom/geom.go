// Package geom holds the shared pixel and physical geometry used to place
// remote surfaces in space.
package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// PPM is the screen density in pixels per meter. Every surface uses the same
// value so child offsets reported in host pixels land consistently in space.
const PPM float32 = 3000.0

// PixelSize is the size of a drawable region in pixels.
type PixelSize struct {
	Width  uint32
	Height uint32
}

// Empty reports whether either dimension is zero.
func (s PixelSize) Empty() bool {
	return s.Width == 0 || s.Height == 0
}

// PixelOffset is a position in host pixel space relative to a parent surface.
// Y grows downward.
type PixelOffset struct {
	X int32
	Y int32
}

// Geometry describes a child surface relative to its parent.
type Geometry struct {
	Origin PixelOffset
	Size   PixelSize
}

// PixelsToMeters converts a pixel length to meters.
func PixelsToMeters(px float32) float32 {
	return px / PPM
}

// PhysicalSize returns the size in meters of a drawable of the given size.
func PhysicalSize(size PixelSize) mgl32.Vec2 {
	return mgl32.Vec2{
		PixelsToMeters(float32(size.Width)),
		PixelsToMeters(float32(size.Height)),
	}
}

// ChildPosition returns the local position of a child surface inside its
// parent's frame. Pixel Y runs down while spatial Y runs up, and the child is
// pushed out by depth so it never shares a plane with its parent.
func ChildPosition(origin PixelOffset, depth float32) mgl32.Vec3 {
	return mgl32.Vec3{
		PixelsToMeters(float32(origin.X)),
		-PixelsToMeters(float32(origin.Y)),
		depth,
	}
}

// Transform is a local position and scale relative to a parent node.
type Transform struct {
	Position mgl32.Vec3
	Scale    mgl32.Vec3
}

// Identity returns a transform with no offset and unit scale.
func Identity() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// FromPosition returns a unit-scale transform at p.
func FromPosition(p mgl32.Vec3) Transform {
	return Transform{Position: p, Scale: mgl32.Vec3{1, 1, 1}}
}

// FromPositionScale returns a transform at p scaled by s.
func FromPositionScale(p, s mgl32.Vec3) Transform {
	return Transform{Position: p, Scale: s}
}

// Mat4 returns the transform as a translation * scale matrix.
func (t Transform) Mat4() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// PanelTransform places a panel volume of the given physical size and
// thickness so its front face sits on z=0 with the top-left corner at the
// origin.
func PanelTransform(physical mgl32.Vec2, thickness float32) Transform {
	size := mgl32.Vec3{physical.X(), physical.Y(), thickness}
	return FromPositionScale(
		mgl32.Vec3{size.X() * 0.5, size.Y() * -0.5, size.Z() * -0.5},
		size,
	)
}

// PlaneCenter returns the local position of an interaction plane covering a
// panel of the given physical size.
func PlaneCenter(physical mgl32.Vec2) mgl32.Vec3 {
	return mgl32.Vec3{physical.X() / 2, -physical.Y() / 2, 0}
}

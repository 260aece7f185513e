// Package touchplane implements a flat interaction region that tracks the
// input sources hovering or touching it and maps their 3D points into the
// 2D pixel space of a remote surface.
package touchplane

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/1broseidon/sphereland/internal/geom"
	"github.com/1broseidon/sphereland/internal/input"
	"github.com/1broseidon/sphereland/internal/platform"
)

// Range is a half-open addressable interval [Start, End).
type Range struct {
	Start float32
	End   float32
}

// PixelRange returns [0, n).
func PixelRange(n uint32) Range {
	return Range{Start: 0, End: float32(n)}
}

// Len returns the length of the interval; never negative.
func (r Range) Len() float32 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether v is in [Start, End).
func (r Range) Contains(v float32) bool {
	return v >= r.Start && v < r.End
}

// lerp maps t in [0, 1] into the range, keeping t == 1 below End.
func (r Range) lerp(t float32) float32 {
	v := r.Start + t*(r.End-r.Start)
	if v >= r.End {
		return math.Nextafter32(r.End, r.Start)
	}
	return v
}

// Plane is an interaction region centred on its node's origin, spanning
// size in local X/Y with +Y up and facing +Z. Input sources are reported in
// the node's unscaled local frame.
type Plane struct {
	scene     platform.Scene
	node      platform.NodeID
	center    mgl32.Vec3
	size      mgl32.Vec2
	thickness float32
	xRange    Range
	yRange    Range
	enabled   bool

	hovering    []input.Source
	interacting []input.Source
	touching    bool
	started     bool
	stopped     bool
}

// Create builds a plane under parent, centred at center.
func Create(scene platform.Scene, parent platform.NodeID, center mgl32.Vec3, size mgl32.Vec2, thickness float32, xRange, yRange Range) (*Plane, error) {
	p := &Plane{
		scene:     scene,
		center:    center,
		size:      size,
		thickness: thickness,
		xRange:    xRange,
		yRange:    yRange,
		enabled:   true,
	}
	node, err := scene.CreateNode(parent, platform.KindField, p.fieldTransform(), "")
	if err != nil {
		return nil, fmt.Errorf("create interaction field: %w", err)
	}
	p.node = node
	return p, nil
}

func (p *Plane) fieldTransform() geom.Transform {
	return geom.FromPositionScale(p.center, mgl32.Vec3{p.size.X(), p.size.Y(), p.thickness})
}

// Node returns the handler node the host reports input against.
func (p *Plane) Node() platform.NodeID {
	return p.node
}

// Size returns the physical size in meters.
func (p *Plane) Size() mgl32.Vec2 {
	return p.size
}

// Ranges returns the addressable pixel ranges.
func (p *Plane) Ranges() (x, y Range) {
	return p.xRange, p.yRange
}

// Enabled reports whether the plane tracks input.
func (p *Plane) Enabled() bool {
	return p.enabled
}

// Resize moves the plane's centre and changes its physical size.
func (p *Plane) Resize(center mgl32.Vec3, size mgl32.Vec2) error {
	p.center = center
	p.size = size
	if err := p.scene.SetTransform(p.node, p.fieldTransform()); err != nil {
		return fmt.Errorf("resize interaction field: %w", err)
	}
	return nil
}

// SetRanges replaces the addressable pixel ranges.
func (p *Plane) SetRanges(x, y Range) {
	p.xRange = x
	p.yRange = y
}

// SetEnabled toggles input tracking and the host field. Disabling drops the
// tracked sets without reporting a touch edge.
func (p *Plane) SetEnabled(enabled bool) error {
	p.enabled = enabled
	if !enabled {
		p.reset()
	}
	return p.scene.SetEnabled(p.node, enabled)
}

// Destroy releases the host field.
func (p *Plane) Destroy() error {
	p.reset()
	return p.scene.Destroy(p.node)
}

func (p *Plane) reset() {
	p.hovering = nil
	p.interacting = nil
	p.touching = false
	p.started = false
	p.stopped = false
}

// Update replaces the tracked sets with this frame's sources and computes
// the touch edges.
func (p *Plane) Update(sources []input.Source) {
	if !p.enabled {
		p.reset()
		return
	}

	p.hovering = p.hovering[:0]
	p.interacting = p.interacting[:0]
	for _, s := range sources {
		switch {
		case s.Active:
			p.interacting = append(p.interacting, s)
		case s.Hovering:
			p.hovering = append(p.hovering, s)
		}
	}

	touching := len(p.interacting) > 0
	p.started = touching && !p.touching
	p.stopped = !touching && p.touching
	p.touching = touching
}

// Hovering returns sources hovering without contact this frame.
func (p *Plane) Hovering() []input.Source {
	return p.hovering
}

// Interacting returns sources in active contact this frame.
func (p *Plane) Interacting() []input.Source {
	return p.interacting
}

// TouchStarted reports whether contact began this frame.
func (p *Plane) TouchStarted() bool {
	return p.started
}

// TouchStopped reports whether contact ended this frame.
func (p *Plane) TouchStopped() bool {
	return p.stopped
}

// Addressable reports whether the plane has any pixel coordinates at all.
func (p *Plane) Addressable() bool {
	return p.size.X() > 0 && p.size.Y() > 0 && p.xRange.Len() > 0 && p.yRange.Len() > 0
}

// Contains reports whether the pixel coordinate lies inside the ranges.
func (p *Plane) Contains(px mgl32.Vec2) bool {
	return p.Addressable() && p.xRange.Contains(px.X()) && p.yRange.Contains(px.Y())
}

// InteractPoint projects s onto the plane and returns the pixel coordinate
// and the source's depth in front of the plane. ok is false when the plane
// has no addressable coordinates.
func (p *Plane) InteractPoint(s input.Source) (point mgl32.Vec2, depth float32, ok bool) {
	if !p.Addressable() {
		return mgl32.Vec2{}, 0, false
	}

	local := s.Origin
	depth = local.Z()
	if s.IsPointer() {
		local = intersect(local, s.Direction)
	}

	u := clamp01((local.X() + p.size.X()/2) / p.size.X())
	v := clamp01((p.size.Y()/2 - local.Y()) / p.size.Y())
	return mgl32.Vec2{p.xRange.lerp(u), p.yRange.lerp(v)}, depth, true
}

// intersect returns where a ray from origin along dir crosses z=0. Rays
// parallel to or pointing away from the plane fall back to the origin.
func intersect(origin, dir mgl32.Vec3) mgl32.Vec3 {
	if mgl32.Abs(dir.Z()) < 1e-6 {
		return origin
	}
	t := -origin.Z() / dir.Z()
	if t < 0 {
		return origin
	}
	return origin.Add(dir.Mul(t))
}

func clamp01(v float32) float32 {
	return mgl32.Clamp(v, 0, 1)
}

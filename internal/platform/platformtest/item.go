// Package platformtest provides recording fakes of the platform interfaces.
package platformtest

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/1broseidon/sphereland/internal/platform"
)

// CallKind identifies a recorded Item call.
type CallKind string

const (
	CallMaterial CallKind = "material"
	CallMotion   CallKind = "motion"
	CallScroll   CallKind = "scroll"
	CallButton   CallKind = "button"
	CallReset    CallKind = "reset"
)

// Call is one recorded Item call.
type Call struct {
	Kind       CallKind
	Surface    platform.SurfaceID
	Model      platform.NodeID
	Position   mgl32.Vec2
	Continuous *mgl32.Vec2
	Discrete   *mgl32.Vec2
	Button     uint32
	Pressed    bool
}

// Item records every call. Set Err to make event calls fail, or
// MaterialErr to make ApplySurfaceMaterial fail.
type Item struct {
	Calls       []Call
	Err         error
	MaterialErr error
}

func (i *Item) ApplySurfaceMaterial(surface platform.SurfaceID, model platform.NodeID) error {
	i.Calls = append(i.Calls, Call{Kind: CallMaterial, Surface: surface, Model: model})
	return i.MaterialErr
}

func (i *Item) PointerMotion(surface platform.SurfaceID, position mgl32.Vec2) error {
	i.Calls = append(i.Calls, Call{Kind: CallMotion, Surface: surface, Position: position})
	return i.Err
}

func (i *Item) PointerScroll(surface platform.SurfaceID, continuous, discrete *mgl32.Vec2) error {
	i.Calls = append(i.Calls, Call{Kind: CallScroll, Surface: surface, Continuous: continuous, Discrete: discrete})
	return i.Err
}

func (i *Item) PointerButton(surface platform.SurfaceID, button uint32, pressed bool) error {
	i.Calls = append(i.Calls, Call{Kind: CallButton, Surface: surface, Button: button, Pressed: pressed})
	return i.Err
}

func (i *Item) ResetTouches() error {
	i.Calls = append(i.Calls, Call{Kind: CallReset})
	return i.Err
}

// Of returns the recorded calls of kind.
func (i *Item) Of(kind CallKind) []Call {
	var out []Call
	for _, c := range i.Calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the recorded calls.
func (i *Item) Reset() {
	i.Calls = nil
}

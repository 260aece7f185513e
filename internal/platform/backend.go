// Package platform defines the host services the compositor client consumes:
// scene nodes, the drawable item that receives translated pointer events, and
// the per-frame spatial input query.
package platform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/1broseidon/sphereland/internal/geom"
	"github.com/1broseidon/sphereland/internal/input"
)

// ErrNodeNotFound is returned when a node handle does not refer to a live node.
var ErrNodeNotFound = errors.New("node not found")

// BtnLeft is the evdev code of the primary pointer button.
const BtnLeft uint32 = 0x110

// SessionID identifies one remote application's drawable as reported by the host.
type SessionID string

// NodeID is an index-based handle to a host scene node. Zero is the scene root.
type NodeID uint32

// Root is the handle of the scene root.
const Root NodeID = 0

// NodeKind classifies scene nodes.
type NodeKind uint8

const (
	KindSpatial NodeKind = iota
	KindModel
	KindField
)

func (k NodeKind) String() string {
	switch k {
	case KindSpatial:
		return "spatial"
	case KindModel:
		return "model"
	case KindField:
		return "field"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Scene abstracts the host scene graph. Destroy removes the node and its
// entire subtree.
type Scene interface {
	CreateNode(parent NodeID, kind NodeKind, t geom.Transform, resource string) (NodeID, error)
	SetTransform(id NodeID, t geom.Transform) error
	SetEnabled(id NodeID, enabled bool) error
	Destroy(id NodeID) error
}

// SurfaceID names a drawable region inside a session: the toplevel surface
// (zero value) or a child such as a popup.
type SurfaceID struct {
	Child string
}

// ToplevelSurface returns the id of a session's root surface.
func ToplevelSurface() SurfaceID {
	return SurfaceID{}
}

// ChildSurface returns the id of the child surface uid.
func ChildSurface(uid string) SurfaceID {
	return SurfaceID{Child: uid}
}

// IsToplevel reports whether id names the root surface.
func (id SurfaceID) IsToplevel() bool {
	return id.Child == ""
}

func (id SurfaceID) String() string {
	if id.IsToplevel() {
		return "toplevel"
	}
	return "child:" + id.Child
}

// ParseSurfaceID parses the String form of a SurfaceID. The empty string is
// the toplevel.
func ParseSurfaceID(s string) (SurfaceID, error) {
	switch {
	case s == "" || s == "toplevel":
		return ToplevelSurface(), nil
	case strings.HasPrefix(s, "child:") && len(s) > len("child:"):
		return ChildSurface(strings.TrimPrefix(s, "child:")), nil
	}
	return SurfaceID{}, fmt.Errorf("invalid surface id %q", s)
}

// Item is the host drawable of one session. Event calls are fire-and-forget:
// callers log a returned error and move on.
type Item interface {
	ApplySurfaceMaterial(surface SurfaceID, model NodeID) error
	PointerMotion(surface SurfaceID, position mgl32.Vec2) error
	PointerScroll(surface SurfaceID, continuous, discrete *mgl32.Vec2) error
	PointerButton(surface SurfaceID, button uint32, pressed bool) error
	ResetTouches() error
}

// InputQuery returns the spatial input sources the host reports for an
// interaction handler node in the current frame.
type InputQuery interface {
	Inputs(handler NodeID) []input.Source
}

// InputMap is an InputQuery backed by a map.
type InputMap map[NodeID][]input.Source

// Inputs implements InputQuery.
func (m InputMap) Inputs(handler NodeID) []input.Source {
	return m[handler]
}

// FrameInfo carries per-frame timing and the input snapshot for that frame.
type FrameInfo struct {
	Delta   float64
	Elapsed float64
	Inputs  InputQuery
}

// InputsFor returns the sources for handler, or nil when the frame carries no
// input snapshot.
func (f FrameInfo) InputsFor(handler NodeID) []input.Source {
	if f.Inputs == nil {
		return nil
	}
	return f.Inputs.Inputs(handler)
}

package hostlink

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/1broseidon/sphereland/internal/geom"
	"github.com/1broseidon/sphereland/internal/input"
	"github.com/1broseidon/sphereland/internal/platform"
	"github.com/1broseidon/sphereland/internal/surface"
)

// Frame types sent by the host.
const (
	typeCreated           = "created"
	typeDestroyed         = "destroyed"
	typeCaptured          = "captured"
	typeReleased          = "released"
	typeAcceptorCaptured  = "acceptor_captured"
	typeAcceptorReleased  = "acceptor_released"
	typeToplevelResized   = "toplevel_resized"
	typeChildCreated      = "child_created"
	typeChildRepositioned = "child_repositioned"
	typeChildDestroyed    = "child_destroyed"
	typeFrame             = "frame"
	typeSessions          = "sessions"
	typeError             = "error"
)

// Frame types sent by the client.
const (
	typeHello         = "hello"
	typeListSessions  = "list_sessions"
	typeNodeCreate    = "node_create"
	typeNodeUpdate    = "node_update"
	typeNodeDestroy   = "node_destroy"
	typeMaterial      = "material"
	typeMotion        = "motion"
	typeScroll        = "scroll"
	typeButton        = "button"
	typeResetTouches  = "reset_touches"
)

// wireFrame is a single CBOR value on the host stream. Type discriminates
// which of the optional fields are populated.
type wireFrame struct {
	Type    string `cbor:"type"`
	Session string `cbor:"session,omitempty"`
	Message string `cbor:"message,omitempty"`

	// hello
	ClientID string `cbor:"client_id,omitempty"`
	Version  int    `cbor:"version,omitempty"`

	// lifecycle
	Transform *wireTransform `cbor:"transform,omitempty"`
	Size      *wireSize      `cbor:"size,omitempty"`
	Children  []wireChild    `cbor:"children,omitempty"`
	Child     *wireChild     `cbor:"child,omitempty"`
	Sessions  []string       `cbor:"sessions,omitempty"`

	// frame
	Delta   float64       `cbor:"delta,omitempty"`
	Elapsed float64       `cbor:"elapsed,omitempty"`
	Inputs  []wireHandler `cbor:"inputs,omitempty"`

	// scene mirroring
	Node     uint32         `cbor:"node,omitempty"`
	Parent   uint32         `cbor:"parent,omitempty"`
	Kind     string         `cbor:"kind,omitempty"`
	Resource string         `cbor:"resource,omitempty"`
	Enabled  *bool          `cbor:"enabled,omitempty"`
	Spatial  *wireTransform `cbor:"spatial,omitempty"`

	// pointer events
	Surface    string    `cbor:"surface,omitempty"`
	Position   []float32 `cbor:"position,omitempty"`
	Continuous []float32 `cbor:"continuous,omitempty"`
	Discrete   []float32 `cbor:"discrete,omitempty"`
	Button     uint32    `cbor:"button,omitempty"`
	Pressed    bool      `cbor:"pressed,omitempty"`
}

type wireTransform struct {
	Position []float32 `cbor:"position,omitempty"`
	Scale    []float32 `cbor:"scale,omitempty"`
}

type wireSize struct {
	Width  uint32 `cbor:"width"`
	Height uint32 `cbor:"height"`
}

type wireChild struct {
	ID     string   `cbor:"id"`
	Parent string   `cbor:"parent,omitempty"`
	X      int32    `cbor:"x"`
	Y      int32    `cbor:"y"`
	Size   wireSize `cbor:"size"`
}

type wireHandler struct {
	Node    uint32       `cbor:"node"`
	Sources []wireSource `cbor:"sources"`
}

type wireSource struct {
	ID        string    `cbor:"id"`
	Kind      string    `cbor:"kind"`
	Distance  float32   `cbor:"distance"`
	Origin    []float32 `cbor:"origin,omitempty"`
	Direction []float32 `cbor:"direction,omitempty"`
	Hovering  bool      `cbor:"hovering,omitempty"`
	Active    bool      `cbor:"active,omitempty"`
	Datamap   []byte    `cbor:"datamap,omitempty"`
}

func vec3(v []float32) mgl32.Vec3 {
	var out mgl32.Vec3
	copy(out[:], v)
	return out
}

func (t *wireTransform) transform() geom.Transform {
	if t == nil {
		return geom.Identity()
	}
	out := geom.FromPosition(vec3(t.Position))
	if len(t.Scale) > 0 {
		out.Scale = vec3(t.Scale)
	}
	return out
}

func toWireTransform(t geom.Transform) *wireTransform {
	return &wireTransform{
		Position: t.Position[:],
		Scale:    t.Scale[:],
	}
}

func (s *wireSize) pixelSize() geom.PixelSize {
	if s == nil {
		return geom.PixelSize{}
	}
	return geom.PixelSize{Width: s.Width, Height: s.Height}
}

func (c wireChild) info() (surface.ChildInfo, error) {
	parent, err := platform.ParseSurfaceID(c.Parent)
	if err != nil {
		return surface.ChildInfo{}, fmt.Errorf("child %s: %w", c.ID, err)
	}
	return surface.ChildInfo{
		ID:       c.ID,
		Parent:   parent,
		Geometry: c.geometry(),
	}, nil
}

func (c wireChild) geometry() geom.Geometry {
	return geom.Geometry{
		Origin: geom.PixelOffset{X: c.X, Y: c.Y},
		Size:   c.Size.pixelSize(),
	}
}

func (f *wireFrame) initData() (surface.InitData, error) {
	init := surface.InitData{
		Transform: f.Transform.transform(),
		Size:      f.Size.pixelSize(),
	}
	for _, c := range f.Children {
		info, err := c.info()
		if err != nil {
			return surface.InitData{}, err
		}
		init.Children = append(init.Children, info)
	}
	return init, nil
}

func (f *wireFrame) inputs() (platform.InputMap, error) {
	m := make(platform.InputMap, len(f.Inputs))
	for _, h := range f.Inputs {
		sources := make([]input.Source, 0, len(h.Sources))
		for _, s := range h.Sources {
			kind, err := input.ParseKind(s.Kind)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", s.ID, err)
			}
			sources = append(sources, input.Source{
				ID:        s.ID,
				Kind:      kind,
				Distance:  s.Distance,
				Origin:    vec3(s.Origin),
				Direction: vec3(s.Direction),
				Hovering:  s.Hovering,
				Active:    s.Active,
				Datamap:   input.Datamap(s.Datamap),
			})
		}
		m[platform.NodeID(h.Node)] = sources
	}
	return m, nil
}

func vec2Slice(v *mgl32.Vec2) []float32 {
	if v == nil {
		return nil
	}
	return []float32{v.X(), v.Y()}
}

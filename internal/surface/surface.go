// Package surface turns remote pixel drawables into placed 3D panels and
// translates spatial input on those panels back into pixel-space pointer
// events.
package surface

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/1broseidon/sphereland/internal/geom"
	"github.com/1broseidon/sphereland/internal/input"
	"github.com/1broseidon/sphereland/internal/platform"
	"github.com/1broseidon/sphereland/internal/touchplane"
)

// ErrInvalidGeometry is returned when a surface would be built with no area
// or no depth.
var ErrInvalidGeometry = errors.New("invalid surface geometry")

// DefaultResource is the panel model resource.
const DefaultResource = "sphereland/panel"

// Options carries construction settings shared by every surface of a tree.
type Options struct {
	Thickness float32
	Resource  string
	Logger    *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Resource == "" {
		o.Resource = DefaultResource
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Surface is one drawable region of a session presented as a panel with an
// interaction plane in front of it.
type Surface struct {
	scene  platform.Scene
	item   platform.Item
	id     platform.SurfaceID
	logger *slog.Logger

	root  platform.NodeID
	model platform.NodeID
	plane *touchplane.Plane

	pxSize          geom.PixelSize
	physical        mgl32.Vec2
	thickness       float32
	parentThickness float32
	depth           float32
	enabled         bool
}

// New builds a surface under parent at transform t. Nothing is left in
// the scene when it fails.
func New(scene platform.Scene, parent platform.NodeID, t geom.Transform, item platform.Item, id platform.SurfaceID, pxSize geom.PixelSize, opts Options) (*Surface, error) {
	opts = opts.withDefaults()
	if pxSize.Empty() {
		return nil, fmt.Errorf("%s %dx%d: %w", id, pxSize.Width, pxSize.Height, ErrInvalidGeometry)
	}
	if opts.Thickness <= 0 {
		return nil, fmt.Errorf("%s thickness %v: %w", id, opts.Thickness, ErrInvalidGeometry)
	}

	physical := geom.PhysicalSize(pxSize)
	root, err := scene.CreateNode(parent, platform.KindSpatial, t, "")
	if err != nil {
		return nil, fmt.Errorf("create %s root: %w", id, err)
	}

	s := &Surface{
		scene:     scene,
		item:      item,
		id:        id,
		logger:    opts.Logger,
		root:      root,
		pxSize:    pxSize,
		physical:  physical,
		thickness: opts.Thickness,
		enabled:   true,
	}
	if err := s.build(opts.Resource); err != nil {
		_ = scene.Destroy(root)
		return nil, err
	}
	return s, nil
}

func (s *Surface) build(resource string) error {
	model, err := s.scene.CreateNode(s.root, platform.KindModel, geom.PanelTransform(s.physical, s.thickness), resource)
	if err != nil {
		return fmt.Errorf("create %s panel: %w", s.id, err)
	}
	s.model = model

	if err := s.item.ApplySurfaceMaterial(s.id, model); err != nil {
		return fmt.Errorf("apply %s material: %w", s.id, err)
	}

	plane, err := touchplane.Create(
		s.scene,
		s.root,
		geom.PlaneCenter(s.physical),
		s.physical,
		s.thickness,
		touchplane.PixelRange(s.pxSize.Width),
		touchplane.PixelRange(s.pxSize.Height),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.id, err)
	}
	s.plane = plane
	return nil
}

// NewChild builds a child surface of parent. The child sits at the
// geometry's pixel origin in the parent's frame, pushed out by the parent's
// thickness.
func NewChild(parent *Surface, uid string, geometry geom.Geometry, opts Options) (*Surface, error) {
	position := geom.ChildPosition(geometry.Origin, parent.thickness)
	s, err := New(
		parent.scene,
		parent.root,
		geom.FromPosition(position),
		parent.item,
		platform.ChildSurface(uid),
		geometry.Size,
		opts,
	)
	if err != nil {
		return nil, err
	}
	s.parentThickness = parent.thickness
	s.depth = parent.depth + parent.thickness
	return s, nil
}

// Update runs one frame of input arbitration and emits the resulting
// pointer events for this surface.
func (s *Surface) Update(frame platform.FrameInfo) {
	s.plane.Update(frame.InputsFor(s.plane.Node()))
	if !s.enabled {
		return
	}

	hovering := s.plane.Hovering()
	interacting := s.plane.Interacting()

	candidates := make([]input.Source, 0, len(hovering)+len(interacting))
	candidates = append(candidates, hovering...)
	candidates = append(candidates, interacting...)

	if closest, ok := input.Closest(candidates, input.Source.IsPointer); ok {
		s.motion(closest)
		s.scroll(closest)
	}

	if closest, ok := input.Closest(interacting, input.Source.IsPointer); ok {
		s.motion(closest)
	}

	if s.plane.TouchStarted() {
		s.button(true)
	} else if s.plane.TouchStopped() {
		s.button(false)
	}
}

func (s *Surface) motion(src input.Source) {
	point, _, ok := s.plane.InteractPoint(src)
	if !ok {
		return
	}
	if err := s.item.PointerMotion(s.id, point); err != nil {
		s.logger.Debug("pointer motion dropped", "surface", s.id.String(), "error", err)
	}
}

// scroll is sent even when neither field is present so the remote side can
// settle its scroll momentum.
func (s *Surface) scroll(src input.Source) {
	var continuous, discrete *mgl32.Vec2
	if v, ok := src.Datamap.Vec2(input.FieldScrollContinuous); ok {
		continuous = &v
	}
	if v, ok := src.Datamap.Vec2(input.FieldScrollDiscrete); ok {
		discrete = &v
	}
	if err := s.item.PointerScroll(s.id, continuous, discrete); err != nil {
		s.logger.Debug("pointer scroll dropped", "surface", s.id.String(), "error", err)
	}
}

func (s *Surface) button(pressed bool) {
	if err := s.item.PointerButton(s.id, platform.BtnLeft, pressed); err != nil {
		s.logger.Debug("pointer button dropped", "surface", s.id.String(), "pressed", pressed, "error", err)
	}
}

// Resize recomputes the physical size, panel volume and interaction plane
// for a new pixel size. A zero size leaves a degenerate, unaddressable plane.
func (s *Surface) Resize(pxSize geom.PixelSize) error {
	physical := geom.PhysicalSize(pxSize)
	if err := s.scene.SetTransform(s.model, geom.PanelTransform(physical, s.thickness)); err != nil {
		return fmt.Errorf("resize %s panel: %w", s.id, err)
	}
	if err := s.plane.Resize(geom.PlaneCenter(physical), physical); err != nil {
		return fmt.Errorf("resize %s: %w", s.id, err)
	}
	s.plane.SetRanges(touchplane.PixelRange(pxSize.Width), touchplane.PixelRange(pxSize.Height))
	s.pxSize = pxSize
	s.physical = physical
	return nil
}

// SetOffset moves the surface to a new pixel origin in its parent's frame.
func (s *Surface) SetOffset(offset geom.PixelOffset) error {
	position := geom.ChildPosition(offset, s.parentThickness)
	if err := s.scene.SetTransform(s.root, geom.FromPosition(position)); err != nil {
		return fmt.Errorf("move %s: %w", s.id, err)
	}
	return nil
}

// SetEnabled hides or shows the panel and toggles the interaction plane.
// Geometry is kept either way.
func (s *Surface) SetEnabled(enabled bool) {
	s.enabled = enabled
	if err := s.plane.SetEnabled(enabled); err != nil {
		s.logger.Debug("toggle interaction plane", "surface", s.id.String(), "error", err)
	}
	if err := s.scene.SetEnabled(s.model, enabled); err != nil {
		s.logger.Debug("toggle panel", "surface", s.id.String(), "error", err)
	}
}

// Destroy releases the surface's scene nodes, including every node created
// beneath it.
func (s *Surface) Destroy() error {
	s.enabled = false
	if err := s.scene.Destroy(s.root); err != nil {
		return fmt.Errorf("destroy %s: %w", s.id, err)
	}
	return nil
}

func (s *Surface) ID() platform.SurfaceID    { return s.id }
func (s *Surface) Root() platform.NodeID     { return s.root }
func (s *Surface) Model() platform.NodeID    { return s.model }
func (s *Surface) Plane() *touchplane.Plane  { return s.plane }
func (s *Surface) PixelSize() geom.PixelSize { return s.pxSize }
func (s *Surface) PhysicalSize() mgl32.Vec2  { return s.physical }
func (s *Surface) Thickness() float32        { return s.thickness }
func (s *Surface) Enabled() bool             { return s.enabled }

// Depth is the offset of this surface's front face from the toplevel's,
// accumulated through every ancestor.
func (s *Surface) Depth() float32 { return s.depth }

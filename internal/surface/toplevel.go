package surface

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/sphereland/internal/geom"
	"github.com/1broseidon/sphereland/internal/platform"
)

// ErrUnknownSurface is returned when a child operation names a surface the
// toplevel does not have.
var ErrUnknownSurface = errors.New("unknown surface")

// ChildInfo describes a child surface as reported by the host. Parent is the
// toplevel or another child; Geometry is relative to that parent.
type ChildInfo struct {
	ID       string
	Parent   platform.SurfaceID
	Geometry geom.Geometry
}

// InitData is the geometry a session starts with.
type InitData struct {
	Transform geom.Transform
	Size      geom.PixelSize
	Children  []ChildInfo
}

// Toplevel is one remote window: a root surface and its transient child
// surfaces keyed by child id.
type Toplevel struct {
	opts   Options
	logger *slog.Logger

	root     *Surface
	children map[string]*Surface
	parents  map[string]platform.SurfaceID
	order    []string
	enabled  bool
}

// NewToplevel builds the root surface under parent. Initial children that
// cannot be built are logged and skipped; a root that cannot be built fails
// the whole toplevel.
func NewToplevel(scene platform.Scene, parent platform.NodeID, item platform.Item, init InitData, opts Options) (*Toplevel, error) {
	opts = opts.withDefaults()
	transform := init.Transform
	if transform.Scale.Len() == 0 {
		transform = geom.FromPosition(transform.Position)
	}

	root, err := New(scene, parent, transform, item, platform.ToplevelSurface(), init.Size, opts)
	if err != nil {
		return nil, err
	}

	t := &Toplevel{
		opts:     opts,
		logger:   opts.Logger,
		root:     root,
		children: make(map[string]*Surface),
		parents:  make(map[string]platform.SurfaceID),
		enabled:  true,
	}
	for _, child := range init.Children {
		if err := t.AddChild(child); err != nil {
			t.logger.Warn("skipping initial child", "child", child.ID, "error", err)
		}
	}
	return t, nil
}

// Root returns the toplevel surface.
func (t *Toplevel) Root() *Surface {
	return t.root
}

// Child returns the child surface uid.
func (t *Toplevel) Child(uid string) (*Surface, bool) {
	s, ok := t.children[uid]
	return s, ok
}

// Children returns child ids in the order they were added.
func (t *Toplevel) Children() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of surfaces in the tree, root included.
func (t *Toplevel) Len() int {
	return 1 + len(t.children)
}

// Enabled reports whether the tree is presented and accepting input.
func (t *Toplevel) Enabled() bool {
	return t.enabled
}

func (t *Toplevel) surface(id platform.SurfaceID) (*Surface, bool) {
	if id.IsToplevel() {
		return t.root, true
	}
	return t.Child(id.Child)
}

// AddChild builds a child surface. A child with the same id is destroyed
// first, together with anything nested under it.
func (t *Toplevel) AddChild(info ChildInfo) error {
	if info.ID == "" {
		return fmt.Errorf("child id is empty: %w", ErrUnknownSurface)
	}
	if _, exists := t.children[info.ID]; exists {
		t.RemoveChild(info.ID)
	}

	parent, ok := t.surface(info.Parent)
	if !ok {
		return fmt.Errorf("parent %s of child %s: %w", info.Parent, info.ID, ErrUnknownSurface)
	}

	child, err := NewChild(parent, info.ID, info.Geometry, t.opts)
	if err != nil {
		return err
	}
	if !t.enabled {
		child.SetEnabled(false)
	}

	t.children[info.ID] = child
	t.parents[info.ID] = info.Parent
	t.order = append(t.order, info.ID)
	return nil
}

// RepositionChild moves and resizes an existing child without changing its
// identity or its place in the child order.
func (t *Toplevel) RepositionChild(uid string, geometry geom.Geometry) error {
	child, ok := t.children[uid]
	if !ok {
		return fmt.Errorf("child %s: %w", uid, ErrUnknownSurface)
	}
	if err := child.SetOffset(geometry.Origin); err != nil {
		return err
	}
	return child.Resize(geometry.Size)
}

// RemoveChild destroys a child and every child nested under it. Unknown ids
// are ignored.
func (t *Toplevel) RemoveChild(uid string) {
	child, ok := t.children[uid]
	if !ok {
		return
	}
	t.forget(uid)
	if err := child.Destroy(); err != nil {
		t.logger.Debug("destroy child", "child", uid, "error", err)
	}
}

// forget drops uid and its descendants from the maps. Their scene nodes go
// with the ancestor's subtree.
func (t *Toplevel) forget(uid string) {
	for _, other := range t.Children() {
		if parent, ok := t.parents[other]; ok && parent.Child == uid {
			t.forget(other)
		}
	}
	delete(t.children, uid)
	delete(t.parents, uid)
	for i, id := range t.order {
		if id == uid {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Resize changes the root surface's pixel size.
func (t *Toplevel) Resize(size geom.PixelSize) error {
	return t.root.Resize(size)
}

// Update runs the frame on the root and then on every child.
func (t *Toplevel) Update(frame platform.FrameInfo) {
	t.root.Update(frame)
	for _, uid := range t.order {
		t.children[uid].Update(frame)
	}
}

// SetEnabled enables or disables every surface in the tree.
func (t *Toplevel) SetEnabled(enabled bool) {
	t.enabled = enabled
	t.root.SetEnabled(enabled)
	for _, uid := range t.order {
		t.children[uid].SetEnabled(enabled)
	}
}

// Destroy releases the whole surface tree.
func (t *Toplevel) Destroy() error {
	t.children = make(map[string]*Surface)
	t.parents = make(map[string]platform.SurfaceID)
	t.order = nil
	return t.root.Destroy()
}

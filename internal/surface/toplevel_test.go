package surface

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/1broseidon/sphereland/internal/geom"
	"github.com/1broseidon/sphereland/internal/platform"
	"github.com/1broseidon/sphereland/internal/platform/platformtest"
)

func newTestToplevel(t *testing.T) (*Toplevel, *platform.Arena, *platformtest.Item) {
	t.Helper()
	arena := platform.NewArena()
	item := &platformtest.Item{}
	tl, err := NewToplevel(arena, platform.Root, item, InitData{Size: geom.PixelSize{Width: 1000, Height: 2000}}, testOpts)
	if err != nil {
		t.Fatalf("NewToplevel: %v", err)
	}
	return tl, arena, item
}

func childInfo(id string, parent platform.SurfaceID, x, y int32, w, h uint32) ChildInfo {
	return ChildInfo{
		ID:     id,
		Parent: parent,
		Geometry: geom.Geometry{
			Origin: geom.PixelOffset{X: x, Y: y},
			Size:   geom.PixelSize{Width: w, Height: h},
		},
	}
}

func TestNewToplevel_RootSize(t *testing.T) {
	tl, _, _ := newTestToplevel(t)
	want := mgl32.Vec2{1000.0 / 3000.0, 2000.0 / 3000.0}
	if !tl.Root().PhysicalSize().ApproxEqualThreshold(want, 1e-6) {
		t.Fatalf("root physical size = %v, want %v", tl.Root().PhysicalSize(), want)
	}
	if tl.Len() != 1 || !tl.Enabled() {
		t.Fatalf("fresh toplevel: len=%d enabled=%v", tl.Len(), tl.Enabled())
	}
}

func TestNewToplevel_FailsWithoutRoot(t *testing.T) {
	arena := platform.NewArena()
	_, err := NewToplevel(arena, platform.Root, &platformtest.Item{}, InitData{}, testOpts)
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("expected ErrInvalidGeometry, got %v", err)
	}
	if arena.Len() != 0 {
		t.Fatalf("expected nothing left in the scene")
	}
}

func TestNewToplevel_InitialChildren(t *testing.T) {
	arena := platform.NewArena()
	tl, err := NewToplevel(arena, platform.Root, &platformtest.Item{}, InitData{
		Size: geom.PixelSize{Width: 100, Height: 100},
		Children: []ChildInfo{
			childInfo("menu", platform.ToplevelSurface(), 10, 10, 50, 50),
			childInfo("broken", platform.ToplevelSurface(), 0, 0, 0, 0),
			childInfo("orphan", platform.ChildSurface("missing"), 0, 0, 5, 5),
		},
	}, testOpts)
	if err != nil {
		t.Fatalf("NewToplevel: %v", err)
	}
	if got := tl.Children(); len(got) != 1 || got[0] != "menu" {
		t.Fatalf("children = %v, want [menu]", got)
	}
}

func TestAddChild_PositionRelativeToParentWithDepth(t *testing.T) {
	tl, arena, _ := newTestToplevel(t)
	if err := tl.AddChild(childInfo("menu", platform.ToplevelSurface(), 300, 600, 200, 100)); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	child, ok := tl.Child("menu")
	if !ok {
		t.Fatalf("child missing")
	}
	node, _ := arena.Node(child.Root())
	if node.Parent != tl.Root().Root() {
		t.Fatalf("child parented to %d, want root %d", node.Parent, tl.Root().Root())
	}
	want := mgl32.Vec3{0.1, -0.2, testOpts.Thickness}
	if !node.Transform.Position.ApproxEqualThreshold(want, 1e-6) {
		t.Fatalf("child position = %v, want %v", node.Transform.Position, want)
	}
}

func TestAddChild_DepthStrictlyIncreasesWithNesting(t *testing.T) {
	tl, _, _ := newTestToplevel(t)
	parent := platform.ToplevelSurface()
	prevDepth := tl.Root().Depth()
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := tl.AddChild(childInfo(id, parent, 1, 1, 10, 10)); err != nil {
			t.Fatalf("AddChild %s: %v", id, err)
		}
		child, _ := tl.Child(id)
		if child.Depth() <= prevDepth {
			t.Fatalf("child %s depth %v not above parent depth %v", id, child.Depth(), prevDepth)
		}
		prevDepth = child.Depth()
		parent = platform.ChildSurface(id)
	}

	if err := tl.AddChild(childInfo("sibling", platform.ToplevelSurface(), 1, 1, 10, 10)); err != nil {
		t.Fatalf("AddChild sibling: %v", err)
	}
	sibling, _ := tl.Child("sibling")
	if sibling.Depth() <= tl.Root().Depth() {
		t.Fatalf("sibling depth %v not above root", sibling.Depth())
	}
}

func TestAddChild_UnknownParent(t *testing.T) {
	tl, _, _ := newTestToplevel(t)
	err := tl.AddChild(childInfo("x", platform.ChildSurface("ghost"), 0, 0, 10, 10))
	if !errors.Is(err, ErrUnknownSurface) {
		t.Fatalf("expected ErrUnknownSurface, got %v", err)
	}
}

func TestAddChild_DuplicateReplaces(t *testing.T) {
	tl, arena, _ := newTestToplevel(t)
	_ = tl.AddChild(childInfo("menu", platform.ToplevelSurface(), 0, 0, 10, 10))
	_ = tl.AddChild(childInfo("sub", platform.ChildSurface("menu"), 0, 0, 5, 5))
	first, _ := tl.Child("menu")
	nodesBefore := arena.Len()

	if err := tl.AddChild(childInfo("menu", platform.ToplevelSurface(), 5, 5, 20, 20)); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	second, _ := tl.Child("menu")
	if second == first {
		t.Fatalf("expected a fresh child surface")
	}
	if second.PixelSize() != (geom.PixelSize{Width: 20, Height: 20}) {
		t.Fatalf("replacement size = %+v", second.PixelSize())
	}
	if _, ok := tl.Child("sub"); ok {
		t.Fatalf("nested child of replaced surface should be gone")
	}
	if _, ok := arena.Node(first.Root()); ok {
		t.Fatalf("replaced child's nodes should be destroyed")
	}
	// root + menu: old menu and sub subtrees are gone
	if arena.Len() >= nodesBefore {
		t.Fatalf("expected fewer nodes after replacement: before=%d after=%d", nodesBefore, arena.Len())
	}
	if tl.Len() != 2 {
		t.Fatalf("expected root + 1 child, got %d", tl.Len())
	}
}

func TestRemoveChild_RemovesNestedAndIgnoresUnknown(t *testing.T) {
	tl, arena, _ := newTestToplevel(t)
	_ = tl.AddChild(childInfo("menu", platform.ToplevelSurface(), 0, 0, 10, 10))
	_ = tl.AddChild(childInfo("submenu", platform.ChildSurface("menu"), 0, 0, 10, 10))
	_ = tl.AddChild(childInfo("tooltip", platform.ToplevelSurface(), 0, 0, 10, 10))
	sub, _ := tl.Child("submenu")

	tl.RemoveChild("menu")
	tl.RemoveChild("never-existed")

	if got := tl.Children(); len(got) != 1 || got[0] != "tooltip" {
		t.Fatalf("children = %v, want [tooltip]", got)
	}
	if _, ok := arena.Node(sub.Root()); ok {
		t.Fatalf("nested child nodes should be destroyed")
	}
}

func TestRepositionChild_KeepsIdentityAndOrder(t *testing.T) {
	tl, arena, _ := newTestToplevel(t)
	_ = tl.AddChild(childInfo("a", platform.ToplevelSurface(), 0, 0, 10, 10))
	_ = tl.AddChild(childInfo("b", platform.ToplevelSurface(), 0, 0, 10, 10))
	before, _ := tl.Child("a")

	geo := geom.Geometry{Origin: geom.PixelOffset{X: 30, Y: 60}, Size: geom.PixelSize{Width: 90, Height: 30}}
	if err := tl.RepositionChild("a", geo); err != nil {
		t.Fatalf("RepositionChild: %v", err)
	}
	after, _ := tl.Child("a")
	if after != before {
		t.Fatalf("reposition replaced the surface")
	}
	if got := tl.Children(); got[0] != "a" || got[1] != "b" {
		t.Fatalf("order changed: %v", got)
	}
	if after.PixelSize() != geo.Size {
		t.Fatalf("size = %+v", after.PixelSize())
	}
	node, _ := arena.Node(after.Root())
	if !node.Transform.Position.ApproxEqualThreshold(mgl32.Vec3{0.01, -0.02, testOpts.Thickness}, 1e-6) {
		t.Fatalf("position = %v", node.Transform.Position)
	}

	if err := tl.RepositionChild("zzz", geo); !errors.Is(err, ErrUnknownSurface) {
		t.Fatalf("expected ErrUnknownSurface, got %v", err)
	}
}

func TestSetEnabled_PropagatesToChildren(t *testing.T) {
	tl, arena, _ := newTestToplevel(t)
	_ = tl.AddChild(childInfo("menu", platform.ToplevelSurface(), 0, 0, 10, 10))

	tl.SetEnabled(false)
	for _, s := range []*Surface{tl.Root(), mustChild(t, tl, "menu")} {
		if s.Enabled() {
			t.Fatalf("%s still enabled", s.ID())
		}
		model, _ := arena.Node(s.Model())
		if model.Enabled {
			t.Fatalf("%s panel still shown", s.ID())
		}
	}

	// children added while disabled start disabled
	_ = tl.AddChild(childInfo("late", platform.ToplevelSurface(), 0, 0, 10, 10))
	if mustChild(t, tl, "late").Enabled() {
		t.Fatalf("late child should start disabled")
	}

	tl.SetEnabled(true)
	for _, id := range tl.Children() {
		if !mustChild(t, tl, id).Enabled() {
			t.Fatalf("%s not re-enabled", id)
		}
	}
}

func TestUpdate_ReachesChildren(t *testing.T) {
	tl, _, item := newTestToplevel(t)
	_ = tl.AddChild(childInfo("menu", platform.ToplevelSurface(), 0, 0, 300, 300))
	menu := mustChild(t, tl, "menu")
	item.Reset()

	tl.Update(platform.FrameInfo{Inputs: platform.InputMap{
		menu.Plane().Node(): {pointerAt("p", 0, 0.1)},
	}})

	motions := item.Of(platformtest.CallMotion)
	if len(motions) != 1 || motions[0].Surface != platform.ChildSurface("menu") {
		t.Fatalf("expected one motion on the menu, got %+v", motions)
	}
}

func TestDestroy_RemovesWholeTree(t *testing.T) {
	tl, arena, _ := newTestToplevel(t)
	_ = tl.AddChild(childInfo("menu", platform.ToplevelSurface(), 0, 0, 10, 10))
	_ = tl.AddChild(childInfo("sub", platform.ChildSurface("menu"), 0, 0, 10, 10))

	if err := tl.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if arena.Len() != 0 {
		t.Fatalf("expected empty scene, got %d nodes", arena.Len())
	}
	if tl.Len() != 1 || len(tl.Children()) != 0 {
		t.Fatalf("expected no children after destroy")
	}
}

func mustChild(t *testing.T, tl *Toplevel, id string) *Surface {
	t.Helper()
	s, ok := tl.Child(id)
	if !ok {
		t.Fatalf("child %s missing", id)
	}
	return s
}

package registry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/1broseidon/sphereland/internal/geom"
	"github.com/1broseidon/sphereland/internal/input"
	"github.com/1broseidon/sphereland/internal/platform"
	"github.com/1broseidon/sphereland/internal/platform/platformtest"
	"github.com/1broseidon/sphereland/internal/surface"
)

func newTestRegistry() (*Registry, *platform.Arena) {
	arena := platform.NewArena()
	r := New(Config{Scene: arena, Surface: surface.Options{Thickness: 0.01}})
	return r, arena
}

func initData(w, h uint32) surface.InitData {
	return surface.InitData{Size: geom.PixelSize{Width: w, Height: h}}
}

func hoverFrame(r *Registry, session platform.SessionID) platform.FrameInfo {
	tl, _ := r.Get(session)
	return platform.FrameInfo{Inputs: platform.InputMap{
		tl.Root().Plane().Node(): {{
			ID:        "p",
			Kind:      input.KindPointer,
			Distance:  0.1,
			Origin:    mgl32.Vec3{0, 0, 0.1},
			Direction: mgl32.Vec3{0, 0, -1},
			Hovering:  true,
		}},
	}}
}

func TestOnSessionCreated_Registers(t *testing.T) {
	r, _ := newTestRegistry()
	if !r.OnSessionCreated("a", &platformtest.Item{}, initData(1000, 2000)) {
		t.Fatalf("expected session to be registered")
	}
	tl, ok := r.Get("a")
	if !ok {
		t.Fatalf("session a missing")
	}
	if tl.Root().PixelSize() != (geom.PixelSize{Width: 1000, Height: 2000}) {
		t.Fatalf("root size = %v", tl.Root().PixelSize())
	}
}

func TestOnSessionCreated_IgnoresEmptySize(t *testing.T) {
	r, arena := newTestRegistry()
	if r.OnSessionCreated("a", &platformtest.Item{}, initData(0, 0)) {
		t.Fatalf("expected empty toplevel to be ignored")
	}
	if r.Len() != 0 || arena.Len() != 0 {
		t.Fatalf("expected no session and no nodes, got %d sessions %d nodes", r.Len(), arena.Len())
	}
}

func TestOnSessionCreated_ReplacesReusedHandle(t *testing.T) {
	r, arena := newTestRegistry()
	r.OnSessionCreated("a", &platformtest.Item{}, initData(100, 100))
	first := arena.Len()
	r.OnSessionCreated("a", &platformtest.Item{}, initData(200, 200))

	if r.Len() != 1 {
		t.Fatalf("expected one session, got %d", r.Len())
	}
	if arena.Len() != first {
		t.Fatalf("old tree leaked: %d nodes, want %d", arena.Len(), first)
	}
	tl, _ := r.Get("a")
	if tl.Root().PixelSize().Width != 200 {
		t.Fatalf("expected replacement toplevel")
	}
}

func TestOnSessionDestroyed(t *testing.T) {
	r, arena := newTestRegistry()
	r.OnSessionCreated("a", &platformtest.Item{}, initData(100, 100))
	r.OnSessionDestroyed("a")
	r.OnSessionDestroyed("unknown")

	if r.Len() != 0 || arena.Len() != 0 {
		t.Fatalf("expected empty registry and scene, got %d sessions %d nodes", r.Len(), arena.Len())
	}
}

func TestAcceptorCaptureAndRelease(t *testing.T) {
	r, _ := newTestRegistry()
	r.OnAcceptorCaptured("a", &platformtest.Item{}, initData(100, 100))
	if r.Len() != 1 {
		t.Fatalf("acceptor capture should register the session")
	}
	r.OnAcceptorReleased("a")
	if r.Len() != 0 {
		t.Fatalf("acceptor release should drop the session")
	}
}

func TestCaptureDisablesAndResetsTouches(t *testing.T) {
	r, _ := newTestRegistry()
	item := &platformtest.Item{}
	r.OnSessionCreated("a", item, initData(300, 150))
	item.Reset()
	tl, _ := r.Get("a")
	pxBefore, physBefore := tl.Root().PixelSize(), tl.Root().PhysicalSize()

	r.OnSessionCaptured("a", nil)
	if tl.Enabled() {
		t.Fatalf("captured session should be disabled")
	}
	if len(item.Of(platformtest.CallReset)) != 1 {
		t.Fatalf("expected touches reset on capture, got %+v", item.Calls)
	}

	r.Frame(hoverFrame(r, "a"))
	if n := len(item.Of(platformtest.CallMotion)); n != 0 {
		t.Fatalf("disabled session received %d motions", n)
	}

	r.OnSessionReleased("a", nil)
	if !tl.Enabled() {
		t.Fatalf("released session should be enabled")
	}
	if len(item.Of(platformtest.CallReset)) != 2 {
		t.Fatalf("expected touches reset on release")
	}
	if got := tl.Root().PixelSize(); got != pxBefore {
		t.Fatalf("pixel size changed across capture: %+v -> %+v", pxBefore, got)
	}
	if got := tl.Root().PhysicalSize(); got != physBefore || got != (mgl32.Vec2{0.1, 0.05}) {
		t.Fatalf("physical size changed across capture: %v -> %v", physBefore, got)
	}
}

func TestCaptureUnknownSessionStillResets(t *testing.T) {
	r, _ := newTestRegistry()
	item := &platformtest.Item{}
	r.OnSessionCaptured("ghost", item)
	r.OnSessionReleased("ghost", item)
	if len(item.Of(platformtest.CallReset)) != 2 {
		t.Fatalf("expected two resets, got %+v", item.Calls)
	}
	if r.Len() != 0 {
		t.Fatalf("unknown session must not be registered")
	}
}

func TestChildLifecycle(t *testing.T) {
	r, _ := newTestRegistry()
	r.OnSessionCreated("a", &platformtest.Item{}, initData(1000, 1000))

	r.OnChildCreated("a", surface.ChildInfo{
		ID:     "menu",
		Parent: platform.ToplevelSurface(),
		Geometry: geom.Geometry{
			Origin: geom.PixelOffset{X: 10, Y: 20},
			Size:   geom.PixelSize{Width: 50, Height: 60},
		},
	})
	tl, _ := r.Get("a")
	menu, ok := tl.Child("menu")
	if !ok {
		t.Fatalf("child not created")
	}

	r.OnChildRepositioned("a", "menu", geom.Geometry{
		Origin: geom.PixelOffset{X: 30, Y: 40},
		Size:   geom.PixelSize{Width: 70, Height: 80},
	})
	if menu.PixelSize() != (geom.PixelSize{Width: 70, Height: 80}) {
		t.Fatalf("child size after reposition = %v", menu.PixelSize())
	}

	r.OnChildDestroyed("a", "menu")
	if _, ok := tl.Child("menu"); ok {
		t.Fatalf("child should be gone")
	}

	// Unknown sessions are ignored.
	r.OnChildCreated("ghost", surface.ChildInfo{ID: "x"})
	r.OnChildDestroyed("ghost", "x")
	r.OnToplevelResized("ghost", geom.PixelSize{Width: 1, Height: 1})
}

func TestOnToplevelResized(t *testing.T) {
	r, _ := newTestRegistry()
	r.OnSessionCreated("a", &platformtest.Item{}, initData(100, 100))
	r.OnToplevelResized("a", geom.PixelSize{Width: 300, Height: 150})

	tl, _ := r.Get("a")
	if tl.Root().PixelSize() != (geom.PixelSize{Width: 300, Height: 150}) {
		t.Fatalf("root size = %v", tl.Root().PixelSize())
	}
}

func TestFrameUpdatesEnabledToplevels(t *testing.T) {
	r, _ := newTestRegistry()
	a := &platformtest.Item{}
	b := &platformtest.Item{}
	r.OnSessionCreated("a", a, initData(100, 100))
	r.OnSessionCreated("b", b, initData(100, 100))
	a.Reset()
	b.Reset()

	inputs := platform.InputMap{}
	for _, s := range []platform.SessionID{"a", "b"} {
		for node, sources := range hoverFrame(r, s).Inputs.(platform.InputMap) {
			inputs[node] = sources
		}
	}
	r.Frame(platform.FrameInfo{Inputs: inputs})

	if len(a.Of(platformtest.CallMotion)) == 0 || len(b.Of(platformtest.CallMotion)) == 0 {
		t.Fatalf("expected motion on both sessions: a=%+v b=%+v", a.Calls, b.Calls)
	}
	if r.Frames() != 1 {
		t.Fatalf("frames = %d, want 1", r.Frames())
	}
}

func TestReconcileDropsOrphans(t *testing.T) {
	r, _ := newTestRegistry()
	for _, s := range []platform.SessionID{"a", "b", "c"} {
		r.OnSessionCreated(s, &platformtest.Item{}, initData(10, 10))
	}

	dropped := r.Reconcile([]platform.SessionID{"b"})
	if len(dropped) != 2 || dropped[0] != "a" || dropped[1] != "c" {
		t.Fatalf("dropped = %v, want [a c]", dropped)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one survivor, got %d", r.Len())
	}
}

func TestSnapshot(t *testing.T) {
	r, _ := newTestRegistry()
	r.OnSessionCreated("b", &platformtest.Item{}, initData(3000, 1500))
	r.OnSessionCreated("a", &platformtest.Item{}, initData(10, 10))
	r.OnChildCreated("b", surface.ChildInfo{
		ID:       "popup",
		Parent:   platform.ToplevelSurface(),
		Geometry: geom.Geometry{Size: geom.PixelSize{Width: 5, Height: 5}},
	})
	r.OnSessionCaptured("a", nil)

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d", len(snap))
	}
	if snap[0].Session != "b" || !snap[0].Enabled || len(snap[0].Children) != 1 {
		t.Fatalf("unexpected first entry %+v", snap[0])
	}
	if snap[0].Physical != [2]float32{1, 0.5} {
		t.Fatalf("physical = %v, want [1 0.5]", snap[0].Physical)
	}
	if snap[1].Session != "a" || snap[1].Enabled {
		t.Fatalf("unexpected second entry %+v", snap[1])
	}
	if r.SurfaceCount() != 3 {
		t.Fatalf("surface count = %d, want 3", r.SurfaceCount())
	}
}

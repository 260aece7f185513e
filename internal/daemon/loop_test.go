package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/sphereland/internal/geom"
	"github.com/1broseidon/sphereland/internal/platform"
	"github.com/1broseidon/sphereland/internal/platform/platformtest"
	"github.com/1broseidon/sphereland/internal/registry"
	"github.com/1broseidon/sphereland/internal/surface"
)

type panicEvent struct{}

func (panicEvent) Apply(*registry.Registry) { panic("boom") }

func startLoop(t *testing.T) (*Loop, context.CancelFunc, chan error) {
	t.Helper()
	reg := registry.New(registry.Config{Scene: platform.NewArena(), Surface: surface.Options{Thickness: 0.01}})
	loop := NewLoop(LoopConfig{QueueSize: 4}, reg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	t.Cleanup(cancel)
	return loop, cancel, done
}

func sessionCount(t *testing.T, loop *Loop) int {
	t.Helper()
	var n int
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := loop.Query(ctx, func(r *registry.Registry) { n = r.Len() }); err != nil {
		t.Fatalf("Query: %v", err)
	}
	return n
}

func TestLoop_AppliesEventsInOrder(t *testing.T) {
	loop, _, _ := startLoop(t)
	ctx := context.Background()
	init := surface.InitData{Size: geom.PixelSize{Width: 100, Height: 100}}

	events := []Event{
		SessionCreated{Session: "a", Item: &platformtest.Item{}, Init: init},
		AcceptorCaptured{Session: "b", Item: &platformtest.Item{}, Init: init},
		SessionDestroyed{Session: "a"},
	}
	for _, ev := range events {
		if err := loop.Post(ctx, ev); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}

	var sessions []registry.SessionInfo
	if err := loop.Query(ctx, func(r *registry.Registry) { sessions = r.Snapshot() }); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Session != "b" {
		t.Fatalf("sessions = %+v, want only b", sessions)
	}
}

func TestLoop_SessionListReconciles(t *testing.T) {
	loop, _, _ := startLoop(t)
	ctx := context.Background()
	init := surface.InitData{Size: geom.PixelSize{Width: 10, Height: 10}}
	for _, s := range []platform.SessionID{"a", "b"} {
		if err := loop.Post(ctx, SessionCreated{Session: s, Item: &platformtest.Item{}, Init: init}); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}
	if err := loop.Post(ctx, SessionList{Live: []platform.SessionID{"b"}}); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if n := sessionCount(t, loop); n != 1 {
		t.Fatalf("sessions = %d, want 1", n)
	}
}

func TestLoop_RecoversFromPanic(t *testing.T) {
	loop, _, _ := startLoop(t)
	if err := loop.Post(context.Background(), panicEvent{}); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if n := sessionCount(t, loop); n != 0 {
		t.Fatalf("sessions = %d, want 0", n)
	}
}

func TestLoop_PostAfterStop(t *testing.T) {
	loop, cancel, done := startLoop(t)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("loop did not stop")
	}

	if err := loop.Post(context.Background(), SessionDestroyed{Session: "a"}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if err := loop.Query(context.Background(), func(*registry.Registry) {}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped from Query, got %v", err)
	}
}

func TestLoop_PostHonoursContext(t *testing.T) {
	reg := registry.New(registry.Config{Scene: platform.NewArena()})
	loop := NewLoop(LoopConfig{QueueSize: 1}, reg)
	if err := loop.Post(context.Background(), SessionDestroyed{Session: "a"}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := loop.Post(ctx, SessionDestroyed{Session: "b"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled on full queue, got %v", err)
	}
}

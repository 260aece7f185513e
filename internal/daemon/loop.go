// Package daemon runs the registry on a single goroutine and keeps it in
// step with the host.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/1broseidon/sphereland/internal/registry"
)

// ErrStopped is returned when posting to a loop that is no longer running.
var ErrStopped = errors.New("event loop stopped")

// DefaultQueueSize is the event queue capacity used when none is configured.
const DefaultQueueSize = 256

// LoopConfig holds configuration for the event loop.
type LoopConfig struct {
	QueueSize int
	Logger    *slog.Logger
}

// Loop drains host events in arrival order on one goroutine. The registry
// must only be touched from Run.
type Loop struct {
	registry *registry.Registry
	events   chan Event
	stopped  chan struct{}
	logger   *slog.Logger
}

// NewLoop creates a loop for reg.
func NewLoop(cfg LoopConfig, reg *registry.Registry) *Loop {
	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loop{
		registry: reg,
		events:   make(chan Event, size),
		stopped:  make(chan struct{}),
		logger:   logger,
	}
}

// Post queues an event. It blocks while the queue is full.
func (l *Loop) Post(ctx context.Context, ev Event) error {
	select {
	case <-l.stopped:
		return ErrStopped
	default:
	}
	select {
	case l.events <- ev:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Query runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Query(ctx context.Context, fn func(r *registry.Registry)) error {
	q := query{fn: fn, done: make(chan struct{})}
	if err := l.Post(ctx, q); err != nil {
		return err
	}
	select {
	case <-q.done:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events until ctx is cancelled. Blocks.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	l.logger.Info("event loop started", "queue_size", cap(l.events))
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("event loop stopped")
			return nil
		case ev := <-l.events:
			l.dispatch(ev)
		}
	}
}

func (l *Loop) dispatch(ev Event) {
	// A bad host message must not take the daemon down.
	defer func() {
		if err := recover(); err != nil {
			l.logger.Error("event panic recovered", "event", fmt.Sprintf("%T", ev), "error", err)
		}
	}()
	ev.Apply(l.registry)
}

// Package registry tracks one Toplevel per host session and reacts to the
// host's lifecycle notifications.
package registry

import (
	"io"
	"log/slog"

	"github.com/1broseidon/sphereland/internal/geom"
	"github.com/1broseidon/sphereland/internal/platform"
	"github.com/1broseidon/sphereland/internal/surface"
)

// Config holds the dependencies of a Registry.
type Config struct {
	Scene   platform.Scene
	Surface surface.Options
	Logger  *slog.Logger
}

type entry struct {
	item     platform.Item
	toplevel *surface.Toplevel
}

// Registry owns every live Toplevel. It is driven from a single goroutine
// and does no locking.
type Registry struct {
	scene  platform.Scene
	opts   surface.Options
	logger *slog.Logger

	sessions map[platform.SessionID]*entry
	order    []platform.SessionID
	frames   uint64
}

// New creates an empty registry.
func New(cfg Config) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts := cfg.Surface
	if opts.Logger == nil {
		opts.Logger = logger
	}
	return &Registry{
		scene:    cfg.Scene,
		opts:     opts,
		logger:   logger,
		sessions: make(map[platform.SessionID]*entry),
	}
}

// OnSessionCreated builds a Toplevel for a new session. If the root surface
// cannot be built the session is ignored. A handle that is already live is
// replaced.
func (r *Registry) OnSessionCreated(session platform.SessionID, item platform.Item, init surface.InitData) bool {
	toplevel, err := surface.NewToplevel(r.scene, platform.Root, item, init, r.opts)
	if err != nil {
		r.logger.Warn("ignoring session", "session", session, "error", err)
		return false
	}
	if _, exists := r.sessions[session]; exists {
		r.logger.Info("session handle reused, replacing toplevel", "session", session)
		r.remove(session)
	}

	r.sessions[session] = &entry{item: item, toplevel: toplevel}
	r.order = append(r.order, session)
	r.logger.Debug("session created",
		"session", session,
		"width", init.Size.Width,
		"height", init.Size.Height,
		"children", len(toplevel.Children()))
	return true
}

// OnSessionDestroyed drops a session's Toplevel and surface tree.
func (r *Registry) OnSessionDestroyed(session platform.SessionID) {
	if r.remove(session) {
		r.logger.Debug("session destroyed", "session", session)
	}
}

// OnAcceptorCaptured registers a session handed to this client.
func (r *Registry) OnAcceptorCaptured(session platform.SessionID, item platform.Item, init surface.InitData) bool {
	return r.OnSessionCreated(session, item, init)
}

// OnAcceptorReleased drops a session taken back from this client.
func (r *Registry) OnAcceptorReleased(session platform.SessionID) {
	r.OnSessionDestroyed(session)
}

// OnSessionCaptured disables a session captured elsewhere. item may be nil,
// in which case the registered drawable's touches are reset.
func (r *Registry) OnSessionCaptured(session platform.SessionID, item platform.Item) {
	r.setEnabled(session, item, false)
}

// OnSessionReleased re-enables a session after capture.
func (r *Registry) OnSessionReleased(session platform.SessionID, item platform.Item) {
	r.setEnabled(session, item, true)
}

func (r *Registry) setEnabled(session platform.SessionID, item platform.Item, enabled bool) {
	e, ok := r.sessions[session]
	if item == nil && ok {
		item = e.item
	}
	if item != nil {
		if err := item.ResetTouches(); err != nil {
			r.logger.Debug("reset touches", "session", session, "error", err)
		}
	}
	if !ok {
		return
	}
	e.toplevel.SetEnabled(enabled)
}

// OnToplevelResized resizes a session's root surface.
func (r *Registry) OnToplevelResized(session platform.SessionID, size geom.PixelSize) {
	e, ok := r.sessions[session]
	if !ok {
		return
	}
	if err := e.toplevel.Resize(size); err != nil {
		r.logger.Warn("resize toplevel", "session", session, "error", err)
	}
}

// OnChildCreated adds a child surface to a session.
func (r *Registry) OnChildCreated(session platform.SessionID, info surface.ChildInfo) {
	e, ok := r.sessions[session]
	if !ok {
		return
	}
	if err := e.toplevel.AddChild(info); err != nil {
		r.logger.Warn("ignoring child", "session", session, "child", info.ID, "error", err)
	}
}

// OnChildRepositioned moves and resizes an existing child surface.
func (r *Registry) OnChildRepositioned(session platform.SessionID, uid string, geometry geom.Geometry) {
	e, ok := r.sessions[session]
	if !ok {
		return
	}
	if err := e.toplevel.RepositionChild(uid, geometry); err != nil {
		r.logger.Warn("reposition child", "session", session, "child", uid, "error", err)
	}
}

// OnChildDestroyed removes a child surface and everything nested under it.
func (r *Registry) OnChildDestroyed(session platform.SessionID, uid string) {
	if e, ok := r.sessions[session]; ok {
		e.toplevel.RemoveChild(uid)
	}
}

// Frame updates every enabled Toplevel in creation order.
func (r *Registry) Frame(info platform.FrameInfo) {
	r.frames++
	for _, session := range r.order {
		e := r.sessions[session]
		if !e.toplevel.Enabled() {
			continue
		}
		e.toplevel.Update(info)
	}
}

// Reconcile drops every session the host no longer reports as live and
// returns the dropped handles.
func (r *Registry) Reconcile(live []platform.SessionID) []platform.SessionID {
	alive := make(map[platform.SessionID]bool, len(live))
	for _, s := range live {
		alive[s] = true
	}

	var orphaned []platform.SessionID
	for _, session := range r.order {
		if !alive[session] {
			orphaned = append(orphaned, session)
		}
	}
	for _, session := range orphaned {
		r.logger.Info("orphaned session detected", "session", session)
		r.remove(session)
	}
	return orphaned
}

func (r *Registry) remove(session platform.SessionID) bool {
	e, ok := r.sessions[session]
	if !ok {
		return false
	}
	delete(r.sessions, session)
	for i, s := range r.order {
		if s == session {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if err := e.toplevel.Destroy(); err != nil {
		r.logger.Debug("destroy toplevel", "session", session, "error", err)
	}
	return true
}

// Get returns the Toplevel of session.
func (r *Registry) Get(session platform.SessionID) (*surface.Toplevel, bool) {
	e, ok := r.sessions[session]
	if !ok {
		return nil, false
	}
	return e.toplevel, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

// Frames returns the number of frames processed.
func (r *Registry) Frames() uint64 {
	return r.frames
}

package registry

import (
	"github.com/1broseidon/sphereland/internal/geom"
	"github.com/1broseidon/sphereland/internal/platform"
)

// SessionInfo summarizes one live session.
type SessionInfo struct {
	Session  platform.SessionID
	Enabled  bool
	Size     geom.PixelSize
	Physical [2]float32
	Children []string
}

// Snapshot returns a summary of every live session in creation order.
func (r *Registry) Snapshot() []SessionInfo {
	out := make([]SessionInfo, 0, len(r.order))
	for _, session := range r.order {
		tl := r.sessions[session].toplevel
		root := tl.Root()
		physical := root.PhysicalSize()
		out = append(out, SessionInfo{
			Session:  session,
			Enabled:  tl.Enabled(),
			Size:     root.PixelSize(),
			Physical: [2]float32{physical.X(), physical.Y()},
			Children: tl.Children(),
		})
	}
	return out
}

// SurfaceCount returns the number of surfaces across all sessions.
func (r *Registry) SurfaceCount() int {
	n := 0
	for _, e := range r.sessions {
		n += e.toplevel.Len()
	}
	return n
}

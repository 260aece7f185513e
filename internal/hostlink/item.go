package hostlink

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/1broseidon/sphereland/internal/platform"
)

// sessionItem sends one session's pointer events over the link.
type sessionItem struct {
	conn    *Conn
	session platform.SessionID
}

// Item returns the drawable of session.
func (c *Conn) Item(session platform.SessionID) platform.Item {
	return &sessionItem{conn: c, session: session}
}

func (i *sessionItem) frame(typ string, surface platform.SurfaceID) wireFrame {
	return wireFrame{Type: typ, Session: string(i.session), Surface: surface.String()}
}

func (i *sessionItem) ApplySurfaceMaterial(surface platform.SurfaceID, model platform.NodeID) error {
	f := i.frame(typeMaterial, surface)
	f.Node = uint32(model)
	return i.conn.send(f)
}

func (i *sessionItem) PointerMotion(surface platform.SurfaceID, position mgl32.Vec2) error {
	f := i.frame(typeMotion, surface)
	f.Position = []float32{position.X(), position.Y()}
	return i.conn.send(f)
}

func (i *sessionItem) PointerScroll(surface platform.SurfaceID, continuous, discrete *mgl32.Vec2) error {
	f := i.frame(typeScroll, surface)
	f.Continuous = vec2Slice(continuous)
	f.Discrete = vec2Slice(discrete)
	return i.conn.send(f)
}

func (i *sessionItem) PointerButton(surface platform.SurfaceID, button uint32, pressed bool) error {
	f := i.frame(typeButton, surface)
	f.Button = button
	f.Pressed = pressed
	return i.conn.send(f)
}

func (i *sessionItem) ResetTouches() error {
	return i.conn.send(wireFrame{Type: typeResetTouches, Session: string(i.session)})
}

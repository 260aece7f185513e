package daemon

import (
	"github.com/1broseidon/sphereland/internal/geom"
	"github.com/1broseidon/sphereland/internal/platform"
	"github.com/1broseidon/sphereland/internal/registry"
	"github.com/1broseidon/sphereland/internal/surface"
)

// Event is a host notification applied to the registry on the loop goroutine.
type Event interface {
	Apply(r *registry.Registry)
}

// SessionCreated announces a new remote window.
type SessionCreated struct {
	Session platform.SessionID
	Item    platform.Item
	Init    surface.InitData
}

func (e SessionCreated) Apply(r *registry.Registry) {
	r.OnSessionCreated(e.Session, e.Item, e.Init)
}

// SessionDestroyed announces that a remote window is gone.
type SessionDestroyed struct {
	Session platform.SessionID
}

func (e SessionDestroyed) Apply(r *registry.Registry) {
	r.OnSessionDestroyed(e.Session)
}

// SessionCaptured announces that another client took the window.
type SessionCaptured struct {
	Session platform.SessionID
	Item    platform.Item
}

func (e SessionCaptured) Apply(r *registry.Registry) {
	r.OnSessionCaptured(e.Session, e.Item)
}

// SessionReleased announces that another client gave the window back.
type SessionReleased struct {
	Session platform.SessionID
	Item    platform.Item
}

func (e SessionReleased) Apply(r *registry.Registry) {
	r.OnSessionReleased(e.Session, e.Item)
}

// AcceptorCaptured hands a window to this client.
type AcceptorCaptured struct {
	Session platform.SessionID
	Item    platform.Item
	Init    surface.InitData
}

func (e AcceptorCaptured) Apply(r *registry.Registry) {
	r.OnAcceptorCaptured(e.Session, e.Item, e.Init)
}

// AcceptorReleased takes a window away from this client.
type AcceptorReleased struct {
	Session platform.SessionID
}

func (e AcceptorReleased) Apply(r *registry.Registry) {
	r.OnAcceptorReleased(e.Session)
}

// ToplevelResized carries a new root pixel size.
type ToplevelResized struct {
	Session platform.SessionID
	Size    geom.PixelSize
}

func (e ToplevelResized) Apply(r *registry.Registry) {
	r.OnToplevelResized(e.Session, e.Size)
}

// ChildCreated adds a popup or other transient surface.
type ChildCreated struct {
	Session platform.SessionID
	Child   surface.ChildInfo
}

func (e ChildCreated) Apply(r *registry.Registry) {
	r.OnChildCreated(e.Session, e.Child)
}

// ChildRepositioned carries new geometry for an existing child.
type ChildRepositioned struct {
	Session  platform.SessionID
	Child    string
	Geometry geom.Geometry
}

func (e ChildRepositioned) Apply(r *registry.Registry) {
	r.OnChildRepositioned(e.Session, e.Child, e.Geometry)
}

// ChildDestroyed removes a child surface.
type ChildDestroyed struct {
	Session platform.SessionID
	Child   string
}

func (e ChildDestroyed) Apply(r *registry.Registry) {
	r.OnChildDestroyed(e.Session, e.Child)
}

// Frame is one host frame tick.
type Frame struct {
	Info platform.FrameInfo
}

func (e Frame) Apply(r *registry.Registry) {
	r.Frame(e.Info)
}

// SessionList is the host's answer to a session list request.
type SessionList struct {
	Live []platform.SessionID
}

func (e SessionList) Apply(r *registry.Registry) {
	r.Reconcile(e.Live)
}

type query struct {
	fn   func(r *registry.Registry)
	done chan struct{}
}

func (q query) Apply(r *registry.Registry) {
	defer close(q.done)
	q.fn(r)
}

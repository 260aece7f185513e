// Package hostlink connects the client to the spatial host over a unix socket
// carrying a stream of CBOR frames. Inbound lifecycle and frame notifications
// become daemon events; outbound frames carry pointer events and mirror the
// client's scene nodes.
package hostlink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/1broseidon/sphereland/internal/daemon"
	"github.com/1broseidon/sphereland/internal/platform"
)

var (
	// ErrClosed is returned when the host link is closed.
	ErrClosed = errors.New("host link closed")
	// ErrQueueFull is returned when the host is not draining outbound frames
	// fast enough. The frame is dropped.
	ErrQueueFull = errors.New("host send queue full")
)

const protocolVersion = 1

// DefaultSendQueue is the outbound frame capacity when Config.SendQueue is 0.
const DefaultSendQueue = 256

// Poster receives decoded host events.
type Poster interface {
	Post(ctx context.Context, ev daemon.Event) error
}

// Config holds configuration for a host link.
type Config struct {
	// ClientID identifies this client instance to the host. A random id is
	// generated when empty.
	ClientID string
	// SendQueue bounds the frames waiting to be written to the host.
	SendQueue int
	Logger    *slog.Logger
}

// Conn is a connection to the host. Sends never block: frames are queued for
// a writer goroutine and dropped when the queue is full. Sends are safe for
// concurrent use; Serve must be called from a single goroutine.
type Conn struct {
	conn     net.Conn
	dec      *cbor.Decoder
	clientID string
	logger   *slog.Logger
	out      chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial connects to the host socket at path and sends the hello frame.
func Dial(ctx context.Context, path string, cfg Config) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect to host at %s: %w", path, err)
	}
	c := NewConn(nc, cfg)
	if err := c.hello(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// NewConn wraps an established connection. The hello frame is not sent.
func NewConn(nc net.Conn, cfg Config) *Conn {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	queue := cfg.SendQueue
	if queue <= 0 {
		queue = DefaultSendQueue
	}
	c := &Conn{
		conn:     nc,
		dec:      newDecoder(nc),
		clientID: clientID,
		logger:   logger.With("client_id", clientID),
		out:      make(chan []byte, queue),
		closed:   make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// ClientID returns the id this client announced to the host.
func (c *Conn) ClientID() string {
	return c.clientID
}

// Close closes the connection. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Conn) send(f wireFrame) error {
	if c.isClosed() {
		return ErrClosed
	}
	data, err := encMode.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.Type, err)
	}
	select {
	case c.out <- data:
		return nil
	case <-c.closed:
		return ErrClosed
	default:
		return fmt.Errorf("send %s: %w", f.Type, ErrQueueFull)
	}
}

// writeLoop writes queued frames in order. A failed write closes the link,
// which ends Serve.
func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.closed:
			return
		case data := <-c.out:
			if _, err := c.conn.Write(data); err != nil {
				if !c.isClosed() {
					c.logger.Warn("write to host failed", "error", err)
				}
				c.Close()
				return
			}
		}
	}
}

func (c *Conn) hello() error {
	return c.send(wireFrame{Type: typeHello, ClientID: c.clientID, Version: protocolVersion})
}

// RequestSessions asks the host for its live session list. The answer is
// delivered through Serve as a daemon.SessionList event.
func (c *Conn) RequestSessions() error {
	return c.send(wireFrame{Type: typeListSessions})
}

// Serve reads host frames and posts the matching events to sink until ctx is
// cancelled or the host hangs up. Malformed frames are logged and skipped.
// The connection is closed when Serve returns.
func (c *Conn) Serve(ctx context.Context, sink Poster) error {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()
	defer c.Close()

	for {
		var raw cbor.RawMessage
		if err := c.dec.Decode(&raw); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || c.isClosed() {
				return ErrClosed
			}
			return fmt.Errorf("read host frame: %w", err)
		}

		var f wireFrame
		if err := decMode.Unmarshal(raw, &f); err != nil {
			c.logger.Warn("dropping undecodable host frame", "error", err)
			continue
		}

		ev, err := c.event(&f)
		if err != nil {
			c.logger.Warn("dropping host frame", "type", f.Type, "session", f.Session, "error", err)
			continue
		}
		if ev == nil {
			continue
		}
		if err := sink.Post(ctx, ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Conn) event(f *wireFrame) (daemon.Event, error) {
	session := platform.SessionID(f.Session)
	switch f.Type {
	case typeFrame:
		inputs, err := f.inputs()
		if err != nil {
			return nil, err
		}
		return daemon.Frame{Info: platform.FrameInfo{
			Delta:   f.Delta,
			Elapsed: f.Elapsed,
			Inputs:  inputs,
		}}, nil
	case typeSessions:
		live := make([]platform.SessionID, 0, len(f.Sessions))
		for _, s := range f.Sessions {
			live = append(live, platform.SessionID(s))
		}
		return daemon.SessionList{Live: live}, nil
	case typeError:
		c.logger.Warn("host reported error", "message", f.Message)
		return nil, nil
	}

	if session == "" {
		return nil, fmt.Errorf("%s frame without session", f.Type)
	}

	switch f.Type {
	case typeCreated, typeAcceptorCaptured:
		init, err := f.initData()
		if err != nil {
			return nil, err
		}
		if f.Type == typeAcceptorCaptured {
			return daemon.AcceptorCaptured{Session: session, Item: c.Item(session), Init: init}, nil
		}
		return daemon.SessionCreated{Session: session, Item: c.Item(session), Init: init}, nil
	case typeDestroyed:
		return daemon.SessionDestroyed{Session: session}, nil
	case typeAcceptorReleased:
		return daemon.AcceptorReleased{Session: session}, nil
	case typeCaptured:
		return daemon.SessionCaptured{Session: session, Item: c.Item(session)}, nil
	case typeReleased:
		return daemon.SessionReleased{Session: session, Item: c.Item(session)}, nil
	case typeToplevelResized:
		if f.Size == nil {
			return nil, errors.New("resize without size")
		}
		return daemon.ToplevelResized{Session: session, Size: f.Size.pixelSize()}, nil
	}

	if f.Child == nil || f.Child.ID == "" {
		return nil, fmt.Errorf("%s frame without child", f.Type)
	}

	switch f.Type {
	case typeChildCreated:
		info, err := f.Child.info()
		if err != nil {
			return nil, err
		}
		return daemon.ChildCreated{Session: session, Child: info}, nil
	case typeChildRepositioned:
		return daemon.ChildRepositioned{Session: session, Child: f.Child.ID, Geometry: f.Child.geometry()}, nil
	case typeChildDestroyed:
		return daemon.ChildDestroyed{Session: session, Child: f.Child.ID}, nil
	}
	return nil, fmt.Errorf("unknown frame type %q", f.Type)
}

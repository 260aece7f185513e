package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/1broseidon/sphereland/internal/config"
	"github.com/1broseidon/sphereland/internal/registry"
	"github.com/1broseidon/sphereland/internal/runtimepath"
)

// Querier runs fn against the registry on the goroutine that owns it.
type Querier interface {
	Query(ctx context.Context, fn func(r *registry.Registry)) error
}

// ServerConfig holds configuration for the control server.
type ServerConfig struct {
	// SocketPath defaults to runtimepath.SocketPath().
	SocketPath string
	Config     *config.Config
	// Load reads a fresh configuration for RELOAD. Defaults to config.Load.
	Load   func() (*config.Config, error)
	Logger *slog.Logger
	// QueryTimeout bounds how long a request waits on the event loop.
	QueryTimeout time.Duration
}

// Server answers control requests on a unix socket, one request per
// connection.
type Server struct {
	socketPath   string
	listener     net.Listener
	cfg          atomic.Pointer[config.Config]
	load         func() (*config.Config, error)
	loop         Querier
	logger       *slog.Logger
	queryTimeout time.Duration
	started      time.Time
	reloaded     chan struct{}
	handlers     map[CommandType]func() *Response
}

func NewServer(cfg ServerConfig, loop Querier) (*Server, error) {
	if cfg.SocketPath == "" {
		path, err := runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve control socket path: %w", err)
		}
		cfg.SocketPath = path
	}
	if cfg.Load == nil {
		cfg.Load = config.Load
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 2 * time.Second
	}

	s := &Server{
		socketPath:   cfg.SocketPath,
		load:         cfg.Load,
		loop:         loop,
		logger:       cfg.Logger,
		queryTimeout: cfg.QueryTimeout,
		started:      time.Now(),
		reloaded:     make(chan struct{}, 1),
	}
	s.cfg.Store(cfg.Config)
	s.handlers = map[CommandType]func() *Response{
		CommandReload:       s.handleReload,
		CommandGetStatus:    s.handleGetStatus,
		CommandListSessions: s.handleListSessions,
	}
	return s, nil
}

func (s *Server) SocketPath() string {
	return s.socketPath
}

// Reloaded is signalled after a successful RELOAD.
func (s *Server) Reloaded() <-chan struct{} {
	return s.reloaded
}

// GetConfig returns the most recently loaded config.
func (s *Server) GetConfig() *config.Config {
	return s.cfg.Load()
}

// Start listens on the socket, replacing a stale one left by a previous run.
func (s *Server) Start() error {
	os.Remove(s.socketPath)
	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create control socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		ln.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}
	s.listener = ln
	s.logger.Info("control socket listening", "socket", s.socketPath)

	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			s.logger.Warn("control accept error", "error", err)
			continue
		}
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	var resp *Response
	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		resp = errorResponse("Invalid request: %v", err)
	} else if handle, ok := s.handlers[req.Command]; ok {
		resp = handle()
	} else {
		resp = errorResponse("Unknown command: %s", req.Command)
	}

	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.logger.Debug("failed to send control response", "command", req.Command, "error", err)
	}
}

func (s *Server) handleReload() *Response {
	s.logger.Info("reload requested")
	cfg, err := s.load()
	if err != nil {
		return errorResponse("Failed to reload config: %v", err)
	}
	s.cfg.Store(cfg)

	select {
	case s.reloaded <- struct{}{}:
	default:
	}
	return okResponse(nil)
}

func (s *Server) query(fn func(r *registry.Registry)) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()
	return s.loop.Query(ctx, fn)
}

func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		DaemonRunning: true,
	}
	err := s.query(func(r *registry.Registry) {
		status.SessionCount = r.Len()
		status.SurfaceCount = r.SurfaceCount()
		status.Frames = r.Frames()
	})
	if err != nil {
		return errorResponse("Failed to query sessions: %v", err)
	}
	return okResponse(status)
}

func (s *Server) handleListSessions() *Response {
	var snapshot []registry.SessionInfo
	if err := s.query(func(r *registry.Registry) { snapshot = r.Snapshot() }); err != nil {
		return errorResponse("Failed to query sessions: %v", err)
	}

	data := SessionsData{Sessions: make([]SessionInfo, 0, len(snapshot))}
	for _, info := range snapshot {
		data.Sessions = append(data.Sessions, SessionInfo{
			Session:        string(info.Session),
			Enabled:        info.Enabled,
			Width:          info.Size.Width,
			Height:         info.Size.Height,
			PhysicalWidth:  info.Physical[0],
			PhysicalHeight: info.Physical[1],
			Children:       info.Children,
		})
	}
	return okResponse(data)
}

// Stop closes the listener and removes the socket file.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType names a control request.
type CommandType string

const (
	CommandReload       CommandType = "RELOAD"
	CommandGetStatus    CommandType = "GET_STATUS"
	CommandListSessions CommandType = "LIST_SESSIONS"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request is one line sent by a client.
type Request struct {
	Command CommandType `json:"command"`
}

// Response is the single line the server answers with.
type Response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData is the GET_STATUS payload.
type StatusData struct {
	SessionCount  int    `json:"session_count"`
	SurfaceCount  int    `json:"surface_count"`
	Frames        uint64 `json:"frames"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
}

// SessionInfo describes one remote window.
type SessionInfo struct {
	Session        string   `json:"session"`
	Enabled        bool     `json:"enabled"`
	Width          uint32   `json:"width"`
	Height         uint32   `json:"height"`
	PhysicalWidth  float32  `json:"physical_width"`
	PhysicalHeight float32  `json:"physical_height"`
	Children       []string `json:"children,omitempty"`
}

// SessionsData is the LIST_SESSIONS payload.
type SessionsData struct {
	Sessions []SessionInfo `json:"sessions"`
}

func okResponse(data any) *Response {
	resp := &Response{Status: StatusOK}
	if data == nil {
		return resp
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return errorResponse("failed to marshal response data: %v", err)
	}
	resp.Data = raw
	return resp
}

func errorResponse(format string, args ...any) *Response {
	return &Response{Status: StatusError, Error: fmt.Sprintf(format, args...)}
}

// Err returns the daemon's error, if the response carries one.
func (r *Response) Err() error {
	if r.Status == StatusError {
		return fmt.Errorf("daemon error: %s", r.Error)
	}
	return nil
}

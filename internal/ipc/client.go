package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/sphereland/internal/runtimepath"
)

// Client talks to a running daemon over its control socket. Each call opens
// its own connection.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient returns a client for the default control socket.
func NewClient() *Client {
	// An unresolvable path surfaces as a dial error on first use.
	path, _ := runtimepath.SocketPath()
	return NewClientAt(path)
}

func NewClientAt(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 5 * time.Second}
}

// call sends cmd and decodes the response data into out, when out is non-nil.
func (c *Client) call(cmd CommandType, out any) error {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(c.timeout))

	if err := json.NewEncoder(conn).Encode(Request{Command: cmd}); err != nil {
		return fmt.Errorf("failed to send %s: %w", cmd, err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("failed to read %s response: %w", cmd, err)
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Reload asks the daemon to re-read its config file.
func (c *Client) Reload() error {
	return c.call(CommandReload, nil)
}

func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) ListSessions() (*SessionsData, error) {
	var data SessionsData
	if err := c.call(CommandListSessions, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

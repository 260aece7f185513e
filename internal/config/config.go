package config

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/1broseidon/sphereland/internal/runtimepath"
)

const (
	DefaultPanelThickness    float32 = 0.005
	DefaultPanelResource             = "sphereland/panel"
	DefaultLogLevel                  = "info"
	DefaultReconcileInterval         = 10 * time.Second
	DefaultQueueSize                 = 256
)

// Config is the effective daemon configuration.
type Config struct {
	HostSocket     string  `yaml:"host_socket"`
	ControlSocket  string  `yaml:"control_socket"`
	PanelThickness float32 `yaml:"panel_thickness"`
	PanelResource  string  `yaml:"panel_resource"`
	LogLevel       string  `yaml:"log_level"`
	// ReconcileInterval of zero disables session reconciliation.
	ReconcileInterval time.Duration `yaml:"-"`
	QueueSize         int           `yaml:"queue_size"`
}

// DefaultConfig returns the configuration used when no file sets a key.
func DefaultConfig() *Config {
	cfg := &Config{
		PanelThickness:    DefaultPanelThickness,
		PanelResource:     DefaultPanelResource,
		LogLevel:          DefaultLogLevel,
		ReconcileInterval: DefaultReconcileInterval,
		QueueSize:         DefaultQueueSize,
	}
	// Validate reports empty socket paths if the runtime dir is unusable.
	if path, err := runtimepath.HostSocketPath(); err == nil {
		cfg.HostSocket = path
	}
	if path, err := runtimepath.SocketPath(); err == nil {
		cfg.ControlSocket = path
	}
	return cfg
}

// MarshalYAML renders the reconcile interval as a duration string.
func (c Config) MarshalYAML() (interface{}, error) {
	type plain Config
	return struct {
		plain             `yaml:",inline"`
		ReconcileInterval string `yaml:"reconcile_interval"`
	}{
		plain:             plain(c),
		ReconcileInterval: c.ReconcileInterval.String(),
	}, nil
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.HostSocket) == "" {
		return &ValidationError{Path: "host_socket", Err: fmt.Errorf("host_socket is required")}
	}
	if strings.TrimSpace(c.ControlSocket) == "" {
		return &ValidationError{Path: "control_socket", Err: fmt.Errorf("control_socket is required")}
	}
	if c.HostSocket == c.ControlSocket {
		return &ValidationError{Path: "control_socket", Err: fmt.Errorf("control_socket must differ from host_socket")}
	}
	if !(c.PanelThickness > 0) || math.IsInf(float64(c.PanelThickness), 0) {
		return &ValidationError{Path: "panel_thickness", Err: fmt.Errorf("panel_thickness must be > 0")}
	}
	if err := validateResource(c.PanelResource); err != nil {
		return &ValidationError{Path: "panel_resource", Err: err}
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.ReconcileInterval < 0 {
		return &ValidationError{Path: "reconcile_interval", Err: fmt.Errorf("reconcile_interval must be >= 0")}
	}
	if c.QueueSize <= 0 {
		return &ValidationError{Path: "queue_size", Err: fmt.Errorf("queue_size must be > 0")}
	}
	return nil
}

func validateResource(resource string) error {
	ns, name, ok := strings.Cut(resource, "/")
	if !ok || ns == "" || name == "" {
		return fmt.Errorf("panel_resource must be namespace/name, got %q", resource)
	}
	return nil
}

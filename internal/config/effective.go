package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw over the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.HostSocket != nil {
		path, err := expandHome(*raw.HostSocket)
		if err != nil {
			return nil, &ValidationError{Path: "host_socket", Err: err}
		}
		cfg.HostSocket = path
	}
	if raw.ControlSocket != nil {
		path, err := expandHome(*raw.ControlSocket)
		if err != nil {
			return nil, &ValidationError{Path: "control_socket", Err: err}
		}
		cfg.ControlSocket = path
	}
	if raw.PanelThickness != nil {
		cfg.PanelThickness = *raw.PanelThickness
	}
	if raw.PanelResource != nil {
		cfg.PanelResource = strings.TrimSpace(*raw.PanelResource)
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
	}
	if raw.ReconcileInterval != nil {
		d, err := parseInterval(*raw.ReconcileInterval)
		if err != nil {
			return nil, &ValidationError{Path: "reconcile_interval", Err: err}
		}
		cfg.ReconcileInterval = d
	}
	if raw.QueueSize != nil {
		cfg.QueueSize = *raw.QueueSize
	}

	return cfg, nil
}

func parseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("reconcile_interval must be a duration like 10s: %w", err)
	}
	return d, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawConfig is one file's worth of settings. Nil fields were not set.
type RawConfig struct {
	Include           IncludeList `yaml:"include"`
	HostSocket        *string     `yaml:"host_socket"`
	ControlSocket     *string     `yaml:"control_socket"`
	PanelThickness    *float32    `yaml:"panel_thickness"`
	PanelResource     *string     `yaml:"panel_resource"`
	LogLevel          *string     `yaml:"log_level"`
	ReconcileInterval *string     `yaml:"reconcile_interval"`
	QueueSize         *int        `yaml:"queue_size"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.HostSocket != nil {
		out.HostSocket = overlay.HostSocket
	}
	if overlay.ControlSocket != nil {
		out.ControlSocket = overlay.ControlSocket
	}
	if overlay.PanelThickness != nil {
		out.PanelThickness = overlay.PanelThickness
	}
	if overlay.PanelResource != nil {
		out.PanelResource = overlay.PanelResource
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.ReconcileInterval != nil {
		out.ReconcileInterval = overlay.ReconcileInterval
	}
	if overlay.QueueSize != nil {
		out.QueueSize = overlay.QueueSize
	}
	// Includes are resolved per file and never merged.
	out.Include = nil

	return out
}

package config

import (
	"fmt"
)

// Explain returns the effective value at the given YAML key and its source.
//
// Supported paths:
//
//	host_socket
//	control_socket
//	panel_thickness
//	panel_resource
//	log_level
//	reconcile_interval
//	queue_size
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	switch path {
	case "host_socket":
		return cfg.HostSocket, nil
	case "control_socket":
		return cfg.ControlSocket, nil
	case "panel_thickness":
		return cfg.PanelThickness, nil
	case "panel_resource":
		return cfg.PanelResource, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "reconcile_interval":
		return cfg.ReconcileInterval.String(), nil
	case "queue_size":
		return cfg.QueueSize, nil
	default:
		return nil, fmt.Errorf("unknown config path %q", path)
	}
}

package config

import (
	"fmt"
	"sync/atomic"
)

// current is the process-wide configuration published by the CLI.
var current atomic.Pointer[Config]

// Initialize loads path (with .env and INTAKE_* overrides) and publishes it
// unless a configuration is already in place. A second call is a no-op.
func Initialize(path string) error {
	if current.Load() != nil {
		return nil
	}
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return err
	}
	current.CompareAndSwap(nil, cfg)
	return nil
}

// GetConfig returns the published configuration or nil.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig publishes cfg, replacing whatever was there. Passing nil clears it.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}

// ReloadConfig re-reads path and publishes it. On error the previous
// configuration stays in place.
func ReloadConfig(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", path, err)
	}
	current.Store(cfg)
	return nil
}

// MustGetConfig is GetConfig for callers that cannot proceed without one.
func MustGetConfig() *Config {
	if cfg := current.Load(); cfg != nil {
		return cfg
	}
	panic("config: no configuration published")
}

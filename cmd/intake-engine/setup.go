package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit/storage"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/catalog"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/cli"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/config"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/override"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/telemetry/logging"
)

// loadConfig loads the --config file with environment overrides and
// publishes it as the process configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err)
	}
	config.SetConfig(cfg)
	return cfg, nil
}

// newLogger builds the process logger from the telemetry section. --verbose
// forces debug level.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	lc := cfg.Telemetry.Logging
	if verbose {
		lc.Level = "debug"
	}
	logger, err := logging.New(logging.FromConfig(lc, w))
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err)
	}
	logger.SetDefault()
	return logger.Slog(), nil
}

// openStorage opens the configured audit backend.
func openStorage(cfg *config.AuditConfig) (audit.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create audit directory: %w", err)
			}
		}
		return storage.NewSQLStorage(&storage.SQLConfig{
			Driver:       cfg.SQLite.Driver,
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	case "postgres":
		return storage.NewSQLStorage(&storage.SQLConfig{
			Driver:       storage.DriverPostgres,
			DSN:          cfg.Postgres.DSN(),
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
		})
	default:
		return nil, cli.NewConfigError("audit.backend", fmt.Errorf("unsupported backend %q (supported: memory, sqlite, postgres)", cfg.Backend))
	}
}

// loadCatalog loads a catalog file or directory. Catalog problems are
// configuration errors.
func loadCatalog(path string) (*catalog.Catalog, error) {
	c, err := catalog.LoadFile(path)
	if err != nil {
		return nil, cli.NewConfigError("catalog.path", err)
	}
	return c, nil
}

// decodeFile decodes a JSON or YAML file into v, rejecting unknown fields.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// readSnapshot decodes and seals a case snapshot file. A snapshot that
// fails to seal is returned unsealed so the orchestrator records the
// rejection on the case's trail.
func readSnapshot(path string) (*intake.CaseSnapshot, error) {
	var raw intake.CaseSnapshot
	if err := decodeFile(path, &raw); err != nil {
		return nil, err
	}
	sealed, err := intake.New(raw)
	if err != nil {
		snap := raw.Clone()
		snap.ID = ""
		return snap, nil
	}
	return sealed, nil
}

// readOverride decodes a discretionary override request file.
func readOverride(path string) (*override.Request, error) {
	var req override.Request
	if err := decodeFile(path, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// openOutput returns the file at path, or stdout when path is empty.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// snapshotFiles expands directories into their YAML and JSON files.
func snapshotFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".yaml", ".yml", ".json":
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	return files, nil
}

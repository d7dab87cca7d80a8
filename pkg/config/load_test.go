package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	configContent := `
catalog:
  path: "./programs.yaml"
  watch: true
  debounce_interval: "250ms"

audit:
  backend: "sqlite"
  sqlite:
    path: "./test-audit.db"
    driver: "sqlite"
    wal_mode: false
  archive:
    enabled: true
    after_days: 60
    format: "csv"

server:
  listen_address: "0.0.0.0:9090"
  read_timeout: "60s"

telemetry:
  logging:
    level: "debug"
    format: "text"
  metrics:
    enabled: false
`
	path := writeConfig(t, t.TempDir(), configContent)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Catalog.Path != "./programs.yaml" {
		t.Errorf("expected catalog path %q, got %q", "./programs.yaml", cfg.Catalog.Path)
	}
	if !cfg.Catalog.Watch {
		t.Error("expected catalog watch to be enabled")
	}
	if cfg.Catalog.DebounceInterval != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %v", cfg.Catalog.DebounceInterval)
	}
	if cfg.Audit.SQLite.Driver != "sqlite" {
		t.Errorf("expected sqlite driver %q, got %q", "sqlite", cfg.Audit.SQLite.Driver)
	}
	if cfg.Audit.SQLite.WALMode {
		t.Error("expected explicit wal_mode: false to be kept")
	}
	if cfg.Audit.Archive.AfterDays != 60 || cfg.Audit.Archive.Format != "csv" {
		t.Errorf("unexpected archive config: %+v", cfg.Audit.Archive)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout 60s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected explicit metrics.enabled: false to be kept")
	}

	// Unset fields receive defaults
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("expected default write timeout %v, got %v", DefaultWriteTimeout, cfg.Server.WriteTimeout)
	}
	if !cfg.Telemetry.Logging.RedactPII {
		t.Error("expected redact_pii to default to true")
	}
	if cfg.Audit.Query.MaxLimit != DefaultAuditQueryMaxLimit {
		t.Errorf("expected default max limit %d, got %d", DefaultAuditQueryMaxLimit, cfg.Audit.Query.MaxLimit)
	}
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Audit.Backend != DefaultAuditBackend {
		t.Errorf("expected backend %q, got %q", DefaultAuditBackend, cfg.Audit.Backend)
	}
	if !cfg.Audit.SQLite.WALMode {
		t.Error("expected wal_mode to default to true")
	}
	if !cfg.Telemetry.Health.Enabled {
		t.Error("expected health to default to enabled")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped not-exist error, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "server: [unclosed")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
audit:
  backend: "cassandra"
telemetry:
  logging:
    level: "verbose"
`)

	_, err := LoadConfig(path)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, `
server:
  listen_address: "127.0.0.1:8080"
telemetry:
  logging:
    level: "info"
`)

	t.Setenv("INTAKE_SERVER_LISTEN_ADDRESS", "0.0.0.0:9999")
	t.Setenv("INTAKE_TELEMETRY_LOGGING_LEVEL", "warn")
	t.Setenv("INTAKE_CATALOG_WATCH", "true")
	t.Setenv("INTAKE_AUDIT_SQLITE_BUSY_TIMEOUT", "2s")
	t.Setenv("INTAKE_TELEMETRY_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("INTAKE_AUDIT_ARCHIVE_AFTER_DAYS", "not-a-number")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9999" {
		t.Errorf("expected listen address override, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected level override, got %q", cfg.Telemetry.Logging.Level)
	}
	if !cfg.Catalog.Watch {
		t.Error("expected catalog watch override")
	}
	if cfg.Audit.SQLite.BusyTimeout != 2*time.Second {
		t.Errorf("expected busy timeout override, got %v", cfg.Audit.SQLite.BusyTimeout)
	}
	if cfg.Telemetry.Tracing.SampleRatio != 0.25 {
		t.Errorf("expected sample ratio override, got %v", cfg.Telemetry.Tracing.SampleRatio)
	}
	if cfg.Audit.Archive.AfterDays != DefaultAuditArchiveAfterDays {
		t.Errorf("expected unparseable override to be ignored, got %d", cfg.Audit.Archive.AfterDays)
	}
}

func TestLoadConfigWithEnvOverrides_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, "")

	dotenv := "INTAKE_AUDIT_BACKEND=memory\nINTAKE_TELEMETRY_LOGGING_FORMAT=text\n"
	if err := os.WriteFile(filepath.Join(dir, DotEnvFile), []byte(dotenv), 0600); err != nil {
		t.Fatal(err)
	}

	// The process environment wins over .env values.
	t.Setenv("INTAKE_TELEMETRY_LOGGING_FORMAT", "console")
	// Register cleanup for the variable .env will set.
	t.Setenv("INTAKE_AUDIT_BACKEND", "")
	os.Unsetenv("INTAKE_AUDIT_BACKEND")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Audit.Backend != "memory" {
		t.Errorf("expected backend from .env, got %q", cfg.Audit.Backend)
	}
	if cfg.Telemetry.Logging.Format != "console" {
		t.Errorf("expected process environment to win, got %q", cfg.Telemetry.Logging.Format)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, "")

	t.Setenv("INTAKE_AUDIT_BACKEND", "mongodb")

	_, err := LoadConfigWithEnvOverrides(path)
	if err == nil {
		t.Fatal("expected validation error after override")
	}
	if !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_ShippedFile(t *testing.T) {
	cfg, err := LoadConfig("../../configs/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !cfg.Catalog.Watch {
		t.Error("shipped config should watch the catalog")
	}
	if cfg.Audit.Backend != "sqlite" || cfg.Audit.SQLite.Driver != "sqlite3" {
		t.Errorf("audit = %s/%s", cfg.Audit.Backend, cfg.Audit.SQLite.Driver)
	}
	if len(cfg.Telemetry.Logging.RedactPatterns) != 1 {
		t.Errorf("redact patterns = %d, want 1", len(cfg.Telemetry.Logging.RedactPatterns))
	}
}

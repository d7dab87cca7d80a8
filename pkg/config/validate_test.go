package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		wantField string
	}{
		{
			name:   "defaults are valid",
			mutate: func(cfg *Config) {},
		},
		{
			name:   "memory backend",
			mutate: func(cfg *Config) { cfg.Audit.Backend = "memory" },
		},
		{
			name:      "unknown backend",
			mutate:    func(cfg *Config) { cfg.Audit.Backend = "redis" },
			wantField: "audit.backend",
		},
		{
			name:      "unknown sqlite driver",
			mutate:    func(cfg *Config) { cfg.Audit.SQLite.Driver = "sqlcipher" },
			wantField: "audit.sqlite.driver",
		},
		{
			name:      "idle exceeds open connections",
			mutate:    func(cfg *Config) { cfg.Audit.SQLite.MaxIdleConns = 50 },
			wantField: "audit.sqlite.max_idle_conns",
		},
		{
			name: "postgres without host",
			mutate: func(cfg *Config) {
				cfg.Audit.Backend = "postgres"
				cfg.Audit.Postgres.Database = "audit"
			},
			wantField: "audit.postgres.host",
		},
		{
			name: "postgres bad sslmode",
			mutate: func(cfg *Config) {
				cfg.Audit.Backend = "postgres"
				cfg.Audit.Postgres.Host = "db"
				cfg.Audit.Postgres.Database = "audit"
				cfg.Audit.Postgres.SSLMode = "sometimes"
			},
			wantField: "audit.postgres.sslmode",
		},
		{
			name:      "max limit below default",
			mutate:    func(cfg *Config) { cfg.Audit.Query.MaxLimit = 10 },
			wantField: "audit.query.max_limit",
		},
		{
			name:      "bad cron schedule",
			mutate:    func(cfg *Config) { cfg.Audit.Archive.Schedule = "every day" },
			wantField: "audit.archive.schedule",
		},
		{
			name:      "bad archive format",
			mutate:    func(cfg *Config) { cfg.Audit.Archive.Format = "parquet" },
			wantField: "audit.archive.format",
		},
		{
			name: "archive enabled without age",
			mutate: func(cfg *Config) {
				cfg.Audit.Archive.Enabled = true
				cfg.Audit.Archive.AfterDays = -1
			},
			wantField: "audit.archive.after_days",
		},
		{
			name:      "listen address without port",
			mutate:    func(cfg *Config) { cfg.Server.ListenAddress = "localhost" },
			wantField: "server.listen_address",
		},
		{
			name:      "negative timeout",
			mutate:    func(cfg *Config) { cfg.Server.WriteTimeout = -time.Second },
			wantField: "server.write_timeout",
		},
		{
			name:      "bad log level",
			mutate:    func(cfg *Config) { cfg.Telemetry.Logging.Level = "trace" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "bad log format",
			mutate:    func(cfg *Config) { cfg.Telemetry.Logging.Format = "xml" },
			wantField: "telemetry.logging.format",
		},
		{
			name: "bad redact pattern",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Logging.RedactPatterns = []RedactPattern{{Name: "case", Pattern: "("}}
			},
			wantField: "telemetry.logging.redact_patterns[0].pattern",
		},
		{
			name:      "metrics path without slash",
			mutate:    func(cfg *Config) { cfg.Telemetry.Metrics.Path = "metrics" },
			wantField: "telemetry.metrics.path",
		},
		{
			name:      "tracing without endpoint",
			mutate:    func(cfg *Config) { cfg.Telemetry.Tracing.Enabled = true },
			wantField: "telemetry.tracing.endpoint",
		},
		{
			name:      "sample ratio out of range",
			mutate:    func(cfg *Config) { cfg.Telemetry.Tracing.SampleRatio = 1.5 },
			wantField: "telemetry.tracing.sample_ratio",
		},
		{
			name:      "health path without slash",
			mutate:    func(cfg *Config) { cfg.Telemetry.Health.ReadinessPath = "ready" },
			wantField: "telemetry.health.readiness_path",
		},
		{
			name:      "health timeout too long",
			mutate:    func(cfg *Config) { cfg.Telemetry.Health.CheckTimeout = 2 * time.Minute },
			wantField: "telemetry.health.check_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for %s, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("unexpected message %q", got)
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	got := multi.Error()
	if !strings.Contains(got, "2 errors") || !strings.Contains(got, "  - b: worse") {
		t.Errorf("unexpected message %q", got)
	}
}

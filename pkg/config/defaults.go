package config

import "time"

// Default values for configuration fields.
const (
	// Catalog defaults
	DefaultCatalogPath             = "./configs/programs.yaml"
	DefaultCatalogWatch            = false
	DefaultCatalogDebounceInterval = 100 * time.Millisecond

	// Audit defaults
	DefaultAuditBackend            = "sqlite"
	DefaultAuditSQLitePath         = "data/audit.db"
	DefaultAuditSQLiteDriver       = "sqlite3"
	DefaultAuditSQLiteMaxOpenConns = 10
	DefaultAuditSQLiteMaxIdleConns = 5
	DefaultAuditSQLiteWALMode      = true
	DefaultAuditSQLiteBusyTimeout  = 5 * time.Second
	DefaultAuditQueryDefaultLimit  = 100
	DefaultAuditQueryMaxLimit      = 10000
	DefaultAuditQueryTimeout       = 30 * time.Second
	DefaultAuditExportJSONPretty   = true
	DefaultAuditExportCSVHeader    = true
	DefaultAuditArchiveEnabled     = false
	DefaultAuditArchiveAfterDays   = 30
	DefaultAuditArchiveSchedule    = "0 3 * * *"
	DefaultAuditArchiveDirectory   = "data/archives/"
	DefaultAuditArchiveFormat      = "json"
	DefaultPostgresPort            = 5432
	DefaultPostgresSSLMode         = "require"
	DefaultPostgresMaxOpenConns    = 10
	DefaultPostgresMaxIdleConns    = 5

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = int64(1 << 20) // 1MB

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultLoggingRedactPII    = true
	DefaultMetricsEnabled      = true
	DefaultPrometheusPath      = "/metrics"
	DefaultMetricsNamespace    = "intake"
	DefaultMetricsSubsystem    = "engine"
	DefaultTracingEnabled      = false
	DefaultTracingSampler      = "ratio"
	DefaultTracingSamplingRate = 1.0
	DefaultTracingServiceName  = "intake-engine"
	DefaultOTLPTimeout         = 10 * time.Second
	DefaultHealthEnabled       = true
	DefaultLivenessPath        = "/healthz"
	DefaultReadinessPath       = "/readyz"
	DefaultVersionPath         = "/version"
	DefaultHealthCheckTimeout  = 5 * time.Second
)

// DefaultEvaluationDurationBuckets covers in-process evaluations from half
// a millisecond up to a slow audit write.
var DefaultEvaluationDurationBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25}

// DefaultConfig returns a configuration with every default applied,
// including boolean settings that default to true. LoadConfig decodes YAML
// on top of it so an explicit false in the file is kept.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Catalog.Watch = DefaultCatalogWatch
	cfg.Audit.SQLite.WALMode = DefaultAuditSQLiteWALMode
	cfg.Audit.Export.JSONPretty = DefaultAuditExportJSONPretty
	cfg.Audit.Export.CSVIncludeHeader = DefaultAuditExportCSVHeader
	cfg.Audit.Archive.Enabled = DefaultAuditArchiveEnabled
	cfg.Telemetry.Logging.RedactPII = DefaultLoggingRedactPII
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Enabled = DefaultTracingEnabled
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any non-boolean fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Catalog defaults
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = DefaultCatalogPath
	}
	if cfg.Catalog.DebounceInterval == 0 {
		cfg.Catalog.DebounceInterval = DefaultCatalogDebounceInterval
	}

	// Audit defaults
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}

	// SQLite defaults
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if cfg.Audit.SQLite.Driver == "" {
		cfg.Audit.SQLite.Driver = DefaultAuditSQLiteDriver
	}
	if cfg.Audit.SQLite.MaxOpenConns == 0 {
		cfg.Audit.SQLite.MaxOpenConns = DefaultAuditSQLiteMaxOpenConns
	}
	if cfg.Audit.SQLite.MaxIdleConns == 0 {
		cfg.Audit.SQLite.MaxIdleConns = DefaultAuditSQLiteMaxIdleConns
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultAuditSQLiteBusyTimeout
	}

	// Postgres defaults
	if cfg.Audit.Postgres.Port == 0 {
		cfg.Audit.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Audit.Postgres.SSLMode == "" {
		cfg.Audit.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.Audit.Postgres.MaxOpenConns == 0 {
		cfg.Audit.Postgres.MaxOpenConns = DefaultPostgresMaxOpenConns
	}
	if cfg.Audit.Postgres.MaxIdleConns == 0 {
		cfg.Audit.Postgres.MaxIdleConns = DefaultPostgresMaxIdleConns
	}

	// Query defaults
	if cfg.Audit.Query.DefaultLimit == 0 {
		cfg.Audit.Query.DefaultLimit = DefaultAuditQueryDefaultLimit
	}
	if cfg.Audit.Query.MaxLimit == 0 {
		cfg.Audit.Query.MaxLimit = DefaultAuditQueryMaxLimit
	}
	if cfg.Audit.Query.Timeout == 0 {
		cfg.Audit.Query.Timeout = DefaultAuditQueryTimeout
	}

	// Archive defaults
	if cfg.Audit.Archive.AfterDays == 0 {
		cfg.Audit.Archive.AfterDays = DefaultAuditArchiveAfterDays
	}
	if cfg.Audit.Archive.Schedule == "" {
		cfg.Audit.Archive.Schedule = DefaultAuditArchiveSchedule
	}
	if cfg.Audit.Archive.Directory == "" {
		cfg.Audit.Archive.Directory = DefaultAuditArchiveDirectory
	}
	if cfg.Audit.Archive.Format == "" {
		cfg.Audit.Archive.Format = DefaultAuditArchiveFormat
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.EvaluationDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.EvaluationDurationBuckets = append([]float64(nil), DefaultEvaluationDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.VersionPath == "" {
		cfg.Telemetry.Health.VersionPath = DefaultVersionPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}

// Package telemetry groups the observability packages of the intake
// engine.
//
// # Components
//
//   - logging: Structured slog logging with youth PII redaction
//   - metrics: Prometheus metrics for evaluations, catalog loads and the audit trail
//   - tracing: OpenTelemetry spans around each evaluation stage
//   - health: Liveness, readiness and version endpoints
//
// # Usage
//
//	cfg := config.GetConfig()
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, os.Stdout))
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//
//	orch := orchestrator.New(trail,
//		orchestrator.WithLogger(logger.Slog()),
//		orchestrator.WithMetrics(collector),
//		orchestrator.WithTracer(tracer.Tracer()),
//	)
//
// # PII Protection
//
// With redact_pii enabled, log values are scrubbed before they are
// written:
//
//   - SSN: 123-45-6789 → ***-**-****
//   - Dates of birth: 04/12/2011 → **/**/****
//   - Emails and phone numbers
//   - Attributes named youth_name, guardian_name, address, dob and similar are dropped
//
// Custom redaction patterns can be configured.
package telemetry

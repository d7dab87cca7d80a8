// Package logging provides structured logging with PII redaction.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON, text, and console formats
//   - Redaction of youth and family identifiers before records are written
//   - Context-aware logging with request, case and snapshot identifiers
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:     "info",
//	    Format:    "json",
//	    RedactPII: true,
//	})
//
//	logger.Info("decision recorded",
//	    "case_id", "C-2024-0113",
//	    "youth_name", "Jordan Doe", // always redacted
//	    "disposition", "release",
//	)
//
//	ctx = logging.WithCase(ctx, "C-2024-0113", "snap-7")
//	logger.InfoContext(ctx, "scoring") // includes case_id and snapshot_id
//
// Components that take a *slog.Logger receive Logger.Slog(); redaction is
// applied by the handler, so those loggers redact too.
//
// # PII Redaction
//
// With RedactPII enabled, values under identifying keys (youth_name,
// guardian_name, dob, address, phone, email, ssn and similar) are replaced
// with [REDACTED], and string values are scanned for:
//
//   - SSN: 123-45-6789 → ***-**-****
//   - Dates of birth: 04/17/2010 → **/**/****
//   - Emails: parent@example.com → ***@***
//   - Phone numbers: (555) 123-4567 → ***-***-****
//
// Additional patterns come from telemetry.logging.redact_patterns.
package logging

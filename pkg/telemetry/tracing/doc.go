// Package tracing provides OpenTelemetry tracing for intake evaluations.
//
// Each evaluation produces one span tree: the root "intake.evaluate" span
// with children for scoring, overrides, eligibility matching, the
// detention decision and the audit write. Spans carry identifiers and
// outcomes only (case, snapshot, catalog version, band, disposition);
// youth and family details are never attached.
//
// # Export
//
// Spans are exported over OTLP gRPC to telemetry.tracing.endpoint. When
// tracing is disabled New returns a noop tracer, so callers never need to
// check whether tracing is on.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "intake.evaluate")
//	defer span.End()
//	tracing.SetCaseAttributes(span, caseID, snapshotID, catalog.Version)
//
// # Sampling
//
// Samplers are parent-based: "always", "never", or "ratio" with
// telemetry.tracing.sample_ratio between 0 and 1.
//
// # HTTP
//
// Middleware continues W3C Trace Context from incoming requests, opens a
// server span per request and returns the trace ID in the X-Trace-ID
// response header.
package tracing

// Package server exposes the intake decision engine over HTTP.
//
// Routes:
//
//	POST /v1/evaluate                     evaluate a snapshot, record the decision
//	GET  /v1/catalog                      active program catalog
//	GET  /v1/audit                        query audit entries across cases
//	GET  /v1/cases/{caseID}/audit         a case's audit trail in sequence order
//	GET  /v1/cases/{caseID}/audit/verify  check a case's hash chain
//
// Health, readiness, version and Prometheus metrics are served on the
// paths configured under telemetry.health and telemetry.metrics.
//
// Every evaluation, successful or not, leaves exactly one audit entry
// when the snapshot carries a case id. Failed evaluations answer with an
// ErrorResponse naming the failure kind and the audit entry that
// recorded it:
//
//	invalid_snapshot, invalid_override_request   400
//	configuration, incomplete_alternatives_review 422
//	catalog not loaded                            503
//	internal                                      500
//
// The middleware chain, outermost first, is panic recovery, request id,
// tracing (when a tracer is supplied) and access logging with HTTP
// metrics. Request bodies on /v1/evaluate are bounded by
// server.max_body_bytes.
//
// Example:
//
//	srv, err := server.NewServer(server.Options{
//	    Config:       cfg,
//	    Orchestrator: orch,
//	    Catalogs:     manager,
//	    Metrics:      collector,
//	    Health:       checker,
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
package server

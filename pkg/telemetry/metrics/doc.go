// Package metrics provides Prometheus metrics for the intake decision engine.
//
// # Metrics Categories
//
//   - Decision Metrics: evaluations by outcome and duration, dispositions,
//     effective bands, override kinds, risk score distribution, and the
//     alternatives selected
//   - Eligibility Metrics: program results and supervisor approvals
//   - Audit Metrics: append attempts and archive runs
//   - Catalog Metrics: load attempts and the active catalog version
//   - HTTP Metrics: API requests by route and status
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	collector.RecordEvaluation("decided", elapsed)
//	collector.RecordDecision("release", "Low", "none", 1)
//	collector.RecordEligibility("teen_court", true, false)
//
//	router.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Metric names are prefixed with the configured namespace and subsystem,
// for example intake_engine_dispositions_total.
//
// # Cardinality
//
// Program and alternative names come from the operator-edited catalog, so
// their label values pass through a CardinalityLimiter. Once the limit is
// reached new names are recorded as "other". Case identifiers and
// assessors are never used as labels.
package metrics

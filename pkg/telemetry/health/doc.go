// Package health provides liveness, readiness and version endpoints.
//
// Liveness only reports that the process is up. Readiness runs every
// registered check concurrently and answers 503 until all pass; the
// engine registers two:
//
//   - catalog: a program catalog with an alternatives ladder is loaded
//   - audit_storage: the audit backend answers a read
//
// Usage:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("catalog", health.CatalogCheck(manager))
//	checker.RegisterCheck("audit_storage", health.AuditStorageCheck(storage))
//
//	router.Get(cfg.Telemetry.Health.LivenessPath, checker.LivenessHandler())
//	router.Get(cfg.Telemetry.Health.ReadinessPath, checker.ReadinessHandler())
package health

// Package orchestrator runs an intake evaluation end to end.
//
// Evaluate takes a sealed case snapshot, the active program catalog and an
// optional discretionary override request, and produces a DecisionBundle:
//
//	risk score -> override decision -> program eligibility -> disposition
//
// Every call appends exactly one entry to the case's audit trail. A
// successful evaluation records a decision entry whose content rebuilds
// the bundle through FromEntry. A failed evaluation records an error
// entry naming the failure kind and returns an *EvaluationError; no
// partial decision is ever written.
//
// Example:
//
//	trail := audit.NewTrail(storage.NewMemoryStorage())
//	orch := orchestrator.New(trail, orchestrator.WithMetrics(collector))
//
//	bundle, err := orch.Evaluate(ctx, orchestrator.Input{
//	    Snapshot: snap,
//	    Catalog:  cat,
//	    Assessor: "officer-17",
//	})
//	if err != nil {
//	    var evalErr *orchestrator.EvaluationError
//	    if errors.As(err, &evalErr) {
//	        log.Printf("recorded as %s (%s)", evalErr.AuditEntryID, evalErr.Kind)
//	    }
//	    return err
//	}
//	fmt.Print(bundle.Summary())
package orchestrator

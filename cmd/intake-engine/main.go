// Intake-engine is the juvenile intake eligibility and risk decision engine.
//
// It scores a case snapshot on the detention risk instrument, applies
// mandatory and discretionary overrides, matches diversion programs from
// the program catalog and walks the less-restrictive alternatives ladder
// before any detention decision. Every evaluation is written to an
// append-only, hash-chained audit trail.
//
// Usage:
//
//	# Evaluate a case snapshot
//	intake-engine evaluate case.yaml
//
//	# Evaluate with a supervisor override
//	intake-engine evaluate case.yaml --override override.yaml --assessor officer-12
//
//	# Start the HTTP server
//	intake-engine serve --config /etc/intake/config.yaml
//
//	# Validate the program catalog
//	intake-engine catalog validate --file configs/programs.yaml
//
//	# Verify a case's audit chain
//	intake-engine audit verify --case JV-2026-0142
package main

func main() {
	Execute()
}

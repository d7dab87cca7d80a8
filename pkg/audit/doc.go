// Package audit is the append-only record of every evaluation.
//
// A Trail is the only writer. Each case has its own chain: entries get a
// per-case sequence number starting at 1, a UTC timestamp that strictly
// increases within the case, and a content hash that covers the previous
// entry's hash. Writes to one case serialize on a per-case lock while
// different cases proceed in parallel; reads never take that lock.
//
// Nothing is ever updated or deleted. A reviewer's change of mind is a new
// correction entry whose Supersedes field names the entry it corrects:
//
//	trail := audit.NewTrail(storage.NewMemoryStorage())
//	id, err := trail.Record(ctx, &audit.Entry{CaseID: "case-42", Kind: audit.KindDecision, ...})
//	...
//	_, err = trail.Correct(ctx, "case-42", id, "supervisor-3", "prior FTA was a clerical error")
//
// Storage backends live in the storage subpackage; query validation,
// export, archive and report are sibling subpackages.
package audit

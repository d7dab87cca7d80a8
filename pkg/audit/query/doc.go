// Package query validates audit queries before they reach a storage backend.
//
// Validate rejects negative pagination, limits above MaxLimit, unknown sort
// orders, inverted time ranges and unknown kind, disposition or band
// filters. ApplyDefaults fills in DefaultLimit and ascending order.
//
//	q := &audit.Query{CaseID: "case-42", Disposition: "release"}
//	if err := query.Prepare(q); err != nil {
//		return err
//	}
//	entries, err := storage.Query(ctx, q)
package query

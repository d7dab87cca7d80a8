// Package export writes audit entries as JSON, CSV or XLSX.
//
// JSON keeps every field of an entry, including the hash chain, so an
// exported case can be re-verified with audit.VerifyChain. CSV and XLSX
// flatten each entry into one row for reviewers.
package export

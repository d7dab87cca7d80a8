// Package report aggregates audit entries into supervisory statistics:
// counts by disposition, band, override kind and eligible program, plus
// the distribution of risk totals.
package report

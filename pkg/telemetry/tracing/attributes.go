package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for intake spans. Only identifiers and decision outcomes
// are recorded; youth and family details never leave the audit trail.
const (
	AttrCaseID         = "intake.case_id"
	AttrSnapshotID     = "intake.snapshot_id"
	AttrCatalogVersion = "intake.catalog_version"
	AttrAssessor       = "intake.assessor"

	AttrRiskTotal = "intake.risk.total"
	AttrRiskBand  = "intake.risk.band"

	AttrOverrideKind     = "intake.override.kind"
	AttrAdjustedBand     = "intake.override.adjusted_band"
	AttrDisposition      = "intake.disposition"
	AttrAlternative      = "intake.alternative.selected"
	AttrProgramsChecked  = "intake.programs.evaluated"
	AttrProgramsEligible = "intake.programs.eligible"

	AttrAuditEntryID = "intake.audit.entry_id"
	AttrAuditSeq     = "intake.audit.sequence"

	AttrErrorKind = "intake.error.kind"
)

// SetCaseAttributes records which case, snapshot and catalog a span
// evaluates.
func SetCaseAttributes(span trace.Span, caseID, snapshotID, catalogVersion string) {
	attrs := []attribute.KeyValue{attribute.String(AttrCaseID, caseID)}
	if snapshotID != "" {
		attrs = append(attrs, attribute.String(AttrSnapshotID, snapshotID))
	}
	if catalogVersion != "" {
		attrs = append(attrs, attribute.String(AttrCatalogVersion, catalogVersion))
	}
	span.SetAttributes(attrs...)
}

// SetScoreAttributes records the risk total and band.
func SetScoreAttributes(span trace.Span, total int, band string) {
	span.SetAttributes(
		attribute.Int(AttrRiskTotal, total),
		attribute.String(AttrRiskBand, band),
	)
}

// SetOverrideAttributes records the override tier and effective band.
func SetOverrideAttributes(span trace.Span, kind, adjustedBand string) {
	span.SetAttributes(
		attribute.String(AttrOverrideKind, kind),
		attribute.String(AttrAdjustedBand, adjustedBand),
	)
}

// SetEligibilityAttributes records how many programs were checked and how
// many the youth qualifies for.
func SetEligibilityAttributes(span trace.Span, evaluated, eligible int) {
	span.SetAttributes(
		attribute.Int(AttrProgramsChecked, evaluated),
		attribute.Int(AttrProgramsEligible, eligible),
	)
}

// SetDispositionAttributes records the final recommendation.
func SetDispositionAttributes(span trace.Span, disposition, selected string) {
	attrs := []attribute.KeyValue{attribute.String(AttrDisposition, disposition)}
	if selected != "" {
		attrs = append(attrs, attribute.String(AttrAlternative, selected))
	}
	span.SetAttributes(attrs...)
}

// SetAuditAttributes records the audit entry written for an evaluation.
func SetAuditAttributes(span trace.Span, entryID string, sequence int64) {
	span.SetAttributes(
		attribute.String(AttrAuditEntryID, entryID),
		attribute.Int64(AttrAuditSeq, sequence),
	)
}

// SetErrorKind records the audit error kind and marks the span failed.
func SetErrorKind(span trace.Span, err error, kind string) {
	span.SetAttributes(attribute.String(AttrErrorKind, kind))
	SetError(span, err)
}

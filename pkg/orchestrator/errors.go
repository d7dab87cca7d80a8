package orchestrator

import (
	"errors"
	"fmt"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/detention"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/eligibility"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/override"
)

// Error kinds recorded on audit error entries.
const (
	KindConfiguration    = "configuration"
	KindInvalidOverride  = "invalid_override_request"
	KindIncompleteReview = "incomplete_alternatives_review"
	KindInvalidSnapshot  = "invalid_snapshot"
	KindInternal         = "internal"
)

// EvaluationError is returned when an evaluation produced no decision. The
// cause keeps its type, so errors.As reaches the component error.
type EvaluationError struct {
	CaseID string
	Kind   string

	// AuditEntryID is the error entry recording the failure; empty when
	// that write failed too or the snapshot had no case id.
	AuditEntryID string

	Cause error
}

// Error returns the error message.
func (e *EvaluationError) Error() string {
	if e.CaseID == "" {
		return fmt.Sprintf("evaluation failed (%s): %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("evaluation of case %s failed (%s): %v", e.CaseID, e.Kind, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

// errMissingCatalog is the cause recorded when no catalog is supplied.
var errMissingCatalog = errors.New("program catalog is required")

// errUnsealedSnapshot is the cause recorded for snapshots not created by
// intake.New.
var errUnsealedSnapshot = errors.New("snapshot has no id; create it with intake.New")

// classify maps a component error to the audit error detail.
func classify(err error) *audit.ErrorDetail {
	detail := &audit.ErrorDetail{Kind: KindInternal, Message: err.Error()}

	var (
		eligErr  *eligibility.ConfigurationError
		altErr   *detention.ConfigurationError
		review   *detention.IncompleteAlternativesReviewError
		ovrErr   *override.InvalidRequestError
		validErr *intake.ValidationError
		conflict *audit.SnapshotConflictError
	)
	switch {
	case errors.As(err, &eligErr):
		detail.Kind = KindConfiguration
		detail.Program = eligErr.Program
		detail.Predicate = eligErr.Predicate
		detail.Field = eligErr.Field
		detail.Fields = eligErr.Missing
		detail.Programs = eligErr.Programs
	case errors.As(err, &altErr):
		detail.Kind = KindConfiguration
		detail.Alternative = altErr.Alternative
		detail.Predicate = altErr.Predicate
		detail.Field = altErr.Field
	case errors.As(err, &review):
		detail.Kind = KindIncompleteReview
		detail.Alternatives = append(detail.Alternatives, review.Missing...)
		detail.Alternatives = append(detail.Alternatives, review.Unconsidered...)
		detail.Alternatives = append(detail.Alternatives, review.Accepted...)
	case errors.As(err, &ovrErr):
		detail.Kind = KindInvalidOverride
		detail.Field = ovrErr.Field
	case errors.As(err, &validErr):
		detail.Kind = KindInvalidSnapshot
		if len(validErr.Errors) > 0 {
			detail.Field = validErr.Errors[0].Field
		}
	case errors.As(err, &conflict):
		detail.Kind = KindInvalidSnapshot
		detail.Field = "id"
	case errors.Is(err, errUnsealedSnapshot):
		detail.Kind = KindInvalidSnapshot
		detail.Field = "id"
	case errors.Is(err, errMissingCatalog):
		detail.Kind = KindConfiguration
	}
	return detail
}

package detention

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	ErrIncompleteReview = errors.New("incomplete alternatives review")
	ErrConfiguration    = errors.New("alternative configuration error")
)

// IncompleteAlternativesReviewError is returned instead of a detention
// recommendation that is not backed by a complete, rejected ladder.
type IncompleteAlternativesReviewError struct {
	// Missing lists standard alternatives absent from the ladder.
	Missing []string
	// Unconsidered lists alternatives that could not be evaluated.
	Unconsidered []string
	// Accepted lists alternatives that were accepted.
	Accepted []string
}

// Error returns the error message.
func (e *IncompleteAlternativesReviewError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unconsidered) > 0 {
		parts = append(parts, "not considered "+strings.Join(e.Unconsidered, ", "))
	}
	if len(e.Accepted) > 0 {
		parts = append(parts, "accepted "+strings.Join(e.Accepted, ", "))
	}
	if len(parts) == 0 {
		return "incomplete alternatives review: ladder is empty"
	}
	return "incomplete alternatives review: " + strings.Join(parts, "; ")
}

// Unwrap returns ErrIncompleteReview.
func (e *IncompleteAlternativesReviewError) Unwrap() error {
	return ErrIncompleteReview
}

// ConfigurationError reports a malformed alternative rule.
type ConfigurationError struct {
	Alternative string
	Predicate   string
	Field       string
	Cause       error
}

// Error returns the error message.
func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("alternative %q", e.Alternative)
	if e.Predicate != "" {
		msg += fmt.Sprintf(" predicate %q", e.Predicate)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" field %q", e.Field)
	}
	return msg + ": " + e.Cause.Error()
}

// Unwrap returns the cause and ErrConfiguration.
func (e *ConfigurationError) Unwrap() []error {
	return []error{ErrConfiguration, e.Cause}
}

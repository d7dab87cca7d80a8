package predicate

import "fmt"

// RuleError indicates a malformed predicate definition.
type RuleError struct {
	Predicate string
	Field     string
	Message   string
}

// Error returns the error message.
func (e *RuleError) Error() string {
	switch {
	case e.Predicate != "" && e.Field != "":
		return fmt.Sprintf("predicate %q field %q: %s", e.Predicate, e.Field, e.Message)
	case e.Predicate != "":
		return fmt.Sprintf("predicate %q: %s", e.Predicate, e.Message)
	default:
		return "predicate: " + e.Message
	}
}

// EvaluationError indicates a predicate could not be evaluated.
type EvaluationError struct {
	Predicate string
	Field     string
	Cause     error
}

// Error returns the error message.
func (e *EvaluationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("predicate %q field %q: %v", e.Predicate, e.Field, e.Cause)
	}
	return fmt.Sprintf("predicate %q: %v", e.Predicate, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

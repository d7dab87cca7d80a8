package intake

import (
	"fmt"
	"strings"
)

// FieldError describes one invalid snapshot field.
type FieldError struct {
	Field   string
	Message string
}

// Error returns the error message.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError is returned when a snapshot fails structural validation.
type ValidationError struct {
	CaseID string
	Errors []FieldError
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "invalid case snapshot"
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	if e.CaseID != "" {
		return fmt.Sprintf("invalid case snapshot %s: %s", e.CaseID, strings.Join(msgs, "; "))
	}
	return "invalid case snapshot: " + strings.Join(msgs, "; ")
}

// HasErrors reports whether any field errors were collected.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

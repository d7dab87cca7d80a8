package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotLoaded is returned when no catalog has been loaded yet.
var ErrNotLoaded = errors.New("program catalog not loaded")

// LoadError represents a failure to read a catalog source.
type LoadError struct {
	// Path is the file or directory that failed to load
	Path string

	// Message describes the error
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load catalog %q: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load catalog %q: %s", e.Path, e.Message)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseError represents a YAML decoding failure.
type ParseError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %q: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError collects every problem found in a catalog.
type ValidationError struct {
	Source string
	Errors []error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = "  - " + err.Error()
	}
	return fmt.Sprintf("catalog %q is invalid (%d errors):\n%s", e.Source, len(e.Errors), strings.Join(msgs, "\n"))
}

// Unwrap returns the individual errors so errors.Is and errors.As reach
// the eligibility and detention configuration errors.
func (e *ValidationError) Unwrap() []error {
	return e.Errors
}

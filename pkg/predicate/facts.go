package predicate

import "errors"

// Facts resolves dotted field names to values for predicate evaluation.
//
// Implementations return an error wrapping ErrUnknownField when the field
// name is not part of their vocabulary, and an error wrapping ErrMissingFact
// when the field is known but no value was captured.
type Facts interface {
	Lookup(field string) (any, error)
}

// Sentinel errors for field resolution.
var (
	// ErrUnknownField indicates a predicate references a field no fact source knows.
	ErrUnknownField = errors.New("unknown field")

	// ErrMissingFact indicates a known field has no captured value.
	ErrMissingFact = errors.New("missing fact")
)

// UnknownFieldError reports a field name that no fact source recognizes.
type UnknownFieldError struct {
	Field string
}

// Error returns the error message.
func (e *UnknownFieldError) Error() string {
	return "unknown field: " + e.Field
}

// Unwrap returns ErrUnknownField.
func (e *UnknownFieldError) Unwrap() error {
	return ErrUnknownField
}

// MissingFactError reports a known field that has no value.
type MissingFactError struct {
	Field string
}

// Error returns the error message.
func (e *MissingFactError) Error() string {
	return "missing fact: " + e.Field
}

// Unwrap returns ErrMissingFact.
func (e *MissingFactError) Unwrap() error {
	return ErrMissingFact
}

// Map is a Facts implementation backed by a plain map. A nil value is
// treated as a missing fact.
type Map map[string]any

// Lookup implements Facts.
func (m Map) Lookup(field string) (any, error) {
	v, ok := m[field]
	if !ok {
		return nil, &UnknownFieldError{Field: field}
	}
	if v == nil {
		return nil, &MissingFactError{Field: field}
	}
	return v, nil
}

// Layered consults each Facts source in order and returns the first answer
// from a source that knows the field.
type Layered []Facts

// Lookup implements Facts.
func (l Layered) Lookup(field string) (any, error) {
	for _, src := range l {
		if src == nil {
			continue
		}
		v, err := src.Lookup(field)
		if errors.Is(err, ErrUnknownField) {
			continue
		}
		return v, err
	}
	return nil, &UnknownFieldError{Field: field}
}

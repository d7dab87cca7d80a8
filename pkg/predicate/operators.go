package predicate

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/cases"
)

// Operator is a comparison operator used by leaf predicates.
type Operator string

const (
	OpEqual        Operator = "eq"
	OpNotEqual     Operator = "ne"
	OpLessThan     Operator = "lt"
	OpLessEqual    Operator = "le"
	OpGreaterThan  Operator = "gt"
	OpGreaterEqual Operator = "ge"
	OpIn           Operator = "in"
	OpNotIn        Operator = "not_in"
	OpContains     Operator = "contains"
	OpBetween      Operator = "between"
)

// Valid reports whether op is a supported operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLessThan, OpLessEqual, OpGreaterThan, OpGreaterEqual,
		OpIn, OpNotIn, OpContains, OpBetween:
		return true
	}
	return false
}

// checkOperand validates the configured value for an operator.
func checkOperand(op Operator, value any) error {
	switch op {
	case OpEqual, OpNotEqual, OpContains:
		if value == nil {
			return fmt.Errorf("operator %q requires a value", op)
		}
	case OpLessThan, OpLessEqual, OpGreaterThan, OpGreaterEqual:
		if _, err := toFloat64(value); err != nil {
			return fmt.Errorf("operator %q requires a numeric value", op)
		}
	case OpIn, OpNotIn:
		if !isList(value) {
			return fmt.Errorf("operator %q requires a list value", op)
		}
	case OpBetween:
		bounds, ok := listValues(value)
		if !ok || len(bounds) != 2 {
			return fmt.Errorf("operator %q requires a [low, high] list", op)
		}
		lo, err1 := toFloat64(bounds[0])
		hi, err2 := toFloat64(bounds[1])
		if err1 != nil || err2 != nil {
			return fmt.Errorf("operator %q requires numeric bounds", op)
		}
		if lo > hi {
			return fmt.Errorf("operator %q low bound exceeds high bound", op)
		}
	}
	return nil
}

// evaluateOperator evaluates an operator comparison between actual and expected values.
func evaluateOperator(op Operator, actual, expected any) (bool, error) {
	switch op {
	case OpEqual:
		return equal(actual, expected), nil

	case OpNotEqual:
		return !equal(actual, expected), nil

	case OpLessThan, OpLessEqual, OpGreaterThan, OpGreaterEqual:
		a, err := toFloat64(actual)
		if err != nil {
			return false, fmt.Errorf("operator %q: %w", op, err)
		}
		e, err := toFloat64(expected)
		if err != nil {
			return false, fmt.Errorf("operator %q: %w", op, err)
		}
		switch op {
		case OpLessThan:
			return a < e, nil
		case OpLessEqual:
			return a <= e, nil
		case OpGreaterThan:
			return a > e, nil
		default:
			return a >= e, nil
		}

	case OpIn:
		return in(actual, expected)

	case OpNotIn:
		found, err := in(actual, expected)
		return !found, err

	case OpContains:
		return contains(actual, expected)

	case OpBetween:
		bounds, ok := listValues(expected)
		if !ok || len(bounds) != 2 {
			return false, fmt.Errorf("operator %q requires a [low, high] list", op)
		}
		a, err := toFloat64(actual)
		if err != nil {
			return false, fmt.Errorf("operator %q: %w", op, err)
		}
		lo, err := toFloat64(bounds[0])
		if err != nil {
			return false, err
		}
		hi, err := toFloat64(bounds[1])
		if err != nil {
			return false, err
		}
		return a >= lo && a <= hi, nil

	default:
		return false, fmt.Errorf("unknown operator: %q", op)
	}
}

// equal compares numerically when both sides are numeric, case-insensitively
// when both are strings, and with reflect.DeepEqual otherwise.
func equal(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}

	a, errA := toFloat64(actual)
	e, errE := toFloat64(expected)
	if errA == nil && errE == nil {
		return a == e
	}

	as, okA := toString(actual)
	es, okE := toString(expected)
	if okA && okE {
		return fold(as) == fold(es)
	}

	return reflect.DeepEqual(actual, expected)
}

// in reports whether actual equals any element of expected. When actual is
// itself a list, any overlap counts.
func in(actual, expected any) (bool, error) {
	candidates, ok := listValues(expected)
	if !ok {
		return false, fmt.Errorf("in operator requires a list, got %T", expected)
	}

	if values, isList := listValues(actual); isList {
		for _, v := range values {
			for _, c := range candidates {
				if equal(v, c) {
					return true, nil
				}
			}
		}
		return false, nil
	}

	for _, c := range candidates {
		if equal(actual, c) {
			return true, nil
		}
	}
	return false, nil
}

// contains reports whether a list holds expected or a string contains it.
func contains(actual, expected any) (bool, error) {
	if values, ok := listValues(actual); ok {
		for _, v := range values {
			if equal(v, expected) {
				return true, nil
			}
		}
		return false, nil
	}

	as, ok := toString(actual)
	if !ok {
		return false, fmt.Errorf("contains operator requires a list or string, got %T", actual)
	}
	es, ok := toString(expected)
	if !ok {
		return false, fmt.Errorf("contains operator requires a string value, got %T", expected)
	}
	return strings.Contains(fold(as), fold(es)), nil
}

// fold case-folds a string for comparison. A new Caser is used per call
// since Casers are not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}

func isList(v any) bool {
	_, ok := listValues(v)
	return ok
}

// listValues flattens slices and arrays into []any.
func listValues(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// toFloat64 converts numeric values to float64.
func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not numeric", v, v)
	}
}

// toString converts string-like values to string.
func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

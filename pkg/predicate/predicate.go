package predicate

import (
	"fmt"
	"strings"
)

// Predicate is a named boolean test over case facts.
//
// A leaf predicate compares one field against a value with an operator. A
// compound predicate combines children with All, Any or Not. Exactly one of
// the two forms must be used.
type Predicate struct {
	// Name identifies the predicate in eligibility results and audit records.
	Name string `yaml:"name" json:"name"`

	// Description is the human-readable barrier text shown when the predicate
	// disqualifies a youth.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	Field string   `yaml:"field,omitempty" json:"field,omitempty"`
	Op    Operator `yaml:"op,omitempty" json:"op,omitempty"`
	Value any      `yaml:"value,omitempty" json:"value,omitempty"`

	All []Predicate `yaml:"all,omitempty" json:"all,omitempty"`
	Any []Predicate `yaml:"any,omitempty" json:"any,omitempty"`
	Not *Predicate  `yaml:"not,omitempty" json:"not,omitempty"`
}

// Label returns the description when present, otherwise the name.
func (p Predicate) Label() string {
	if p.Description != "" {
		return p.Description
	}
	return p.Name
}

func (p Predicate) isLeaf() bool {
	return p.Field != "" || p.Op != ""
}

func (p Predicate) isCompound() bool {
	return len(p.All) > 0 || len(p.Any) > 0 || p.Not != nil
}

// Validate checks that the predicate is well formed. The known function
// reports whether a field name is part of the fact vocabulary; pass nil to
// skip field checks.
func (p Predicate) Validate(known func(string) bool) error {
	return p.validate(known, true)
}

func (p Predicate) validate(known func(string) bool, top bool) error {
	if top && strings.TrimSpace(p.Name) == "" {
		return &RuleError{Message: "predicate name is required"}
	}

	switch {
	case p.isLeaf() && p.isCompound():
		return &RuleError{Predicate: p.Name, Message: "predicate cannot combine field/op with all/any/not"}
	case !p.isLeaf() && !p.isCompound():
		return &RuleError{Predicate: p.Name, Message: "predicate must define field/op or all/any/not"}
	}

	if p.isLeaf() {
		if p.Field == "" {
			return &RuleError{Predicate: p.Name, Message: "field is required"}
		}
		if !p.Op.Valid() {
			return &RuleError{Predicate: p.Name, Field: p.Field, Message: fmt.Sprintf("unknown operator %q", p.Op)}
		}
		if known != nil && !known(p.Field) {
			return &RuleError{Predicate: p.Name, Field: p.Field, Message: "unknown field"}
		}
		if err := checkOperand(p.Op, p.Value); err != nil {
			return &RuleError{Predicate: p.Name, Field: p.Field, Message: err.Error()}
		}
		return nil
	}

	set := 0
	if len(p.All) > 0 {
		set++
	}
	if len(p.Any) > 0 {
		set++
	}
	if p.Not != nil {
		set++
	}
	if set > 1 {
		return &RuleError{Predicate: p.Name, Message: "predicate must use only one of all/any/not"}
	}

	children := append(append([]Predicate{}, p.All...), p.Any...)
	if p.Not != nil {
		children = append(children, *p.Not)
	}
	for _, child := range children {
		if err := child.validate(known, false); err != nil {
			if re, ok := err.(*RuleError); ok && re.Predicate == "" {
				re.Predicate = p.Name
			}
			return err
		}
	}
	return nil
}

// Evaluate evaluates the predicate against facts. It never treats an
// unresolvable field as false: unknown fields and missing facts are returned
// as an *EvaluationError.
//
// All and Any resolve every child before combining results, so a missing
// fact is an error even when a sibling alone would decide the outcome.
func Evaluate(p Predicate, facts Facts) (bool, error) {
	return evaluate(p, p.Name, facts)
}

func evaluate(p Predicate, root string, facts Facts) (bool, error) {
	switch {
	case p.isLeaf():
		actual, err := facts.Lookup(p.Field)
		if err != nil {
			return false, &EvaluationError{Predicate: root, Field: p.Field, Cause: err}
		}
		matched, err := evaluateOperator(p.Op, actual, p.Value)
		if err != nil {
			return false, &EvaluationError{Predicate: root, Field: p.Field, Cause: err}
		}
		return matched, nil

	case len(p.All) > 0:
		return combine(p.All, root, facts, true)

	case len(p.Any) > 0:
		return combine(p.Any, root, facts, false)

	case p.Not != nil:
		matched, err := evaluate(*p.Not, root, facts)
		if err != nil {
			return false, err
		}
		return !matched, nil

	default:
		return false, &EvaluationError{Predicate: root, Cause: fmt.Errorf("empty predicate")}
	}
}

// combine evaluates every child and folds the results with AND (all) or
// OR. The first child error in declaration order wins.
func combine(children []Predicate, root string, facts Facts, all bool) (bool, error) {
	result := all
	var firstErr error
	for _, child := range children {
		matched, err := evaluate(child, root, facts)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if all {
			result = result && matched
		} else {
			result = result || matched
		}
	}
	if firstErr != nil {
		return false, firstErr
	}
	return result, nil
}

// Fields returns every field name referenced by the predicate tree.
func (p Predicate) Fields() []string {
	var out []string
	if p.Field != "" {
		out = append(out, p.Field)
	}
	for _, c := range p.All {
		out = append(out, c.Fields()...)
	}
	for _, c := range p.Any {
		out = append(out, c.Fields()...)
	}
	if p.Not != nil {
		out = append(out, p.Not.Fields()...)
	}
	return out
}

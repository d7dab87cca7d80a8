package eligibility

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/predicate"
)

// Fields returns every field the rule's predicates reference, in first-use
// order without duplicates.
func (r ProgramRule) Fields() []string {
	var out []string
	seen := make(map[string]bool)
	for _, group := range [][]predicate.Predicate{r.RequiredAll, r.ExcludedIfAny, r.SupervisorApprovalIfAny} {
		for _, p := range group {
			for _, f := range p.Fields() {
				if !seen[f] {
					seen[f] = true
					out = append(out, f)
				}
			}
		}
	}
	return out
}

// CheckFacts reports every fact the programs need that facts lacks, as one
// *ConfigurationError with Missing sorted and Programs in input order.
// Fields facts does not know, such as score fields, are left to Match.
func CheckFacts(facts predicate.Facts, programs []ProgramRule) error {
	missing := make(map[string]bool)
	var affected []string
	for _, rule := range programs {
		lacking := false
		for _, f := range rule.Fields() {
			if _, err := facts.Lookup(f); errors.Is(err, predicate.ErrMissingFact) {
				missing[f] = true
				lacking = true
			}
		}
		if lacking {
			affected = append(affected, rule.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	fields := slices.Sorted(maps.Keys(missing))
	ce := &ConfigurationError{
		Field:    fields[0],
		Missing:  fields,
		Programs: affected,
		Cause:    fmt.Errorf("%w: %s", predicate.ErrMissingFact, strings.Join(fields, ", ")),
	}
	if len(affected) == 1 {
		ce.Program = affected[0]
	}
	return ce
}

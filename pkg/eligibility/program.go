package eligibility

import (
	"errors"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/predicate"
)

// ProgramRule is the eligibility rule set for one program.
type ProgramRule struct {
	Name           string `yaml:"name" json:"name"`
	Description    string `yaml:"description,omitempty" json:"description,omitempty"`
	PolicyCitation string `yaml:"policy_citation,omitempty" json:"policy_citation,omitempty"`

	// RequiredAll predicates must all hold.
	RequiredAll []predicate.Predicate `yaml:"required_all,omitempty" json:"required_all,omitempty"`

	// ExcludedIfAny predicates disqualify when any holds, regardless of
	// RequiredAll.
	ExcludedIfAny []predicate.Predicate `yaml:"excluded_if_any,omitempty" json:"excluded_if_any,omitempty"`

	// PreferredOffenseTags are informational and never disqualify.
	PreferredOffenseTags []string `yaml:"preferred_offense_tags,omitempty" json:"preferred_offense_tags,omitempty"`

	// SupervisorApprovalIfAny marks an eligible result as needing supervisor
	// approval when any predicate holds.
	SupervisorApprovalIfAny []predicate.Predicate `yaml:"supervisor_approval_if_any,omitempty" json:"supervisor_approval_if_any,omitempty"`
}

// Validate checks the rule's structure. The known function reports whether a
// field is in the fact vocabulary.
func (r ProgramRule) Validate(known func(string) bool) error {
	if r.Name == "" {
		return &ConfigurationError{Cause: errors.New("program name is required")}
	}

	seen := make(map[string]bool)
	groups := [][]predicate.Predicate{r.RequiredAll, r.ExcludedIfAny, r.SupervisorApprovalIfAny}
	for _, group := range groups {
		for _, p := range group {
			if err := p.Validate(known); err != nil {
				ce := &ConfigurationError{Program: r.Name, Predicate: p.Name, Cause: err}
				var re *predicate.RuleError
				if errors.As(err, &re) {
					ce.Field = re.Field
				}
				return ce
			}
			if seen[p.Name] {
				return &ConfigurationError{
					Program:   r.Name,
					Predicate: p.Name,
					Cause:     errors.New("duplicate predicate name"),
				}
			}
			seen[p.Name] = true
		}
	}
	return nil
}

package detention

import (
	"errors"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/predicate"
)

// Standard alternatives, least restrictive first.
const (
	ParentGuardianRelease   = "parent_guardian_release"
	ResponsibleAdultRelease = "responsible_adult_release"
	ElectronicMonitoring    = "electronic_monitoring"
	ShelterCare             = "shelter_care"
	IntensiveSupervision    = "intensive_supervision"
	DayReporting            = "day_reporting"
)

// StandardLadder lists the alternatives every detention recommendation must
// have considered and rejected.
var StandardLadder = []string{
	ParentGuardianRelease,
	ResponsibleAdultRelease,
	ElectronicMonitoring,
	ShelterCare,
	IntensiveSupervision,
	DayReporting,
}

// Alternative is one rung of the less-restrictive alternatives ladder. It
// is accepted unless a RejectIf predicate holds.
type Alternative struct {
	Name        string                `yaml:"name" json:"name"`
	Description string                `yaml:"description,omitempty" json:"description,omitempty"`
	RejectIf    []predicate.Predicate `yaml:"reject_if,omitempty" json:"reject_if,omitempty"`
}

// Validate checks the alternative's structure.
func (a Alternative) Validate(known func(string) bool) error {
	if a.Name == "" {
		return &ConfigurationError{Cause: errors.New("alternative name is required")}
	}
	for _, p := range a.RejectIf {
		if err := p.Validate(known); err != nil {
			ce := &ConfigurationError{Alternative: a.Name, Predicate: p.Name, Cause: err}
			var re *predicate.RuleError
			if errors.As(err, &re) {
				ce.Field = re.Field
			}
			return ce
		}
	}
	return nil
}

// Review records the outcome of considering one alternative.
type Review struct {
	Alternative string `json:"alternative"`
	Considered  bool   `json:"considered"`
	Accepted    bool   `json:"accepted"`
	Reason      string `json:"reason,omitempty"`
}

// review evaluates one alternative. Any holding RejectIf predicate rejects
// it. Otherwise a missing fact leaves it unconsidered. An unknown field is a
// configuration error.
func review(a Alternative, facts predicate.Facts) (Review, error) {
	r := Review{Alternative: a.Name}
	var missing error
	for _, p := range a.RejectIf {
		reject, err := predicate.Evaluate(p, facts)
		if err != nil {
			if errors.Is(err, predicate.ErrMissingFact) {
				if missing == nil {
					missing = err
				}
				continue
			}
			ce := &ConfigurationError{Alternative: a.Name, Predicate: p.Name, Cause: err}
			var ee *predicate.EvaluationError
			if errors.As(err, &ee) {
				ce.Field = ee.Field
			}
			return Review{}, ce
		}
		if reject {
			r.Considered = true
			r.Reason = p.Label()
			return r, nil
		}
	}
	if missing != nil {
		r.Reason = "not considered: " + missing.Error()
		return r, nil
	}
	r.Considered = true
	r.Accepted = true
	return r, nil
}

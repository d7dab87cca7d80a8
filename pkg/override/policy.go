package override

import (
	"strings"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/disposition"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/risk"
)

// Kind identifies which override tier decided the outcome.
type Kind string

const (
	KindNone             Kind = "none"
	KindMandatoryDetain  Kind = "mandatory_detain"
	KindMandatoryRelease Kind = "mandatory_release"
	KindDiscretionary    Kind = "discretionary"
)

// Direction is the direction of a discretionary band shift.
type Direction string

const (
	MoreRestrictive Direction = "more_restrictive"
	LessRestrictive Direction = "less_restrictive"
)

// Request is a supervisor's request for a discretionary override.
type Request struct {
	Direction     Direction `json:"direction" yaml:"direction"`
	Steps         int       `json:"steps,omitempty" yaml:"steps,omitempty"`
	Justification string    `json:"justification" yaml:"justification"`
	Approver      string    `json:"approver" yaml:"approver"`
	RequestedBy   string    `json:"requested_by,omitempty" yaml:"requested_by,omitempty"`
}

// Validate checks the request. A zero Steps value means one step.
func (r *Request) Validate() error {
	switch r.Direction {
	case MoreRestrictive, LessRestrictive:
	default:
		return &InvalidRequestError{Field: "direction", Reason: "must be more_restrictive or less_restrictive"}
	}
	if r.Steps < 0 || r.Steps > 1 {
		return &InvalidRequestError{Field: "steps", Reason: "a discretionary override may shift at most one band"}
	}
	if strings.TrimSpace(r.Justification) == "" {
		return &InvalidRequestError{Field: "justification", Reason: "justification is required"}
	}
	approver := strings.TrimSpace(r.Approver)
	if approver == "" || strings.EqualFold(approver, "none") {
		return &InvalidRequestError{Field: "approver", Reason: "an approving supervisor is required"}
	}
	return nil
}

func (r *Request) shift() int {
	if r.Direction == LessRestrictive {
		return -1
	}
	return 1
}

// Decision records how overrides constrain the disposition.
type Decision struct {
	Kind Kind `json:"kind"`

	// MandatoryConditions names every condition in the deciding mandatory tier.
	MandatoryConditions []string `json:"mandatory_conditions,omitempty"`

	// Floor is the least restrictive disposition allowed; empty when unset.
	Floor disposition.Kind `json:"floor,omitempty"`
	// Ceiling is the most restrictive disposition allowed; empty when unset.
	Ceiling disposition.Kind `json:"ceiling,omitempty"`

	DiscretionaryRequested bool     `json:"discretionary_requested"`
	DiscretionaryApplied   bool     `json:"discretionary_applied"`
	BandShift              int      `json:"band_shift,omitempty"`
	Request                *Request `json:"request,omitempty"`

	BaseBand     risk.Band `json:"base_band"`
	AdjustedBand risk.Band `json:"adjusted_band"`

	Notes string `json:"notes,omitempty"`
}

// Mandatory reports whether a mandatory override decided the outcome.
func (d Decision) Mandatory() bool {
	return d.Kind == KindMandatoryDetain || d.Kind == KindMandatoryRelease
}

// Condition is a named mandatory override condition.
type Condition struct {
	Name        string
	Description string
	holds       func(s *intake.CaseSnapshot) bool
}

// tier is one precedence level of mandatory conditions and its effect.
type tier struct {
	kind       Kind
	conditions []Condition
	apply      func(d *Decision)
}

// Policy applies override tiers in fixed precedence: mandatory detain,
// then mandatory release, then discretionary. It is safe for concurrent use.
type Policy struct {
	tiers []tier
}

// NewPolicy creates the override policy with the standard conditions.
func NewPolicy() *Policy {
	return &Policy{tiers: []tier{
		{
			kind:       KindMandatoryDetain,
			conditions: DetainConditions(),
			apply:      func(d *Decision) { d.Floor = disposition.AlternativeToDetention },
		},
		{
			kind:       KindMandatoryRelease,
			conditions: ReleaseConditions(),
			apply:      func(d *Decision) { d.Ceiling = disposition.Release },
		},
	}}
}

// DetainConditions returns the mandatory detain conditions in order.
func DetainConditions() []Condition {
	return []Condition{
		{
			Name:        "murder_or_attempted_murder",
			Description: "current charge is murder or attempted murder",
			holds: func(s *intake.CaseSnapshot) bool {
				return s.Offense.HasTag(intake.TagMurder) || s.Offense.HasTag(intake.TagAttemptedMurder)
			},
		},
		{
			Name:        "first_degree_sexual_assault",
			Description: "current charge is first-degree sexual assault",
			holds: func(s *intake.CaseSnapshot) bool {
				return s.Offense.HasTag(intake.TagSexualAssaultFirstDegree)
			},
		},
		{
			Name:        "firearm_used_in_felony",
			Description: "a firearm was used in the commission of a felony",
			holds: func(s *intake.CaseSnapshot) bool {
				return s.Offense.Severity.IsFelony() && s.Offense.HasTag(intake.TagFirearmUsed)
			},
		},
		{
			Name:        "escape_from_secure_detention_30_days",
			Description: "escaped from secure detention within the last 30 days",
			holds: func(s *intake.CaseSnapshot) bool {
				return s.History.EscapedSecureDetentionWithin30Days || s.Offense.HasTag(intake.TagEscapeFromSecureDetention)
			},
		},
	}
}

// ReleaseConditions returns the mandatory release conditions in order.
func ReleaseConditions() []Condition {
	return []Condition{
		{
			Name:        "under_12_non_violent",
			Description: "youth is under 12 and the current offense is not a violent felony",
			holds: func(s *intake.CaseSnapshot) bool {
				return s.Youth.Age < 12 && !s.Offense.Severity.IsViolentFelony()
			},
		},
		{
			Name:        "status_offense_only",
			Description: "the only current charge is a status offense",
			holds: func(s *intake.CaseSnapshot) bool {
				return s.Offense.Severity == intake.SeverityStatus
			},
		},
		{
			Name:        "medical_care_unavailable",
			Description: "youth requires medical care unavailable in secure detention",
			holds: func(s *intake.CaseSnapshot) bool {
				return s.Flags.MedicalCareUnavailable
			},
		},
	}
}

// Apply evaluates the override tiers for a scored snapshot. A non-nil
// request is validated first; an invalid request fails the call.
func (p *Policy) Apply(s *intake.CaseSnapshot, score risk.Score, req *Request) (Decision, error) {
	d := Decision{
		Kind:         KindNone,
		BaseBand:     score.Band,
		AdjustedBand: score.Band,
	}

	if req != nil {
		if err := req.Validate(); err != nil {
			return Decision{}, err
		}
		r := *req
		d.DiscretionaryRequested = true
		d.Request = &r
	}

	for _, t := range p.tiers {
		var fired []string
		for _, c := range t.conditions {
			if c.holds(s) {
				fired = append(fired, c.Name)
			}
		}
		if len(fired) == 0 {
			continue
		}
		d.Kind = t.kind
		d.MandatoryConditions = fired
		t.apply(&d)
		if d.DiscretionaryRequested {
			d.Notes = "discretionary request not applied: " + string(t.kind) + " override fired"
		}
		return d, nil
	}

	if req != nil {
		d.Kind = KindDiscretionary
		d.DiscretionaryApplied = true
		d.BandShift = req.shift()
		d.AdjustedBand = score.Band.Shift(d.BandShift)
		if d.AdjustedBand == score.Band {
			d.Notes = "band already at the " + string(req.Direction) + " limit"
		}
	}
	return d, nil
}

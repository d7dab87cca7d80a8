package intake

import (
	"sort"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/predicate"
)

// resolver extracts one fact. The boolean is false when an optional fact
// was not captured.
type resolver func(s *CaseSnapshot) (any, bool)

func always(fn func(s *CaseSnapshot) any) resolver {
	return func(s *CaseSnapshot) (any, bool) { return fn(s), true }
}

func optional(fn func(s *CaseSnapshot) *bool) resolver {
	return func(s *CaseSnapshot) (any, bool) {
		b := fn(s)
		if b == nil {
			return nil, false
		}
		return *b, true
	}
}

var fields = map[string]resolver{
	"youth.age":                          always(func(s *CaseSnapshot) any { return s.Youth.Age }),
	"youth.admits_responsibility":        optional(func(s *CaseSnapshot) *bool { return s.Youth.AdmitsResponsibility }),
	"youth.family_participation_consent": optional(func(s *CaseSnapshot) *bool { return s.Youth.FamilyParticipationConsent }),
	"youth.school_enrolled":              optional(func(s *CaseSnapshot) *bool { return s.Youth.SchoolEnrolled }),
	"youth.responsible_adult_available":  optional(func(s *CaseSnapshot) *bool { return s.Youth.ResponsibleAdultAvailable }),

	"offense.severity":          always(func(s *CaseSnapshot) any { return string(s.Offense.Severity) }),
	"offense.weapon":            always(func(s *CaseSnapshot) any { return s.Offense.Weapon }),
	"offense.tags":              always(func(s *CaseSnapshot) any { return append([]string{}, s.Offense.Tags...) }),
	"offense.is_status":         always(func(s *CaseSnapshot) any { return s.Offense.Severity == SeverityStatus }),
	"offense.is_misdemeanor":    always(func(s *CaseSnapshot) any { return s.Offense.Severity.IsMisdemeanor() }),
	"offense.is_felony":         always(func(s *CaseSnapshot) any { return s.Offense.Severity.IsFelony() }),
	"offense.is_violent_felony": always(func(s *CaseSnapshot) any { return s.Offense.Severity.IsViolentFelony() }),

	"history.referral_count":        always(func(s *CaseSnapshot) any { return s.History.ReferralCount }),
	"history.adjudication_count":    always(func(s *CaseSnapshot) any { return s.History.AdjudicationCount }),
	"history.prior_felony":          always(func(s *CaseSnapshot) any { return s.History.PriorFelony }),
	"history.prior_violent":         always(func(s *CaseSnapshot) any { return s.History.PriorViolent }),
	"history.first_time":            always(func(s *CaseSnapshot) any { return s.FirstTime() }),
	"history.escaped_detention_30d": always(func(s *CaseSnapshot) any { return s.History.EscapedSecureDetentionWithin30Days }),

	"supervision.statuses": always(func(s *CaseSnapshot) any {
		out := make([]string, 0, len(s.Supervision))
		for _, st := range s.Supervision {
			out = append(out, string(st))
		}
		return out
	}),
	"supervision.active": always(func(s *CaseSnapshot) any {
		for _, st := range s.Supervision {
			if st != SupervisionNone {
				return true
			}
		}
		return false
	}),

	"fta.within_12_months":     always(func(s *CaseSnapshot) any { return s.FTA.WithinTwelveMonths }),
	"fta.older_than_12_months": always(func(s *CaseSnapshot) any { return s.FTA.OlderThanTwelveMonths }),
	"fta.total":                always(func(s *CaseSnapshot) any { return s.FTA.Total() }),

	"living_situation": always(func(s *CaseSnapshot) any { return string(s.LivingSituation) }),

	"flags.mental_health_crisis":       always(func(s *CaseSnapshot) any { return s.Flags.MentalHealthCrisis }),
	"flags.immigration_status_present": always(func(s *CaseSnapshot) any { return s.Flags.ImmigrationStatusPresent }),
	"flags.disability":                 always(func(s *CaseSnapshot) any { return s.Flags.Disability }),
	"flags.pregnant_or_parenting":      always(func(s *CaseSnapshot) any { return s.Flags.PregnantOrParenting }),
	"flags.medical_care_unavailable":   always(func(s *CaseSnapshot) any { return s.Flags.MedicalCareUnavailable }),
	"flags.substance_use_indicated":    optional(func(s *CaseSnapshot) *bool { return s.Flags.SubstanceUseIndicated }),
	"flags.mental_health_need":         optional(func(s *CaseSnapshot) *bool { return s.Flags.MentalHealthNeed }),
}

// KnownField reports whether name is a snapshot fact field.
func KnownField(name string) bool {
	_, ok := fields[name]
	return ok
}

// FieldNames returns every snapshot fact field in sorted order.
func FieldNames() []string {
	out := make([]string, 0, len(fields))
	for name := range fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// snapshotFacts adapts a snapshot to predicate.Facts.
type snapshotFacts struct {
	s *CaseSnapshot
}

// Facts returns a predicate.Facts view over the snapshot.
func (s *CaseSnapshot) Facts() predicate.Facts {
	return snapshotFacts{s: s}
}

// Lookup implements predicate.Facts.
func (f snapshotFacts) Lookup(field string) (any, error) {
	fn, ok := fields[field]
	if !ok {
		return nil, &predicate.UnknownFieldError{Field: field}
	}
	v, present := fn(f.s)
	if !present {
		return nil, &predicate.MissingFactError{Field: field}
	}
	return v, nil
}

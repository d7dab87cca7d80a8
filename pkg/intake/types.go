package intake

import "time"

// OffenseSeverity is the severity class of the current offense.
type OffenseSeverity string

const (
	// SeverityStatus is a status offense (truancy, curfew, runaway).
	SeverityStatus OffenseSeverity = "status"
	// SeverityMisdemeanorProperty is a misdemeanor against property.
	SeverityMisdemeanorProperty OffenseSeverity = "misdemeanor_property"
	// SeverityMisdemeanorPerson is a misdemeanor against a person.
	SeverityMisdemeanorPerson OffenseSeverity = "misdemeanor_person"
	// SeverityFelonyProperty is a felony against property.
	SeverityFelonyProperty OffenseSeverity = "felony_property"
	// SeverityFelonyDrug is a drug felony.
	SeverityFelonyDrug OffenseSeverity = "felony_drug"
	// SeverityFelonyPerson is a felony against a person (violent felony).
	SeverityFelonyPerson OffenseSeverity = "felony_person"
)

// Severities lists every severity class from least to most serious.
var Severities = []OffenseSeverity{
	SeverityStatus,
	SeverityMisdemeanorProperty,
	SeverityMisdemeanorPerson,
	SeverityFelonyProperty,
	SeverityFelonyDrug,
	SeverityFelonyPerson,
}

// Valid reports whether s is a known severity class.
func (s OffenseSeverity) Valid() bool {
	for _, known := range Severities {
		if s == known {
			return true
		}
	}
	return false
}

// IsFelony reports whether s is any felony class.
func (s OffenseSeverity) IsFelony() bool {
	return s == SeverityFelonyProperty || s == SeverityFelonyDrug || s == SeverityFelonyPerson
}

// IsMisdemeanor reports whether s is any misdemeanor class.
func (s OffenseSeverity) IsMisdemeanor() bool {
	return s == SeverityMisdemeanorProperty || s == SeverityMisdemeanorPerson
}

// IsViolentFelony reports whether s is a felony against a person.
func (s OffenseSeverity) IsViolentFelony() bool {
	return s == SeverityFelonyPerson
}

// SupervisionStatus is the youth's court supervision status at referral.
type SupervisionStatus string

const (
	SupervisionNone      SupervisionStatus = "none"
	SupervisionPending   SupervisionStatus = "pending"
	SupervisionProbation SupervisionStatus = "probation"
	SupervisionParole    SupervisionStatus = "parole"
	SupervisionAbsconded SupervisionStatus = "absconded"
)

// Valid reports whether s is a known supervision status.
func (s SupervisionStatus) Valid() bool {
	switch s {
	case SupervisionNone, SupervisionPending, SupervisionProbation, SupervisionParole, SupervisionAbsconded:
		return true
	}
	return false
}

// LivingSituation is the youth's housing tier.
type LivingSituation string

const (
	LivingStableGuardian LivingSituation = "stable_guardian"
	LivingStableRelative LivingSituation = "stable_relative"
	LivingUnstable       LivingSituation = "unstable"
	LivingNone           LivingSituation = "none"
)

// Valid reports whether l is a known living situation.
func (l LivingSituation) Valid() bool {
	switch l {
	case LivingStableGuardian, LivingStableRelative, LivingUnstable, LivingNone:
		return true
	}
	return false
}

// Charge tags recognized by the override policy and program rules.
const (
	TagMurder                    = "murder"
	TagAttemptedMurder           = "attempted_murder"
	TagSexualAssaultFirstDegree  = "sexual_assault_first_degree"
	TagSexOffense                = "sex_offense"
	TagFirearmUsed               = "firearm_used"
	TagGangViolence              = "gang_violence"
	TagDomesticViolence          = "domestic_violence"
	TagDrugPossession            = "drug_possession"
	TagTheft                     = "theft"
	TagVandalism                 = "vandalism"
	TagShoplifting               = "shoplifting"
	TagSimpleAssault             = "simple_assault"
	TagTruancy                   = "truancy"
	TagRunaway                   = "runaway"
	TagCurfew                    = "curfew"
	TagSubstanceRelated          = "substance_related"
	TagEscapeFromSecureDetention = "escape_from_secure_detention"
)

// Youth holds demographic and attitudinal facts about the youth.
type Youth struct {
	// Age in whole years at the time of referral.
	Age int `json:"age" yaml:"age" validate:"gte=0,lte=25"`

	// Optional facts; nil means the fact was not captured at intake.
	AdmitsResponsibility       *bool `json:"admits_responsibility,omitempty" yaml:"admits_responsibility,omitempty"`
	FamilyParticipationConsent *bool `json:"family_participation_consent,omitempty" yaml:"family_participation_consent,omitempty"`
	SchoolEnrolled             *bool `json:"school_enrolled,omitempty" yaml:"school_enrolled,omitempty"`
	ResponsibleAdultAvailable  *bool `json:"responsible_adult_available,omitempty" yaml:"responsible_adult_available,omitempty"`
}

// Offense describes the current referral offense.
type Offense struct {
	Severity    OffenseSeverity `json:"severity" yaml:"severity" validate:"required,severity"`
	Weapon      bool            `json:"weapon" yaml:"weapon"`
	Tags        []string        `json:"tags,omitempty" yaml:"tags,omitempty" validate:"dive,required"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
}

// HasTag reports whether the offense carries the given charge tag.
func (o Offense) HasTag(tag string) bool {
	for _, t := range o.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// History holds prior delinquency history.
type History struct {
	ReferralCount     int  `json:"referral_count" yaml:"referral_count" validate:"gte=0"`
	AdjudicationCount int  `json:"adjudication_count" yaml:"adjudication_count" validate:"gte=0"`
	PriorFelony       bool `json:"prior_felony" yaml:"prior_felony"`
	PriorViolent      bool `json:"prior_violent" yaml:"prior_violent"`

	// EscapedSecureDetentionWithin30Days is set when the youth escaped from
	// secure detention in the 30 days before this referral.
	EscapedSecureDetentionWithin30Days bool `json:"escaped_secure_detention_within_30_days" yaml:"escaped_secure_detention_within_30_days"`
}

// FTAHistory buckets failures to appear by recency.
type FTAHistory struct {
	WithinTwelveMonths    int `json:"within_12_months" yaml:"within_12_months" validate:"gte=0"`
	OlderThanTwelveMonths int `json:"older_than_12_months" yaml:"older_than_12_months" validate:"gte=0"`
}

// Total returns the total number of recorded failures to appear.
func (f FTAHistory) Total() int {
	return f.WithinTwelveMonths + f.OlderThanTwelveMonths
}

// Flags holds special circumstances noted at intake.
type Flags struct {
	MentalHealthCrisis       bool `json:"mental_health_crisis" yaml:"mental_health_crisis"`
	ImmigrationStatusPresent bool `json:"immigration_status_present" yaml:"immigration_status_present"`
	Disability               bool `json:"disability" yaml:"disability"`
	PregnantOrParenting      bool `json:"pregnant_or_parenting" yaml:"pregnant_or_parenting"`

	// MedicalCareUnavailable is set when the youth has a medical condition
	// requiring care that secure detention cannot provide.
	MedicalCareUnavailable bool `json:"medical_care_unavailable" yaml:"medical_care_unavailable"`

	SubstanceUseIndicated *bool `json:"substance_use_indicated,omitempty" yaml:"substance_use_indicated,omitempty"`
	MentalHealthNeed      *bool `json:"mental_health_need,omitempty" yaml:"mental_health_need,omitempty"`
}

// CaseSnapshot is the immutable set of facts for one intake event.
type CaseSnapshot struct {
	ID                   string    `json:"id" yaml:"id"`
	CaseID               string    `json:"case_id" yaml:"case_id" validate:"required"`
	SupersedesSnapshotID string    `json:"supersedes_snapshot_id,omitempty" yaml:"supersedes_snapshot_id,omitempty"`
	CapturedAt           time.Time `json:"captured_at" yaml:"captured_at"`

	Youth           Youth               `json:"youth" yaml:"youth"`
	Offense         Offense             `json:"offense" yaml:"offense"`
	History         History             `json:"history" yaml:"history"`
	Supervision     []SupervisionStatus `json:"supervision,omitempty" yaml:"supervision,omitempty" validate:"dive,supervision"`
	FTA             FTAHistory          `json:"fta" yaml:"fta"`
	LivingSituation LivingSituation     `json:"living_situation" yaml:"living_situation" validate:"required,living"`
	Flags           Flags               `json:"flags" yaml:"flags"`

	// ProtectiveFactors are informational strengths noted by the officer.
	// They are carried through to the decision record but never scored.
	ProtectiveFactors []string `json:"protective_factors,omitempty" yaml:"protective_factors,omitempty"`
}

// HasSupervision reports whether the snapshot lists the given status.
func (s *CaseSnapshot) HasSupervision(status SupervisionStatus) bool {
	for _, st := range s.Supervision {
		if st == status {
			return true
		}
	}
	return false
}

// FirstTime reports whether the youth has no prior referrals or adjudications.
func (s *CaseSnapshot) FirstTime() bool {
	return s.History.ReferralCount == 0 && s.History.AdjudicationCount == 0
}

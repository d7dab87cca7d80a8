package intake

import (
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time. Tests replace it for deterministic stamps.
var Clock = time.Now

// New validates s and returns a sealed copy with an id and capture time.
// An id or capture time already present on s is kept.
func New(s CaseSnapshot) (*CaseSnapshot, error) {
	sealed := s.Clone()
	if sealed.ID == "" {
		sealed.ID = uuid.New().String()
	}
	if sealed.CapturedAt.IsZero() {
		sealed.CapturedAt = Clock().UTC()
	} else {
		sealed.CapturedAt = sealed.CapturedAt.UTC()
	}
	if err := Validate(sealed); err != nil {
		return nil, err
	}
	return sealed, nil
}

// Revise creates a new snapshot for the same case that supersedes prev.
// Snapshots are never edited in place; changed facts always produce a new id.
func Revise(prev *CaseSnapshot, next CaseSnapshot) (*CaseSnapshot, error) {
	if prev == nil {
		return nil, &ValidationError{Errors: []FieldError{{Field: "supersedes_snapshot_id", Message: "previous snapshot is required"}}}
	}
	next.ID = ""
	next.CapturedAt = time.Time{}
	next.SupersedesSnapshotID = prev.ID
	if next.CaseID == "" {
		next.CaseID = prev.CaseID
	}
	if next.CaseID != prev.CaseID {
		return nil, &ValidationError{
			CaseID: next.CaseID,
			Errors: []FieldError{{Field: "case_id", Message: "revision must keep the case id " + prev.CaseID}},
		}
	}
	return New(next)
}

// Clone returns a deep copy of the snapshot.
func (s *CaseSnapshot) Clone() *CaseSnapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Offense.Tags = cloneSlice(s.Offense.Tags)
	c.Supervision = cloneSlice(s.Supervision)
	c.ProtectiveFactors = cloneSlice(s.ProtectiveFactors)
	c.Youth.AdmitsResponsibility = cloneBool(s.Youth.AdmitsResponsibility)
	c.Youth.FamilyParticipationConsent = cloneBool(s.Youth.FamilyParticipationConsent)
	c.Youth.SchoolEnrolled = cloneBool(s.Youth.SchoolEnrolled)
	c.Youth.ResponsibleAdultAvailable = cloneBool(s.Youth.ResponsibleAdultAvailable)
	c.Flags.SubstanceUseIndicated = cloneBool(s.Flags.SubstanceUseIndicated)
	c.Flags.MentalHealthNeed = cloneBool(s.Flags.MentalHealthNeed)
	return &c
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// Bool returns a pointer to b, for populating optional facts.
func Bool(b bool) *bool {
	return &b
}

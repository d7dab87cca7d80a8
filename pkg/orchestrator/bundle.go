package orchestrator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/detention"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/eligibility"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/override"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/risk"
)

// DecisionBundle is the complete result of one evaluation. It carries the
// same content as the decision entry written to the audit trail, and
// FromEntry rebuilds it from that entry.
type DecisionBundle struct {
	CaseID         string    `json:"case_id"`
	SnapshotID     string    `json:"snapshot_id"`
	SnapshotHash   string    `json:"snapshot_hash,omitempty"`
	Assessor       string    `json:"assessor,omitempty"`
	CatalogVersion string    `json:"catalog_version"`
	RecordedAt     time.Time `json:"recorded_at"`

	AuditEntryID  string `json:"audit_entry_id"`
	AuditSequence int64  `json:"audit_sequence"`

	Score             risk.Score            `json:"score"`
	Override          override.Decision     `json:"override"`
	Eligibility       []eligibility.Result  `json:"eligibility"`
	Disposition       detention.Disposition `json:"disposition"`
	ProtectiveFactors []string              `json:"protective_factors,omitempty"`
}

// entry builds the decision entry recorded for the bundle from snapshot s.
func (b *DecisionBundle) entry(s *intake.CaseSnapshot) *audit.Entry {
	score := b.Score
	ovr := b.Override
	disp := b.Disposition
	return &audit.Entry{
		CaseID:            b.CaseID,
		Kind:              audit.KindDecision,
		SnapshotID:        b.SnapshotID,
		Snapshot:          s.Clone(),
		Assessor:          b.Assessor,
		CatalogVersion:    b.CatalogVersion,
		Score:             &score,
		Override:          &ovr,
		Eligibility:       b.Eligibility,
		Disposition:       &disp,
		ProtectiveFactors: b.ProtectiveFactors,
	}
}

// FromEntry rebuilds the bundle recorded by a decision entry.
func FromEntry(e *audit.Entry) (*DecisionBundle, error) {
	if e == nil {
		return nil, errors.New("entry is required")
	}
	if e.Kind != audit.KindDecision {
		return nil, fmt.Errorf("entry %s is a %s entry, not a decision", e.ID, e.Kind)
	}
	if e.Score == nil || e.Override == nil || e.Disposition == nil {
		return nil, fmt.Errorf("decision entry %s is incomplete", e.ID)
	}
	return &DecisionBundle{
		CaseID:            e.CaseID,
		SnapshotID:        e.SnapshotID,
		SnapshotHash:      e.SnapshotHash,
		Assessor:          e.Assessor,
		CatalogVersion:    e.CatalogVersion,
		RecordedAt:        e.Timestamp,
		AuditEntryID:      e.ID,
		AuditSequence:     e.Sequence,
		Score:             *e.Score,
		Override:          *e.Override,
		Eligibility:       e.Eligibility,
		Disposition:       *e.Disposition,
		ProtectiveFactors: e.ProtectiveFactors,
	}, nil
}

// EligiblePrograms returns the names of programs the youth qualifies for,
// in catalog order.
func (b *DecisionBundle) EligiblePrograms() []string {
	return eligibility.Eligible(b.Eligibility)
}

// Summary renders a short plain-text block for the reviewing officer.
func (b *DecisionBundle) Summary() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Case %s (snapshot %s)\n", b.CaseID, b.SnapshotID)
	fmt.Fprintf(&sb, "Risk: %d (%s)", b.Score.Total, b.Score.Band)
	if b.Disposition.Band != b.Score.Band {
		fmt.Fprintf(&sb, ", adjusted to %s", b.Disposition.Band)
	}
	sb.WriteString("\n")

	if b.Override.Kind != override.KindNone {
		fmt.Fprintf(&sb, "Override: %s", b.Override.Kind)
		if len(b.Override.MandatoryConditions) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(b.Override.MandatoryConditions, ", "))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Recommendation: %s", b.Disposition.Kind)
	if b.Disposition.Selected != "" {
		fmt.Fprintf(&sb, " via %s", b.Disposition.Selected)
	}
	sb.WriteString("\n")

	eligible := b.EligiblePrograms()
	fmt.Fprintf(&sb, "Eligible programs: %d of %d", len(eligible), len(b.Eligibility))
	if len(eligible) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(eligible, ", "))
	}
	sb.WriteString("\n")

	for _, r := range b.Eligibility {
		if r.Eligible && r.RequiresSupervisorApproval {
			fmt.Fprintf(&sb, "Supervisor approval required: %s\n", r.Program)
		}
	}
	if len(b.ProtectiveFactors) > 0 {
		fmt.Fprintf(&sb, "Protective factors: %s\n", strings.Join(b.ProtectiveFactors, ", "))
	}
	fmt.Fprintf(&sb, "Audit entry: %s #%d, catalog %s\n", b.AuditEntryID, b.AuditSequence, b.CatalogVersion)
	return sb.String()
}

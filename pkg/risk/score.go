package risk

import (
	"fmt"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
)

// Category identifies one of the five instrument categories.
type Category string

const (
	CategoryOffense     Category = "A"
	CategoryHistory     Category = "B"
	CategorySupervision Category = "C"
	CategoryFTA         Category = "D"
	CategoryLiving      Category = "E"
)

// Category caps.
const (
	MaxOffense     = 6
	MaxHistory     = 8
	MaxSupervision = 4
	MaxFTA         = 4
	MaxLiving      = 3
)

// Factor explains one point contribution to a category.
type Factor struct {
	Category Category `json:"category"`
	Reason   string   `json:"reason"`
	Points   int      `json:"points"`
}

// Score is the result of scoring one snapshot.
type Score struct {
	SnapshotID string `json:"snapshot_id"`

	Offense     int `json:"category_a"`
	History     int `json:"category_b"`
	Supervision int `json:"category_c"`
	FTA         int `json:"category_d"`
	Living      int `json:"category_e"`

	Total int  `json:"total"`
	Band  Band `json:"band"`

	// Factors lists every contribution in category order. Points reflect
	// values before the category cap is applied.
	Factors []Factor `json:"factors,omitempty"`
}

// Categories returns category points keyed by category letter.
func (s Score) Categories() map[Category]int {
	return map[Category]int{
		CategoryOffense:     s.Offense,
		CategoryHistory:     s.History,
		CategorySupervision: s.Supervision,
		CategoryFTA:         s.FTA,
		CategoryLiving:      s.Living,
	}
}

// String returns a compact representation of the score.
func (s Score) String() string {
	return fmt.Sprintf("A=%d B=%d C=%d D=%d E=%d total=%d band=%s",
		s.Offense, s.History, s.Supervision, s.FTA, s.Living, s.Total, s.Band)
}

var severityPoints = map[intake.OffenseSeverity]int{
	intake.SeverityStatus:              0,
	intake.SeverityMisdemeanorProperty: 1,
	intake.SeverityMisdemeanorPerson:   2,
	intake.SeverityFelonyProperty:      3,
	intake.SeverityFelonyDrug:          4,
	intake.SeverityFelonyPerson:        5,
}

var supervisionPoints = map[intake.SupervisionStatus]int{
	intake.SupervisionNone:      0,
	intake.SupervisionPending:   2,
	intake.SupervisionProbation: 2,
	intake.SupervisionParole:    3,
	intake.SupervisionAbsconded: 4,
}

var livingPoints = map[intake.LivingSituation]int{
	intake.LivingStableGuardian: 0,
	intake.LivingStableRelative: 1,
	intake.LivingUnstable:       2,
	intake.LivingNone:           3,
}

// Engine scores snapshots with the five-category instrument. It holds no
// state and is safe for concurrent use.
type Engine struct{}

// NewEngine creates a scoring engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Score computes the risk score for a snapshot. It never fails; unknown
// enum values contribute zero points.
func (e *Engine) Score(s *intake.CaseSnapshot) Score {
	var factors []Factor
	add := func(c Category, points int, format string, args ...any) int {
		if points != 0 {
			factors = append(factors, Factor{Category: c, Reason: fmt.Sprintf(format, args...), Points: points})
		}
		return points
	}

	out := Score{SnapshotID: s.ID}

	// Category A: current offense.
	a := add(CategoryOffense, severityPoints[s.Offense.Severity], "offense severity %s", s.Offense.Severity)
	if s.Offense.Weapon {
		a += add(CategoryOffense, 1, "weapon involved")
	}
	out.Offense = clamp(a, 0, MaxOffense)

	// Category B: prior history.
	var b int
	switch h := s.History; {
	case h.AdjudicationCount >= 3:
		b = add(CategoryHistory, 4, "%d prior adjudications", h.AdjudicationCount)
	case h.AdjudicationCount >= 1:
		b = add(CategoryHistory, 2, "%d prior adjudications", h.AdjudicationCount)
	case h.ReferralCount >= 1:
		b = add(CategoryHistory, 1, "%d prior referrals without adjudication", h.ReferralCount)
	}
	if s.History.PriorFelony {
		b += add(CategoryHistory, 2, "prior felony")
	}
	if s.History.PriorViolent {
		b += add(CategoryHistory, 2, "prior violent offense")
	}
	out.History = clamp(b, 0, MaxHistory)

	// Category C: highest supervision status, never summed.
	var c int
	var cStatus intake.SupervisionStatus
	for _, st := range s.Supervision {
		if p := supervisionPoints[st]; p > c {
			c, cStatus = p, st
		}
	}
	out.Supervision = clamp(add(CategorySupervision, c, "supervision status %s", cStatus), 0, MaxSupervision)

	// Category D: failures to appear, highest applicable tier.
	var d int
	switch f := s.FTA; {
	case f.WithinTwelveMonths >= 2:
		d = add(CategoryFTA, 4, "%d failures to appear within 12 months", f.WithinTwelveMonths)
	case f.WithinTwelveMonths == 1:
		d = add(CategoryFTA, 2, "failure to appear within 12 months")
	case f.OlderThanTwelveMonths >= 1:
		d = add(CategoryFTA, 1, "failure to appear older than 12 months")
	}
	out.FTA = clamp(d, 0, MaxFTA)

	// Category E: living situation.
	out.Living = clamp(add(CategoryLiving, livingPoints[s.LivingSituation], "living situation %s", s.LivingSituation), 0, MaxLiving)

	out.Total = clamp(out.Offense+out.History+out.Supervision+out.FTA+out.Living, MinTotal, MaxTotal)
	out.Band = BandFor(out.Total)
	out.Factors = factors
	return out
}

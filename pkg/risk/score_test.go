package risk

import (
	"testing"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
)

func snapshot(mutate func(s *intake.CaseSnapshot)) *intake.CaseSnapshot {
	s := &intake.CaseSnapshot{
		ID:              "snap-1",
		CaseID:          "case-1",
		Youth:           intake.Youth{Age: 15},
		Offense:         intake.Offense{Severity: intake.SeverityMisdemeanorProperty},
		Supervision:     []intake.SupervisionStatus{intake.SupervisionNone},
		LivingSituation: intake.LivingStableGuardian,
	}
	if mutate != nil {
		mutate(s)
	}
	return s
}

// TestBandFor tests band boundaries
func TestBandFor(t *testing.T) {
	tests := []struct {
		total int
		want  Band
	}{
		{-3, BandLow},
		{0, BandLow},
		{5, BandLow},
		{6, BandLowModerate},
		{10, BandLowModerate},
		{11, BandModerate},
		{15, BandModerate},
		{16, BandModerateHigh},
		{20, BandModerateHigh},
		{21, BandHigh},
		{25, BandHigh},
		{40, BandHigh},
	}
	for _, tt := range tests {
		if got := BandFor(tt.total); got != tt.want {
			t.Errorf("BandFor(%d) = %s, want %s", tt.total, got, tt.want)
		}
	}
}

// TestBandShift tests one-step shifts stop at the ends
func TestBandShift(t *testing.T) {
	if got := BandModerate.Shift(1); got != BandModerateHigh {
		t.Errorf("Moderate +1 = %s", got)
	}
	if got := BandModerate.Shift(-1); got != BandLowModerate {
		t.Errorf("Moderate -1 = %s", got)
	}
	if got := BandLow.Shift(-1); got != BandLow {
		t.Errorf("Low -1 = %s", got)
	}
	if got := BandHigh.Shift(1); got != BandHigh {
		t.Errorf("High +1 = %s", got)
	}
}

// TestScore_Categories tests each category's table
func TestScore_Categories(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *intake.CaseSnapshot)
		want   [5]int
	}{
		{
			name: "first-time misdemeanor property",
			want: [5]int{1, 0, 0, 0, 0},
		},
		{
			name: "felony person with weapon",
			mutate: func(s *intake.CaseSnapshot) {
				s.Offense.Severity = intake.SeverityFelonyPerson
				s.Offense.Weapon = true
			},
			want: [5]int{6, 0, 0, 0, 0},
		},
		{
			name: "status offense",
			mutate: func(s *intake.CaseSnapshot) {
				s.Offense.Severity = intake.SeverityStatus
			},
			want: [5]int{0, 0, 0, 0, 0},
		},
		{
			name:   "referrals without adjudication",
			mutate: func(s *intake.CaseSnapshot) { s.History.ReferralCount = 2 },
			want:   [5]int{1, 1, 0, 0, 0},
		},
		{
			name: "two adjudications",
			mutate: func(s *intake.CaseSnapshot) {
				s.History.ReferralCount = 2
				s.History.AdjudicationCount = 2
			},
			want: [5]int{1, 2, 0, 0, 0},
		},
		{
			name: "history capped",
			mutate: func(s *intake.CaseSnapshot) {
				s.History.AdjudicationCount = 5
				s.History.PriorFelony = true
				s.History.PriorViolent = true
			},
			want: [5]int{1, 8, 0, 0, 0},
		},
		{
			name: "supervision takes maximum",
			mutate: func(s *intake.CaseSnapshot) {
				s.Supervision = []intake.SupervisionStatus{intake.SupervisionProbation, intake.SupervisionAbsconded}
			},
			want: [5]int{1, 0, 4, 0, 0},
		},
		{
			name: "pending and parole",
			mutate: func(s *intake.CaseSnapshot) {
				s.Supervision = []intake.SupervisionStatus{intake.SupervisionPending, intake.SupervisionParole}
			},
			want: [5]int{1, 0, 3, 0, 0},
		},
		{
			name:   "one old fta",
			mutate: func(s *intake.CaseSnapshot) { s.FTA.OlderThanTwelveMonths = 3 },
			want:   [5]int{1, 0, 0, 1, 0},
		},
		{
			name: "one recent fta beats old ones",
			mutate: func(s *intake.CaseSnapshot) {
				s.FTA.WithinTwelveMonths = 1
				s.FTA.OlderThanTwelveMonths = 2
			},
			want: [5]int{1, 0, 0, 2, 0},
		},
		{
			name:   "two recent ftas",
			mutate: func(s *intake.CaseSnapshot) { s.FTA.WithinTwelveMonths = 2 },
			want:   [5]int{1, 0, 0, 4, 0},
		},
		{
			name:   "stable relative",
			mutate: func(s *intake.CaseSnapshot) { s.LivingSituation = intake.LivingStableRelative },
			want:   [5]int{1, 0, 0, 0, 1},
		},
		{
			name:   "no housing",
			mutate: func(s *intake.CaseSnapshot) { s.LivingSituation = intake.LivingNone },
			want:   [5]int{1, 0, 0, 0, 3},
		},
	}

	e := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Score(snapshot(tt.mutate))
			cats := [5]int{got.Offense, got.History, got.Supervision, got.FTA, got.Living}
			if cats != tt.want {
				t.Errorf("categories = %v, want %v", cats, tt.want)
			}
			sum := 0
			for _, v := range tt.want {
				sum += v
			}
			if got.Total != sum {
				t.Errorf("Total = %d, want %d", got.Total, sum)
			}
			if got.Band != BandFor(sum) {
				t.Errorf("Band = %s, want %s", got.Band, BandFor(sum))
			}
		})
	}
}

// TestScore_Bounds tests the maximum possible snapshot stays within range
func TestScore_Bounds(t *testing.T) {
	s := snapshot(func(s *intake.CaseSnapshot) {
		s.Offense.Severity = intake.SeverityFelonyPerson
		s.Offense.Weapon = true
		s.History.AdjudicationCount = 10
		s.History.PriorFelony = true
		s.History.PriorViolent = true
		s.Supervision = []intake.SupervisionStatus{intake.SupervisionAbsconded, intake.SupervisionParole}
		s.FTA.WithinTwelveMonths = 9
		s.LivingSituation = intake.LivingNone
	})

	got := NewEngine().Score(s)
	if got.Total != MaxTotal {
		t.Errorf("Total = %d, want %d", got.Total, MaxTotal)
	}
	if got.Band != BandHigh {
		t.Errorf("Band = %s, want High", got.Band)
	}
	if len(got.Factors) == 0 {
		t.Error("expected factor breakdown")
	}
}

// TestScore_Deterministic tests repeated scoring yields the same result
func TestScore_Deterministic(t *testing.T) {
	e := NewEngine()
	s := snapshot(func(s *intake.CaseSnapshot) {
		s.History.ReferralCount = 1
		s.FTA.WithinTwelveMonths = 1
	})
	first := e.Score(s).String()
	for i := 0; i < 10; i++ {
		if got := e.Score(s).String(); got != first {
			t.Fatalf("Score() = %s, want %s", got, first)
		}
	}
}

// TestScoreFacts tests score fields exposed to predicates
func TestScoreFacts(t *testing.T) {
	score := NewEngine().Score(snapshot(nil))
	facts := score.Facts()

	if v, err := facts.Lookup("score.total"); err != nil || v != 1 {
		t.Errorf("score.total = %v, %v", v, err)
	}
	if v, err := facts.Lookup("score.band"); err != nil || v != "Low" {
		t.Errorf("score.band = %v, %v", v, err)
	}
	if _, err := facts.Lookup("score.unknown"); err == nil {
		t.Error("expected unknown field error")
	}
	if !KnownField("score.category_c") || KnownField("youth.age") {
		t.Error("KnownField() mismatch")
	}
}

package detention

import (
	"errors"
	"testing"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/disposition"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/override"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/predicate"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/risk"
)

// ladder returns the standard alternatives, each rejected once the total
// score reaches its threshold.
func ladder(thresholds ...int) []Alternative {
	out := make([]Alternative, len(StandardLadder))
	for i, name := range StandardLadder {
		limit := 100
		if i < len(thresholds) {
			limit = thresholds[i]
		}
		out[i] = Alternative{
			Name: name,
			RejectIf: []predicate.Predicate{{
				Name:        name + "_risk_limit",
				Description: name + " unsuitable at this risk level",
				Field:       "score.total",
				Op:          predicate.OpGreaterEqual,
				Value:       limit,
			}},
		}
	}
	return out
}

func snapshot() *intake.CaseSnapshot {
	return &intake.CaseSnapshot{
		ID:              "snap-1",
		CaseID:          "case-1",
		Youth:           intake.Youth{Age: 15},
		Offense:         intake.Offense{Severity: intake.SeverityFelonyProperty},
		LivingSituation: intake.LivingUnstable,
	}
}

func scoreOf(total int) risk.Score {
	return risk.Score{Total: total, Band: risk.BandFor(total)}
}

func noOverride(score risk.Score) override.Decision {
	return override.Decision{Kind: override.KindNone, BaseBand: score.Band, AdjustedBand: score.Band}
}

// TestDecide_BandMapping tests band to disposition mapping without overrides
func TestDecide_BandMapping(t *testing.T) {
	rejectAll := ladder(0, 0, 0, 0, 0, 0)
	tests := []struct {
		name         string
		total        int
		alternatives []Alternative
		want         disposition.Kind
		wantSelected string
	}{
		{"low releases", 3, nil, disposition.Release, ""},
		{"low moderate with conditions", 8, ladder(), disposition.ReleaseWithConditions, ParentGuardianRelease},
		{"moderate selects first accepted", 12, ladder(10, 10), disposition.AlternativeToDetention, ElectronicMonitoring},
		{"moderate escalates when all rejected", 12, rejectAll, disposition.DetentionRecommended, ""},
		{"high with all rejected", 22, rejectAll, disposition.DetentionRecommended, ""},
		{"high de-escalates to accepted alternative", 22, ladder(0, 0, 0, 0, 0, 23), disposition.AlternativeToDetention, DayReporting},
	}

	e := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := scoreOf(tt.total)
			d, err := e.Decide(snapshot(), sc, noOverride(sc), tt.alternatives)
			if err != nil {
				t.Fatalf("Decide() error = %v", err)
			}
			if d.Kind != tt.want {
				t.Errorf("Kind = %s, want %s (rationale %v)", d.Kind, tt.want, d.Rationale)
			}
			if d.Selected != tt.wantSelected {
				t.Errorf("Selected = %q, want %q", d.Selected, tt.wantSelected)
			}
			if d.Kind != disposition.Release && len(d.Alternatives) != len(tt.alternatives) {
				t.Errorf("reviewed %d alternatives, want %d", len(d.Alternatives), len(tt.alternatives))
			}
			if d.Kind == disposition.Release && len(d.Alternatives) != 0 {
				t.Error("plain release should not walk the ladder")
			}
		})
	}
}

// TestDecide_MandatoryDetainOverLow tests a detain floor over a Low band
func TestDecide_MandatoryDetainOverLow(t *testing.T) {
	sc := scoreOf(2)
	ovr := override.Decision{
		Kind:                override.KindMandatoryDetain,
		MandatoryConditions: []string{"firearm_used_in_felony"},
		Floor:               disposition.AlternativeToDetention,
		BaseBand:            sc.Band,
		AdjustedBand:        sc.Band,
	}
	d, err := NewEngine().Decide(snapshot(), sc, ovr, ladder())
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Kind.Restrictiveness() < disposition.AlternativeToDetention.Restrictiveness() {
		t.Errorf("Kind = %s, want at least alternative_to_detention", d.Kind)
	}
	if d.Base != disposition.Release {
		t.Errorf("Base = %s, want release", d.Base)
	}
}

// TestDecide_MandatoryReleaseOverHigh tests a release ceiling over a High band
func TestDecide_MandatoryReleaseOverHigh(t *testing.T) {
	sc := scoreOf(22)
	ovr := override.Decision{
		Kind:                override.KindMandatoryRelease,
		MandatoryConditions: []string{"under_12_non_violent"},
		Ceiling:             disposition.Release,
		BaseBand:            sc.Band,
		AdjustedBand:        sc.Band,
	}
	d, err := NewEngine().Decide(snapshot(), sc, ovr, ladder(0, 0, 0, 0, 0, 0))
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Kind != disposition.Release {
		t.Errorf("Kind = %s, want release", d.Kind)
	}
}

// TestDecide_DiscretionaryShift tests the shifted band drives the mapping
func TestDecide_DiscretionaryShift(t *testing.T) {
	sc := scoreOf(12)
	ovr := override.Decision{
		Kind:                 override.KindDiscretionary,
		DiscretionaryApplied: true,
		BandShift:            -1,
		BaseBand:             risk.BandModerate,
		AdjustedBand:         risk.BandLowModerate,
	}
	d, err := NewEngine().Decide(snapshot(), sc, ovr, ladder())
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Band != risk.BandLowModerate || d.Kind != disposition.ReleaseWithConditions {
		t.Errorf("Band/Kind = %s/%s, want Low-Moderate/release_with_conditions", d.Band, d.Kind)
	}
}

// TestDecide_IncompleteReview tests that detention is withheld without a
// complete rejected ladder
func TestDecide_IncompleteReview(t *testing.T) {
	sc := scoreOf(22)

	t.Run("missing alternatives", func(t *testing.T) {
		short := ladder(0, 0, 0, 0, 0, 0)[:4]
		_, err := NewEngine().Decide(snapshot(), sc, noOverride(sc), short)
		var ire *IncompleteAlternativesReviewError
		if !errors.As(err, &ire) {
			t.Fatalf("error = %v, want *IncompleteAlternativesReviewError", err)
		}
		if len(ire.Missing) != 2 || ire.Missing[0] != IntensiveSupervision || ire.Missing[1] != DayReporting {
			t.Errorf("Missing = %v", ire.Missing)
		}
	})

	t.Run("unconsidered alternative", func(t *testing.T) {
		alts := ladder(0, 0, 0, 0, 0, 0)
		alts[1].RejectIf = []predicate.Predicate{{
			Name:  "no_responsible_adult",
			Field: "youth.responsible_adult_available",
			Op:    predicate.OpEqual,
			Value: false,
		}}
		_, err := NewEngine().Decide(snapshot(), sc, noOverride(sc), alts)
		if !errors.Is(err, ErrIncompleteReview) {
			t.Fatalf("error = %v, want ErrIncompleteReview", err)
		}
		var ire *IncompleteAlternativesReviewError
		errors.As(err, &ire)
		if len(ire.Unconsidered) != 1 || ire.Unconsidered[0] != ResponsibleAdultRelease {
			t.Errorf("Unconsidered = %v", ire.Unconsidered)
		}
	})

	t.Run("empty ladder", func(t *testing.T) {
		lowMod := scoreOf(7)
		_, err := NewEngine().Decide(snapshot(), lowMod, noOverride(lowMod), nil)
		if !errors.Is(err, ErrIncompleteReview) {
			t.Fatalf("error = %v, want ErrIncompleteReview", err)
		}
	})
}

// TestDecide_NeverDetainsWithoutSixRejections checks every detention
// outcome across a range of scores and ladders carries six rejections
func TestDecide_NeverDetainsWithoutSixRejections(t *testing.T) {
	e := NewEngine()
	for total := 0; total <= risk.MaxTotal; total++ {
		for cut := 0; cut <= len(StandardLadder); cut++ {
			sc := scoreOf(total)
			alts := ladder(0, 0, 0, 0, 0, 0)[:cut]
			d, err := e.Decide(snapshot(), sc, noOverride(sc), alts)
			if err != nil {
				continue
			}
			if d.Kind != disposition.DetentionRecommended {
				continue
			}
			rejected := 0
			for _, r := range d.Alternatives {
				if r.Considered && !r.Accepted {
					rejected++
				}
			}
			if rejected < len(StandardLadder) {
				t.Fatalf("total=%d cut=%d: detention with %d rejections", total, cut, rejected)
			}
		}
	}
}

// TestDecide_ConfigurationError tests an unknown field in a reject rule
func TestDecide_ConfigurationError(t *testing.T) {
	alts := ladder()
	alts[0].RejectIf = []predicate.Predicate{{Name: "bad", Field: "youth.height", Op: predicate.OpEqual, Value: 1}}
	sc := scoreOf(12)
	_, err := NewEngine().Decide(snapshot(), sc, noOverride(sc), alts)
	var ce *ConfigurationError
	if !errors.As(err, &ce) || ce.Alternative != ParentGuardianRelease || ce.Field != "youth.height" {
		t.Errorf("error = %v, want configuration error for parent_guardian_release", err)
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Error("error should wrap ErrConfiguration")
	}
}

// TestRecommend tests the band mapping table
func TestRecommend(t *testing.T) {
	want := map[risk.Band]disposition.Kind{
		risk.BandLow:          disposition.Release,
		risk.BandLowModerate:  disposition.ReleaseWithConditions,
		risk.BandModerate:     disposition.AlternativeToDetention,
		risk.BandModerateHigh: disposition.DetentionRecommended,
		risk.BandHigh:         disposition.DetentionRecommended,
	}
	for band, kind := range want {
		if got := Recommend(band); got != kind {
			t.Errorf("Recommend(%s) = %s, want %s", band, got, kind)
		}
	}
}

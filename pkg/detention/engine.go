package detention

import (
	"fmt"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/disposition"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/override"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/predicate"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/risk"
)

// Disposition is the final recommendation for a case.
type Disposition struct {
	Kind disposition.Kind `json:"kind"`

	// Band is the effective band after any discretionary shift.
	Band risk.Band `json:"band"`
	// Base is the recommendation mapped from Band before override constraints.
	Base disposition.Kind `json:"base"`

	Score    risk.Score        `json:"score"`
	Override override.Decision `json:"override"`

	// Selected names the accepted alternative used for a non-detention,
	// non-release recommendation.
	Selected string `json:"selected,omitempty"`

	// Alternatives holds one review per ladder rung in ladder order. It is
	// empty only for a plain release.
	Alternatives []Review `json:"alternatives,omitempty"`

	Rationale []string `json:"rationale"`
}

// Recommend maps a band to its base disposition.
func Recommend(band risk.Band) disposition.Kind {
	switch band {
	case risk.BandLow:
		return disposition.Release
	case risk.BandLowModerate:
		return disposition.ReleaseWithConditions
	case risk.BandModerate:
		return disposition.AlternativeToDetention
	default:
		return disposition.DetentionRecommended
	}
}

// Engine produces dispositions. It holds no state and is safe for
// concurrent use.
type Engine struct{}

// NewEngine creates a detention decision engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Decide combines the score, override decision and alternatives ladder into
// a disposition. Every non-release outcome walks the full ladder. A
// detention recommendation requires all standard alternatives present,
// considered and rejected, otherwise *IncompleteAlternativesReviewError is
// returned and no disposition is produced.
func (e *Engine) Decide(s *intake.CaseSnapshot, score risk.Score, ovr override.Decision, alternatives []Alternative) (Disposition, error) {
	band := score.Band
	if ovr.DiscretionaryApplied {
		band = ovr.AdjustedBand
	}

	d := Disposition{
		Band:     band,
		Base:     Recommend(band),
		Score:    score,
		Override: ovr,
	}
	d.Kind = d.Base
	d.note("band %s maps to %s", band, d.Base)
	if band != score.Band {
		d.note("discretionary override shifted band from %s to %s", score.Band, band)
	}

	if ovr.Floor != "" && d.Kind.Restrictiveness() < ovr.Floor.Restrictiveness() {
		d.Kind = ovr.Floor
		d.note("mandatory detain (%v) raises disposition to %s", ovr.MandatoryConditions, d.Kind)
	}
	if ovr.Ceiling != "" && d.Kind.Restrictiveness() > ovr.Ceiling.Restrictiveness() {
		d.Kind = ovr.Ceiling
		d.note("mandatory release (%v) lowers disposition to %s", ovr.MandatoryConditions, d.Kind)
	}

	if d.Kind == disposition.Release {
		return d, nil
	}

	if len(alternatives) == 0 {
		return Disposition{}, &IncompleteAlternativesReviewError{Missing: append([]string{}, StandardLadder...)}
	}

	facts := predicate.Layered{s.Facts(), score.Facts()}
	firstAccepted := ""
	for _, alt := range alternatives {
		r, err := review(alt, facts)
		if err != nil {
			return Disposition{}, err
		}
		d.Alternatives = append(d.Alternatives, r)
		if r.Accepted && firstAccepted == "" {
			firstAccepted = r.Alternative
		}
	}

	switch d.Kind {
	case disposition.ReleaseWithConditions:
		d.Selected = firstAccepted
		if firstAccepted == "" {
			d.note("no alternative accepted; release conditions set by the assessor")
		} else {
			d.note("conditions from %s", firstAccepted)
		}

	case disposition.AlternativeToDetention:
		if firstAccepted != "" {
			d.Selected = firstAccepted
			d.note("least restrictive accepted alternative is %s", firstAccepted)
		} else {
			d.Kind = disposition.DetentionRecommended
			d.note("every alternative rejected; escalating to %s", d.Kind)
		}

	case disposition.DetentionRecommended:
		if firstAccepted != "" {
			d.Kind = disposition.AlternativeToDetention
			d.Selected = firstAccepted
			d.note("%s accepted; detention not warranted", firstAccepted)
		}
	}

	if d.Kind == disposition.DetentionRecommended {
		if err := checkCompleteReview(d.Alternatives); err != nil {
			return Disposition{}, err
		}
		d.note("all %d alternatives considered and rejected", len(d.Alternatives))
	}
	return d, nil
}

// checkCompleteReview verifies every standard alternative is present and
// every reviewed alternative was considered and rejected.
func checkCompleteReview(reviews []Review) error {
	present := make(map[string]bool, len(reviews))
	incomplete := &IncompleteAlternativesReviewError{}
	for _, r := range reviews {
		present[r.Alternative] = true
		switch {
		case !r.Considered:
			incomplete.Unconsidered = append(incomplete.Unconsidered, r.Alternative)
		case r.Accepted:
			incomplete.Accepted = append(incomplete.Accepted, r.Alternative)
		}
	}
	for _, name := range StandardLadder {
		if !present[name] {
			incomplete.Missing = append(incomplete.Missing, name)
		}
	}
	if len(incomplete.Missing) > 0 || len(incomplete.Unconsidered) > 0 || len(incomplete.Accepted) > 0 {
		return incomplete
	}
	return nil
}

func (d *Disposition) note(format string, args ...any) {
	d.Rationale = append(d.Rationale, fmt.Sprintf(format, args...))
}

package report

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit/storage"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/detention"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/disposition"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/eligibility"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/override"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/risk"
)

func decision(caseID string, total int, kind disposition.Kind, eligible ...string) *audit.Entry {
	band := risk.BandFor(total)
	var results []eligibility.Result
	for _, p := range eligible {
		results = append(results, eligibility.Result{Program: p, Eligible: true})
	}
	return &audit.Entry{
		CaseID:      caseID,
		Kind:        audit.KindDecision,
		Score:       &risk.Score{Total: total, Band: band},
		Override:    &override.Decision{Kind: override.KindNone},
		Eligibility: results,
		Disposition: &detention.Disposition{Kind: kind, Band: band},
	}
}

func TestSummarize(t *testing.T) {
	approved, rejected := true, false
	entries := []*audit.Entry{
		decision("case-1", 1, disposition.Release, "standard_diversion", "teen_court"),
		decision("case-2", 8, disposition.ReleaseWithConditions, "enhanced_diversion"),
		decision("case-3", 12, disposition.AlternativeToDetention),
		decision("case-4", 22, disposition.DetentionRecommended),
		{CaseID: "case-5", Kind: audit.KindError, Error: &audit.ErrorDetail{Kind: "configuration"}},
		{CaseID: "case-1", Kind: audit.KindCorrection, Supersedes: "x", Notes: "reviewed"},
		{CaseID: "case-2", Kind: audit.KindReview, ReviewOf: "y", Approved: &approved},
		{CaseID: "case-3", Kind: audit.KindReview, ReviewOf: "z", Approved: &rejected, Notes: "need school records"},
	}

	r, err := Summarize(entries)
	if err != nil {
		t.Fatalf("Summarize() failed: %v", err)
	}

	if r.Entries != 8 || r.Cases != 5 {
		t.Errorf("Entries=%d Cases=%d, want 8 and 5", r.Entries, r.Cases)
	}
	if r.Reviews != 2 || r.Approved != 1 {
		t.Errorf("Reviews=%d Approved=%d, want 2 and 1", r.Reviews, r.Approved)
	}
	if r.Decisions != 4 || r.Errors != 1 || r.Corrections != 1 {
		t.Errorf("Decisions=%d Errors=%d Corrections=%d", r.Decisions, r.Errors, r.Corrections)
	}
	if r.ByDisposition["release"] != 1 || r.ByDisposition["detention_recommended"] != 1 {
		t.Errorf("ByDisposition = %v", r.ByDisposition)
	}
	if r.ByBand["Low"] != 1 || r.ByBand["High"] != 1 || r.ByBand["Moderate"] != 1 {
		t.Errorf("ByBand = %v", r.ByBand)
	}
	if r.ByOverride["none"] != 4 {
		t.Errorf("ByOverride = %v", r.ByOverride)
	}
	if r.EligibleByProgram["teen_court"] != 1 || r.EligibleByProgram["enhanced_diversion"] != 1 {
		t.Errorf("EligibleByProgram = %v", r.EligibleByProgram)
	}
	if r.ByErrorKind["configuration"] != 1 {
		t.Errorf("ByErrorKind = %v", r.ByErrorKind)
	}

	if r.Risk.Count != 4 {
		t.Fatalf("Risk.Count = %d, want 4", r.Risk.Count)
	}
	if r.Risk.Min != 1 || r.Risk.Max != 22 {
		t.Errorf("Risk min/max = %v/%v", r.Risk.Min, r.Risk.Max)
	}
	if math.Abs(r.Risk.Mean-10.75) > 1e-9 {
		t.Errorf("Risk.Mean = %v, want 10.75", r.Risk.Mean)
	}
	if r.Risk.Median != 10 {
		t.Errorf("Risk.Median = %v, want 10", r.Risk.Median)
	}
	if r.Risk.P90 != 22 {
		t.Errorf("Risk.P90 = %v, want 22", r.Risk.P90)
	}
}

func TestSummarize_Empty(t *testing.T) {
	r, err := Summarize(nil)
	if err != nil {
		t.Fatalf("Summarize(nil) failed: %v", err)
	}
	if r.Entries != 0 || r.Risk.Count != 0 {
		t.Errorf("empty report = %+v", r)
	}
}

func TestBuild(t *testing.T) {
	s := storage.NewMemoryStorage()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, total := range []int{2, 7, 14} {
		e := decision(fmt.Sprintf("case-%d", i), total, detention.Recommend(risk.BandFor(total)))
		e.ID = fmt.Sprintf("e-%d", i)
		e.Sequence = 1
		e.Timestamp = base.Add(time.Duration(i) * time.Hour)
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	r, err := Build(ctx, s, &audit.Query{})
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if r.Decisions != 3 || r.Risk.Median != 7 {
		t.Errorf("Decisions=%d Median=%v", r.Decisions, r.Risk.Median)
	}

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"decisions:    3", "alternative_to_detention", "Low-Moderate", "Risk totals (n=3)"} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

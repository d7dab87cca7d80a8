package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/disposition"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/risk"
)

// RiskSummary describes the distribution of risk totals over decision entries.
type RiskSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	StdDev float64 `json:"std_dev"`
}

// Report aggregates audit entries for supervisory review.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`

	Entries     int `json:"entries"`
	Cases       int `json:"cases"`
	Decisions   int `json:"decisions"`
	Errors      int `json:"errors"`
	Corrections int `json:"corrections"`

	// Reviews counts review entries; Approved those approving a decision.
	Reviews  int `json:"reviews"`
	Approved int `json:"approved"`

	ByDisposition map[string]int `json:"by_disposition"`
	ByBand        map[string]int `json:"by_band"`
	ByOverride    map[string]int `json:"by_override"`
	ByErrorKind   map[string]int `json:"by_error_kind,omitempty"`

	// EligibleByProgram counts decisions in which each program was eligible.
	EligibleByProgram map[string]int `json:"eligible_by_program"`

	Risk RiskSummary `json:"risk"`
}

// Summarize builds a report from entries.
func Summarize(entries []*audit.Entry) (*Report, error) {
	r := &Report{
		GeneratedAt:       time.Now().UTC(),
		Entries:           len(entries),
		ByDisposition:     make(map[string]int),
		ByBand:            make(map[string]int),
		ByOverride:        make(map[string]int),
		ByErrorKind:       make(map[string]int),
		EligibleByProgram: make(map[string]int),
	}

	cases := make(map[string]struct{})
	var totals []float64

	for _, e := range entries {
		cases[e.CaseID] = struct{}{}

		switch e.Kind {
		case audit.KindDecision:
			r.Decisions++
			if k := e.DispositionKind(); k != "" {
				r.ByDisposition[k]++
			}
			if b := e.Band(); b != "" {
				r.ByBand[b]++
			}
			if e.Override != nil {
				r.ByOverride[string(e.Override.Kind)]++
			}
			for _, res := range e.Eligibility {
				if res.Eligible {
					r.EligibleByProgram[res.Program]++
				}
			}
			if total, ok := e.RiskTotal(); ok {
				totals = append(totals, float64(total))
			}
		case audit.KindError:
			r.Errors++
			if e.Error != nil {
				r.ByErrorKind[e.Error.Kind]++
			}
		case audit.KindCorrection:
			r.Corrections++
		case audit.KindReview:
			r.Reviews++
			if e.Approved != nil && *e.Approved {
				r.Approved++
			}
		}
	}
	r.Cases = len(cases)

	summary, err := summarizeRisk(totals)
	if err != nil {
		return nil, err
	}
	r.Risk = summary
	return r, nil
}

// Build streams entries matching q from storage and summarizes them.
func Build(ctx context.Context, storage audit.Storage, q *audit.Query) (*Report, error) {
	entriesCh, errCh, err := storage.QueryStream(ctx, q)
	if err != nil {
		return nil, err
	}

	var entries []*audit.Entry
	for e := range entriesCh {
		entries = append(entries, e)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}

	return Summarize(entries)
}

func summarizeRisk(totals []float64) (RiskSummary, error) {
	s := RiskSummary{Count: len(totals)}
	if len(totals) == 0 {
		return s, nil
	}

	var err error
	if s.Min, err = stats.Min(totals); err != nil {
		return s, fmt.Errorf("min: %w", err)
	}
	if s.Max, err = stats.Max(totals); err != nil {
		return s, fmt.Errorf("max: %w", err)
	}
	if s.Mean, err = stats.Mean(totals); err != nil {
		return s, fmt.Errorf("mean: %w", err)
	}
	if s.Median, err = stats.Median(totals); err != nil {
		return s, fmt.Errorf("median: %w", err)
	}
	if s.P90, err = stats.PercentileNearestRank(totals, 90); err != nil {
		return s, fmt.Errorf("p90: %w", err)
	}
	if s.StdDev, err = stats.StandardDeviation(totals); err != nil {
		return s, fmt.Errorf("std dev: %w", err)
	}
	return s, nil
}

// WriteText renders the report as aligned plain text.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Audit report generated %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "  entries:      %d\n", r.Entries)
	fmt.Fprintf(&b, "  cases:        %d\n", r.Cases)
	fmt.Fprintf(&b, "  decisions:    %d\n", r.Decisions)
	fmt.Fprintf(&b, "  errors:       %d\n", r.Errors)
	fmt.Fprintf(&b, "  corrections:  %d\n", r.Corrections)
	fmt.Fprintf(&b, "  reviews:      %d (%d approved)\n", r.Reviews, r.Approved)

	b.WriteString("\nDispositions\n")
	for _, k := range disposition.Kinds {
		fmt.Fprintf(&b, "  %-26s %d\n", k, r.ByDisposition[string(k)])
	}

	b.WriteString("\nRisk bands\n")
	for _, band := range risk.Bands {
		fmt.Fprintf(&b, "  %-26s %d\n", band, r.ByBand[string(band)])
	}

	if len(r.ByOverride) > 0 {
		b.WriteString("\nOverrides\n")
		writeCounts(&b, r.ByOverride)
	}

	if len(r.EligibleByProgram) > 0 {
		b.WriteString("\nEligible by program\n")
		writeCounts(&b, r.EligibleByProgram)
	}

	if len(r.ByErrorKind) > 0 {
		b.WriteString("\nErrors by kind\n")
		writeCounts(&b, r.ByErrorKind)
	}

	fmt.Fprintf(&b, "\nRisk totals (n=%d)\n", r.Risk.Count)
	if r.Risk.Count > 0 {
		fmt.Fprintf(&b, "  min %.0f  max %.0f  mean %.2f  median %.1f  p90 %.0f  sd %.2f\n",
			r.Risk.Min, r.Risk.Max, r.Risk.Mean, r.Risk.Median, r.Risk.P90, r.Risk.StdDev)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeCounts(b *strings.Builder, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "  %-26s %d\n", k, counts[k])
	}
}

package orchestrator

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit/storage"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/catalog"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/detention"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/disposition"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/eligibility"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/override"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/risk"
)

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadFile("../../configs/programs.yaml")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	return c
}

// firstTimeShoplifter is a 14-year-old first referral for a property
// misdemeanor with every optional intake fact captured.
func firstTimeShoplifter(t *testing.T, caseID string) *intake.CaseSnapshot {
	t.Helper()
	s, err := intake.New(intake.CaseSnapshot{
		CaseID: caseID,
		Youth: intake.Youth{
			Age:                        14,
			AdmitsResponsibility:       intake.Bool(true),
			FamilyParticipationConsent: intake.Bool(true),
			SchoolEnrolled:             intake.Bool(true),
			ResponsibleAdultAvailable:  intake.Bool(true),
		},
		Offense: intake.Offense{
			Severity: intake.SeverityMisdemeanorProperty,
			Tags:     []string{intake.TagShoplifting},
		},
		LivingSituation:   intake.LivingStableGuardian,
		Supervision:       []intake.SupervisionStatus{intake.SupervisionNone},
		ProtectiveFactors: []string{"engaged guardian"},
		Flags: intake.Flags{
			SubstanceUseIndicated: intake.Bool(false),
			MentalHealthNeed:      intake.Bool(false),
		},
	})
	if err != nil {
		t.Fatalf("intake.New() error = %v", err)
	}
	return s
}

type fakeMetrics struct {
	mu           sync.Mutex
	outcomes     []string
	decisions    []string
	alternatives []string
	eligibility  map[string]bool
	auditWrites  map[string]int
	auditErrors  int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{eligibility: map[string]bool{}, auditWrites: map[string]int{}}
}

func (m *fakeMetrics) RecordEvaluation(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *fakeMetrics) RecordDecision(disp, band, kind string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, disp+"/"+band+"/"+kind)
}

func (m *fakeMetrics) RecordAlternativeSelected(alt string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alternatives = append(m.alternatives, alt)
}

func (m *fakeMetrics) RecordEligibility(program string, eligible, _ bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eligibility[program] = eligible
}

func (m *fakeMetrics) RecordAuditWrite(kind string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditWrites[kind]++
	if err != nil {
		m.auditErrors++
	}
}

func TestEvaluate_FirstTimeMisdemeanor(t *testing.T) {
	ctx := context.Background()
	trail := audit.NewTrail(storage.NewMemoryStorage())
	orch := New(trail)
	cat := loadCatalog(t)
	snap := firstTimeShoplifter(t, "case-100")

	bundle, err := orch.Evaluate(ctx, Input{Snapshot: snap, Catalog: cat, Assessor: "officer-7"})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if bundle.Score.Offense != 1 || bundle.Score.Total != 1 {
		t.Errorf("score A=%d total=%d, want 1 and 1", bundle.Score.Offense, bundle.Score.Total)
	}
	if bundle.Score.Band != risk.BandLow {
		t.Errorf("Band = %s, want %s", bundle.Score.Band, risk.BandLow)
	}
	if bundle.Override.Kind != override.KindNone {
		t.Errorf("Override.Kind = %s, want none", bundle.Override.Kind)
	}
	if bundle.Disposition.Kind != disposition.Release {
		t.Errorf("Disposition.Kind = %s, want %s", bundle.Disposition.Kind, disposition.Release)
	}
	if len(bundle.Disposition.Alternatives) != 0 {
		t.Errorf("plain release reviewed %d alternatives", len(bundle.Disposition.Alternatives))
	}
	if len(bundle.Eligibility) != len(cat.Programs) {
		t.Fatalf("got %d eligibility results, want %d", len(bundle.Eligibility), len(cat.Programs))
	}

	eligible := bundle.EligiblePrograms()
	for _, want := range []string{"standard_diversion", "teen_court"} {
		if !slices.Contains(eligible, want) {
			t.Errorf("%s not eligible; eligible = %v", want, eligible)
		}
	}
	if slices.Contains(eligible, "enhanced_diversion") {
		t.Error("enhanced_diversion should be ineligible for a first referral")
	}

	if bundle.CatalogVersion != cat.Version {
		t.Errorf("CatalogVersion = %q, want %q", bundle.CatalogVersion, cat.Version)
	}
	if bundle.AuditEntryID == "" || bundle.AuditSequence != 1 || bundle.RecordedAt.IsZero() {
		t.Errorf("audit fields not set: id=%q seq=%d at=%v", bundle.AuditEntryID, bundle.AuditSequence, bundle.RecordedAt)
	}
	if !slices.Equal(bundle.ProtectiveFactors, []string{"engaged guardian"}) {
		t.Errorf("ProtectiveFactors = %v", bundle.ProtectiveFactors)
	}

	entries, err := trail.Read(ctx, "case-100")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].ID != bundle.AuditEntryID || entries[0].Kind != audit.KindDecision {
		t.Errorf("entry = %s/%s, want %s/decision", entries[0].ID, entries[0].Kind, bundle.AuditEntryID)
	}
	if err := trail.Verify(ctx, "case-100"); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestEvaluate_FromEntryRoundTrip(t *testing.T) {
	ctx := context.Background()
	trail := audit.NewTrail(storage.NewMemoryStorage())
	orch := New(trail)

	bundle, err := orch.Evaluate(ctx, Input{
		Snapshot: firstTimeShoplifter(t, "case-101"),
		Catalog:  loadCatalog(t),
		Assessor: "officer-7",
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	entry, err := trail.Storage().Get(ctx, bundle.AuditEntryID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	rebuilt, err := FromEntry(entry)
	if err != nil {
		t.Fatalf("FromEntry() error = %v", err)
	}

	if rebuilt.Summary() != bundle.Summary() {
		t.Errorf("rebuilt summary differs:\n%s\nwant:\n%s", rebuilt.Summary(), bundle.Summary())
	}
	if !rebuilt.RecordedAt.Equal(bundle.RecordedAt) {
		t.Errorf("RecordedAt = %v, want %v", rebuilt.RecordedAt, bundle.RecordedAt)
	}
	if rebuilt.Score.Total != bundle.Score.Total || rebuilt.Disposition.Kind != bundle.Disposition.Kind {
		t.Errorf("rebuilt decision = %d/%s, want %d/%s",
			rebuilt.Score.Total, rebuilt.Disposition.Kind, bundle.Score.Total, bundle.Disposition.Kind)
	}
	if !slices.Equal(rebuilt.EligiblePrograms(), bundle.EligiblePrograms()) {
		t.Errorf("eligible = %v, want %v", rebuilt.EligiblePrograms(), bundle.EligiblePrograms())
	}
}

func TestFromEntry_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		entry *audit.Entry
	}{
		{"nil", nil},
		{"error entry", &audit.Entry{ID: "e1", Kind: audit.KindError}},
		{"incomplete decision", &audit.Entry{ID: "e2", Kind: audit.KindDecision}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromEntry(tt.entry); err == nil {
				t.Error("FromEntry() error = nil, want error")
			}
		})
	}
}

func TestEvaluate_DiscretionaryOverride(t *testing.T) {
	ctx := context.Background()
	orch := New(audit.NewTrail(storage.NewMemoryStorage()))

	bundle, err := orch.Evaluate(ctx, Input{
		Snapshot: firstTimeShoplifter(t, "case-102"),
		Catalog:  loadCatalog(t),
		Override: &override.Request{
			Direction:     override.MoreRestrictive,
			Justification: "victim safety concern",
			Approver:      "supervisor-2",
		},
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if bundle.Override.Kind != override.KindDiscretionary || !bundle.Override.DiscretionaryApplied {
		t.Errorf("Override = %+v, want applied discretionary", bundle.Override)
	}
	if bundle.Disposition.Band != risk.BandLowModerate {
		t.Errorf("Disposition.Band = %s, want %s", bundle.Disposition.Band, risk.BandLowModerate)
	}
	if bundle.Disposition.Kind != disposition.ReleaseWithConditions {
		t.Errorf("Disposition.Kind = %s, want %s", bundle.Disposition.Kind, disposition.ReleaseWithConditions)
	}
	if bundle.Disposition.Selected != "parent_guardian_release" {
		t.Errorf("Selected = %q, want parent_guardian_release", bundle.Disposition.Selected)
	}
	if len(bundle.Disposition.Alternatives) != len(detention.StandardLadder) {
		t.Errorf("reviewed %d alternatives, want %d", len(bundle.Disposition.Alternatives), len(detention.StandardLadder))
	}
	if !strings.Contains(bundle.Summary(), "adjusted to Low-Moderate") {
		t.Errorf("Summary() missing band adjustment:\n%s", bundle.Summary())
	}
}

func TestEvaluate_ErrorEntries(t *testing.T) {
	cat := loadCatalog(t)

	tests := []struct {
		name      string
		input     func(t *testing.T) Input
		wantKind  string
		wantField string
		wantCause any
	}{
		{
			name: "invalid override request",
			input: func(t *testing.T) Input {
				return Input{
					Snapshot: firstTimeShoplifter(t, "case-e1"),
					Catalog:  cat,
					Override: &override.Request{Direction: override.LessRestrictive, Approver: "supervisor-2"},
				}
			},
			wantKind:  KindInvalidOverride,
			wantField: "justification",
			wantCause: new(*override.InvalidRequestError),
		},
		{
			name: "missing optional fact",
			input: func(t *testing.T) Input {
				s := firstTimeShoplifter(t, "case-e2")
				s.Youth.AdmitsResponsibility = nil
				return Input{Snapshot: s, Catalog: cat}
			},
			wantKind:  KindConfiguration,
			wantField: "youth.admits_responsibility",
			wantCause: new(*eligibility.ConfigurationError),
		},
		{
			name: "empty alternatives ladder",
			input: func(t *testing.T) Input {
				return Input{
					Snapshot:     firstTimeShoplifter(t, "case-e3"),
					Catalog:      cat,
					Alternatives: []detention.Alternative{},
					Override: &override.Request{
						Direction:     override.MoreRestrictive,
						Justification: "prior threats",
						Approver:      "supervisor-2",
					},
				}
			},
			wantKind:  KindIncompleteReview,
			wantCause: new(*detention.IncompleteAlternativesReviewError),
		},
		{
			name: "invalid snapshot",
			input: func(t *testing.T) Input {
				s := firstTimeShoplifter(t, "case-e4")
				s.LivingSituation = "houseboat"
				return Input{Snapshot: s, Catalog: cat}
			},
			wantKind:  KindInvalidSnapshot,
			wantField: "living_situation",
			wantCause: new(*intake.ValidationError),
		},
		{
			name: "unsealed snapshot",
			input: func(t *testing.T) Input {
				s := firstTimeShoplifter(t, "case-e5")
				s.ID = ""
				return Input{Snapshot: s, Catalog: cat}
			},
			wantKind:  KindInvalidSnapshot,
			wantField: "id",
		},
		{
			name: "missing catalog",
			input: func(t *testing.T) Input {
				return Input{Snapshot: firstTimeShoplifter(t, "case-e6")}
			},
			wantKind: KindConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			trail := audit.NewTrail(storage.NewMemoryStorage())
			orch := New(trail)
			in := tt.input(t)

			bundle, err := orch.Evaluate(ctx, in)
			if bundle != nil {
				t.Fatalf("Evaluate() bundle = %+v, want nil", bundle)
			}
			var evalErr *EvaluationError
			if !errors.As(err, &evalErr) {
				t.Fatalf("Evaluate() error = %v, want *EvaluationError", err)
			}
			if evalErr.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", evalErr.Kind, tt.wantKind)
			}
			if evalErr.CaseID != in.Snapshot.CaseID {
				t.Errorf("CaseID = %s, want %s", evalErr.CaseID, in.Snapshot.CaseID)
			}
			if tt.wantCause != nil && !errors.As(err, tt.wantCause) {
				t.Errorf("error %v does not wrap %T", err, tt.wantCause)
			}

			entries, err := trail.Read(ctx, in.Snapshot.CaseID)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if len(entries) != 1 {
				t.Fatalf("got %d entries, want exactly one error entry", len(entries))
			}
			e := entries[0]
			if e.Kind != audit.KindError || e.ID != evalErr.AuditEntryID {
				t.Errorf("entry = %s/%s, want error/%s", e.Kind, e.ID, evalErr.AuditEntryID)
			}
			if e.Score != nil || e.Override != nil || e.Disposition != nil || e.Eligibility != nil {
				t.Error("error entry carries partial decision content")
			}
			if e.Error == nil || e.Error.Kind != tt.wantKind {
				t.Fatalf("entry error = %+v, want kind %s", e.Error, tt.wantKind)
			}
			if tt.wantField != "" && e.Error.Field != tt.wantField {
				t.Errorf("entry error field = %q, want %q", e.Error.Field, tt.wantField)
			}
		})
	}
}

// TestEvaluate_ReportsEveryMissingFact scores a first-time property
// misdemeanor captured with only the core intake facts. Every optional
// fact the catalog reads is reported at once, before scoring.
func TestEvaluate_ReportsEveryMissingFact(t *testing.T) {
	ctx := context.Background()
	trail := audit.NewTrail(storage.NewMemoryStorage())
	orch := New(trail)

	s, err := intake.New(intake.CaseSnapshot{
		CaseID:          "case-core",
		Youth:           intake.Youth{Age: 14},
		Offense:         intake.Offense{Severity: intake.SeverityMisdemeanorProperty},
		Supervision:     []intake.SupervisionStatus{intake.SupervisionNone},
		LivingSituation: intake.LivingStableGuardian,
	})
	if err != nil {
		t.Fatalf("intake.New() error = %v", err)
	}

	_, err = orch.Evaluate(ctx, Input{Snapshot: s, Catalog: loadCatalog(t)})
	var ce *eligibility.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("Evaluate() error = %v, want *eligibility.ConfigurationError", err)
	}

	wantFields := []string{
		"flags.mental_health_need",
		"flags.substance_use_indicated",
		"youth.admits_responsibility",
		"youth.family_participation_consent",
	}
	wantPrograms := []string{
		"standard_diversion",
		"teen_court",
		"restorative_justice",
		"substance_abuse_treatment",
		"mental_health_services",
	}
	if !slices.Equal(ce.Missing, wantFields) {
		t.Errorf("Missing = %v, want %v", ce.Missing, wantFields)
	}
	if !slices.Equal(ce.Programs, wantPrograms) {
		t.Errorf("Programs = %v, want %v", ce.Programs, wantPrograms)
	}

	entries, err := trail.Read(ctx, "case-core")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Error == nil {
		t.Fatalf("entries = %+v, want one error entry", entries)
	}
	detail := entries[0].Error
	if detail.Kind != KindConfiguration || !slices.Equal(detail.Fields, wantFields) {
		t.Errorf("entry error = %+v, want configuration listing %v", detail, wantFields)
	}
	if !slices.Equal(detail.Programs, wantPrograms) {
		t.Errorf("entry error programs = %v", detail.Programs)
	}
	if entries[0].Score != nil {
		t.Error("error entry carries a score")
	}
}

func TestEvaluate_RecordsSnapshotFacts(t *testing.T) {
	ctx := context.Background()
	trail := audit.NewTrail(storage.NewMemoryStorage())
	orch := New(trail)
	cat := loadCatalog(t)

	first := firstTimeShoplifter(t, "case-facts")
	bundle, err := orch.Evaluate(ctx, Input{Snapshot: first, Catalog: cat})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if bundle.SnapshotHash == "" {
		t.Error("bundle has no snapshot hash")
	}

	// Same id, different facts.
	altered := first.Clone()
	altered.Youth.Age = 16
	_, err = orch.Evaluate(ctx, Input{Snapshot: altered, Catalog: cat})
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Kind != KindInvalidSnapshot {
		t.Fatalf("Evaluate() error = %v, want %s", err, KindInvalidSnapshot)
	}
	if !errors.Is(err, audit.ErrSnapshotConflict) {
		t.Errorf("error %v does not wrap ErrSnapshotConflict", err)
	}

	entries, err := trail.Read(ctx, "case-facts")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want decision and error", len(entries))
	}
	decision, failure := entries[0], entries[1]
	if decision.Kind != audit.KindDecision || decision.Snapshot == nil {
		t.Fatalf("first entry = %s with snapshot %v", decision.Kind, decision.Snapshot)
	}
	if decision.Snapshot.Youth.Age != 14 || decision.Snapshot.ID != first.ID {
		t.Errorf("decision snapshot = age %d id %s", decision.Snapshot.Youth.Age, decision.Snapshot.ID)
	}
	if !slices.Equal(decision.Snapshot.Offense.Tags, []string{intake.TagShoplifting}) {
		t.Errorf("decision snapshot tags = %v", decision.Snapshot.Offense.Tags)
	}
	if decision.SnapshotHash != bundle.SnapshotHash {
		t.Errorf("SnapshotHash = %s, want %s", decision.SnapshotHash, bundle.SnapshotHash)
	}

	if failure.Kind != audit.KindError || failure.Snapshot == nil || failure.Snapshot.Youth.Age != 16 {
		t.Fatalf("second entry = %s with snapshot %+v", failure.Kind, failure.Snapshot)
	}
	if failure.Error.Kind != KindInvalidSnapshot || failure.Error.Field != "id" {
		t.Errorf("entry error = %+v", failure.Error)
	}
	if failure.SnapshotHash == decision.SnapshotHash {
		t.Error("differing facts share a snapshot hash")
	}

	rebuilt, err := FromEntry(decision)
	if err != nil {
		t.Fatalf("FromEntry() error = %v", err)
	}
	if rebuilt.SnapshotHash != bundle.SnapshotHash {
		t.Errorf("rebuilt SnapshotHash = %s", rebuilt.SnapshotHash)
	}
}

func TestEvaluate_IncompleteReviewListsMissing(t *testing.T) {
	ctx := context.Background()
	trail := audit.NewTrail(storage.NewMemoryStorage())
	orch := New(trail)

	_, err := orch.Evaluate(ctx, Input{
		Snapshot:     firstTimeShoplifter(t, "case-103"),
		Catalog:      loadCatalog(t),
		Alternatives: []detention.Alternative{},
		Override: &override.Request{
			Direction:     override.MoreRestrictive,
			Justification: "prior threats",
			Approver:      "supervisor-2",
		},
	})
	if err == nil {
		t.Fatal("Evaluate() error = nil, want error")
	}

	last, err := trail.Storage().Last(ctx, "case-103")
	if err != nil {
		t.Fatalf("Last() error = %v", err)
	}
	if !slices.Equal(last.Error.Alternatives, detention.StandardLadder) {
		t.Errorf("Alternatives = %v, want %v", last.Error.Alternatives, detention.StandardLadder)
	}
}

func TestEvaluate_NoCaseID(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	orch := New(audit.NewTrail(store))

	for _, snap := range []*intake.CaseSnapshot{nil, {ID: "snap-1"}} {
		_, err := orch.Evaluate(ctx, Input{Snapshot: snap, Catalog: loadCatalog(t)})
		var evalErr *EvaluationError
		if !errors.As(err, &evalErr) {
			t.Fatalf("Evaluate() error = %v, want *EvaluationError", err)
		}
		if evalErr.Kind != KindInvalidSnapshot || evalErr.AuditEntryID != "" {
			t.Errorf("error = %+v, want unrecorded invalid_snapshot", evalErr)
		}
	}
	if store.Size() != 0 {
		t.Errorf("storage holds %d entries, want 0", store.Size())
	}
}

func TestEvaluate_StorageFailure(t *testing.T) {
	store := storage.NewMemoryStorage()
	store.Close()
	m := newFakeMetrics()
	orch := New(audit.NewTrail(store), WithMetrics(m))

	_, err := orch.Evaluate(context.Background(), Input{
		Snapshot: firstTimeShoplifter(t, "case-104"),
		Catalog:  loadCatalog(t),
	})
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("Evaluate() error = %v, want *EvaluationError", err)
	}
	if evalErr.Kind != KindInternal {
		t.Errorf("Kind = %s, want %s", evalErr.Kind, KindInternal)
	}
	if evalErr.AuditEntryID != "" {
		t.Errorf("AuditEntryID = %q, want empty", evalErr.AuditEntryID)
	}
	if !errors.Is(err, audit.ErrClosed) {
		t.Errorf("error %v does not wrap ErrClosed", err)
	}
	if m.auditErrors != 2 {
		t.Errorf("audit write failures = %d, want 2", m.auditErrors)
	}
	if len(m.decisions) != 0 {
		t.Errorf("decisions recorded on failure: %v", m.decisions)
	}
}

func TestEvaluate_Metrics(t *testing.T) {
	m := newFakeMetrics()
	orch := New(audit.NewTrail(storage.NewMemoryStorage()), WithMetrics(m))
	cat := loadCatalog(t)

	if _, err := orch.Evaluate(context.Background(), Input{Snapshot: firstTimeShoplifter(t, "case-105"), Catalog: cat}); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	bad := firstTimeShoplifter(t, "case-106")
	bad.Flags.MentalHealthNeed = nil
	_, _ = orch.Evaluate(context.Background(), Input{Snapshot: bad, Catalog: cat})

	if !slices.Equal(m.outcomes, []string{outcomeDecided, KindConfiguration}) {
		t.Errorf("outcomes = %v", m.outcomes)
	}
	if !slices.Equal(m.decisions, []string{"release/Low/none"}) {
		t.Errorf("decisions = %v", m.decisions)
	}
	if !m.eligibility["standard_diversion"] || m.eligibility["enhanced_diversion"] {
		t.Errorf("eligibility = %v", m.eligibility)
	}
	if m.auditWrites[string(audit.KindDecision)] != 1 || m.auditWrites[string(audit.KindError)] != 1 {
		t.Errorf("audit writes = %v", m.auditWrites)
	}
}

func TestEvaluate_Spans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	orch := New(audit.NewTrail(storage.NewMemoryStorage()), WithTracer(tp.Tracer("test")))
	if _, err := orch.Evaluate(context.Background(), Input{
		Snapshot: firstTimeShoplifter(t, "case-107"),
		Catalog:  loadCatalog(t),
	}); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	var names []string
	var root sdktrace.ReadOnlySpan
	spans := exporter.GetSpans().Snapshots()
	for _, s := range spans {
		names = append(names, s.Name())
		if s.Name() == "intake.evaluate" {
			root = s
		}
	}
	for _, want := range []string{"intake.evaluate", "intake.score", "intake.override", "intake.eligibility", "intake.detention", "intake.audit"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing span %s in %v", want, names)
		}
	}
	if root == nil {
		t.Fatal("no root span")
	}
	for _, s := range spans {
		if s.Name() != "intake.evaluate" && s.Parent().SpanID() != root.SpanContext().SpanID() {
			t.Errorf("span %s is not a child of intake.evaluate", s.Name())
		}
	}
}

func TestEvaluateBatch(t *testing.T) {
	ctx := context.Background()
	trail := audit.NewTrail(storage.NewMemoryStorage())
	orch := New(trail)
	cat := loadCatalog(t)

	var inputs []Input
	for _, id := range []string{"b-1", "b-2", "b-3", "b-4"} {
		inputs = append(inputs, Input{Snapshot: firstTimeShoplifter(t, id), Catalog: cat})
	}
	inputs[2].Override = &override.Request{Direction: "sideways"}

	results := orch.EvaluateBatch(ctx, inputs, 2)
	if len(results) != len(inputs) {
		t.Fatalf("got %d results, want %d", len(results), len(inputs))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("results[%d].Index = %d", i, r.Index)
		}
		if i == 2 {
			if r.Err == nil || r.Bundle != nil {
				t.Errorf("results[2] = %+v, want error only", r)
			}
			continue
		}
		if r.Err != nil || r.Bundle == nil {
			t.Errorf("results[%d] error = %v", i, r.Err)
			continue
		}
		if r.Bundle.CaseID != inputs[i].Snapshot.CaseID {
			t.Errorf("results[%d].CaseID = %s", i, r.Bundle.CaseID)
		}
	}
}

func TestEvaluateBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := New(audit.NewTrail(storage.NewMemoryStorage()))
	results := orch.EvaluateBatch(ctx, []Input{{Snapshot: firstTimeShoplifter(t, "c-1"), Catalog: loadCatalog(t)}}, 0)
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", results[0].Err)
	}
}

func TestSummary(t *testing.T) {
	b := &DecisionBundle{
		CaseID:         "case-9",
		SnapshotID:     "snap-9",
		CatalogVersion: "abc123def456",
		AuditEntryID:   "entry-9",
		AuditSequence:  3,
		Score:          risk.Score{Total: 18, Band: risk.BandModerateHigh},
		Override: override.Decision{
			Kind:                override.KindMandatoryDetain,
			MandatoryConditions: []string{"firearm_used_in_felony"},
		},
		Disposition: detention.Disposition{
			Kind:     disposition.AlternativeToDetention,
			Band:     risk.BandModerateHigh,
			Selected: "electronic_monitoring",
		},
		Eligibility: []eligibility.Result{
			{Program: "mental_health_services", Eligible: true, RequiresSupervisorApproval: true},
			{Program: "teen_court", Eligible: false},
		},
		ProtectiveFactors: []string{"school attendance"},
	}

	got := b.Summary()
	for _, want := range []string{
		"Case case-9 (snapshot snap-9)",
		"Risk: 18 (Moderate-High)\n",
		"Override: mandatory_detain (firearm_used_in_felony)",
		"Recommendation: alternative_to_detention via electronic_monitoring",
		"Eligible programs: 1 of 2 (mental_health_services)",
		"Supervisor approval required: mental_health_services",
		"Protective factors: school attendance",
		"Audit entry: entry-9 #3, catalog abc123def456",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary() missing %q:\n%s", want, got)
		}
	}
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/catalog"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/detention"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/eligibility"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/override"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/risk"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/telemetry/tracing"
)

// outcomeDecided labels evaluations that produced a decision.
const outcomeDecided = "decided"

// Input is one evaluation request.
type Input struct {
	// Snapshot must come from intake.New or intake.Revise.
	Snapshot *intake.CaseSnapshot

	// Catalog supplies the program rules and its version.
	Catalog *catalog.Catalog

	// Alternatives is the ladder to walk; nil uses the catalog's ladder.
	Alternatives []detention.Alternative

	// Override is an optional discretionary override request.
	Override *override.Request

	// Assessor identifies the officer running the evaluation.
	Assessor string
}

// Metrics receives evaluation events. *metrics.Collector satisfies it.
type Metrics interface {
	RecordEvaluation(outcome string, duration time.Duration)
	RecordDecision(disposition, band, overrideKind string, total int)
	RecordAlternativeSelected(alternative string)
	RecordEligibility(program string, eligible, requiresApproval bool)
	RecordAuditWrite(kind string, err error)
}

// Orchestrator is the single entry point for intake decisions. It runs
// scoring, overrides, eligibility and the detention decision in that
// order and records exactly one audit entry per call. It is safe for
// concurrent use.
type Orchestrator struct {
	scorer  *risk.Engine
	policy  *override.Policy
	matcher *eligibility.Matcher
	engine  *detention.Engine
	trail   *audit.Trail

	metrics Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records evaluation metrics.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithTracer records spans for each evaluation.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithMatcher replaces the default eligibility matcher.
func WithMatcher(m *eligibility.Matcher) Option {
	return func(o *Orchestrator) { o.matcher = m }
}

// New creates an orchestrator writing to trail.
func New(trail *audit.Trail, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		scorer:  risk.NewEngine(),
		policy:  override.NewPolicy(),
		matcher: eligibility.NewMatcher(),
		engine:  detention.NewEngine(),
		trail:   trail,
		metrics: nopMetrics{},
		tracer:  noop.NewTracerProvider().Tracer(tracing.InstrumentationName),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "orchestrator")
	return o
}

// Trail returns the audit trail decisions are recorded on.
func (o *Orchestrator) Trail() *audit.Trail {
	return o.trail
}

// Evaluate produces and records a decision. On failure no decision entry
// is written; an error entry recording the cause is appended instead and
// an *EvaluationError is returned.
func (o *Orchestrator) Evaluate(ctx context.Context, in Input) (*DecisionBundle, error) {
	start := time.Now()

	ctx, span := o.tracer.Start(ctx, "intake.evaluate")
	defer span.End()

	caseID, snapshotID := "", ""
	if in.Snapshot != nil {
		caseID, snapshotID = in.Snapshot.CaseID, in.Snapshot.ID
	}
	version := ""
	if in.Catalog != nil {
		version = in.Catalog.Version
	}
	tracing.SetCaseAttributes(span, caseID, snapshotID, version)

	bundle, err := o.decide(ctx, in)
	if err != nil {
		evalErr := o.fail(ctx, in, err)
		tracing.SetErrorKind(span, evalErr, evalErr.Kind)
		o.metrics.RecordEvaluation(evalErr.Kind, time.Since(start))
		return nil, evalErr
	}

	if err := o.record(ctx, bundle, in.Snapshot); err != nil {
		evalErr := o.fail(ctx, in, err)
		tracing.SetErrorKind(span, evalErr, evalErr.Kind)
		o.metrics.RecordEvaluation(evalErr.Kind, time.Since(start))
		return nil, evalErr
	}

	tracing.SetError(span, nil)
	o.metrics.RecordEvaluation(outcomeDecided, time.Since(start))
	o.metrics.RecordDecision(string(bundle.Disposition.Kind), string(bundle.Disposition.Band),
		string(bundle.Override.Kind), bundle.Score.Total)
	if bundle.Disposition.Selected != "" {
		o.metrics.RecordAlternativeSelected(bundle.Disposition.Selected)
	}
	for _, r := range bundle.Eligibility {
		o.metrics.RecordEligibility(r.Program, r.Eligible, r.RequiresSupervisorApproval)
	}

	o.logger.InfoContext(ctx, "decision recorded",
		"case_id", bundle.CaseID,
		"snapshot_id", bundle.SnapshotID,
		"entry_id", bundle.AuditEntryID,
		"band", bundle.Disposition.Band,
		"disposition", bundle.Disposition.Kind,
		"override", bundle.Override.Kind,
		"eligible_programs", len(bundle.EligiblePrograms()),
		"duration", time.Since(start),
	)
	return bundle, nil
}

// decide runs the four decision stages without touching the audit trail.
func (o *Orchestrator) decide(ctx context.Context, in Input) (*DecisionBundle, error) {
	s := in.Snapshot
	if err := intake.Validate(s); err != nil {
		return nil, err
	}
	if s.ID == "" {
		return nil, errUnsealedSnapshot
	}
	if in.Catalog == nil {
		return nil, errMissingCatalog
	}
	alternatives := in.Alternatives
	if alternatives == nil {
		alternatives = in.Catalog.Alternatives
	}
	if err := eligibility.CheckFacts(s.Facts(), in.Catalog.Programs); err != nil {
		return nil, err
	}

	_, span := o.tracer.Start(ctx, "intake.score")
	score := o.scorer.Score(s)
	tracing.SetScoreAttributes(span, score.Total, string(score.Band))
	span.End()

	_, span = o.tracer.Start(ctx, "intake.override")
	ovr, err := o.policy.Apply(s, score, in.Override)
	if err != nil {
		tracing.SetError(span, err)
		span.End()
		return nil, err
	}
	tracing.SetOverrideAttributes(span, string(ovr.Kind), string(ovr.AdjustedBand))
	span.End()

	matchCtx, span := o.tracer.Start(ctx, "intake.eligibility")
	results, err := o.matcher.Match(matchCtx, s, score, in.Catalog.Programs)
	if err != nil {
		tracing.SetError(span, err)
		span.End()
		return nil, err
	}
	tracing.SetEligibilityAttributes(span, len(results), len(eligibility.Eligible(results)))
	span.End()

	_, span = o.tracer.Start(ctx, "intake.detention")
	disp, err := o.engine.Decide(s, score, ovr, alternatives)
	if err != nil {
		tracing.SetError(span, err)
		span.End()
		return nil, err
	}
	tracing.SetDispositionAttributes(span, string(disp.Kind), disp.Selected)
	span.End()

	return &DecisionBundle{
		CaseID:            s.CaseID,
		SnapshotID:        s.ID,
		Assessor:          in.Assessor,
		CatalogVersion:    in.Catalog.Version,
		Score:             score,
		Override:          ovr,
		Eligibility:       results,
		Disposition:       disp,
		ProtectiveFactors: append([]string(nil), s.ProtectiveFactors...),
	}, nil
}

// record appends the decision entry for snapshot s and copies the
// trail-assigned fields back onto the bundle.
func (o *Orchestrator) record(ctx context.Context, b *DecisionBundle, s *intake.CaseSnapshot) error {
	ctx, span := o.tracer.Start(ctx, "intake.audit")
	defer span.End()

	entry := b.entry(s)
	id, err := o.trail.Record(ctx, entry)
	o.metrics.RecordAuditWrite(string(audit.KindDecision), err)
	if err != nil {
		tracing.SetError(span, err)
		return err
	}

	b.AuditEntryID = id
	b.AuditSequence = entry.Sequence
	b.RecordedAt = entry.Timestamp
	b.SnapshotHash = entry.SnapshotHash
	tracing.SetAuditAttributes(span, id, entry.Sequence)
	return nil
}

// fail records an error entry for cause and builds the returned error.
func (o *Orchestrator) fail(ctx context.Context, in Input, cause error) *EvaluationError {
	detail := classify(cause)
	evalErr := &EvaluationError{Kind: detail.Kind, Cause: cause}

	if in.Snapshot == nil || in.Snapshot.CaseID == "" {
		o.logger.WarnContext(ctx, "evaluation rejected without a case id", "kind", detail.Kind, "error", cause)
		return evalErr
	}
	evalErr.CaseID = in.Snapshot.CaseID

	entry := &audit.Entry{
		CaseID:     in.Snapshot.CaseID,
		Kind:       audit.KindError,
		SnapshotID: in.Snapshot.ID,
		Snapshot:   in.Snapshot.Clone(),
		Assessor:   in.Assessor,
		Error:      detail,
	}
	if in.Catalog != nil {
		entry.CatalogVersion = in.Catalog.Version
	}

	id, err := o.trail.Record(ctx, entry)
	o.metrics.RecordAuditWrite(string(audit.KindError), err)
	if err != nil {
		o.logger.ErrorContext(ctx, "failed to record evaluation error",
			"case_id", in.Snapshot.CaseID, "kind", detail.Kind, "error", err)
		evalErr.Cause = errors.Join(cause, fmt.Errorf("recording error entry: %w", err))
		return evalErr
	}
	evalErr.AuditEntryID = id

	o.logger.WarnContext(ctx, "evaluation failed",
		"case_id", in.Snapshot.CaseID,
		"snapshot_id", in.Snapshot.ID,
		"entry_id", id,
		"kind", detail.Kind,
		"error", cause,
	)
	return evalErr
}

type nopMetrics struct{}

func (nopMetrics) RecordEvaluation(string, time.Duration)    {}
func (nopMetrics) RecordDecision(string, string, string, int) {}
func (nopMetrics) RecordAlternativeSelected(string)          {}
func (nopMetrics) RecordEligibility(string, bool, bool)      {}
func (nopMetrics) RecordAuditWrite(string, error)            {}

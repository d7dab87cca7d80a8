package eligibility

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/predicate"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/risk"
)

// Result is the eligibility outcome for one program.
type Result struct {
	Program        string `json:"program"`
	Eligible       bool   `json:"eligible"`
	PolicyCitation string `json:"policy_citation,omitempty"`

	// FailingPredicates lists failed requirements in rule order followed by
	// fired exclusions in rule order. It is empty iff Eligible.
	FailingPredicates []string `json:"failing_predicates,omitempty"`

	// Barriers holds the description of each failing predicate, aligned
	// with FailingPredicates.
	Barriers []string `json:"barriers,omitempty"`

	RequiresSupervisorApproval bool     `json:"requires_supervisor_approval"`
	PreferredTagMatches        []string `json:"preferred_tag_matches,omitempty"`
}

// Matcher evaluates program rules against a scored snapshot. Programs are
// evaluated independently and in parallel; results keep input order.
type Matcher struct {
	concurrency int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithConcurrency bounds the number of programs evaluated at once.
func WithConcurrency(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// NewMatcher creates a matcher.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{concurrency: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns one result per program in input order. A malformed rule or
// a snapshot missing a needed fact fails the whole call with
// *ConfigurationError; when several programs fail, the error for the
// earliest program is returned.
func (m *Matcher) Match(ctx context.Context, s *intake.CaseSnapshot, score risk.Score, programs []ProgramRule) ([]Result, error) {
	facts := predicate.Layered{s.Facts(), score.Facts()}
	results := make([]Result, len(programs))
	errs := make([]error, len(programs))

	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i := range programs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return err
			}
			res, err := evaluateProgram(programs[i], s, facts)
			if err != nil {
				errs[i] = err
				return err
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	// Every program is evaluated so the reported error does not depend on
	// scheduling order.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func evaluateProgram(rule ProgramRule, s *intake.CaseSnapshot, facts predicate.Facts) (Result, error) {
	res := Result{Program: rule.Name, PolicyCitation: rule.PolicyCitation}

	eval := func(p predicate.Predicate) (bool, error) {
		ok, err := predicate.Evaluate(p, facts)
		if err != nil {
			ce := &ConfigurationError{Program: rule.Name, Predicate: p.Name, Cause: err}
			var ee *predicate.EvaluationError
			if errors.As(err, &ee) {
				ce.Field = ee.Field
			}
			return false, ce
		}
		return ok, nil
	}

	for _, p := range rule.RequiredAll {
		ok, err := eval(p)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			res.FailingPredicates = append(res.FailingPredicates, p.Name)
			res.Barriers = append(res.Barriers, p.Label())
		}
	}

	for _, p := range rule.ExcludedIfAny {
		fired, err := eval(p)
		if err != nil {
			return Result{}, err
		}
		if fired {
			res.FailingPredicates = append(res.FailingPredicates, p.Name)
			res.Barriers = append(res.Barriers, p.Label())
		}
	}

	res.Eligible = len(res.FailingPredicates) == 0

	if res.Eligible {
		for _, p := range rule.SupervisorApprovalIfAny {
			needed, err := eval(p)
			if err != nil {
				return Result{}, err
			}
			if needed {
				res.RequiresSupervisorApproval = true
				break
			}
		}
	}

	for _, tag := range rule.PreferredOffenseTags {
		if s.Offense.HasTag(tag) {
			res.PreferredTagMatches = append(res.PreferredTagMatches, tag)
		}
	}
	return res, nil
}

// Eligible returns the names of eligible programs in result order.
func Eligible(results []Result) []string {
	var out []string
	for _, r := range results {
		if r.Eligible {
			out = append(out, r.Program)
		}
	}
	return out
}

package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency bounds concurrent evaluations in a batch.
const DefaultBatchConcurrency = 8

// BatchResult is the outcome of one input in a batch. Exactly one of
// Bundle and Err is set.
type BatchResult struct {
	Index  int
	Bundle *DecisionBundle
	Err    error
}

// EvaluateBatch evaluates inputs concurrently and returns one result per
// input in input order. A failed evaluation does not stop the others;
// only cancellation of ctx does, and unstarted inputs then report
// ctx.Err().
func (o *Orchestrator) EvaluateBatch(ctx context.Context, inputs []Input, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	results := make([]BatchResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range inputs {
		results[i].Index = i
		if err := gctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Bundle, results[i].Err = o.Evaluate(gctx, inputs[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

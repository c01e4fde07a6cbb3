package orchestrator

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/output"
)

// BatchResult pairs one claim's aggregate with the claim-level error, when
// the run failed. A run that reached the pipeline but produced no output
// carries both: the aggregate records each module's failure and Err is the
// first requested module's error.
type BatchResult struct {
	Result *output.Result
	Err    error
}

// ProcessBatch fans claims out over a bounded worker pool and returns one
// entry per claim, index-aligned with the input. Claims are independent; a
// failure in one never cancels another. workers of zero or less means one
// worker per CPU.
func (o *Orchestrator) ProcessBatch(ctx context.Context, claims []*claim.Claim, workers int) []BatchResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	out := make([]BatchResult, len(claims))

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, c := range claims {
		i, c := i, c
		g.Go(func() error {
			res, err := o.Process(ctx, c)
			out[i] = BatchResult{Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

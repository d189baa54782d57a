package backtest

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"bess-dispatch/internal/model"
	"bess-dispatch/internal/revenue"
	"bess-dispatch/internal/strategy"
)

// Comparison holds the greedy and optimized runs over one series.
type Comparison struct {
	Greedy    *Result
	Optimized *Result
}

// RunComparison runs the greedy and lookahead policies concurrently over the
// same series. Both runs must succeed.
func (e *Engine) RunComparison(ctx context.Context, series []model.SettlementPeriod, asset model.BatteryAsset, lookahead int, cfg revenue.Config) (*Comparison, error) {
	if lookahead < 0 {
		return nil, &model.ConfigError{Param: "lookahead_periods", Reason: fmt.Sprintf("must be >= 0, got %d", lookahead)}
	}
	var out Comparison
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := e.Run(gctx, series, asset, &strategy.GreedyStrategy{}, cfg)
		if err != nil {
			return fmt.Errorf("greedy: %w", err)
		}
		out.Greedy = r
		return nil
	})
	g.Go(func() error {
		r, err := e.Run(gctx, series, asset, strategy.NewLookaheadStrategy(lookahead), cfg)
		if err != nil {
			return fmt.Errorf("optimized: %w", err)
		}
		out.Optimized = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Job is one independent unit of batch work.
type Job struct {
	ID      string
	Series  []model.SettlementPeriod
	Asset   model.BatteryAsset
	Policy  strategy.Spec
	Revenue revenue.Config
}

// Outcome carries either a complete Result or the error that prevented it.
type Outcome struct {
	JobID  string
	Result *Result
	Err    error
}

// RunBatch runs jobs on a pool of at most workers goroutines
// (runtime.NumCPU() when workers <= 0). Outcomes are returned in job order.
// A failing job does not stop the others; jobs not finished when ctx is
// cancelled report ctx.Err().
func (e *Engine) RunBatch(ctx context.Context, jobs []Job, workers int) []Outcome {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	out := make([]Outcome, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			out[i] = e.runJob(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Engine) runJob(ctx context.Context, job Job) Outcome {
	o := Outcome{JobID: job.ID}
	if err := ctx.Err(); err != nil {
		o.Err = err
		return o
	}
	policy, err := strategy.New(job.Policy, job.Series, job.Asset, job.Revenue.DegradationCostPerMWh)
	if err != nil {
		o.Err = fmt.Errorf("policy: %w", err)
		return o
	}
	o.Result, o.Err = e.Run(ctx, job.Series, job.Asset, policy, job.Revenue)
	return o
}

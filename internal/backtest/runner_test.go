package backtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bess-dispatch/internal/model"
	"bess-dispatch/internal/revenue"
	"bess-dispatch/internal/strategy"
)

func TestRunComparison_NegativeLookahead(t *testing.T) {
	_, err := New().RunComparison(context.Background(), scenarioA(), testAsset(), -1, revenue.DefaultConfig())
	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "lookahead_periods", cfgErr.Param)
}

func TestRunComparison_InvalidAssetFailsWhole(t *testing.T) {
	a := testAsset()
	a.PowerMW = 0
	cmp, err := New().RunComparison(context.Background(), scenarioA(), a, 48, revenue.DefaultConfig())
	assert.Nil(t, cmp)
	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "power_mw", cfgErr.Param)
}

func TestRunBatch(t *testing.T) {
	bad := testAsset()
	bad.SOCMaxMWh = 10

	jobs := make([]Job, 0, 8)
	for i := 0; i < 6; i++ {
		a := testAsset()
		a.PowerMW = 1 + float64(i)*0.5
		jobs = append(jobs, Job{ID: fmt.Sprintf("job-%d", i), Series: scenarioA(), Asset: a, Policy: strategy.Spec{Name: "greedy"}, Revenue: revenue.DefaultConfig()})
	}
	jobs = append(jobs,
		Job{ID: "bad-asset", Series: scenarioA(), Asset: bad, Policy: strategy.Spec{Name: "greedy"}, Revenue: revenue.DefaultConfig()},
		Job{ID: "bad-policy", Series: scenarioA(), Asset: testAsset(), Policy: strategy.Spec{Name: "coinflip"}, Revenue: revenue.DefaultConfig()},
	)

	out := New().RunBatch(context.Background(), jobs, 3)
	require.Len(t, out, len(jobs))
	for i := 0; i < 6; i++ {
		assert.Equal(t, jobs[i].ID, out[i].JobID)
		require.NoError(t, out[i].Err)
		require.NotNil(t, out[i].Result)
		assert.Len(t, out[i].Result.Ledger, 48)
	}

	var cfgErr *model.ConfigError
	assert.Nil(t, out[6].Result)
	require.ErrorAs(t, out[6].Err, &cfgErr)
	assert.Equal(t, "soc_max", cfgErr.Param)

	assert.Nil(t, out[7].Result)
	require.ErrorAs(t, out[7].Err, &cfgErr)
	assert.Equal(t, "policy.name", cfgErr.Param)
}

func TestRunBatch_SameResultAsSequential(t *testing.T) {
	job := Job{ID: "a", Series: dominanceScenario(), Asset: testAsset(), Policy: strategy.Spec{Name: "optimized"}, Revenue: revenue.DefaultConfig()}
	out := New().RunBatch(context.Background(), []Job{job, job}, 0)

	seq, err := New().Run(context.Background(), job.Series, job.Asset, strategy.NewLookaheadStrategy(48), job.Revenue)
	require.NoError(t, err)
	for _, o := range out {
		require.NoError(t, o.Err)
		assert.Equal(t, seq, o.Result)
	}
}

func TestRunBatch_CancelledYieldsNoPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{
		{ID: "a", Series: scenarioA(), Asset: testAsset(), Policy: strategy.Spec{Name: "greedy"}},
		{ID: "b", Series: scenarioA(), Asset: testAsset(), Policy: strategy.Spec{Name: "optimized"}},
	}
	for _, o := range New().RunBatch(ctx, jobs, 1) {
		assert.Nil(t, o.Result)
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

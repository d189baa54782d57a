package backtest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bess-dispatch/internal/logger"
	"bess-dispatch/internal/model"
	"bess-dispatch/internal/revenue"
	"bess-dispatch/internal/strategy"
)

var day0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func flatSeries(n int, importPrice, exportPrice float64) []model.SettlementPeriod {
	out := make([]model.SettlementPeriod, n)
	for i := range out {
		out[i] = model.SettlementPeriod{
			Start:       day0.Add(time.Duration(i) * model.SettlementPeriodDuration),
			Index:       i%model.PeriodsPerDay + 1,
			ImportPrice: model.Float(importPrice),
			ExportPrice: model.Float(exportPrice),
		}
	}
	return out
}

func testAsset() model.BatteryAsset {
	return model.BatteryAsset{
		Name:          "test",
		PowerMW:       2.5,
		CapacityMWh:   5,
		Efficiency:    0.9,
		SOCMinMWh:     0.25,
		SOCMaxMWh:     5,
		InitialSOCMWh: 2.5,
	}
}

// scenarioA is a flat day with one negative-price trough and one export spike.
func scenarioA() []model.SettlementPeriod {
	s := flatSeries(48, 50, 50)
	s[10].ImportPrice, s[10].ExportPrice = model.Float(-20), model.Float(-20)
	s[30].ExportPrice = model.Float(150)
	return s
}

// dominanceScenario has a cheap and an expensive period but no single-period
// spread, so only a policy that looks ahead can trade.
func dominanceScenario() []model.SettlementPeriod {
	s := flatSeries(48, 50, 50)
	s[5].ImportPrice, s[5].ExportPrice = model.Float(20), model.Float(20)
	s[20].ImportPrice, s[20].ExportPrice = model.Float(100), model.Float(100)
	return s
}

func TestRun_ScenarioA(t *testing.T) {
	e := New()
	for _, p := range []strategy.Policy{&strategy.GreedyStrategy{}, strategy.NewLookaheadStrategy(48)} {
		res, err := e.Run(context.Background(), scenarioA(), testAsset(), p, revenue.DefaultConfig())
		require.NoError(t, err, p.Name())
		require.Len(t, res.Ledger, 48)

		charge := res.Ledger[10]
		assert.Equal(t, model.ActionCharge, charge.Action, p.Name())
		assert.InDelta(t, 1.125, charge.ChargeMWh, 1e-9)
		assert.InDelta(t, 25.0, charge.Cashflow.Arbitrage, 1e-9)

		discharge := res.Ledger[30]
		assert.Equal(t, model.ActionDischarge, discharge.Action, p.Name())
		assert.InDelta(t, 1.25, discharge.DischargeMWh, 1e-9)
		assert.InDelta(t, 187.5, discharge.Cashflow.Arbitrage, 1e-9)

		for i, r := range res.Ledger {
			if i != 10 && i != 30 {
				assert.Equal(t, model.ActionHold, r.Action, "%s period %d", p.Name(), i)
			}
		}
		assert.InDelta(t, 212.5, res.Totals.Arbitrage, 1e-9)
		assert.InDelta(t, 212.5, res.NetProfit, 1e-9)
		assert.InDelta(t, 2.375, res.FinalSOC, 1e-9)
		assert.InDelta(t, 24.0, res.CoveredHours, 1e-9)
	}
}

func TestRun_ScenarioB_AvailabilityWithoutDispatch(t *testing.T) {
	s := flatSeries(48, 50, 50)
	for i := range s {
		s[i].FRAvailabilityRate = model.Float(10)
	}
	cfg := revenue.Config{
		FREnabled:             true,
		CMDeratingFactor:      0.5,
		CMClearingPrice:       20,
		DegradationCostPerMWh: 5,
		BMRoute:               revenue.RouteVLP,
	}

	res, err := New().Run(context.Background(), s, testAsset(), &strategy.GreedyStrategy{}, cfg)
	require.NoError(t, err)

	for _, r := range res.Ledger {
		assert.Equal(t, model.ActionHold, r.Action)
	}
	fr := 48 * 2.5 * 10 * 0.5
	cm := 48 * 2.5 * 1000 * 0.5 * 20 * 0.5 / 8760
	assert.Zero(t, res.Totals.Arbitrage)
	assert.Zero(t, res.Totals.Degradation)
	assert.InDelta(t, fr, res.Totals.FrequencyResponse, 1e-9)
	assert.InDelta(t, cm, res.Totals.CapacityMarket, 1e-9)
	assert.InDelta(t, fr+cm, res.NetProfit, 1e-9)
}

func TestRun_OptimizedDominatesGreedy(t *testing.T) {
	cfg := revenue.DefaultConfig()
	cfg.DegradationCostPerMWh = 5

	cmp, err := New().RunComparison(context.Background(), dominanceScenario(), testAsset(), 48, cfg)
	require.NoError(t, err)

	assert.Zero(t, cmp.Greedy.NetProfit)
	assert.InDelta(t, 100.0, cmp.Optimized.Totals.Arbitrage, 1e-9)
	assert.InDelta(t, -(1.125+1.25)*5, cmp.Optimized.Totals.Degradation, 1e-9)
	assert.InDelta(t, 88.125, cmp.Optimized.NetProfit, 1e-9)
	assert.GreaterOrEqual(t, cmp.Optimized.NetProfit, cmp.Greedy.NetProfit)

	a, err := New().RunComparison(context.Background(), scenarioA(), testAsset(), 48, revenue.DefaultConfig())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, a.Optimized.NetProfit, a.Greedy.NetProfit)
}

func TestLookahead_ZeroWindowIsGreedy(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		s := randomSeries(rand.New(rand.NewSource(seed)), 96)
		greedy, err := New().Run(context.Background(), s, testAsset(), &strategy.GreedyStrategy{}, revenue.DefaultConfig())
		require.NoError(t, err)
		zero, err := New().Run(context.Background(), s, testAsset(), strategy.NewLookaheadStrategy(0), revenue.DefaultConfig())
		require.NoError(t, err)

		assert.Equal(t, greedy.NetProfit, zero.NetProfit, "seed %d", seed)
		assert.Equal(t, greedy.FinalSOC, zero.FinalSOC, "seed %d", seed)
		for i := range greedy.Ledger {
			assert.Equal(t, greedy.Ledger[i].Action, zero.Ledger[i].Action, "seed %d period %d", seed, i)
			assert.Equal(t, greedy.Ledger[i].PowerMW, zero.Ledger[i].PowerMW, "seed %d period %d", seed, i)
		}
	}
}

// Energy bought for a peak whose export price is below its import price is
// never sold, so the lookahead can end below greedy.
func TestLookahead_StrandedEnergyCounterexample(t *testing.T) {
	s := flatSeries(3, 0, 0)
	s[0].ImportPrice, s[0].ExportPrice = model.Float(5), model.Float(0)
	s[1].ImportPrice, s[1].ExportPrice = model.Float(10), model.Float(0)
	s[2].ImportPrice, s[2].ExportPrice = model.Float(100), model.Float(30)
	a := testAsset()
	a.InitialSOCMWh = a.SOCMinMWh

	cmp, err := New().RunComparison(context.Background(), s, a, 48, revenue.DefaultConfig())
	require.NoError(t, err)

	assert.Zero(t, cmp.Greedy.NetProfit)
	opt := cmp.Optimized.Ledger
	assert.Equal(t, model.ActionCharge, opt[0].Action)
	assert.Equal(t, model.ActionCharge, opt[1].Action)
	assert.Equal(t, model.ActionHold, opt[2].Action)
	assert.InDelta(t, -18.75, cmp.Optimized.NetProfit, 1e-9)
	assert.InDelta(t, 2.5, cmp.Optimized.FinalSOC, 1e-9)
}

func TestRun_Deterministic(t *testing.T) {
	s := randomSeries(rand.New(rand.NewSource(3)), 96)
	e := New()
	first, err := e.Run(context.Background(), s, testAsset(), strategy.NewLookaheadStrategy(12), revenue.DefaultConfig())
	require.NoError(t, err)
	second, err := e.Run(context.Background(), s, testAsset(), strategy.NewLookaheadStrategy(12), revenue.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_SOCAndPowerBounds(t *testing.T) {
	a := testAsset()
	s := randomSeries(rand.New(rand.NewSource(11)), 48*7)
	policies := []strategy.Policy{&strategy.GreedyStrategy{}, strategy.NewLookaheadStrategy(48), strategy.NewLookaheadStrategy(4)}
	for _, p := range policies {
		res, err := New().Run(context.Background(), s, a, p, revenue.DefaultConfig())
		require.NoError(t, err)
		for _, r := range res.Ledger {
			assert.GreaterOrEqual(t, r.SOCEnd, a.SOCMinMWh-1e-9)
			assert.LessOrEqual(t, r.SOCEnd, a.SOCMaxMWh+1e-9)
			assert.LessOrEqual(t, math.Abs(r.PowerMW), a.PowerMW+1e-9)
			assert.LessOrEqual(t, r.ChargeMWh, a.SOCMaxMWh-r.SOCStart+1e-9)
			assert.LessOrEqual(t, r.DischargeMWh, r.SOCStart-a.SOCMinMWh+1e-9)
		}
		// Ledger is chained: each period starts where the last ended.
		for i := 1; i < len(res.Ledger); i++ {
			assert.Equal(t, res.Ledger[i-1].SOCEnd, res.Ledger[i].SOCStart)
		}
	}
}

func TestRun_ClippingIsCounted(t *testing.T) {
	s := flatSeries(48, -10, -10)
	res, err := New().Run(context.Background(), s, testAsset(), &strategy.GreedyStrategy{}, revenue.DefaultConfig())
	require.NoError(t, err)

	assert.InDelta(t, testAsset().SOCMaxMWh, res.FinalSOC, 1e-9)
	assert.Greater(t, res.ClippedPeriods, 0)
	last := res.Ledger[len(res.Ledger)-1]
	assert.Equal(t, model.ActionCharge, last.RequestedAction)
	assert.Equal(t, model.ActionHold, last.Action)
	assert.True(t, last.Clipped)
}

// warnLog counts Warnf calls.
type warnLog struct {
	logger.NopLogger
	warns []string
}

func (l *warnLog) Warnf(format string, args ...any) {
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func TestRun_MissingPriceHolds(t *testing.T) {
	s := scenarioA()
	s[30].ExportPrice = model.Float(math.NaN())

	res, err := New().Run(context.Background(), s, testAsset(), &strategy.GreedyStrategy{}, revenue.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, res.DataQualityWarnings)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "2024-03-04T15:00:00Z")
	assert.Equal(t, model.ActionHold, res.Ledger[30].Action)
	assert.Contains(t, res.Ledger[30].DataQuality, "export_price")
	assert.InDelta(t, 25.0, res.NetProfit, 1e-9)
}

func TestRun_MissingPricesLoggedOnce(t *testing.T) {
	s := scenarioA()
	for i := 0; i < 8; i++ {
		s[i].ImportPrice = model.Missing
	}
	log := &warnLog{}

	res, err := New(WithLogger(log)).Run(context.Background(), s, testAsset(), &strategy.GreedyStrategy{}, revenue.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 8, res.DataQualityWarnings)
	assert.Len(t, res.Warnings, 8)
	require.Len(t, log.warns, 1)
	assert.Contains(t, log.warns[0], "held 8 periods")
}

func TestRun_RejectsMixedTimeline(t *testing.T) {
	harwich, grain := scenarioA(), scenarioA()
	var mixed []model.SettlementPeriod
	for i := range harwich {
		harwich[i].Site, grain[i].Site = "harwich", "grain"
		mixed = append(mixed, harwich[i], grain[i])
	}

	res, err := New().Run(context.Background(), mixed, testAsset(), &strategy.GreedyStrategy{}, revenue.DefaultConfig())
	assert.Nil(t, res)
	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "series", cfgErr.Param)
	assert.Contains(t, cfgErr.Reason, "more than one site")

	_, err = New().RunComparison(context.Background(), mixed, testAsset(), 48, revenue.DefaultConfig())
	require.ErrorAs(t, err, &cfgErr)

	dup := append(scenarioA(), scenarioA()[47])
	_, err = New().Run(context.Background(), dup, testAsset(), &strategy.GreedyStrategy{}, revenue.DefaultConfig())
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "unique and increasing")
}

func TestRun_ConfigErrorBeforeSimulation(t *testing.T) {
	a := testAsset()
	a.Efficiency = 1.5
	res, err := New().Run(context.Background(), scenarioA(), a, &strategy.GreedyStrategy{}, revenue.DefaultConfig())
	assert.Nil(t, res)
	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "efficiency", cfgErr.Param)

	cfg := revenue.DefaultConfig()
	cfg.VLPFeeShare = 2
	res, err = New().Run(context.Background(), scenarioA(), testAsset(), &strategy.GreedyStrategy{}, cfg)
	assert.Nil(t, res)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "vlp_fee_share", cfgErr.Param)
}

func TestRun_EmptySeries(t *testing.T) {
	res, err := New().Run(context.Background(), nil, testAsset(), &strategy.GreedyStrategy{}, revenue.DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, res.Ledger)
	assert.Zero(t, res.NetProfit)
	assert.Equal(t, testAsset().InitialSOCMWh, res.FinalSOC)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := New().Run(ctx, scenarioA(), testAsset(), &strategy.GreedyStrategy{}, revenue.DefaultConfig())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteLedger(t *testing.T) {
	s := scenarioA()
	s[3].ImportPrice = model.Missing
	res, err := New().Run(context.Background(), s, testAsset(), &strategy.GreedyStrategy{}, revenue.DefaultConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteLedger(&buf, res.Ledger))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 49)
	assert.Equal(t, ledgerHeader, rows[0])
	assert.Equal(t, "2024-03-04T05:00:00Z", rows[11][1])
	assert.Equal(t, "CHARGE", rows[11][8])
	assert.Equal(t, "", rows[4][4], "missing import price is blank")
	assert.Equal(t, "212.500000", rows[48][len(ledgerHeader)-1])
}

func randomSeries(r *rand.Rand, n int) []model.SettlementPeriod {
	s := flatSeries(n, 0, 0)
	for i := range s {
		imp := 40 + 60*r.Float64() - 20*math.Floor(r.Float64()*1.2)
		exp := imp - 5 + 10*r.Float64()
		s[i].ImportPrice = model.Float(imp)
		s[i].ExportPrice = model.Float(exp)
	}
	return s
}

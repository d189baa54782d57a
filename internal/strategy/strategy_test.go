package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bess-dispatch/internal/model"
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

func setPrice(s []model.SettlementPeriod, i int, importPrice, exportPrice float64) {
	s[i].ImportPrice = model.Float(importPrice)
	s[i].ExportPrice = model.Float(exportPrice)
}

func testAsset() model.BatteryAsset {
	return model.BatteryAsset{
		PowerMW:       2.5,
		CapacityMWh:   5,
		Efficiency:    0.9,
		SOCMinMWh:     0.25,
		SOCMaxMWh:     5,
		InitialSOCMWh: 2.5,
	}
}

func ctxAt(series []model.SettlementPeriod, i int) Context {
	return Context{Index: i, SOC: 2.5, Series: series, Asset: testAsset()}
}

func TestGreedy_Rules(t *testing.T) {
	tests := []struct {
		name       string
		imp, exp   float64
		wantAction model.Action
	}{
		{"flat holds", 50, 50, model.ActionHold},
		{"export above import discharges", 50, 80, model.ActionDischarge},
		{"negative price charges", -20, -20, model.ActionCharge},
		{"small spread discharges", 45, 50, model.ActionDischarge},
		{"import above export holds", 60, 50, model.ActionHold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := flatSeries(1, tt.imp, tt.exp)
			req := (&GreedyStrategy{}).Decide(ctxAt(s, 0))
			assert.Equal(t, tt.wantAction, req.Action)
			if tt.wantAction != model.ActionHold {
				assert.Equal(t, 2.5, req.PowerMW)
			}
		})
	}
}

func TestGreedy_ChargeWhenEfficiencyAdjustedValueBeatsCost(t *testing.T) {
	// Equal positive prices hold since 0.9 × 8 < 8; equal negative prices charge.
	s := flatSeries(1, 10, 10)
	setPrice(s, 0, 8, 8)
	assert.Equal(t, model.ActionHold, (&GreedyStrategy{}).Decide(ctxAt(s, 0)).Action)

	setPrice(s, 0, -10, -10)
	assert.Equal(t, model.ActionCharge, (&GreedyStrategy{}).Decide(ctxAt(s, 0)).Action)
}

func TestPolicies_MissingPriceHoldsWithWarning(t *testing.T) {
	s := flatSeries(4, 50, 50)
	s[1].ImportPrice = model.Float(math.NaN())
	s[2].ExportPrice = model.Missing

	for _, p := range []Policy{&GreedyStrategy{}, NewLookaheadStrategy(48)} {
		r1 := p.Decide(ctxAt(s, 1))
		assert.Equal(t, model.ActionHold, r1.Action, p.Name())
		assert.Contains(t, r1.DataQuality, "import_price", p.Name())

		r2 := p.Decide(ctxAt(s, 2))
		assert.Equal(t, model.ActionHold, r2.Action, p.Name())
		assert.Contains(t, r2.DataQuality, "export_price", p.Name())

		assert.Empty(t, p.Decide(ctxAt(s, 0)).DataQuality, p.Name())
	}
}

func TestLookahead_ZeroWindowMatchesGreedy(t *testing.T) {
	s := flatSeries(96, 50, 50)
	for i := range s {
		v := 50 + 40*math.Sin(float64(i)/7.0)
		setPrice(s, i, v, v-5+float64(i%3)*5)
	}
	greedy := &GreedyStrategy{}
	zero := NewLookaheadStrategy(0)
	for i := range s {
		assert.Equal(t, greedy.Decide(ctxAt(s, i)), zero.Decide(ctxAt(s, i)), "period %d", i)
	}
}

func TestLookahead_ChargesAtTroughBeforePeak(t *testing.T) {
	s := flatSeries(48, 50, 50)
	setPrice(s, 4, 20, 20)
	setPrice(s, 19, 100, 100)
	p := NewLookaheadStrategy(48)

	assert.Equal(t, model.ActionHold, p.Decide(ctxAt(s, 0)).Action)
	assert.Equal(t, model.ActionCharge, p.Decide(ctxAt(s, 4)).Action)
	assert.Equal(t, model.ActionHold, p.Decide(ctxAt(s, 10)).Action)
	assert.Equal(t, model.ActionDischarge, p.Decide(ctxAt(s, 19)).Action)
	assert.Equal(t, model.ActionHold, p.Decide(ctxAt(s, 30)).Action)

	// Greedy sees no same-period spread anywhere.
	for i := range s {
		assert.Equal(t, model.ActionHold, (&GreedyStrategy{}).Decide(ctxAt(s, i)).Action)
	}
}

func TestLookahead_WindowClampsAndNeverWraps(t *testing.T) {
	s := flatSeries(48, 50, 50)
	// A very cheap period at the start of the series must not be visible
	// from the end of the series.
	setPrice(s, 2, -100, -100)
	setPrice(s, 44, 40, 40)
	p := NewLookaheadStrategy(48)

	assert.Equal(t, model.ActionCharge, p.Decide(ctxAt(s, 44)).Action)
	require.NotPanics(t, func() { p.Decide(ctxAt(s, 47)) })
	assert.Equal(t, model.ActionHold, p.Decide(ctxAt(s, 47)).Action)
}

func TestLookahead_SkipsMissingPricesInWindow(t *testing.T) {
	s := flatSeries(10, 50, 50)
	setPrice(s, 0, 20, 20)
	for i := 1; i < 5; i++ {
		s[i].ImportPrice = model.Missing
		s[i].ExportPrice = model.Missing
	}
	setPrice(s, 6, 90, 90)

	req := NewLookaheadStrategy(8).Decide(ctxAt(s, 0))
	assert.Equal(t, model.ActionCharge, req.Action)
	assert.Empty(t, req.DataQuality)
}

func TestSchedule_Windows(t *testing.T) {
	s := flatSeries(48, 50, 50)
	p, err := NewScheduleStrategy(ScheduleParams{
		ChargeStart:      "01:00",
		ChargeEnd:        "03:00",
		DischargeStart:   "17:00",
		DischargeEnd:     "19:00",
		ChargePowerMW:    -2,
		DischargePowerMW: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ActionHold, p.Decide(ctxAt(s, 0)).Action)
	charge := p.Decide(ctxAt(s, 2))
	assert.Equal(t, model.ActionCharge, charge.Action)
	assert.Equal(t, 2.0, charge.PowerMW)
	assert.Equal(t, model.ActionDischarge, p.Decide(ctxAt(s, 34)).Action)
	assert.Equal(t, model.ActionHold, p.Decide(ctxAt(s, 38)).Action)
}

func TestSchedule_BadTimeIsConfigError(t *testing.T) {
	_, err := NewScheduleStrategy(ScheduleParams{ChargeStart: "25:00", DischargeStart: "17:00"})
	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "charge_start", cfgErr.Param)
}

func TestInWindow_WrapsMidnight(t *testing.T) {
	assert.True(t, inWindow(23*60, 22*60, 2*60))
	assert.True(t, inWindow(60, 22*60, 2*60))
	assert.False(t, inWindow(12*60, 22*60, 2*60))
	assert.False(t, inWindow(60, 60, 60))
}

func TestOracle_BuysLowSellsHigh(t *testing.T) {
	s := flatSeries(48, 50, 50)
	setPrice(s, 4, 10, 10)
	setPrice(s, 20, 200, 200)
	a := testAsset()

	o, err := NewOracleStrategy(s, a, OracleParams{SocSteps: 100, PowerSteps: 4})
	require.NoError(t, err)
	assert.Equal(t, "oracle", o.Name())

	low := o.Decide(Context{Index: 4, SOC: a.SOCMinMWh, Series: s, Asset: a})
	assert.Equal(t, model.ActionCharge, low.Action)

	high := o.Decide(Context{Index: 20, SOC: a.SOCMaxMWh, Series: s, Asset: a})
	assert.Equal(t, model.ActionDischarge, high.Action)
}

func TestNew_Registry(t *testing.T) {
	s := flatSeries(48, 50, 50)
	a := testAsset()
	for _, name := range Names {
		p, err := New(Spec{Name: name}, s, a, 0)
		require.NoError(t, err, name)
		assert.Equal(t, name, p.Name())
	}

	zero := 0
	p, err := New(Spec{Name: "lookahead", LookaheadPeriods: &zero}, s, a, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, p.(*LookaheadStrategy).Periods)

	neg := -1
	_, err = New(Spec{Name: "optimized", LookaheadPeriods: &neg}, s, a, 0)
	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "lookahead_periods", cfgErr.Param)

	_, err = New(Spec{Name: "random"}, s, a, 0)
	require.ErrorAs(t, err, &cfgErr)
}

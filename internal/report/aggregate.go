package report

import (
	"bess-dispatch/internal/backtest"
	"bess-dispatch/internal/model"
	"bess-dispatch/internal/revenue"
)

// Shares is each revenue stream's share of total revenue, as a fraction.
// Degradation is a cost and has no share.
type Shares struct {
	Arbitrage         Ratio `json:"arbitrage"`
	FrequencyResponse Ratio `json:"frequency_response"`
	BalancingMech     Ratio `json:"balancing_mechanism"`
	CapacityMarket    Ratio `json:"capacity_market"`
	DUoSAvoidance     Ratio `json:"duos_avoidance"`
}

// ScenarioResult summarises one (policy, battery, series) run. It is built
// once by Aggregate and not modified afterwards.
type ScenarioResult struct {
	ID      string             `json:"id,omitempty"`
	Policy  string             `json:"policy"`
	Asset   model.BatteryAsset `json:"asset"`
	BMRoute revenue.BMRoute    `json:"bm_route"`

	Periods      int     `json:"periods"`
	CoveredHours float64 `json:"covered_hours"`

	Totals       revenue.Cashflow `json:"totals"`
	TotalRevenue float64          `json:"total_revenue"`
	Shares       Shares           `json:"shares"`

	// NetProfit uses the configured BM route. NetProfitVLP and
	// NetProfitDirect are the two alternative scenarios side by side.
	NetProfit       float64 `json:"net_profit"`
	NetProfitVLP    float64 `json:"net_profit_vlp"`
	NetProfitDirect float64 `json:"net_profit_direct"`

	// AnnualisationFactor is 8760 / CoveredHours; undefined for an empty series.
	AnnualisationFactor Ratio `json:"annualisation_factor"`
	AnnualisedRevenue   Ratio `json:"annualised_revenue"`
	AnnualisedNetProfit Ratio `json:"annualised_net_profit"`

	ChargedMWh       float64 `json:"charged_mwh"`
	DischargedMWh    float64 `json:"discharged_mwh"`
	EquivalentCycles Ratio   `json:"equivalent_cycles"`
	FinalSOC         float64 `json:"final_soc"`

	DataQualityWarnings int `json:"data_quality_warnings"`
	ClippedPeriods      int `json:"clipped_periods"`

	CumulativeProfit []float64 `json:"cumulative_profit"`
}

// Aggregate builds the summary of a completed run.
func Aggregate(res *backtest.Result) ScenarioResult {
	route := res.Revenue.Route()
	t := res.Totals
	total := t.Revenue(route)

	cum := make([]float64, len(res.Ledger))
	for i, r := range res.Ledger {
		cum[i] = r.CumNet
	}

	factor := Div(model.HoursPerYear, res.CoveredHours)
	annualise := func(v float64) Ratio {
		if !factor.Defined {
			return Ratio{}
		}
		return Ratio{Value: v * factor.Value, Defined: true}
	}

	return ScenarioResult{
		Policy:       res.Policy,
		Asset:        res.Asset,
		BMRoute:      route,
		Periods:      len(res.Ledger),
		CoveredHours: res.CoveredHours,
		Totals:       t,
		TotalRevenue: total,
		Shares: Shares{
			Arbitrage:         Div(t.Arbitrage, total),
			FrequencyResponse: Div(t.FrequencyResponse, total),
			BalancingMech:     Div(t.BM(route), total),
			CapacityMarket:    Div(t.CapacityMarket, total),
			DUoSAvoidance:     Div(t.DUoSAvoidance, total),
		},
		NetProfit:           res.NetProfit,
		NetProfitVLP:        t.Net(revenue.RouteVLP),
		NetProfitDirect:     t.Net(revenue.RouteDirect),
		AnnualisationFactor: factor,
		AnnualisedRevenue:   annualise(total),
		AnnualisedNetProfit: annualise(res.NetProfit),
		ChargedMWh:          res.ChargedMWh,
		DischargedMWh:       res.DischargedMWh,
		EquivalentCycles:    Div(res.DischargedMWh, res.Asset.UsableMWh()),
		FinalSOC:            res.FinalSOC,
		DataQualityWarnings: res.DataQualityWarnings,
		ClippedPeriods:      res.ClippedPeriods,
		CumulativeProfit:    cum,
	}
}

// Comparison is the optimized-versus-greedy outcome over one series.
type Comparison struct {
	Greedy    ScenarioResult `json:"greedy"`
	Optimized ScenarioResult `json:"optimized"`

	// Delta is optimized minus greedy net profit.
	Delta float64 `json:"delta"`
	// PctImprovement is Delta / |greedy net profit|; undefined when greedy
	// made exactly zero.
	PctImprovement Ratio `json:"pct_improvement"`
}

// Compare builds the comparison of two summaries.
func Compare(greedy, optimized ScenarioResult) Comparison {
	delta := optimized.NetProfit - greedy.NetProfit
	base := greedy.NetProfit
	if base < 0 {
		base = -base
	}
	return Comparison{
		Greedy:         greedy,
		Optimized:      optimized,
		Delta:          delta,
		PctImprovement: Div(delta, base),
	}
}

// CompareRuns aggregates both runs of a backtest comparison.
func CompareRuns(c *backtest.Comparison) Comparison {
	return Compare(Aggregate(c.Greedy), Aggregate(c.Optimized))
}

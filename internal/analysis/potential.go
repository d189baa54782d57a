package analysis

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"bess-dispatch/internal/model"
)

// ArbitragePotential is a site-level summary you can use for ranking.
// It intentionally does not depend on a specific battery size; it includes
// both raw price stats and an "oracle" profit for a canonical 1MW/1MWh battery.
type ArbitragePotential struct {
	Site string `json:"site"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	Count         int `json:"count"`
	MissingImport int `json:"missing_import"`
	MissingExport int `json:"missing_export"`

	MinImport  float64 `json:"min_import"`
	MaxExport  float64 `json:"max_export"`
	MeanImport float64 `json:"mean_import"`
	MeanExport float64 `json:"mean_export"`
	P05Import  float64 `json:"p05_import"`
	P95Export  float64 `json:"p95_export"`
	StdImport  float64 `json:"std_import"`

	// SpreadP95P05 is P95 export less P05 import.
	SpreadP95P05 float64 `json:"spread_p95_p05"`
	// MeanDailySpread averages, per calendar day, max export less min import.
	MeanDailySpread float64 `json:"mean_daily_spread"`

	RedBandPeriods int `json:"red_band_periods"`

	// OracleProfit is the profit (£) from a canonical battery:
	// - 1 MW power, 1 MWh energy
	// - 100% efficiency, no degradation
	// - SOC bounds [0,1], initial SOC 0.5
	// - dispatch choices {-1, 0, +1} MW each period, buying at the import
	//   price and selling at the export price
	OracleProfit float64 `json:"oracle_profit"`
}

func ComputePotential(series []model.SettlementPeriod) ArbitragePotential {
	p := ArbitragePotential{}
	if len(series) == 0 {
		return p
	}
	p.Site = series[0].Site
	p.Count = len(series)
	p.Start = series[0].Start
	p.End = series[len(series)-1].End()

	imports := make([]float64, 0, len(series))
	exports := make([]float64, 0, len(series))
	type dayRange struct{ lo, hi float64 }
	days := map[time.Time]*dayRange{}
	for _, sp := range series {
		if sp.IsRedBand() {
			p.RedBandPeriods++
		}
		d := time.Date(sp.Start.Year(), sp.Start.Month(), sp.Start.Day(), 0, 0, 0, 0, sp.Start.Location())
		r, ok := days[d]
		if !ok {
			r = &dayRange{lo: math.Inf(1), hi: math.Inf(-1)}
			days[d] = r
		}
		if v, ok := sp.ImportPrice.Get(); ok {
			imports = append(imports, v)
			r.lo = math.Min(r.lo, v)
		} else {
			p.MissingImport++
		}
		if v, ok := sp.ExportPrice.Get(); ok {
			exports = append(exports, v)
			r.hi = math.Max(r.hi, v)
		} else {
			p.MissingExport++
		}
	}

	if len(imports) > 0 {
		sort.Float64s(imports)
		p.MinImport = floats.Min(imports)
		p.MeanImport, p.StdImport = stat.MeanStdDev(imports, nil)
		if len(imports) < 2 {
			p.StdImport = 0
		}
		p.P05Import = stat.Quantile(0.05, stat.LinInterp, imports, nil)
	}
	if len(exports) > 0 {
		sort.Float64s(exports)
		p.MaxExport = floats.Max(exports)
		p.MeanExport = stat.Mean(exports, nil)
		p.P95Export = stat.Quantile(0.95, stat.LinInterp, exports, nil)
	}
	if len(imports) > 0 && len(exports) > 0 {
		p.SpreadP95P05 = p.P95Export - p.P05Import
	}

	spreads := make([]float64, 0, len(days))
	for _, r := range days {
		if !math.IsInf(r.lo, 0) && !math.IsInf(r.hi, 0) {
			spreads = append(spreads, r.hi-r.lo)
		}
	}
	if len(spreads) > 0 {
		p.MeanDailySpread = floats.Sum(spreads) / float64(len(spreads))
	}

	p.OracleProfit = oracleProfitCanonical(series)
	return p
}

// oracleProfitCanonical computes a best-effort "upper bound" using a simple DP:
// SOC discretized into steps of dt (since P=1MW, E=1MWh).
func oracleProfitCanonical(series []model.SettlementPeriod) float64 {
	if len(series) == 0 {
		return 0
	}
	dt := series[0].DurationHours()
	if dt <= 0 {
		return 0
	}
	steps := int(math.Round(1.0 / dt))
	if steps < 1 {
		steps = 1
	}
	// SOC grid: 0..steps (inclusive) maps to soc = i/steps.
	nStates := steps + 1
	negInf := math.Inf(-1)
	dp := make([]float64, nStates)
	next := make([]float64, nStates)
	for i := range dp {
		dp[i] = negInf
	}
	dp[int(math.Round(0.5*float64(steps)))] = 0

	for _, sp := range series {
		for i := range next {
			next[i] = negInf
		}
		importPrice, canBuy := sp.ImportPrice.Get()
		exportPrice, canSell := sp.ExportPrice.Get()

		for socIdx := 0; socIdx <= steps; socIdx++ {
			v := dp[socIdx]
			if math.IsInf(v, -1) {
				continue
			}

			// Idle
			next[socIdx] = math.Max(next[socIdx], v)

			// Charge: -1MW for dt hours => buy dt MWh, SOC increases by dt.
			if canBuy && socIdx < steps {
				next[socIdx+1] = math.Max(next[socIdx+1], v-importPrice*dt)
			}

			// Discharge: +1MW for dt hours => sell dt MWh, SOC decreases by dt.
			if canSell && socIdx > 0 {
				next[socIdx-1] = math.Max(next[socIdx-1], v+exportPrice*dt)
			}
		}
		dp, next = next, dp
	}

	best := floats.Max(dp)
	if math.IsInf(best, -1) {
		return 0
	}
	return best
}

package analysis

import (
	"sort"

	"bess-dispatch/internal/model"
)

type RankedPotential struct {
	Rank int `json:"rank"`
	ArbitragePotential
}

// RankByOracleProfit computes potentials per site and sorts descending by
// OracleProfit. Ties are broken by site name so the order is stable.
func RankByOracleProfit(bySite map[string][]model.SettlementPeriod) []RankedPotential {
	out := make([]RankedPotential, 0, len(bySite))
	for site, series := range bySite {
		p := ComputePotential(series)
		p.Site = site
		out = append(out, RankedPotential{ArbitragePotential: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OracleProfit != out[j].OracleProfit {
			return out[i].OracleProfit > out[j].OracleProfit
		}
		return out[i].Site < out[j].Site
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

package strategy

import (
	"math"

	"bess-dispatch/internal/model"
)

// DefaultLookaheadPeriods is 24h of half-hour settlement periods.
const DefaultLookaheadPeriods = 48

// LookaheadStrategy uses a forward window of Periods settlement periods
// after the current one. The window is clamped at the end of the series
// and never wraps.
//
// With W the window including now and F the window after now:
//   - discharge if opportunity_now > min(cost over W) and now is strictly
//     the best selling slot in W;
//   - charge if efficiency × max(opportunity over W) > cost_now and now is
//     strictly the cheapest buying slot in W.
//
// With Periods == 0, F is empty and the rules reduce to GreedyStrategy.
//
// This does not always beat GreedyStrategy: energy bought for a peak whose
// export price is below that period's import price is never sold.
type LookaheadStrategy struct {
	Periods int
}

func NewLookaheadStrategy(periods int) *LookaheadStrategy {
	if periods < 0 {
		periods = 0
	}
	return &LookaheadStrategy{Periods: periods}
}

func (s *LookaheadStrategy) Name() string { return "optimized" }

func (s *LookaheadStrategy) Decide(ctx Context) model.Request {
	p := ctx.Period()
	cost, opp, ok := prices(p)
	if !ok {
		return missingPrices(p)
	}

	futMinCost, futMaxOpp := window(ctx.Series, ctx.Index+1, ctx.Index+s.Periods)
	minCost := math.Min(cost, futMinCost)
	maxOpp := math.Max(opp, futMaxOpp)

	if opp > minCost && opp > futMaxOpp {
		return discharge(ctx.Asset)
	}
	if ctx.Asset.Efficiency*maxOpp > cost && cost < futMinCost {
		return charge(ctx.Asset)
	}
	return model.Hold()
}

// window scans series[from..to] (inclusive, clamped) and returns the lowest
// import price and highest export price. Missing prices are skipped; an
// empty window yields (+Inf, -Inf).
func window(series []model.SettlementPeriod, from, to int) (minCost, maxOpp float64) {
	minCost, maxOpp = math.Inf(1), math.Inf(-1)
	if to > len(series)-1 {
		to = len(series) - 1
	}
	for i := from; i <= to; i++ {
		if v, ok := series[i].ImportPrice.Get(); ok && v < minCost {
			minCost = v
		}
		if v, ok := series[i].ExportPrice.Get(); ok && v > maxOpp {
			maxOpp = v
		}
	}
	return minCost, maxOpp
}

package strategy

import "bess-dispatch/internal/model"

// GreedyStrategy only looks at the current period. It discharges when the
// opportunity price beats the cost, otherwise charges when the
// efficiency-adjusted opportunity price beats the cost. Ties hold.
type GreedyStrategy struct{}

func (s *GreedyStrategy) Name() string { return "greedy" }

func (s *GreedyStrategy) Decide(ctx Context) model.Request {
	p := ctx.Period()
	cost, opp, ok := prices(p)
	if !ok {
		return missingPrices(p)
	}
	if opp > cost {
		return discharge(ctx.Asset)
	}
	if ctx.Asset.Efficiency*opp > cost {
		return charge(ctx.Asset)
	}
	return model.Hold()
}

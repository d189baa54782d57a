package revenue

import (
	"bess-dispatch/internal/model"
)

// Cashflow is the signed £ value of every stream for one period.
//
// BMVLP and BMDirect are alternative routes to the same revenue; Net adds
// exactly one of them.
type Cashflow struct {
	Arbitrage         float64 `json:"arbitrage"`
	FrequencyResponse float64 `json:"frequency_response"`
	BMVLP             float64 `json:"bm_vlp"`
	BMDirect          float64 `json:"bm_direct"`
	CapacityMarket    float64 `json:"capacity_market"`
	DUoSAvoidance     float64 `json:"duos_avoidance"`
	Degradation       float64 `json:"degradation"`
}

// BM returns the stream for route.
func (c Cashflow) BM(route BMRoute) float64 {
	if route == RouteDirect {
		return c.BMDirect
	}
	return c.BMVLP
}

// Revenue is the sum of every revenue stream on route, excluding degradation.
func (c Cashflow) Revenue(route BMRoute) float64 {
	return c.Arbitrage + c.FrequencyResponse + c.BM(route) + c.CapacityMarket + c.DUoSAvoidance
}

// Net is revenue on route less degradation.
func (c Cashflow) Net(route BMRoute) float64 {
	return c.Revenue(route) + c.Degradation
}

// Add returns the stream-wise sum of c and o.
func (c Cashflow) Add(o Cashflow) Cashflow {
	return Cashflow{
		Arbitrage:         c.Arbitrage + o.Arbitrage,
		FrequencyResponse: c.FrequencyResponse + o.FrequencyResponse,
		BMVLP:             c.BMVLP + o.BMVLP,
		BMDirect:          c.BMDirect + o.BMDirect,
		CapacityMarket:    c.CapacityMarket + o.CapacityMarket,
		DUoSAvoidance:     c.DUoSAvoidance + o.DUoSAvoidance,
		Degradation:       c.Degradation + o.Degradation,
	}
}

// Evaluate values one accepted decision.
func Evaluate(d model.DispatchDecision, p model.SettlementPeriod, a model.BatteryAsset, cfg Config) Cashflow {
	gross := BMGross(d, p, cfg)
	return Cashflow{
		Arbitrage:         Arbitrage(d, p),
		FrequencyResponse: FrequencyResponse(d, p, a, cfg),
		BMVLP:             BMVLP(gross, cfg),
		BMDirect:          BMDirect(gross, p, cfg),
		CapacityMarket:    CapacityMarket(p, a, cfg),
		DUoSAvoidance:     DUoSAvoidance(d, p, a, cfg),
		Degradation:       Degradation(d, cfg),
	}
}

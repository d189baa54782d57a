package strategy

import (
	"fmt"
	"math"
	"time"

	"bess-dispatch/internal/model"
)

// OracleStrategy is a (near) profit-maximising "perfect foresight" benchmark.
// It solves each day by backward dynamic programming on a discretised SOC
// grid, using the state tracker for the physics, and keeps the best action
// for every grid state. Decide looks up the state nearest the actual SOC,
// so the plan stays feasible even when the realised SOC drifts off-grid.
//
// Only arbitrage and degradation are valued; availability streams do not
// depend on dispatch.
type OracleStrategy struct {
	asset  model.BatteryAsset
	steps  int
	policy [][]float64 // [period][state] signed power, + = discharge
}

type OracleParams struct {
	// SocSteps controls SOC discretisation between [SOCMin, SOCMax].
	// Higher = more accurate, slower.
	SocSteps int

	// PowerSteps controls action discretisation between [-Pmax, +Pmax].
	PowerSteps int

	DegradationCostPerMWh float64
}

func NewOracleStrategy(series []model.SettlementPeriod, a model.BatteryAsset, cfg OracleParams) (*OracleStrategy, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no periods")
	}
	if cfg.SocSteps <= 0 {
		cfg.SocSteps = 200
	}
	if cfg.SocSteps < 2 {
		cfg.SocSteps = 2
	}
	if cfg.PowerSteps <= 0 {
		cfg.PowerSteps = 10
	}

	s := &OracleStrategy{
		asset:  a,
		steps:  cfg.SocSteps,
		policy: make([][]float64, 0, len(series)),
	}

	// Periods are sorted chronologically, so days can be grouped in a single pass.
	var day []model.SettlementPeriod
	var currentDay time.Time
	for i, p := range series {
		d := time.Date(p.Start.Year(), p.Start.Month(), p.Start.Day(), 0, 0, 0, 0, p.Start.Location())
		if i > 0 && !d.Equal(currentDay) {
			s.policy = append(s.policy, s.solveDay(day, cfg)...)
			day = day[:0]
		}
		if len(day) == 0 {
			currentDay = d
		}
		day = append(day, p)
	}
	if len(day) > 0 {
		s.policy = append(s.policy, s.solveDay(day, cfg)...)
	}

	if len(s.policy) != len(series) {
		return nil, fmt.Errorf("plan length (%d) does not match series length (%d)", len(s.policy), len(series))
	}
	return s, nil
}

func (s *OracleStrategy) Name() string { return "oracle" }

func (s *OracleStrategy) Decide(ctx Context) model.Request {
	p := ctx.Period()
	if !p.HasPrices() {
		return missingPrices(p)
	}
	if ctx.Index < 0 || ctx.Index >= len(s.policy) {
		return model.Hold()
	}
	power := s.policy[ctx.Index][s.socToIdx(ctx.SOC)]
	switch {
	case power > 0:
		return model.Request{Action: model.ActionDischarge, PowerMW: power}
	case power < 0:
		return model.Request{Action: model.ActionCharge, PowerMW: -power}
	default:
		return model.Hold()
	}
}

// solveDay runs backward induction over one day with zero terminal value
// and returns, for each period, the best signed power from every state.
func (s *OracleStrategy) solveDay(day []model.SettlementPeriod, cfg OracleParams) [][]float64 {
	nStates := s.steps + 1
	a := s.asset

	step := a.PowerMW / float64(cfg.PowerSteps)
	actions := make([]float64, 0, 2*cfg.PowerSteps+1)
	for k := -cfg.PowerSteps; k <= cfg.PowerSteps; k++ {
		actions = append(actions, float64(k)*step)
	}

	value := make([]float64, nStates)
	next := make([]float64, nStates)
	plan := make([][]float64, len(day))

	for t := len(day) - 1; t >= 0; t-- {
		p := day[t]
		plan[t] = make([]float64, nStates)
		importPrice, exportPrice, ok := prices(p)
		dtH := p.DurationHours()

		for sIdx := 0; sIdx < nStates; sIdx++ {
			soc := s.idxToSoc(sIdx)
			best := value[sIdx]
			bestPower := 0.0
			if ok {
				for _, power := range actions {
					if power == 0 {
						continue
					}
					act := model.ActionDischarge
					if power < 0 {
						act = model.ActionCharge
					}
					tr := model.Track(a, soc, act, math.Abs(power), dtH)
					pnl := tr.DischargeMWh*exportPrice -
						tr.GridImportMWh*importPrice -
						cfg.DegradationCostPerMWh*(tr.ChargeMWh+tr.DischargeMWh)
					v := pnl + value[s.socToIdx(tr.SOCEnd)]
					if v > best {
						best = v
						bestPower = tr.PowerMW
					}
				}
			}
			next[sIdx] = best
			plan[t][sIdx] = bestPower
		}
		value, next = next, value
	}
	return plan
}

func (s *OracleStrategy) socToIdx(soc float64) int {
	a := s.asset
	if soc <= a.SOCMinMWh || a.SOCMaxMWh <= a.SOCMinMWh {
		return 0
	}
	if soc >= a.SOCMaxMWh {
		return s.steps
	}
	f := (soc - a.SOCMinMWh) / (a.SOCMaxMWh - a.SOCMinMWh)
	return int(math.Round(f * float64(s.steps)))
}

func (s *OracleStrategy) idxToSoc(idx int) float64 {
	a := s.asset
	if idx <= 0 {
		return a.SOCMinMWh
	}
	if idx >= s.steps {
		return a.SOCMaxMWh
	}
	f := float64(idx) / float64(s.steps)
	return a.SOCMinMWh + f*(a.SOCMaxMWh-a.SOCMinMWh)
}

package strategy

import (
	"fmt"
	"strings"

	"bess-dispatch/internal/model"
)

// Spec selects and parameterises a policy.
type Spec struct {
	Name             string         `yaml:"name" json:"name"`
	LookaheadPeriods *int           `yaml:"lookahead_periods" json:"lookahead_periods,omitempty"`
	Params           map[string]any `yaml:"params" json:"params,omitempty"`
}

// Names lists the policies New understands.
var Names = []string{"greedy", "optimized", "schedule", "oracle"}

// New builds the policy named by spec. Oracle needs the whole series up
// front; the others ignore it. degradationCostPerMWh is only used by oracle.
func New(spec Spec, series []model.SettlementPeriod, a model.BatteryAsset, degradationCostPerMWh float64) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(spec.Name)) {
	case "greedy":
		return &GreedyStrategy{}, nil
	case "optimized", "optimised", "lookahead":
		n := DefaultLookaheadPeriods
		if spec.LookaheadPeriods != nil {
			n = *spec.LookaheadPeriods
		}
		if n < 0 {
			return nil, &model.ConfigError{Param: "lookahead_periods", Reason: fmt.Sprintf("must be >= 0, got %d", n)}
		}
		return NewLookaheadStrategy(n), nil
	case "schedule":
		dischargeStart := mustStr(spec.Params, "discharge_start", "16:00")
		return NewScheduleStrategy(ScheduleParams{
			ChargeStart:      mustStr(spec.Params, "charge_start", "00:00"),
			ChargeEnd:        mustStr(spec.Params, "charge_end", "06:00"),
			DischargeStart:   dischargeStart,
			DischargeEnd:     mustStr(spec.Params, "discharge_end", "19:00"),
			ChargePowerMW:    mustNum(spec.Params, "charge_power_mw", a.PowerMW),
			DischargePowerMW: mustNum(spec.Params, "discharge_power_mw", a.PowerMW),
		})
	case "oracle":
		return NewOracleStrategy(series, a, OracleParams{
			SocSteps:              int(mustNum(spec.Params, "soc_steps", 200)),
			PowerSteps:            int(mustNum(spec.Params, "power_steps", 10)),
			DegradationCostPerMWh: degradationCostPerMWh,
		})
	default:
		return nil, &model.ConfigError{Param: "policy.name", Reason: fmt.Sprintf("unsupported policy %q", spec.Name)}
	}
}

func mustNum(m map[string]any, key string, def float64) float64 {
	if v, ok := m[key]; ok && v != nil {
		switch x := v.(type) {
		case float64:
			return x
		case float32:
			return float64(x)
		case int:
			return float64(x)
		case int64:
			return float64(x)
		}
	}
	return def
}

func mustStr(m map[string]any, key string, def string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return def
}

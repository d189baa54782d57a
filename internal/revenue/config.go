package revenue

import (
	"fmt"
	"math"
	"strings"

	"bess-dispatch/internal/model"
)

// BMRoute selects how balancing mechanism revenue is realised.
type BMRoute string

const (
	// RouteVLP trades through a virtual lead party that keeps a fee share.
	RouteVLP BMRoute = "vlp"
	// RouteDirect trades as a BM unit directly and carries a fixed annual cost.
	RouteDirect BMRoute = "direct"
)

// ParseBMRoute accepts "vlp" and "direct" in any case. Blank means RouteVLP.
func ParseBMRoute(s string) (BMRoute, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vlp":
		return RouteVLP, nil
	case "direct":
		return RouteDirect, nil
	default:
		return "", fmt.Errorf("unknown bm route %q", s)
	}
}

// Config holds the revenue stream parameters. It is a value and is shared
// read-only between runs.
type Config struct {
	// VLPFeeShare is the fraction (0..1) of gross BM revenue kept by the VLP.
	VLPFeeShare float64 `json:"vlp_fee_share"`

	// CMDeratingFactor and CMClearingPrice (£/kW/year) are used when the
	// period does not carry its own values.
	CMDeratingFactor float64 `json:"cm_derating_factor"`
	CMClearingPrice  float64 `json:"cm_clearing_price"`

	DegradationCostPerMWh float64 `json:"degradation_cost_per_mwh"`

	// DUoS unit rates, £/MWh. The red rate is overridden by a period's DUoS rate.
	DUoSRedRate   float64 `json:"duos_red_rate"`
	DUoSGreenRate float64 `json:"duos_green_rate"`

	FREnabled         bool    `json:"fr_enabled"`
	FRUtilisationRate float64 `json:"fr_utilisation_rate"`

	// BMAcceptanceRate is the share (0..1) of discharged energy accepted in the BM.
	BMAcceptanceRate   float64 `json:"bm_acceptance_rate"`
	BMRoute            BMRoute `json:"bm_route"`
	BMDirectAnnualCost float64 `json:"bm_direct_annual_cost"`
}

// DefaultConfig has every optional stream switched off and a VLP route.
func DefaultConfig() Config {
	return Config{BMRoute: RouteVLP}
}

// Validate returns a *model.ConfigError naming the first invalid parameter.
func (c Config) Validate() error {
	fraction := func(param string, v float64) error {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return &model.ConfigError{Param: param, Reason: fmt.Sprintf("must be within [0, 1], got %v", v)}
		}
		return nil
	}
	nonNegative := func(param string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return &model.ConfigError{Param: param, Reason: fmt.Sprintf("must be >= 0, got %v", v)}
		}
		return nil
	}

	if err := fraction("vlp_fee_share", c.VLPFeeShare); err != nil {
		return err
	}
	if err := fraction("cm_derating_factor", c.CMDeratingFactor); err != nil {
		return err
	}
	if err := fraction("bm_acceptance_rate", c.BMAcceptanceRate); err != nil {
		return err
	}
	for _, f := range []struct {
		param string
		v     float64
	}{
		{"cm_clearing_price", c.CMClearingPrice},
		{"degradation_cost_per_mwh", c.DegradationCostPerMWh},
		{"fr_utilisation_rate", c.FRUtilisationRate},
		{"bm_direct_annual_cost", c.BMDirectAnnualCost},
	} {
		if err := nonNegative(f.param, f.v); err != nil {
			return err
		}
	}
	if math.IsNaN(c.DUoSRedRate) || math.IsNaN(c.DUoSGreenRate) {
		return &model.ConfigError{Param: "duos_red_rate", Reason: "must be a number"}
	}
	if _, err := ParseBMRoute(string(c.BMRoute)); err != nil {
		return &model.ConfigError{Param: "bm_route", Reason: err.Error()}
	}
	return nil
}

// Route returns the normalised BM route.
func (c Config) Route() BMRoute {
	r, err := ParseBMRoute(string(c.BMRoute))
	if err != nil {
		return RouteVLP
	}
	return r
}

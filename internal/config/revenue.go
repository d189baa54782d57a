package config

import (
	"fmt"

	"bess-dispatch/internal/model"
	"bess-dispatch/internal/revenue"
)

// RevenueConfig is the user-facing revenue shape. VLPFeeSharePct is a
// percentage (0..100); everything else matches revenue.Config. Fields are
// pointers so that an explicit 0 or false can override a base config.
type RevenueConfig struct {
	VLPFeeSharePct        *float64 `json:"vlp_fee_share,omitempty" yaml:"vlp_fee_share"`
	CMDeratingFactor      *float64 `json:"cm_derating_factor,omitempty" yaml:"cm_derating_factor"`
	CMClearingPrice       *float64 `json:"cm_clearing_price,omitempty" yaml:"cm_clearing_price"`
	DegradationCostPerMWh *float64 `json:"degradation_cost_per_mwh,omitempty" yaml:"degradation_cost_per_mwh"`
	DUoSRedRate           *float64 `json:"duos_red_rate,omitempty" yaml:"duos_red_rate"`
	DUoSGreenRate         *float64 `json:"duos_green_rate,omitempty" yaml:"duos_green_rate"`
	FREnabled             *bool    `json:"fr_enabled,omitempty" yaml:"fr_enabled"`
	FRUtilisationRate     *float64 `json:"fr_utilisation_rate,omitempty" yaml:"fr_utilisation_rate"`
	BMAcceptanceRate      *float64 `json:"bm_acceptance_rate,omitempty" yaml:"bm_acceptance_rate"`
	BMRoute               string   `json:"bm_route,omitempty" yaml:"bm_route"`
	BMDirectAnnualCost    *float64 `json:"bm_direct_annual_cost,omitempty" yaml:"bm_direct_annual_cost"`
}

// ToRevenue converts to the calculator's config and validates it. Unset
// fields are 0 (FR disabled, VLP route).
func (r RevenueConfig) ToRevenue() (revenue.Config, error) {
	feeShare := deref(r.VLPFeeSharePct)
	if feeShare < 0 || feeShare > 100 {
		return revenue.Config{}, &model.ConfigError{Param: "vlp_fee_share", Reason: fmt.Sprintf("must be a percentage within [0, 100], got %v", feeShare)}
	}
	route, err := revenue.ParseBMRoute(r.BMRoute)
	if err != nil {
		return revenue.Config{}, &model.ConfigError{Param: "bm_route", Reason: err.Error()}
	}
	cfg := revenue.Config{
		VLPFeeShare:           feeShare / 100,
		CMDeratingFactor:      deref(r.CMDeratingFactor),
		CMClearingPrice:       deref(r.CMClearingPrice),
		DegradationCostPerMWh: deref(r.DegradationCostPerMWh),
		DUoSRedRate:           deref(r.DUoSRedRate),
		DUoSGreenRate:         deref(r.DUoSGreenRate),
		FREnabled:             r.FREnabled != nil && *r.FREnabled,
		FRUtilisationRate:     deref(r.FRUtilisationRate),
		BMAcceptanceRate:      deref(r.BMAcceptanceRate),
		BMRoute:               route,
		BMDirectAnnualCost:    deref(r.BMDirectAnnualCost),
	}
	if err := cfg.Validate(); err != nil {
		return revenue.Config{}, err
	}
	return cfg, nil
}

// MergeRevenue overlays the fields set in override onto base.
func MergeRevenue(base, override RevenueConfig) RevenueConfig {
	out := base
	overlay(&out.VLPFeeSharePct, override.VLPFeeSharePct)
	overlay(&out.CMDeratingFactor, override.CMDeratingFactor)
	overlay(&out.CMClearingPrice, override.CMClearingPrice)
	overlay(&out.DegradationCostPerMWh, override.DegradationCostPerMWh)
	overlay(&out.DUoSRedRate, override.DUoSRedRate)
	overlay(&out.DUoSGreenRate, override.DUoSGreenRate)
	overlay(&out.FREnabled, override.FREnabled)
	overlay(&out.FRUtilisationRate, override.FRUtilisationRate)
	overlay(&out.BMAcceptanceRate, override.BMAcceptanceRate)
	overlay(&out.BMDirectAnnualCost, override.BMDirectAnnualCost)
	if override.BMRoute != "" {
		out.BMRoute = override.BMRoute
	}
	return out
}

func overlay[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

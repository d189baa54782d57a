package revenue

import (
	"bess-dispatch/internal/model"
)

// Each stream is a pure function of one decision, its period, the asset and
// the config. Streams are independent of one another.

// Arbitrage is export revenue on discharge minus import cost on charge.
// Charging pays for the grid-side energy, ChargeMWh / efficiency.
func Arbitrage(d model.DispatchDecision, p model.SettlementPeriod) float64 {
	v := 0.0
	if d.DischargeMWh > 0 {
		if price, ok := p.ExportPrice.Get(); ok {
			v += d.DischargeMWh * price
		}
	}
	if d.GridImportMWh > 0 {
		if price, ok := p.ImportPrice.Get(); ok {
			v -= d.GridImportMWh * price
		}
	}
	return v
}

// FRAvailability is paid on rated power for the period, regardless of
// dispatch.
func FRAvailability(p model.SettlementPeriod, a model.BatteryAsset, cfg Config) float64 {
	if !cfg.FREnabled {
		return 0
	}
	return a.PowerMW * p.FRAvailabilityRate.Or(0) * p.DurationHours()
}

// FRUtilisation pays for energy moved in the direction the period's FR
// instruction asked for.
func FRUtilisation(d model.DispatchDecision, p model.SettlementPeriod, cfg Config) float64 {
	if !cfg.FREnabled || cfg.FRUtilisationRate == 0 {
		return 0
	}
	switch {
	case p.FRInstruction == model.ActionDischarge && d.Action == model.ActionDischarge:
		return d.DischargeMWh * cfg.FRUtilisationRate
	case p.FRInstruction == model.ActionCharge && d.Action == model.ActionCharge:
		return d.ChargeMWh * cfg.FRUtilisationRate
	default:
		return 0
	}
}

// FrequencyResponse is availability plus utilisation.
func FrequencyResponse(d model.DispatchDecision, p model.SettlementPeriod, a model.BatteryAsset, cfg Config) float64 {
	return FRAvailability(p, a, cfg) + FRUtilisation(d, p, cfg)
}

// BMGross is the accepted share of discharged energy valued at the BM
// opportunity price.
func BMGross(d model.DispatchDecision, p model.SettlementPeriod, cfg Config) float64 {
	price, ok := p.BMOpportunityPrice.Get()
	if !ok || d.DischargeMWh <= 0 {
		return 0
	}
	return d.DischargeMWh * cfg.BMAcceptanceRate * price
}

// BMVLP is gross BM revenue net of the VLP fee share.
func BMVLP(gross float64, cfg Config) float64 {
	return gross * (1 - cfg.VLPFeeShare)
}

// BMDirect is gross BM revenue net of the pro-rated annual cost of direct
// participation. The cost accrues whether or not the asset dispatched.
func BMDirect(gross float64, p model.SettlementPeriod, cfg Config) float64 {
	return gross - cfg.BMDirectAnnualCost*p.DurationHours()/model.HoursPerYear
}

// CapacityMarket pro-rates the annual capacity payment (£/kW/year) to the
// period. Derating and clearing price come from the period when present.
func CapacityMarket(p model.SettlementPeriod, a model.BatteryAsset, cfg Config) float64 {
	derating := p.DeratingFactor.Or(cfg.CMDeratingFactor)
	price := p.CMClearingPrice.Or(cfg.CMClearingPrice)
	return a.PowerMW * 1000 * derating * price * p.DurationHours() / model.HoursPerYear
}

// DUoSAvoidance credits discharge that displaces red-band site import. It
// is only available behind the meter.
func DUoSAvoidance(d model.DispatchDecision, p model.SettlementPeriod, a model.BatteryAsset, cfg Config) float64 {
	if !a.BehindTheMeter || !p.IsRedBand() || d.DischargeMWh <= 0 {
		return 0
	}
	red := p.DUoSRate.Or(cfg.DUoSRedRate)
	return d.DischargeMWh * (red - cfg.DUoSGreenRate)
}

// Degradation is the wear cost of energy cycled through the store. It is
// never positive.
func Degradation(d model.DispatchDecision, cfg Config) float64 {
	t := d.ThroughputMWh()
	if t == 0 || cfg.DegradationCostPerMWh == 0 {
		return 0
	}
	return -t * cfg.DegradationCostPerMWh
}

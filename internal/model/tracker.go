package model

import "math"

// Transition captures what the state tracker realised for one period.
type Transition struct {
	PowerMW       float64 // realised grid-side power (may be clipped)
	ChargeMWh     float64 // energy added to the store
	DischargeMWh  float64 // energy taken from the store and delivered
	GridImportMWh float64 // ChargeMWh / Efficiency
	SOCStart      float64
	SOCEnd        float64
	Clipped       bool
}

// Track applies one period's requested action to soc and returns the
// realised transition. It never rejects a request: power is clipped to the
// rated power, and energy to the SOC headroom or availability.
//
// Efficiency is applied once, on the charge leg: charging draws
// ChargeMWh/Efficiency from the grid, discharging delivers DischargeMWh.
//
// powerMW is the requested magnitude; its sign is ignored.
func Track(a BatteryAsset, soc float64, action Action, powerMW float64, durationHours float64) Transition {
	tr := Transition{SOCStart: soc, SOCEnd: soc}
	if durationHours <= 0 || action == ActionHold {
		return tr
	}

	p := math.Abs(powerMW)
	if p > a.PowerMW {
		p = a.PowerMW
		tr.Clipped = true
	}

	switch action {
	case ActionCharge:
		grid := p * durationHours
		stored := grid * a.Efficiency
		headroom := math.Max(0, a.SOCMaxMWh-soc)
		if stored > headroom {
			stored = headroom
			grid = stored / a.Efficiency
			tr.Clipped = true
		}
		tr.ChargeMWh = stored
		tr.GridImportMWh = grid
		tr.PowerMW = -grid / durationHours
		tr.SOCEnd = clampSOC(a, soc+stored)
	case ActionDischarge:
		energy := p * durationHours
		available := math.Max(0, soc-a.SOCMinMWh)
		if energy > available {
			energy = available
			tr.Clipped = true
		}
		tr.DischargeMWh = energy
		tr.PowerMW = energy / durationHours
		tr.SOCEnd = clampSOC(a, soc-energy)
	}
	return tr
}

// Headroom is the energy that can still be stored before SOCMax.
func Headroom(a BatteryAsset, soc float64) float64 {
	return math.Max(0, a.SOCMaxMWh-soc)
}

// Available is the energy that can still be delivered before SOCMin.
func Available(a BatteryAsset, soc float64) float64 {
	return math.Max(0, soc-a.SOCMinMWh)
}

// clampSOC absorbs floating point drift at the bounds.
func clampSOC(a BatteryAsset, soc float64) float64 {
	if soc < a.SOCMinMWh {
		return a.SOCMinMWh
	}
	if soc > a.SOCMaxMWh {
		return a.SOCMaxMWh
	}
	return soc
}

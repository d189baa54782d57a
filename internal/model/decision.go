package model

import "time"

// Request is what a dispatch policy asks for in one period, before the
// state tracker enforces bounds.
type Request struct {
	Action  Action
	PowerMW float64 // magnitude
	// DataQuality is set when the policy fell back to Hold because of missing inputs.
	DataQuality string
}

// Hold is the zero-power request.
func Hold() Request { return Request{Action: ActionHold} }

// DispatchDecision is the accepted outcome of one period of one policy run.
// It is created once and never mutated.
type DispatchDecision struct {
	Index  int       // position in the input series, 0-based
	Period int       // settlement period of the day
	Start  time.Time

	RequestedAction  Action
	RequestedPowerMW float64

	Action        Action
	PowerMW       float64
	ChargeMWh     float64
	DischargeMWh  float64
	GridImportMWh float64
	SOCStart      float64
	SOCEnd        float64
	Clipped       bool
	DataQuality   string
}

// ThroughputMWh is the energy cycled through the store in the period.
func (d DispatchDecision) ThroughputMWh() float64 {
	return d.ChargeMWh + d.DischargeMWh
}

// Decide runs the state tracker for req and freezes the result.
func Decide(a BatteryAsset, idx int, p SettlementPeriod, soc float64, req Request) DispatchDecision {
	tr := Track(a, soc, req.Action, req.PowerMW, p.DurationHours())
	return DispatchDecision{
		Index:            idx,
		Period:           p.Index,
		Start:            p.Start,
		RequestedAction:  req.Action,
		RequestedPowerMW: req.PowerMW,
		Action:           ActionFromPowerMW(tr.PowerMW),
		PowerMW:          tr.PowerMW,
		ChargeMWh:        tr.ChargeMWh,
		DischargeMWh:     tr.DischargeMWh,
		GridImportMWh:    tr.GridImportMWh,
		SOCStart:         tr.SOCStart,
		SOCEnd:           tr.SOCEnd,
		Clipped:          tr.Clipped,
		DataQuality:      req.DataQuality,
	}
}

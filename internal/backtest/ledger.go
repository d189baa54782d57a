package backtest

import (
	"time"

	"bess-dispatch/internal/model"
	"bess-dispatch/internal/revenue"
)

// LedgerRow is one row of per-period output.
// This is the primary artifact for "what happened" in a run.
type LedgerRow struct {
	Index  int       `json:"index"`
	Start  time.Time `json:"timestamp"`
	End    time.Time `json:"end"`
	Period int       `json:"period"`
	Site   string    `json:"site,omitempty"`

	ImportPrice model.NullFloat `json:"import_price"`
	ExportPrice model.NullFloat `json:"export_price"`

	RequestedAction  model.Action `json:"requested_action"`
	RequestedPowerMW float64      `json:"requested_power_mw"`
	Action           model.Action `json:"action"`
	PowerMW          float64      `json:"power_mw"`

	ChargeMWh     float64 `json:"charge_mwh"`
	DischargeMWh  float64 `json:"discharge_mwh"`
	GridImportMWh float64 `json:"grid_import_mwh"`

	SOCStart float64 `json:"soc_start"`
	SOCEnd   float64 `json:"soc_end"`

	Clipped     bool   `json:"clipped,omitempty"`
	DataQuality string `json:"data_quality,omitempty"`

	Cashflow revenue.Cashflow `json:"cashflow"`
	// Net and CumNet use the configured BM route.
	Net    float64 `json:"net"`
	CumNet float64 `json:"cum_net"`
}

// Result is a complete policy run. It is only ever returned whole.
type Result struct {
	Policy  string             `json:"policy"`
	Asset   model.BatteryAsset `json:"asset"`
	Revenue revenue.Config     `json:"revenue"`

	Ledger []LedgerRow `json:"ledger"`

	Totals    revenue.Cashflow `json:"totals"`
	NetProfit float64          `json:"net_profit"`
	FinalSOC  float64          `json:"final_soc"`

	CoveredHours        float64 `json:"covered_hours"`
	ChargedMWh          float64 `json:"charged_mwh"`
	DischargedMWh       float64 `json:"discharged_mwh"`
	DataQualityWarnings int     `json:"data_quality_warnings"`
	ClippedPeriods      int     `json:"clipped_periods"`

	// Warnings describes each period held on missing prices, in order.
	Warnings []string `json:"warnings,omitempty"`
}

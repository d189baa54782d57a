package models

import (
	"bess-dispatch/internal/config"
	"bess-dispatch/internal/model"
	"bess-dispatch/internal/strategy"
)

// SimulateRequest represents the request body for running one simulation
type SimulateRequest struct {
	Series  []model.SettlementPeriod `json:"series" binding:"required"`
	Config  ScenarioConfig           `json:"config"`
	Options SimulateOptions          `json:"options,omitempty"`
}

// ScenarioConfig contains battery, policy and revenue configuration
type ScenarioConfig struct {
	// BatteryFile is a preset ID from GET /api/v1/batteries (e.g. "1_harwich_2mw").
	// Fields set in Battery override the preset.
	BatteryFile string               `json:"battery_file,omitempty"`
	Battery     config.BatteryConfig `json:"battery,omitempty"`
	Policy      strategy.Spec        `json:"policy"`
	Revenue     config.RevenueConfig `json:"revenue"`
}

// SimulateOptions contains optional simulation parameters
type SimulateOptions struct {
	IncludeLedger  bool `json:"include_ledger,omitempty"` // default: false
	IncludeWindows bool `json:"include_windows,omitempty"`
}

// CompareRequest runs Greedy and Optimized on the same series
type CompareRequest struct {
	Series []model.SettlementPeriod `json:"series" binding:"required"`
	Config ScenarioConfig           `json:"config"`
	// LookaheadPeriods overrides config.policy.lookahead_periods for the optimized run.
	LookaheadPeriods *int `json:"lookahead_periods,omitempty"`
}

// BatchRequest represents a request to run many variations of one scenario
type BatchRequest struct {
	Series     []model.SettlementPeriod `json:"series" binding:"required"`
	BaseConfig ScenarioConfig           `json:"base_config"`
	Variations []ScenarioVariation      `json:"variations" binding:"required"`
	Workers    int                      `json:"workers,omitempty"`
}

// ScenarioVariation defines a variation to test
type ScenarioVariation struct {
	Name   string         `json:"name" binding:"required"`
	Config ScenarioConfig `json:"config"`
}

// ProfileRequest ranks the sites found in a series by arbitrage potential
type ProfileRequest struct {
	Series []model.SettlementPeriod `json:"series" binding:"required"`
	Limit  int                      `json:"limit,omitempty"` // default: all
}

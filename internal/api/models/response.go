package models

import (
	"time"

	"bess-dispatch/internal/analysis"
	"bess-dispatch/internal/backtest"
	"bess-dispatch/internal/report"
)

// SimulateResponse represents the response from a simulation run
type SimulateResponse struct {
	ID               string                `json:"id,omitempty"`
	Status           string                `json:"status"`
	Summary          report.ScenarioResult `json:"summary"`
	ChargeWindows    []report.DayWindow    `json:"charge_windows,omitempty"`    // Per-day charge windows
	DischargeWindows []report.DayWindow    `json:"discharge_windows,omitempty"` // Per-day discharge windows
	Ledger           []backtest.LedgerRow  `json:"ledger,omitempty"`
}

// CompareResponse represents the response from a Greedy vs Optimized comparison
type CompareResponse struct {
	GreedyID    string            `json:"greedy_id"`
	OptimizedID string            `json:"optimized_id"`
	Comparison  report.Comparison `json:"comparison"`
}

// BatchResponse holds one result per variation, in request order
type BatchResponse struct {
	Results []BatchResult `json:"results"`
}

// BatchResult contains the outcome for one variation
type BatchResult struct {
	Name    string                 `json:"name"`
	ID      string                 `json:"id,omitempty"`
	Status  string                 `json:"status"`
	Summary *report.ScenarioResult `json:"summary,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

// ResultResponse is a stored run fetched by ID
type ResultResponse struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	Summary   report.ScenarioResult `json:"summary"`
}

// ProfileResponse represents the response from ranking sites
type ProfileResponse struct {
	Rankings []analysis.RankedPotential `json:"rankings"`
}

// BatteryInfo represents information about a battery preset
type BatteryInfo struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	File  string       `json:"file"`
	Specs BatterySpecs `json:"specs"`
}

// BatterySpecs contains battery specifications
type BatterySpecs struct {
	CapacityMWh    float64 `json:"capacity_mwh"`
	PowerMW        float64 `json:"power_mw"`
	Efficiency     float64 `json:"efficiency"`
	BehindTheMeter bool    `json:"behind_the_meter"`
}

// PolicyInfo represents information about a dispatch policy
type PolicyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a policy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error codes returned by the API.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidConfig   = "INVALID_CONFIG"
	CodeSimulationError = "SIMULATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternal        = "INTERNAL_ERROR"
)

package model

import (
	"fmt"
	"math"
)

// BatteryAsset defines the physical parameters of a battery.
// Units:
// - PowerMW: MW, measured at the grid connection
// - CapacityMWh, SOC*: MWh stored
// - Efficiency: round-trip, (0, 1]
//
// BatteryAsset is a value; it is safe to share between concurrent runs.
type BatteryAsset struct {
	Name           string  `json:"name,omitempty"`
	PowerMW        float64 `json:"power_mw"`
	CapacityMWh    float64 `json:"capacity_mwh"`
	Efficiency     float64 `json:"efficiency"`
	SOCMinMWh      float64 `json:"soc_min_mwh"`
	SOCMaxMWh      float64 `json:"soc_max_mwh"`
	InitialSOCMWh  float64 `json:"initial_soc_mwh"`
	BehindTheMeter bool    `json:"behind_the_meter"`
}

// ConfigError reports an invalid configuration parameter. It is returned
// before any period is simulated.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

func configErrorf(param, format string, args ...any) *ConfigError {
	return &ConfigError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

// NewBatteryAsset validates a and returns it unchanged on success.
func NewBatteryAsset(a BatteryAsset) (BatteryAsset, error) {
	if err := a.Validate(); err != nil {
		return BatteryAsset{}, err
	}
	return a, nil
}

// Validate returns a *ConfigError naming the first invalid parameter.
func (a BatteryAsset) Validate() error {
	if !finite(a.PowerMW) || a.PowerMW <= 0 {
		return configErrorf("power_mw", "must be > 0, got %v", a.PowerMW)
	}
	if !finite(a.CapacityMWh) || a.CapacityMWh <= 0 {
		return configErrorf("capacity_mwh", "must be > 0, got %v", a.CapacityMWh)
	}
	if !finite(a.Efficiency) || a.Efficiency <= 0 || a.Efficiency > 1 {
		return configErrorf("efficiency", "must be in (0, 1], got %v", a.Efficiency)
	}
	if !finite(a.SOCMinMWh) || a.SOCMinMWh < 0 {
		return configErrorf("soc_min", "must be >= 0, got %v", a.SOCMinMWh)
	}
	if !finite(a.SOCMaxMWh) || a.SOCMaxMWh > a.CapacityMWh {
		return configErrorf("soc_max", "must be <= capacity_mwh (%v), got %v", a.CapacityMWh, a.SOCMaxMWh)
	}
	if a.SOCMinMWh > a.SOCMaxMWh {
		return configErrorf("soc_min", "must be <= soc_max (%v), got %v", a.SOCMaxMWh, a.SOCMinMWh)
	}
	if !finite(a.InitialSOCMWh) || a.InitialSOCMWh < a.SOCMinMWh || a.InitialSOCMWh > a.SOCMaxMWh {
		return configErrorf("initial_soc", "must be within [%v, %v], got %v", a.SOCMinMWh, a.SOCMaxMWh, a.InitialSOCMWh)
	}
	return nil
}

// UsableMWh is the energy window between the SOC bounds.
func (a BatteryAsset) UsableMWh() float64 {
	return a.SOCMaxMWh - a.SOCMinMWh
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

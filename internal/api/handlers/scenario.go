package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bess-dispatch/internal/api/models"
	"bess-dispatch/internal/config"
	"bess-dispatch/internal/model"
	"bess-dispatch/internal/revenue"
	"bess-dispatch/internal/strategy"
)

// scenario is a request config resolved against the battery presets and
// validated.
type scenario struct {
	asset   model.BatteryAsset
	policy  strategy.Spec
	revenue revenue.Config
}

func resolveScenario(batteryDir string, sc models.ScenarioConfig) (scenario, error) {
	battery := sc.Battery
	if sc.BatteryFile != "" {
		loaded, err := loadPreset(batteryDir, sc.BatteryFile)
		if err != nil {
			return scenario{}, err
		}
		// Merge: battery file is base, request config is override
		battery = config.MergeBattery(loaded, sc.Battery)
	}
	asset, err := battery.ToAsset()
	if err != nil {
		return scenario{}, err
	}

	policy := sc.Policy
	if policy.Name == "" {
		policy.Name = "optimized"
	}
	if err := config.ValidatePolicy(policy); err != nil {
		return scenario{}, err
	}

	rev, err := sc.Revenue.ToRevenue()
	if err != nil {
		return scenario{}, err
	}
	return scenario{asset: asset, policy: policy, revenue: rev}, nil
}

// loadPreset reads a battery preset by ID. IDs are bare file names
// (e.g. "1_harwich_2mw") looked up in batteryDir.
func loadPreset(batteryDir, id string) (config.BatteryConfig, error) {
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return config.BatteryConfig{}, &model.ConfigError{Param: "battery_file", Reason: fmt.Sprintf("must be a preset ID, got %q", id)}
	}
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(batteryDir, id+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		b, err := config.LoadBatteryFile(path)
		if err != nil {
			return config.BatteryConfig{}, &model.ConfigError{Param: "battery_file", Reason: err.Error()}
		}
		return b, nil
	}
	return config.BatteryConfig{}, &model.ConfigError{Param: "battery_file", Reason: fmt.Sprintf("unknown preset %q", id)}
}

func mergeScenario(base, override models.ScenarioConfig) models.ScenarioConfig {
	merged := base
	if override.BatteryFile != "" {
		merged.BatteryFile = override.BatteryFile
	}
	merged.Battery = config.MergeBattery(base.Battery, override.Battery)
	if override.Policy.Name != "" {
		merged.Policy = override.Policy
	} else if override.Policy.LookaheadPeriods != nil {
		merged.Policy.LookaheadPeriods = override.Policy.LookaheadPeriods
	}
	merged.Revenue = config.MergeRevenue(base.Revenue, override.Revenue)
	return merged
}

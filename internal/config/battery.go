package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"bess-dispatch/internal/model"
)

// SOC units accepted by BatteryConfig.
const (
	SOCUnitMWh     = "mwh"
	SOCUnitPercent = "percent"
)

// BatteryConfig is the user-facing battery shape. SOC fields are pointers
// so that an explicit 0 can override a preset.
type BatteryConfig struct {
	Name           string   `json:"name,omitempty" yaml:"name"`
	PowerMW        float64  `json:"power_mw" yaml:"power_mw"`
	CapacityMWh    float64  `json:"capacity_mwh" yaml:"capacity_mwh"`
	Efficiency     float64  `json:"efficiency" yaml:"efficiency"`
	SOCMin         *float64 `json:"soc_min,omitempty" yaml:"soc_min"`
	SOCMax         *float64 `json:"soc_max,omitempty" yaml:"soc_max"`
	InitialSOC     *float64 `json:"initial_soc,omitempty" yaml:"initial_soc"`
	SOCUnit        string   `json:"soc_unit,omitempty" yaml:"soc_unit"` // mwh (default) | percent
	BehindTheMeter *bool    `json:"behind_the_meter,omitempty" yaml:"behind_the_meter"`
}

// ToAsset converts SOC values to MWh and validates the result.
// soc_min defaults to 0, soc_max to the capacity and initial_soc to soc_min.
func (b BatteryConfig) ToAsset() (model.BatteryAsset, error) {
	var scale float64
	switch strings.ToLower(strings.TrimSpace(b.SOCUnit)) {
	case "", SOCUnitMWh:
		scale = 1
	case SOCUnitPercent, "%":
		scale = b.CapacityMWh / 100
	default:
		return model.BatteryAsset{}, &model.ConfigError{Param: "soc_unit", Reason: fmt.Sprintf("want mwh or percent, got %q", b.SOCUnit)}
	}

	socMin := 0.0
	if b.SOCMin != nil {
		socMin = *b.SOCMin * scale
	}
	socMax := b.CapacityMWh
	if b.SOCMax != nil {
		socMax = *b.SOCMax * scale
	}
	initial := socMin
	if b.InitialSOC != nil {
		initial = *b.InitialSOC * scale
	}

	return model.NewBatteryAsset(model.BatteryAsset{
		Name:           b.Name,
		PowerMW:        b.PowerMW,
		CapacityMWh:    b.CapacityMWh,
		Efficiency:     b.Efficiency,
		SOCMinMWh:      socMin,
		SOCMaxMWh:      socMax,
		InitialSOCMWh:  initial,
		BehindTheMeter: b.BehindTheMeter != nil && *b.BehindTheMeter,
	})
}

// IsZero reports whether no battery field was set.
func (b BatteryConfig) IsZero() bool {
	return b.Name == "" && b.PowerMW == 0 && b.CapacityMWh == 0 && b.Efficiency == 0 &&
		b.SOCMin == nil && b.SOCMax == nil && b.InitialSOC == nil && b.SOCUnit == "" && b.BehindTheMeter == nil
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery"`
}

// LoadBatteryFile reads a battery preset. The file holds a top-level
// "battery" mapping.
func LoadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return w.Battery, nil
}

// BatteryPreset is a named battery file.
type BatteryPreset struct {
	ID      string
	File    string
	Battery BatteryConfig
}

// ListBatteryFiles loads every *.yaml preset in dir, sorted by ID. Files
// that fail to parse are returned in skipped with their error.
func ListBatteryFiles(dir string) (presets []BatteryPreset, skipped map[string]error, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	skipped = map[string]error{}
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		b, err := LoadBatteryFile(path)
		if err != nil {
			skipped[entry.Name()] = err
			continue
		}
		presets = append(presets, BatteryPreset{
			// Extract ID from filename (e.g., "1_harwich.yaml" -> "1_harwich")
			ID:      strings.TrimSuffix(entry.Name(), ext),
			File:    path,
			Battery: b,
		})
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].ID < presets[j].ID })
	return presets, skipped, nil
}

// MergeBattery overlays set fields from override onto base.
// This is used when loading a battery file and then applying overrides from the request.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.PowerMW != 0 {
		out.PowerMW = override.PowerMW
	}
	if override.CapacityMWh != 0 {
		out.CapacityMWh = override.CapacityMWh
	}
	if override.Efficiency != 0 {
		out.Efficiency = override.Efficiency
	}
	if override.SOCMin != nil {
		out.SOCMin = override.SOCMin
	}
	if override.SOCMax != nil {
		out.SOCMax = override.SOCMax
	}
	if override.InitialSOC != nil {
		out.InitialSOC = override.InitialSOC
	}
	if override.SOCUnit != "" {
		out.SOCUnit = override.SOCUnit
	}
	if override.BehindTheMeter != nil {
		out.BehindTheMeter = override.BehindTheMeter
	}
	return out
}

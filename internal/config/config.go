package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"bess-dispatch/internal/model"
	"bess-dispatch/internal/strategy"
)

// EnvPrefix marks environment overrides, e.g. BESS_BATTERY__POWER_MW=5.
const EnvPrefix = "BESS_"

// Config is the on-disk configuration shape (YAML or JSON).
type Config struct {
	// Optional: load battery parameters from a separate YAML (e.g. examples/batteries/*.yaml).
	// If both BatteryFile and Battery are provided, Battery overrides BatteryFile.
	BatteryFile string           `json:"battery_file" yaml:"battery_file"`
	Battery     BatteryConfig    `json:"battery" yaml:"battery"`
	Policy      strategy.Spec    `json:"policy" yaml:"policy"`
	Revenue     RevenueConfig    `json:"revenue" yaml:"revenue"`
	Simulation  SimulationConfig `json:"simulation" yaml:"simulation"`
	Store       StoreConfig      `json:"store" yaml:"store"`
	Server      ServerConfig     `json:"server" yaml:"server"`
}

type SimulationConfig struct {
	// Workers bounds the batch pool; 0 means one per CPU.
	Workers int `json:"workers" yaml:"workers"`
}

type StoreConfig struct {
	Backend string        `json:"backend" yaml:"backend"` // memory | sqlite
	Path    string        `json:"path" yaml:"path"`
	TTL     time.Duration `json:"ttl" yaml:"ttl"`
}

type ServerConfig struct {
	Port        int    `json:"port" yaml:"port"`
	Env         string `json:"env" yaml:"env"`
	BatteryDir  string `json:"battery_dir" yaml:"battery_dir"`
	MaxBodySize int64  `json:"max_body_size" yaml:"max_body_size"`
}

// Load reads path (if not empty) and then applies BESS_ environment
// overrides. Defaults are filled and the result validated.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var c Config
	if err := k.UnmarshalWithConf("", &c, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// If battery_file is set, load it and merge in any explicit overrides from c.Battery.
	if c.BatteryFile != "" {
		batteryPath := c.BatteryFile
		if !filepath.IsAbs(batteryPath) && path != "" {
			// Prefer interpreting relative paths as relative to the config file directory,
			// but fall back to the provided path (relative to cwd) if that doesn't exist.
			cand := filepath.Join(filepath.Dir(path), batteryPath)
			if _, err := os.Stat(cand); err == nil {
				batteryPath = cand
			}
		}
		loaded, err := LoadBatteryFile(batteryPath)
		if err != nil {
			return nil, err
		}
		c.Battery = MergeBattery(loaded, c.Battery)
	}
	return &c, nil
}

func (c *Config) SetDefaults() {
	if c.Policy.Name == "" {
		c.Policy.Name = "optimized"
	}
	if c.Revenue.BMRoute == "" {
		c.Revenue.BMRoute = "vlp"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.TTL == 0 {
		c.Store.TTL = 24 * time.Hour
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BatteryDir == "" {
		c.Server.BatteryDir = filepath.Join("examples", "batteries")
	}
	if c.Server.MaxBodySize == 0 {
		c.Server.MaxBodySize = 32 << 20
	}
}

// Validate checks every section. Asset and revenue problems are reported
// as *model.ConfigError.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	// The API server takes batteries per request, so an empty battery
	// section is allowed here.
	if !c.Battery.IsZero() {
		if _, err := c.Battery.ToAsset(); err != nil {
			return fmt.Errorf("battery config invalid: %w", err)
		}
	}
	if _, err := c.Revenue.ToRevenue(); err != nil {
		return fmt.Errorf("revenue config invalid: %w", err)
	}
	if err := ValidatePolicy(c.Policy); err != nil {
		return err
	}
	if c.Simulation.Workers < 0 {
		return &model.ConfigError{Param: "simulation.workers", Reason: fmt.Sprintf("must be >= 0, got %d", c.Simulation.Workers)}
	}
	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return &model.ConfigError{Param: "store.path", Reason: "required for the sqlite backend"}
		}
	default:
		return &model.ConfigError{Param: "store.backend", Reason: fmt.Sprintf("unsupported backend %q", c.Store.Backend)}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &model.ConfigError{Param: "server.port", Reason: fmt.Sprintf("out of range: %d", c.Server.Port)}
	}
	return nil
}

// ValidatePolicy checks the policy name and lookahead without building it.
func ValidatePolicy(s strategy.Spec) error {
	switch strings.ToLower(strings.TrimSpace(s.Name)) {
	case "greedy", "optimized", "optimised", "lookahead", "schedule", "oracle":
	default:
		return &model.ConfigError{Param: "policy.name", Reason: fmt.Sprintf("unsupported policy %q (want one of %s)", s.Name, strings.Join(strategy.Names, ", "))}
	}
	if s.LookaheadPeriods != nil && *s.LookaheadPeriods < 0 {
		return &model.ConfigError{Param: "lookahead_periods", Reason: fmt.Sprintf("must be >= 0, got %d", *s.LookaheadPeriods)}
	}
	return nil
}

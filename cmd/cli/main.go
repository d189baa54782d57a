package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"bess-dispatch/internal/backtest"
	"bess-dispatch/internal/config"
	"bess-dispatch/internal/data"
	"bess-dispatch/internal/logger"
	"bess-dispatch/internal/model"
	"bess-dispatch/internal/revenue"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "bess",
	Short: "Battery dispatch simulation and revenue attribution",
	Long: `Simulates a battery over a settlement-period price series and attributes
revenue to arbitrage, frequency response, balancing mechanism, capacity
market and DUoS avoidance.

Config is YAML or JSON; BESS_ environment variables override it
(e.g. BESS_BATTERY__POWER_MW=5).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (YAML or JSON)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runConfig is the loaded config with the battery and revenue sections
// already converted and validated.
type runConfig struct {
	cfg     *config.Config
	asset   model.BatteryAsset
	revenue revenue.Config
}

func loadRunConfig(needBattery bool) (*runConfig, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	rc := &runConfig{cfg: cfg}
	if rc.revenue, err = cfg.Revenue.ToRevenue(); err != nil {
		return nil, err
	}
	if cfg.Battery.IsZero() {
		if needBattery {
			return nil, errors.New("no battery configured (set battery or battery_file)")
		}
		return rc, nil
	}
	if rc.asset, err = cfg.Battery.ToAsset(); err != nil {
		return nil, fmt.Errorf("battery: %w", err)
	}
	return rc, nil
}

func newEngine() *backtest.Engine {
	return backtest.New(backtest.WithLogger(logger.New("cli")))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadSeries reads one or more comma-separated series files into one
// chronologically sorted series.
func loadSeries(paths string) ([]model.SettlementPeriod, error) {
	var all []model.SettlementPeriod
	for _, p := range splitPaths(paths) {
		s, err := data.LoadSeries(p)
		if err != nil {
			return nil, err
		}
		all = append(all, s...)
	}
	if len(all) == 0 {
		return nil, errors.New("--series is required")
	}
	return data.Normalize(all), nil
}

func splitPaths(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// selectSite narrows a series to one site. A single run models one battery,
// so a series with several sites needs --site (or the batch command).
func selectSite(series []model.SettlementPeriod, site string) ([]model.SettlementPeriod, error) {
	groups := data.GroupBySite(series)
	if site == "" {
		if len(groups) > 1 {
			return nil, fmt.Errorf("series holds %d sites (%s); pick one with --site or run them all with batch",
				len(groups), strings.Join(data.Sites(groups), ", "))
		}
		return series, nil
	}
	s, ok := groups[site]
	if !ok {
		return nil, fmt.Errorf("no periods for site %q (have %s)", site, strings.Join(data.Sites(groups), ", "))
	}
	return s, nil
}

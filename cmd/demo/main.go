package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bess-dispatch/internal/backtest"
	"bess-dispatch/internal/config"
	"bess-dispatch/internal/data"
	"bess-dispatch/internal/model"
	"bess-dispatch/internal/report"
	"bess-dispatch/internal/revenue"
	"bess-dispatch/internal/strategy"
)

// Demo:
// - Build (or load) one day of settlement-period prices
// - Instantiate a battery
// - Run greedy and optimized side by side to show how the pieces fit together
func main() {
	seriesPath := flag.String("series", "", "Path to a .csv or .json series (default: a synthetic day)")
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	n := flag.Int("n", 12, "Number of ledger rows to print")
	outCSV := flag.String("out", "", "Optional path to write the optimized ledger CSV (e.g. results/dispatch.csv)")
	flag.Parse()

	if err := run(*seriesPath, *cfgPath, *n, *outCSV); err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
		os.Exit(1)
	}
}

func run(seriesPath, cfgPath string, n int, outCSV string) error {
	series := syntheticDay(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	if seriesPath != "" {
		s, err := data.LoadSeries(seriesPath)
		if err != nil {
			return err
		}
		series = s
	}
	if len(series) == 0 {
		return fmt.Errorf("no periods in series")
	}

	// Defaults (can be overridden via --config).
	asset := model.BatteryAsset{
		Name:          "demo 2.5MW/5MWh",
		PowerMW:       2.5,
		CapacityMWh:   5,
		Efficiency:    0.9,
		SOCMinMWh:     0.25,
		SOCMaxMWh:     5,
		InitialSOCMWh: 2.5,
	}
	rev := revenue.DefaultConfig()
	lookahead := strategy.DefaultLookaheadPeriods

	if cfgPath != "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if !cfg.Battery.IsZero() {
			if asset, err = cfg.Battery.ToAsset(); err != nil {
				return err
			}
		}
		if rev, err = cfg.Revenue.ToRevenue(); err != nil {
			return err
		}
		if cfg.Policy.LookaheadPeriods != nil {
			lookahead = *cfg.Policy.LookaheadPeriods
		}
	}

	runs, err := backtest.New().RunComparison(context.Background(), series, asset, lookahead, rev)
	if err != nil {
		return err
	}
	ledger := runs.Optimized.Ledger

	fmt.Printf("Loaded %d periods starting %s\n", len(series), series[0].Start.Format("2006-01-02 15:04"))
	fmt.Printf("Battery=%s  Starting SOC=%.3f MWh\n\n", asset.Name, asset.InitialSOCMWh)

	for i := 0; i < min(n, len(ledger)); i++ {
		r := ledger[i]
		fmt.Printf(
			"SP%02d %s imp=%7.2f exp=%7.2f  action=%-9s  p=%6.2f  soc=%.3f->%.3f  net=%8.2f  cum=%8.2f\n",
			r.Period,
			r.Start.Format("15:04"),
			r.ImportPrice.Or(0),
			r.ExportPrice.Or(0),
			string(r.Action),
			r.PowerMW,
			r.SOCStart,
			r.SOCEnd,
			r.Net,
			r.CumNet,
		)
	}

	if outCSV != "" {
		if err := backtest.WriteLedgerCSV(outCSV, ledger); err != nil {
			return err
		}
		fmt.Printf("\nWrote CSV: %s\n", outCSV)
	}

	fmt.Println()
	return report.WriteComparison(os.Stdout, report.CompareRuns(runs))
}

// syntheticDay is a flat day with a cheap overnight trough and an evening
// peak a few hours later, so looking ahead pays.
func syntheticDay(day time.Time) []model.SettlementPeriod {
	out := make([]model.SettlementPeriod, model.PeriodsPerDay)
	for i := range out {
		out[i] = model.SettlementPeriod{
			Start:       day.Add(time.Duration(i) * model.SettlementPeriodDuration),
			Index:       i + 1,
			ImportPrice: model.Float(50),
			ExportPrice: model.Float(50),
		}
	}
	for i := 6; i < 10; i++ {
		out[i].ImportPrice, out[i].ExportPrice = model.Float(20), model.Float(20)
	}
	out[10].ImportPrice, out[10].ExportPrice = model.Float(-20), model.Float(-20)
	for i := 34; i < 38; i++ {
		out[i].ImportPrice, out[i].ExportPrice = model.Float(110), model.Float(110)
	}
	out[30].ExportPrice = model.Float(150)
	return out
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bess-dispatch/internal/backtest"
	"bess-dispatch/internal/report"
	"bess-dispatch/internal/strategy"
)

var simulateOpts struct {
	series    string
	site      string
	policy    string
	lookahead int
	ledger    string
	json      bool
	windows   bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one policy over a series and print the revenue summary",
	Example: `  bess simulate -c examples/configs/default.yaml --series examples/series/two_sites.csv --site harwich --ledger results/dispatch.csv
  bess simulate -c examples/configs/default.yaml --series prices.json --policy greedy --json`,
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simulateOpts.series, "series", "", "series file(s), .csv or .json, comma-separated")
	f.StringVar(&simulateOpts.site, "site", "", "run only this site of a multi-site series")
	f.StringVar(&simulateOpts.policy, "policy", "", "override policy name (greedy, optimized, schedule, oracle)")
	f.IntVar(&simulateOpts.lookahead, "lookahead", -1, "override lookahead periods for the optimized policy")
	f.StringVar(&simulateOpts.ledger, "ledger", "", "write the per-period ledger CSV to this path")
	f.BoolVar(&simulateOpts.json, "json", false, "print the summary as JSON")
	f.BoolVar(&simulateOpts.windows, "windows", false, "also print per-day charge and discharge windows")
	_ = simulateCmd.MarkFlagRequired("series")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	rc, err := loadRunConfig(true)
	if err != nil {
		return err
	}
	series, err := loadSeries(simulateOpts.series)
	if err != nil {
		return err
	}
	if series, err = selectSite(series, simulateOpts.site); err != nil {
		return err
	}

	spec := rc.cfg.Policy
	if simulateOpts.policy != "" {
		spec.Name = simulateOpts.policy
	}
	if simulateOpts.lookahead >= 0 {
		n := simulateOpts.lookahead
		spec.LookaheadPeriods = &n
	}
	policy, err := strategy.New(spec, series, rc.asset, rc.revenue.DegradationCostPerMWh)
	if err != nil {
		return err
	}

	res, err := newEngine().Run(ctx, series, rc.asset, policy, rc.revenue)
	if err != nil {
		return err
	}

	if simulateOpts.ledger != "" {
		// ensure output dir exists
		if err := os.MkdirAll(filepath.Dir(simulateOpts.ledger), 0o755); err != nil {
			return err
		}
		if err := backtest.WriteLedgerCSV(simulateOpts.ledger, res.Ledger); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", len(res.Ledger), simulateOpts.ledger)
	}

	summary := report.Aggregate(res)
	out := cmd.OutOrStdout()
	if simulateOpts.json {
		payload := map[string]any{"summary": summary}
		if simulateOpts.windows {
			charge, discharge := report.DailyWindows(res.Ledger)
			payload["charge_windows"] = charge
			payload["discharge_windows"] = discharge
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	if err := report.WriteSummary(out, summary); err != nil {
		return err
	}
	if simulateOpts.windows {
		charge, discharge := report.DailyWindows(res.Ledger)
		printWindows(out, "charge", charge)
		printWindows(out, "discharge", discharge)
	}
	return nil
}

func printWindows(out io.Writer, label string, windows []report.DayWindow) {
	fmt.Fprintf(out, "\n%s windows\n", label)
	for _, w := range windows {
		fmt.Fprintf(out, "  %s  %s-%s  %7.3f MWh @ %8.2f\n",
			w.Start.Format("2006-01-02"),
			w.Start.Format("15:04"),
			w.End.Format("15:04"),
			w.EnergyMWh,
			w.AveragePricePerMWh,
		)
	}
}

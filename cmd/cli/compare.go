package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"bess-dispatch/internal/report"
	"bess-dispatch/internal/strategy"
)

var compareOpts struct {
	series    string
	site      string
	lookahead int
	json      bool
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run greedy and optimized over the same series and print the improvement",
	RunE:  runCompare,
}

func init() {
	f := compareCmd.Flags()
	f.StringVar(&compareOpts.series, "series", "", "series file(s), .csv or .json, comma-separated")
	f.StringVar(&compareOpts.site, "site", "", "run only this site of a multi-site series")
	f.IntVar(&compareOpts.lookahead, "lookahead", -1, "lookahead periods (default: policy.lookahead_periods or 48)")
	f.BoolVar(&compareOpts.json, "json", false, "print the comparison as JSON")
	_ = compareCmd.MarkFlagRequired("series")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	rc, err := loadRunConfig(true)
	if err != nil {
		return err
	}
	series, err := loadSeries(compareOpts.series)
	if err != nil {
		return err
	}
	if series, err = selectSite(series, compareOpts.site); err != nil {
		return err
	}

	lookahead := strategy.DefaultLookaheadPeriods
	switch {
	case compareOpts.lookahead >= 0:
		lookahead = compareOpts.lookahead
	case rc.cfg.Policy.LookaheadPeriods != nil:
		lookahead = *rc.cfg.Policy.LookaheadPeriods
	}

	runs, err := newEngine().RunComparison(ctx, series, rc.asset, lookahead, rc.revenue)
	if err != nil {
		return err
	}
	cmp := report.CompareRuns(runs)

	if compareOpts.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cmp)
	}
	return report.WriteComparison(cmd.OutOrStdout(), cmp)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bess-dispatch/internal/backtest"
	"bess-dispatch/internal/config"
	"bess-dispatch/internal/data"
	"bess-dispatch/internal/report"
)

var batchOpts struct {
	series    string
	batteries string
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the configured policy for every site in a series, or every battery preset",
	Long: `Without --batteries, the series is split by site and each site is run with
the configured battery. With --batteries, every preset in the directory is
run over the whole series, which must then hold one site. Runs are spread over simulation.workers
goroutines; one failing run does not stop the others.`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchOpts.series, "series", "", "series file(s), .csv or .json, comma-separated")
	f.StringVar(&batchOpts.batteries, "batteries", "", "directory of battery presets to run instead of splitting by site")
	_ = batchCmd.MarkFlagRequired("series")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	rc, err := loadRunConfig(batchOpts.batteries == "")
	if err != nil {
		return err
	}
	series, err := loadSeries(batchOpts.series)
	if err != nil {
		return err
	}

	var jobs []backtest.Job
	var rows []report.BatchRow
	if batchOpts.batteries != "" {
		presets, skipped, err := config.ListBatteryFiles(batchOpts.batteries)
		if err != nil {
			return err
		}
		for name, err := range skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: %v\n", name, err)
		}
		for _, p := range presets {
			asset, err := p.Battery.ToAsset()
			if err != nil {
				rows = append(rows, report.BatchRow{Name: p.ID, Err: err})
				continue
			}
			jobs = append(jobs, backtest.Job{ID: p.ID, Series: series, Asset: asset, Policy: rc.cfg.Policy, Revenue: rc.revenue})
		}
	} else {
		groups := data.GroupBySite(series)
		for _, site := range data.Sites(groups) {
			name := site
			if name == "" {
				name = "(no site)"
			}
			jobs = append(jobs, backtest.Job{ID: name, Series: groups[site], Asset: rc.asset, Policy: rc.cfg.Policy, Revenue: rc.revenue})
		}
	}

	for _, o := range newEngine().RunBatch(ctx, jobs, rc.cfg.Simulation.Workers) {
		row := report.BatchRow{Name: o.JobID, Err: o.Err}
		if o.Err == nil {
			summary := report.Aggregate(o.Result)
			row.Result = &summary
		}
		rows = append(rows, row)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return report.WriteBatch(cmd.OutOrStdout(), rows)
}

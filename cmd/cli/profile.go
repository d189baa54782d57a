package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bess-dispatch/internal/analysis"
	"bess-dispatch/internal/data"
)

var profileOpts struct {
	series string
	limit  int
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Rank the sites in a series by arbitrage potential",
	Long: `Computes price statistics per site and an 'oracle' profit for a canonical
1 MW / 1 MWh battery with perfect foresight, then ranks sites by it.`,
	RunE: runProfile,
}

func init() {
	f := profileCmd.Flags()
	f.StringVar(&profileOpts.series, "series", "", "series file(s), .csv or .json, comma-separated")
	f.IntVar(&profileOpts.limit, "limit", 0, "show only the top N sites (0=all)")
	_ = profileCmd.MarkFlagRequired("series")
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, _ []string) error {
	series, err := loadSeries(profileOpts.series)
	if err != nil {
		return err
	}

	ranked := analysis.RankByOracleProfit(data.GroupBySite(series))
	if profileOpts.limit > 0 && profileOpts.limit < len(ranked) {
		ranked = ranked[:profileOpts.limit]
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-4s %-18s %-8s %-10s %-10s %-13s %-12s\n", "rank", "site", "count", "p95-p05", "day_spread", "min/max", "oracle£")
	for _, r := range ranked {
		site := r.Site
		if site == "" {
			site = "(no site)"
		}
		fmt.Fprintf(out,
			"%-4d %-18s %-8d %-10.2f %-10.2f %-6.1f/%-6.1f %-12.2f\n",
			r.Rank,
			site,
			r.Count,
			r.SpreadP95P05,
			r.MeanDailySpread,
			r.MinImport,
			r.MaxExport,
			r.OracleProfit,
		)
	}
	return nil
}

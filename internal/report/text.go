package report

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteSummary prints a human readable summary of one scenario.
func WriteSummary(out io.Writer, r ScenarioResult) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	rows := []struct {
		label string
		total float64
		share Ratio
	}{
		{"arbitrage", r.Totals.Arbitrage, r.Shares.Arbitrage},
		{"frequency_response", r.Totals.FrequencyResponse, r.Shares.FrequencyResponse},
		{"balancing_mechanism (" + string(r.BMRoute) + ")", r.Totals.BM(r.BMRoute), r.Shares.BalancingMech},
		{"capacity_market", r.Totals.CapacityMarket, r.Shares.CapacityMarket},
		{"duos_avoidance", r.Totals.DUoSAvoidance, r.Shares.DUoSAvoidance},
	}

	fmt.Fprintf(tw, "policy\t%s\n", r.Policy)
	fmt.Fprintf(tw, "periods\t%d (%.1f h)\n", r.Periods, r.CoveredHours)
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\n", row.label, row.total, row.share.Percent())
	}
	fmt.Fprintf(tw, "degradation\t%.2f\n", r.Totals.Degradation)
	fmt.Fprintf(tw, "net_profit\t%.2f\n", r.NetProfit)
	fmt.Fprintf(tw, "net_profit_vlp\t%.2f\n", r.NetProfitVLP)
	fmt.Fprintf(tw, "net_profit_direct\t%.2f\n", r.NetProfitDirect)
	fmt.Fprintf(tw, "annualisation_factor\t%s\n", r.AnnualisationFactor)
	fmt.Fprintf(tw, "annualised_net_profit\t%s\n", r.AnnualisedNetProfit)
	fmt.Fprintf(tw, "equivalent_cycles\t%s\n", r.EquivalentCycles)
	fmt.Fprintf(tw, "final_soc_mwh\t%.3f\n", r.FinalSOC)
	fmt.Fprintf(tw, "data_quality_warnings\t%d\n", r.DataQualityWarnings)
	return tw.Flush()
}

// WriteComparison prints both summaries followed by the delta.
func WriteComparison(out io.Writer, c Comparison) error {
	if err := WriteSummary(out, c.Greedy); err != nil {
		return err
	}
	fmt.Fprintln(out)
	if err := WriteSummary(out, c.Optimized); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\ndelta\t%.2f\npct_improvement\t%s\n", c.Delta, c.PctImprovement.Percent())
	return err
}

// BatchRow is one named entry of a batch table. Err is set when the run
// failed, in which case Result is nil.
type BatchRow struct {
	Name   string
	Result *ScenarioResult
	Err    error
}

// WriteBatch prints one line per batch entry.
func WriteBatch(out io.Writer, rows []BatchRow) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "name\tpolicy\tnet_profit\tannualised_net_profit\tcycles\tdata_quality_warnings")
	for _, row := range rows {
		if row.Err != nil {
			fmt.Fprintf(tw, "%s\terror\t%v\n", row.Name, row.Err)
			continue
		}
		r := row.Result
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t%d\n",
			row.Name, r.Policy, r.NetProfit, r.AnnualisedNetProfit, r.EquivalentCycles, r.DataQualityWarnings)
	}
	return tw.Flush()
}

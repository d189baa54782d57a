package backtest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"bess-dispatch/internal/model"
)

var ledgerHeader = []string{
	"index",
	"timestamp",
	"period",
	"site",
	"import_price",
	"export_price",
	"requested_action",
	"requested_power_mw",
	"action",
	"power_mw",
	"charge_mwh",
	"discharge_mwh",
	"grid_import_mwh",
	"soc_start",
	"soc_end",
	"clipped",
	"data_quality",
	"arbitrage",
	"frequency_response",
	"bm_vlp",
	"bm_direct",
	"capacity_market",
	"duos_avoidance",
	"degradation",
	"net",
	"cum_net",
}

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteLedger(f, ledger); err != nil {
		return err
	}
	return f.Close()
}

// WriteLedger writes the ledger as CSV with a header row.
func WriteLedger(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(ledgerHeader); err != nil {
		return err
	}

	for _, r := range ledger {
		cf := r.Cashflow
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Start),
			strconv.Itoa(r.Period),
			r.Site,
			fmtNull(r.ImportPrice),
			fmtNull(r.ExportPrice),
			string(r.RequestedAction),
			fmtFloat(r.RequestedPowerMW),
			string(r.Action),
			fmtFloat(r.PowerMW),
			fmtFloat(r.ChargeMWh),
			fmtFloat(r.DischargeMWh),
			fmtFloat(r.GridImportMWh),
			fmtFloat(r.SOCStart),
			fmtFloat(r.SOCEnd),
			strconv.FormatBool(r.Clipped),
			r.DataQuality,
			fmtFloat(cf.Arbitrage),
			fmtFloat(cf.FrequencyResponse),
			fmtFloat(cf.BMVLP),
			fmtFloat(cf.BMDirect),
			fmtFloat(cf.CapacityMarket),
			fmtFloat(cf.DUoSAvoidance),
			fmtFloat(cf.Degradation),
			fmtFloat(r.Net),
			fmtFloat(r.CumNet),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func fmtNull(n model.NullFloat) string {
	if !n.Valid {
		return ""
	}
	return fmtFloat(n.Float64)
}

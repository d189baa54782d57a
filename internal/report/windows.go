package report

import (
	"time"

	"bess-dispatch/internal/backtest"
)

// TimeWindow represents a time range.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DayWindow spans the first to last period of one day in which the asset
// charged (or discharged), with the energy-weighted average price paid (or
// received).
type DayWindow struct {
	TimeWindow
	AveragePricePerMWh float64 `json:"average_price_per_mwh"`
	EnergyMWh          float64 `json:"energy_mwh"`
}

type windowAcc struct {
	window TimeWindow
	value  float64 // sum of price × energy for the weighted average
	energy float64
}

// DailyWindows groups the ledger into per-day charge and discharge windows
// in chronological order. Charge energy is measured at the grid.
func DailyWindows(ledger []backtest.LedgerRow) (charge, discharge []DayWindow) {
	var ch, dis []*windowAcc
	var lastChargeDay, lastDischargeDay time.Time

	add := func(accs []*windowAcc, last *time.Time, r backtest.LedgerRow, price, energy float64) []*windowAcc {
		day := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, r.Start.Location())
		if len(accs) == 0 || !day.Equal(*last) {
			*last = day
			return append(accs, &windowAcc{
				window: TimeWindow{Start: r.Start, End: r.End},
				value:  price * energy,
				energy: energy,
			})
		}
		// Extend window to include this period
		w := accs[len(accs)-1]
		w.window.End = r.End
		w.value += price * energy
		w.energy += energy
		return accs
	}

	for _, r := range ledger {
		if r.GridImportMWh > 0 {
			ch = add(ch, &lastChargeDay, r, r.ImportPrice.Or(0), r.GridImportMWh)
		}
		if r.DischargeMWh > 0 {
			dis = add(dis, &lastDischargeDay, r, r.ExportPrice.Or(0), r.DischargeMWh)
		}
	}
	return finish(ch), finish(dis)
}

func finish(accs []*windowAcc) []DayWindow {
	out := make([]DayWindow, 0, len(accs))
	for _, a := range accs {
		avg := 0.0
		if a.energy > 0 {
			avg = a.value / a.energy
		}
		out = append(out, DayWindow{TimeWindow: a.window, AveragePricePerMWh: avg, EnergyMWh: a.energy})
	}
	return out
}

package backtest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bess-dispatch/internal/logger"
	"bess-dispatch/internal/metrics"
	"bess-dispatch/internal/model"
	"bess-dispatch/internal/revenue"
	"bess-dispatch/internal/strategy"
)

// maxLoggedWarnings caps how many data-quality warnings one run logs; all of
// them stay on Result.Warnings.
const maxLoggedWarnings = 5

// Engine steps one policy over a series. It holds no per-run state and is
// safe to share between goroutines.
type Engine struct {
	log     logger.Logger
	metrics metrics.Sink
}

type Option func(*Engine)

func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithMetrics(s metrics.Sink) Option {
	return func(e *Engine) {
		if s != nil {
			e.metrics = s
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{log: logger.NopLogger{}, metrics: metrics.NopSink{}}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run executes a policy over the series. Configuration and the series
// timeline are validated before the first period; per-period data problems
// are recovered as Hold and logged together once the loop is done. The
// context is checked once per day of periods.
func (e *Engine) Run(ctx context.Context, series []model.SettlementPeriod, asset model.BatteryAsset, policy strategy.Policy, cfg revenue.Config) (*Result, error) {
	if policy == nil {
		return nil, fmt.Errorf("policy is nil")
	}
	if err := asset.Validate(); err != nil {
		e.metrics.RecordFailure(policy.Name())
		return nil, fmt.Errorf("battery: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		e.metrics.RecordFailure(policy.Name())
		return nil, fmt.Errorf("revenue: %w", err)
	}
	if err := model.ValidateTimeline(series); err != nil {
		e.metrics.RecordFailure(policy.Name())
		return nil, err
	}

	started := time.Now()
	route := cfg.Route()
	res := &Result{
		Policy:   policy.Name(),
		Asset:    asset,
		Revenue:  cfg,
		Ledger:   make([]LedgerRow, 0, len(series)),
		FinalSOC: asset.InitialSOCMWh,
	}

	soc := asset.InitialSOCMWh
	cum := 0.0
	for idx, p := range series {
		if idx%model.PeriodsPerDay == 0 {
			if err := ctx.Err(); err != nil {
				e.metrics.RecordFailure(policy.Name())
				return nil, err
			}
		}

		req := policy.Decide(strategy.Context{Index: idx, SOC: soc, Series: series, Asset: asset})
		d := model.Decide(asset, idx, p, soc, req)
		if d.DataQuality != "" {
			res.DataQualityWarnings++
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s at %s", d.DataQuality, p.Start.Format(time.RFC3339)))
		}
		if d.Clipped {
			res.ClippedPeriods++
		}

		cf := revenue.Evaluate(d, p, asset, cfg)
		net := cf.Net(route)
		cum += net
		soc = d.SOCEnd

		res.Totals = res.Totals.Add(cf)
		res.CoveredHours += p.DurationHours()
		res.ChargedMWh += d.ChargeMWh
		res.DischargedMWh += d.DischargeMWh

		res.Ledger = append(res.Ledger, LedgerRow{
			Index:            idx,
			Start:            p.Start,
			End:              p.End(),
			Period:           p.Index,
			Site:             p.Site,
			ImportPrice:      p.ImportPrice,
			ExportPrice:      p.ExportPrice,
			RequestedAction:  d.RequestedAction,
			RequestedPowerMW: d.RequestedPowerMW,
			Action:           d.Action,
			PowerMW:          d.PowerMW,
			ChargeMWh:        d.ChargeMWh,
			DischargeMWh:     d.DischargeMWh,
			GridImportMWh:    d.GridImportMWh,
			SOCStart:         d.SOCStart,
			SOCEnd:           d.SOCEnd,
			Clipped:          d.Clipped,
			DataQuality:      d.DataQuality,
			Cashflow:         cf,
			Net:              net,
			CumNet:           cum,
		})
	}

	res.NetProfit = cum
	res.FinalSOC = soc
	if n := len(res.Warnings); n > 0 {
		shown := res.Warnings
		if n > maxLoggedWarnings {
			shown = shown[:maxLoggedWarnings]
		}
		e.log.Warnf("%s: held %d periods on missing prices: %s", res.Policy, n, strings.Join(shown, "; "))
	}

	e.metrics.RecordRun(metrics.RunRecord{
		Policy:              res.Policy,
		Periods:             len(series),
		DataQualityWarnings: res.DataQualityWarnings,
		ClippedPeriods:      res.ClippedPeriods,
		Duration:            time.Since(started),
	})
	e.log.Debugw("run complete", map[string]any{
		"policy":     res.Policy,
		"periods":    len(series),
		"net_profit": res.NetProfit,
		"final_soc":  res.FinalSOC,
	})
	return res, nil
}

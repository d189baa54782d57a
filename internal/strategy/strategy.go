package strategy

import (
	"fmt"

	"bess-dispatch/internal/model"
)

// Context is everything a policy may look at when deciding one period.
// Series is the full, read-only input series; policies must not look
// before Index or wrap past the end.
type Context struct {
	Index  int
	SOC    float64
	Series []model.SettlementPeriod
	Asset  model.BatteryAsset
}

// Period returns the settlement period being decided.
func (c Context) Period() model.SettlementPeriod {
	return c.Series[c.Index]
}

// Policy decides the action for a single settlement period. Bound
// enforcement is left to the state tracker.
type Policy interface {
	Name() string
	Decide(ctx Context) model.Request
}

// prices returns the charging cost (import price) and the opportunity price
// (export price) of a period.
func prices(p model.SettlementPeriod) (cost, opportunity float64, ok bool) {
	cost, okCost := p.ImportPrice.Get()
	opportunity, okOpp := p.ExportPrice.Get()
	return cost, opportunity, okCost && okOpp
}

func missingPrices(p model.SettlementPeriod) model.Request {
	var missing string
	switch {
	case !p.ImportPrice.Valid && !p.ExportPrice.Valid:
		missing = "import_price, export_price"
	case !p.ImportPrice.Valid:
		missing = "import_price"
	default:
		missing = "export_price"
	}
	return model.Request{
		Action:      model.ActionHold,
		DataQuality: fmt.Sprintf("missing %s for period %d", missing, p.Index),
	}
}

func charge(a model.BatteryAsset) model.Request {
	return model.Request{Action: model.ActionCharge, PowerMW: a.PowerMW}
}

func discharge(a model.BatteryAsset) model.Request {
	return model.Request{Action: model.ActionDischarge, PowerMW: a.PowerMW}
}

package strategy

import (
	"fmt"
	"math"
	"strings"

	"bess-dispatch/internal/model"
)

// ScheduleParams implements a simple daily time-window strategy:
// - Charge during [ChargeStart, ChargeEnd)
// - Discharge during [DischargeStart, DischargeEnd)
// - Otherwise HOLD
//
// Times are interpreted in the location of each period's timestamp.
type ScheduleParams struct {
	ChargeStart      string  // "HH:MM"
	ChargeEnd        string  // "HH:MM" (optional; default = DischargeStart)
	DischargeStart   string  // "HH:MM"
	DischargeEnd     string  // "HH:MM" (optional; default = DischargeStart => zero-length)
	ChargePowerMW    float64 // magnitude
	DischargePowerMW float64 // magnitude
}

type ScheduleStrategy struct {
	Params ScheduleParams

	csMins int
	ceMins int
	dsMins int
	deMins int
}

// NewScheduleStrategy parses the window boundaries up front so a bad
// time string fails before any period is simulated.
func NewScheduleStrategy(p ScheduleParams) (*ScheduleStrategy, error) {
	cs, err := parseHHMM(p.ChargeStart)
	if err != nil {
		return nil, &model.ConfigError{Param: "charge_start", Reason: err.Error()}
	}
	ds, err := parseHHMM(p.DischargeStart)
	if err != nil {
		return nil, &model.ConfigError{Param: "discharge_start", Reason: err.Error()}
	}
	ce := ds
	if strings.TrimSpace(p.ChargeEnd) != "" {
		if ce, err = parseHHMM(p.ChargeEnd); err != nil {
			return nil, &model.ConfigError{Param: "charge_end", Reason: err.Error()}
		}
	}
	de := ds
	if strings.TrimSpace(p.DischargeEnd) != "" {
		if de, err = parseHHMM(p.DischargeEnd); err != nil {
			return nil, &model.ConfigError{Param: "discharge_end", Reason: err.Error()}
		}
	}
	return &ScheduleStrategy{Params: p, csMins: cs, ceMins: ce, dsMins: ds, deMins: de}, nil
}

func (s *ScheduleStrategy) Name() string { return "schedule" }

func (s *ScheduleStrategy) Decide(ctx Context) model.Request {
	start := ctx.Period().Start
	mins := start.Hour()*60 + start.Minute()

	if inWindow(mins, s.csMins, s.ceMins) {
		return model.Request{Action: model.ActionCharge, PowerMW: math.Abs(s.Params.ChargePowerMW)}
	}
	if inWindow(mins, s.dsMins, s.deMins) {
		return model.Request{Action: model.ActionDischarge, PowerMW: math.Abs(s.Params.DischargePowerMW)}
	}
	return model.Hold()
}

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// inWindow checks whether tMins is in [start, end) on a 24h clock.
// If start == end, the window is empty (always false).
// If start > end, it wraps across midnight.
func inWindow(tMins, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return tMins >= start && tMins < end
	}
	return tMins >= start || tMins < end
}

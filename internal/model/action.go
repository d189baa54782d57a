package model

import (
	"fmt"
	"strings"
)

// Action is a human-friendly operating mode for a settlement period.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharge    Action = "CHARGE"
	ActionHold      Action = "HOLD"
	ActionDischarge Action = "DISCHARGE"
)

// ActionFromPowerMW maps a realised grid-side power to an action.
// Convention: positive MW = discharge to grid, negative MW = charge from grid.
func ActionFromPowerMW(powerMW float64) Action {
	switch {
	case powerMW < 0:
		return ActionCharge
	case powerMW > 0:
		return ActionDischarge
	default:
		return ActionHold
	}
}

// ParseAction accepts the canonical names plus the lower-case and -ing forms
// found in upstream exports ("charging", "idle", ...).
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "charge", "charging":
		return ActionCharge, nil
	case "discharge", "discharging":
		return ActionDischarge, nil
	case "hold", "idle", "":
		return ActionHold, nil
	default:
		return ActionHold, fmt.Errorf("unknown action %q", s)
	}
}

func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

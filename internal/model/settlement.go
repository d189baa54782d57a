package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// PeriodsPerDay is the number of half-hour settlement periods in a normal day.
const PeriodsPerDay = 48

// SettlementPeriodDuration is the default length of one settlement period.
const SettlementPeriodDuration = 30 * time.Minute

// HoursPerYear is the annualisation base used by availability-based streams.
const HoursPerYear = 8760.0

// DUoS tariff bands.
const (
	BandRed   = "red"
	BandAmber = "amber"
	BandGreen = "green"
)

// NullFloat is an optional float64, in the style of sql.NullFloat64.
// NaN and ±Inf are never Valid.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float returns a NullFloat that is valid unless v is NaN or infinite.
func Float(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Float64: v, Valid: true}
}

// Missing is the zero NullFloat.
var Missing = NullFloat{}

// Get returns the value and whether it is present.
func (n NullFloat) Get() (float64, bool) {
	return n.Float64, n.Valid
}

// Or returns the value, or def when missing.
func (n NullFloat) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Float64
}

// ParseNullFloat decodes the textual forms found in CSV exports.
// Blank, "NaN", "null", "NA" and "-" are treated as missing.
func ParseNullFloat(s string) (NullFloat, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "na", "n/a", "-":
		return NullFloat{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NullFloat{}, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return Float(v), nil
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = NullFloat{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := ParseNullFloat(s)
		if err != nil {
			return err
		}
		*n = v
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}

// SettlementPeriod is one half-hour slice of market and tariff signals.
// Any price field may be missing. Prices are £/MWh unless noted.
type SettlementPeriod struct {
	Start time.Time `json:"timestamp"`
	// Index is the settlement period of the day, 1..48 (46/50 on clock-change days).
	Index int    `json:"period"`
	Site  string `json:"site,omitempty"`

	ImportPrice NullFloat `json:"import_price"`
	ExportPrice NullFloat `json:"export_price"`

	DUoSRate NullFloat `json:"duos_rate"`
	DUoSBand string    `json:"duos_band,omitempty"`

	// FRAvailabilityRate is £/MW/h.
	FRAvailabilityRate NullFloat `json:"fr_availability_rate"`
	// FRInstruction is the direction the FR provider was instructed to move, if any.
	FRInstruction Action `json:"fr_instruction,omitempty"`

	BMOpportunityPrice NullFloat `json:"bm_opportunity_price"`

	// CMClearingPrice is £/kW/year.
	CMClearingPrice NullFloat `json:"cm_clearing_price"`
	DeratingFactor  NullFloat `json:"derating_factor"`

	// DurationMinutes overrides the default 30 minute period length when > 0.
	DurationMinutes float64 `json:"duration_minutes,omitempty"`
}

func (p SettlementPeriod) Duration() time.Duration {
	if p.DurationMinutes > 0 {
		return time.Duration(p.DurationMinutes * float64(time.Minute))
	}
	return SettlementPeriodDuration
}

func (p SettlementPeriod) DurationHours() float64 {
	return p.Duration().Hours()
}

func (p SettlementPeriod) End() time.Time {
	return p.Start.Add(p.Duration())
}

// IsRedBand reports whether the period falls in the DUoS red (peak) band.
func (p SettlementPeriod) IsRedBand() bool {
	return strings.EqualFold(strings.TrimSpace(p.DUoSBand), BandRed)
}

// HasPrices reports whether both the import and export price are present.
func (p SettlementPeriod) HasPrices() bool {
	return p.ImportPrice.Valid && p.ExportPrice.Valid
}

// ValidateTimeline checks that series is one battery's timeline: a single
// site with strictly increasing timestamps. A multi-site series has to be
// split first, one run per site.
func ValidateTimeline(series []SettlementPeriod) error {
	for i := 1; i < len(series); i++ {
		prev, p := series[i-1], series[i]
		if p.Site != series[0].Site {
			return configErrorf("series", "holds more than one site (%q, %q); simulate each site on its own", series[0].Site, p.Site)
		}
		if !p.Start.After(prev.Start) {
			return configErrorf("series", "period %d at %s does not follow %s; timestamps must be unique and increasing", i, p.Start.Format(time.RFC3339), prev.Start.Format(time.RFC3339))
		}
	}
	return nil
}

package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"bess-dispatch/internal/model"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04",
}

// Header aliases seen in settlement exports, mapped to canonical names.
var columnAliases = map[string]string{
	"start":               "timestamp",
	"datetime":            "timestamp",
	"settlement_date":     "date",
	"settlement_period":   "period",
	"sp":                  "period",
	"price":               "import_price",
	"mid_price":           "export_price",
	"duos_band_label":     "duos_band",
	"fr_rate":             "fr_availability_rate",
	"bm_price":            "bm_opportunity_price",
	"cm_price":            "cm_clearing_price",
	"technology_derating": "derating_factor",
}

// DecodeSeriesCSV reads periods from CSV with a header row. Either a
// timestamp column or a date + period pair is required; every other column
// is optional and blank/NaN cells are treated as missing.
func DecodeSeriesCSV(r io.Reader) ([]model.SettlementPeriod, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty input")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	_, hasTS := cols["timestamp"]
	_, hasDate := cols["date"]
	_, hasPeriod := cols["period"]
	if !hasTS && !(hasDate && hasPeriod) {
		return nil, fmt.Errorf("csv needs a timestamp column or date and period columns")
	}

	var out []model.SettlementPeriod
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, p)
	}
	return Normalize(out), nil
}

func parseRow(rec []string, cols map[string]int) (model.SettlementPeriod, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	num := func(name string) (model.NullFloat, error) {
		v, err := model.ParseNullFloat(get(name))
		if err != nil {
			return v, fmt.Errorf("%s: %w", name, err)
		}
		return v, nil
	}

	var p model.SettlementPeriod
	var err error

	if s := get("period"); s != "" {
		if p.Index, err = strconv.Atoi(s); err != nil {
			return p, fmt.Errorf("period: invalid %q", s)
		}
	}
	if s := get("timestamp"); s != "" {
		if p.Start, err = parseTime(s); err != nil {
			return p, err
		}
	} else {
		d, err := time.Parse("2006-01-02", get("date"))
		if err != nil {
			return p, fmt.Errorf("date: %w", err)
		}
		if p.Index < 1 {
			return p, fmt.Errorf("period: required with date, got %q", get("period"))
		}
		p.Start = d.Add(time.Duration(p.Index-1) * model.SettlementPeriodDuration)
	}

	fields := []struct {
		name string
		dst  *model.NullFloat
	}{
		{"import_price", &p.ImportPrice},
		{"export_price", &p.ExportPrice},
		{"duos_rate", &p.DUoSRate},
		{"fr_availability_rate", &p.FRAvailabilityRate},
		{"bm_opportunity_price", &p.BMOpportunityPrice},
		{"cm_clearing_price", &p.CMClearingPrice},
		{"derating_factor", &p.DeratingFactor},
	}
	for _, f := range fields {
		if *f.dst, err = num(f.name); err != nil {
			return p, err
		}
	}

	p.DUoSBand = strings.ToLower(get("duos_band"))
	p.Site = get("site")
	if s := get("fr_instruction"); s != "" {
		if p.FRInstruction, err = model.ParseAction(s); err != nil {
			return p, fmt.Errorf("fr_instruction: %w", err)
		}
	}
	if s := get("duration_minutes"); s != "" {
		if p.DurationMinutes, err = strconv.ParseFloat(s, 64); err != nil {
			return p, fmt.Errorf("duration_minutes: invalid %q", s)
		}
	}
	return p, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp: unrecognised format %q", s)
}

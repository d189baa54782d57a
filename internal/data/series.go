package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bess-dispatch/internal/model"
)

// LoadSeries reads a whole series from a .json or .csv file. All loading
// happens up front; the simulation never touches the file again.
func LoadSeries(path string) ([]model.SettlementPeriod, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		s, err := DecodeSeriesJSON(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return s, nil
	case ".csv":
		s, err := DecodeSeriesCSV(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%s: unsupported extension (want .json or .csv)", path)
	}
}

// Normalize sorts periods chronologically (stable for equal timestamps),
// fills a missing period index from the time of day and lower-cases DUoS
// bands.
func Normalize(series []model.SettlementPeriod) []model.SettlementPeriod {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Start.Before(series[j].Start)
	})
	for i := range series {
		p := &series[i]
		if p.Index == 0 && !p.Start.IsZero() {
			p.Index = (p.Start.Hour()*60+p.Start.Minute())/30 + 1
		}
		p.DUoSBand = strings.ToLower(strings.TrimSpace(p.DUoSBand))
	}
	return series
}

// GroupBySite splits a series into site-keyed slices, keeping order. Periods
// without a site are grouped under "".
func GroupBySite(series []model.SettlementPeriod) map[string][]model.SettlementPeriod {
	out := map[string][]model.SettlementPeriod{}
	for _, p := range series {
		out[p.Site] = append(out[p.Site], p)
	}
	return out
}

// Sites returns the site names in sorted order.
func Sites(groups map[string][]model.SettlementPeriod) []string {
	out := make([]string, 0, len(groups))
	for k := range groups {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

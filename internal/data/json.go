package data

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"bess-dispatch/internal/model"
)

// seriesEnvelope is the wrapped form {"data": [...]} used by upstream exports.
type seriesEnvelope struct {
	Data []model.SettlementPeriod `json:"data"`
}

// DecodeSeriesJSON reads either a bare array of periods or an object with a
// "data" array.
func DecodeSeriesJSON(r io.Reader) ([]model.SettlementPeriod, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	var series []model.SettlementPeriod
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &series); err != nil {
			return nil, fmt.Errorf("decode series: %w", err)
		}
	} else {
		var env seriesEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode series: %w", err)
		}
		series = env.Data
	}
	return Normalize(series), nil
}

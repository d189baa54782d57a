package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliConfig = `
battery:
  name: test
  power_mw: 2.5
  capacity_mwh: 5
  efficiency: 0.9
  soc_min: 0.25
  soc_max: 5
  initial_soc: 2.5
policy:
  name: greedy
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	// flag values outlive a single Execute
	simulateOpts.site, simulateOpts.policy, simulateOpts.ledger = "", "", ""
	simulateOpts.lookahead, simulateOpts.json, simulateOpts.windows = -1, false, false
	compareOpts.site, compareOpts.lookahead, compareOpts.json = "", -1, false
	err := rootCmd.Execute()
	return out.String(), err
}

// writeScenarioA writes a flat day with one negative-price trough and one
// export spike.
func writeScenarioA(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("timestamp,import_price,export_price\n")
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 48; i++ {
		imp, exp := 50.0, 50.0
		switch i {
		case 10:
			imp, exp = -20, -20
		case 30:
			exp = 150
		}
		fmt.Fprintf(&b, "%s,%g,%g\n", start.Add(time.Duration(i)*30*time.Minute).Format(time.RFC3339), imp, exp)
	}
	path := filepath.Join(dir, "scenario_a.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestSimulate_JSONAndLedger(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, cliConfig)
	series := writeScenarioA(t, dir)
	ledger := filepath.Join(dir, "out", "ledger.csv")

	out, err := execute(t, "simulate", "-c", cfg, "--series", series, "--ledger", ledger, "--json", "--windows")
	require.NoError(t, err)

	var payload struct {
		Summary struct {
			Policy    string  `json:"policy"`
			NetProfit float64 `json:"net_profit"`
			FinalSOC  float64 `json:"final_soc"`
		} `json:"summary"`
		ChargeWindows []json.RawMessage `json:"charge_windows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload), out)
	assert.Equal(t, "greedy", payload.Summary.Policy)
	assert.InDelta(t, 212.5, payload.Summary.NetProfit, 1e-9)
	assert.InDelta(t, 2.375, payload.Summary.FinalSOC, 1e-9)
	assert.Len(t, payload.ChargeWindows, 1)

	raw, err := os.ReadFile(ledger)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(raw)), "\n"), 49)
}

func TestCompare_Text(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "compare", "-c", writeConfig(t, dir, cliConfig), "--series", writeScenarioA(t, dir), "--lookahead", "48")
	require.NoError(t, err)
	assert.Contains(t, out, "greedy")
	assert.Contains(t, out, "optimized")
	assert.Contains(t, out, "pct_improvement")
}

func TestBatch_BySite(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "batch", "-c", writeConfig(t, dir, cliConfig), "--series", "../../examples/series/two_sites.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "harwich")
	assert.Contains(t, out, "grain")
	assert.NotContains(t, out, "error")
}

func TestProfile_RanksSites(t *testing.T) {
	out, err := execute(t, "profile", "--series", "../../examples/series/two_sites.csv")
	require.NoError(t, err)
	h, g := strings.Index(out, "harwich"), strings.Index(out, "grain")
	require.NotEqual(t, -1, h, out)
	require.NotEqual(t, -1, g, out)
	assert.Less(t, h, g, "the higher-spread site ranks first")
}

func TestSimulate_RequiresBattery(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "simulate", "-c", writeConfig(t, dir, "policy:\n  name: greedy\n"), "--series", writeScenarioA(t, dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no battery configured")
}

func TestSimulate_MultiSiteSeries(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, cliConfig)

	_, err := execute(t, "simulate", "-c", cfg, "--series", "../../examples/series/two_sites.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--site")

	_, err = execute(t, "compare", "-c", cfg, "--series", "../../examples/series/two_sites.csv", "--site", "dover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grain, harwich")

	out, err := execute(t, "simulate", "-c", cfg, "--series", "../../examples/series/two_sites.csv", "--site", "harwich", "--json")
	require.NoError(t, err)
	var payload struct {
		Summary struct {
			CoveredHours float64 `json:"covered_hours"`
			Periods      int     `json:"periods"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload), out)
	assert.Equal(t, 96, payload.Summary.Periods)
	assert.InDelta(t, 48.0, payload.Summary.CoveredHours, 1e-9)
}

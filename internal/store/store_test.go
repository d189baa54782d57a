package store

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bess-dispatch/internal/backtest"
	"bess-dispatch/internal/model"
	"bess-dispatch/internal/report"
	"bess-dispatch/internal/revenue"
	"bess-dispatch/internal/strategy"
)

var fixedNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func sampleRecord(t *testing.T) Record {
	t.Helper()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s := make([]model.SettlementPeriod, 48)
	for i := range s {
		s[i] = model.SettlementPeriod{
			Start:       start.Add(time.Duration(i) * model.SettlementPeriodDuration),
			Index:       i + 1,
			ImportPrice: model.Float(50),
			ExportPrice: model.Float(50),
		}
	}
	s[10].ImportPrice, s[10].ExportPrice = model.Float(-20), model.Float(-20)
	s[30].ExportPrice = model.Float(150)
	s[40].ImportPrice = model.Missing

	a := model.BatteryAsset{PowerMW: 2.5, CapacityMWh: 5, Efficiency: 0.9, SOCMinMWh: 0.25, SOCMaxMWh: 5, InitialSOCMWh: 2.5}
	res, err := backtest.New().Run(context.Background(), s, a, &strategy.GreedyStrategy{}, revenue.DefaultConfig())
	require.NoError(t, err)
	return Record{Summary: report.Aggregate(res), Ledger: res.Ledger}
}

func TestMemory_SaveGet(t *testing.T) {
	m := NewMemory(0, 0)
	defer m.Close()

	rec := sampleRecord(t)
	id, err := m.Save(context.Background(), rec)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := m.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, id, got.Summary.ID)
	assert.Len(t, got.Ledger, 48)
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_TTL(t *testing.T) {
	m := NewMemory(time.Hour, time.Hour)
	defer m.Close()
	now := fixedNow
	m.now = func() time.Time { return now }

	id, err := m.Save(context.Background(), Record{ID: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)

	now = now.Add(59 * time.Minute)
	_, err = m.Get(context.Background(), id)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)

	m.purge()
	m.mu.RLock()
	assert.Empty(t, m.store)
	m.mu.RUnlock()
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"), 0)
	require.NoError(t, err)
	defer s.Close()
	s.now = func() time.Time { return fixedNow }

	rec := sampleRecord(t)
	id, err := s.Save(context.Background(), rec)
	require.NoError(t, err)

	got, err := s.Get(context.Background(), id)
	require.NoError(t, err)

	want := rec
	want.ID = id
	want.CreatedAt = fixedNow
	want.Summary.ID = id
	assert.Equal(t, want, got)
	assert.False(t, got.Ledger[40].ImportPrice.Valid)
	assert.Equal(t, model.ActionCharge, got.Ledger[10].Action)

	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Save(context.Background(), Record{ID: id})
	assert.Error(t, err, "IDs are unique")
}

func TestSQLiteStore_Expiry(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"), time.Hour)
	require.NoError(t, err)
	defer s.Close()
	now := fixedNow
	s.now = func() time.Time { return now }

	id, err := s.Save(context.Background(), Record{})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = s.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := s.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

type countingPurger struct{ calls atomic.Int32 }

func (p *countingPurger) Purge(context.Context) (int64, error) {
	p.calls.Add(1)
	return 1, nil
}

func TestPurgeLoop(t *testing.T) {
	p := &countingPurger{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		PurgeLoop(ctx, p, 5*time.Millisecond, nil)
		close(done)
	}()

	assert.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PurgeLoop did not stop after cancel")
	}

	var _ Purger = (*SQLiteStore)(nil)
}

func TestOpen(t *testing.T) {
	st, err := Open("memory", "", 0)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)
	require.NoError(t, st.Close())

	st, err = Open("sqlite", filepath.Join(t.TempDir(), "r.db"), 0)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	require.NoError(t, st.Close())

	_, err = Open("redis", "", 0)
	assert.Error(t, err)
}

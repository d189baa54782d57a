// Package store keeps completed scenario results so they can be fetched by
// ID after the request that produced them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"bess-dispatch/internal/backtest"
	"bess-dispatch/internal/report"
)

var ErrNotFound = errors.New("result not found")

// Record is one stored run. Records are written whole and never updated.
type Record struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	Summary   report.ScenarioResult `json:"summary"`
	Ledger    []backtest.LedgerRow  `json:"ledger,omitempty"`
}

// Store persists records. Implementations are safe for concurrent use.
type Store interface {
	// Save stores rec and returns its ID, assigning one when rec.ID is empty.
	Save(ctx context.Context, rec Record) (string, error)
	// Get returns ErrNotFound for unknown or expired IDs.
	Get(ctx context.Context, id string) (Record, error)
	Close() error
}

// NewID returns a fresh result ID.
func NewID() string { return uuid.NewString() }

func prepare(rec Record, now time.Time) Record {
	if rec.ID == "" {
		rec.ID = NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.Summary.ID = rec.ID
	return rec
}

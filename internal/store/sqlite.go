package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"bess-dispatch/internal/logger"
)

// SQLiteStore persists records in a SQLite database. Summary and ledger are
// stored as JSON; the scalar columns exist for ad hoc querying.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// database/sql pools connections; a single writer avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	schema := `CREATE TABLE IF NOT EXISTS scenario_results (
        id TEXT PRIMARY KEY,
        created_at INTEGER NOT NULL,
        expires_at INTEGER NOT NULL,
        policy TEXT NOT NULL,
        net_profit REAL NOT NULL,
        summary TEXT NOT NULL,
        ledger TEXT NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec Record) (string, error) {
	now := s.now()
	rec = prepare(rec, now)

	summary, err := json.Marshal(rec.Summary)
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	ledger, err := json.Marshal(rec.Ledger)
	if err != nil {
		return "", fmt.Errorf("encode ledger: %w", err)
	}
	var expires int64
	if s.ttl > 0 {
		expires = now.Add(s.ttl).UnixNano()
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO scenario_results
        (id, created_at, expires_at, policy, net_profit, summary, ledger)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UnixNano(), expires, rec.Summary.Policy, rec.Summary.NetProfit, string(summary), string(ledger))
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, error) {
	var created int64
	var summary, ledger string
	err := s.db.QueryRowContext(ctx, `SELECT created_at, summary, ledger
        FROM scenario_results WHERE id = ? AND (expires_at = 0 OR expires_at > ?)`,
		id, s.now().UnixNano()).Scan(&created, &summary, &ledger)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}

	rec := Record{ID: id, CreatedAt: time.Unix(0, created).UTC()}
	if err := json.Unmarshal([]byte(summary), &rec.Summary); err != nil {
		return Record{}, fmt.Errorf("decode summary: %w", err)
	}
	if err := json.Unmarshal([]byte(ledger), &rec.Ledger); err != nil {
		return Record{}, fmt.Errorf("decode ledger: %w", err)
	}
	return rec, nil
}

// Purge deletes expired rows and returns how many were removed.
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenario_results WHERE expires_at != 0 AND expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Purger is implemented by stores whose expired records are only removed
// when asked.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// PurgeLoop calls p.Purge every interval until ctx is done.
func PurgeLoop(ctx context.Context, p Purger, every time.Duration, log logger.Logger) {
	if log == nil {
		log = logger.NopLogger{}
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.Purge(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Warnf("purge expired results: %v", err)
				}
				continue
			}
			if n > 0 {
				log.Debugf("purged %d expired results", n)
			}
		}
	}
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

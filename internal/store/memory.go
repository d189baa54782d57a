package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

// Memory keeps records in process for a fixed TTL. A zero TTL keeps them
// until Close.
type Memory struct {
	mu    sync.RWMutex
	store map[string]*memoryEntry
	ttl   time.Duration
	now   func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewMemory creates a store and, when ttl > 0, starts a goroutine that
// removes expired records every cleanupEvery (default 5 minutes).
func NewMemory(ttl, cleanupEvery time.Duration) *Memory {
	m := &Memory{
		store: make(map[string]*memoryEntry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if ttl > 0 {
		if cleanupEvery <= 0 {
			cleanupEvery = 5 * time.Minute
		}
		go m.cleanup(cleanupEvery)
	}
	return m
}

func (m *Memory) Save(_ context.Context, rec Record) (string, error) {
	now := m.now()
	rec = prepare(rec, now)

	m.mu.Lock()
	defer m.mu.Unlock()

	e := &memoryEntry{rec: rec}
	if m.ttl > 0 {
		e.expiresAt = now.Add(m.ttl)
	}
	m.store[rec.ID] = e
	return rec.ID, nil
}

func (m *Memory) Get(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.store[id]
	if !ok || m.expired(e, m.now()) {
		return Record{}, ErrNotFound
	}
	return e.rec, nil
}

// Len returns the number of live records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	now := m.now()
	for _, e := range m.store {
		if !m.expired(e, now) {
			n++
		}
	}
	return n
}

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	m.mu.Lock()
	m.store = make(map[string]*memoryEntry)
	m.mu.Unlock()
	return nil
}

func (m *Memory) expired(e *memoryEntry, now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// purge removes expired entries.
func (m *Memory) purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, e := range m.store {
		if m.expired(e, now) {
			delete(m.store, key)
		}
	}
}

// cleanup periodically removes expired entries
func (m *Memory) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.purge()
		case <-m.stop:
			return
		}
	}
}

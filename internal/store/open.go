package store

import (
	"fmt"
	"time"
)

// Open builds the store selected by backend ("memory" or "sqlite").
func Open(backend, path string, ttl time.Duration) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemory(ttl, 0), nil
	case "sqlite":
		return NewSQLiteStore(path, ttl)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", backend)
	}
}

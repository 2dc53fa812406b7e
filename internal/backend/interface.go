package backend

import (
	"context"

	"taxis/internal/core"
	"taxis/internal/trips"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result holds the record store and its optional cleanup function.
type Result struct {
	Store   trips.Store
	Cleanup CleanupFunc
}

// Factory creates record stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	Columns   core.Columns
	Delimiter rune

	// SQLite specific
	SQLiteDBPath string
}

// BackendType names where the loaded snapshot is kept.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

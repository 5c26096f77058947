package backend

import (
	"context"

	"finboard/internal/store"
)

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result carries the constructed store and its optional cleanup.
type Result struct {
	Store   store.TableStore
	Cleanup CleanupFunc
}

// Factory builds a table store from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, cfg Config) (*Result, error)
}

// Config holds the settings for backend construction.
type Config struct {
	Type Type

	// PostgREST backend
	StoreURL string
	StoreKey string

	// SQLite backend
	SQLiteDBPath string
}

// Type selects the table-store implementation.
type Type string

const (
	PostgRESTBackend Type = "postgrest"
	SQLiteBackend    Type = "sqlite"
	MemoryBackend    Type = "memory"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case PostgRESTBackend, SQLiteBackend, MemoryBackend:
		return true
	}
	return false
}

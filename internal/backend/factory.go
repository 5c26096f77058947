// Package backend selects and constructs the table-store implementation
// from configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/store/memory"
	"finboard/internal/store/postgrest"
	"finboard/internal/store/sqlite"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*Result, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	switch cfg.Type {
	case PostgRESTBackend:
		return f.createPostgRESTBackend(cfg)
	case SQLiteBackend:
		return f.createSQLiteBackend(cfg)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func (f *DefaultFactory) createPostgRESTBackend(cfg Config) (*Result, error) {
	client, err := postgrest.New(postgrest.Config{
		BaseURL: cfg.StoreURL,
		APIKey:  cfg.StoreKey,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize postgrest store: %w", err)
	}

	f.logger.Info("Initialized PostgREST backend", "url", cfg.StoreURL)
	return &Result{Store: client, Cleanup: client.Close}, nil
}

func (f *DefaultFactory) createSQLiteBackend(cfg Config) (*Result, error) {
	st, err := sqlite.New(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &Result{Store: st, Cleanup: st.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*Result, error) {
	f.logger.Info("Initialized memory backend")
	return &Result{Store: memory.New(), Cleanup: nil}, nil
}

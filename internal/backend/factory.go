package backend

import (
	"context"
	"fmt"

	"expensetracker/internal/log"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/memory"
)

// Create opens the store selected by cfg. SQLite failures wrap
// storage.ErrStoreUnavailable.
func Create(ctx context.Context, logger *log.Logger, cfg Config) (Store, error) {
	if logger == nil {
		logger = log.ForComponent(log.ComponentStorage)
	}

	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(ctx, cfg.SQLiteDBPath)
		if err != nil {
			return nil, err
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		logger.Warn("Initialized memory backend, expenses will not survive a restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported backend type %q", storage.ErrStoreUnavailable, cfg.Type)
	}
}

package sources

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/citruscircuits/grosbeak/internal/config"
	"github.com/citruscircuits/grosbeak/internal/db"
)

// NewStore creates the store selected by the storage configuration. The
// caller owns the store and must Close it.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	storageType := cfg.GetStorageType()
	slog.Info("Creating record store", "type", storageType)

	switch storageType {
	case config.StorageTypeFile:
		return NewFileStore(cfg.GetFileStorageDir())
	case config.StorageTypeMemory:
		return NewMemoryStore(), nil
	case config.StorageTypeSQLite:
		if cfg.Storage.SQLite == nil {
			return nil, fmt.Errorf("storage.sqlite is required for sqlite storage")
		}
		return OpenSQLite(ctx, cfg.Storage.SQLite.Path, cfg.Storage.SQLite.GetBusyTimeout())
	case config.StorageTypePostgres:
		pool, err := db.NewPool(ctx, cfg.Storage.Database)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(pool)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

package store

import (
	"context"
	"fmt"
	"io"

	"sitesketch/internal/config"
	"sitesketch/internal/persist"
)

// Backend is a document store that holds a connection.
type Backend interface {
	persist.DocumentStore
	io.Closer
}

// Migrator is implemented by backends that need a schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Open returns the backend selected by cfg.Store. SQL backends are migrated
// before they are returned.
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.Store {
	case config.StoreSQLite, "":
		b, err = OpenSQLite(ctx, cfg.SQLitePath)
	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("open store: DATABASE_URL is required for %s", cfg.Store)
		}
		b, err = OpenPostgres(ctx, cfg.DatabaseURL)
	case config.StoreRedis:
		b, err = NewRedisStore(ctx, cfg.RedisURL)
	case config.StoreFile:
		b, err = NewFileStore(cfg.FileDir)
	default:
		return nil, fmt.Errorf("open store: unknown backend %q", cfg.Store)
	}
	if err != nil {
		return nil, err
	}

	if m, ok := b.(Migrator); ok {
		if err := m.Migrate(ctx); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}

package snapshot

import (
	"context"
	"fmt"

	"github.com/angelmondragon/rocketcart/pkg/config"
	"github.com/angelmondragon/rocketcart/pkg/db"
	"github.com/angelmondragon/rocketcart/pkg/logger"
	"github.com/angelmondragon/rocketcart/pkg/migrate"
	pkgredis "github.com/angelmondragon/rocketcart/pkg/redis"
)

// CloseFunc releases the connections opened for a backend.
type CloseFunc func() error

func noopClose() error { return nil }

// Open builds the snapshot store for the configured storage driver.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Store, CloseFunc, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	backend, closeFn, err := openBackend(ctx, cfg, logg)
	if err != nil {
		return nil, nil, err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"storage_driver": cfg.Storage.Driver,
		"snapshot_key":   cfg.Storage.Key,
	}), "snapshot store ready")
	return NewStore(backend, cfg.Storage.Key, logg), closeFn, nil
}

func openBackend(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Backend, CloseFunc, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverFile:
		backend, err := NewFileBackend(cfg.Storage.FileDir)
		if err != nil {
			return nil, nil, err
		}
		return backend, noopClose, nil

	case config.StorageDriverMemory:
		return NewMemoryBackend(), noopClose, nil

	case config.StorageDriverRedis:
		client, err := pkgredis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return NewRedisBackend(client), client.Close, nil

	case config.StorageDriverSQL:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if err := migrate.MaybeRun(ctx, cfg.DB, logg, client); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return NewSQLBackend(client), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// Package backend открывает хранилище, выбранное в конфигурации.
package backend

import (
	"context"
	"errors"
	"fmt"

	"garden-app/internal/config"
	"garden-app/internal/database"
	"garden-app/internal/storage"
	"garden-app/internal/storage/file"
	"garden-app/internal/storage/memory"
	pgstore "garden-app/internal/storage/postgres"
	redisstore "garden-app/internal/storage/redis"
	"garden-app/pkg/logger"
)

// Open создаёт хранилище по cfg.Storage.Driver и проверяет его доступность.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (storage.Store, error) {
	var store storage.Store

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		store = memory.New()
	case config.StorageFile:
		store = file.New(cfg.Storage.FilePath)
	case config.StorageRedis:
		store = redisstore.New(cfg.Storage.RedisAddr, cfg.Storage.RedisDB, cfg.Storage.RedisPrefix)
	case config.StoragePostgres:
		if cfg.Database.AutoMigrate {
			if err := migrate(&cfg.Database, log); err != nil {
				return nil, err
			}
		}
		db, err := database.NewConnection(&cfg.Database, cfg.AppEnv, log)
		if err != nil {
			return nil, err
		}
		store = pgstore.New(db)
	default:
		return nil, fmt.Errorf("неизвестный драйвер хранилища: %q", cfg.Storage.Driver)
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("хранилище %s недоступно: %w", cfg.Storage.Driver, err)
	}

	log.Info("storage opened", map[string]any{"driver": cfg.Storage.Driver})
	return store, nil
}

// migrate приводит схему local_storage к последней версии.
func migrate(cfg *config.DatabaseConfig, log logger.Logger) error {
	m, err := database.NewMigratorFromConfig(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Error("close migrator", map[string]any{"err": err})
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, database.ErrNoChange) {
		return err
	}
	return nil
}

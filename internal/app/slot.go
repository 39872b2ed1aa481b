package app

import (
	"context"
	"fmt"
	"time"

	"bucketList/internal/codec"
	"bucketList/internal/config"
	"bucketList/internal/logger"
	"bucketList/internal/repository/slot/file"
	"bucketList/internal/repository/slot/inmemory"
	"bucketList/internal/repository/slot/postgres"
	redisslot "bucketList/internal/repository/slot/redis"
	"bucketList/internal/repository/slot/sqlite"
	"bucketList/internal/service"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// OpenSlot открывает слот выбранного типа. Сетевые хранилища могут
// подниматься позже приложения, поэтому подключение повторяется до connect_timeout.
func OpenSlot(ctx context.Context, cfg config.StorageConfig) (service.SlotRepository, error) {
	logger.Info("App: Открытие слота",
		zap.String("type", cfg.Type),
		zap.String("key", cfg.Key))

	switch cfg.Type {
	case config.StorageInMemory:
		return inmemory.NewSlotStorage(cfg.Key), nil

	case config.StorageFile:
		return file.New(afero.NewOsFs(), cfg.File.Path)

	case config.StorageSQLite:
		return sqlite.Open(ctx, cfg.SQLite.Path, cfg.Key)

	case config.StoragePostgres:
		return connect(ctx, cfg.ConnectTimeout, "postgres", func() (service.SlotRepository, error) {
			if err := postgres.Migrate(cfg.Postgres.URL); err != nil {
				return nil, err
			}
			return postgres.New(ctx, cfg.Postgres.URL, cfg.Key, postgres.Options{
				MaxConns:        cfg.Postgres.MaxConnections,
				MinConns:        cfg.Postgres.MinConnections,
				MaxConnIdleTime: cfg.Postgres.IdleTimeout,
			})
		})

	case config.StorageRedis:
		return connect(ctx, cfg.ConnectTimeout, "redis", func() (service.SlotRepository, error) {
			return redisslot.New(ctx, &redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			}, cfg.Key)
		})

	default:
		return nil, fmt.Errorf("неизвестный тип хранилища %q", cfg.Type)
	}
}

func connect(ctx context.Context, timeout time.Duration, name string, open func() (service.SlotRepository, error)) (service.SlotRepository, error) {
	// без таймаута одна попытка, иначе RetryWithData крутится до отмены ctx
	var b backoff.BackOff = &backoff.StopBackOff{}
	if timeout > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.MaxElapsedTime = timeout
		b = exp
	}

	attempt := 0
	operation := func() (service.SlotRepository, error) {
		attempt++
		slot, err := open()
		if err != nil {
			logger.Warn("App: Хранилище недоступно",
				zap.String("backend", name),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return nil, err
		}
		return slot, nil
	}

	slot, err := backoff.RetryWithData(operation, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, fmt.Errorf("подключение к %s: %w", name, err)
	}
	return slot, nil
}

// OpenStore открывает слот и создаёт поверх него хранилище целей
func OpenStore(ctx context.Context, cfg config.StorageConfig) (*service.ItemStore, service.SlotRepository, error) {
	c, err := codec.ByName(cfg.Codec)
	if err != nil {
		return nil, nil, err
	}

	slot, err := OpenSlot(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	return service.NewItemStore(slot, service.WithCodec(c)), slot, nil
}

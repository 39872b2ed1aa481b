package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bucketList/internal/logger"
	repo "bucketList/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Storage хранит слот как одну строку в Redis, рядом держит счётчик записей
type Storage struct {
	client *redis.Client
	key    string
}

func New(ctx context.Context, opts *redis.Options, key string) (*Storage, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Error("Repository: Неудачная проверка ping", err, zap.String("addr", opts.Addr))
		return nil, fmt.Errorf("could not connect to redis (%s): %w", opts.Addr, err)
	}

	logger.Info("Repository: Подключение к Redis", zap.String("addr", opts.Addr), zap.String("slot", key))
	return NewWithClient(client, key), nil
}

func NewWithClient(client *redis.Client, key string) *Storage {
	return &Storage{client: client, key: key}
}

func (s *Storage) versionKey() string {
	return fmt.Sprintf("%s:version", s.key)
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Read(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repo.ErrSlotEmpty
		}
		if errors.Is(err, redis.ErrClosed) {
			return nil, repo.ErrSlotClosed
		}
		return nil, fmt.Errorf("чтение слота: %w", err)
	}
	return data, nil
}

func (s *Storage) Write(ctx context.Context, value []byte) error {
	start := time.Now()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key, value, 0)
	pipe.Incr(ctx, s.versionKey())
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return repo.ErrSlotClosed
		}
		logger.Error("Repository: Не удалось записать слот", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("запись слота: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Version(ctx context.Context) (int64, error) {
	version, err := s.client.Get(ctx, s.versionKey()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("чтение версии: %w", err)
	}
	return version, nil
}

func (s *Storage) Close() error {
	logger.Info("Repository: Закрытие соединения Redis")
	return s.client.Close()
}

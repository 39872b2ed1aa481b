package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bucketList/internal/logger"
	repo "bucketList/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Options struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

type Storage struct {
	pool *pgxpool.Pool
	key  string
}

func New(ctx context.Context, connString, key string, opts Options) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 && opts.MinConns <= config.MaxConns {
		config.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL", zap.String("slot", key))
	return &Storage{pool: pool, key: key}, nil
}

func (s *Storage) Close() error {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Read(ctx context.Context) ([]byte, error) {
	start := time.Now()

	query := `SELECT value
				FROM slots
				WHERE key = $1`

	var value []byte
	err := s.pool.QueryRow(ctx, query, s.key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrSlotEmpty
		}
		logger.Error("Repository: Не удалось прочитать слот", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("чтение слота: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return value, nil
}

// Write перезаписывает слот целиком, version растёт с каждой записью
func (s *Storage) Write(ctx context.Context, value []byte) error {
	start := time.Now()

	query := `INSERT INTO slots (key, value, version, updated_at)
				VALUES ($1, $2, 1, NOW())
			ON CONFLICT (key) DO UPDATE
				SET value = EXCLUDED.value,
				version = slots.version + 1,
				updated_at = NOW()`

	_, err := s.pool.Exec(ctx, query, s.key, value)
	if err != nil {
		logger.Error("Repository: Не удалось записать слот", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("запись слота: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Version(ctx context.Context) (int64, error) {
	var version int64
	err := s.pool.QueryRow(ctx, `SELECT version FROM slots WHERE key = $1`, s.key).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("чтение версии: %w", err)
	}
	return version, nil
}

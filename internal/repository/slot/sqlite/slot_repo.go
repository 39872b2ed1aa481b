package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"bucketList/internal/logger"
	repo "bucketList/internal/repository"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

type Storage struct {
	db  *sql.DB
	key string

	// mtx защищает closed; операции берут RLock, Close - Lock
	mtx    sync.RWMutex
	closed bool
}

func Open(ctx context.Context, path, key string) (*Storage, error) {
	if path == "" {
		return nil, errors.New("путь к базе sqlite не задан")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("открытие sqlite %s: %w", path, err)
	}
	// одна запись за раз, sqlite не любит параллельных писателей
	db.SetMaxOpenConns(1)

	if err := applySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Repository: Слот sqlite открыт", zap.String("path", path), zap.String("slot", key))
	return &Storage{db: db, key: key}, nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.closed {
		return repo.ErrSlotClosed
	}

	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Read(ctx context.Context) ([]byte, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.closed {
		return nil, repo.ErrSlotClosed
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, s.key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrSlotEmpty
		}
		return nil, fmt.Errorf("чтение слота: %w", err)
	}
	return value, nil
}

func (s *Storage) Write(ctx context.Context, value []byte) error {
	start := time.Now()

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.closed {
		return repo.ErrSlotClosed
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO slots (key, value, version, updated_at)
			VALUES (?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			version = slots.version + 1,
			updated_at = CURRENT_TIMESTAMP`,
		s.key, value,
	)
	if err != nil {
		logger.Error("Repository: Не удалось записать слот", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("запись слота: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// Version возвращает число перезаписей слота
func (s *Storage) Version(ctx context.Context) (int64, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.closed {
		return 0, repo.ErrSlotClosed
	}

	var version int64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM slots WHERE key = ?`, s.key).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("чтение версии: %w", err)
	}
	return version, nil
}

func (s *Storage) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	logger.Info("Repository: Закрытие sqlite")
	return s.db.Close()
}

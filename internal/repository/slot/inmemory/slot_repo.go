package inmemory

import (
	"context"
	"sync"

	"bucketList/internal/logger"
	repo "bucketList/internal/repository"

	"go.uber.org/zap"
)

// SlotStorage держит значения слотов в памяти процесса.
// Данные теряются при перезапуске, подходит для тестов и демо.
type SlotStorage struct {
	key     string
	storage map[string][]byte
	mtx     *sync.RWMutex
	closed  bool
}

func NewSlotStorage(key string) *SlotStorage {
	return &SlotStorage{
		key:     key,
		storage: make(map[string][]byte),
		mtx:     &sync.RWMutex{},
	}
}

func (s *SlotStorage) HealthCheck(ctx context.Context) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.closed {
		return repo.ErrSlotClosed
	}
	logger.Debug("Repository: Соединение стабильно", zap.String("slot", s.key))
	return nil
}

func (s *SlotStorage) Read(ctx context.Context) ([]byte, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.closed {
		return nil, repo.ErrSlotClosed
	}

	value, ok := s.storage[s.key]
	if !ok {
		return nil, repo.ErrSlotEmpty
	}

	res := make([]byte, len(value))
	copy(res, value)
	return res, nil
}

func (s *SlotStorage) Write(ctx context.Context, value []byte) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return repo.ErrSlotClosed
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.storage[s.key] = stored
	return nil
}

func (s *SlotStorage) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.closed = true
	return nil
}

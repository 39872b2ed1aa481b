package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bucketList/internal/codec"
	"bucketList/internal/logger"
	"bucketList/internal/models/bucket"
	repo "bucketList/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь живёт список целей и его синхронизация со слотом

type State int

const (
	StateLoading State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "loading"
}

// Snapshot - копия списка на момент чтения, её можно свободно фильтровать
type Snapshot struct {
	Items     []bucket.Item
	IsLoading bool
}

func (s Snapshot) Active() []bucket.Item {
	return bucket.Active(s.Items)
}

func (s Snapshot) Completed() []bucket.Item {
	return bucket.Completed(s.Items)
}

type ItemStore struct {
	slot  SlotRepository
	codec codec.Codec
	now   func() time.Time
	newID func() string

	loadMtx sync.Mutex

	mtx   sync.RWMutex
	items []bucket.Item
	state State
	seq   uint64 // номер последнего изменения
	ready chan struct{}

	// saveMtx упорядочивает записи в слот; savedSeq и lastErr под ним
	saveMtx  sync.Mutex
	savedSeq uint64
	lastErr  error
}

type StoreOption func(*ItemStore)

func WithCodec(c codec.Codec) StoreOption {
	return func(s *ItemStore) {
		if c != nil {
			s.codec = c
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *ItemStore) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) StoreOption {
	return func(s *ItemStore) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func NewItemStore(slot SlotRepository, options ...StoreOption) *ItemStore {
	s := &ItemStore{
		slot:  slot,
		codec: codec.JSON{},
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
		items: []bucket.Item{},
		state: StateLoading,
		ready: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Load читает слот один раз. Пустой слот, ошибка чтения или испорченные
// данные дают пустой список. Повторный вызов после готовности ничего не делает.
func (s *ItemStore) Load(ctx context.Context) error {
	s.loadMtx.Lock()
	defer s.loadMtx.Unlock()

	if s.State() == StateReady {
		return nil
	}

	start := time.Now()
	items := []bucket.Item{}

	raw, err := s.slot.Read(ctx)
	switch {
	case err == nil:
		decoded, decodeErr := s.codec.Decode(raw)
		if decodeErr != nil {
			logger.Warn("Service: Сохранённый список испорчен, начинаем с пустого",
				zap.Error(decodeErr),
				zap.Int("bytes", len(raw)))
			break
		}
		items = decoded
	case errors.Is(err, repo.ErrSlotEmpty):
		logger.Info("Service: Слот пуст, начинаем с пустого списка")
	case ctx.Err() != nil:
		// загрузку прервали: остаёмся в Loading, иначе следующая запись затрёт данные
		return fmt.Errorf("загрузка списка: %w", ctx.Err())
	default:
		logger.Warn("Service: Не удалось прочитать слот, начинаем с пустого списка", zap.Error(err))
	}

	s.mtx.Lock()
	s.items = items
	s.state = StateReady
	close(s.ready)
	s.mtx.Unlock()

	logger.Info("Service: Список загружен",
		zap.Int("items", len(items)),
		zap.Duration("ms", time.Since(start)))
	return nil
}

func (s *ItemStore) State() State {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.state
}

func (s *ItemStore) IsLoading() bool {
	return s.State() == StateLoading
}

// Ready закрывается при переходе в StateReady
func (s *ItemStore) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady нужен тем, кто хочет дождаться загрузки вместо отказа STORE_LOADING
func (s *ItemStore) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ItemStore) Snapshot() Snapshot {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	items := make([]bucket.Item, len(s.items))
	for ind, item := range s.items {
		items[ind] = item.Clone()
	}
	return Snapshot{
		Items:     items,
		IsLoading: s.state == StateLoading,
	}
}

func (s *ItemStore) Items() []bucket.Item {
	return s.Snapshot().Items
}

func (s *ItemStore) Active() []bucket.Item {
	return s.Snapshot().Active()
}

func (s *ItemStore) Completed() []bucket.Item {
	return s.Snapshot().Completed()
}

func (s *ItemStore) Get(ctx context.Context, id string) (bucket.Item, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	ind, ok := bucket.Find(s.items, id)
	if !ok {
		logger.Info("Service: Элемент не найден", zap.String("target_id", id))
		return bucket.Item{}, NewNotFound(id)
	}
	return s.items[ind].Clone(), nil
}

// Add добавляет цель в конец списка и сохраняет список целиком.
// Ошибка PERSIST_FAILED возвращается вместе с уже добавленной целью.
func (s *ItemStore) Add(ctx context.Context, title string, options ...bucket.ItemOption) (bucket.Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return bucket.Item{}, NewValidationError("title", "название не может быть пустым")
	}

	s.mtx.Lock()
	if s.state != StateReady {
		s.mtx.Unlock()
		return bucket.Item{}, NewLoadingError()
	}

	id := s.newID()
	for {
		if _, taken := bucket.Find(s.items, id); !taken {
			break
		}
		id = s.newID()
	}

	item := bucket.New(id, title, s.now(), options...)
	s.items = append(s.items, item)
	s.seq++
	s.mtx.Unlock()

	logger.Info("Service: Элемент добавлен", zap.String("id", item.ID))

	if err := s.persist(ctx); err != nil {
		return item.Clone(), NewPersistError(err)
	}
	return item.Clone(), nil
}

// ToggleComplete переключает выполнение. Неизвестный id - не ошибка, found = false.
func (s *ItemStore) ToggleComplete(ctx context.Context, id string) (item bucket.Item, found bool, err error) {
	s.mtx.Lock()
	if s.state != StateReady {
		s.mtx.Unlock()
		return bucket.Item{}, false, NewLoadingError()
	}

	ind, ok := bucket.Find(s.items, id)
	if ok {
		s.items[ind].Toggle(s.now())
		item = s.items[ind].Clone()
		s.seq++
	}
	s.mtx.Unlock()

	if ok {
		logger.Info("Service: Элемент переключён",
			zap.String("id", id),
			zap.Bool("completed", item.Completed))
	} else {
		logger.Debug("Service: Переключение несуществующего элемента", zap.String("target_id", id))
	}

	// запись и для no-op: так подтягивается ранее не сохранённое состояние
	if err := s.persist(ctx); err != nil {
		return item, ok, NewPersistError(err)
	}
	return item, ok, nil
}

// DeleteItem удаляет цель. Повторное удаление - не ошибка, removed = false.
func (s *ItemStore) DeleteItem(ctx context.Context, id string) (removed bool, err error) {
	s.mtx.Lock()
	if s.state != StateReady {
		s.mtx.Unlock()
		return false, NewLoadingError()
	}

	ind, ok := bucket.Find(s.items, id)
	if ok {
		s.items = append(s.items[:ind], s.items[ind+1:]...)
		s.seq++
	}
	s.mtx.Unlock()

	if ok {
		logger.Info("Service: Элемент удалён", zap.String("id", id))
	}

	if err := s.persist(ctx); err != nil {
		return ok, NewPersistError(err)
	}
	return ok, nil
}

// Dirty: в памяти есть изменения, которых нет в слоте
func (s *ItemStore) Dirty() bool {
	s.saveMtx.Lock()
	saved := s.savedSeq
	s.saveMtx.Unlock()

	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.seq > saved
}

func (s *ItemStore) LastSaveError() error {
	s.saveMtx.Lock()
	defer s.saveMtx.Unlock()
	return s.lastErr
}

// Status - состояние синхронизации для /health.
// SlotVersion = -1, если слот не ведёт версию или её не удалось прочитать.
type Status struct {
	Items         int
	Dirty         bool
	LastSaveError error
	SlotVersion   int64
}

func (s *ItemStore) Status(ctx context.Context) Status {
	st := Status{
		Dirty:         s.Dirty(),
		LastSaveError: s.LastSaveError(),
		SlotVersion:   -1,
	}

	s.mtx.RLock()
	st.Items = len(s.items)
	s.mtx.RUnlock()

	if v, ok := s.slot.(SlotVersioner); ok {
		version, err := v.Version(ctx)
		if err != nil {
			logger.Warn("Service: Не удалось прочитать версию слота", zap.Error(err))
		} else {
			st.SlotVersion = version
		}
	}
	return st
}

// Flush повторяет запись текущего состояния, если оно не сохранено
func (s *ItemStore) Flush(ctx context.Context) error {
	if s.IsLoading() {
		return nil
	}
	return s.persist(ctx)
}

func (s *ItemStore) HealthCheck(ctx context.Context) error {
	if err := s.slot.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// persist пишет в слот текущее состояние, а не снимок вызвавшей операции.
// Записи идут по одной; запись уже покрытая более новой пропускается.
func (s *ItemStore) persist(ctx context.Context) error {
	s.saveMtx.Lock()
	defer s.saveMtx.Unlock()

	start := time.Now()

	s.mtx.RLock()
	seq := s.seq
	if seq <= s.savedSeq {
		s.mtx.RUnlock()
		return nil
	}
	payload, err := s.codec.Encode(s.items)
	s.mtx.RUnlock()

	if err != nil {
		s.lastErr = err
		logger.Error("Service: Не удалось сериализовать список", err)
		return fmt.Errorf("сериализация списка: %w", err)
	}

	if err := s.slot.Write(ctx, payload); err != nil {
		s.lastErr = err
		logger.Error("Service: Не удалось сохранить список", err,
			zap.Uint64("seq", seq),
			zap.Uint64("saved_seq", s.savedSeq))
		return fmt.Errorf("сохранение списка: %w", err)
	}

	s.savedSeq = seq
	s.lastErr = nil
	logger.Debug("Service: Список сохранён",
		zap.Uint64("seq", seq),
		zap.Int("bytes", len(payload)),
		zap.Duration("ms", time.Since(start)))
	return nil
}

package worker

import (
	"context"
	"fmt"
	"time"

	"bucketList/internal/logger"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type Flusher interface {
	IsLoading() bool
	Dirty() bool
	Flush(context.Context) error
}

// SyncWorker дописывает в слот состояние, которое не удалось сохранить
// при изменении. Ошибки записи не фатальны, поэтому повтор идёт в фоне.
type SyncWorker struct {
	store    Flusher
	interval time.Duration
}

func NewSyncWorker(store Flusher, interval *time.Duration) *SyncWorker {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = 30 * time.Second
	} else {
		intervalToSet = *interval
	}

	return &SyncWorker{
		store:    store,
		interval: intervalToSet,
	}
}

func (w *SyncWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Фоновая синхронизация запущена", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ticker.C:
			if err := w.Check(ctx); err != nil {
				logger.Warn("Worker: Синхронизация не удалась", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("Worker: Фоновая синхронизация останавливается")
			return
		}
	}
}

// Check сохраняет список, если в памяти есть несохранённые изменения.
// Попытки идут с экспоненциальной задержкой не дольше интервала воркера.
func (w *SyncWorker) Check(ctx context.Context) error {
	if w.store.IsLoading() || !w.store.Dirty() {
		return nil
	}

	start := time.Now()
	attempts := 0

	operation := func() error {
		attempts++
		return w.store.Flush(ctx)
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("Worker: Повтор сохранения",
			zap.Error(err),
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(w.backOff(), ctx), notify); err != nil {
		return fmt.Errorf("сохранение списка после %d попыток: %w", attempts, err)
	}

	logger.Info("Worker: Несохранённые изменения записаны",
		zap.Int("attempts", attempts),
		zap.Duration("ms", time.Since(start)))
	return nil
}

func (w *SyncWorker) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.interval / 20
	if b.InitialInterval > time.Second {
		b.InitialInterval = time.Second
	}
	b.MaxInterval = w.interval / 4
	b.MaxElapsedTime = w.interval
	return b
}

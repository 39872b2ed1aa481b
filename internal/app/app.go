package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"bucketList/internal/config"
	"bucketList/internal/handlers"
	"bucketList/internal/logger"
	"bucketList/internal/service"
	"bucketList/internal/worker"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config *config.Config
	server *http.Server
	slot   service.SlotRepository // интерфейс!
	store  *service.ItemStore
	worker *worker.SyncWorker
}

func New(cfg *config.Config) *App {
	return &App{
		config: cfg,
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	store, slot, err := OpenStore(ctx, a.config.Storage)
	if err != nil {
		return fmt.Errorf("инициализация хранилища: %w", err)
	}
	a.store = store
	a.slot = slot

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      handlers.NewRouter(store, a.config.HTTP),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	if a.config.Worker.Enabled {
		a.worker = worker.NewSyncWorker(store, &a.config.Worker.Interval)
	}

	logger.Info("App: Приложение инициализировано",
		zap.String("addr", a.server.Addr),
		zap.String("storage", a.config.Storage.Type),
		zap.Bool("worker", a.worker != nil))
	return nil
}

func (a *App) Store() *service.ItemStore {
	return a.store
}

// Run загружает список в фоне, пока сервер уже отвечает: до конца загрузки
// чтение отдаёт is_loading, а изменения получают STORE_LOADING.
// Возвращается после отмены ctx и завершения Shutdown.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := a.store.Load(gctx); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			a.worker.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown останавливает сервер, дописывает несохранённое и закрывает слот
func (a *App) Shutdown(ctx context.Context) error {
	logger.Info("App: Завершение работы...")

	var err error
	if a.server != nil {
		err = multierr.Append(err, a.server.Shutdown(ctx))
	}
	if a.store != nil {
		if flushErr := a.store.Flush(ctx); flushErr != nil {
			err = multierr.Append(err, fmt.Errorf("сохранение перед выходом: %w", flushErr))
		}
	}
	if a.slot != nil {
		err = multierr.Append(err, a.slot.Close())
	}

	if err != nil {
		logger.Error("App: Ошибки при завершении", err,
			zap.Int("errors", len(multierr.Errors(err))))
	} else {
		logger.Info("App: Работа завершена")
	}
	logger.Sync()
	return err
}

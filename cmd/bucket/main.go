package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bucketList/internal/app"
	"bucketList/internal/config"
	"bucketList/internal/logger"
	"bucketList/internal/tui"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bucket: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	configPath := flag.String("config", config.DefaultPath, "путь к YAML-конфигу")
	logPath := flag.String("log", "", "файл для логов, по умолчанию логи отключены")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// терминал занят интерфейсом, поэтому логи пишутся только в файл
	if *logPath != "" {
		zcfg := zap.NewDevelopmentConfig()
		zcfg.OutputPaths = []string{*logPath}
		zcfg.ErrorOutputPaths = []string{*logPath}
		l, buildErr := zcfg.Build()
		if buildErr != nil {
			return fmt.Errorf("инициализация логгера: %w", buildErr)
		}
		logger.Set(l)
		defer logger.Sync()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, slot, err := app.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if flushErr := store.Flush(context.Background()); flushErr != nil {
			err = multierr.Append(err, fmt.Errorf("сохранение перед выходом: %w", flushErr))
		}
		err = multierr.Append(err, slot.Close())
	}()

	return tui.Run(ctx, store)
}

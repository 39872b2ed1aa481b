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
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "путь к YAML-конфигу")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "конфиг: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg)
	if err := application.Init(ctx); err != nil {
		logger.Error("App: Ошибка инициализации", err)
		logger.Sync()
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("App: Приложение завершилось с ошибкой", err)
		os.Exit(1)
	}
}

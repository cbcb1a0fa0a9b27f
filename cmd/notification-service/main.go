// cmd/notification-service/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"notification-dispatcher/internal/app"
	"notification-dispatcher/internal/common/config"
	"notification-dispatcher/internal/common/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("backend", cfg.Storage.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, err := app.New(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("service init failed", zap.Error(err))
	}

	runErr := service.Run(ctx)
	if runErr != nil {
		zapLog.Error("service stopped with error", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := service.Close(shutdownCtx); err != nil {
		zapLog.Warn("shutdown incomplete", zap.Error(err))
	}

	zapLog.Info("Notification service stopped")
	if runErr != nil {
		os.Exit(1)
	}
}

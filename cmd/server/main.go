package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onlyformurshi/zameel-admin-gateway/internal/app"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/config"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/logger"
)

func main() {
	logger.Init()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize app", map[string]any{
			"error": err.Error(),
		})
	}

	go func() {
		if err := application.Run(); err != nil {
			logger.Fatal("http server failed", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	logger.Info("admin-gateway started", map[string]any{
		"port":    cfg.AppPort,
		"backend": cfg.BackendBaseURL,
	})

	<-ctx.Done() // wait for Ctrl+C

	logger.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("graceful shutdown failed", map[string]any{
			"error": err.Error(),
		})
	}

	logger.Info("admin-gateway stopped cleanly", nil)
}

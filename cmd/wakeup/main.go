// Package main запускает HTTP-сервер сервиса wakeup-challenge.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/wakeup-challenge/internal/config"
	"github.com/mmeshcher/wakeup-challenge/internal/handler"
	"github.com/mmeshcher/wakeup-challenge/internal/metrics"
	"github.com/mmeshcher/wakeup-challenge/internal/middleware"
	"github.com/mmeshcher/wakeup-challenge/internal/notifier"
	"github.com/mmeshcher/wakeup-challenge/internal/repository"
	"github.com/mmeshcher/wakeup-challenge/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	_ = godotenv.Load()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	store, err := repository.NewPostgresStore(cfg.DatabaseURI, cfg.AppName)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer store.Close()

	var notifierClient *notifier.Client
	if cfg.NotifierAddress != "" {
		notifierClient = notifier.NewClient(cfg.NotifierAddress)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	svc := service.NewService(store, notifierClient, logger, m, service.Options{
		Judgement:  cfg.JudgementOffset(),
		MinPrice:   cfg.MinPrice,
		MaxPrice:   cfg.MaxPrice,
		Location:   cfg.Location(),
		DomainName: cfg.DomainName,
	})
	defer svc.Close()

	apiAuth := middleware.NewSecretAuth(middleware.APIKeyHeader, cfg.APISecret)
	internalAuth := middleware.NewSecretAuth(middleware.InternalSecretHeader, cfg.InternalSecret)
	h := handler.NewHandler(svc, logger, apiAuth, internalAuth)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting wakeup-challenge server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/config"
	"github.com/hamed0406/healthwatch/internal/httpapi"
	"github.com/hamed0406/healthwatch/internal/logging"
	"github.com/hamed0406/healthwatch/internal/repo"
	"github.com/hamed0406/healthwatch/internal/repo/memory"
	"github.com/hamed0406/healthwatch/internal/repo/postgres"
)

func main() {
	cfg := config.ServerFromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, "server.log")
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		checks  repo.CheckStore
		results repo.ResultStore
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("postgres_connect", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal("postgres_migrate", zap.Error(err))
		}
		checks, results = pg, pg
		logger.Info("store_selected", zap.String("kind", "postgres"))
	} else {
		mem := memory.New()
		checks, results = mem, mem
		logger.Info("store_selected", zap.String("kind", "memory"))
	}

	api := httpapi.NewServer(logger, checks, results, cfg.ListLimit)
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.Router(cfg.AllowedOrigins, cfg.RateLimitRPM, cfg.RateLimitBurst),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown_signal")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api_serve", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	logger.Info("stopped")
	if err := multierr.Append(shutdownErr, logger.Sync()); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/client"
	"github.com/hamed0406/healthwatch/internal/config"
	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/logging"
	"github.com/hamed0406/healthwatch/internal/probe"
	"github.com/hamed0406/healthwatch/internal/scheduler"
)

func main() {
	cfg := config.AgentFromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, "agent.log")
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := client.New(cfg.RegistryURL, cfg.RequestTimeout)

	// unreachable registry at startup is a misconfiguration, not an outage
	pingCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	if err := registry.Ping(pingCtx); err != nil {
		cancel()
		logger.Fatal("registry_ping", zap.String("url", cfg.RegistryURL), zap.Error(err))
	}
	cancel()
	logger.Info("registry_reachable", zap.String("url", cfg.RegistryURL))

	dispatcher := scheduler.NewDispatcher(logger, registry, cfg.QueueSize, cfg.DeliveryAttempts)
	executor := scheduler.NewExecutor(
		logger,
		probe.NewHTTPChecker(cfg.ProbeTimeout),
		func(r domain.HealthcheckResult) { dispatcher.Enqueue(r) },
		cfg.MaxConcurrent,
		cfg.ProbeTimeout,
	)
	synchronizer := scheduler.NewSynchronizer(logger, registry, executor, cfg.SyncInterval, cfg.ListLimit)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		synchronizer.Run(ctx)
	}()

	logger.Info("agent_started",
		zap.Duration("sync_interval", cfg.SyncInterval),
		zap.Int("max_concurrent_probes", cfg.MaxConcurrent),
	)

	<-ctx.Done()
	logger.Info("shutdown_signal")

	executor.Close()
	wg.Wait()

	logger.Info("stopped",
		zap.Uint64("results_delivered", dispatcher.Delivered()),
		zap.Uint64("results_dropped", dispatcher.Dropped()),
	)
}

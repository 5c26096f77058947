package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/cache"
	"finboard/internal/cli"
	"finboard/internal/core"
	httpserver "finboard/internal/http"
	"finboard/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	backendResult := cli.InitBackend(ctx, logger, cfg)

	gen := &cache.Generation{}
	snapshotCache := cache.NewLRUCache[core.Snapshot](cfg.CacheSize, cfg.CacheTTL)

	cacheManager := cache.NewManager()
	cacheManager.Register(snapshotCache)
	cacheManager.StartCleanup(cfg.CacheTTL / 2)

	var publisher services.MirrorPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The mirror is an async convenience; the dashboard runs
			// without it.
			logger.Warn("AMQP unavailable, ledger mirror disabled", "error", err)
		} else {
			publisher = amqpClient
			logger.Info("Ledger mirror publishing enabled", "exchange", cfg.AMQPExchange)
		}
	}

	reports := services.NewReportService(backendResult.Store, snapshotCache, gen, cfg.PageSize)
	ingestSvc := services.NewIngestService(backendResult.Store, gen, publisher, cfg.PageSize)
	treasurySvc := services.NewTreasuryService(backendResult.Store, reports)

	srv := httpserver.NewServer(httpserver.Config{
		Addr:          ":" + cfg.Port,
		TreasuryToken: cfg.TreasuryToken,
	}, reports, ingestSvc, treasurySvc)
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 120 * time.Second

	if cfg.TreasuryToken == "" {
		logger.Warn("TREASURY_TOKEN not set, treasury routes will answer 503")
	}

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close failed", "error", err)
			}
		}
		if backendResult.Cleanup != nil {
			backendResult.Cleanup()
		}
	})

	logger.Info("Starting finboard server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"cache_ttl", cfg.CacheTTL.String())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server failed", "error", err)
	}

	<-done
	slog.Info("Server stopped")
}

package main

import (
	"context"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/cli"
	"finboard/internal/sheets/google"
	"finboard/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration validation failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sheetsClient, err := google.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		return
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		return
	}

	mirror := worker.NewMirrorWorker(sheetsClient)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		cancel()
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close failed", "error", err)
		}
	})

	logger.Info("Starting ledger mirror worker",
		"queue", cfg.AMQPQueue,
		"spreadsheet", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	if err := mirror.Run(ctx, amqpClient); err != nil && ctx.Err() == nil {
		logger.Error("Mirror worker stopped with error", "error", err)
		_ = amqpClient.Close()
		return
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker stopped")
}

package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	mem "fintrack/internal/sheets/memory"
	"fintrack/internal/worker"
)

func main() {
	envErr := cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentWorker)
	if envErr != nil {
		logger.Warn("Failed to load .env file", log.FieldError, envErr)
	}
	cfg = cli.LoadAndValidateConfig(logger)

	logger.Info("Starting fintrack-worker", log.FieldOperation, log.OpStartup)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required: the worker consumes ledger events")
		os.Exit(1)
	}

	ctx := context.Background()

	var exporter sheets.TransactionExporter
	if cfg.GoogleSpreadsheetID != "" {
		if err := cfg.ValidateExport(); err != nil {
			logger.Error("Export configuration validation failed", log.FieldError, err)
			os.Exit(1)
		}
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		exporter = mem.New()
		logger.Warn("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting to memory")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(exporter, logger)

	consumeDone := make(chan struct{})
	sigCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		<-consumeDone
		if err := client.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
	})

	go func() {
		defer close(consumeDone)
		err := client.ConsumeTransactionEvents(sigCtx, exportWorker.Handle)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption stopped", log.FieldError, err)
		}
	}()

	<-sigCtx.Done()
	<-done

	appended, deleted := exportWorker.Counts()
	logger.Info("Worker shutdown complete",
		log.FieldOperation, log.OpShutdown,
		"appended", appended,
		"deleted", deleted)
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spendtrack/internal/amqp"
	"spendtrack/internal/config"
	"spendtrack/internal/importer"
	applog "spendtrack/internal/log"
	"spendtrack/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.Setup("import-worker")
	logger.Info("Starting import worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if !cfg.AsyncImportEnabled() {
		logger.Error("AMQP_URL is required for the import worker")
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	imp := importer.New(repo, cfg.ImportChunkSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := func(msg *amqp.ImportJobMessage) error {
		res, err := imp.Import(ctx, msg.Owner, msg.Blob)
		if err != nil {
			return err
		}
		logger.Info("Import job processed",
			"owner", msg.Owner,
			"created", res.Created,
			"skipped", len(res.Skipped))
		return nil
	}

	if err := amqpClient.ConsumeImportJobs(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Job consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Import worker stopped")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"spendtrack/internal/amqp"
	"spendtrack/internal/auth"
	"spendtrack/internal/categorize"
	"spendtrack/internal/config"
	apphttp "spendtrack/internal/http"
	"spendtrack/internal/importer"
	"spendtrack/internal/insights"
	applog "spendtrack/internal/log"
	"spendtrack/internal/services"
	"spendtrack/internal/storage"
)

func main() {
	// Load .env for local development; absent in production is fine.
	_ = godotenv.Load()

	logger := applog.Setup("spendtrack")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var queue services.Bus
	var amqpClient *amqp.Client
	if cfg.AsyncImportEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		queue = amqpClient
		logger.Info("Async imports enabled", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Async imports disabled - no AMQP_URL provided")
	}

	var categorizer services.Categorizer
	if cfg.CategorizerURL != "" {
		categorizer = categorize.NewClient(cfg.CategorizerURL)
		logger.Info("Category suggestions enabled", "url", cfg.CategorizerURL)
	} else {
		logger.Info("Category suggestions disabled - no CATEGORIZER_URL provided")
	}

	imp := importer.New(repo, cfg.ImportChunkSize)
	txService := services.NewTransactionService(repo, imp, categorizer, queue)
	insightService := insights.NewService(repo)
	authService := auth.NewService(repo, cfg.JWTSecret, cfg.TokenTTL)

	srv := apphttp.NewServer(":"+cfg.Port, txService, insightService, authService)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gymdesk/internal/amqp"
	"gymdesk/internal/config"
	ledgergoogle "gymdesk/internal/ledger/google"
	applog "gymdesk/internal/log"
	"gymdesk/internal/services"
	"gymdesk/internal/storage"
	"gymdesk/internal/worker"
)

// gymdesk-worker drains the transaction outbox into the Google Sheets ledger.
// It consumes sync messages from AMQP when a broker is configured and falls
// back to polling the outbox table on a fixed interval either way, so a broker
// outage only delays exports instead of losing them.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	logger := applog.New(applog.Config{Component: "worker"})
	slog.SetDefault(logger.Logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the ledger worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open SQLite database", "error", err, "db_path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close database", "error", err)
		}
	}()

	ledgerClient, err := ledgergoogle.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets ledger", "error", err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(repo, ledgerClient, cfg.SyncBatchSize)

	// Catch up on anything left pending from a previous run before
	// subscribing to new messages.
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Warn("Startup sync check failed", "error", err)
	}

	consumeErr := make(chan error, 1)
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to connect to AMQP, running in poll-only mode", "error", err)
		} else {
			defer func() {
				if err := amqpClient.Close(); err != nil {
					logger.Warn("Failed to close AMQP client", "error", err)
				}
			}()

			go func() {
				logger.Info("Consuming sync messages",
					"exchange", cfg.AMQPExchange,
					"queue", cfg.AMQPQueue)
				consumeErr <- amqpClient.ConsumeTransactionSync(ctx, func(msg *amqp.TransactionSyncMessage) error {
					return syncWorker.HandleSyncMessage(ctx, msg)
				})
			}()
		}
	} else {
		logger.Info("No AMQP URL configured, running in poll-only mode")
	}

	// The poller re-checks the outbox on an interval so messages lost while
	// the broker was down (or never published) still reach the ledger.
	poller := services.NewSyncProcessor(repo, ledgerClient, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	})
	if err := poller.Start(ctx); err != nil {
		logger.Error("Failed to start outbox poller", "error", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Ledger worker started",
		"batch_size", cfg.SyncBatchSize,
		"poll_interval", cfg.SyncInterval.String())

	for {
		select {
		case err := <-consumeErr:
			if err != nil && ctx.Err() == nil {
				logger.Error("AMQP consumer stopped", "error", err)
				os.Exit(1)
			}
		case sig := <-sigCh:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()

			stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := poller.Stop(stopCtx); err != nil {
				logger.Warn("Outbox poller stop failed", "error", err)
			}

			// Final drain so a clean shutdown leaves nothing pending.
			if err := syncWorker.ProcessPendingTransactions(stopCtx); err != nil {
				logger.Warn("Final outbox drain failed", "error", err)
			}
			stopCancel()

			logger.Info("Ledger worker stopped")
			return
		}
	}
}

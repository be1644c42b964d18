package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gymdesk/internal/backend"
	"gymdesk/internal/config"
	applog "gymdesk/internal/log"
	"gymdesk/internal/services"
)

// renewal-worker advances due subscriptions on a fixed interval. Each due
// subscription gets a pending renewal transaction and a new period end, so
// the front desk sees the charge on the dashboard before the member pays.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	logger := applog.New(applog.Config{Component: "renewal"})
	slog.SetDefault(logger.Logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup == nil {
			return
		}
		if err := result.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", "error", err)
		}
	}()

	membership := services.NewMembershipService(result.Backend, result.Publisher)
	processor := services.NewRenewalProcessor(result.Backend, membership)

	runOnce := func() {
		renewed, err := processor.ProcessDueRenewals(ctx, time.Now())
		if err != nil {
			logger.Error("Renewal pass failed", "error", err)
			return
		}
		if renewed > 0 {
			logger.Info("Processed due renewals", "renewed", renewed)
		}
	}

	logger.Info("Renewal worker started", "interval", cfg.RenewalInterval.String())
	runOnce()

	ticker := time.NewTicker(cfg.RenewalInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runOnce()
		case sig := <-sigCh:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
			logger.Info("Renewal worker stopped")
			return
		}
	}
}

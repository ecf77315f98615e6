/**
 * @description
 * Main entry point for the scheduler. A non-HTTP, long-running process that
 * triggers the rotation pairing batch on the billing API at a fixed schedule.
 */
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/config"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/scheduler"
	"github.com/Rahim01baba/GEST-AERO-sub001/pkg/billingclient"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found; using environment")
	}

	cfg, err := config.LoadSchedulerConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	client := billingclient.NewClient(cfg.BillingServiceURL, cfg.InternalAPIKey)
	jobs := scheduler.NewJobs(client, logger)
	s := scheduler.NewScheduler(jobs, logger, *cfg)

	if err := s.Start(); err != nil {
		os.Exit(1)
	}
	logger.Info("scheduler started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping scheduler")
	stopCtx := s.Stop()
	<-stopCtx.Done()
	logger.Info("scheduler stopped gracefully")
}

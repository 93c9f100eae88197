// Package main is the entry point for the advisor compliance engine.
// The process runs two recurring jobs against the CRM's portfolio data:
// a daily compliance scan that evaluates every advisor's households and
// notifies advisors of new findings, and an hourly cleanup that prunes
// aged alert history to bound memory growth. An HTTP API exposes the scan
// on demand and read-only alert/stat queries for the dashboard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/meridianwm/advisor-sentinel/internal/config"
	"github.com/meridianwm/advisor-sentinel/internal/database"
	"github.com/meridianwm/advisor-sentinel/internal/modules/compliance"
	"github.com/meridianwm/advisor-sentinel/internal/modules/crm"
	"github.com/meridianwm/advisor-sentinel/internal/modules/notifications"
	"github.com/meridianwm/advisor-sentinel/internal/scheduler"
	"github.com/meridianwm/advisor-sentinel/internal/server"
	"github.com/meridianwm/advisor-sentinel/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting advisor compliance engine")

	// crm.db holds the advisor/household/holding data the engine reads,
	// plus the notification outbox it writes
	crmDB, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "crm.db"),
		Name: "crm",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open crm database")
	}
	defer crmDB.Close()

	if err := crm.EnsureSchema(crmDB.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply crm schema")
	}

	// Repositories and services
	reader := crm.NewRepository(crmDB.Conn(), log)
	evaluator := compliance.NewEvaluator(log)
	service := compliance.NewService(reader, evaluator, log)

	// Alert history ledger, restored from the last snapshot when enabled
	history := compliance.NewHistory(log)
	if cfg.LedgerSnapshotPath != "" {
		if err := history.LoadSnapshot(cfg.LedgerSnapshotPath); err != nil {
			log.Warn().Err(err).Msg("Failed to load alert history snapshot, starting fresh")
		}
	}

	// Notification transport: log output, recorded to the outbox
	outbox := notifications.NewOutbox(crmDB.Conn(), log)
	notifier := notifications.NewOutboxNotifier(notifications.NewLogNotifier(log), outbox, log)
	dispatcher := compliance.NewDispatcher(notifier, log)

	// Jobs
	scanJob := compliance.NewScanJob(service, history, dispatcher, notifier, cfg.OwnerRecipient, log)
	cleanupJob := compliance.NewCleanupJob(history, cfg.LedgerSnapshotPath, log)

	sched := scheduler.New(log)
	if err := sched.Arm(fmt.Sprintf("0 %d * * *", cfg.ScanHour), scanJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to arm compliance scan job")
	}
	if err := sched.Arm("@hourly", cleanupJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to arm alert history cleanup job")
	}
	sched.Start()

	// HTTP server
	complianceHandler := compliance.NewHandler(service, scanJob, log)
	systemHandlers := server.NewSystemHandlers(log, history, sched)

	srv := server.New(server.Config{
		Log:               log,
		Port:              cfg.Port,
		DevMode:           cfg.DevMode,
		ComplianceHandler: complianceHandler,
		SystemHandlers:    systemHandlers,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}

	// Graceful shutdown: stop timers first so no job starts mid-teardown,
	// then drain HTTP, then persist the ledger
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	if cfg.LedgerSnapshotPath != "" {
		if err := history.SaveSnapshot(cfg.LedgerSnapshotPath); err != nil {
			log.Error().Err(err).Msg("Failed to save alert history snapshot on shutdown")
		}
	}

	log.Info().Msg("Shutdown complete")
}

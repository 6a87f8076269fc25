package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-alert-engine/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/storm-alert-engine/internal/adapter/kafka"
	"github.com/couchcryptid/storm-alert-engine/internal/adapter/nws"
	"github.com/couchcryptid/storm-alert-engine/internal/adapter/postgres"
	"github.com/couchcryptid/storm-alert-engine/internal/config"
	"github.com/couchcryptid/storm-alert-engine/internal/observability"
	"github.com/couchcryptid/storm-alert-engine/internal/sweep"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	users := postgres.NewUserRepository(db, logger)
	locations := postgres.NewLocationRepository(db, logger)
	pings := postgres.NewPingRepository(db, logger)
	households := postgres.NewHouseholdRepository(db, logger)
	ledger := postgres.NewLedgerRepository(db, logger)

	source := nws.NewClient(cfg.NWSBaseURL, cfg.NWSUserAgent, cfg.NWSTimeout, metrics, logger)
	dispatcher := kafkaadapter.NewDispatcher(cfg, logger)

	engine := sweep.New(
		source, users, locations, pings, households, ledger, dispatcher,
		sweep.Options{
			Interval:      cfg.SweepInterval,
			RecencyWindow: cfg.PingRecencyWindow,
			Workers:       cfg.SweepWorkers,
			SiteBaseURL:   cfg.SiteBaseURL,
		},
		logger, metrics,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, engine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start sweep engine.
	go func() {
		if err := engine.Run(ctx); err != nil {
			logger.Error("sweep engine error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := dispatcher.Close(); err != nil {
		logger.Error("kafka dispatcher close error", "error", err)
	}

	logger.Info("shutdown complete")
}

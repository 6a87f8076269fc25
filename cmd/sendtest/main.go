// Command sendtest is an operator tool for exercising the delivery path
// without waiting for a real warning. It can push a test notification to one
// user's active devices, or inspect what the alert source reports for a
// coordinate: the active alerts at that point and its forecast zone.
//
// Usage:
//
//	go run ./cmd/sendtest -user 42
//	go run ./cmd/sendtest -check -lat 36.44 -lon -95.28
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	kafkaadapter "github.com/couchcryptid/storm-alert-engine/internal/adapter/kafka"
	"github.com/couchcryptid/storm-alert-engine/internal/adapter/nws"
	"github.com/couchcryptid/storm-alert-engine/internal/adapter/postgres"
	"github.com/couchcryptid/storm-alert-engine/internal/config"
	"github.com/couchcryptid/storm-alert-engine/internal/domain"
	"github.com/couchcryptid/storm-alert-engine/internal/observability"
)

func main() {
	userID := flag.Int64("user", 0, "user ID to send a test notification to")
	check := flag.Bool("check", false, "query active alerts and forecast zone for a coordinate instead of sending")
	lat := flag.Float64("lat", 0, "latitude for -check")
	lon := flag.Float64("lon", 0, "longitude for -check")
	flag.Parse()

	if !*check && *userID == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetricsForTesting()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if *check {
		os.Exit(runCheck(ctx, cfg, metrics, logger, domain.Point{Lon: *lon, Lat: *lat}))
	}
	os.Exit(runSend(ctx, cfg, logger, *userID))
}

func runCheck(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger, p domain.Point) int {
	client := nws.NewClient(cfg.NWSBaseURL, cfg.NWSUserAgent, cfg.NWSTimeout, metrics, logger)

	var resolver nws.ZoneResolver = client
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		resolver = nws.NewCachedZoneResolver(client, rdb, cfg.ZoneCacheTTL, metrics)
	}

	zone, err := resolver.ResolveZone(ctx, p)
	if err != nil {
		logger.Error("zone lookup failed", "error", err)
		return 1
	}
	fmt.Printf("forecast zone: %s\n", zone)

	alerts, err := client.AlertsAtPoint(ctx, p)
	if err != nil {
		logger.Error("alert lookup failed", "error", err)
		return 1
	}
	if len(alerts) == 0 {
		fmt.Println("no active alerts at this point")
		return 0
	}
	for _, a := range alerts {
		fmt.Printf("%s  %s  %s\n", a.ID, a.Event, a.Headline)
	}
	return 0
}

func runSend(ctx context.Context, cfg *config.Config, logger *slog.Logger, userID int64) int {
	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return 1
	}
	defer db.Close()

	users := postgres.NewUserRepository(db, logger)
	devices, err := users.ActiveDevices(ctx, userID)
	if err != nil {
		logger.Error("device lookup failed", "user_id", userID, "error", err)
		return 1
	}
	if len(devices) == 0 {
		logger.Error("user has no active devices", "user_id", userID)
		return 1
	}

	dispatcher := kafkaadapter.NewDispatcher(cfg, logger)
	defer dispatcher.Close()

	payload := domain.Payload{
		Title:    "Test Notification",
		Body:     "Push delivery is working for this device.",
		Icon:     cfg.SiteBaseURL + "/static/images/icons/Icon_192.png",
		ClickURL: cfg.SiteBaseURL + "/weather/",
	}
	if err := dispatcher.Send(ctx, devices, payload); err != nil {
		logger.Error("test dispatch failed", "user_id", userID, "error", err)
		return 1
	}

	fmt.Printf("test notification queued for user %d (%d devices)\n", userID, len(devices))
	return 0
}

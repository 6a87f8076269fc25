package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseURL string

	KafkaBrokers            []string
	KafkaNotificationsTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	SweepInterval     time.Duration
	PingRecencyWindow time.Duration
	SweepWorkers      int

	// NWS alert API configuration. The API rejects requests without a
	// descriptive User-Agent, so there is no default for it.
	NWSBaseURL   string
	NWSUserAgent string
	NWSTimeout   time.Duration

	DispatchTimeout time.Duration

	// Redis-backed forecast-zone cache; disabled when RedisAddr is empty.
	RedisAddr    string
	ZoneCacheTTL time.Duration

	// SiteBaseURL prefixes the icon and click URLs in notification payloads.
	SiteBaseURL string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sweepInterval, err := parseDuration("SWEEP_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}
	recencyWindow, err := parseDuration("PING_RECENCY_WINDOW", "30m")
	if err != nil {
		return nil, err
	}
	nwsTimeout, err := parseDuration("NWS_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	dispatchTimeout, err := parseDuration("DISPATCH_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	zoneCacheTTL, err := parseDuration("ZONE_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}
	sweepWorkers, err := parsePositiveInt("SWEEP_WORKERS", 8)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		KafkaBrokers:            sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaNotificationsTopic: sharedcfg.EnvOrDefault("KAFKA_NOTIFICATIONS_TOPIC", "push-notifications"),
		HTTPAddr:                sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:                sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:               sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:         shutdownTimeout,
		SweepInterval:           sweepInterval,
		PingRecencyWindow:       recencyWindow,
		SweepWorkers:            sweepWorkers,
		NWSBaseURL:              sharedcfg.EnvOrDefault("NWS_BASE_URL", "https://api.weather.gov"),
		NWSUserAgent:            os.Getenv("NWS_USER_AGENT"),
		NWSTimeout:              nwsTimeout,
		DispatchTimeout:         dispatchTimeout,
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		ZoneCacheTTL:            zoneCacheTTL,
		SiteBaseURL:             os.Getenv("SITE_BASE_URL"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaNotificationsTopic == "" {
		return nil, errors.New("KAFKA_NOTIFICATIONS_TOPIC is required")
	}
	if cfg.NWSUserAgent == "" {
		return nil, errors.New("NWS_USER_AGENT is required (NWS API policy)")
	}
	if cfg.SiteBaseURL == "" {
		return nil, errors.New("SITE_BASE_URL is required")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}

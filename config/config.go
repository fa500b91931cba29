package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// HTTP
	DashboardAddr string
	MetricsAddr   string
	LogLevel      string

	// Dashboard behavior
	DefaultTimeframe string
	DiscardStale     bool
	CatalogPath      string

	// Simulated source
	PriceLatency      time.Duration
	ComparisonLatency time.Duration
	FailureRate       float64
	MockSeed          int64

	// Optional Redis event mirror (disabled when RedisAddr is empty)
	RedisAddr     string
	RedisPassword string

	// WS metrics push schedule (robfig/cron spec)
	MetricsBroadcastCron string

	// Fetch failure alerts (each backend disabled when empty)
	AlertWebhookURL  string
	TelegramBotToken string
	TelegramChatID   string
}

// Load reads configuration from environment variables with defaults,
// after loading an optional .env file.
func Load() *Config {
	LoadDotenv()
	return &Config{
		DashboardAddr: getEnv("DASHBOARD_ADDR", ":8080"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DefaultTimeframe: strings.ToUpper(getEnv("DEFAULT_TIMEFRAME", "1M")),
		DiscardStale:     getBool("DASHBOARD_DISCARD_STALE", false),
		CatalogPath:      getEnv("CATALOG_PATH", ""),

		PriceLatency:      getMillis("PRICE_LATENCY_MS", 500),
		ComparisonLatency: getMillis("COMPARISON_LATENCY_MS", 300),
		FailureRate:       getFloat("FAILURE_RATE", 0),
		MockSeed:          getInt64("MOCK_SEED", 0),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		MetricsBroadcastCron: getEnv("METRICS_BROADCAST_CRON", "@every 5s"),

		AlertWebhookURL:  getEnv("ALERT_WEBHOOK_URL", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
	}
}

// LoadDotenv loads ENV_FILE, or ./.env, without overriding variables that
// are already set. NO_DOTENV=1 skips it. A missing file is not an error.
func LoadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}
	path := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] WARNING: %s: %v", path, err)
	}
}

// MirrorEnabled reports whether snapshots are mirrored to Redis.
func (c *Config) MirrorEnabled() bool {
	return c.RedisAddr != ""
}

// Validate checks values that have no safe fallback.
func (c *Config) Validate() error {
	if c.FailureRate < 0 || c.FailureRate > 1 {
		return fmt.Errorf("FAILURE_RATE must be in [0, 1], got %v", c.FailureRate)
	}
	if c.PriceLatency < 0 || c.ComparisonLatency < 0 {
		return errors.New("latencies must not be negative")
	}
	if _, err := cron.ParseStandard(c.MetricsBroadcastCron); err != nil {
		return fmt.Errorf("METRICS_BROADCAST_CRON %q: %w", c.MetricsBroadcastCron, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getMillis(key string, fallback int64) time.Duration {
	return time.Duration(getInt64(key, fallback)) * time.Millisecond
}

package app

import (
	"os"
	"strconv"
	"time"
)

// Драйверы хранилища.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config описывает настройки запуска приложения, читаемые из окружения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver string
	PostgresDSN   string
	AutoMigrate   bool

	KafkaBrokers string

	OutboxPollInterval  time.Duration
	OutboxBatchSize     int
	OutboxMaxAttempts   int
	OutboxSentRetention time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию: in-memory хранилище,
// API на :8080 и метрики на :9090.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:           ":8080",
		MetricsAddr:        ":9090",
		StorageDriver:      StorageMemory,
		AutoMigrate:        true,
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxSentRetention: 24 * time.Hour,
	}
}

// ConfigFromEnv строит конфигурацию из переменных окружения POS_*.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.HTTPAddr = envString("POS_HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsAddr = envString("POS_METRICS_ADDR", cfg.MetricsAddr)
	cfg.StorageDriver = envString("POS_STORAGE_DRIVER", cfg.StorageDriver)
	cfg.PostgresDSN = envString("POS_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.AutoMigrate = envBool("POS_AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.KafkaBrokers = envString("POS_KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.OutboxPollInterval = envDuration("POS_OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval)
	cfg.OutboxBatchSize = envInt("POS_OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxMaxAttempts = envInt("POS_OUTBOX_MAX_ATTEMPTS", cfg.OutboxMaxAttempts)
	cfg.OutboxSentRetention = envDuration("POS_OUTBOX_SENT_RETENTION", cfg.OutboxSentRetention)

	return cfg
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

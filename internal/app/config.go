package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// StorageDriver выбирает реализацию хранилища витрины.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool

	// CartDir включает файловое хранилище корзин для драйвера memory:
	// корзины переживают рестарт, остальные данные остаются в памяти.
	CartDir string

	// Ключ живого API Нової Пошти; пустой ключ переключает провайдера
	// на локальный справочник.
	NovaPoshtaAPIKey string

	TelegramBotToken string
	TelegramChatID   string

	KafkaBrokers string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration

	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int
}

// DefaultConfig возвращает базовые настройки для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:                    ":8080",
		MetricsAddr:                 ":9090",
		StorageDriver:               StorageDriverMemory,
		PostgresAutoMigrate:         true,
		OutboxPollInterval:          2 * time.Second,
		OutboxBatchSize:             50,
		OutboxMaxAttempts:           5,
		OutboxRetryDelay:            500 * time.Millisecond,
		IdempotencyCleanupInterval:  10 * time.Minute,
		IdempotencyCleanupBatchSize: 500,
	}
}

// LoadConfigFromEnv строит конфигурацию из окружения поверх дефолтов.
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.HTTPAddr = envString("SHOP_HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsAddr = envString("SHOP_METRICS_ADDR", cfg.MetricsAddr)
	cfg.StorageDriver = StorageDriver(envString("SHOP_STORAGE_DRIVER", string(cfg.StorageDriver)))
	cfg.PostgresDSN = envString("SHOP_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.PostgresAutoMigrate = envBool("SHOP_POSTGRES_AUTO_MIGRATE", cfg.PostgresAutoMigrate)
	cfg.CartDir = envString("SHOP_CART_DIR", cfg.CartDir)

	cfg.NovaPoshtaAPIKey = envString("NOVA_POSHTA_API_KEY", cfg.NovaPoshtaAPIKey)
	cfg.TelegramBotToken = envString("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	cfg.TelegramChatID = envString("TELEGRAM_CHAT_ID", cfg.TelegramChatID)
	cfg.KafkaBrokers = envString("KAFKA_BROKERS", cfg.KafkaBrokers)

	cfg.OutboxPollInterval = envDuration("SHOP_OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval)
	cfg.OutboxBatchSize = envInt("SHOP_OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxMaxAttempts = envInt("SHOP_OUTBOX_MAX_ATTEMPTS", cfg.OutboxMaxAttempts)
	cfg.OutboxRetryDelay = envDuration("SHOP_OUTBOX_RETRY_DELAY", cfg.OutboxRetryDelay)

	cfg.IdempotencyCleanupInterval = envDuration("SHOP_IDEMPOTENCY_CLEANUP_INTERVAL", cfg.IdempotencyCleanupInterval)
	cfg.IdempotencyCleanupBatchSize = envInt("SHOP_IDEMPOTENCY_CLEANUP_BATCH", cfg.IdempotencyCleanupBatchSize)

	return cfg
}

func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

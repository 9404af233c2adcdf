// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"drivercommission/internal/constants"
	"drivercommission/internal/logging"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	Port   string
	AppEnv string

	StorageDriver string
	DataDir       string
	DatabaseURL   string
	DBHost        string
	DBName        string

	RedisURL      string
	RatesCacheTTL time.Duration

	CommissionSeedFile string

	TelegramToken string
	OwnerChatID   int64

	FinanceCommissionEstimate float64
	HistoryLimit              int
	ExpensesLimit             int
}

// IsProduction сообщает, запущено ли приложение в боевом окружении.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

// LoadConfig загружает конфигурацию из переменных окружения. Некорректные
// необязательные значения заменяются значениями по умолчанию с
// предупреждением; ошибка возвращается только для несовместимых настроек.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		AppEnv:             getEnv("ENV", "dev"),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", constants.STORAGE_FILE)),
		DataDir:            getEnv("DATA_DIR", "./data"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		CommissionSeedFile: os.Getenv("COMMISSION_SEED_FILE"),
		TelegramToken:      os.Getenv("TELEGRAM_APITOKEN"),
	}

	cfg.RatesCacheTTL = getEnvDuration("RATES_CACHE_TTL", 5*time.Minute)
	cfg.FinanceCommissionEstimate = getEnvFloat("FINANCE_COMMISSION_ESTIMATE", constants.DEFAULT_COMMISSION_ESTIMATE)
	if cfg.FinanceCommissionEstimate < 0 || cfg.FinanceCommissionEstimate > 100 {
		logging.Logger.Warn("FINANCE_COMMISSION_ESTIMATE вне диапазона 0..100, используется значение по умолчанию",
			zap.Float64("value", cfg.FinanceCommissionEstimate))
		cfg.FinanceCommissionEstimate = constants.DEFAULT_COMMISSION_ESTIMATE
	}
	cfg.HistoryLimit = getEnvPositiveInt("HISTORY_LIMIT", constants.DEFAULT_HISTORY_LIMIT)
	cfg.ExpensesLimit = getEnvPositiveInt("EXPENSES_LIMIT", constants.DEFAULT_EXPENSES_LIMIT)

	if raw := os.Getenv("OWNER_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			logging.Logger.Warn("Не удалось прочитать OWNER_CHAT_ID, уведомления отключены", zap.String("value", raw), zap.Error(err))
		} else {
			cfg.OwnerChatID = id
		}
	}
	if cfg.TelegramToken == "" || cfg.OwnerChatID == 0 {
		logging.Logger.Info("TELEGRAM_APITOKEN или OWNER_CHAT_ID не заданы, уведомления в Telegram отключены")
	}

	switch cfg.StorageDriver {
	case constants.STORAGE_FILE:
	case constants.STORAGE_POSTGRES:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("STORAGE_DRIVER=%s требует DATABASE_URL", constants.STORAGE_POSTGRES)
		}
		parsedURL, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("ошибка парсинга DATABASE_URL: %w", err)
		}
		cfg.DBHost = parsedURL.Hostname()
		cfg.DBName = strings.TrimPrefix(parsedURL.Path, "/")
	default:
		return nil, fmt.Errorf("неизвестный STORAGE_DRIVER %q, ожидается %s или %s",
			cfg.StorageDriver, constants.STORAGE_FILE, constants.STORAGE_POSTGRES)
	}

	logging.Logger.Info("Конфигурация загружена",
		zap.String("env", cfg.AppEnv),
		zap.String("storage", cfg.StorageDriver),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("seed", cfg.CommissionSeedFile != ""))
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logging.Logger.Warn("Некорректное число в переменной окружения, используется значение по умолчанию",
			zap.String("key", key), zap.String("value", raw), zap.Float64("default", fallback))
		return fallback
	}
	return v
}

func getEnvPositiveInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		logging.Logger.Warn("Некорректное целое в переменной окружения, используется значение по умолчанию",
			zap.String("key", key), zap.String("value", raw), zap.Int("default", fallback))
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		logging.Logger.Warn("Некорректная длительность в переменной окружения, используется значение по умолчанию",
			zap.String("key", key), zap.String("value", raw), zap.Duration("default", fallback))
		return fallback
	}
	return v
}

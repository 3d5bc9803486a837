package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config — настройки процесса, собираются один раз в main и передаются
// по значению во все компоненты. Никакого глобального состояния.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	APIBaseURL       string
	ConcurrencyLimit int

	LogLevel  string
	LogFormat string

	RedisAddr string
	CacheTTL  time.Duration

	// CronSchedule — cron-выражение для периодического запуска.
	// Пустая строка — однократный запуск.
	CronSchedule string
}

// Load читает настройки из переменных окружения.
func Load() (Config, error) {
	cfg := Config{
		DBHost:           os.Getenv("DB_HOST"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           os.Getenv("DB_USER"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBName:           os.Getenv("DB_NAME"),
		APIBaseURL:       getEnv("API_BASE_URL", "https://iis.bsuir.by/api/v1"),
		ConcurrencyLimit: 5,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		CacheTTL:         time.Hour,
		CronSchedule:     os.Getenv("CRON_SCHEDULE"),
	}

	if cfg.DBHost == "" || cfg.DBName == "" {
		return cfg, fmt.Errorf("не заданы DB_HOST и/или DB_NAME")
	}

	if v := os.Getenv("CONCURRENCY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("некорректный CONCURRENCY_LIMIT: %q", v)
		}
		cfg.ConcurrencyLimit = n
	}

	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("некорректный CACHE_TTL: %q", v)
		}
		cfg.CacheTTL = d
	}

	return cfg, nil
}

// DSN собирает строку подключения к PostgreSQL.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

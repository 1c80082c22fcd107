package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN          string
	DBMaxConns     int32
	DBMinConns     int32
	Environment    string
	MigrationsDir  string
	TelegramToken  string
	TelegramChatID int64
	Location       *time.Location
	DigestHour     int
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из функции чтения переменных окружения
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDSN:         getenv("DB_DSN"),
		Environment:   getenv("ENV"),
		MigrationsDir: getenv("MIGRATIONS_DIR"),
		TelegramToken: getenv("TELEGRAM_TOKEN"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = "migrations"
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	var err error

	if cfg.DBMaxConns, err = parseInt32(getenv, "DB_MAX_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.DBMinConns, err = parseInt32(getenv, "DB_MIN_CONNS", 2); err != nil {
		return nil, err
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", cfg.DBMinConns, cfg.DBMaxConns)
	}

	if raw := getenv("TELEGRAM_CHAT_ID"); raw != "" {
		cfg.TelegramChatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse TELEGRAM_CHAT_ID: %w", err)
		}
	}

	tz := getenv("CLINIC_TIMEZONE")
	if tz == "" {
		tz = "UTC"
	}
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("load CLINIC_TIMEZONE %q: %w", tz, err)
	}

	cfg.DigestHour = 7
	if raw := getenv("DIGEST_HOUR"); raw != "" {
		cfg.DigestHour, err = strconv.Atoi(raw)
		if err != nil || cfg.DigestHour < 0 || cfg.DigestHour > 23 {
			return nil, fmt.Errorf("DIGEST_HOUR must be an hour 0-23, got %q", raw)
		}
	}

	return cfg, nil
}

// NotificationsEnabled сообщает, настроены ли уведомления в Telegram
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func parseInt32(getenv func(string) string, key string, def int32) (int32, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return int32(v), nil
}

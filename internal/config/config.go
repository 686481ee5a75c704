package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	CatalogPath string
	LogLevel    string

	// MatchCutoff is the minimum similarity for mapping free text to a
	// catalog symptom.
	MatchCutoff float64

	// SessionIdleTimeout evicts sessions nobody touched for that long.
	// Zero keeps them until they are ended.
	SessionIdleTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DatabaseURL    string
	MigrationsPath string

	TelegramBotToken string
	DoctorChatID     int64
	ReportFontPath   string
}

// Load reads the configuration from the environment, after seeding it from
// a .env file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		CatalogPath:      getEnv("CATALOG_PATH", "data/conditions.csv"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		MigrationsPath:   getEnv("MIGRATIONS_PATH", "file://migrations"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		ReportFontPath:   os.Getenv("REPORT_FONT_PATH"),
	}

	idle, err := time.ParseDuration(getEnv("SESSION_IDLE_TIMEOUT", "30m"))
	if err != nil || idle < 0 {
		return nil, fmt.Errorf("SESSION_IDLE_TIMEOUT must be a non-negative duration, got %q", os.Getenv("SESSION_IDLE_TIMEOUT"))
	}
	cfg.SessionIdleTimeout = idle

	cutoff, err := strconv.ParseFloat(getEnv("MATCH_CUTOFF", "0.7"), 64)
	if err != nil || cutoff <= 0 || cutoff > 1 {
		return nil, fmt.Errorf("MATCH_CUTOFF must be a number in (0, 1], got %q", os.Getenv("MATCH_CUTOFF"))
	}
	cfg.MatchCutoff = cutoff

	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("REDIS_DB must be an integer: %w", err)
	}

	if v := os.Getenv("DOCTOR_CHAT_ID"); v != "" {
		if cfg.DoctorChatID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("DOCTOR_CHAT_ID must be an integer: %w", err)
		}
	}
	return cfg, nil
}

// ReportDelivery reports whether reports can be sent to a doctor.
func (c *Config) ReportDelivery() bool {
	return c.TelegramBotToken != "" && c.DoctorChatID != 0
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

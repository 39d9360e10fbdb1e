package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Broker backend
	BrokerBaseURL    string
	BrokerClientCode string
	BrokerPassword   string
	BrokerTOTPSecret string
	BrokerTimeout    time.Duration

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string

	// Gateway
	ListenAddr string

	// Monitor
	PollInterval time.Duration

	// Notifications (optional)
	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string

	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		BrokerBaseURL:    mustEnv("BROKER_BASE_URL"),
		BrokerClientCode: getEnv("BROKER_CLIENT_CODE", ""),
		BrokerPassword:   getEnv("BROKER_PASSWORD", ""),
		BrokerTOTPSecret: getEnv("BROKER_TOTP_SECRET", ""),
		BrokerTimeout:    getDuration("BROKER_TIMEOUT", 7*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/journal.db"),

		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		PollInterval: getDuration("POLL_INTERVAL", 3*time.Second),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Millisecond
	}
	log.Printf("[config] invalid duration for %s: %q, using %v", key, v, fallback)
	return fallback
}

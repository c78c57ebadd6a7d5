package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	Archive ArchiveConfig
	History HistoryConfig
	App     AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ArchiveConfig points at the optional Postgres archive for records
// removed by cleanup or eviction. Empty DSN disables archiving.
type ArchiveConfig struct {
	DSN       string
	ConnectTO time.Duration
	PingTO    time.Duration
}

type HistoryConfig struct {
	MaxRecords       int
	MaxUndoEntries   int
	AutoSaveInterval time.Duration
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: []string{getEnv("FRONTEND_ORIGIN", "http://localhost:3000")},
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Archive: ArchiveConfig{
			DSN:       getEnv("ARCHIVE_DB_DSN", ""),
			ConnectTO: getEnvAsDuration("ARCHIVE_DB_CONNECT_TIMEOUT", 5*time.Second),
			PingTO:    getEnvAsDuration("ARCHIVE_DB_PING_TIMEOUT", 2*time.Second),
		},
		History: HistoryConfig{
			MaxRecords:       getEnvAsInt("HISTORY_MAX_RECORDS", 100),
			MaxUndoEntries:   getEnvAsInt("HISTORY_MAX_UNDO_ENTRIES", 50),
			AutoSaveInterval: getEnvAsDuration("HISTORY_AUTOSAVE_INTERVAL", 30*time.Second),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.History.MaxRecords <= 0 {
		return fmt.Errorf("HISTORY_MAX_RECORDS must be positive")
	}

	if c.History.AutoSaveInterval < time.Second {
		return fmt.Errorf("HISTORY_AUTOSAVE_INTERVAL must be at least 1s")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

package config

import (
	"fmt"
	"log"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	MigrationsPath string

	// Journal generation
	BatchThreshold   int
	SourceURLBase    string
	AccountsSeedFile string

	// HTTP surface
	RateLimit          string
	CORSAllowedOrigins string

	LogLevel slog.Level
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("BATCH_THRESHOLD", 1000)
	v.SetDefault("SOURCE_URL_BASE", "")
	v.SetDefault("ACCOUNTS_SEED_FILE", "configs/accounts.yaml")
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")

	// Environment variables override both the defaults and the .env file.
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:        v.GetString("PGSQL_URL"),
		Port:               v.GetString("PORT"),
		IsProduction:       v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:      v.GetBool("ENABLE_DB_CHECK"),
		MigrationsPath:     v.GetString("MIGRATIONS_PATH"),
		BatchThreshold:     v.GetInt("BATCH_THRESHOLD"),
		SourceURLBase:      strings.TrimSuffix(v.GetString("SOURCE_URL_BASE"), "/"),
		AccountsSeedFile:   v.GetString("ACCOUNTS_SEED_FILE"),
		RateLimit:          v.GetString("RATE_LIMIT"),
		CORSAllowedOrigins: v.GetString("CORS_ALLOWED_ORIGINS"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	if cfg.BatchThreshold < 1 {
		return nil, fmt.Errorf("BATCH_THRESHOLD must be positive, got %d", cfg.BatchThreshold)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

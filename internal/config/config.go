package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration sourced from the environment.
// Domain settings (tickers, sectors, signal parameters) live in the
// user-editable settings file, see Store.
type Config struct {
	Port         int
	LogLevel     string
	DevMode      bool
	DatabasePath string
	SettingsPath string
	DataDir      string

	// Report dispatch
	SlackWebhook string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string
	EmailTo      string

	// News providers
	NewsAPIKey string
	FinnhubKey string

	// Assistant
	GeminiAPIKey string

	// Off-box backup (optional; empty bucket disables backups)
	S3Bucket string
	S3Region string
	S3Prefix string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8080),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		DatabasePath: getEnv("DATABASE_PATH", "./data/advisor.db"),
		SettingsPath: getEnv("SETTINGS_PATH", "./data/settings.yaml"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SlackWebhook: getEnv("SLACK_WEBHOOK", ""),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPass:     getEnv("SMTP_PASS", ""),
		EmailTo:      getEnv("EMAIL_TO", ""),
		NewsAPIKey:   getEnv("NEWSAPI_KEY", ""),
		FinnhubKey:   getEnv("FINNHUB_KEY", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		S3Bucket:     getEnv("BACKUP_S3_BUCKET", ""),
		S3Region:     getEnv("BACKUP_S3_REGION", "eu-central-1"),
		S3Prefix:     getEnv("BACKUP_S3_PREFIX", "advisor"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.SettingsPath == "" {
		return fmt.Errorf("SETTINGS_PATH is required")
	}

	// News/AI keys and dispatch targets are optional: without them the
	// related features report themselves as unconfigured instead of failing.
	return nil
}

// SMTPConfigured reports whether email dispatch is fully configured.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != "" && c.EmailTo != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

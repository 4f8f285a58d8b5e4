package config

import (
	"os"
	"strconv"
	"time"

	"sheetchat/internal/errors"
)

// DefaultGeminiModel is the hosted model every chat request goes to.
const DefaultGeminiModel = "gemini-2.0-flash"

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	AI       AIConfig
	Server   ServerConfig
	Session  SessionConfig
	LogLevel string
}

// DatabaseConfig holds the optional usage-ledger connection settings.
// An empty URL disables the ledger.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a database was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// AIConfig holds the hosted model settings
type AIConfig struct {
	// GeminiKey may be empty; requests then fail at call time, not at startup.
	GeminiKey      string
	GeminiModel    string
	GeminiBaseURL  string
	RequestTimeout time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// SessionConfig holds per-browser-session settings
type SessionConfig struct {
	UploadStepDelay time.Duration
	TTL             time.Duration
	JanitorInterval time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		AI:       loadAIConfig(),
		Server:   loadServerConfig(),
		Session:  loadSessionConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadAIConfig() AIConfig {
	return AIConfig{
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnvOrDefault("GEMINI_MODEL", DefaultGeminiModel),
		GeminiBaseURL:  os.Getenv("GEMINI_BASE_URL"),
		RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		UploadStepDelay: getEnvDurationOrDefault("UPLOAD_STEP_DELAY", 200*time.Millisecond),
		TTL:             getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),
		JanitorInterval: getEnvDurationOrDefault("SESSION_JANITOR_INTERVAL", time.Minute),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid("PORT must be numeric")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid("GIN_MODE must be one of debug, release, test")
	}
	if config.Session.UploadStepDelay < 0 {
		return errors.ConfigInvalid("UPLOAD_STEP_DELAY must not be negative")
	}
	if config.Session.TTL <= 0 {
		return errors.ConfigInvalid("SESSION_TTL must be positive")
	}
	if config.Session.JanitorInterval <= 0 {
		return errors.ConfigInvalid("SESSION_JANITOR_INTERVAL must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate re-checks the configuration, for instance after CLI overrides
func (c *Config) Validate() error {
	return validateConfig(c)
}

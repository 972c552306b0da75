package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"
)

// Transaction sources.
const (
	SourceHelius   = "helius"
	SourceRPC      = "rpc"
	SourcePostgres = "postgres"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Transaction source configuration
	Source        string
	HeliusAPIKey  string
	HeliusBaseURL string
	SolanaRPCURL  string
	DatabaseURL   string
	FetchLimit    int

	// Summary configuration
	DefaultWindowHours float64
	DisplayTimezone    string
	ExplorerTxURL      string

	// NATS configuration; empty disables publishing
	NATSURL string

	// Temporal configuration
	TemporalHost      string
	TemporalNamespace string
	TemporalTaskQueue string

	// Schedule configuration
	DefaultScheduleInterval time.Duration
	MinScheduleInterval     time.Duration
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.Source = getEnvOrDefault("SOURCE", SourceHelius)
	cfg.HeliusAPIKey = os.Getenv("HELIUS_API_KEY")
	cfg.HeliusBaseURL = getEnvOrDefault("HELIUS_BASE_URL", "https://api.helius.xyz")
	cfg.SolanaRPCURL = os.Getenv("SOLANA_RPC_URL")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	limit, err := parseInt("FETCH_LIMIT", 100)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.FetchLimit = limit
	}

	hours, err := parseFloat("DEFAULT_WINDOW_HOURS", 24)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.DefaultWindowHours = hours
	}

	cfg.DisplayTimezone = getEnvOrDefault("DISPLAY_TIMEZONE", "Asia/Kolkata")
	cfg.ExplorerTxURL = getEnvOrDefault("EXPLORER_TX_URL", "https://solscan.io/tx/")

	cfg.NATSURL = os.Getenv("NATS_URL")

	cfg.TemporalHost = getEnvOrDefault("TEMPORAL_HOST", "localhost:7233")
	cfg.TemporalNamespace = getEnvOrDefault("TEMPORAL_NAMESPACE", "default")
	cfg.TemporalTaskQueue = getEnvOrDefault("TEMPORAL_TASK_QUEUE", "walletpulse-summaries")

	defaultInterval, err := parseDuration("DEFAULT_SCHEDULE_INTERVAL", "1h")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.DefaultScheduleInterval = defaultInterval
	}

	minInterval, err := parseDuration("MIN_SCHEDULE_INTERVAL", "5m")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.MinScheduleInterval = minInterval
	}

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	switch c.Source {
	case SourceHelius:
		if c.HeliusAPIKey == "" {
			errs = append(errs, fmt.Errorf("HELIUS_API_KEY is required when SOURCE=%s", SourceHelius))
		}
	case SourceRPC:
		if c.SolanaRPCURL == "" {
			errs = append(errs, fmt.Errorf("SOLANA_RPC_URL is required when SOURCE=%s", SourceRPC))
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required when SOURCE=%s", SourcePostgres))
		}
	default:
		errs = append(errs, fmt.Errorf("SOURCE must be one of %s, %s, %s (got %q)", SourceHelius, SourceRPC, SourcePostgres, c.Source))
	}

	if c.FetchLimit < 1 || c.FetchLimit > 100 {
		errs = append(errs, fmt.Errorf("FETCH_LIMIT must be between 1 and 100"))
	}

	if c.DefaultWindowHours < 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_WINDOW_HOURS cannot be negative"))
	}

	if _, err := time.LoadLocation(c.DisplayTimezone); err != nil {
		errs = append(errs, fmt.Errorf("DISPLAY_TIMEZONE: %w", err))
	}

	if c.MinScheduleInterval > c.DefaultScheduleInterval {
		errs = append(errs, fmt.Errorf("MIN_SCHEDULE_INTERVAL (%v) cannot be greater than DEFAULT_SCHEDULE_INTERVAL (%v)",
			c.MinScheduleInterval, c.DefaultScheduleInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}

	return nil
}

// Location returns the display time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

// parseFloat parses a float from an environment variable or uses a default.
func parseFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", key, value, err)
	}
	return result, nil
}

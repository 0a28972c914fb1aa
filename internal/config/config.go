package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for our application
type Config struct {
	DiscordToken string
	DatabaseDSN  string

	// Presence core
	DebounceWindow time.Duration // min gap between notifications per gate scope
	GateRetention  time.Duration // how long stale gate entries survive
	SweepInterval  time.Duration

	// Legacy single-guild fallback for guilds without stored settings.
	// Both must be set for the fallback to apply.
	FallbackPingChannelID string
	FallbackPingRoleID    string

	// Commands
	CommandPrefix         string
	ParentalControlRoleID string

	// Sentiment (LLM) scorer; the command is disabled when APIBase is empty.
	LLMAPIBase string
	LLMAPIKey  string
	LLMModel   string

	// Observability
	MetricsAddr string
	LogFile     string
}

const (
	defaultDebounceWindow = 30 * time.Second
	defaultGateRetention  = 10 * time.Minute
	defaultSweepInterval  = time.Minute
	defaultCommandPrefix  = "!"
	defaultLLMModel       = "llama-3.3-70b-versatile"
	defaultMetricsAddr    = ":9090"
)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// .env file is optional, continue with environment variables
	}

	config := &Config{
		DiscordToken:          os.Getenv("DISCORD_TOKEN"),
		DatabaseDSN:           os.Getenv("DATABASE_DSN"),
		DebounceWindow:        defaultDebounceWindow,
		GateRetention:         defaultGateRetention,
		SweepInterval:         defaultSweepInterval,
		FallbackPingChannelID: os.Getenv("VCPING_CHANNEL_ID"),
		FallbackPingRoleID:    os.Getenv("VCPING_ROLE_ID"),
		CommandPrefix:         defaultCommandPrefix,
		ParentalControlRoleID: os.Getenv("PARENTAL_CONTROL_ROLE_ID"),
		LLMAPIBase:            os.Getenv("LLM_API_BASE"),
		LLMAPIKey:             os.Getenv("LLM_API_KEY"),
		LLMModel:              defaultLLMModel,
		MetricsAddr:           defaultMetricsAddr,
		LogFile:               os.Getenv("LOG_FILE"),
	}

	if config.DiscordToken == "" {
		return nil, &ConfigError{Field: "DISCORD_TOKEN", Message: "DISCORD_TOKEN is required"}
	}

	if config.DatabaseDSN == "" {
		return nil, &ConfigError{Field: "DATABASE_DSN", Message: "DATABASE_DSN is required"}
	}

	if v := os.Getenv("VCPING_DEBOUNCE_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, &ConfigError{Field: "VCPING_DEBOUNCE_WINDOW", Message: fmt.Sprintf("invalid duration %q", v)}
		}
		config.DebounceWindow = d
	}

	if v := os.Getenv("VCPING_GATE_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, &ConfigError{Field: "VCPING_GATE_RETENTION", Message: fmt.Sprintf("invalid duration %q", v)}
		}
		config.GateRetention = d
	}

	if v := os.Getenv("COMMAND_PREFIX"); v != "" {
		config.CommandPrefix = v
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		config.LLMModel = v
	}

	if v := os.Getenv("METRICS_ADDR"); v != "" {
		config.MetricsAddr = v
	}

	return config, nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

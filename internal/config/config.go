// Package config provides configuration for the agent engine.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the engine configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// LLM provider
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	DefaultModel    string
	MaxOutputTokens int

	// Timeouts and retries
	StepTimeout    time.Duration
	ToolRetryDelay time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		HTTPPort:        getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:     getEnv("DATABASE_URL", "file:agentcore.db?cache=shared&mode=rwc"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		DefaultModel:    getEnv("DEFAULT_MODEL", "gpt-4o-mini"),
		MaxOutputTokens: getEnvInt("MAX_OUTPUT_TOKENS", 1024),
		StepTimeout:     time.Duration(getEnvInt("STEP_TIMEOUT_MS", 30000)) * time.Millisecond,
		ToolRetryDelay:  time.Duration(getEnvInt("TOOL_RETRY_DELAY_MS", 250)) * time.Millisecond,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

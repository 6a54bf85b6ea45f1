package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	RedisURL string
	DataDir  string

	OracleProvider  string
	AnthropicAPIKey string
	OllamaURL       string
	ModelName       string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		DataDir:         getEnv("DATA_DIR", "./data"),
		OracleProvider:  strings.ToLower(getEnv("ORACLE_PROVIDER", "anthropic")),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
		ModelName:       getEnv("MODEL_NAME", "claude-sonnet-4-20250514"),
	}
}

// Validate checks that required settings for serving are present.
func (c *Config) Validate() error {
	switch c.OracleProvider {
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when using the anthropic provider")
		}
	case "ollama":
		if c.OllamaURL == "" {
			return fmt.Errorf("OLLAMA_URL is required when using the ollama provider")
		}
	default:
		return fmt.Errorf("unsupported ORACLE_PROVIDER %q (supported: anthropic, ollama)", c.OracleProvider)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

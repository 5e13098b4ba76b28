package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rmorell/keychat/internal/service/ai"
)

// Config aggregates every configurable knob of the service.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Log    LogConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	aiCfg, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: aiCfg, Log: logCfg}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig holds provider endpoints and fixed sampling parameters. API
// keys are never configured here, callers supply them per request.
type AIConfig struct {
	MaxTokens       *int
	Temperature     *float64
	OpenAIBaseURL   string
	OpenAIModel     string
	DeepSeekBaseURL string
	DeepSeekModel   string
}

// ProviderConfig assembles the provider adapter configuration.
func (c AIConfig) ProviderConfig() ai.Config {
	providers := ai.DefaultProviders()

	openAI := providers[ai.ProviderOpenAI]
	if c.OpenAIBaseURL != "" {
		openAI.BaseURL = c.OpenAIBaseURL
	}
	if c.OpenAIModel != "" {
		openAI.Model = c.OpenAIModel
	}
	providers[ai.ProviderOpenAI] = openAI

	deepSeek := providers[ai.ProviderDeepSeek]
	if c.DeepSeekBaseURL != "" {
		deepSeek.BaseURL = c.DeepSeekBaseURL
	}
	if c.DeepSeekModel != "" {
		deepSeek.Model = c.DeepSeekModel
	}
	providers[ai.ProviderDeepSeek] = deepSeek

	cfg := ai.Config{Providers: providers}
	if c.MaxTokens != nil {
		cfg.MaxTokens = int64(*c.MaxTokens)
	}
	if c.Temperature != nil {
		cfg.Temperature = *c.Temperature
	}
	return cfg
}

func loadAIConfig() (AIConfig, error) {
	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		MaxTokens:       maxTokens,
		Temperature:     temperature,
		OpenAIBaseURL:   strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		OpenAIModel:     strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
		DeepSeekBaseURL: strings.TrimSpace(os.Getenv("DEEPSEEK_BASE_URL")),
		DeepSeekModel:   strings.TrimSpace(os.Getenv("DEEPSEEK_MODEL")),
	}, nil
}

// LogConfig describes log output.
type LogConfig struct {
	Level  string
	Pretty bool
}

func loadLogConfig() (LogConfig, error) {
	pretty, err := parseBoolEnv("LOG_PRETTY", false)
	if err != nil {
		return LogConfig{}, err
	}

	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Pretty: pretty,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// Package config loads application configuration from environment variables.
// All variables use the EDUBOT_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Academic   AcademicConfig
	AI         AIConfig
	Chat       ChatConfig
	Log        LogConfig
	GuidesPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL runs
// the advisor with in-memory sessions.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL disables the
// academic record cache.
type CacheConfig struct {
	URL string
}

// AcademicConfig holds university records API settings.
type AcademicConfig struct {
	BaseURL     string
	CacheTTLSec int
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	OpenAI      OpenAIConfig
	DeepSeek    DeepSeekConfig
	Google      GoogleConfig
	DailyTokens int64 // generative token budget per student per day, 0 is unlimited
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey string
}

// DeepSeekConfig holds DeepSeek provider settings (OpenAI-compatible).
type DeepSeekConfig struct {
	APIKey string
}

// GoogleConfig holds Google Gemini provider settings.
type GoogleConfig struct {
	APIKey string
}

// ChatConfig holds WebSocket chat settings.
type ChatConfig struct {
	AllowedOrigins []string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with EDUBOT_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("EDUBOT_SERVER_PORT", 8080),
			Host: envStr("EDUBOT_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("EDUBOT_DATABASE_URL", ""),
			MaxConns: envInt("EDUBOT_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("EDUBOT_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL: envStr("EDUBOT_CACHE_URL", ""),
		},
		Academic: AcademicConfig{
			BaseURL:     envStr("EDUBOT_ACADEMIC_BASE_URL", ""),
			CacheTTLSec: envInt("EDUBOT_ACADEMIC_CACHE_TTL", 60),
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{
				APIKey: envStr("EDUBOT_AI_OPENAI_API_KEY", ""),
			},
			DeepSeek: DeepSeekConfig{
				APIKey: envStr("EDUBOT_AI_DEEPSEEK_API_KEY", ""),
			},
			Google: GoogleConfig{
				APIKey: envStr("EDUBOT_AI_GOOGLE_API_KEY", ""),
			},
			DailyTokens: int64(envInt("EDUBOT_AI_DAILY_TOKENS", 0)),
		},
		Chat: ChatConfig{
			AllowedOrigins: envList("EDUBOT_CHAT_ALLOWED_ORIGINS", []string{"*"}),
		},
		Log: LogConfig{
			Level:  envStr("EDUBOT_LOG_LEVEL", "info"),
			Format: envStr("EDUBOT_LOG_FORMAT", "json"),
		},
		GuidesPath: envStr("EDUBOT_GUIDES_PATH", "./guides"),
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Academic.BaseURL == "" {
		return fmt.Errorf("EDUBOT_ACADEMIC_BASE_URL is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("EDUBOT_SERVER_PORT must be 1-65535, got %d", c.Server.Port)
	}
	if len(c.Chat.AllowedOrigins) == 0 {
		return fmt.Errorf("EDUBOT_CHAT_ALLOWED_ORIGINS must not be empty")
	}
	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
// The advisor still answers record questions without one.
func (c *Config) HasAIProvider() bool {
	return c.AI.OpenAI.APIKey != "" ||
		c.AI.DeepSeek.APIKey != "" ||
		c.AI.Google.APIKey != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

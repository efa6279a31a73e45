package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the main configuration for NewsMarker
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Auth      AuthConfig      `json:"auth"`
	Log       LogConfig       `json:"log"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Features  FeatureConfig   `json:"features"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// AuthConfig contains authentication-related configuration
type AuthConfig struct {
	JWTSecret string        `json:"-"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `json:"level"`
}

// RateLimitConfig limits write requests per client IP
type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
}

// FeatureConfig contains feature-specific configuration
type FeatureConfig struct {
	Feeds     FeedsConfig     `json:"feeds"`
	AI        AIConfig        `json:"ai"`
	Bookmarks BookmarksConfig `json:"bookmarks"`
}

// FeedsConfig contains ingestion pipeline configuration
type FeedsConfig struct {
	Enabled              bool          `json:"enabled"`
	FetchInterval        time.Duration `json:"fetch_interval"`
	FetchOnStart         bool          `json:"fetch_on_start"`
	FetchTimeout         time.Duration `json:"fetch_timeout"`
	MaxEntriesPerFeed    int           `json:"max_entries_per_feed"`
	MaxConcurrentFetches int           `json:"max_concurrent_fetches"`
	UserAgent            string        `json:"user_agent"`
	SourcesFile          string        `json:"sources_file"`
	FetchSecret          string        `json:"-"`
}

// AIConfig contains categorizer configuration
type AIConfig struct {
	Provider   string        `json:"provider"`
	APIKey     string        `json:"-"`
	Model      string        `json:"model"`
	BaseURL    string        `json:"base_url"`
	Strategy   string        `json:"strategy"`
	BatchSize  int           `json:"batch_size"`
	BatchDelay time.Duration `json:"batch_delay"`
	Timeout    time.Duration `json:"timeout"`
}

// BookmarksConfig contains bookmark feature configuration
type BookmarksConfig struct {
	Enabled bool `json:"enabled"`
}

// AI providers and categorization strategies
const (
	AIProviderGemini = "gemini"
	AIProviderOllama = "ollama"
	AIProviderNone   = "none"

	StrategyPerArticle  = "per-article"
	StrategyPerCategory = "per-category"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	provider := strings.ToLower(getEnvOrDefault("NEWS_AI_PROVIDER", AIProviderGemini))

	config := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("NEWS_PORT", 4000),
			Host: getEnvOrDefault("NEWS_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnvOrDefault("NEWS_DB_DRIVER", "sqlite")),
			DSN:    getEnvOrDefault("NEWS_DB_DSN", "./newsmarker.db"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnvOrDefault("NEWS_JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("NEWS_TOKEN_TTL", 7*24*time.Hour),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("NEWS_LOG_LEVEL", "info"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("NEWS_RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("NEWS_RATE_LIMIT", 60),
		},
		Features: FeatureConfig{
			Feeds: FeedsConfig{
				Enabled:              getEnvAsBool("NEWS_ENABLE_FEEDS", true),
				FetchInterval:        getEnvAsDuration("NEWS_FETCH_INTERVAL", 30*time.Minute),
				FetchOnStart:         getEnvAsBool("NEWS_FETCH_ON_START", true),
				FetchTimeout:         getEnvAsDuration("NEWS_FETCH_TIMEOUT", 15*time.Second),
				MaxEntriesPerFeed:    getEnvAsInt("NEWS_MAX_ENTRIES_PER_FEED", 15),
				MaxConcurrentFetches: getEnvAsInt("NEWS_MAX_CONCURRENT_FETCHES", 0),
				UserAgent:            getEnvOrDefault("NEWS_USER_AGENT", "NewsMarker/1.0"),
				SourcesFile:          getEnvOrDefault("NEWS_SOURCES_FILE", ""),
				FetchSecret:          getEnvOrDefault("CRON_SECRET", ""),
			},
			AI: AIConfig{
				Provider:   provider,
				APIKey:     getEnvOrDefault("GEMINI_API_KEY", ""),
				Model:      getEnvOrDefault("NEWS_AI_MODEL", defaultModel(provider)),
				BaseURL:    getEnvOrDefault("OLLAMA_BASE_URL", "http://localhost:11434"),
				Strategy:   strings.ToLower(getEnvOrDefault("NEWS_AI_STRATEGY", StrategyPerCategory)),
				BatchSize:  getEnvAsInt("NEWS_AI_BATCH_SIZE", 15),
				BatchDelay: getEnvAsDuration("NEWS_AI_BATCH_DELAY", time.Second),
				Timeout:    getEnvAsDuration("NEWS_AI_TIMEOUT", 60*time.Second),
			},
			Bookmarks: BookmarksConfig{
				Enabled: getEnvAsBool("NEWS_ENABLE_BOOKMARKS", true),
			},
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func defaultModel(provider string) string {
	if provider == AIProviderOllama {
		return "llama3.2"
	}
	return "gemini-2.5-flash"
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per minute")
	}

	switch c.Features.AI.Provider {
	case AIProviderGemini, AIProviderOllama, AIProviderNone:
	default:
		return fmt.Errorf("unsupported AI provider: %s", c.Features.AI.Provider)
	}

	switch c.Features.AI.Strategy {
	case StrategyPerArticle, StrategyPerCategory:
	default:
		return fmt.Errorf("unsupported AI strategy: %s", c.Features.AI.Strategy)
	}

	if c.Features.AI.BatchSize < 1 {
		return fmt.Errorf("AI batch size must be at least 1")
	}

	if c.Features.AI.BatchDelay < 0 {
		return fmt.Errorf("AI batch delay cannot be negative")
	}

	return nil
}

// IsFeatureEnabled checks if a feature is enabled
func (c *Config) IsFeatureEnabled(featureName string) bool {
	switch strings.ToLower(featureName) {
	case "feeds":
		return c.Features.Feeds.Enabled
	case "bookmarks":
		return c.Features.Bookmarks.Enabled
	default:
		return false
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or bare seconds ("90")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

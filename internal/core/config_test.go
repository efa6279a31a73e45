package core

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("NEWS_JWT_SECRET", "test-secret")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if config.Server.Port != 4000 {
		t.Errorf("Expected port 4000, got %d", config.Server.Port)
	}
	if config.Database.Driver != DriverSQLite {
		t.Errorf("Expected sqlite driver, got %s", config.Database.Driver)
	}
	if config.Features.Feeds.FetchTimeout != 15*time.Second {
		t.Errorf("Expected 15s fetch timeout, got %v", config.Features.Feeds.FetchTimeout)
	}
	if config.Features.Feeds.MaxEntriesPerFeed != 15 {
		t.Errorf("Expected 15 entries per feed, got %d", config.Features.Feeds.MaxEntriesPerFeed)
	}
	if config.Features.Feeds.UserAgent != "NewsMarker/1.0" {
		t.Errorf("Unexpected user agent %q", config.Features.Feeds.UserAgent)
	}
	if config.Features.AI.Strategy != StrategyPerCategory {
		t.Errorf("Expected per-category strategy, got %s", config.Features.AI.Strategy)
	}
	if config.Features.AI.BatchSize != 15 || config.Features.AI.BatchDelay != time.Second {
		t.Errorf("Unexpected batch settings: %d / %v", config.Features.AI.BatchSize, config.Features.AI.BatchDelay)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("NEWS_JWT_SECRET", "test-secret")
	t.Setenv("NEWS_AI_PROVIDER", "ollama")
	t.Setenv("NEWS_AI_STRATEGY", "per-article")
	t.Setenv("NEWS_AI_BATCH_SIZE", "5")
	t.Setenv("NEWS_AI_BATCH_DELAY", "200ms")
	t.Setenv("NEWS_FETCH_INTERVAL", "600")
	t.Setenv("NEWS_ENABLE_BOOKMARKS", "off")
	t.Setenv("CRON_SECRET", "s3cret")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if config.Features.AI.Model != "llama3.2" {
		t.Errorf("Expected ollama default model, got %s", config.Features.AI.Model)
	}
	if config.Features.AI.BatchSize != 5 || config.Features.AI.BatchDelay != 200*time.Millisecond {
		t.Errorf("Unexpected batch settings: %d / %v", config.Features.AI.BatchSize, config.Features.AI.BatchDelay)
	}
	if config.Features.Feeds.FetchInterval != 10*time.Minute {
		t.Errorf("Expected bare seconds to parse, got %v", config.Features.Feeds.FetchInterval)
	}
	if config.IsFeatureEnabled("bookmarks") {
		t.Error("Expected bookmarks to be disabled")
	}
	if config.Features.Feeds.FetchSecret != "s3cret" {
		t.Errorf("Expected fetch secret from CRON_SECRET, got %q", config.Features.Feeds.FetchSecret)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"missing jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"bad provider", func(c *Config) { c.Features.AI.Provider = "openai" }},
		{"bad strategy", func(c *Config) { c.Features.AI.Strategy = "per-word" }},
		{"zero batch", func(c *Config) { c.Features.AI.BatchSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NEWS_JWT_SECRET", "test-secret")
			config, err := LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig returned error: %v", err)
			}
			tt.modify(config)
			if err := config.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

package models

import (
	"time"
)

// FetcherConfig holds configuration for the fetcher service
type FetcherConfig struct {
	UserAgent            string        `json:"user_agent"`
	Timeout              time.Duration `json:"timeout"`
	MaxEntriesPerFeed    int           `json:"max_entries_per_feed"`
	// MaxConcurrentFetches caps in-flight requests; 0 fetches every
	// source at once.
	MaxConcurrentFetches int           `json:"max_concurrent_fetches"`
}

// DefaultFetcherConfig returns default fetcher configuration
func DefaultFetcherConfig() *FetcherConfig {
	return &FetcherConfig{
		UserAgent:            "NewsMarker/1.0",
		Timeout:              15 * time.Second,
		MaxEntriesPerFeed:    15,
		MaxConcurrentFetches: 0,
	}
}

// CategorizerConfig holds configuration for AI tagging
type CategorizerConfig struct {
	Strategy   string        `json:"strategy"`
	BatchSize  int           `json:"batch_size"`
	BatchDelay time.Duration `json:"batch_delay"`
	Timeout    time.Duration `json:"timeout"`
}

// SchedulerConfig holds configuration for the scheduler service
type SchedulerConfig struct {
	UpdateInterval time.Duration `json:"update_interval"`
	FetchOnStart   bool          `json:"fetch_on_start"`
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		UpdateInterval: 30 * time.Minute,
		FetchOnStart:   true,
	}
}

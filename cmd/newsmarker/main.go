package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"newsmarker/internal/core"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	root := &cobra.Command{
		Use:           "newsmarker",
		Short:         "NewsMarker: RSS aggregation with AI tagging and bookmarks",
		Long:          "Fetches RSS and Atom feeds, tags articles with a generative model, caches them per category and serves the cache and per-user bookmarks over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		fetchCmd(),
		migrateCmd(),
		sourcesCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration from the environment and builds the
// process logger at the configured level.
func loadConfig() (*core.Config, *core.Logger, error) {
	config, err := core.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return config, core.NewLoggerWithLevel(config.Log.Level), nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"newsmarker/internal/core"
	"newsmarker/internal/docstore/migrations"
	"newsmarker/internal/features/feeds"
	"newsmarker/internal/server"
)

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Run one fetch cycle and exit",
		Long:  "Fetches every source, tags the articles and rewrites the category cache once. Intended for external cron.",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(ctx, config, logger)
			if err != nil {
				return err
			}
			defer srv.Close()

			result, err := srv.RunFetchCycle(ctx)
			if err != nil {
				return fmt.Errorf("fetch cycle failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cached %d articles successfully\n", result.TotalArticles)
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply document store migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := core.OpenDatabase(config.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			manager := migrations.NewManager(db, logger)

			if rollback, _ := cmd.Flags().GetBool("rollback"); rollback {
				return manager.Rollback(ctx)
			}
			if showStatus, _ := cmd.Flags().GetBool("status"); !showStatus {
				if err := manager.Migrate(ctx); err != nil {
					return err
				}
			}

			status, err := manager.Status(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d migration(s) applied\n", status.AppliedCount)
			for _, m := range status.Applied {
				fmt.Fprintf(out, "  %03d %s\n", m.Version, m.Name)
			}
			return nil
		},
	}
	cmd.Flags().Bool("status", false, "Only print applied migrations")
	cmd.Flags().Bool("rollback", false, "Roll back the most recent migration")
	return cmd
}

func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Print the configured feed sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, _, err := loadConfig()
			if err != nil {
				return err
			}

			sources, err := feeds.LoadSources(config.Features.Feeds.SourcesFile)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tSOURCE\tURL")
			for _, s := range sources {
				fmt.Fprintf(w, "%s\t%s\t%s\n", strings.ToUpper(string(s.Category)), s.Source, s.URL)
			}
			return w.Flush()
		},
	}
}

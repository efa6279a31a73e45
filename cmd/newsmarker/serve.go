package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"newsmarker/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the feed scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := loadConfig()
			if err != nil {
				return err
			}

			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				config.Server.Port = port
			}
			grace, _ := cmd.Flags().GetDuration("shutdown-timeout")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(ctx, config, logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(ctx)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					logger.Error("Server stopped", "error", err)
					srv.Shutdown(context.Background())
					return err
				}
			case <-ctx.Done():
				logger.Info("Received shutdown signal")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().Int("port", 0, "Override NEWS_PORT")
	cmd.Flags().Duration("shutdown-timeout", 15*time.Second, "How long to wait for in-flight requests and fetch cycles")
	return cmd
}

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mikey/site-categorizer/internal/client"
	"github.com/mikey/site-categorizer/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the categorization API over HTTP",
		Long: `Serve the categorization API over HTTP from the configured backend, so
other clients (including categorizer in real mode) can use it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd, func(
				handler http.Handler,
				c *client.Client,
				cfg *config.Config,
				logger *zap.Logger,
			) error {
				addr := cfg.GetServer().ListenAddress
				if cmd.Flags().Changed("listen") {
					addr = listen
				}
				return serve(cmd.Context(), addr, handler, c.Mode(), logger)
			})
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default server.listen_address)")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled
func serve(ctx context.Context, addr string, handler http.Handler, mode string, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("address", addr), zap.String("mode", mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/meshpanel/internal/cli"
	httpAdapter "github.com/aretw0/meshpanel/pkg/adapters/http"
	"github.com/aretw0/meshpanel/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control API",
	Long:  `Starts the panel as an HTTP server: a JSON control API, a server-sent event stream of surface and toolbar changes, and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		cmd.SetContext(sigCtx)

		metrics := observability.NewMetrics()
		e, err := setup(cmd, metrics)
		if err != nil {
			return err
		}
		defer e.close()

		addr := e.cfg.Listen
		if v, _ := cmd.Flags().GetString("listen"); v != "" {
			addr = v
		}

		handler, stop := httpAdapter.NewHandler(e.panel,
			httpAdapter.WithMetrics(metrics.Handler()),
			httpAdapter.WithLogger(e.logger),
			httpAdapter.WithLogsLimit(e.cfg.LogsLimit),
		)
		defer stop()

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			e.logger.Info("Starting meshpanel server", "address", srv.Addr, "api_url", e.cfg.APIURL)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sigCtx.Done():
			e.logger.Info("Start shutdown", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				e.logger.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			e.logger.Info("meshpanel server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides config)")
}

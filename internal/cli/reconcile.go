package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/clearance/internal/wire"
	"github.com/example/clearance/pkg/logger"
)

// ReconcileCmd returns the reconcile command
func ReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass",
		Long: `Recompute the status of every open clearance request from current facts
and write the ones that moved. With --id only that request is reconciled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(NewContext(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			adapter := wire.ReconcileAdapter()
			if id, _ := cmd.Flags().GetString("id"); id != "" {
				return adapter.Reconcile(ctx, id)
			}
			return adapter.RunPass(ctx)
		},
	}
	cmd.Flags().String("id", "", "Reconcile a single request")
	return cmd
}

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reconciliation driver and HTTP API",
		Long: `Serve the HTTP API and run reconciliation passes on the configured
interval and whenever upstream facts change, until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := wire.Config()
			if err != nil {
				return err
			}
			addr := cfg.Server.Addr
			if flag, _ := cmd.Flags().GetString("addr"); flag != "" {
				addr = flag
			}
			log := wire.Logger().Named("serve")

			ctx, stop := signal.NotifyContext(NewContext(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reconciler := wire.ReconciliationService()
			stopTrigger := wire.TriggerOnChange()
			defer stopTrigger()

			driverDone := make(chan error, 1)
			go func() { driverDone <- reconciler.Run(ctx) }()

			server := &http.Server{
				Addr:              addr,
				Handler:           wire.Router().Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			serverErr := make(chan error, 1)
			go func() {
				log.Info("listening", logger.String("addr", addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
				close(serverErr)
			}()

			select {
			case <-ctx.Done():
			case err := <-serverErr:
				if err != nil {
					stop()
					<-driverDone
					return fmt.Errorf("http server failed: %w", err)
				}
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warn("http shutdown incomplete", logger.Error(err))
			}
			return <-driverDone
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	return cmd
}

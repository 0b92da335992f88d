package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/devadigapratham/spoolkeeper/api"
	"github.com/devadigapratham/spoolkeeper/api/handlers"
	"github.com/devadigapratham/spoolkeeper/metrics"
)

func newServeCmd(v *viper.Viper, open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inventory over a local HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, func(a *app) error {
				return serve(cmd.Context(), a)
			})
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:8080", "HTTP listen address")
	cmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics (disable with --metrics=false)")
	v.BindPFlag("http_addr", cmd.Flags().Lookup("addr"))
	v.BindPFlag("metrics", cmd.Flags().Lookup("metrics"))
	return cmd
}

func serve(ctx context.Context, a *app) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handlers.NewHandler(a.store, a.themes, a.logger)
	h.Backend = a.cfg.Backend
	h.Ready = a.ready

	if a.cfg.Metrics {
		stop := metrics.TrackInventory(a.store)
		defer stop()
	}

	server := &http.Server{
		Addr:    a.cfg.HTTPAddr,
		Handler: api.SetupRouter(h, a.cfg.Metrics),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("addr", a.cfg.HTTPAddr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Handle shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Error shutting down HTTP server")
	}

	a.logger.Info("Shutdown complete")
	return nil
}

package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sitesketch/internal/api"
)

var (
	serveAddr    string
	serveCatalog string
	serveStored  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored sketches over HTTP",
	Long: `Serve the read-only sketch API, health checks and Prometheus metrics.

Routes:
  GET /health/live, /health/ready, /metrics
  GET /api/sketches/:id[/measurements|/estimate|/geojson]`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $SKETCH_ADDR)")
	serveCmd.Flags().StringVar(&serveCatalog, "catalog", "", "pricing catalog (default $PRICING_CATALOG)")
	serveCmd.Flags().BoolVar(&serveStored, "stored-estimates", false,
		"return the estimate stored at save time instead of repricing")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bridge, backend, err := openBridge(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	opts := []api.Option{api.WithLogger(log)}
	if p, ok := backend.(api.Pinger); ok {
		opts = append(opts, api.WithPinger(p))
	}
	if !serveStored {
		pricer, err := loadPricer(serveCatalog)
		if err != nil {
			return err
		}
		opts = append(opts, api.WithPricer(pricer))
	}
	srv := api.New(bridge, opts...)

	addr := serveAddr
	if addr == "" {
		addr = cfg.Addr
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(addr) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

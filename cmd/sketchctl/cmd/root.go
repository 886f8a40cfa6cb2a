package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sitesketch/internal/assets"
	"sitesketch/internal/config"
	"sitesketch/internal/logger"
	"sitesketch/internal/persist"
	"sitesketch/internal/pricing"
	"sitesketch/internal/store"
	"sitesketch/internal/version"
)

var (
	// Global flags
	envFile string
	verbose bool

	cfg config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sketchctl",
	Short: "Site sketch storage, measurement and estimate tool",
	Long: `Inspect and serve site sketches stored by the editor.

Examples:
  sketchctl serve                          # Serve the read-only HTTP API
  sketchctl measure 7f3c...                # List the measurements of a sketch
  sketchctl estimate --catalog prices.yaml 7f3c...
  sketchctl export -o site.geojson 7f3c...`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load(envFile)
		if verbose {
			log = logger.SetupWriter(os.Stderr, "debug", os.Getenv("LOG_FORMAT"))
		} else {
			log = logger.Setup()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file read before the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// openBridge opens the configured document store and wraps it in a
// persistence bridge. The caller closes the returned backend.
func openBridge(ctx context.Context, extra ...persist.BridgeOption) (*persist.Bridge, store.Backend, error) {
	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	opts := append([]persist.BridgeOption{persist.WithLogger(log)}, extra...)

	if cfg.MinIO.Endpoint != "" {
		a, err := assets.NewMinIOStore(ctx, cfg.MinIO)
		if err != nil {
			backend.Close()
			return nil, nil, err
		}
		opts = append(opts, persist.WithAssets(a))
	}
	return persist.NewBridge(backend, opts...), backend, nil
}

// loadPricer builds the pricing bridge from the catalog path, falling back
// to the configured catalog. Without a catalog shapes are priced by their
// own unit price only.
func loadPricer(path string) (*pricing.Bridge, error) {
	if path == "" {
		path = cfg.PricingCatalog
	}
	var catalog *pricing.Catalog
	if path != "" {
		c, err := pricing.LoadCatalog(path)
		if err != nil {
			return nil, err
		}
		catalog = c
	}
	return pricing.NewBridge(catalog, cfg.GSTRate), nil
}

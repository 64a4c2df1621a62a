// Package cmd defines the CLI commands for the sinaica executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aqmex/sinaica-scraper/internal/app"
	"github.com/aqmex/sinaica-scraper/internal/catalog"
	"github.com/aqmex/sinaica-scraper/internal/config"
	"github.com/aqmex/sinaica-scraper/internal/logging"
	"github.com/aqmex/sinaica-scraper/internal/pollutant"
)

var cfgFile string

// App is the slice of the application commands use. Declared as an interface
// so tests can inject a fake through the same context key.
type App interface {
	Catalog() *catalog.Catalog
	EnrichInPlace(ctx context.Context, stateName string, start time.Time, window pollutant.Window) ([]*catalog.Station, error)
	EnrichSnapshot(ctx context.Context, stateName string, start time.Time, window pollutant.Window) ([]*catalog.Station, error)
	Close(ctx context.Context)
}

// runtime carries the initialized services through the command context.
type runtime struct {
	app    App
	cfg    config.Config
	logger *zap.Logger
}

type runtimeKeyType string

const runtimeKey runtimeKeyType = "runtime"

// newRuntime is a variable so tests can replace the factory with a fake.
var newRuntime = func(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize application: %w", err)
	}
	return &runtime{app: a, cfg: cfg, logger: logger}, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sinaica",
		Short: "Scrapes air-quality data from the SINAICA portal.",
		Long: `sinaica retrieves the state/network/station catalog the SINAICA portal
embeds in its landing page and fetches per-station pollutant time series on
demand. The catalog is bootstrapped once before any subcommand runs.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey, rt))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if rt, ok := cmd.Context().Value(runtimeKey).(*runtime); ok && rt != nil {
				closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				rt.app.Close(closeCtx)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus SINAICA_* env)")

	cmd.AddCommand(newCatalogCmd())
	cmd.AddCommand(newEnrichCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func resolveRuntime(ctx context.Context) (*runtime, error) {
	rt, ok := ctx.Value(runtimeKey).(*runtime)
	if !ok || rt == nil {
		return nil, errors.New("application services not initialized")
	}
	return rt, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

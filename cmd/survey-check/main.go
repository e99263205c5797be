// Command survey-check loads the survey tables the way the dashboard does and
// reports reconciliation diagnostics or a chart's summary without starting a
// server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"survey-dashboard/internal/app"
	"survey-dashboard/internal/config"
	"survey-dashboard/internal/source"
	"survey-dashboard/internal/state"
	"survey-dashboard/internal/survey"
)

type globalOptions struct {
	dataDir     string
	domainsFile string
	verbose     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:           "survey-check",
		Short:         "Inspect reconciled survey data",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.dataDir, "data", "", "Directory of raw CSV tables (overrides SOURCE_DRIVER/SOURCE_DIR)")
	cmd.PersistentFlags().StringVar(&opts.domainsFile, "domains", "", "Domain configuration YAML (overrides DOMAINS_FILE)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log loading progress to stderr")

	cmd.AddCommand(newValidateCmd(&opts), newSummaryCmd(&opts), newExportCmd(&opts))
	return cmd
}

type loaded struct {
	cfg      *config.Config
	catalog  *survey.Catalog
	snapshot *state.Snapshot
}

// load reads configuration, applies flag overrides and builds the snapshot.
func load(ctx context.Context, opts *globalOptions) (*loaded, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.dataDir != "" {
		cfg.Source.Driver = config.DriverFS
		cfg.Source.Dir = opts.dataDir
	}
	if opts.domainsFile != "" {
		cfg.DomainsFile = opts.domainsFile
	}

	logger := zerolog.Nop()
	if opts.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	catalog, err := survey.LoadCatalog(cfg.DomainsFile)
	if err != nil {
		return nil, err
	}
	src, err := source.Open(ctx, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("opening %s source: %w", cfg.Source.Driver, err)
	}
	defer src.Close()

	snap, err := app.Load(ctx, src, catalog, &logger)
	if err != nil {
		return nil, err
	}
	return &loaded{cfg: cfg, catalog: catalog, snapshot: snap}, nil
}

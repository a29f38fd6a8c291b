package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/quill/pkg/api"
	"mercator-hq/quill/pkg/api/middleware"
	"mercator-hq/quill/pkg/cli"
	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/generation"
	"mercator-hq/quill/pkg/providerfactory"
	"mercator-hq/quill/pkg/server"
	"mercator-hq/quill/pkg/storage"
	"mercator-hq/quill/pkg/storage/retention"
	"mercator-hq/quill/pkg/telemetry/health"
	"mercator-hq/quill/pkg/telemetry/logging"
	"mercator-hq/quill/pkg/telemetry/metrics"
)

// healthReportInterval is how often provider health is copied into the
// provider health gauge.
const healthReportInterval = 15 * time.Second

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Quill API server",
	Long: `Start the Quill API server with the specified configuration.

The config file is watched while the server runs; provider and API key
changes are applied without a restart.

Examples:
  # Start with default config
  quill run

  # Start with custom config
  quill run --config /etc/quill/config.yaml

  # Override listen address
  quill run --listen 0.0.0.0:8080

  # Validate config without starting server
  quill run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, os.Stdout))
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	fmt.Fprintf(out, "Quill v%s\n", Version)
	fmt.Fprintf(out, "Loading configuration from: %s\n", cfgFile)

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	manager := providerfactory.NewManager(
		providerfactory.WithProviderOptions(providerfactory.WithSignObserver(collector.RecordSignature)),
		providerfactory.WithHealthChecks(),
	)
	defer manager.Close()

	if len(cfg.Providers) == 0 {
		logger.Warn("no providers configured")
	} else if err := manager.LoadFromConfig(cfg.Providers); err != nil {
		logger.Warn("some providers failed to initialize", "error", err)
	}
	fmt.Fprintf(out, "✓ Providers initialized (%d providers)\n", manager.ProviderCount())

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer store.Close()
	fmt.Fprintf(out, "✓ Store opened (%s)\n", cfg.Storage.Backend)

	service, err := generation.NewService(cfg.Generation, manager, store, generation.WithMetrics(collector))
	if err != nil {
		return cli.NewConfigError("generation", err.Error())
	}

	pruner := retention.NewPruner(store, retention.FromConfig(cfg.Storage.Retention), retention.WithMetrics(collector))
	if err := pruner.Start(ctx); err != nil {
		return cli.NewConfigError("storage.retention.prune_schedule", err.Error())
	}
	defer pruner.Stop()
	if next := pruner.NextPruning(); next != nil {
		logger.Debug("retention scheduler started", "next_pruning", next)
	}

	checker := health.New(0)
	checker.RegisterCheck("providers", api.ProvidersCheck(manager))
	checker.RegisterCheck("storage", api.StorageCheck(store))

	validator := middleware.NewAPIKeyValidator(cfg.Security.Authentication.Keys)
	handler := api.NewRouter(api.Options{
		Config:    cfg,
		Service:   service,
		Providers: manager,
		Collector: collector,
		Validator: validator,
		Checker:   checker,
		Version:   &health.VersionInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate},
	})
	srv := server.NewServer(&cfg.Server, handler, logger)
	watcher := config.NewWatcher(cfgFile, 0, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		return watcher.Watch(gctx, func(next *config.Config) {
			applyReload(logger, manager, validator, next)
		})
	})
	g.Go(func() error {
		reportProviderHealth(gctx, manager, collector, healthReportInterval)
		return nil
	})

	select {
	case <-srv.Ready():
		fmt.Fprintf(out, "✓ Server listening on %s\n", srv.Addr())
		fmt.Fprintln(out, "\nPress Ctrl+C to stop")
	case <-gctx.Done():
	}

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// applyReload pushes hot-reloadable settings into running components.
// Server, storage and generation settings need a restart.
func applyReload(logger *slog.Logger, manager *providerfactory.Manager, validator *middleware.APIKeyValidator, next *config.Config) {
	if err := manager.Reload(next.Providers); err != nil {
		logger.Warn("some providers failed to reload", "error", err)
	}
	validator.Replace(next.Security.Authentication.Keys)
	logger.Info("configuration applied",
		"providers", manager.ProviderCount(),
		"api_keys", len(next.Security.Authentication.Keys),
	)
}

type healthSource interface {
	GetHealthSummary() providerfactory.HealthSummary
}

// reportProviderHealth copies provider health into the metrics gauge until
// ctx is cancelled.
func reportProviderHealth(ctx context.Context, source healthSource, collector *metrics.Collector, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for name, health := range source.GetHealthSummary().Details {
			collector.UpdateProviderHealth(name, health.IsHealthy)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

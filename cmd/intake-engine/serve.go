package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit/archive"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/catalog"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/cli"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/config"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/orchestrator"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/server"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/telemetry/health"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/telemetry/metrics"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/telemetry/tracing"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the intake decision server",
	Long: `Start the intake decision HTTP server with the specified configuration.

The server loads the program catalog, opens the audit trail and serves
evaluation, catalog and audit endpoints, plus health probes and
Prometheus metrics. With catalog.watch enabled the catalog is reloaded
when its files change; a catalog that fails validation never replaces
the active one.

Examples:
  # Start with default config
  intake-engine serve

  # Start with custom config
  intake-engine serve --config /etc/intake/config.yaml

  # Override listen address
  intake-engine serve --listen 0.0.0.0:8080

  # Validate config and catalog without starting the server
  intake-engine serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config and catalog without starting the server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}

	logger, err := newLogger(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if serveFlags.dryRun {
		c, err := loadCatalog(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration valid\n✓ Catalog %s valid (%d programs, %d alternatives)\n",
			c.Version, len(c.Programs), len(c.Alternatives))
		return nil
	}

	printBanner(cmd, cfg)
	ctx := cmd.Context()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err)
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.Error("tracer shutdown failed", "error", err)
		}
	}()

	// Catalog
	manager := catalog.NewManager(catalog.ManagerConfig{
		Path:             cfg.Catalog.Path,
		DebounceInterval: cfg.Catalog.DebounceInterval,
	}, logger)
	manager.OnReload(func(ev catalog.ReloadEvent) {
		collector.RecordCatalogLoad(ev.Version, ev.Programs, ev.Alternatives, ev.Err)
	})
	if err := manager.Load(); err != nil {
		return cli.NewConfigError("catalog.path", err)
	}
	defer manager.Close()
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Catalog loaded (version %s)\n", manager.Current().Version)

	// Audit trail
	store, err := openStorage(&cfg.Audit)
	if err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("failed to open audit storage: %w", err))
	}
	defer store.Close()
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Audit trail opened (%s)\n", cfg.Audit.Backend)

	if cfg.Audit.Archive.Enabled {
		scheduler, err := startArchiver(ctx, store, &cfg.Audit.Archive, collector, logger)
		if err != nil {
			return cli.NewConfigError("audit.archive", err)
		}
		defer scheduler.Stop()
	}

	orch := orchestrator.New(
		audit.NewTrail(store, audit.WithLogger(logger)),
		orchestrator.WithMetrics(collector),
		orchestrator.WithTracer(tracer.Tracer()),
		orchestrator.WithLogger(logger),
	)

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	checker.RegisterCheck("catalog", health.CatalogCheck(manager))
	checker.RegisterCheck("audit_storage", health.AuditStorageCheck(store))

	srv, err := server.NewServer(server.Options{
		Config:       cfg,
		Orchestrator: orch,
		Catalogs:     manager,
		Metrics:      collector,
		Tracer:       tracer,
		Health:       checker,
		Build:        server.BuildInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate},
		Logger:       logger,
	})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if cfg.Catalog.Watch {
		g.Go(func() error {
			return manager.Watch(gctx)
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Listening on %s\n", cfg.Server.ListenAddress)

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("serve", err)
	}
	logger.Info("intake engine stopped")
	return nil
}

// startArchiver starts the scheduled audit archiver and reports each run
// to the metrics collector.
func startArchiver(ctx context.Context, store audit.Storage, cfg *config.ArchiveConfig, collector *metrics.Collector, logger *slog.Logger) (*archive.Scheduler, error) {
	archiver, err := archive.NewArchiver(store, &archive.Config{
		AfterDays: cfg.AfterDays,
		Schedule:  cfg.Schedule,
		Directory: cfg.Directory,
		Format:    cfg.Format,
	})
	if err != nil {
		return nil, err
	}

	scheduler := archive.NewScheduler(archiver)
	scheduler.OnRun(func(result *archive.Result, err error) {
		count := 0
		if result != nil {
			count = result.Count
		}
		collector.RecordArchiveRun(count, err)
	})
	if err := scheduler.Start(ctx); err != nil {
		return nil, err
	}
	if next := scheduler.NextRun(); next != nil {
		logger.Debug("audit archive scheduler started", "next_run", next)
	}
	return scheduler, nil
}

func printBanner(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "intake-engine v%s\n", Version)
	fmt.Fprintf(out, "Loading configuration from: %s\n", cfgFile)
	fmt.Fprintln(out, "✓ Configuration loaded")

	slog.Debug("catalog source", "path", cfg.Catalog.Path, "watch", cfg.Catalog.Watch)
	slog.Debug("audit backend", "backend", cfg.Audit.Backend, "archive", cfg.Audit.Archive.Enabled)
	if cfg.Telemetry.Tracing.Enabled {
		slog.Debug("tracing enabled", "endpoint", cfg.Telemetry.Tracing.Endpoint)
	}
}

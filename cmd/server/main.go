// Package main runs the dashboard service: the HTTP API, optional source
// import, the live feed consumer and the scheduled report writer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"unicorn-dashboard/internal/api"
	"unicorn-dashboard/internal/config"
	"unicorn-dashboard/internal/dashboard"
	"unicorn-dashboard/internal/feed"
	"unicorn-dashboard/internal/generator"
	"unicorn-dashboard/internal/ingestion"
	"unicorn-dashboard/internal/logging"
	"unicorn-dashboard/internal/observability"
	"unicorn-dashboard/internal/scheduler"
	chstore "unicorn-dashboard/internal/storage/clickhouse"
	"unicorn-dashboard/internal/storage/migrations"
	pgstore "unicorn-dashboard/internal/storage/postgres"
)

func main() {
	envFile := flag.String("env-file", ".env", "Optional .env file")
	addr := flag.String("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (overrides CLICKHOUSE_DSN)")
	feedURL := flag.String("feed-url", "", "Live feed WebSocket URL (overrides FEED_URL)")
	reportCron := flag.String("report-cron", "", "Report cron schedule (overrides REPORT_CRON)")
	outputDir := flag.String("output-dir", "", "Report output directory (overrides REPORT_DIR)")
	seed := flag.Int64("seed", 0, "Generator seed (overrides DASHBOARD_SEED)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	override(&cfg.HTTP.Addr, *addr)
	override(&cfg.Sources.PostgresDSN, *postgresDSN)
	override(&cfg.Sources.ClickhouseDSN, *clickhouseDSN)
	override(&cfg.Feed.URL, *feedURL)
	override(&cfg.Report.CronSchedule, *reportCron)
	override(&cfg.Report.OutputDir, *outputDir)
	if *seed != 0 {
		cfg.Dashboard.Seed = *seed
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server failed")
	}
	logger.Info("shutdown complete")
}

func override(dst *string, flagValue string) {
	if flagValue != "" {
		*dst = flagValue
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(cfg.Metrics.Namespace, reg)

	dash, err := dashboard.New(ctx, dashboard.Options{
		Seed: cfg.Dashboard.Seed,
		Generator: generator.Options{
			Population:       cfg.Dashboard.Population,
			ActivityCapacity: cfg.Dashboard.ActivityCapacity,
		},
		SkipSeed:           !cfg.SeedSynthetic(),
		RegistrationWindow: cfg.Dashboard.RegistrationWindow,
		CacheSize:          cfg.Dashboard.CacheSize,
		Metrics:            metrics,
		Logger:             logger,
	})
	if err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}

	runnerOpts, cleanup, err := openSources(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	runnerOpts.Sink = dash
	runner := ingestion.NewRunner(runnerOpts)

	if runnerOpts.Unicorns != nil || runnerOpts.Trend != nil {
		if _, err := runner.ImportSources(ctx); err != nil {
			return fmt.Errorf("import sources: %w", err)
		}
	}

	if cfg.Feed.URL != "" {
		client, err := feed.NewClient(ctx, cfg.Feed.URL, nil, logger, metrics)
		if err != nil {
			return fmt.Errorf("connect feed: %w", err)
		}
		defer client.Close()

		events, err := client.Subscribe(ctx, feed.Channels...)
		if err != nil {
			return fmt.Errorf("subscribe feed: %w", err)
		}
		go func() {
			if err := runner.Consume(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("feed consumer stopped")
			}
		}()
	}

	if cfg.Report.CronSchedule != "" {
		sched, err := scheduler.New(dash, scheduler.Options{
			Schedule:  cfg.Report.CronSchedule,
			OutputDir: cfg.Report.OutputDir,
			Metrics:   metrics,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		sched.Start()
		defer func() { <-sched.Stop().Done() }()
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewServer(dash, api.Options{Metrics: metrics, Gatherer: reg, Logger: logger}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTP.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openSources connects the configured external suppliers and runs their
// migrations. The returned cleanup closes every connection.
func openSources(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger logrus.FieldLogger) (ingestion.RunnerOptions, func(), error) {
	opts := ingestion.RunnerOptions{
		TrendMonths: cfg.Sources.TrendMonths,
		Metrics:     metrics,
		Logger:      logger,
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Sources.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Sources.PostgresDSN)
		if err != nil {
			return opts, cleanup, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgres(ctx, pool); err != nil {
			cleanup()
			return opts, func() {}, fmt.Errorf("postgres migrations: %w", err)
		}
		opts.Unicorns = pgstore.NewUnicornStore(pool, metrics)
		opts.Trades = pgstore.NewTradeStore(pool, metrics)
		logger.Info("postgres source enabled")
	}

	if cfg.Sources.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouse(ctx, cfg.Sources.ClickhouseDSN)
		if err != nil {
			cleanup()
			return opts, func() {}, fmt.Errorf("clickhouse: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		opts.Trend = chstore.NewTrendStore(conn, metrics)
		logger.Info("clickhouse trend source enabled")
	}

	return opts, cleanup, nil
}

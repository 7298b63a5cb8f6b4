// Package main writes a one-off dashboard report (dashboard.md and
// listings.csv) from a seeded dataset or the configured sources.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"unicorn-dashboard/internal/config"
	"unicorn-dashboard/internal/dashboard"
	"unicorn-dashboard/internal/derivation"
	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/generator"
	"unicorn-dashboard/internal/ingestion"
	"unicorn-dashboard/internal/logging"
	"unicorn-dashboard/internal/reporting"
	chstore "unicorn-dashboard/internal/storage/clickhouse"
	pgstore "unicorn-dashboard/internal/storage/postgres"
)

func main() {
	envFile := flag.String("env-file", ".env", "Optional .env file")
	outputDir := flag.String("output-dir", "", "Output directory (overrides REPORT_DIR)")
	seed := flag.Int64("seed", 0, "Generator seed (overrides DASHBOARD_SEED)")
	postgresDSN := flag.String("postgres-dsn", "", "Load unicorns and trades from PostgreSQL instead of generating them")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "Load the population trend from ClickHouse")
	breed := flag.String("breed", "", "Filter by breed")
	habitat := flag.String("habitat", "", "Filter by habitat")
	status := flag.String("status", "", "Filter by status")
	limit := flag.Int("limit", 0, "Maximum listing rows (0 = all)")
	stable := flag.Bool("stable", true, "Stamp the report with the data clock instead of wall time")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Report.OutputDir = *outputDir
	}
	if *seed != 0 {
		cfg.Dashboard.Seed = *seed
	}
	if *postgresDSN != "" {
		cfg.Sources.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Sources.ClickhouseDSN = *clickhouseDSN
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

	ctx := context.Background()

	dash, err := dashboard.New(ctx, dashboard.Options{
		Seed: cfg.Dashboard.Seed,
		Generator: generator.Options{
			Population:       cfg.Dashboard.Population,
			ActivityCapacity: cfg.Dashboard.ActivityCapacity,
		},
		SkipSeed:           !cfg.SeedSynthetic(),
		RegistrationWindow: cfg.Dashboard.RegistrationWindow,
		CacheSize:          cfg.Dashboard.CacheSize,
		Logger:             logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating dashboard: %v\n", err)
		os.Exit(1)
	}

	if err := importSources(ctx, cfg, dash); err != nil {
		fmt.Fprintf(os.Stderr, "Error importing sources: %v\n", err)
		os.Exit(1)
	}

	f := domain.FilterState{
		Breed:   domain.Breed(*breed),
		Habitat: domain.Habitat(*habitat),
		Status:  domain.Status(*status),
	}
	if err := dash.ReplaceFilter(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	page, err := dash.Page(derivation.Params{Limit: *limit})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building page: %v\n", err)
		os.Exit(1)
	}

	gen := reporting.NewGenerator()
	if *stable {
		asOf := page.AsOf
		gen = gen.WithClock(func() time.Time { return asOf })
	}
	paths, err := reporting.WriteFiles(cfg.Report.OutputDir, gen.Generate(page))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Dashboard report generated successfully:")
	for _, p := range paths {
		fmt.Printf("  - %s\n", p)
	}
}

// importSources loads the configured suppliers into dash. Nothing is
// imported when no DSN is set.
func importSources(ctx context.Context, cfg *config.Config, dash *dashboard.Dashboard) error {
	opts := ingestion.RunnerOptions{
		Sink:        dash,
		TrendMonths: cfg.Sources.TrendMonths,
	}

	if cfg.Sources.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Sources.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		opts.Unicorns = pgstore.NewUnicornStore(pool, nil)
		opts.Trades = pgstore.NewTradeStore(pool, nil)
	}

	if cfg.Sources.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.Sources.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect clickhouse: %w", err)
		}
		defer conn.Close()
		opts.Trend = chstore.NewTrendStore(conn, nil)
	}

	if opts.Unicorns == nil && opts.Trend == nil {
		return nil
	}
	result, err := ingestion.NewRunner(opts).ImportSources(ctx)
	if err != nil {
		return err
	}
	if result.Rejected > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d records rejected\n", result.Rejected)
	}
	return nil
}

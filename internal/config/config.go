// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config is the full settings surface of the server and report binaries.
type Config struct {
	HTTP      HTTPConfig
	Log       LogConfig
	Dashboard DashboardConfig
	Sources   SourcesConfig
	Feed      FeedConfig
	Report    ReportConfig
	Metrics   MetricsConfig
}

// HTTPConfig holds HTTP server options.
type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// DashboardConfig controls the dataset and derivation engine.
type DashboardConfig struct {
	Seed               int64         `env:"DASHBOARD_SEED" envDefault:"42"`
	Population         int           `env:"DASHBOARD_POPULATION" envDefault:"60"`
	ActivityCapacity   int           `env:"DASHBOARD_ACTIVITY_CAPACITY" envDefault:"20"`
	RegistrationWindow time.Duration `env:"DASHBOARD_REGISTRATION_WINDOW" envDefault:"24h"`
	CacheSize          int           `env:"DASHBOARD_CACHE_SIZE" envDefault:"128"`
	// SkipSeed starts empty; records come from the configured sources.
	SkipSeed bool `env:"DASHBOARD_SKIP_SEED"`
}

// SourcesConfig points at the optional external record suppliers.
type SourcesConfig struct {
	PostgresDSN   string `env:"POSTGRES_DSN"`
	ClickhouseDSN string `env:"CLICKHOUSE_DSN"`
	TrendMonths   int    `env:"TREND_MONTHS" envDefault:"12"`
}

// FeedConfig configures the live event stream. An empty URL disables it.
type FeedConfig struct {
	URL string `env:"FEED_URL"`
}

// ReportConfig configures scheduled and one-off reports.
type ReportConfig struct {
	OutputDir    string `env:"REPORT_DIR" envDefault:"reports"`
	CronSchedule string `env:"REPORT_CRON"`
}

// MetricsConfig names the Prometheus namespace.
type MetricsConfig struct {
	Namespace string `env:"METRICS_NAMESPACE" envDefault:"unicorn_dashboard"`
}

// Load reads environment variables, optionally seeded from envFile, and
// materializes a Config. A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SeedSynthetic reports whether the dashboard should start from the generated
// population. Records imported from Postgres replace it entirely.
func (c *Config) SeedSynthetic() bool {
	return !c.Dashboard.SkipSeed && c.Sources.PostgresDSN == ""
}

// Validate checks the loaded values for consistency.
func (c *Config) Validate() error {
	var problems []string

	if c.HTTP.Addr == "" {
		problems = append(problems, "HTTP_ADDR must not be empty")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("LOG_FORMAT %q must be json or text", c.Log.Format))
	}
	if c.Dashboard.Population < 0 {
		problems = append(problems, "DASHBOARD_POPULATION must not be negative")
	}
	if c.Dashboard.ActivityCapacity < 0 {
		problems = append(problems, "DASHBOARD_ACTIVITY_CAPACITY must not be negative")
	}
	if c.Dashboard.RegistrationWindow <= 0 {
		problems = append(problems, "DASHBOARD_REGISTRATION_WINDOW must be positive")
	}
	if c.Dashboard.CacheSize <= 0 {
		problems = append(problems, "DASHBOARD_CACHE_SIZE must be positive")
	}
	if c.Sources.TrendMonths <= 0 {
		problems = append(problems, "TREND_MONTHS must be positive")
	}
	if c.Report.CronSchedule != "" {
		if _, err := cron.ParseStandard(c.Report.CronSchedule); err != nil {
			problems = append(problems, fmt.Sprintf("REPORT_CRON: %v", err))
		}
	}
	if c.Metrics.Namespace == "" {
		problems = append(problems, "METRICS_NAMESPACE must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

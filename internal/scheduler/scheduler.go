// Package scheduler periodically writes dashboard reports to disk.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"unicorn-dashboard/internal/derivation"
	"unicorn-dashboard/internal/logging"
	"unicorn-dashboard/internal/observability"
	"unicorn-dashboard/internal/reporting"
	"unicorn-dashboard/internal/views"
)

// DefaultSchedule writes a report at the top of every hour.
const DefaultSchedule = "0 * * * *"

// PageSource builds the page a report is rendered from.
// *dashboard.Dashboard implements it.
type PageSource interface {
	Page(table derivation.Params) (*views.Page, error)
}

// Options configures a Scheduler.
type Options struct {
	Schedule  string // standard 5-field cron expression; default hourly
	OutputDir string
	Reports   *reporting.Generator
	Metrics   *observability.Metrics
	Logger    logrus.FieldLogger
}

// Scheduler manages the report cron job.
type Scheduler struct {
	cron      *cron.Cron
	pages     PageSource
	reports   *reporting.Generator
	outputDir string
	metrics   *observability.Metrics
	logger    logrus.FieldLogger

	mu      sync.Mutex // one report at a time
	lastRun time.Time
	runs    int
}

// New creates a scheduler. It returns an error if the schedule does not parse.
func New(pages PageSource, opts Options) (*Scheduler, error) {
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("scheduler: output dir is required")
	}
	if opts.Reports == nil {
		opts.Reports = reporting.NewGenerator()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	s := &Scheduler{
		cron:      cron.New(),
		pages:     pages,
		reports:   opts.Reports,
		outputDir: opts.OutputDir,
		metrics:   opts.Metrics,
		logger:    opts.Logger.WithField("component", "scheduler"),
	}

	if _, err := s.cron.AddFunc(opts.Schedule, s.runJob); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", opts.Schedule, err)
	}
	return s, nil
}

// Start starts the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")
	s.cron.Start()
}

// Stop stops scheduling and returns a context that is done once a running
// job has finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping scheduler")
	return s.cron.Stop()
}

// RunOnce renders and writes one report and returns the written paths.
func (s *Scheduler) RunOnce() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.pages.Page(derivation.Params{})
	if err != nil {
		return nil, fmt.Errorf("build page: %w", err)
	}
	report := s.reports.Generate(page)

	paths, err := reporting.WriteFiles(s.outputDir, report)
	if err != nil {
		return nil, err
	}

	s.lastRun = report.GeneratedAt
	s.runs++
	s.metrics.RecordReport(report.GeneratedAt)
	return paths, nil
}

// Stats returns the number of completed reports and when the last one ran.
func (s *Scheduler) Stats() (runs int, lastRun time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.lastRun
}

func (s *Scheduler) runJob() {
	start := time.Now()
	paths, err := s.RunOnce()
	if err != nil {
		s.logger.WithError(err).Error("report failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"files":    paths,
		"duration": time.Since(start),
	}).Info("report written")
}

// Package ingestion applies externally sourced records and live feed events
// through the dashboard's validated mutators.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/feed"
	"unicorn-dashboard/internal/logging"
	"unicorn-dashboard/internal/observability"
	"unicorn-dashboard/internal/storage"
)

// DefaultTrendMonths is the trend length requested from a TrendSource.
const DefaultTrendMonths = 12

// Sink receives validated mutations. *dashboard.Dashboard implements it.
type Sink interface {
	Insert(ctx context.Context, u *domain.Unicorn) error
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	AppendTrade(ctx context.Context, t *domain.TradeRecord) error
	SetTrend(ctx context.Context, points []domain.TrendPoint) error
}

// Runner imports records from sources and consumes feed events.
type Runner struct {
	sink        Sink
	unicorns    storage.UnicornSource
	trades      storage.TradeSource
	trend       storage.TrendSource
	trendMonths int
	now         func() time.Time
	metrics     *observability.Metrics
	logger      logrus.FieldLogger
}

// RunnerOptions contains configuration for creating a Runner.
// Any source may be nil.
type RunnerOptions struct {
	Sink        Sink
	Unicorns    storage.UnicornSource
	Trades      storage.TradeSource
	Trend       storage.TrendSource
	TrendMonths int              // Default: 12
	Now         func() time.Time // Trend end; default time.Now
	Metrics     *observability.Metrics
	Logger      logrus.FieldLogger
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	trendMonths := opts.TrendMonths
	if trendMonths == 0 {
		trendMonths = DefaultTrendMonths
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Runner{
		sink:        opts.Sink,
		unicorns:    opts.Unicorns,
		trades:      opts.Trades,
		trend:       opts.Trend,
		trendMonths: trendMonths,
		now:         now,
		metrics:     opts.Metrics,
		logger:      logger.WithField("component", "ingestion"),
	}
}

// ImportResult contains statistics from an import.
type ImportResult struct {
	Unicorns    int
	Trades      int
	TrendPoints int
	Rejected    int
	Duration    time.Duration
}

// ImportSources loads unicorns, then trades, then the trend. A record the
// sink rejects is logged and counted; a source failure aborts the import.
func (r *Runner) ImportSources(ctx context.Context) (*ImportResult, error) {
	start := time.Now()
	result := &ImportResult{}

	if r.unicorns != nil {
		records, err := r.unicorns.ListUnicorns(ctx)
		if err != nil {
			return result, fmt.Errorf("list unicorns: %w", err)
		}
		for _, u := range records {
			if r.report("source", "unicorn", r.sink.Insert(ctx, u)) {
				result.Unicorns++
			} else {
				result.Rejected++
			}
		}
	}

	if r.trades != nil {
		trades, err := r.trades.ListTrades(ctx)
		if err != nil {
			return result, fmt.Errorf("list trades: %w", err)
		}
		for _, t := range trades {
			if r.report("source", "trade", r.sink.AppendTrade(ctx, t)) {
				result.Trades++
			} else {
				result.Rejected++
			}
		}
	}

	if r.trend != nil {
		points, err := r.trend.MonthlyTrend(ctx, r.now(), r.trendMonths)
		if err != nil {
			return result, fmt.Errorf("monthly trend: %w", err)
		}
		if len(points) > 0 {
			if r.report("source", "trend", r.sink.SetTrend(ctx, points)) {
				result.TrendPoints = len(points)
			} else {
				result.Rejected++
			}
		}
	}

	result.Duration = time.Since(start)
	r.logger.WithFields(logrus.Fields{
		"unicorns": result.Unicorns,
		"trades":   result.Trades,
		"trend":    result.TrendPoints,
		"rejected": result.Rejected,
		"duration": result.Duration,
	}).Info("import complete")

	return result, nil
}

// Consume applies feed events until events is closed or ctx is done.
// Rejected events are logged and counted and never stop consumption.
func (r *Runner) Consume(ctx context.Context, events <-chan feed.Event) error {
	r.logger.Info("consuming live feed")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				r.logger.Info("live feed closed")
				return nil
			}
			_ = r.Apply(ctx, ev)
		}
	}
}

// Apply routes one feed event to the sink.
func (r *Runner) Apply(ctx context.Context, ev feed.Event) error {
	var err error
	switch {
	case ev.Type == feed.EventListing && ev.Unicorn != nil:
		err = r.sink.Insert(ctx, ev.Unicorn)
	case ev.Type == feed.EventStatus:
		err = r.sink.UpdateStatus(ctx, ev.UnicornID, ev.Status)
	case ev.Type == feed.EventTrade && ev.Trade != nil:
		err = r.sink.AppendTrade(ctx, ev.Trade)
	default:
		err = fmt.Errorf("feed event %q: %w", ev.Type, storage.ErrInvalidInput)
	}
	r.report("feed", string(ev.Type), err)
	return err
}

// report records the outcome of one mutation and reports whether the sink
// accepted it.
func (r *Runner) report(source, kind string, err error) bool {
	r.metrics.RecordImport(source, kind, err)
	if err == nil {
		return true
	}

	entry := r.logger.WithError(err).WithFields(logrus.Fields{"source": source, "kind": kind})
	if isRejection(err) {
		entry.Warn("record rejected")
	} else {
		entry.Error("record failed")
	}
	return false
}

// isRejection reports whether err is a validation outcome rather than a
// failure of the sink itself.
func isRejection(err error) bool {
	for _, target := range []error{
		storage.ErrDuplicateIdentifier,
		storage.ErrNotFound,
		storage.ErrInvalidTransition,
		storage.ErrDanglingReference,
		storage.ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Package dashboard wires the record store, filter state, activity feed and
// derivation engine into one independently constructed instance.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"unicorn-dashboard/internal/activity"
	"unicorn-dashboard/internal/derivation"
	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/filter"
	"unicorn-dashboard/internal/generator"
	"unicorn-dashboard/internal/idhash"
	"unicorn-dashboard/internal/logging"
	"unicorn-dashboard/internal/observability"
	"unicorn-dashboard/internal/storage"
	"unicorn-dashboard/internal/storage/memory"
	"unicorn-dashboard/internal/views"
)

// DefaultSeed is the generator seed used when Options.Seed is zero.
const DefaultSeed = 42

// Options configures a Dashboard. Zero values select defaults.
type Options struct {
	Seed      int64
	Generator generator.Options

	// Dataset, when set, is loaded instead of generating one from Seed.
	Dataset *generator.Dataset
	// SkipSeed starts from an empty store, for sourcing records externally.
	SkipSeed bool

	RegistrationWindow time.Duration
	CacheSize          int

	Metrics *observability.Metrics
	Logger  logrus.FieldLogger
}

// Dashboard is one dashboard instance. Instances never share state.
type Dashboard struct {
	mu sync.Mutex // serializes mutators so activity order matches store order

	store   *memory.RecordStore
	filters *filter.State
	feed    *activity.Feed
	engine  *derivation.Engine

	metrics *observability.Metrics
	log     logrus.FieldLogger
}

// New creates a dashboard and seeds it from the generator unless
// opts.SkipSeed is set.
func New(ctx context.Context, opts Options) (*Dashboard, error) {
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	d := &Dashboard{
		store:   memory.NewRecordStore(),
		filters: filter.NewState(),
		feed:    activity.NewFeed(opts.Generator.ActivityCapacity),
		metrics: opts.Metrics,
		log:     opts.Logger,
	}

	cfg := derivation.Config{
		RegistrationWindow: opts.RegistrationWindow,
		CacheSize:          opts.CacheSize,
	}
	if opts.Metrics != nil {
		cfg.Recorder = opts.Metrics
	}
	engine, err := derivation.NewEngine(d.store, d.filters, cfg)
	if err != nil {
		return nil, err
	}
	d.engine = engine

	if !opts.SkipSeed {
		ds := opts.Dataset
		if ds == nil {
			ds, err = generator.Generate(opts.Seed, opts.Generator)
			if err != nil {
				return nil, fmt.Errorf("generate dataset: %w", err)
			}
		}
		if err := generator.Seed(ctx, d.store, ds); err != nil {
			return nil, fmt.Errorf("seed store: %w", err)
		}
		// Entries are newest first; replay oldest first.
		for i := len(ds.Activity) - 1; i >= 0; i-- {
			d.feed.Append(ds.Activity[i])
		}
		d.log.WithFields(logrus.Fields{
			"seed":     ds.Seed,
			"unicorns": len(ds.Unicorns),
			"trades":   len(ds.Trades),
		}).Info("dashboard seeded")
	}

	d.updateGauges()
	return d, nil
}

// Insert adds a unicorn and records a listing entry.
func (d *Dashboard) Insert(ctx context.Context, u *domain.Unicorn) error {
	if u == nil {
		return fmt.Errorf("insert: nil unicorn: %w", storage.ErrInvalidInput)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.store.Insert(ctx, u)
	d.metrics.RecordMutation("insert", err)
	if err != nil {
		d.log.WithError(err).WithField("id", u.ID).Debug("insert rejected")
		return err
	}

	d.record(domain.ActivityListing, u.ID, activity.ListingText(u))
	return nil
}

// UpdateStatus moves a unicorn forward and records a bid or sale entry.
func (d *Dashboard) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.store.UpdateStatus(ctx, id, status)
	d.metrics.RecordMutation("update_status", err)
	if err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{"id": id, "status": status}).Debug("status update rejected")
		return err
	}

	u, ok := d.store.Snapshot().Lookup(id)
	if !ok {
		return fmt.Errorf("update %s: %w", id, storage.ErrNotFound)
	}
	switch status {
	case domain.StatusReserved:
		d.record(domain.ActivityBid, id, activity.BidText(u))
	case domain.StatusSold:
		d.record(domain.ActivityTrade, id, activity.SaleText(u))
	}
	return nil
}

// AppendTrade appends a completed trade and records a trade entry.
// A missing completion time defaults to the data clock, and a missing
// trade id is derived from the trade's content. t receives the defaults
// only when the trade is accepted.
func (d *Dashboard) AppendTrade(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil {
		return fmt.Errorf("append trade: nil trade: %w", storage.ErrInvalidInput)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	rec := *t
	if rec.CompletedAt.IsZero() || rec.TradeID == "" {
		snap := d.store.Snapshot()
		if rec.CompletedAt.IsZero() {
			rec.CompletedAt = snap.AsOf
		}
		if rec.TradeID == "" {
			rec.TradeID = idhash.ComputeTradeID(rec.UnicornID, rec.CompletedAt.UnixMilli(), rec.Value, len(snap.Trades))
		}
	}

	err := d.store.AppendTrade(ctx, &rec)
	d.metrics.RecordMutation("append_trade", err)
	if err != nil {
		d.log.WithError(err).WithField("trade_id", rec.TradeID).Debug("trade rejected")
		return err
	}

	*t = rec
	d.record(domain.ActivityTrade, rec.UnicornID, activity.TradeText(&rec))
	return nil
}

// SetTrend replaces the population trend series.
func (d *Dashboard) SetTrend(ctx context.Context, points []domain.TrendPoint) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.store.SetTrend(ctx, points)
	d.metrics.RecordMutation("set_trend", err)
	if err == nil {
		d.updateGauges()
	}
	return err
}

// SetFilter sets one filter dimension.
func (d *Dashboard) SetFilter(dim domain.Dimension, value string) error {
	err := d.filters.Set(dim, value)
	d.metrics.RecordFilterChange(string(dim), err)
	return err
}

// ClearFilter unsets one filter dimension.
func (d *Dashboard) ClearFilter(dim domain.Dimension) error {
	err := d.filters.Clear(dim)
	d.metrics.RecordFilterChange(string(dim), err)
	return err
}

// ReplaceFilter swaps in a whole filter selection at once.
func (d *Dashboard) ReplaceFilter(f domain.FilterState) error {
	err := d.filters.Replace(f)
	d.metrics.RecordFilterChange("all", err)
	return err
}

// ResetFilter clears every filter dimension.
func (d *Dashboard) ResetFilter() {
	d.filters.Reset()
	d.metrics.RecordFilterChange("all", nil)
}

// Filter returns the active filter selection.
func (d *Dashboard) Filter() domain.FilterState {
	return d.filters.Current()
}

// Compute runs one derivation.
func (d *Dashboard) Compute(kind derivation.Kind, params derivation.Params) (derivation.Result, error) {
	return d.engine.Compute(kind, params)
}

// Page builds the full widget projection with the given table page. Every
// widget reads the same store snapshot and filter selection.
func (d *Dashboard) Page(table derivation.Params) (*views.Page, error) {
	d.mu.Lock()
	in := d.engine.Capture()
	entries := d.feed.Entries()
	d.mu.Unlock()

	return views.BuildPage(d.engine, in, entries, table)
}

// Snapshot returns a read-only copy of the record store.
func (d *Dashboard) Snapshot() *storage.Snapshot {
	return d.store.Snapshot()
}

// Activity returns the activity feed, newest first.
func (d *Dashboard) Activity() []domain.ActivityEntry {
	return d.feed.Entries()
}

// record appends an activity entry stamped with the data clock.
// Callers hold d.mu.
func (d *Dashboard) record(category domain.ActivityCategory, recordID, text string) {
	at := d.store.Snapshot().AsOf
	d.feed.Record(category, recordID, text, at)
	d.updateGauges()
}

func (d *Dashboard) updateGauges() {
	if d.metrics == nil {
		return
	}
	snap := d.store.Snapshot()
	d.metrics.UpdateStore(len(snap.Unicorns), snap.Version)
	d.metrics.UpdateActivity(d.feed.Len())
}

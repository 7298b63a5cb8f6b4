// Package derivation computes dashboard metrics from a record store snapshot
// and the active filter selection.
package derivation

import (
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/filter"
	"unicorn-dashboard/internal/storage"
)

var (
	// ErrUnknownKind is returned for a derivation kind that does not exist.
	ErrUnknownKind = errors.New("unknown derivation kind")

	// ErrInconsistentSnapshot is returned when the store holds state that its
	// own validation would have rejected. Derivations never default around it.
	ErrInconsistentSnapshot = errors.New("inconsistent snapshot")
)

const (
	// DefaultRegistrationWindow is the new-registrations window.
	DefaultRegistrationWindow = 24 * time.Hour
	// DefaultCacheSize is the number of memoized results kept.
	DefaultCacheSize = 256
)

// Recorder observes derivation executions.
type Recorder interface {
	ObserveDerivation(kind string, cached bool, elapsed time.Duration)
}

// Config holds engine settings. Zero values select defaults.
type Config struct {
	RegistrationWindow time.Duration
	CacheSize          int
	Recorder           Recorder
}

// cacheKey identifies one derivation input tuple. Store and filter versions
// stand in for the inputs themselves, since snapshots are immutable.
type cacheKey struct {
	kind          Kind
	storeVersion  uint64
	filterVersion uint64
	params        Params
}

// Engine computes derivations on demand and memoizes them per input tuple.
type Engine struct {
	store    storage.RecordStore
	filters  *filter.State
	window   time.Duration
	cache    *lru.Cache[cacheKey, Result]
	recorder Recorder
}

// NewEngine creates an engine over store and filters.
func NewEngine(store storage.RecordStore, filters *filter.State, cfg Config) (*Engine, error) {
	if cfg.RegistrationWindow <= 0 {
		cfg.RegistrationWindow = DefaultRegistrationWindow
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}

	cache, err := lru.New[cacheKey, Result](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create derivation cache: %w", err)
	}

	return &Engine{
		store:    store,
		filters:  filters,
		window:   cfg.RegistrationWindow,
		cache:    cache,
		recorder: cfg.Recorder,
	}, nil
}

// Window returns the new-registrations window.
func (e *Engine) Window() time.Duration {
	return e.window
}

// Input pins the store snapshot and filter selection a group of derivations
// reads, so results computed against one Input are mutually consistent.
type Input struct {
	Snapshot      *storage.Snapshot
	Filter        domain.FilterState
	FilterVersion uint64
}

// Capture takes the current store snapshot and filter selection.
func (e *Engine) Capture() Input {
	f, version := e.filters.Snapshot()
	return Input{Snapshot: e.store.Snapshot(), Filter: f, FilterVersion: version}
}

// Compute runs one derivation against the current store and filter state.
func (e *Engine) Compute(kind Kind, params Params) (Result, error) {
	return e.ComputeAt(e.Capture(), kind, params)
}

// ComputeAt runs one derivation against in. Results for an identical
// (kind, store version, filter version, params) tuple are served from cache.
func (e *Engine) ComputeAt(in Input, kind Kind, params Params) (Result, error) {
	if !kind.IsValid() {
		return Result{}, fmt.Errorf("compute %q: %w", kind, ErrUnknownKind)
	}
	if params.Offset < 0 || params.Limit < 0 {
		return Result{}, fmt.Errorf("compute %s: offset %d limit %d: %w", kind, params.Offset, params.Limit, storage.ErrInvalidInput)
	}
	if in.Snapshot == nil {
		return Result{}, fmt.Errorf("compute %s: no snapshot: %w", kind, storage.ErrInvalidInput)
	}

	key := cacheKey{kind: kind, storeVersion: in.Snapshot.Version}
	if kind.filtered() {
		key.filterVersion = in.FilterVersion
	}
	if kind == KindTableRows {
		key.params = params
	}

	if r, ok := e.cache.Get(key); ok {
		e.observe(kind, true, 0)
		return r.clone(), nil
	}

	start := time.Now()
	r, err := compute(kind, params, in.Snapshot, in.Filter, e.window)
	if err != nil {
		return Result{}, fmt.Errorf("compute %s: %w", kind, err)
	}
	e.cache.Add(key, r)
	e.observe(kind, false, time.Since(start))
	return r.clone(), nil
}

func (e *Engine) observe(kind Kind, cached bool, elapsed time.Duration) {
	if e.recorder != nil {
		e.recorder.ObserveDerivation(kind.String(), cached, elapsed)
	}
}

// KPIs returns the headline metrics.
func (e *Engine) KPIs() (KPISummary, error) {
	r, err := e.Compute(KindKPISummary, Params{})
	if err != nil {
		return KPISummary{}, err
	}
	return *r.KPIs, nil
}

// HabitatDistribution returns the habitat shares of the filtered collection.
func (e *Engine) HabitatDistribution() ([]HabitatShare, error) {
	r, err := e.Compute(KindHabitatDistribution, Params{})
	return r.Shares, err
}

// BreedRanking returns the breed popularity ranking of the filtered collection.
func (e *Engine) BreedRanking() ([]BreedCount, error) {
	r, err := e.Compute(KindBreedRanking, Params{})
	return r.Ranking, err
}

// RegionDistribution returns per-region counts of the filtered collection.
func (e *Engine) RegionDistribution() ([]RegionCount, error) {
	r, err := e.Compute(KindRegionDistribution, Params{})
	return r.Regions, err
}

// Trend returns the population trend series.
func (e *Engine) Trend() ([]domain.TrendPoint, error) {
	r, err := e.Compute(KindTrendSeries, Params{})
	return r.Trend, err
}

// TableRows returns one page of the filtered table.
func (e *Engine) TableRows(offset, limit int) (TablePage, error) {
	r, err := e.Compute(KindTableRows, Params{Offset: offset, Limit: limit})
	if err != nil {
		return TablePage{}, err
	}
	return *r.Table, nil
}

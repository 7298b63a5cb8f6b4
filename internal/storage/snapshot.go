package storage

import (
	"time"

	"unicorn-dashboard/internal/domain"
)

// Snapshot is an immutable view of a RecordStore at one version.
// Slices are owned by the snapshot; callers must not modify them.
type Snapshot struct {
	// Version increases by one for every committed mutation.
	Version uint64
	// AsOf is the data clock: the latest of the reference time and every
	// registration or trade timestamp in the store.
	AsOf time.Time

	Unicorns []domain.Unicorn     // insertion order
	Trades   []domain.TradeRecord // append order
	Trend    []domain.TrendPoint

	index map[string]int
}

// NewSnapshot builds a snapshot over the given collections.
// The slices are retained, not copied.
func NewSnapshot(version uint64, asOf time.Time, unicorns []domain.Unicorn, trades []domain.TradeRecord, trend []domain.TrendPoint) *Snapshot {
	index := make(map[string]int, len(unicorns))
	for i := range unicorns {
		index[unicorns[i].ID] = i
	}
	return &Snapshot{
		Version:  version,
		AsOf:     asOf,
		Unicorns: unicorns,
		Trades:   trades,
		Trend:    trend,
		index:    index,
	}
}

// Lookup returns the unicorn with the given id.
func (s *Snapshot) Lookup(id string) (*domain.Unicorn, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.Unicorns[i], true
}

package storage

import (
	"context"
	"time"

	"unicorn-dashboard/internal/domain"
)

// RecordStore owns the canonical unicorn and trade collections.
// Every mutation either applies fully or leaves the store unchanged.
type RecordStore interface {
	// Insert adds a new unicorn. Returns ErrDuplicateIdentifier if the id exists.
	Insert(ctx context.Context, u *domain.Unicorn) error

	// UpdateStatus moves a unicorn forward in its lifecycle.
	// Returns ErrNotFound or ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id string, status domain.Status) error

	// AppendTrade appends a completed trade.
	// Returns ErrDanglingReference if the unicorn does not exist.
	AppendTrade(ctx context.Context, t *domain.TradeRecord) error

	// SetTrend replaces the population trend series.
	SetTrend(ctx context.Context, points []domain.TrendPoint) error

	// Snapshot returns a consistent read-only copy of the store.
	Snapshot() *Snapshot

	// Version returns the number of committed mutations.
	Version() uint64
}

// UnicornSource supplies population records from an external system.
type UnicornSource interface {
	// ListUnicorns returns all records ordered by registration time ASC, id ASC.
	ListUnicorns(ctx context.Context) ([]*domain.Unicorn, error)
}

// TradeSource supplies completed trades from an external system.
type TradeSource interface {
	// ListTrades returns all trades ordered by completion time ASC, trade id ASC.
	ListTrades(ctx context.Context) ([]*domain.TradeRecord, error)
}

// TrendSource supplies historical population counts.
type TrendSource interface {
	// MonthlyTrend returns up to months points ending at the month containing end.
	MonthlyTrend(ctx context.Context, end time.Time, months int) ([]domain.TrendPoint, error)
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/observability"
	"unicorn-dashboard/internal/storage"
)

// TradeStore reads and writes the trades table.
type TradeStore struct {
	pool    *Pool
	metrics *observability.Metrics
}

// NewTradeStore creates a new TradeStore. metrics may be nil.
func NewTradeStore(pool *Pool, metrics *observability.Metrics) *TradeStore {
	return &TradeStore{pool: pool, metrics: metrics}
}

// Compile-time interface check.
var _ storage.TradeSource = (*TradeStore)(nil)

// Insert adds a trade. Returns ErrDuplicateIdentifier if trade_id exists and
// ErrDanglingReference if the unicorn does not.
func (s *TradeStore) Insert(ctx context.Context, t *domain.TradeRecord) (err error) {
	defer func(start time.Time) { observe(s.metrics, "insert_trade", start, err) }(time.Now())

	query := `
		INSERT INTO trades (trade_id, unicorn_id, completed_at, value)
		VALUES ($1, $2, $3, $4::numeric)
	`
	_, err = s.pool.Exec(ctx, query, t.TradeID, t.UnicornID, t.CompletedAt.UTC(), t.Value.String())
	if err != nil {
		switch {
		case isDuplicateKeyError(err):
			return fmt.Errorf("insert trade %s: %w", t.TradeID, storage.ErrDuplicateIdentifier)
		case isForeignKeyError(err):
			return fmt.Errorf("insert trade %s: unicorn %q: %w", t.TradeID, t.UnicornID, storage.ErrDanglingReference)
		}
		return fmt.Errorf("insert trade %s: %w", t.TradeID, err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any error.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trades (trade_id, unicorn_id, completed_at, value)
		VALUES ($1, $2, $3, $4::numeric)
	`
	for _, t := range trades {
		if _, err := tx.Exec(ctx, query, t.TradeID, t.UnicornID, t.CompletedAt.UTC(), t.Value.String()); err != nil {
			switch {
			case isDuplicateKeyError(err):
				return fmt.Errorf("insert trade %s: %w", t.TradeID, storage.ErrDuplicateIdentifier)
			case isForeignKeyError(err):
				return fmt.Errorf("insert trade %s: %w", t.TradeID, storage.ErrDanglingReference)
			}
			return fmt.Errorf("insert trade %s: %w", t.TradeID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListTrades returns all trades ordered by completed_at ASC, trade_id ASC.
func (s *TradeStore) ListTrades(ctx context.Context) (out []*domain.TradeRecord, err error) {
	defer func(start time.Time) { observe(s.metrics, "list_trades", start, err) }(time.Now())

	query := `
		SELECT trade_id, unicorn_id, completed_at, value::text
		FROM trades
		ORDER BY completed_at ASC, trade_id ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t     domain.TradeRecord
			value string
		)
		if err := rows.Scan(&t.TradeID, &t.UnicornID, &t.CompletedAt, &value); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.CompletedAt = t.CompletedAt.UTC()
		if t.Value, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("parse value of trade %s: %w", t.TradeID, err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return out, nil
}

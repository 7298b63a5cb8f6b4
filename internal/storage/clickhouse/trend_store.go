package clickhouse

import (
	"context"
	"fmt"
	"time"

	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/observability"
	"unicorn-dashboard/internal/storage"
)

// TrendStore reads and writes monthly population counts.
type TrendStore struct {
	conn    *Conn
	metrics *observability.Metrics
}

// NewTrendStore creates a new TrendStore. metrics may be nil.
func NewTrendStore(conn *Conn, metrics *observability.Metrics) *TrendStore {
	return &TrendStore{conn: conn, metrics: metrics}
}

// Compile-time interface check.
var _ storage.TrendSource = (*TrendStore)(nil)

// InsertBulk upserts monthly counts. Rows for the same month are collapsed by
// ReplacingMergeTree, keeping the latest.
func (s *TrendStore) InsertBulk(ctx context.Context, points []domain.TrendPoint) (err error) {
	if len(points) == 0 {
		return nil
	}
	defer func(start time.Time) { observe(s.metrics, "insert_trend", start, err) }(time.Now())

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO population_monthly (month, population)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if p.Period.IsZero() || p.Value < 0 {
			_ = batch.Abort()
			return fmt.Errorf("insert trend %q: %w", p.Label, storage.ErrInvalidInput)
		}
		if err := batch.Append(monthStart(p.Period), uint64(p.Value)); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// MonthlyTrend returns up to months points ending at the month containing
// end, oldest first. Labels are abbreviated month names ("Jan").
func (s *TrendStore) MonthlyTrend(ctx context.Context, end time.Time, months int) (out []domain.TrendPoint, err error) {
	if months <= 0 {
		return nil, fmt.Errorf("monthly trend: months %d: %w", months, storage.ErrInvalidInput)
	}
	defer func(start time.Time) { observe(s.metrics, "monthly_trend", start, err) }(time.Now())

	last := monthStart(end)
	first := last.AddDate(0, -(months - 1), 0)

	rows, err := s.conn.Query(ctx, `
		SELECT month, population
		FROM population_monthly FINAL
		WHERE month >= ? AND month <= ?
		ORDER BY month ASC
	`, first, last)
	if err != nil {
		return nil, fmt.Errorf("query population_monthly: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			month      time.Time
			population uint64
		)
		if err := rows.Scan(&month, &population); err != nil {
			return nil, fmt.Errorf("scan population_monthly: %w", err)
		}
		month = monthStart(month)
		out = append(out, domain.TrendPoint{
			Label:  month.Format("Jan"),
			Period: month,
			Value:  float64(population),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate population_monthly: %w", err)
	}
	return out, nil
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

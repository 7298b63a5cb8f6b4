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

// UnicornStore reads and writes the unicorns table.
type UnicornStore struct {
	pool    *Pool
	metrics *observability.Metrics
}

// NewUnicornStore creates a new UnicornStore. metrics may be nil.
func NewUnicornStore(pool *Pool, metrics *observability.Metrics) *UnicornStore {
	return &UnicornStore{pool: pool, metrics: metrics}
}

// Compile-time interface check.
var _ storage.UnicornSource = (*UnicornStore)(nil)

// Insert adds a unicorn. Returns ErrDuplicateIdentifier if the id exists.
func (s *UnicornStore) Insert(ctx context.Context, u *domain.Unicorn) (err error) {
	defer func(start time.Time) { observe(s.metrics, "insert_unicorn", start, err) }(time.Now())

	query := `
		INSERT INTO unicorns (id, name, breed, habitat, region, status, value, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8)
	`
	_, err = s.pool.Exec(ctx, query,
		u.ID, u.Name, string(u.Breed), string(u.Habitat), string(u.Region), string(u.Status),
		u.Value.String(), u.RegisteredAt.UTC(),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("insert unicorn %s: %w", u.ID, storage.ErrDuplicateIdentifier)
		}
		return fmt.Errorf("insert unicorn %s: %w", u.ID, err)
	}
	return nil
}

// ListUnicorns returns all unicorns ordered by registered_at ASC, id ASC.
// Values are returned as stored; enumeration checks happen on import.
func (s *UnicornStore) ListUnicorns(ctx context.Context) (out []*domain.Unicorn, err error) {
	defer func(start time.Time) { observe(s.metrics, "list_unicorns", start, err) }(time.Now())

	query := `
		SELECT id, name, breed, habitat, region, status, value::text, registered_at
		FROM unicorns
		ORDER BY registered_at ASC, id ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query unicorns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			u                              domain.Unicorn
			breed, habitat, region, status string
			value                          string
		)
		if err := rows.Scan(&u.ID, &u.Name, &breed, &habitat, &region, &status, &value, &u.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan unicorn: %w", err)
		}
		u.Breed = domain.Breed(breed)
		u.Habitat = domain.Habitat(habitat)
		u.Region = domain.Region(region)
		u.Status = domain.Status(status)
		u.RegisteredAt = u.RegisteredAt.UTC()
		if u.Value, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("parse value of unicorn %s: %w", u.ID, err)
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unicorns: %w", err)
	}
	return out, nil
}

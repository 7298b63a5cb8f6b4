package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/storage"
	"unicorn-dashboard/internal/storage/postgres"
)

var base = time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

func testUnicorn(id string, age time.Duration) *domain.Unicorn {
	return &domain.Unicorn{
		ID:           id,
		Name:         "Starlight " + id,
		Breed:        domain.BreedCelestial,
		Habitat:      domain.HabitatWild,
		Region:       domain.RegionEU,
		Status:       domain.StatusAvailable,
		Value:        decimal.RequireFromString("84500.50"),
		RegisteredAt: base.Add(-age),
	}
}

func TestUnicornStore_InsertAndList(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewUnicornStore(pool, nil)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testUnicorn("#0002", time.Hour)))
	require.NoError(t, store.Insert(ctx, testUnicorn("#0001", 2*time.Hour)))

	err := store.Insert(ctx, testUnicorn("#0001", time.Minute))
	assert.ErrorIs(t, err, storage.ErrDuplicateIdentifier)

	got, err := store.ListUnicorns(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "#0001", got[0].ID, "ordered by registration time")
	assert.Equal(t, domain.BreedCelestial, got[0].Breed)
	assert.True(t, got[0].Value.Equal(decimal.RequireFromString("84500.50")))
	assert.True(t, got[0].RegisteredAt.Equal(base.Add(-2*time.Hour)))
	assert.Equal(t, time.UTC, got[0].RegisteredAt.Location())
}

func TestTradeStore_InsertAndList(t *testing.T) {
	pool := setupTestDB(t)
	unicorns := postgres.NewUnicornStore(pool, nil)
	trades := postgres.NewTradeStore(pool, nil)
	ctx := context.Background()

	require.NoError(t, unicorns.Insert(ctx, testUnicorn("#0001", time.Hour)))

	batch := []*domain.TradeRecord{
		{TradeID: "t2", UnicornID: "#0001", CompletedAt: base, Value: decimal.NewFromInt(92000)},
		{TradeID: "t1", UnicornID: "#0001", CompletedAt: base.Add(-time.Minute), Value: decimal.NewFromInt(85000)},
	}
	require.NoError(t, trades.InsertBulk(ctx, batch))

	err := trades.Insert(ctx, &domain.TradeRecord{TradeID: "t3", UnicornID: "#9999", CompletedAt: base, Value: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, storage.ErrDanglingReference)

	err = trades.Insert(ctx, batch[0])
	assert.ErrorIs(t, err, storage.ErrDuplicateIdentifier)

	got, err := trades.ListTrades(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].TradeID)
	assert.True(t, got[1].Value.Equal(decimal.NewFromInt(92000)))
}

func TestTradeStore_InsertBulkIsAtomic(t *testing.T) {
	pool := setupTestDB(t)
	unicorns := postgres.NewUnicornStore(pool, nil)
	trades := postgres.NewTradeStore(pool, nil)
	ctx := context.Background()

	require.NoError(t, unicorns.Insert(ctx, testUnicorn("#0001", time.Hour)))

	err := trades.InsertBulk(ctx, []*domain.TradeRecord{
		{TradeID: "ok", UnicornID: "#0001", CompletedAt: base, Value: decimal.NewFromInt(1)},
		{TradeID: "bad", UnicornID: "#9999", CompletedAt: base, Value: decimal.NewFromInt(1)},
	})
	assert.ErrorIs(t, err, storage.ErrDanglingReference)

	got, err := trades.ListTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

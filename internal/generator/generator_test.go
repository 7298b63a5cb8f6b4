package generator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/storage"
	"unicorn-dashboard/internal/storage/memory"
)

func TestGenerate_ByteIdenticalPerSeed(t *testing.T) {
	a, err := Generate(42, Options{})
	require.NoError(t, err)
	b, err := Generate(42, Options{})
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)

	assert.Equal(t, string(ja), string(jb))
	assert.GreaterOrEqual(t, len(a.Unicorns), MinPopulation)
	assert.Len(t, a.Trend, TrendMonths)
	assert.NotEmpty(t, a.Activity)
}

func TestGenerate_DifferentSeedsDiffer(t *testing.T) {
	a, err := Generate(1, Options{})
	require.NoError(t, err)
	b, err := Generate(2, Options{})
	require.NoError(t, err)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	assert.NotEqual(t, string(ja), string(jb))
}

func TestGenerate_RejectsSmallPopulation(t *testing.T) {
	_, err := Generate(42, Options{Population: 10})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGenerate_SelfConsistent(t *testing.T) {
	ds, err := Generate(42, Options{Population: 80})
	require.NoError(t, err)
	require.Len(t, ds.Unicorns, 80)

	byID := make(map[string]domain.Unicorn)
	for i, u := range ds.Unicorns {
		_, dup := byID[u.ID]
		require.False(t, dup, "duplicate id %s", u.ID)
		byID[u.ID] = u

		assert.True(t, u.Breed.IsValid())
		assert.True(t, u.Habitat.IsValid())
		assert.True(t, u.Region.IsValid())
		assert.True(t, u.Status.IsValid())
		assert.False(t, u.Value.IsNegative())
		assert.False(t, u.RegisteredAt.After(ds.ReferenceTime))
		if i > 0 {
			assert.False(t, u.RegisteredAt.Before(ds.Unicorns[i-1].RegisteredAt), "ids should follow registration order")
		}
	}

	withTrade := make(map[string]bool)
	for i, tr := range ds.Trades {
		u, ok := byID[tr.UnicornID]
		require.True(t, ok, "trade %s references unknown unicorn %s", tr.TradeID, tr.UnicornID)
		assert.NotEqual(t, domain.StatusAvailable, u.Status)
		assert.False(t, tr.CompletedAt.Before(u.RegisteredAt))
		assert.False(t, tr.CompletedAt.After(ds.ReferenceTime))
		if i > 0 {
			assert.False(t, tr.CompletedAt.Before(ds.Trades[i-1].CompletedAt))
		}
		withTrade[tr.UnicornID] = true
	}
	for _, u := range ds.Unicorns {
		if u.Status != domain.StatusAvailable {
			assert.True(t, withTrade[u.ID], "%s is %s but has no trade", u.ID, u.Status)
		}
	}

	for _, e := range ds.Activity {
		if e.RecordID == "" {
			assert.Equal(t, domain.ActivityAlert, e.Category)
			continue
		}
		_, ok := byID[e.RecordID]
		assert.True(t, ok, "activity %q references unknown unicorn %s", e.Description, e.RecordID)
	}
}

func TestGenerate_ActivityBoundedNewestFirst(t *testing.T) {
	ds, err := Generate(7, Options{ActivityCapacity: 8})
	require.NoError(t, err)
	require.Len(t, ds.Activity, 8)

	for i := 1; i < len(ds.Activity); i++ {
		assert.False(t, ds.Activity[i].Timestamp.After(ds.Activity[i-1].Timestamp), "activity not newest-first at %d", i)
	}
}

func TestGenerate_TrendShape(t *testing.T) {
	ds, err := Generate(42, Options{})
	require.NoError(t, err)

	trend := ds.Trend
	require.Len(t, trend, TrendMonths)

	last := trend[len(trend)-1]
	assert.Equal(t, float64(len(ds.Unicorns)), last.Value)
	assert.Equal(t, "Jan", last.Label)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), last.Period)
	assert.Equal(t, "Feb", trend[0].Label)

	// Rising on average: the second half outweighs the first.
	var first, second float64
	for i, p := range trend {
		if i < TrendMonths/2 {
			first += p.Value
		} else {
			second += p.Value
		}
	}
	assert.Greater(t, second, first)
}

func TestGenerate_RecentRegistrations(t *testing.T) {
	ds, err := Generate(42, Options{})
	require.NoError(t, err)

	recent := 0
	for _, u := range ds.Unicorns {
		if ds.ReferenceTime.Sub(u.RegisteredAt) <= 24*time.Hour {
			recent++
		}
	}
	assert.Equal(t, len(ds.Unicorns)/12, recent)
}

func TestSeed(t *testing.T) {
	ds, err := Generate(42, Options{})
	require.NoError(t, err)

	store := memory.NewRecordStore()
	require.NoError(t, Seed(context.Background(), store, ds))

	snap := store.Snapshot()
	assert.Equal(t, uint64(1), snap.Version)
	assert.Len(t, snap.Unicorns, len(ds.Unicorns))
	assert.Len(t, snap.Trades, len(ds.Trades))
	assert.Len(t, snap.Trend, TrendMonths)
	assert.True(t, snap.AsOf.Equal(ds.ReferenceTime))

	// Seeding twice fails as a whole and leaves the first load intact.
	err = Seed(context.Background(), store, ds)
	assert.ErrorIs(t, err, storage.ErrDuplicateIdentifier)
	assert.Equal(t, uint64(1), store.Snapshot().Version)
}

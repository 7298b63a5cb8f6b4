package dashboard

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unicorn-dashboard/internal/derivation"
	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/observability"
	"unicorn-dashboard/internal/storage"
	"unicorn-dashboard/internal/views"
)

func newDashboard(t *testing.T) *Dashboard {
	t.Helper()
	d, err := New(context.Background(), Options{})
	require.NoError(t, err)
	return d
}

func firstWithStatus(t *testing.T, d *Dashboard, status domain.Status) domain.Unicorn {
	t.Helper()
	for _, u := range d.Snapshot().Unicorns {
		if u.Status == status {
			return u
		}
	}
	t.Fatalf("no unicorn with status %s", status)
	return domain.Unicorn{}
}

func TestNew_Seeded(t *testing.T) {
	d := newDashboard(t)

	snap := d.Snapshot()
	assert.Len(t, snap.Unicorns, 60)
	assert.NotEmpty(t, snap.Trades)
	assert.Len(t, snap.Trend, 12)
	assert.Len(t, d.Activity(), 20)
	assert.True(t, d.Filter().IsZero())
}

func TestNew_InstancesAreIndependent(t *testing.T) {
	ctx := context.Background()
	a := newDashboard(t)
	b := newDashboard(t)

	require.NoError(t, a.SetFilter(domain.DimensionBreed, "Golden"))
	u := firstWithStatus(t, a, domain.StatusAvailable)
	require.NoError(t, a.UpdateStatus(ctx, u.ID, domain.StatusSold))

	assert.True(t, b.Filter().IsZero())
	got, ok := b.Snapshot().Lookup(u.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusAvailable, got.Status)
	assert.NotEqual(t, a.Activity()[0].ID, b.Activity()[0].ID)
}

func TestNew_SkipSeed(t *testing.T) {
	d, err := New(context.Background(), Options{SkipSeed: true})
	require.NoError(t, err)

	assert.Empty(t, d.Snapshot().Unicorns)
	assert.Empty(t, d.Activity())

	page, err := d.Page(derivation.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Habitats.Slices)
	assert.Equal(t, "$0", page.KPIs[2].Value)
}

func TestInsert_RecordsListing(t *testing.T) {
	d := newDashboard(t)
	u := &domain.Unicorn{
		ID:           "#2848",
		Name:         "Starlight",
		Breed:        domain.BreedCelestial,
		Habitat:      domain.HabitatSanctuary,
		Region:       domain.RegionEU,
		Status:       domain.StatusAvailable,
		Value:        decimal.NewFromInt(84500),
		RegisteredAt: time.Date(2026, 1, 2, 10, 50, 0, 0, time.UTC),
	}

	require.NoError(t, d.Insert(context.Background(), u))

	latest := d.Activity()[0]
	assert.Equal(t, domain.ActivityListing, latest.Category)
	assert.Equal(t, "New listing: Starlight (#2848)", latest.Description)
	assert.Equal(t, "#2848", latest.RecordID)
	assert.True(t, latest.Timestamp.Equal(u.RegisteredAt))
	assert.Len(t, d.Activity(), 20)

	err := d.Insert(context.Background(), u)
	assert.ErrorIs(t, err, storage.ErrDuplicateIdentifier)
	assert.Equal(t, latest.ID, d.Activity()[0].ID)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	d := newDashboard(t)
	u := firstWithStatus(t, d, domain.StatusAvailable)

	require.NoError(t, d.UpdateStatus(ctx, u.ID, domain.StatusSold))
	latest := d.Activity()[0]
	assert.Equal(t, domain.ActivityTrade, latest.Category)
	assert.Contains(t, latest.Description, "Sold: "+u.Name)

	err := d.UpdateStatus(ctx, u.ID, domain.StatusReserved)
	assert.ErrorIs(t, err, storage.ErrInvalidTransition)
	assert.Equal(t, latest.ID, d.Activity()[0].ID, "rejected update must not record activity")

	got, _ := d.Snapshot().Lookup(u.ID)
	assert.Equal(t, domain.StatusSold, got.Status)
}

func TestUpdateStatus_ReservedRecordsBid(t *testing.T) {
	d := newDashboard(t)
	u := firstWithStatus(t, d, domain.StatusAvailable)

	require.NoError(t, d.UpdateStatus(context.Background(), u.ID, domain.StatusReserved))
	assert.Equal(t, domain.ActivityBid, d.Activity()[0].Category)
}

func TestAppendTrade_Dangling(t *testing.T) {
	d := newDashboard(t)
	before := d.Snapshot()

	err := d.AppendTrade(context.Background(), &domain.TradeRecord{
		TradeID:     "t-dangling",
		UnicornID:   "#9999",
		CompletedAt: before.AsOf,
		Value:       decimal.NewFromInt(1000),
	})

	assert.ErrorIs(t, err, storage.ErrDanglingReference)
	after := d.Snapshot()
	assert.Equal(t, before.Trades, after.Trades)
	assert.Equal(t, before.Version, after.Version)
}

func TestAppendTrade_RejectedLeavesInputUntouched(t *testing.T) {
	d := newDashboard(t)

	tr := &domain.TradeRecord{UnicornID: "#9999", Value: decimal.NewFromInt(1000)}
	err := d.AppendTrade(context.Background(), tr)

	assert.ErrorIs(t, err, storage.ErrDanglingReference)
	assert.Empty(t, tr.TradeID)
	assert.True(t, tr.CompletedAt.IsZero())
}

func TestAppendTrade_FillsDefaults(t *testing.T) {
	d := newDashboard(t)
	u := firstWithStatus(t, d, domain.StatusSold)
	asOf := d.Snapshot().AsOf

	tr := &domain.TradeRecord{UnicornID: u.ID, Value: decimal.NewFromInt(92000)}
	require.NoError(t, d.AppendTrade(context.Background(), tr))

	assert.NotEmpty(t, tr.TradeID)
	assert.True(t, tr.CompletedAt.Equal(asOf))
	assert.Equal(t, "Trade completed: $92,000", d.Activity()[0].Description)
}

func TestFilterChangesPage(t *testing.T) {
	d := newDashboard(t)

	require.NoError(t, d.SetFilter(domain.DimensionHabitat, "Wild"))
	page, err := d.Page(derivation.Params{})
	require.NoError(t, err)
	for _, row := range page.Listings.Rows {
		u, ok := d.Snapshot().Lookup(row[0])
		require.True(t, ok)
		assert.Equal(t, domain.HabitatWild, u.Habitat)
	}

	assert.ErrorIs(t, d.SetFilter(domain.DimensionHabitat, "Ocean"), storage.ErrMalformedFilterValue)
	assert.Equal(t, domain.HabitatWild, d.Filter().Habitat)

	require.NoError(t, d.ClearFilter(domain.DimensionHabitat))
	require.NoError(t, d.ReplaceFilter(domain.FilterState{Breed: domain.BreedShadow, Status: domain.StatusSold}))
	assert.Equal(t, domain.BreedShadow, d.Filter().Breed)
	d.ResetFilter()
	assert.True(t, d.Filter().IsZero())
}

func TestPage_ConsistentUnderConcurrentMutation(t *testing.T) {
	d := newDashboard(t)
	ctx := context.Background()
	require.NoError(t, d.SetFilter(domain.DimensionHabitat, "Wild"))
	template := d.Snapshot().Unicorns[0]

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		habitats := []string{"Captive", "Wild"}
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			_ = d.SetFilter(domain.DimensionHabitat, habitats[i%2])
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			select {
			case <-stop:
				return
			default:
			}
			u := template
			u.ID = fmt.Sprintf("#5%03d", i)
			u.Habitat = domain.Habitats[i%len(domain.Habitats)]
			_ = d.Insert(ctx, &u)
		}
	}()

	pages := make([]*views.Page, 0, 2000)
	for i := 0; i < 2000; i++ {
		page, err := d.Page(derivation.Params{})
		require.NoError(t, err)
		pages = append(pages, page)
	}
	close(stop)
	wg.Wait()

	final := d.Snapshot()
	for i, page := range pages {
		want := page.Filter.Habitat.String()
		var slice views.DonutSlice
		for _, s := range page.Habitats.Slices {
			if s.Label == want {
				slice = s
			}
		}
		if slice.Share != 1.0 || slice.Value != page.Listings.Total {
			t.Fatalf("page %d: filter %s, donut %+v, table total %d", i, want, page.Habitats.Slices, page.Listings.Total)
		}
		for _, row := range page.Listings.Rows {
			u, ok := final.Lookup(row[0])
			require.True(t, ok)
			if u.Habitat.String() != want {
				t.Fatalf("page %d: filter %s but row %s is %s", i, want, u.ID, u.Habitat)
			}
		}
	}
}

func TestMetricsWiring(t *testing.T) {
	reg := prometheus.NewRegistry()
	d, err := New(context.Background(), Options{Metrics: observability.NewMetrics("test", reg)})
	require.NoError(t, err)

	_, err = d.Compute(derivation.KindKPISummary, derivation.Params{})
	require.NoError(t, err)
	_ = d.UpdateStatus(context.Background(), "#9999", domain.StatusSold)

	families, err := reg.Gather()
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, mf := range families {
		seen[mf.GetName()] = true
	}
	assert.True(t, seen["test_derivation_computations_total"])
	assert.True(t, seen["test_store_mutations_total"])
	assert.True(t, seen["test_store_population"])
}

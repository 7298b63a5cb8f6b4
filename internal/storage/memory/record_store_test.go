package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/storage"
)

var baseTime = time.Date(2026, 1, 2, 10, 45, 0, 0, time.UTC)

func testUnicorn(id string, habitat domain.Habitat) *domain.Unicorn {
	return &domain.Unicorn{
		ID:           id,
		Name:         "Aurora",
		Breed:        domain.BreedRainbow,
		Habitat:      habitat,
		Region:       domain.RegionEU,
		Status:       domain.StatusAvailable,
		Value:        decimal.NewFromInt(84500),
		RegisteredAt: baseTime.Add(-time.Hour),
	}
}

func testTrade(id, unicornID string) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:     id,
		UnicornID:   unicornID,
		CompletedAt: baseTime,
		Value:       decimal.NewFromInt(92000),
	}
}

func TestRecordStore_InsertAndSnapshot(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testUnicorn("#0001", domain.HabitatWild)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, testUnicorn("#0002", domain.HabitatCaptive)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	snap := store.Snapshot()
	if len(snap.Unicorns) != 2 {
		t.Fatalf("expected 2 unicorns, got %d", len(snap.Unicorns))
	}
	if snap.Unicorns[0].ID != "#0001" || snap.Unicorns[1].ID != "#0002" {
		t.Errorf("insertion order not preserved: %s, %s", snap.Unicorns[0].ID, snap.Unicorns[1].ID)
	}
	if snap.Version != 2 {
		t.Errorf("Version = %d, want 2", snap.Version)
	}
	if !snap.AsOf.Equal(baseTime.Add(-time.Hour)) {
		t.Errorf("AsOf = %v, want latest registration", snap.AsOf)
	}
	if u, ok := snap.Lookup("#0002"); !ok || u.Habitat != domain.HabitatCaptive {
		t.Errorf("Lookup(#0002) = %+v, %v", u, ok)
	}
}

func TestRecordStore_DuplicateIdentifier(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testUnicorn("#0001", domain.HabitatWild)); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := store.Insert(ctx, testUnicorn("#0001", domain.HabitatReserve))
	if !errors.Is(err, storage.ErrDuplicateIdentifier) {
		t.Errorf("expected ErrDuplicateIdentifier, got %v", err)
	}

	snap := store.Snapshot()
	if len(snap.Unicorns) != 1 || snap.Unicorns[0].Habitat != domain.HabitatWild {
		t.Errorf("store changed after rejected insert: %+v", snap.Unicorns)
	}
	if snap.Version != 1 {
		t.Errorf("Version = %d, want 1", snap.Version)
	}
}

func TestRecordStore_InsertRejectsInvalidRecords(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(u *domain.Unicorn)
	}{
		{"empty id", func(u *domain.Unicorn) { u.ID = "" }},
		{"empty name", func(u *domain.Unicorn) { u.Name = "" }},
		{"unknown breed", func(u *domain.Unicorn) { u.Breed = "Pegasus" }},
		{"unknown habitat", func(u *domain.Unicorn) { u.Habitat = "Volcano" }},
		{"unknown region", func(u *domain.Unicorn) { u.Region = "Mars" }},
		{"unknown status", func(u *domain.Unicorn) { u.Status = "gifted" }},
		{"negative value", func(u *domain.Unicorn) { u.Value = decimal.NewFromInt(-1) }},
		{"zero registration", func(u *domain.Unicorn) { u.RegisteredAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewRecordStore()
			u := testUnicorn("#0001", domain.HabitatWild)
			tt.mutate(u)

			err := store.Insert(context.Background(), u)
			if !errors.Is(err, storage.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if store.Version() != 0 {
				t.Errorf("Version = %d after rejected insert", store.Version())
			}
		})
	}
}

func TestRecordStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("available to sold skips reserved", func(t *testing.T) {
		store := NewRecordStore()
		_ = store.Insert(ctx, testUnicorn("#0001", domain.HabitatWild))

		if err := store.UpdateStatus(ctx, "#0001", domain.StatusSold); err != nil {
			t.Fatalf("UpdateStatus failed: %v", err)
		}
		u, _ := store.Snapshot().Lookup("#0001")
		if u.Status != domain.StatusSold {
			t.Errorf("Status = %s, want sold", u.Status)
		}

		err := store.UpdateStatus(ctx, "#0001", domain.StatusReserved)
		if !errors.Is(err, storage.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
		u, _ = store.Snapshot().Lookup("#0001")
		if u.Status != domain.StatusSold {
			t.Errorf("Status regressed to %s", u.Status)
		}
	})

	t.Run("same status is rejected", func(t *testing.T) {
		store := NewRecordStore()
		_ = store.Insert(ctx, testUnicorn("#0001", domain.HabitatWild))

		err := store.UpdateStatus(ctx, "#0001", domain.StatusAvailable)
		if !errors.Is(err, storage.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		store := NewRecordStore()
		err := store.UpdateStatus(ctx, "#9999", domain.StatusReserved)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		store := NewRecordStore()
		_ = store.Insert(ctx, testUnicorn("#0001", domain.HabitatWild))
		err := store.UpdateStatus(ctx, "#0001", domain.Status("gifted"))
		if !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestRecordStore_AppendTrade(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()
	_ = store.Insert(ctx, testUnicorn("#0001", domain.HabitatWild))

	if err := store.AppendTrade(ctx, testTrade("t1", "#0001")); err != nil {
		t.Fatalf("AppendTrade failed: %v", err)
	}

	err := store.AppendTrade(ctx, testTrade("t2", "#9999"))
	if !errors.Is(err, storage.ErrDanglingReference) {
		t.Errorf("expected ErrDanglingReference, got %v", err)
	}

	err = store.AppendTrade(ctx, testTrade("t1", "#0001"))
	if !errors.Is(err, storage.ErrDuplicateIdentifier) {
		t.Errorf("expected ErrDuplicateIdentifier, got %v", err)
	}

	snap := store.Snapshot()
	if len(snap.Trades) != 1 || snap.Trades[0].TradeID != "t1" {
		t.Errorf("trades changed by rejected appends: %+v", snap.Trades)
	}
	if !snap.AsOf.Equal(baseTime) {
		t.Errorf("AsOf = %v, want trade completion time", snap.AsOf)
	}
}

func TestRecordStore_UpdateIsAllOrNothing(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()
	_ = store.Insert(ctx, testUnicorn("#0001", domain.HabitatWild))

	err := store.Update(ctx, func(tx *Tx) error {
		if err := tx.Insert(testUnicorn("#0002", domain.HabitatWild)); err != nil {
			return err
		}
		if err := tx.UpdateStatus("#0001", domain.StatusReserved); err != nil {
			return err
		}
		return tx.AppendTrade(testTrade("t1", "#9999"))
	})
	if !errors.Is(err, storage.ErrDanglingReference) {
		t.Fatalf("expected ErrDanglingReference, got %v", err)
	}

	snap := store.Snapshot()
	if len(snap.Unicorns) != 1 {
		t.Errorf("partial batch committed: %d unicorns", len(snap.Unicorns))
	}
	if snap.Unicorns[0].Status != domain.StatusAvailable {
		t.Errorf("partial batch committed: status %s", snap.Unicorns[0].Status)
	}
	if snap.Version != 1 {
		t.Errorf("Version = %d, want 1", snap.Version)
	}

	err = store.Update(ctx, func(tx *Tx) error {
		tx.SetReferenceTime(baseTime.Add(time.Hour))
		return tx.Insert(testUnicorn("#0002", domain.HabitatReserve))
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	snap = store.Snapshot()
	if len(snap.Unicorns) != 2 || snap.Version != 2 {
		t.Errorf("batch not committed: %d unicorns, version %d", len(snap.Unicorns), snap.Version)
	}
	if !snap.AsOf.Equal(baseTime.Add(time.Hour)) {
		t.Errorf("AsOf = %v, want reference time", snap.AsOf)
	}
}

func TestRecordStore_SnapshotIsolation(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()
	_ = store.Insert(ctx, testUnicorn("#0001", domain.HabitatWild))

	before := store.Snapshot()
	_ = store.UpdateStatus(ctx, "#0001", domain.StatusReserved)
	_ = store.Insert(ctx, testUnicorn("#0002", domain.HabitatWild))

	if len(before.Unicorns) != 1 || before.Unicorns[0].Status != domain.StatusAvailable {
		t.Errorf("earlier snapshot observed later mutations: %+v", before.Unicorns)
	}

	before.Unicorns[0].Name = "Mutated"
	u, _ := store.Snapshot().Lookup("#0001")
	if u.Name == "Mutated" {
		t.Error("snapshot modification leaked into store")
	}
}

func TestRecordStore_SetTrend(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	points := []domain.TrendPoint{{Label: "Jan", Value: 10}, {Label: "Feb", Value: 12}}
	if err := store.SetTrend(ctx, points); err != nil {
		t.Fatalf("SetTrend failed: %v", err)
	}
	points[0].Value = 99
	if got := store.Snapshot().Trend[0].Value; got != 10 {
		t.Errorf("trend aliased caller slice: %v", got)
	}

	err := store.SetTrend(ctx, []domain.TrendPoint{{Label: "", Value: 1}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if len(store.Snapshot().Trend) != 2 {
		t.Error("rejected trend replaced the series")
	}
}

func TestRecordStore_UniqueUnderManyInserts(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("#%04d", i%50)
		_ = store.Insert(ctx, testUnicorn(id, domain.HabitatWild))
	}

	seen := make(map[string]bool)
	for _, u := range store.Snapshot().Unicorns {
		if seen[u.ID] {
			t.Fatalf("duplicate id %s in store", u.ID)
		}
		seen[u.ID] = true
	}
	if len(seen) != 50 {
		t.Errorf("expected 50 unique records, got %d", len(seen))
	}
}

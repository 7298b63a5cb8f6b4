package generator

import (
	"context"
	"fmt"

	"unicorn-dashboard/internal/storage/memory"
)

// Seed loads ds into store as a single transaction. Every record passes
// through the same validation as any other insert.
func Seed(ctx context.Context, store *memory.RecordStore, ds *Dataset) error {
	return store.Update(ctx, func(tx *memory.Tx) error {
		tx.SetReferenceTime(ds.ReferenceTime)
		for i := range ds.Unicorns {
			if err := tx.Insert(&ds.Unicorns[i]); err != nil {
				return fmt.Errorf("seed unicorns: %w", err)
			}
		}
		for i := range ds.Trades {
			if err := tx.AppendTrade(&ds.Trades[i]); err != nil {
				return fmt.Errorf("seed trades: %w", err)
			}
		}
		if err := tx.SetTrend(ds.Trend); err != nil {
			return fmt.Errorf("seed trend: %w", err)
		}
		return nil
	})
}

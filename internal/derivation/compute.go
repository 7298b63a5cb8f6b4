package derivation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/filter"
	"unicorn-dashboard/internal/storage"
)

// input is everything a derivation may read.
type input struct {
	snap     *storage.Snapshot
	filtered []domain.Unicorn
	window   time.Duration
}

// compute dispatches one derivation over a consistent input.
func compute(kind Kind, params Params, snap *storage.Snapshot, f domain.FilterState, window time.Duration) (Result, error) {
	if err := checkConsistency(snap); err != nil {
		return Result{}, err
	}

	in := input{snap: snap, window: window}
	if kind.filtered() {
		in.filtered = filter.Apply(f, snap.Unicorns)
	}

	res := Result{Kind: kind}
	switch kind {
	case KindTotalPopulation:
		res.Count = computeTotalPopulation(in.snap)
	case KindActiveTrades:
		res.Count = computeActiveTrades(in.snap, in.snap.Trades)
	case KindAverageTradeValue:
		avg := computeAverageTradeValue(in.snap.Trades)
		res.Amount = &avg
	case KindNewRegistrations:
		res.Count = computeRegistrationsBetween(in.snap.Unicorns, in.snap.AsOf.Add(-window), in.snap.AsOf, true)
	case KindKPISummary:
		kpis := computeKPISummary(in)
		res.KPIs = &kpis
	case KindHabitatDistribution:
		res.Shares = computeHabitatDistribution(in.filtered)
	case KindBreedRanking:
		res.Ranking = computeBreedRanking(in.filtered)
	case KindRegionDistribution:
		res.Regions = computeRegionDistribution(in.filtered)
	case KindTrendSeries:
		res.Trend = append([]domain.TrendPoint{}, in.snap.Trend...)
	case KindTableRows:
		page := computeTableRows(in.filtered, params)
		res.Table = &page
	default:
		return Result{}, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
	return res, nil
}

// checkConsistency verifies the snapshot is one the store could have
// produced: every trade resolves and every record holds declared values.
func checkConsistency(snap *storage.Snapshot) error {
	for i := range snap.Unicorns {
		u := &snap.Unicorns[i]
		if !u.Breed.IsValid() || !u.Habitat.IsValid() || !u.Region.IsValid() || !u.Status.IsValid() {
			return fmt.Errorf("unicorn %s has undeclared attribute values: %w", u.ID, ErrInconsistentSnapshot)
		}
		if u.Value.IsNegative() {
			return fmt.Errorf("unicorn %s has negative value: %w", u.ID, ErrInconsistentSnapshot)
		}
	}
	for i := range snap.Trades {
		t := &snap.Trades[i]
		if _, ok := snap.Lookup(t.UnicornID); !ok {
			return fmt.Errorf("trade %s references missing unicorn %q: %w", t.TradeID, t.UnicornID, ErrInconsistentSnapshot)
		}
	}
	return nil
}

// computeTotalPopulation counts the unfiltered collection.
func computeTotalPopulation(snap *storage.Snapshot) int {
	return len(snap.Unicorns)
}

// computeActiveTrades counts trades whose unicorn is currently reserved.
func computeActiveTrades(snap *storage.Snapshot, trades []domain.TradeRecord) int {
	n := 0
	for i := range trades {
		if u, ok := snap.Lookup(trades[i].UnicornID); ok && u.Status == domain.StatusReserved {
			n++
		}
	}
	return n
}

// computeAverageTradeValue is the arithmetic mean of trade values. Returns
// exactly 0 for no trades.
func computeAverageTradeValue(trades []domain.TradeRecord) decimal.Decimal {
	if len(trades) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for i := range trades {
		sum = sum.Add(trades[i].Value)
	}
	return sum.Div(decimal.NewFromInt(int64(len(trades))))
}

// computeRegistrationsBetween counts registrations in [from, to], or
// [from, to) when inclusiveEnd is false.
func computeRegistrationsBetween(unicorns []domain.Unicorn, from, to time.Time, inclusiveEnd bool) int {
	n := 0
	for i := range unicorns {
		at := unicorns[i].RegisteredAt
		if at.Before(from) {
			continue
		}
		if at.After(to) || (!inclusiveEnd && at.Equal(to)) {
			continue
		}
		n++
	}
	return n
}

// computeKPISummary gathers the headline metrics and their changes versus
// one registration window earlier.
func computeKPISummary(in input) KPISummary {
	snap := in.snap
	asOf := snap.AsOf
	windowStart := asOf.Add(-in.window)

	// Trades completed before the current window are the baseline.
	var earlier []domain.TradeRecord
	for i := range snap.Trades {
		if snap.Trades[i].CompletedAt.Before(windowStart) {
			earlier = append(earlier, snap.Trades[i])
		}
	}

	total := computeTotalPopulation(snap)
	active := computeActiveTrades(snap, snap.Trades)
	avg := computeAverageTradeValue(snap.Trades)
	registrations := computeRegistrationsBetween(snap.Unicorns, windowStart, asOf, true)

	prevPopulation := 0.0
	if n := len(snap.Trend); n >= 2 {
		prevPopulation = snap.Trend[n-2].Value
	}
	prevAvg := computeAverageTradeValue(earlier)
	prevActive := computeActiveTrades(snap, earlier)
	prevRegistrations := computeRegistrationsBetween(snap.Unicorns, windowStart.Add(-in.window), windowStart, false)

	return KPISummary{
		TotalPopulation:        total,
		PopulationChangePct:    computeChangePct(prevPopulation, float64(total)),
		ActiveTrades:           active,
		ActiveTradesChangePct:  computeChangePct(float64(prevActive), float64(active)),
		AverageTradeValue:      avg,
		AverageValueChangePct:  computeChangePct(prevAvg.InexactFloat64(), avg.InexactFloat64()),
		NewRegistrations:       registrations,
		RegistrationsChangePct: computeChangePct(float64(prevRegistrations), float64(registrations)),
		AsOf:                   asOf,
	}
}

// computeChangePct returns the percentage change from prev to cur, rounded
// to one decimal place. Returns 0 when prev is 0.
func computeChangePct(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	return math.Round((cur-prev)/prev*1000) / 10
}

// computeHabitatDistribution returns each habitat's share of records, in
// declaration order. Returns nil for an empty collection.
func computeHabitatDistribution(records []domain.Unicorn) []HabitatShare {
	if len(records) == 0 {
		return nil
	}
	counts := make(map[domain.Habitat]int, len(domain.Habitats))
	for i := range records {
		counts[records[i].Habitat]++
	}

	total := float64(len(records))
	out := make([]HabitatShare, 0, len(domain.Habitats))
	for _, h := range domain.Habitats {
		out = append(out, HabitatShare{
			Habitat:  h,
			Count:    counts[h],
			Fraction: float64(counts[h]) / total,
		})
	}
	return out
}

// computeBreedRanking orders breeds present in records by count DESC,
// ties by declaration order.
func computeBreedRanking(records []domain.Unicorn) []BreedCount {
	counts := make(map[domain.Breed]int, len(domain.Breeds))
	for i := range records {
		counts[records[i].Breed]++
	}

	out := make([]BreedCount, 0, len(counts))
	for _, b := range domain.Breeds {
		if counts[b] > 0 {
			out = append(out, BreedCount{Breed: b, Count: counts[b]})
		}
	}
	// Stable sort keeps declaration order among equal counts.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// computeRegionDistribution counts records per region in declaration order.
// Returns nil for an empty collection.
func computeRegionDistribution(records []domain.Unicorn) []RegionCount {
	if len(records) == 0 {
		return nil
	}
	counts := make(map[domain.Region]int, len(domain.Regions))
	for i := range records {
		counts[records[i].Region]++
	}

	out := make([]RegionCount, 0, len(domain.Regions))
	for _, r := range domain.Regions {
		out = append(out, RegionCount{Region: r, Count: counts[r]})
	}
	return out
}

// computeTableRows maps records to rows and slices one page. An offset past
// the end yields an empty page.
func computeTableRows(records []domain.Unicorn, params Params) TablePage {
	page := TablePage{
		Rows:   []TableRow{},
		Total:  len(records),
		Offset: params.Offset,
		Limit:  params.Limit,
	}
	if params.Offset >= len(records) {
		return page
	}

	end := len(records)
	if params.Limit > 0 && params.Limit < end-params.Offset {
		end = params.Offset + params.Limit
	}
	for _, u := range records[params.Offset:end] {
		page.Rows = append(page.Rows, TableRow{
			ID:           u.ID,
			Name:         u.Name,
			Breed:        u.Breed,
			Habitat:      u.Habitat,
			Region:       u.Region,
			Status:       u.Status,
			Value:        u.Value,
			RegisteredAt: u.RegisteredAt,
		})
	}
	return page
}
